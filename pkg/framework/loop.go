package framework

import (
	"context"
	"sync"

	"github.com/golang/glog"
)

// Loop is the single goroutine owning all device I/O. Messages posted
// from other goroutines and due Timers are processed one at a time,
// so nothing running on the loop is ever pre-empted by another loop
// task.
type Loop struct {
	processors []MessageProcessor
	runners    []Runnable
	timers     []*Timer

	messages messageList
	lock     sync.Mutex

	wakeUpCh chan struct{}
}

type loopCtl struct {
	*Loop
}

type messageList struct {
	head *messageItem
	tail *messageItem
}

type messageItem struct {
	msg  Message
	next *messageItem
}

func (l *messageList) append(item *messageItem) {
	if l.head == nil {
		l.head = item
	} else {
		l.tail.next = item
	}
	l.tail = item
}

func (l *messageList) splice(src *messageList) {
	l.head, l.tail = src.head, src.tail
	src.head, src.tail = nil, nil
}

var (
	loopCtxKey = &Loop{}
)

// LoopCtlFrom gets LoopControl from context passed to Runnables.
func LoopCtlFrom(ctx context.Context) LoopControl {
	return ctx.Value(loopCtxKey).(LoopControl)
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{wakeUpCh: make(chan struct{}, 1)}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddProcessor registers message processors. Processors see messages
// in registration order.
func (l *Loop) AddProcessor(procs ...MessageProcessor) *Loop {
	l.lock.Lock()
	l.processors = append(l.processors, procs...)
	l.lock.Unlock()
	return l
}

// AddRunnable adds Runnable implementions started with the loop.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// NewTimer creates a stopped Timer whose ticks run on this loop.
func (l *Loop) NewTimer(name string, fn TickFunc) *Timer {
	t := &Timer{name: name, loop: l, fn: fn, interval: DefaultTimerInterval}
	l.lock.Lock()
	l.timers = append(l.timers, t)
	l.lock.Unlock()
	return t
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	runner := NewRunnerWith(context.WithValue(ctx, loopCtxKey, LoopControl(&loopCtl{l})))
	runner.Go(l.runners...)
	defer func() {
		if err := runner.Wait(); err != nil {
			glog.Errorf("runner error: %v", err)
		}
	}()

	// process anything posted before Run.
	l.RunIteration(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wakeUpCh:
			l.RunIteration(ctx)
		}
	}
}

// RunOrFail is intended to be used in main to simply run the loop.
func (l *Loop) RunOrFail(ctx context.Context) {
	if err := l.Run(ctx); err != nil && err != context.Canceled {
		glog.Fatal(err)
	}
}

// PostMessage implements LoopControl.
func (l *Loop) PostMessage(msg Message) {
	l.lock.Lock()
	l.messages.append(&messageItem{msg: msg})
	l.lock.Unlock()
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

// Post is a shortcut for PostMessage followed by TriggerNext.
func (l *Loop) Post(msg Message) {
	l.PostMessage(msg)
	l.TriggerNext()
}

// RunIteration processes all queued messages and then fires every
// Timer with a pending tick. It must only be called from the goroutine
// owning the loop; Run does this.
func (l *Loop) RunIteration(ctx context.Context) {
	var msgs messageList
	l.lock.Lock()
	msgs.splice(&l.messages)
	procs, timers := l.processors, l.timers
	l.lock.Unlock()

	for item := msgs.head; item != nil; item = item.next {
		mctx := &messageContext{ctx: ctx, msg: item.msg}
		for _, proc := range procs {
			proc.ProcessMessage(mctx)
			if mctx.taken {
				break
			}
		}
		if !mctx.taken {
			glog.V(2).Infof("message %T not processed", item.msg)
		}
	}

	for _, t := range timers {
		if t.takePending() {
			t.fn(ctx)
		}
	}
}

type messageContext struct {
	ctx   context.Context
	msg   Message
	taken bool
}

func (c *messageContext) Context() context.Context { return c.ctx }
func (c *messageContext) CurrentMessage() Message  { return c.msg }
func (c *messageContext) MessageTaken()            { c.taken = true }
