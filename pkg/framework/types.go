package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
// Runnables never touch loop-owned state directly, they post
// messages through LoopControl instead.
type Runnable interface {
	Run(context.Context) error
}

// Message is anything posted to the loop for processing on the
// loop goroutine.
type Message interface{}

// MessageProcessor processes messages on the loop goroutine.
type MessageProcessor interface {
	ProcessMessage(MessageProcessingContext)
}

// ProcessMessageFunc is the func form of MessageProcessor.
type ProcessMessageFunc func(MessageProcessingContext)

// ProcessMessage implements MessageProcessor.
func (f ProcessMessageFunc) ProcessMessage(mc MessageProcessingContext) {
	f(mc)
}

// MessageProcessingContext provides context for current message.
type MessageProcessingContext interface {
	// Context retrieves the context of the running loop.
	Context() context.Context
	// CurrentMessage gets the current message being processed.
	CurrentMessage() Message
	// MessageTaken indicates the message has been processed and
	// no further processors should see it.
	MessageTaken()
}

// TickFunc is invoked on the loop goroutine when a Timer fires.
type TickFunc func(context.Context)

// LoopControl exposes access to the controlling loop.
// It's safe to use from any goroutine.
type LoopControl interface {
	// PostMessage enqueues the message.
	PostMessage(Message)
	// TriggerNext schedules the next iteration to be executed
	// as soon as possible.
	TriggerNext()
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

// MinTimerInterval is the smallest interval a Timer accepts.
const MinTimerInterval = time.Millisecond
