// Package stream feeds SegBot notifications to websocket clients, e.g.
// a dashboard visualising telemetry.
package stream

import (
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/segbot/pkg/segbot"
	"github.com/robotalks/segbot/pkg/telemetry"
)

// Update types.
const (
	UpdateTelemetry = "telemetry"
	UpdateState     = "state"
)

// Update is the JSON document sent to clients.
type Update struct {
	Type      string              `json:"type"`
	Telemetry *telemetry.Snapshot `json:"telemetry,omitempty"`
	State     *segbot.State       `json:"state,omitempty"`
}

// ClientQueueLen bounds the updates queued per client. Updates for
// slow clients are dropped.
const ClientQueueLen = 16

// Hub implements segbot.Observer and broadcasts every change.
type Hub struct {
	lock     sync.Mutex
	snapshot telemetry.Snapshot
	state    segbot.State
	clients  map[chan Update]struct{}
}

// NewHub creates a Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[chan Update]struct{})}
}

// Handler serves the websocket endpoint.
func (h *Hub) Handler() websocket.Handler {
	return websocket.Handler(h.serve)
}

func (h *Hub) serve(conn *websocket.Conn) {
	defer conn.Close()
	ch := h.register()
	defer h.unregister(ch)
	glog.V(1).Infof("stream client %s connected", conn.Request().RemoteAddr)

	// reads only detect the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		var discard []byte
		for websocket.Message.Receive(conn, &discard) == nil {
		}
	}()
	for {
		select {
		case u := <-ch:
			if err := websocket.JSON.Send(conn, u); err != nil {
				glog.V(1).Infof("stream client %s: %v", conn.Request().RemoteAddr, err)
				return
			}
		case <-closed:
			glog.V(1).Infof("stream client %s disconnected", conn.Request().RemoteAddr)
			return
		}
	}
}

// register adds a client queue primed with the current values.
func (h *Hub) register() chan Update {
	ch := make(chan Update, ClientQueueLen)
	h.lock.Lock()
	snapshot, state := h.snapshot, h.state
	ch <- Update{Type: UpdateState, State: &state}
	ch <- Update{Type: UpdateTelemetry, Telemetry: &snapshot}
	h.clients[ch] = struct{}{}
	h.lock.Unlock()
	return ch
}

func (h *Hub) unregister(ch chan Update) {
	h.lock.Lock()
	delete(h.clients, ch)
	h.lock.Unlock()
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcast(u Update) {
	for ch := range h.clients {
		select {
		case ch <- u:
		default:
			glog.V(2).Info("stream client too slow, update dropped")
		}
	}
}

func (h *Hub) telemetryChanged(f telemetry.Field, val int) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.snapshot.Set(f, val)
	snapshot := h.snapshot
	h.broadcast(Update{Type: UpdateTelemetry, Telemetry: &snapshot})
}

func (h *Hub) stateChanged(update func(*segbot.State)) {
	h.lock.Lock()
	defer h.lock.Unlock()
	update(&h.state)
	state := h.state
	h.broadcast(Update{Type: UpdateState, State: &state})
}

// AngleChanged implements segbot.Observer.
func (h *Hub) AngleChanged(val int) { h.telemetryChanged(telemetry.FieldAngle, val) }

// SpeedLeftChanged implements segbot.Observer.
func (h *Hub) SpeedLeftChanged(val int) { h.telemetryChanged(telemetry.FieldSpeedLeft, val) }

// SpeedRightChanged implements segbot.Observer.
func (h *Hub) SpeedRightChanged(val int) { h.telemetryChanged(telemetry.FieldSpeedRight, val) }

// SensorDistanceChanged implements segbot.Observer.
func (h *Hub) SensorDistanceChanged(val int) { h.telemetryChanged(telemetry.FieldDistance, val) }

// VoltageChanged implements segbot.Observer.
func (h *Hub) VoltageChanged(val int) { h.telemetryChanged(telemetry.FieldVoltage, val) }

// ErrorStringChanged implements segbot.Observer.
func (h *Hub) ErrorStringChanged(s string) {
	h.stateChanged(func(st *segbot.State) { st.Error = s })
}

// StateChanged implements segbot.StateObserver.
func (h *Hub) StateChanged(st segbot.State) {
	h.stateChanged(func(s *segbot.State) { *s = st })
}
