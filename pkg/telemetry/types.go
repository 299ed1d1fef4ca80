// Package telemetry polls the SegBot sensors and tracks the last
// observed values.
package telemetry

import (
	"strconv"

	"github.com/robotalks/segbot/pkg/protocol"
)

// Field identifies a telemetry value.
type Field int

// Fields in polling order.
const (
	FieldAngle Field = iota
	FieldSpeedLeft
	FieldSpeedRight
	FieldDistance
	FieldVoltage
	NumFields
)

var fieldQueries = [NumFields]string{
	protocol.QueryAngle,
	protocol.QuerySpeedLeft,
	protocol.QuerySpeedRight,
	protocol.QueryDistance,
	protocol.QueryVoltage,
}

// Fields returns all fields in polling order.
func Fields() []Field {
	fields := make([]Field, NumFields)
	for n := range fields {
		fields[n] = Field(n)
	}
	return fields
}

// QueryName returns the protocol query for the field.
func (f Field) QueryName() string {
	if f >= 0 && f < NumFields {
		return fieldQueries[f]
	}
	return ""
}

// String implements fmt.Stringer.
func (f Field) String() string {
	if name := f.QueryName(); name != "" {
		return name
	}
	return "field(" + strconv.Itoa(int(f)) + ")"
}

// Snapshot holds the last observed values. The zero value is the state
// before anything was received.
type Snapshot struct {
	Angle      int `json:"angle" yaml:"angle"`
	SpeedLeft  int `json:"speedLeft" yaml:"speedLeft"`
	SpeedRight int `json:"speedRight" yaml:"speedRight"`
	Distance   int `json:"distance" yaml:"distance"`
	Voltage    int `json:"voltage" yaml:"voltage"`
}

func (s *Snapshot) ref(f Field) *int {
	switch f {
	case FieldAngle:
		return &s.Angle
	case FieldSpeedLeft:
		return &s.SpeedLeft
	case FieldSpeedRight:
		return &s.SpeedRight
	case FieldDistance:
		return &s.Distance
	case FieldVoltage:
		return &s.Voltage
	}
	return nil
}

// Get returns the value of a field.
func (s Snapshot) Get(f Field) int {
	if p := s.ref(f); p != nil {
		return *p
	}
	return 0
}

// Set updates a field and reports whether it changed.
func (s *Snapshot) Set(f Field, val int) bool {
	p := s.ref(f)
	if p == nil || *p == val {
		return false
	}
	*p = val
	return true
}

// Listener receives a value change.
type Listener interface {
	TelemetryChanged(f Field, val int)
}

// ListenerFunc is the func form of Listener.
type ListenerFunc func(f Field, val int)

// TelemetryChanged implements Listener.
func (f ListenerFunc) TelemetryChanged(field Field, val int) {
	f(field, val)
}

// Caster fans notifications out to subscribed listeners.
type Caster struct {
	listeners []Listener
}

// Subscribe adds a listener.
func (c *Caster) Subscribe(ln Listener) {
	c.listeners = append(c.listeners, ln)
}

// TelemetryChanged implements Listener.
func (c *Caster) TelemetryChanged(f Field, val int) {
	for _, ln := range c.listeners {
		ln.TelemetryChanged(f, val)
	}
}
