package telemetry

import (
	"fmt"
)

// Querier performs one query exchange, e.g. *protocol.Client.
type Querier interface {
	Query(name string) (int, error)
}

// Poller issues all queries on every Tick and notifies listeners of
// values that changed.
type Poller struct {
	Caster

	snapshot Snapshot
}

// NewPoller creates a Poller with the zero Snapshot.
func NewPoller() *Poller {
	return &Poller{}
}

// Snapshot returns the last observed values.
func (p *Poller) Snapshot() Snapshot {
	return p.snapshot
}

// Tick queries every field in order. If any exchange fails the tick is
// abandoned: nothing is updated or notified and the error is returned.
func (p *Poller) Tick(q Querier) error {
	var values [NumFields]int
	for n := range values {
		f := Field(n)
		val, err := q.Query(f.QueryName())
		if err != nil {
			return fmt.Errorf("query %s: %w", f, err)
		}
		values[n] = val
	}
	for n, val := range values {
		if f := Field(n); p.snapshot.Set(f, val) {
			p.TelemetryChanged(f, val)
		}
	}
	return nil
}
