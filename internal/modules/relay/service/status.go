package service

import (
	"log/slog"

	pairDomain "github.com/reshetovitsme/channel-relay/internal/modules/pair/domain"
	"github.com/samber/lo"
)

// Status is a point-in-time summary of the relay.
type Status struct {
	Pairs        int           `json:"pairs"`
	EnabledPairs int           `json:"enabled_pairs"`
	Mappings     int64         `json:"mappings"`
	QueueDepth   int           `json:"queue_depth"`
	Alerts       int           `json:"alerts"`
	Failures     map[int64]int `json:"failures,omitempty"`
}

type pairLister interface {
	All() []pairDomain.ChannelPair
}

type mappingCounter interface {
	Count() (int64, error)
}

type alertCounter interface {
	Count() int
}

// StatusReporter assembles Status from the running components.
type StatusReporter struct {
	pairs       pairLister
	mappings    mappingCounter
	alerts      alertCounter
	dispatcher  *Dispatcher
	coordinator *Coordinator
}

// NewStatusReporter creates a reporter. dispatcher and coordinator may be nil
// when the relay is not running, e.g. for offline CLI commands.
func NewStatusReporter(pairs pairLister, mappings mappingCounter, alerts alertCounter, dispatcher *Dispatcher, coordinator *Coordinator) *StatusReporter {
	return &StatusReporter{
		pairs:       pairs,
		mappings:    mappings,
		alerts:      alerts,
		dispatcher:  dispatcher,
		coordinator: coordinator,
	}
}

func (r *StatusReporter) Status() Status {
	all := r.pairs.All()
	st := Status{
		Pairs:        len(all),
		EnabledPairs: lo.CountBy(all, func(p pairDomain.ChannelPair) bool { return p.Enabled }),
	}

	if r.mappings != nil {
		n, err := r.mappings.Count()
		if err != nil {
			slog.Error("Failed to count mappings", "error", err)
		}
		st.Mappings = n
	}
	if r.alerts != nil {
		st.Alerts = r.alerts.Count()
	}
	if r.dispatcher != nil {
		st.QueueDepth = r.dispatcher.QueueDepth()
	}
	if r.coordinator != nil {
		st.Failures = lo.PickBy(r.coordinator.FailureCounts(), func(_ int64, n int) bool { return n > 0 })
	}
	return st
}
