package acquire

import (
	"fmt"
	"sync/atomic"
)

// EndpointStats is the per-endpoint counter set. The owning worker updates via
// atomic adds; the stats task and admin listener read snapshots.
type EndpointStats struct {
	name string

	PacketsOK        atomic.Uint64
	ChecksumErrors   atomic.Uint64
	TimeoutErrors    atomic.Uint64
	ConnectionErrors atomic.Uint64
	Reconnections    atomic.Uint64
	SyncResets       atomic.Uint64
}

func NewEndpointStats(name string) *EndpointStats {
	return &EndpointStats{name: name}
}

func (s *EndpointStats) Name() string { return s.name }

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Name             string `json:"name"`
	PacketsOK        uint64 `json:"packets_ok"`
	ChecksumErrors   uint64 `json:"checksum_errors"`
	TimeoutErrors    uint64 `json:"timeout_errors"`
	ConnectionErrors uint64 `json:"connection_errors"`
	Reconnections    uint64 `json:"reconnections"`
	SyncResets       uint64 `json:"sync_resets"`
}

func (s *EndpointStats) Snapshot() Snapshot {
	return Snapshot{
		Name:             s.name,
		PacketsOK:        s.PacketsOK.Load(),
		ChecksumErrors:   s.ChecksumErrors.Load(),
		TimeoutErrors:    s.TimeoutErrors.Load(),
		ConnectionErrors: s.ConnectionErrors.Load(),
		Reconnections:    s.Reconnections.Load(),
		SyncResets:       s.SyncResets.Load(),
	}
}

// Report renders one human-readable stats line for periodic output.
func (s Snapshot) Report() string {
	return fmt.Sprintf(
		"[%s] packets_ok=%d checksum_errors=%d timeout_errors=%d connection_errors=%d reconnections=%d sync_resets=%d",
		s.Name, s.PacketsOK, s.ChecksumErrors, s.TimeoutErrors, s.ConnectionErrors, s.Reconnections, s.SyncResets,
	)
}
