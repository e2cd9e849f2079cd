package runtime

import (
	"sync/atomic"
	"time"
)

// Metrics counts storage operations. It implements pebblestore.MetricsHook.
type Metrics struct {
	writes      atomic.Uint64
	writeBytes  atomic.Uint64
	reads       atomic.Uint64
	readBytes   atomic.Uint64
	commits     atomic.Uint64
	commitNanos atomic.Uint64
}

func (m *Metrics) ObserveWrite(_ time.Duration, bytes int) {
	m.writes.Add(1)
	m.writeBytes.Add(uint64(bytes))
}

func (m *Metrics) ObserveRead(_ time.Duration, bytes int) {
	m.reads.Add(1)
	m.readBytes.Add(uint64(bytes))
}

func (m *Metrics) ObserveBatchCommit(elapsed time.Duration, _ int, _ int) {
	m.commits.Add(1)
	m.commitNanos.Add(uint64(elapsed.Nanoseconds()))
}

// StorageStats is a point-in-time copy of Metrics.
type StorageStats struct {
	Writes        uint64 `json:"writes"`
	WriteBytes    uint64 `json:"writeBytes"`
	Reads         uint64 `json:"reads"`
	ReadBytes     uint64 `json:"readBytes"`
	Commits       uint64 `json:"commits"`
	CommitAvgUsec uint64 `json:"commitAvgUsec"`
}

func (m *Metrics) Snapshot() StorageStats {
	s := StorageStats{
		Writes:     m.writes.Load(),
		WriteBytes: m.writeBytes.Load(),
		Reads:      m.reads.Load(),
		ReadBytes:  m.readBytes.Load(),
		Commits:    m.commits.Load(),
	}
	if s.Commits > 0 {
		s.CommitAvgUsec = m.commitNanos.Load() / s.Commits / 1000
	}
	return s
}

// Stats describes the configured store and storage activity.
type Stats struct {
	Backend        string       `json:"backend"`
	StoreName      string       `json:"storeName"`
	Capacity       int          `json:"capacity"`
	Records        int          `json:"records"`
	SizeBytes      int64        `json:"sizeBytes"`
	DiskUsageBytes uint64       `json:"diskUsageBytes,omitempty"`
	Storage        StorageStats `json:"storage"`
}
