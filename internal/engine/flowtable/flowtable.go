// Package flowtable maintains the live bidirectional flow state keyed by
// canonical five-tuple. The table is sharded to spread lock contention;
// each flow lives in exactly one shard regardless of packet direction.
package flowtable

import (
	"hash/fnv"
	"net"
	"sync"
	"time"

	"FlowSentry/internal/model"
)

// FlowState accumulates per-direction packet observations for one flow.
// The first packet seen fixes the forward direction: its sender becomes
// the flow's source for the rest of the flow's lifetime.
type FlowState struct {
	SrcIP    net.IP
	DstIP    net.IP
	SrcPort  uint16
	DstPort  uint16
	Protocol uint8

	StartTime   time.Time
	Fwd         []model.PacketObservation
	Bwd         []model.PacketObservation
	LastFwdTime time.Time
	LastBwdTime time.Time

	InitFwdWin    uint16
	InitBwdWin    uint16
	sawFwdWin     bool
	sawBwdWin     bool

	// LastClassification holds the most recent raw model verdict; LastLabel
	// holds the recorded label after confidence gating. They differ when a
	// low-confidence verdict is recorded as benign.
	LastClassification *model.Classification
	LastLabel          string
	ClassifyCount      uint64
}

// Snapshot is a deep copy of a FlowState taken under the shard lock, safe
// to read and extract features from without further synchronization.
type Snapshot struct {
	SrcIP    net.IP
	DstIP    net.IP
	SrcPort  uint16
	DstPort  uint16
	Protocol uint8

	StartTime   time.Time
	Fwd         []model.PacketObservation
	Bwd         []model.PacketObservation
	LastFwdTime time.Time
	LastBwdTime time.Time

	InitFwdWin uint16
	InitBwdWin uint16

	LastClassification *model.Classification
	LastLabel          string
	ClassifyCount      uint64
}

type shard struct {
	mu    sync.RWMutex
	flows map[Key]*FlowState
}

// Table is a sharded concurrent flow map.
type Table struct {
	shards    []*shard
	numShards uint32
}

// NewTable creates a table with the given shard count (must be > 0).
func NewTable(numShards uint32) *Table {
	if numShards == 0 {
		numShards = 1
	}
	t := &Table{
		shards:    make([]*shard, numShards),
		numShards: numShards,
	}
	for i := range t.shards {
		t.shards[i] = &shard{flows: make(map[Key]*FlowState)}
	}
	return t
}

func (t *Table) getShard(key Key) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return t.shards[h.Sum32()%t.numShards]
}

// Upsert looks up or creates the flow for ft under a single shard lock,
// appends obs in the resolved direction and returns the flow's key, whether
// the packet travelled in the reverse direction, and a deep snapshot of the
// state after the append.
func (t *Table) Upsert(ft model.FiveTuple, obs model.PacketObservation) (Key, bool, *Snapshot) {
	key := CanonicalKey(ft)
	s := t.getShard(key)

	s.mu.Lock()
	fs, ok := s.flows[key]
	if !ok {
		fs = &FlowState{
			SrcIP:     append(net.IP(nil), ft.SrcIP...),
			DstIP:     append(net.IP(nil), ft.DstIP...),
			SrcPort:   ft.SrcPort,
			DstPort:   ft.DstPort,
			Protocol:  ft.Protocol,
			StartTime: obs.Timestamp,
			LastLabel: model.LabelBenign,
		}
		s.flows[key] = fs
	}

	reverse := ok && !sameSender(ft, fs)
	if reverse {
		fs.Bwd = append(fs.Bwd, obs)
		fs.LastBwdTime = obs.Timestamp
		if !fs.sawBwdWin && obs.HasFlags {
			fs.InitBwdWin = obs.WindowSize
			fs.sawBwdWin = true
		}
	} else {
		fs.Fwd = append(fs.Fwd, obs)
		fs.LastFwdTime = obs.Timestamp
		if !fs.sawFwdWin && obs.HasFlags {
			fs.InitFwdWin = obs.WindowSize
			fs.sawFwdWin = true
		}
	}

	snap := fs.snapshotLocked()
	s.mu.Unlock()

	return key, reverse, snap
}

func sameSender(ft model.FiveTuple, fs *FlowState) bool {
	return ft.SrcPort == fs.SrcPort && ft.SrcIP.Equal(fs.SrcIP)
}

// RecordClassification stores the raw model verdict and the gated label for
// the flow, bumping its classification counter. A missing flow is a no-op.
func (t *Table) RecordClassification(key Key, raw model.Classification, label string) {
	s := t.getShard(key)
	s.mu.Lock()
	if fs, ok := s.flows[key]; ok {
		c := raw
		fs.LastClassification = &c
		fs.LastLabel = label
		fs.ClassifyCount++
	}
	s.mu.Unlock()
}

// Len returns the number of live flows across all shards.
func (t *Table) Len() int {
	n := 0
	for _, s := range t.shards {
		s.mu.RLock()
		n += len(s.flows)
		s.mu.RUnlock()
	}
	return n
}

// Snapshots deep-copies every live flow. Shards are copied one at a time,
// so the result is consistent per shard but not across the whole table.
func (t *Table) Snapshots() []*Snapshot {
	var out []*Snapshot
	for _, s := range t.shards {
		s.mu.RLock()
		for _, fs := range s.flows {
			out = append(out, fs.snapshotLocked())
		}
		s.mu.RUnlock()
	}
	return out
}

func (fs *FlowState) snapshotLocked() *Snapshot {
	snap := &Snapshot{
		SrcIP:         append(net.IP(nil), fs.SrcIP...),
		DstIP:         append(net.IP(nil), fs.DstIP...),
		SrcPort:       fs.SrcPort,
		DstPort:       fs.DstPort,
		Protocol:      fs.Protocol,
		StartTime:     fs.StartTime,
		Fwd:           append([]model.PacketObservation(nil), fs.Fwd...),
		Bwd:           append([]model.PacketObservation(nil), fs.Bwd...),
		LastFwdTime:   fs.LastFwdTime,
		LastBwdTime:   fs.LastBwdTime,
		InitFwdWin:    fs.InitFwdWin,
		InitBwdWin:    fs.InitBwdWin,
		LastLabel:     fs.LastLabel,
		ClassifyCount: fs.ClassifyCount,
	}
	if fs.LastClassification != nil {
		c := *fs.LastClassification
		snap.LastClassification = &c
	}
	return snap
}

// TotalPackets is the packet count across both directions.
func (s *Snapshot) TotalPackets() int {
	return len(s.Fwd) + len(s.Bwd)
}
