// Package detector tracks per-source attack-classification events over a
// sliding time window and raises an alert when a source crosses its
// threshold.
package detector

import (
	"sync"
	"time"

	"FlowSentry/internal/model"
)

// Detector keeps one event history per source address. All methods are safe
// for concurrent use by pipeline workers.
type Detector struct {
	mu        sync.Mutex
	window    time.Duration
	threshold int
	events    map[string][]time.Time

	now func() time.Time
}

// New creates a detector with the given sliding window and per-source event
// threshold.
func New(windowSeconds, threshold int) *Detector {
	return &Detector{
		window:    time.Duration(windowSeconds) * time.Second,
		threshold: threshold,
		events:    make(map[string][]time.Time),
		now:       time.Now,
	}
}

// Check appends one attack event for the source address, prunes entries
// older than the window, and returns an alert if the surviving count reaches
// the threshold. A nil return means the source is still under its budget.
func (d *Detector) Check(sourceIP, attackType string) *model.Alert {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	cutoff := now.Add(-d.window)

	kept := d.events[sourceIP][:0]
	for _, t := range d.events[sourceIP] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	kept = append(kept, now)
	d.events[sourceIP] = kept

	if len(kept) < d.threshold {
		return nil
	}
	return &model.Alert{
		SourceIP:      sourceIP,
		AttackType:    attackType,
		WindowSeconds: int(d.window / time.Second),
		Count:         len(kept),
		Threshold:     d.threshold,
		Timestamp:     now,
	}
}

// Sources returns the number of addresses currently tracked, counting only
// those with at least one event inside the window.
func (d *Detector) Sources() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	cutoff := d.now().Add(-d.window)
	n := 0
	for _, ts := range d.events {
		for _, t := range ts {
			if t.After(cutoff) {
				n++
				break
			}
		}
	}
	return n
}
