package detector

import (
	"testing"
	"time"
)

// fixedClock lets tests drive the detector's notion of now.
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) now() time.Time          { return c.t }
func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestDetector(windowSeconds, threshold int) (*Detector, *fixedClock) {
	clock := &fixedClock{t: time.Unix(1700000000, 0)}
	d := New(windowSeconds, threshold)
	d.now = clock.now
	return d, clock
}

func TestCheckBelowThreshold(t *testing.T) {
	d, _ := newTestDetector(60, 3)

	if alert := d.Check("10.0.0.5", "DDoS"); alert != nil {
		t.Fatalf("first event should not alert, got %+v", alert)
	}
	if alert := d.Check("10.0.0.5", "DDoS"); alert != nil {
		t.Fatalf("second event should not alert, got %+v", alert)
	}
}

func TestCheckThresholdReached(t *testing.T) {
	d, clock := newTestDetector(60, 3)

	d.Check("10.0.0.5", "DDoS")
	clock.advance(time.Second)
	d.Check("10.0.0.5", "DDoS")
	clock.advance(time.Second)

	alert := d.Check("10.0.0.5", "DDoS")
	if alert == nil {
		t.Fatal("third event inside window should alert")
	}
	if alert.SourceIP != "10.0.0.5" || alert.AttackType != "DDoS" {
		t.Errorf("alert identity = %s/%s", alert.SourceIP, alert.AttackType)
	}
	if alert.Count != 3 || alert.Threshold != 3 || alert.WindowSeconds != 60 {
		t.Errorf("alert = %+v", alert)
	}
}

func TestCheckPrunesOldEvents(t *testing.T) {
	d, clock := newTestDetector(60, 2)

	d.Check("10.0.0.5", "DDoS")
	clock.advance(2 * time.Minute)

	// Earlier event has aged out, so the count restarts at one.
	if alert := d.Check("10.0.0.5", "DDoS"); alert != nil {
		t.Fatalf("stale events must not count, got %+v", alert)
	}
	clock.advance(time.Second)
	if alert := d.Check("10.0.0.5", "DDoS"); alert == nil {
		t.Fatal("two fresh events should alert")
	}
}

func TestCheckSourcesIndependent(t *testing.T) {
	d, _ := newTestDetector(60, 2)

	d.Check("10.0.0.5", "DDoS")
	if alert := d.Check("10.0.0.6", "DDoS"); alert != nil {
		t.Fatalf("addresses must be tracked independently, got %+v", alert)
	}
	if alert := d.Check("10.0.0.5", "DDoS"); alert == nil {
		t.Fatal("second event for the same source should alert")
	}
	if got := d.Sources(); got != 2 {
		t.Errorf("Sources() = %d, want 2", got)
	}
}
