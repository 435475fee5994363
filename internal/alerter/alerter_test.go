package alerter

import (
	"strings"
	"sync"
	"testing"
	"time"

	"FlowSentry/internal/config"
	"FlowSentry/internal/model"
)

type recordingNotifier struct {
	mu       sync.Mutex
	subjects []string
	bodies   []string
}

func (n *recordingNotifier) Send(subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subjects = append(n.subjects, subject)
	n.bodies = append(n.bodies, body)
	return nil
}

func TestAlerterNotifiesAndRecords(t *testing.T) {
	notifier := &recordingNotifier{}
	a, err := NewAlerter(&config.AlerterConfig{Enabled: true}, notifier)
	if err != nil {
		t.Fatalf("NewAlerter failed: %v", err)
	}

	alerts := make(chan *model.Alert, 2)
	alerts <- &model.Alert{
		SourceIP: "10.0.0.5", AttackType: "DDoS",
		WindowSeconds: 60, Count: 120, Threshold: 100,
		Timestamp: time.Unix(1700000000, 0),
	}
	alerts <- &model.Alert{
		SourceIP: "10.0.0.6", AttackType: "PortScan",
		WindowSeconds: 60, Count: 150, Threshold: 100,
		Timestamp: time.Unix(1700000010, 0),
	}
	close(alerts)

	a.Start(alerts)
	a.Wait()

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.subjects) != 2 {
		t.Fatalf("sent %d notifications, want 2", len(notifier.subjects))
	}
	if !strings.Contains(notifier.subjects[0], "DDoS") || !strings.Contains(notifier.subjects[0], "10.0.0.5") {
		t.Errorf("subject = %q", notifier.subjects[0])
	}
	if !strings.Contains(notifier.bodies[0], "120 times") {
		t.Errorf("body missing count: %q", notifier.bodies[0])
	}

	recent := a.Recent()
	if len(recent) != 2 {
		t.Fatalf("history has %d alerts, want 2", len(recent))
	}
	// Newest first.
	if recent[0].SourceIP != "10.0.0.6" || recent[1].SourceIP != "10.0.0.5" {
		t.Errorf("history order = %s, %s", recent[0].SourceIP, recent[1].SourceIP)
	}
}

func TestAlerterHistoryBounded(t *testing.T) {
	a, err := NewAlerter(&config.AlerterConfig{Enabled: true}, nil)
	if err != nil {
		t.Fatalf("NewAlerter failed: %v", err)
	}

	alerts := make(chan *model.Alert, historySize+10)
	for i := 0; i < historySize+10; i++ {
		alerts <- &model.Alert{SourceIP: "10.0.0.5", AttackType: "DDoS", Timestamp: time.Unix(int64(i), 0)}
	}
	close(alerts)

	a.Start(alerts)
	a.Wait()

	if got := len(a.Recent()); got != historySize {
		t.Errorf("history length = %d, want %d", got, historySize)
	}
}
