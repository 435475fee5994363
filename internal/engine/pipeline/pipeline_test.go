package pipeline

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"FlowSentry/internal/classifier"
	"FlowSentry/internal/config"
	"FlowSentry/internal/detector"
	"FlowSentry/internal/model"
	"FlowSentry/internal/probe"
)

// memoryWriter collects records for assertions.
type memoryWriter struct {
	mu      sync.Mutex
	records []*model.FeatureVector
}

func (m *memoryWriter) WriteRecord(fv *model.FeatureVector) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, fv)
	return nil
}

func (m *memoryWriter) Close() error { return nil }

func (m *memoryWriter) labels() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.records))
	for i, fv := range m.records {
		out[i] = fv.Label
	}
	return out
}

// countingClassifier wraps a verdict and counts invocations.
type countingClassifier struct {
	classifier.Static
	calls int
}

func (c *countingClassifier) Classify(ctx context.Context, fv *model.FeatureVector) (model.Classification, error) {
	c.calls++
	return c.Static.Classify(ctx, fv)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Engine.NumWorkers = 1
	cfg.Engine.SizeOfPacketChannel = 100
	cfg.Engine.NumShards = 4
	cfg.Classify.ConfidenceThreshold = 0.75
	cfg.Classify.TCPCadence = 10
	cfg.Classify.UDPCadence = 15
	cfg.Classify.OtherCadence = 20
	cfg.DDoS.WindowSeconds = 60
	cfg.DDoS.Threshold = 100
	return cfg
}

func newTestPipeline(t *testing.T, cfg *config.Config, clf model.Classifier, w model.Writer) *Pipeline {
	t.Helper()
	var writers []model.Writer
	if w != nil {
		writers = append(writers, w)
	}
	p, err := New(cfg, clf, writers, detector.New(cfg.DDoS.WindowSeconds, cfg.DDoS.Threshold))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	p.now = func() time.Time { return time.Unix(1700000100, 0) }
	return p
}

func tcpEnvelope(n int) *probe.Envelope {
	return &probe.Envelope{
		Tuple: model.FiveTuple{
			SrcIP:    net.ParseIP("192.168.1.10"),
			DstIP:    net.ParseIP("10.0.0.1"),
			SrcPort:  51234,
			DstPort:  443,
			Protocol: model.ProtoTCP,
		},
		Obs: model.PacketObservation{
			Timestamp: time.Unix(1700000000, int64(n)*1e6),
			Size:      100,
			HasFlags:  true,
			TCPFlags:  model.FlagACK,
		},
	}
}

func TestClassificationCadence(t *testing.T) {
	clf := &countingClassifier{Static: classifier.Static{Label: "DDoS", Confidence: 0.9}}
	sink := &memoryWriter{}
	p := newTestPipeline(t, testConfig(), clf, sink)

	for i := 0; i < 25; i++ {
		p.process(tcpEnvelope(i))
	}

	// Packet 1 classifies (no prior verdict), then packets 10 and 20.
	if clf.calls != 3 {
		t.Errorf("classifier calls = %d, want 3", clf.calls)
	}

	labels := sink.labels()
	if len(labels) != 25 {
		t.Fatalf("records = %d, want 25", len(labels))
	}
	// Cached label is reused between cadence points.
	for i, label := range labels {
		if label != "DDoS" {
			t.Errorf("packet %d label = %q, want DDoS", i+1, label)
		}
	}
}

func TestConfidenceGate(t *testing.T) {
	clf := &countingClassifier{Static: classifier.Static{Label: "PortScan", Confidence: 0.5}}
	sink := &memoryWriter{}
	p := newTestPipeline(t, testConfig(), clf, sink)

	p.process(tcpEnvelope(0))

	labels := sink.labels()
	if labels[0] != model.LabelBenign {
		t.Errorf("low-confidence label = %q, want %q", labels[0], model.LabelBenign)
	}

	// The raw verdict is retained on the flow for inspection.
	snaps := p.FlowSnapshots()
	if len(snaps) != 1 {
		t.Fatalf("flows = %d, want 1", len(snaps))
	}
	if snaps[0].LastClassification == nil || snaps[0].LastClassification.Label != "PortScan" {
		t.Errorf("raw verdict = %+v, want PortScan", snaps[0].LastClassification)
	}
}

func TestClassifierErrorLabelsRecord(t *testing.T) {
	clf := &classifier.Static{Err: errors.New("model unavailable")}
	sink := &memoryWriter{}
	p := newTestPipeline(t, testConfig(), clf, sink)

	p.process(tcpEnvelope(0))

	if labels := sink.labels(); labels[0] != model.LabelError {
		t.Errorf("label = %q, want %q", labels[0], model.LabelError)
	}
}

func TestDetectorAlertDelivery(t *testing.T) {
	cfg := testConfig()
	cfg.DDoS.Threshold = 3
	cfg.Classify.TCPCadence = 1
	clf := &countingClassifier{Static: classifier.Static{Label: "DDoS", Confidence: 0.95}}
	p := newTestPipeline(t, cfg, clf, nil)

	for i := 0; i < 3; i++ {
		p.process(tcpEnvelope(i))
	}

	select {
	case alert := <-p.Alerts():
		if alert.SourceIP != "192.168.1.10" || alert.AttackType != "DDoS" {
			t.Errorf("alert = %+v", alert)
		}
	default:
		t.Fatal("expected an alert after threshold events")
	}
}

func TestPortAllowList(t *testing.T) {
	cfg := testConfig()
	cfg.Engine.PortAllowList = "8000-9000"
	clf := &countingClassifier{Static: classifier.Static{Label: model.LabelBenign, Confidence: 0.9}}
	sink := &memoryWriter{}
	p := newTestPipeline(t, cfg, clf, sink)

	p.process(tcpEnvelope(0)) // 51234 -> 443, neither in range

	if got := p.Filtered(); got != 1 {
		t.Errorf("Filtered() = %d, want 1", got)
	}
	if len(sink.labels()) != 0 {
		t.Error("filtered packet must not produce a record")
	}
	if p.FlowCount() != 0 {
		t.Error("filtered packet must not create a flow")
	}
}

func TestSubmitDropsWhenFull(t *testing.T) {
	cfg := testConfig()
	cfg.Engine.SizeOfPacketChannel = 1
	p := newTestPipeline(t, cfg, nil, nil)

	// No workers started, so the second submit overflows the queue.
	p.Submit(tcpEnvelope(0))
	p.Submit(tcpEnvelope(1))

	if got := p.Dropped(); got != 1 {
		t.Errorf("Dropped() = %d, want 1", got)
	}
}

func TestStartStopProcessesQueue(t *testing.T) {
	sink := &memoryWriter{}
	p := newTestPipeline(t, testConfig(), nil, sink)

	p.Start()
	for i := 0; i < 10; i++ {
		p.Submit(tcpEnvelope(i))
	}
	p.Stop()

	if got := p.Processed(); got != 10 {
		t.Errorf("Processed() = %d, want 10", got)
	}
	if len(sink.labels()) != 10 {
		t.Errorf("records = %d, want 10", len(sink.labels()))
	}
	if _, open := <-p.Alerts(); open {
		t.Error("alert channel should be closed after Stop")
	}
}
