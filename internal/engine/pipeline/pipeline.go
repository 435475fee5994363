// Package pipeline orchestrates the packet path: bounded intake queue,
// worker pool, flow table update, feature extraction, cadence-gated
// classification, output fan-out and rate alerting.
package pipeline

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"FlowSentry/internal/config"
	"FlowSentry/internal/detector"
	"FlowSentry/internal/engine/features"
	"FlowSentry/internal/engine/flowtable"
	"FlowSentry/internal/model"
	"FlowSentry/internal/probe"
)

const progressInterval = 1000

// Pipeline processes packet envelopes end to end.
type Pipeline struct {
	table    *flowtable.Table
	clf      model.Classifier
	det      *detector.Detector
	writers  []model.Writer
	ports    *config.PortSet
	classify config.ClassifyConfig

	packetChannel chan *probe.Envelope
	numWorkers    int
	workerWg      sync.WaitGroup

	alerts chan *model.Alert

	processed atomic.Uint64
	dropped   atomic.Uint64
	filtered  atomic.Uint64

	now func() time.Time
}

// New builds a pipeline from configuration. The classifier may be nil, in
// which case every flow keeps the default benign label.
func New(cfg *config.Config, clf model.Classifier, writers []model.Writer, det *detector.Detector) (*Pipeline, error) {
	ports, err := config.ParsePortSet(cfg.Engine.PortAllowList)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		table:         flowtable.NewTable(cfg.Engine.NumShards),
		clf:           clf,
		det:           det,
		writers:       writers,
		ports:         ports,
		classify:      cfg.Classify,
		packetChannel: make(chan *probe.Envelope, cfg.Engine.SizeOfPacketChannel),
		numWorkers:    cfg.Engine.NumWorkers,
		alerts:        make(chan *model.Alert, 64),
		now:           time.Now,
	}, nil
}

// Start launches the worker pool.
func (p *Pipeline) Start() {
	p.workerWg.Add(p.numWorkers)
	for i := 0; i < p.numWorkers; i++ {
		go p.worker()
	}
	log.Printf("Pipeline started with %d workers.", p.numWorkers)
}

// Stop drains the intake queue, waits for workers and closes the alert
// stream.
func (p *Pipeline) Stop() {
	log.Println("Pipeline stopping...")
	close(p.packetChannel)
	p.workerWg.Wait()
	close(p.alerts)

	for _, w := range p.writers {
		if err := w.Close(); err != nil {
			log.Printf("Error closing writer: %v", err)
		}
	}
	log.Printf("Pipeline stopped. processed=%d dropped=%d filtered=%d",
		p.processed.Load(), p.dropped.Load(), p.filtered.Load())
}

// Submit enqueues one envelope without blocking the capture path. When the
// queue is full the envelope is dropped and counted.
func (p *Pipeline) Submit(env *probe.Envelope) {
	select {
	case p.packetChannel <- env:
	default:
		p.dropped.Add(1)
	}
}

// InputChannel exposes the intake queue for feeders that prefer blocking
// over load shedding, such as offline pcap analysis.
func (p *Pipeline) InputChannel() chan<- *probe.Envelope {
	return p.packetChannel
}

// Alerts exposes the stream of rate alerts raised by the detector. The
// channel closes on Stop.
func (p *Pipeline) Alerts() <-chan *model.Alert {
	return p.alerts
}

// FlowCount reports the number of live flows.
func (p *Pipeline) FlowCount() int { return p.table.Len() }

// Processed reports how many envelopes the workers have handled.
func (p *Pipeline) Processed() uint64 { return p.processed.Load() }

// Dropped reports how many envelopes were shed at the intake queue.
func (p *Pipeline) Dropped() uint64 { return p.dropped.Load() }

// Filtered reports how many envelopes the port allow-list rejected.
func (p *Pipeline) Filtered() uint64 { return p.filtered.Load() }

// FlowSnapshots deep-copies the current flow table for inspection.
func (p *Pipeline) FlowSnapshots() []*flowtable.Snapshot {
	return p.table.Snapshots()
}

func (p *Pipeline) worker() {
	defer p.workerWg.Done()
	for env := range p.packetChannel {
		p.process(env)
	}
}

func (p *Pipeline) process(env *probe.Envelope) {
	if !p.ports.Empty() && !p.ports.Admits(env.Tuple.SrcPort, env.Tuple.DstPort) {
		p.filtered.Add(1)
		return
	}

	key, _, snap := p.table.Upsert(env.Tuple, env.Obs)
	fv := features.Extract(snap, p.now())

	if p.clf != nil && p.shouldClassify(snap) {
		p.runClassifier(key, snap, fv)
	}

	for _, w := range p.writers {
		if err := w.WriteRecord(fv); err != nil {
			log.Printf("Error writing feature record: %v", err)
		}
	}

	if n := p.processed.Add(1); n%progressInterval == 0 {
		log.Printf("Processed %d packets across %d flows (dropped=%d)", n, p.table.Len(), p.dropped.Load())
	}
}

// shouldClassify applies the per-protocol cadence: a flow is classified on
// its first ever verdict and then every N packets.
func (p *Pipeline) shouldClassify(snap *flowtable.Snapshot) bool {
	if snap.LastClassification == nil {
		return true
	}
	cadence := p.classify.OtherCadence
	switch snap.Protocol {
	case model.ProtoTCP:
		cadence = p.classify.TCPCadence
	case model.ProtoUDP:
		cadence = p.classify.UDPCadence
	}
	if cadence <= 0 {
		cadence = 1
	}
	return snap.TotalPackets()%cadence == 0
}

func (p *Pipeline) runClassifier(key flowtable.Key, snap *flowtable.Snapshot, fv *model.FeatureVector) {
	cls, err := p.clf.Classify(context.Background(), fv)
	if err != nil {
		log.Printf("Classification error for %s -> %s: %v", fv.SrcIP, fv.DstIP, err)
		fv.Label = model.LabelError
		p.table.RecordClassification(key, model.Classification{Label: model.LabelError}, model.LabelError)
		return
	}

	// Low-confidence verdicts are recorded as benign; the raw verdict still
	// feeds the rate detector below.
	label := cls.Label
	if cls.Confidence < p.classify.ConfidenceThreshold {
		label = model.LabelBenign
	}
	fv.Label = label
	p.table.RecordClassification(key, cls, label)

	if p.det != nil && cls.Label != model.LabelBenign {
		if alert := p.det.Check(fv.SrcIP, cls.Label); alert != nil {
			log.Printf("ALERT: %s exceeded %d events in %ds (count=%d, label=%s)",
				alert.SourceIP, alert.Threshold, alert.WindowSeconds, alert.Count, alert.AttackType)
			select {
			case p.alerts <- alert:
			default:
				log.Println("Alert channel full, dropping alert.")
			}
		}
	}
}
