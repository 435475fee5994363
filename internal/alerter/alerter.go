// Package alerter consumes the pipeline's alert stream, keeps a bounded
// history for the HTTP API and pushes notifications out by email, optionally
// enriched with an AI analyst summary.
package alerter

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gomarkdown/markdown"

	"FlowSentry/internal/ai"
	"FlowSentry/internal/config"
	"FlowSentry/internal/model"
)

// historySize bounds the alert history kept for the API.
const historySize = 100

// Alerter fans incoming alerts out to its notifier and history buffer.
type Alerter struct {
	notifier model.Notifier
	analyzer *ai.AlertAnalyzer
	wg       sync.WaitGroup

	mu      sync.Mutex
	history []model.Alert
}

// NewAlerter creates an alerter. The notifier may be nil, in which case
// alerts are only logged and kept in history.
func NewAlerter(cfg *config.AlerterConfig, notifier model.Notifier) (*Alerter, error) {
	a := &Alerter{notifier: notifier}

	if cfg.AI.Enabled {
		analyzer, err := ai.NewAlertAnalyzer(&cfg.AI)
		if err != nil {
			return nil, fmt.Errorf("failed to create AI analyzer: %w", err)
		}
		a.analyzer = analyzer
		log.Println("AI analysis for alerts is enabled.")
	}

	return a, nil
}

// Start consumes the alert channel until it closes.
func (a *Alerter) Start(alerts <-chan *model.Alert) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		log.Println("Alerter started")
		for alert := range alerts {
			a.handle(alert)
		}
		log.Println("Alerter stopped.")
	}()
}

// Wait blocks until the consuming goroutine exits.
func (a *Alerter) Wait() {
	a.wg.Wait()
}

// Recent returns the alert history, newest first.
func (a *Alerter) Recent() []model.Alert {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]model.Alert, len(a.history))
	for i, alert := range a.history {
		out[len(a.history)-1-i] = alert
	}
	return out
}

func (a *Alerter) handle(alert *model.Alert) {
	a.mu.Lock()
	a.history = append(a.history, *alert)
	if len(a.history) > historySize {
		a.history = a.history[len(a.history)-historySize:]
	}
	a.mu.Unlock()

	body := fmt.Sprintf(
		"<h1>FlowSentry Rate Alert</h1>"+
			"<p>Source <b>%s</b> was classified as <b>%s</b> %d times within the last %d seconds (threshold %d).</p>"+
			"<p>Alert time: %s</p>",
		alert.SourceIP, alert.AttackType, alert.Count, alert.WindowSeconds,
		alert.Threshold, alert.Timestamp.Format(time.RFC3339),
	)

	if analysis, err := a.getAIAnalysis(alert); err != nil {
		log.Printf("Failed to get AI analysis: %v", err)
	} else if analysis != "" {
		html := markdown.ToHTML([]byte(analysis), nil, nil)
		body += "<hr><h2>AI-Powered Analysis</h2>" + string(html)
	}

	if a.notifier == nil {
		return
	}
	subject := fmt.Sprintf("FlowSentry Alert: %s from %s", alert.AttackType, alert.SourceIP)
	if err := a.notifier.Send(subject, body); err != nil {
		log.Printf("ERROR: Failed to send alert notification: %v", err)
	} else {
		log.Println("INFO: Alert notification sent successfully.")
	}
}

func (a *Alerter) getAIAnalysis(alert *model.Alert) (string, error) {
	if a.analyzer == nil {
		return "", nil
	}

	log.Println("Requesting AI analysis for alert...")
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	summary := fmt.Sprintf(
		"source=%s attack_type=%s count=%d window_seconds=%d threshold=%d time=%s",
		alert.SourceIP, alert.AttackType, alert.Count, alert.WindowSeconds,
		alert.Threshold, alert.Timestamp.Format(time.RFC3339),
	)
	return a.analyzer.AnalyzeAlert(ctx, summary)
}
