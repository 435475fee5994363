package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FlowSentry/internal/alerter"
	"FlowSentry/internal/api"
	"FlowSentry/internal/classifier"
	"FlowSentry/internal/config"
	"FlowSentry/internal/detector"
	"FlowSentry/internal/engine/pipeline"
	"FlowSentry/internal/model"
	"FlowSentry/internal/notification"
	"FlowSentry/internal/probe"
	"FlowSentry/internal/writer"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	flag.Parse()

	log.Println("Starting fs-engine...")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// Classifier is optional; without one every flow keeps the benign label.
	var clf model.Classifier
	if cfg.Classify.Endpoint != "" {
		timeout, err := time.ParseDuration(cfg.Classify.Timeout)
		if err != nil {
			log.Fatalf("Invalid classify timeout: %v", err)
		}
		clf = classifier.NewHTTPClassifier(cfg.Classify.Endpoint, timeout)
		log.Printf("Using model server at %s", cfg.Classify.Endpoint)
	} else {
		log.Println("No classifier endpoint configured; flows will not be classified.")
	}

	writers, err := buildWriters(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize writers: %v", err)
	}

	det := detector.New(cfg.DDoS.WindowSeconds, cfg.DDoS.Threshold)

	pipe, err := pipeline.New(cfg, clf, writers, det)
	if err != nil {
		log.Fatalf("Failed to create pipeline: %v", err)
	}
	pipe.Start()

	var al *alerter.Alerter
	if cfg.Alerter.Enabled {
		var notifier model.Notifier
		if cfg.SMTP.Host != "" {
			notifier = notification.NewEmailNotifier(cfg.SMTP)
		} else {
			log.Println("Alerter enabled without SMTP config; alerts will only be logged.")
		}
		al, err = alerter.NewAlerter(&cfg.Alerter, notifier)
		if err != nil {
			log.Fatalf("Failed to create alerter: %v", err)
		}
		al.Start(pipe.Alerts())
	} else {
		// Drain the channel so full buffers never stall the pipeline.
		go func() {
			for range pipe.Alerts() {
			}
		}()
	}

	sub, err := probe.NewSubscriber(cfg.Probe)
	if err != nil {
		log.Fatalf("Failed to create subscriber: %v", err)
	}
	defer sub.Close()

	if err := sub.Start(pipe.Submit); err != nil {
		log.Fatalf("Subscriber failed to start: %v", err)
	}

	var apiServer *api.Server
	if cfg.API.ListenAddr != "" {
		apiServer = api.NewServer(cfg.API.ListenAddr, pipe, al)
		go func() {
			if err := apiServer.Start(); err != nil {
				log.Printf("API server error: %v", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutdown signal received, stopping engine...")
	sub.Close()
	pipe.Stop()
	if al != nil {
		al.Wait()
	}
	if apiServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(ctx); err != nil {
			log.Printf("API shutdown error: %v", err)
		}
	}
	log.Println("Shutdown complete.")
}

func buildWriters(cfg *config.Config) ([]model.Writer, error) {
	var writers []model.Writer

	if cfg.Writers.CSV.Enabled {
		w, err := writer.NewCSVWriter(cfg.Writers.CSV.Path)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
		log.Printf("CSV writer enabled at %s", cfg.Writers.CSV.Path)
	}

	if cfg.Writers.ClickHouse.Enabled {
		w, err := writer.NewClickHouseWriter(cfg.Writers.ClickHouse)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}

	if len(writers) == 0 {
		log.Println("No writers enabled; feature records will be discarded.")
	}
	return writers, nil
}
