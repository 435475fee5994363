package main

import (
	"flag"
	"log"
	"time"

	"FlowSentry/internal/classifier"
	"FlowSentry/internal/config"
	"FlowSentry/internal/detector"
	"FlowSentry/internal/engine/pipeline"
	"FlowSentry/internal/model"
	"FlowSentry/internal/probe"
	"FlowSentry/internal/writer"
	"FlowSentry/pkg/pcap"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	pcapPath := flag.String("pcap", "", "Path to the pcap file to analyze (required).")
	outPath := flag.String("out", "", "CSV output path (overrides config).")
	flag.Parse()

	if *pcapPath == "" {
		log.Fatal("The -pcap flag is required.")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	csvPath := cfg.Writers.CSV.Path
	if *outPath != "" {
		csvPath = *outPath
	}
	if csvPath == "" {
		csvPath = "features.csv"
	}
	csv, err := writer.NewCSVWriter(csvPath)
	if err != nil {
		log.Fatalf("Failed to open CSV output: %v", err)
	}

	var clf model.Classifier
	if cfg.Classify.Endpoint != "" {
		timeout, err := time.ParseDuration(cfg.Classify.Timeout)
		if err != nil {
			log.Fatalf("Invalid classify timeout: %v", err)
		}
		clf = classifier.NewHTTPClassifier(cfg.Classify.Endpoint, timeout)
	}

	det := detector.New(cfg.DDoS.WindowSeconds, cfg.DDoS.Threshold)
	pipe, err := pipeline.New(cfg, clf, []model.Writer{csv}, det)
	if err != nil {
		log.Fatalf("Failed to create pipeline: %v", err)
	}

	reader, err := pcap.NewReader(*pcapPath)
	if err != nil {
		log.Fatalf("Failed to open pcap file: %v", err)
	}
	defer reader.Close()

	// Alerts are reported on the console during offline analysis.
	go func() {
		for alert := range pipe.Alerts() {
			log.Printf("ALERT: %s (%s) count=%d/%d window=%ds",
				alert.SourceIP, alert.AttackType, alert.Count, alert.Threshold, alert.WindowSeconds)
		}
	}()

	pipe.Start()
	log.Printf("Analyzing %s ...", *pcapPath)

	envelopes := make(chan *probe.Envelope, 1024)
	go reader.ReadPackets(envelopes)

	input := pipe.InputChannel()
	for env := range envelopes {
		input <- env
	}
	pipe.Stop()

	log.Printf("Analysis complete: %d packets, %d flows. Features written to %s",
		pipe.Processed(), pipe.FlowCount(), csvPath)
}
