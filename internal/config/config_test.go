package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
probe:
  nats_url: "nats://127.0.0.1:4222"
  subject: "fs.packets"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Engine.NumWorkers != 4 || cfg.Engine.NumShards != 256 {
		t.Errorf("engine defaults = %d workers / %d shards", cfg.Engine.NumWorkers, cfg.Engine.NumShards)
	}
	if cfg.Classify.TCPCadence != 10 || cfg.Classify.UDPCadence != 15 || cfg.Classify.OtherCadence != 20 {
		t.Errorf("cadence defaults = %d/%d/%d", cfg.Classify.TCPCadence, cfg.Classify.UDPCadence, cfg.Classify.OtherCadence)
	}
	if cfg.Classify.ConfidenceThreshold != 0.75 {
		t.Errorf("confidence default = %v", cfg.Classify.ConfidenceThreshold)
	}
	if cfg.DDoS.WindowSeconds != 60 || cfg.DDoS.Threshold != 100 {
		t.Errorf("ddos defaults = %d/%d", cfg.DDoS.WindowSeconds, cfg.DDoS.Threshold)
	}
	if cfg.Probe.SnapshotLen != 1600 {
		t.Errorf("snapshot_len default = %d", cfg.Probe.SnapshotLen)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
engine:
  num_workers: 8
  port_allow_list: "80,443,8000-9000"
classify:
  endpoint: "http://127.0.0.1:9500/predict"
  confidence_threshold: 0.9
  tcp_cadence: 5
ddos:
  window_seconds: 30
  threshold: 50
writers:
  csv:
    enabled: true
    path: "/tmp/features.csv"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Engine.NumWorkers != 8 {
		t.Errorf("num_workers = %d, want 8", cfg.Engine.NumWorkers)
	}
	if cfg.Classify.TCPCadence != 5 || cfg.Classify.ConfidenceThreshold != 0.9 {
		t.Errorf("classify = %+v", cfg.Classify)
	}
	if cfg.DDoS.WindowSeconds != 30 || cfg.DDoS.Threshold != 50 {
		t.Errorf("ddos = %+v", cfg.DDoS)
	}
	if !cfg.Writers.CSV.Enabled || cfg.Writers.CSV.Path != "/tmp/features.csv" {
		t.Errorf("csv writer = %+v", cfg.Writers.CSV)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"negative window": `
ddos:
  window_seconds: -5
`,
		"confidence above one": `
classify:
  confidence_threshold: 1.5
`,
		"bad port list": `
engine:
  port_allow_list: "80,not-a-port"
`,
		"inverted port range": `
engine:
  port_allow_list: "9000-8000"
`,
	}

	for name, content := range cases {
		if _, err := LoadConfig(writeConfig(t, content)); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
