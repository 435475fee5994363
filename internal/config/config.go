package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ProbeConfig holds the settings for the live capture probe.
type ProbeConfig struct {
	Interface   string `yaml:"interface"`
	SnapshotLen int32  `yaml:"snapshot_len"`
	Promiscuous bool   `yaml:"promiscuous"`
	NATSURL     string `yaml:"nats_url"`
	Subject     string `yaml:"subject"`
}

// EngineConfig holds the settings for the packet processing pipeline.
type EngineConfig struct {
	NumWorkers          int    `yaml:"num_workers"`
	SizeOfPacketChannel int    `yaml:"size_of_packet_channel"`
	NumShards           uint32 `yaml:"num_shards"`
	PortAllowList       string `yaml:"port_allow_list"`
}

// ClassifyConfig controls classifier invocation and result gating.
type ClassifyConfig struct {
	Endpoint            string  `yaml:"endpoint"`
	Timeout             string  `yaml:"timeout"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	TCPCadence          int     `yaml:"tcp_cadence"`
	UDPCadence          int     `yaml:"udp_cadence"`
	OtherCadence        int     `yaml:"other_cadence"`
}

// DDoSConfig configures the per-source sliding-window rate detector.
type DDoSConfig struct {
	WindowSeconds int `yaml:"window_seconds"`
	Threshold     int `yaml:"threshold"`
}

// CSVWriterConfig configures the per-packet CSV output.
type CSVWriterConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ClickHouseConfig configures the ClickHouse feature sink.
type ClickHouseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// WritersConfig groups the enabled output sinks.
type WritersConfig struct {
	CSV        CSVWriterConfig  `yaml:"csv"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

// SMTPConfig holds the email notifier settings.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// AIConfig holds the settings for the OpenAI-backed alert analyst.
type AIConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// AlerterConfig controls alert fan-out.
type AlerterConfig struct {
	Enabled bool     `yaml:"enabled"`
	AI      AIConfig `yaml:"ai_analysis"`
}

// APIConfig holds the HTTP API settings.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Probe    ProbeConfig    `yaml:"probe"`
	Engine   EngineConfig   `yaml:"engine"`
	Classify ClassifyConfig `yaml:"classify"`
	DDoS     DDoSConfig     `yaml:"ddos"`
	Writers  WritersConfig  `yaml:"writers"`
	Alerter  AlerterConfig  `yaml:"alerter"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	API      APIConfig      `yaml:"api"`
}

// LoadConfig reads the configuration from a YAML file and returns a Config
// struct with defaults applied and all values validated.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Probe.SnapshotLen == 0 {
		c.Probe.SnapshotLen = 1600
	}
	if c.Engine.NumWorkers == 0 {
		c.Engine.NumWorkers = 4
	}
	if c.Engine.SizeOfPacketChannel == 0 {
		c.Engine.SizeOfPacketChannel = 10000
	}
	if c.Engine.NumShards == 0 {
		c.Engine.NumShards = 256
	}
	if c.Classify.Timeout == "" {
		c.Classify.Timeout = "5s"
	}
	if c.Classify.ConfidenceThreshold == 0 {
		c.Classify.ConfidenceThreshold = 0.75
	}
	if c.Classify.TCPCadence == 0 {
		c.Classify.TCPCadence = 10
	}
	if c.Classify.UDPCadence == 0 {
		c.Classify.UDPCadence = 15
	}
	if c.Classify.OtherCadence == 0 {
		c.Classify.OtherCadence = 20
	}
	if c.DDoS.WindowSeconds == 0 {
		c.DDoS.WindowSeconds = 60
	}
	if c.DDoS.Threshold == 0 {
		c.DDoS.Threshold = 100
	}
}

// Validate reports the first configuration error found. Validation errors
// are fatal at startup: a pipeline must never run with a nonsensical window,
// threshold or cadence.
func (c *Config) Validate() error {
	if c.DDoS.WindowSeconds <= 0 {
		return fmt.Errorf("ddos.window_seconds must be positive, got %d", c.DDoS.WindowSeconds)
	}
	if c.DDoS.Threshold <= 0 {
		return fmt.Errorf("ddos.threshold must be positive, got %d", c.DDoS.Threshold)
	}
	if c.Classify.TCPCadence < 1 || c.Classify.UDPCadence < 1 || c.Classify.OtherCadence < 1 {
		return fmt.Errorf("classify cadences must be >= 1, got tcp=%d udp=%d other=%d",
			c.Classify.TCPCadence, c.Classify.UDPCadence, c.Classify.OtherCadence)
	}
	if c.Classify.ConfidenceThreshold < 0 || c.Classify.ConfidenceThreshold > 1 {
		return fmt.Errorf("classify.confidence_threshold must be within [0,1], got %v", c.Classify.ConfidenceThreshold)
	}
	if c.Engine.NumWorkers < 1 {
		return fmt.Errorf("engine.num_workers must be >= 1, got %d", c.Engine.NumWorkers)
	}
	if _, err := ParsePortSet(c.Engine.PortAllowList); err != nil {
		return fmt.Errorf("engine.port_allow_list: %w", err)
	}
	return nil
}
