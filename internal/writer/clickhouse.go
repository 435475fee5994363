package writer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"FlowSentry/internal/config"
	"FlowSentry/internal/model"
)

const createTableStatement = `
CREATE TABLE IF NOT EXISTS flow_features (
    Timestamp DateTime64(3),
    SrcIP     String,
    DstIP     String,
    SrcPort   UInt16,
    DstPort   UInt16,
    Protocol  UInt8,
    Label     String,
    Features  Map(String, String)
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (Label, Timestamp);
`

// flushSize is the number of buffered records per ClickHouse batch.
const flushSize = 200

// ClickHouseWriter buffers feature records and ships them to the
// flow_features table in batches.
type ClickHouseWriter struct {
	conn driver.Conn

	mu      sync.Mutex
	pending []*model.FeatureVector
}

// NewClickHouseWriter connects, ensures the table exists and returns a
// ready writer.
func NewClickHouseWriter(cfg config.ClickHouseConfig) (*ClickHouseWriter, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	if err := conn.Exec(context.Background(), createTableStatement); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	log.Println("Successfully connected to ClickHouse and ensured table exists.")

	return &ClickHouseWriter{conn: conn}, nil
}

func connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: false,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return conn, nil
}

// WriteRecord buffers one record, flushing when the batch is full.
func (w *ClickHouseWriter) WriteRecord(fv *model.FeatureVector) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = append(w.pending, fv)
	if len(w.pending) < flushSize {
		return nil
	}
	return w.flushLocked()
}

// Close flushes the remaining buffer and tears down the connection.
func (w *ClickHouseWriter) Close() error {
	w.mu.Lock()
	err := w.flushLocked()
	w.mu.Unlock()

	if cerr := w.conn.Close(); err == nil {
		err = cerr
	}
	return err
}

func (w *ClickHouseWriter) flushLocked() error {
	if len(w.pending) == 0 {
		return nil
	}

	batch, err := w.conn.PrepareBatch(context.Background(), "INSERT INTO flow_features")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	cols := model.FeatureColumns()
	for _, fv := range w.pending {
		ts, perr := time.Parse("2006-01-02 15:04:05.000", fv.Timestamp)
		if perr != nil {
			ts = time.Now()
		}

		row := fv.Row()
		features := make(map[string]string, len(cols))
		for i, col := range cols {
			features[col] = row[i]
		}

		err = batch.Append(
			ts,
			fv.SrcIP,
			fv.DstIP,
			fv.SrcPort,
			fv.DstPort,
			fv.Protocol,
			fv.Label,
			features,
		)
		if err != nil {
			return fmt.Errorf("failed to append record to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	log.Printf("Wrote %d feature records to ClickHouse", len(w.pending))
	w.pending = w.pending[:0]
	return nil
}
