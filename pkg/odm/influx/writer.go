package influx

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"go.uber.org/zap"
)

// BatchSize is the number of points sent per write request.
const BatchSize = 5000

// Config locates the InfluxDB bucket points are written to.
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Writer writes points to one bucket.
type Writer struct {
	client influxdb2.Client
	api    api.WriteAPIBlocking
	logger *zap.Logger
}

// NewWriter creates a writer for cfg. Close releases the client.
func NewWriter(cfg Config, logger *zap.Logger) (*Writer, error) {
	if cfg.URL == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx url, org and bucket are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Writer{
		client: client,
		api:    client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		logger: logger.Named("influx"),
	}, nil
}

// Check reports whether the server is healthy.
func (w *Writer) Check(ctx context.Context) error {
	health, err := w.client.Health(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}
	if health.Status != domain.HealthCheckStatusPass {
		msg := ""
		if health.Message != nil {
			msg = *health.Message
		}
		return fmt.Errorf("InfluxDB health check failed: %s", msg)
	}
	return nil
}

// Write sends points in batches of BatchSize.
func (w *Writer) Write(ctx context.Context, points []*write.Point) error {
	return writeBatches(ctx, w.api, points, w.logger)
}

// Close releases the client.
func (w *Writer) Close() {
	w.client.Close()
}

type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

func writeBatches(ctx context.Context, pw pointWriter, points []*write.Point, logger *zap.Logger) error {
	for start := 0; start < len(points); start += BatchSize {
		end := min(start+BatchSize, len(points))
		if err := pw.WritePoint(ctx, points[start:end]...); err != nil {
			return fmt.Errorf("failed to write points %d-%d: %w", start, end, err)
		}
		logger.Debug("Wrote points", zap.Int("from", start), zap.Int("to", end))
	}
	logger.Info("Wrote points to InfluxDB", zap.Int("points", len(points)))
	return nil
}
