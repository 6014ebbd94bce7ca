package metrics

import (
	"context"
	"fmt"
	"log"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/Jonathon-AR/resollectAssignment/internal/config"
	"github.com/Jonathon-AR/resollectAssignment/internal/services"
)

// Sweep outcome tag values
const (
	sweepStatusOK    = "ok"
	sweepStatusError = "error"
)

// InfluxRecorder writes one point per sweep run to InfluxDB
type InfluxRecorder struct {
	client      influxdb2.Client
	writeAPI    api.WriteAPIBlocking
	measurement string
	store       string
}

// NewInfluxRecorder creates a recorder and checks that InfluxDB is reachable.
// store is the record store driver name, written as a tag on every point
func NewInfluxRecorder(cfg config.InfluxDBConfig, store string) (*InfluxRecorder, error) {
	log.Printf("[INFLUX-INIT] Initializing InfluxDB 2.0 client: url=%s, org=%s, bucket=%s", cfg.URL, cfg.Org, cfg.Bucket)

	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	health, err := client.Health(context.Background())
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}
	if health.Status != "pass" {
		log.Printf("WARNING: [INFLUX-INIT] InfluxDB health check returned status: %s", health.Status)
	}

	log.Printf("[INFLUX-INIT] InfluxDB 2.0 client initialized successfully")
	return &InfluxRecorder{
		client:      client,
		writeAPI:    client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		measurement: cfg.Measurement,
		store:       store,
	}, nil
}

// RecordSweep writes the outcome of a sweep run
func (r *InfluxRecorder) RecordSweep(ctx context.Context, result services.SweepResult) error {
	if err := r.writeAPI.WritePoint(ctx, sweepPoint(r.measurement, r.store, result)); err != nil {
		return fmt.Errorf("failed to write to InfluxDB: %w", err)
	}
	return nil
}

// Close closes the InfluxDB client connection
func (r *InfluxRecorder) Close() error {
	if r.client != nil {
		r.client.Close()
	}
	return nil
}

// sweepPoint builds the point recorded for a sweep run
func sweepPoint(measurement, store string, result services.SweepResult) *write.Point {
	status := sweepStatusOK
	if result.Err != nil {
		status = sweepStatusError
	}

	return write.NewPoint(
		measurement,
		map[string]string{
			"store":  store,
			"status": status,
		},
		map[string]interface{}{
			"expired":     result.Expired,
			"duration_ms": float64(result.Duration.Microseconds()) / 1000,
		},
		result.StartedAt,
	)
}
