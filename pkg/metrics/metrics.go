// Package metrics keeps host and traffic gauges in a local time-series
// store for the admin dashboard.
package metrics

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/nakabonne/tstorage"
)

const (
	MetricCPUUsage = "system_cpu_usage"
	MetricMemUsage = "system_mem_usage"
	MetricAPICount = "api_request_count"
)

var (
	storage tstorage.Storage
	mu      sync.Mutex
)

// InitMetrics opens the metrics store under workdir/data/metrics.
func InitMetrics(workdir string) error {
	mu.Lock()
	defer mu.Unlock()
	var err error
	storage, err = tstorage.NewStorage(
		tstorage.WithDataPath(filepath.Join(workdir, "data", "metrics")),
		tstorage.WithTimestampPrecision(tstorage.Seconds),
		tstorage.WithRetention(7*24*time.Hour),
	)
	return err
}

// InsertGauge records one datapoint at now.
func InsertGauge(metric string, value float64) error {
	mu.Lock()
	defer mu.Unlock()
	if storage == nil {
		return nil
	}
	return storage.InsertRows([]tstorage.Row{
		{
			Metric:    metric,
			DataPoint: tstorage.DataPoint{Timestamp: time.Now().Unix(), Value: value},
		},
	})
}

// SelectRange returns datapoints for metric between start and end (unix seconds).
func SelectRange(metric string, start, end int64) ([]*tstorage.DataPoint, error) {
	mu.Lock()
	defer mu.Unlock()
	if storage == nil {
		return nil, nil
	}
	points, err := storage.Select(metric, nil, start, end)
	if err == tstorage.ErrNoDataPoints {
		return nil, nil
	}
	return points, err
}

// Latest returns the newest datapoint value within the trailing hour, or ok=false.
func Latest(metric string) (float64, bool) {
	now := time.Now().Unix()
	points, err := SelectRange(metric, now-3600, now+1)
	if err != nil || len(points) == 0 {
		return 0, false
	}
	return points[len(points)-1].Value, true
}

// Close flushes and closes the store.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if storage == nil {
		return nil
	}
	err := storage.Close()
	storage = nil
	return err
}
