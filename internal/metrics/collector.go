package metrics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/togglr/togglr-admin/internal/api"
)

// DashboardProvider supplies the aggregate counts
type DashboardProvider interface {
	Dashboard(ctx context.Context) (*api.Dashboard, error)
}

// Collector polls the dashboard endpoint and mirrors it into gauges
type Collector struct {
	metrics  *Metrics
	source   DashboardProvider
	interval time.Duration
	logger   *slog.Logger
	up       atomic.Bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewCollector creates a new dashboard collector
func NewCollector(m *Metrics, source DashboardProvider, interval time.Duration, logger *slog.Logger) *Collector {
	if interval == 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		metrics:  m,
		source:   source,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start polls once immediately and then on every interval
func (c *Collector) Start(ctx context.Context) {
	c.wg.Add(1)
	go c.pollLoop(ctx)
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
	c.wg.Wait()
}

func (c *Collector) pollLoop(ctx context.Context) {
	defer c.wg.Done()

	c.Collect(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.Collect(ctx)
		}
	}
}

// Collect performs a single poll. On failure the counts keep their last
// values and togglr_dashboard_up drops to 0.
func (c *Collector) Collect(ctx context.Context) error {
	start := time.Now()
	d, err := c.source.Dashboard(ctx)
	c.metrics.ScrapeDuration.Set(time.Since(start).Seconds())
	if err != nil {
		c.metrics.DashboardUp.Set(0)
		c.up.Store(false)
		c.logger.Warn("dashboard poll failed", "error", err)
		return err
	}

	c.metrics.FeaturesTotal.Set(float64(d.TotalFeatures))
	c.metrics.FeaturesActive.Set(float64(d.ActiveFeatures))
	c.metrics.FeaturesInactive.Set(float64(d.InactiveFeatures()))
	c.metrics.EnvironmentsTotal.Set(float64(d.TotalEnvironments))
	c.metrics.NamespacesTotal.Set(float64(d.TotalNamespaces))
	c.metrics.UsersTotal.Set(float64(d.TotalUsers))
	c.metrics.DashboardUp.Set(1)
	c.up.Store(true)
	c.metrics.LastScrape.Set(float64(time.Now().Unix()))
	return nil
}

// Up reports whether the last poll succeeded
func (c *Collector) Up() bool {
	return c.up.Load()
}
