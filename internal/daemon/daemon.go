// Package daemon runs scheduled re-analysis of a project: a gocron interval
// job drives the pipeline, the configuration file is hot-reloaded on change,
// finished runs are optionally published to NATS, and Prometheus metrics are
// served over HTTP.
package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/deepdoc/internal/capability"
	"git.home.luguber.info/inful/deepdoc/internal/config"
	"git.home.luguber.info/inful/deepdoc/internal/history"
	"git.home.luguber.info/inful/deepdoc/internal/logfields"
	"git.home.luguber.info/inful/deepdoc/internal/pipeline"
)

const defaultSubject = "deepdoc.runs"

// Daemon owns the long-running re-analysis loop for one project.
type Daemon struct {
	configPath  string
	projectPath string
	overrides   config.Overrides
	metrics     *Metrics

	mu   sync.RWMutex
	file *config.File
	cfg  *config.PipelineConfig

	nc      *nats.Conn
	subject string
	store   *history.Store

	interval    time.Duration
	metricsAddr string
}

// Option overrides daemon settings from the command line.
type Option func(*Daemon)

// WithInterval overrides the configured re-analysis interval.
func WithInterval(interval time.Duration) Option {
	return func(d *Daemon) { d.interval = interval }
}

// WithMetricsAddr overrides the configured metrics listen address.
func WithMetricsAddr(addr string) Option {
	return func(d *Daemon) { d.metricsAddr = addr }
}

// New resolves the initial configuration and builds the daemon. Scheduled
// runs always force-overwrite: re-analysis replaces the previous documents.
func New(configPath, projectPath string, ov config.Overrides, opts ...Option) (*Daemon, error) {
	ov.Force = true
	d := &Daemon{
		configPath:  configPath,
		projectPath: projectPath,
		overrides:   ov,
		metrics:     NewMetrics(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.reload(); err != nil {
		return nil, err
	}
	return d, nil
}

// Run blocks until the context is canceled, executing the pipeline on the
// configured interval. The first run fires immediately.
func (d *Daemon) Run(ctx context.Context) error {
	file, cfg := d.current()
	interval := d.interval
	if interval <= 0 {
		var err error
		interval, err = file.DaemonInterval()
		if err != nil {
			return err
		}
	}

	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			slog.Warn("History store unavailable", logfields.Error(err))
		} else {
			d.store = store
			defer store.Close()
		}
	}

	if url := file.Daemon.NATSURL; url != "" {
		nc, err := nats.Connect(url, nats.Name("deepdoc"))
		if err != nil {
			return fmt.Errorf("connect to NATS at %s: %w", url, err)
		}
		d.nc = nc
		d.subject = file.Daemon.Subject
		if d.subject == "" {
			d.subject = defaultSubject
		}
		defer func() {
			if err := nc.Drain(); err != nil {
				slog.Warn("NATS drain failed", logfields.Error(err))
			}
		}()
		slog.Info("Publishing run summaries", slog.String("subject", d.subject))
	}

	addr := d.metricsAddr
	if addr == "" {
		addr = file.Daemon.MetricsAddr
	}
	var metricsSrv *http.Server
	if addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", d.metrics.Handler())
		metricsSrv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			slog.Info("Serving metrics", slog.String("addr", addr))
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", logfields.Error(err))
			}
		}()
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { d.runOnce(ctx) }),
		gocron.WithName("scheduled-analysis"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("schedule analysis job: %w", err)
	}

	// Without a config file there is nothing to watch; the daemon then
	// runs on resolved defaults.
	if d.configPath != "" {
		watcher, err := NewConfigWatcher(d.configPath, 2*time.Second, func() {
			if err := d.reload(); err != nil {
				slog.Error("Configuration reload failed, keeping previous config", logfields.Error(err))
				return
			}
			slog.Info("Configuration reloaded", logfields.Path(d.configPath))
		})
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := watcher.Close(); err != nil {
				slog.Warn("Closing config watcher failed", logfields.Error(err))
			}
		}()
	}

	slog.Info("Daemon started",
		logfields.Project(cfg.ProjectName),
		slog.Duration("interval", interval))
	scheduler.Start()

	<-ctx.Done()

	if err := scheduler.Shutdown(); err != nil {
		slog.Warn("Scheduler shutdown failed", logfields.Error(err))
	}
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Metrics server shutdown failed", logfields.Error(err))
		}
	}
	slog.Info("Daemon stopped")
	return nil
}

// runOnce executes one full pipeline run and records its outcome.
func (d *Daemon) runOnce(ctx context.Context) {
	_, cfg := d.current()
	opts := []pipeline.Option{}
	if d.store != nil {
		opts = append(opts, pipeline.WithHistory(d.store))
	}
	run, err := pipeline.New(cfg, capability.NewCommandCapability(cfg.Analyzer), opts...).Execute(ctx)
	d.metrics.ObserveRun(string(run.Status), run.Duration())
	if err != nil {
		slog.Error("Scheduled run failed", logfields.RunID(run.ID), logfields.Error(err))
	}
	d.publish(run)
}

// publish sends the run summary to NATS when configured.
func (d *Daemon) publish(run *pipeline.Run) {
	if d.nc == nil {
		return
	}
	payload, err := json.Marshal(pipeline.Summarize(run))
	if err != nil {
		slog.Warn("Failed to encode run summary", logfields.Error(err))
		return
	}
	if err := d.nc.Publish(d.subject, payload); err != nil {
		slog.Warn("Failed to publish run summary", logfields.Error(err))
	}
}

// reload re-reads and re-resolves the configuration, swapping it atomically.
func (d *Daemon) reload() error {
	file, err := config.LoadOrDefault(d.configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Resolve(file, d.projectPath, d.overrides)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.file = file
	d.cfg = cfg
	d.mu.Unlock()
	return nil
}

func (d *Daemon) current() (*config.File, *config.PipelineConfig) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.file, d.cfg
}
