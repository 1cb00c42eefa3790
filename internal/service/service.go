// Package service runs the acquisition daemon lifecycle: two endpoint
// workers, the flush/stats task, the optional admin listener, and
// signal-driven shutdown.
package service

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/edgelab-io/sensorlogd/internal/acquire"
	"github.com/edgelab-io/sensorlogd/internal/admin"
	"github.com/edgelab-io/sensorlogd/internal/observability"
	"github.com/edgelab-io/sensorlogd/internal/protocol/session"
	"github.com/edgelab-io/sensorlogd/internal/sink"
	"github.com/edgelab-io/sensorlogd/internal/telemetry"
)

var (
	ErrNoEndpoints      = errors.New("service: at least one endpoint required")
	ErrOutputPathEmpty  = errors.New("service: output path required")
	ErrDuplicateProfile = errors.New("service: duplicate endpoint name")
)

// Config configures one daemon run.
type Config struct {
	Endpoints  []telemetry.Profile
	OutputPath string
	AdminAddr  string
	Session    session.Config
	Loop       acquire.LoopConfig

	// PollInterval is the flush/stats task wake cadence.
	PollInterval time.Duration
	// FlushInterval is the minimum spacing between periodic sink flushes.
	FlushInterval time.Duration
	// ReportInterval is the minimum spacing between stats lines.
	ReportInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Session:        session.DefaultConfig(),
		Loop:           acquire.DefaultLoopConfig(),
		PollInterval:   500 * time.Millisecond,
		FlushInterval:  5 * time.Second,
		ReportInterval: 10 * time.Second,
	}
}

// Service supervises the acquisition workers for one process lifetime.
type Service struct {
	cfg    Config
	logger zerolog.Logger

	mu    sync.RWMutex
	stats []*acquire.EndpointStats
}

func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	if cfg.OutputPath == "" {
		return nil, ErrOutputPathEmpty
	}
	seen := make(map[string]struct{}, len(cfg.Endpoints))
	for _, p := range cfg.Endpoints {
		if _, ok := seen[p.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProfile, p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	cfg.Session = cfg.Session.WithDefaults()
	cfg.Loop = cfg.Loop.WithDefaults()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultConfig().FlushInterval
	}
	if cfg.ReportInterval <= 0 {
		cfg.ReportInterval = DefaultConfig().ReportInterval
	}
	return &Service{cfg: cfg, logger: logger}, nil
}

// Run blocks until signal-driven shutdown completes. It returns nil on a
// graceful stop.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.serve(ctx)
}

// serve is the full supervised lifetime, separated from Run for tests.
func (s *Service) serve(ctx context.Context) error {
	out, err := sink.Open(s.cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("service: open output: %w", err)
	}

	observability.RegisterMetrics()

	stats := make([]*acquire.EndpointStats, 0, len(s.cfg.Endpoints))
	workers := make([]*acquire.Worker, 0, len(s.cfg.Endpoints))
	for _, profile := range s.cfg.Endpoints {
		st := acquire.NewEndpointStats(profile.Name)
		stats = append(stats, st)
		workers = append(workers, acquire.NewWorker(profile, s.cfg.Session, s.cfg.Loop, out, st, s.logger))
	}
	s.setStats(stats)

	var wg sync.WaitGroup
	for i, w := range workers {
		wg.Add(1)
		go func(profile telemetry.Profile, w *acquire.Worker) {
			defer wg.Done()
			s.logger.Info().Str("endpoint", profile.Name).Str("addr", profile.Address).Msg("worker started")
			w.Run(ctx)
			s.logger.Info().Str("endpoint", profile.Name).Msg("worker finished")
		}(s.cfg.Endpoints[i], w)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.flushLoop(ctx, out)
	}()

	if s.cfg.AdminAddr != "" {
		adminSrv := admin.New(s.cfg.AdminAddr, s, s.logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := adminSrv.Serve(ctx); err != nil {
				s.logger.Error().Err(err).Msg("admin listener failed")
			}
		}()
	}

	wg.Wait()

	// The mandatory final flush: last sink operation, after every producer
	// and the flush task have exited.
	if err := out.Close(); err != nil {
		s.logger.Error().Err(err).Msg("final flush failed")
	}
	s.reportFinal()
	s.logger.Info().Msg("shutdown complete")
	return nil
}

// flushLoop wakes every PollInterval, flushes the sink every FlushInterval,
// and prints per-endpoint stats every ReportInterval.
func (s *Service) flushLoop(ctx context.Context, out *sink.Sink) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	lastFlush := time.Now()
	lastReport := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if time.Since(lastFlush) >= s.cfg.FlushInterval {
				if err := out.Flush(); err != nil {
					s.logger.Error().Err(err).Msg("periodic flush failed")
				}
				lastFlush = time.Now()
			}
			if time.Since(lastReport) >= s.cfg.ReportInterval {
				for _, snap := range s.Snapshots() {
					s.logger.Info().Msg(snap.Report())
				}
				lastReport = time.Now()
			}
		}
	}
}

// Snapshots implements admin.StatusSource.
func (s *Service) Snapshots() []acquire.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]acquire.Snapshot, 0, len(s.stats))
	for _, st := range s.stats {
		out = append(out, st.Snapshot())
	}
	return out
}

func (s *Service) setStats(stats []*acquire.EndpointStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
}

// reportFinal prints terminal per-endpoint stats plus the total packet count.
func (s *Service) reportFinal() {
	var total uint64
	for _, snap := range s.Snapshots() {
		total += snap.PacketsOK
		s.logger.Info().Msg(snap.Report())
	}
	s.logger.Info().Uint64("total_packets", total).Msg("acquisition stopped")
}
