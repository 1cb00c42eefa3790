package acquire

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/edgelab-io/sensorlogd/internal/observability"
	"github.com/edgelab-io/sensorlogd/internal/protocol/session"
	"github.com/edgelab-io/sensorlogd/internal/sink"
	"github.com/edgelab-io/sensorlogd/internal/telemetry"
)

// Worker owns one endpoint: it dials, authenticates, runs the acquisition
// loop, and reconnects with bounded backoff until cancellation. Session
// failures never propagate past it.
type Worker struct {
	profile telemetry.Profile
	cfg     session.Config
	loop    LoopConfig
	out     *sink.Sink
	stats   *EndpointStats
	logger  zerolog.Logger
}

func NewWorker(profile telemetry.Profile, cfg session.Config, loop LoopConfig,
	out *sink.Sink, stats *EndpointStats, logger zerolog.Logger) *Worker {
	return &Worker{
		profile: profile,
		cfg:     cfg.WithDefaults(),
		loop:    loop.WithDefaults(),
		out:     out,
		stats:   stats,
		logger:  logger.With().Str("endpoint", profile.Name).Logger(),
	}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	attempt := 0
	for ctx.Err() == nil {
		sess, err := session.Dial(ctx, w.profile.Address, w.cfg)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			attempt++
			w.stats.ConnectionErrors.Add(1)
			observability.RecordConnectionError(w.profile.Name)
			w.logger.Warn().Err(err).Int("attempt", attempt).
				Str("addr", w.profile.Address).Msg("connect failed")
			if session.WaitBackoff(ctx, w.cfg.Backoff, attempt) != nil {
				return
			}
			continue
		}
		attempt = 0
		w.logger.Info().Str("addr", w.profile.Address).Msg("session established")

		err = RunLoop(ctx, sess, w.profile, w.loop, w.out, w.stats, w.logger)
		_ = sess.Close()
		if err == nil {
			// Cancellation: the only clean way out of the loop.
			return
		}

		w.stats.Reconnections.Add(1)
		observability.RecordReconnection(w.profile.Name)
		w.logger.Warn().Err(err).Msg("session abandoned, reconnecting")
		attempt = 1
		if session.WaitBackoff(ctx, w.cfg.Backoff, attempt) != nil {
			return
		}
	}
}
