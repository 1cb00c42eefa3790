package acquire

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/edgelab-io/sensorlogd/internal/observability"
	"github.com/edgelab-io/sensorlogd/internal/protocol"
	"github.com/edgelab-io/sensorlogd/internal/protocol/frame"
	"github.com/edgelab-io/sensorlogd/internal/protocol/session"
	"github.com/edgelab-io/sensorlogd/internal/sink"
	"github.com/edgelab-io/sensorlogd/internal/telemetry"
)

var (
	ErrDesync        = errors.New("acquire: stream desynchronized")
	ErrTooManyErrors = errors.New("acquire: too many consecutive errors")
	ErrStalled       = errors.New("acquire: no frames within stall deadline")
)

// LoopConfig tunes the acquisition loop failure thresholds.
type LoopConfig struct {
	ConsecutiveErrorLimit int
	StallDeadline         time.Duration
	SuccessPause          time.Duration
	RetryPause            time.Duration
}

func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		ConsecutiveErrorLimit: 3,
		StallDeadline:         5 * time.Second,
		SuccessPause:          time.Millisecond,
		RetryPause:            100 * time.Millisecond,
	}
}

// WithDefaults fills unset fields from DefaultLoopConfig.
func (c LoopConfig) WithDefaults() LoopConfig {
	def := DefaultLoopConfig()
	if c.ConsecutiveErrorLimit <= 0 {
		c.ConsecutiveErrorLimit = def.ConsecutiveErrorLimit
	}
	if c.StallDeadline <= 0 {
		c.StallDeadline = def.StallDeadline
	}
	if c.SuccessPause <= 0 {
		c.SuccessPause = def.SuccessPause
	}
	if c.RetryPause <= 0 {
		c.RetryPause = def.RetryPause
	}
	return c
}

// RunLoop drives the request/response cycle over one live session until
// cancellation (nil) or a terminal session error. A checksum mismatch is
// treated as loss of stream alignment: no in-band recovery is attempted, the
// session is condemned so the reconnect resets the byte stream.
func RunLoop(ctx context.Context, sess *session.Session, profile telemetry.Profile,
	cfg LoopConfig, out *sink.Sink, stats *EndpointStats, logger zerolog.Logger) error {

	cfg = cfg.WithDefaults()
	buf := make([]byte, profile.Kind.FrameLen())
	consecutive := 0
	lastOK := time.Now()

	for {
		if ctx.Err() != nil {
			return nil
		}

		rec, err := fetch(ctx, sess, profile.Kind, buf)
		if err == nil {
			consecutive = 0
			lastOK = time.Now()
			stats.PacketsOK.Add(1)
			observability.RecordPacket(profile.Name)
			if werr := out.WriteLine(telemetry.FormatLine(rec)); werr != nil {
				// The record is lost but future ones are still worth writing.
				logger.Error().Err(werr).Msg("sink write failed, record dropped")
			}
			if pause(ctx, cfg.SuccessPause) != nil {
				return nil
			}
			continue
		}

		if ctx.Err() != nil {
			// Cancellation surfaced mid-read; not a session failure.
			return nil
		}

		switch {
		case errors.Is(err, protocol.ErrChecksumMismatch):
			stats.ChecksumErrors.Add(1)
			stats.SyncResets.Add(1)
			observability.RecordFrameError(profile.Name, "checksum")
			logger.Warn().Msg("checksum mismatch, stream no longer trustworthy")
			return ErrDesync
		case isReadTimeout(err):
			stats.TimeoutErrors.Add(1)
			observability.RecordFrameError(profile.Name, "timeout")
			consecutive++
			logger.Warn().Err(err).Int("consecutive", consecutive).Msg("frame read timed out")
		case errors.Is(err, protocol.ErrInvalidTimestamp):
			observability.RecordFrameError(profile.Name, "decode")
			consecutive++
			logger.Warn().Err(err).Int("consecutive", consecutive).Msg("frame rejected")
		case errors.Is(err, session.ErrPeerClosed):
			observability.RecordFrameError(profile.Name, "peer_closed")
			return err
		default:
			observability.RecordFrameError(profile.Name, "io")
			return err
		}

		if consecutive >= cfg.ConsecutiveErrorLimit {
			return ErrTooManyErrors
		}
		if time.Since(lastOK) > cfg.StallDeadline {
			return ErrStalled
		}
		if pause(ctx, cfg.RetryPause) != nil {
			return nil
		}
	}
}

// fetch performs one request/response/decode cycle.
func fetch(ctx context.Context, sess *session.Session, kind telemetry.Kind, buf []byte) (telemetry.Record, error) {
	if err := sess.Request(); err != nil {
		return nil, err
	}
	if err := sess.ReadFrame(ctx, buf); err != nil {
		return nil, err
	}
	return frame.Decode(kind, buf)
}

func isReadTimeout(err error) bool {
	var te *session.TimeoutError
	return errors.As(err, &te)
}

func pause(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
