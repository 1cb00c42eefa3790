package acquire

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/edgelab-io/sensorlogd/internal/logging"
	"github.com/edgelab-io/sensorlogd/internal/protocol/frame"
	"github.com/edgelab-io/sensorlogd/internal/protocol/session"
	"github.com/edgelab-io/sensorlogd/internal/sink"
	"github.com/edgelab-io/sensorlogd/internal/telemetry"
	"github.com/edgelab-io/sensorlogd/internal/testutil/sensortest"
)

func testSessionConfig() session.Config {
	cfg := session.DefaultConfig()
	cfg.HandshakeTimeout = 300 * time.Millisecond
	cfg.GreetingQuiet = 20 * time.Millisecond
	cfg.ReadTimeout = 100 * time.Millisecond
	cfg.Backoff.InitialDelay = 5 * time.Millisecond
	cfg.Backoff.MaxDelay = 50 * time.Millisecond
	return cfg
}

func testLoopConfig() LoopConfig {
	return LoopConfig{
		ConsecutiveErrorLimit: 3,
		StallDeadline:         400 * time.Millisecond,
		SuccessPause:          time.Millisecond,
		RetryPause:            10 * time.Millisecond,
	}
}

func openTestSink(t *testing.T) (*sink.Sink, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.txt")
	out, err := sink.Open(path)
	if err != nil {
		t.Fatalf("open sink: %v", err)
	}
	t.Cleanup(func() { _ = out.Close() })
	return out, path
}

func dialTest(t *testing.T, addr string) *session.Session {
	t.Helper()
	sess, err := session.Dial(context.Background(), addr, testSessionConfig())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

func tempFrame(micros int64, temp float32, pressure int16) []byte {
	return frame.EncodeTempPressure(telemetry.TempPressure{
		At: time.UnixMicro(micros), Temperature: temp, Pressure: pressure,
	})
}

func TestRunLoopWritesAcceptedFramesInOrder(t *testing.T) {
	frames := [][]byte{
		tempFrame(1700000000000000, 23.5, 1013),
		tempFrame(1700000001000000, 23.6, 1012),
		tempFrame(1700000002000000, 23.7, 1011),
	}
	srv := sensortest.Start(t, sensortest.Config{Frames: frames, After: sensortest.SilentAfter})
	sess := dialTest(t, srv.Addr())
	out, path := openTestSink(t)
	stats := NewEndpointStats("S1")
	profile := telemetry.Profile{Name: "S1", Address: srv.Addr(), Kind: telemetry.KindTempPressure}

	cfg := testLoopConfig()
	cfg.ConsecutiveErrorLimit = 1 // first post-script timeout ends the session
	err := RunLoop(context.Background(), sess, profile, cfg, out, stats, logging.ConfigureTests())
	if !errors.Is(err, ErrTooManyErrors) {
		t.Fatalf("expected ErrTooManyErrors after script end, got %v", err)
	}
	if got := stats.PacketsOK.Load(); got != 3 {
		t.Fatalf("packets_ok got=%d", got)
	}
	if got := stats.TimeoutErrors.Load(); got != 1 {
		t.Fatalf("timeout_errors got=%d", got)
	}

	if err := out.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := "2023-11-14 22:13:20 [S1] temperature=23.50C pressure=1013\n" +
		"2023-11-14 22:13:21 [S1] temperature=23.60C pressure=1012\n" +
		"2023-11-14 22:13:22 [S1] temperature=23.70C pressure=1011\n"
	if string(data) != want {
		t.Fatalf("sink content mismatch:\n got=%q\nwant=%q", string(data), want)
	}
}

func TestRunLoopDesyncOnCorruptChecksum(t *testing.T) {
	good := tempFrame(1700000000000000, 23.5, 1013)
	bad := tempFrame(1700000001000000, 23.5, 1013)
	bad[len(bad)-1]++
	srv := sensortest.Start(t, sensortest.Config{
		Frames: [][]byte{good, bad},
		After:  sensortest.SilentAfter,
	})
	sess := dialTest(t, srv.Addr())
	out, _ := openTestSink(t)
	stats := NewEndpointStats("S1")
	profile := telemetry.Profile{Name: "S1", Address: srv.Addr(), Kind: telemetry.KindTempPressure}

	err := RunLoop(context.Background(), sess, profile, testLoopConfig(), out, stats, logging.ConfigureTests())
	if !errors.Is(err, ErrDesync) {
		t.Fatalf("expected ErrDesync, got %v", err)
	}
	if got := stats.PacketsOK.Load(); got != 1 {
		t.Fatalf("packets_ok got=%d", got)
	}
	if got := stats.SyncResets.Load(); got != 1 {
		t.Fatalf("sync_resets got=%d", got)
	}
	if got := stats.ChecksumErrors.Load(); got != 1 {
		t.Fatalf("checksum_errors got=%d", got)
	}
}

func TestRunLoopStallsOnSilentServer(t *testing.T) {
	srv := sensortest.Start(t, sensortest.Config{After: sensortest.SilentAfter})
	sess := dialTest(t, srv.Addr())
	out, path := openTestSink(t)
	stats := NewEndpointStats("S2")
	profile := telemetry.Profile{Name: "S2", Address: srv.Addr(), Kind: telemetry.KindAccelerometer}

	cfg := testLoopConfig()
	cfg.ConsecutiveErrorLimit = 100 // let the stall deadline fire first
	cfg.StallDeadline = 250 * time.Millisecond
	err := RunLoop(context.Background(), sess, profile, cfg, out, stats, logging.ConfigureTests())
	if !errors.Is(err, ErrStalled) {
		t.Fatalf("expected ErrStalled, got %v", err)
	}
	if got := stats.TimeoutErrors.Load(); got == 0 {
		t.Fatalf("expected timeout_errors > 0")
	}
	if err := out.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	data, _ := os.ReadFile(path)
	if len(data) != 0 {
		t.Fatalf("no records expected, got %q", string(data))
	}
}

func TestRunLoopPeerClosedAbandonsSession(t *testing.T) {
	srv := sensortest.Start(t, sensortest.Config{After: sensortest.CloseAfter})
	sess := dialTest(t, srv.Addr())
	out, _ := openTestSink(t)
	stats := NewEndpointStats("S1")
	profile := telemetry.Profile{Name: "S1", Address: srv.Addr(), Kind: telemetry.KindTempPressure}

	err := RunLoop(context.Background(), sess, profile, testLoopConfig(), out, stats, logging.ConfigureTests())
	if err == nil {
		t.Fatalf("expected session error after peer close")
	}
	if errors.Is(err, ErrTooManyErrors) || errors.Is(err, ErrStalled) {
		t.Fatalf("peer close should abandon immediately, got %v", err)
	}
}

func TestRunLoopReturnsNilOnCancellation(t *testing.T) {
	frames := [][]byte{tempFrame(1700000000000000, 1, 1)}
	srv := sensortest.Start(t, sensortest.Config{Frames: frames, After: sensortest.RepeatAfter})
	sess := dialTest(t, srv.Addr())
	out, _ := openTestSink(t)
	stats := NewEndpointStats("S1")
	profile := telemetry.Profile{Name: "S1", Address: srv.Addr(), Kind: telemetry.KindTempPressure}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RunLoop(ctx, sess, profile, testLoopConfig(), out, stats, logging.ConfigureTests())
	}()

	waitFor(t, time.Second, func() bool { return stats.PacketsOK.Load() >= 2 })
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("cancelled loop returned %v", err)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("loop did not observe cancellation promptly")
	}
}

func TestRunLoopCancellationInterruptsBlockedRead(t *testing.T) {
	// No frames at all: the endpoint swallows every request, so the loop
	// blocks inside a frame read with most of the deadline still ahead.
	srv := sensortest.Start(t, sensortest.Config{After: sensortest.SilentAfter})
	scfg := testSessionConfig()
	scfg.ReadTimeout = 2 * time.Second
	sess, err := session.Dial(context.Background(), srv.Addr(), scfg)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = sess.Close() })
	out, _ := openTestSink(t)
	stats := NewEndpointStats("S1")
	profile := telemetry.Profile{Name: "S1", Address: srv.Addr(), Kind: telemetry.KindTempPressure}

	cfg := testLoopConfig()
	cfg.ConsecutiveErrorLimit = 100
	cfg.StallDeadline = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RunLoop(ctx, sess, profile, cfg, out, stats, logging.ConfigureTests())
	}()

	// Let the loop settle into the blocked read, then cancel. The loop must
	// stop issuing socket reads within 100ms of cancellation, not ride out
	// the 2s read deadline.
	time.Sleep(150 * time.Millisecond)
	canceledAt := time.Now()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("cancelled loop returned %v", err)
		}
		if lag := time.Since(canceledAt); lag > 200*time.Millisecond {
			t.Fatalf("loop exited %v after cancellation", lag)
		}
	case <-time.After(time.Second):
		t.Fatalf("loop still blocked on the silent peer after cancellation")
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}
