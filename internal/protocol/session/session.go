package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/edgelab-io/sensorlogd/internal/protocol"
)

var (
	ErrEmptyGreeting   = errors.New("session: empty server greeting")
	ErrHandshakeFailed = errors.New("session: handshake failed")
)

// Session is one authenticated connection to a sensor endpoint. It is owned
// exclusively by the acquisition loop that created it and is closed when that
// loop exits for any reason.
type Session struct {
	conn net.Conn
	cfg  Config
}

// Dial opens, tunes, and authenticates a connection to one sensor endpoint.
// On any failure the connection is closed and no session is handed out.
func Dial(ctx context.Context, addr string, cfg Config) (*Session, error) {
	cfg = cfg.WithDefaults()
	dialer := net.Dialer{Timeout: cfg.ConnectTimeout, KeepAlive: 30 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
		_ = tcp.SetKeepAlive(true)
		_ = tcp.SetReadBuffer(cfg.SocketBufferSize)
		_ = tcp.SetWriteBuffer(cfg.SocketBufferSize)
	}
	s := &Session{conn: conn, cfg: cfg}
	if err := s.handshake(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %w", ErrHandshakeFailed, err)
	}
	return s, nil
}

// handshake sends the fixed token and accepts any non-empty greeting.
func (s *Session) handshake() error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		return err
	}
	if _, err := s.conn.Write(protocol.HandshakeToken); err != nil {
		return err
	}
	greeting, err := s.readGreeting()
	if err != nil {
		return err
	}
	if len(greeting) == 0 {
		return ErrEmptyGreeting
	}
	return nil
}

// readGreeting reads the opaque server greeting. The servers do not declare
// its length, so the read continues until the stream has been quiet for the
// configured window or the handshake grace expires.
func (s *Session) readGreeting() ([]byte, error) {
	deadline := time.Now().Add(s.cfg.HandshakeTimeout)
	buf := make([]byte, 0, protocol.GreetingMaxLen)
	tmp := make([]byte, protocol.GreetingMaxLen)
	for len(buf) < protocol.GreetingMaxLen {
		wait := time.Until(deadline)
		if wait <= 0 {
			break
		}
		if len(buf) > 0 && wait > s.cfg.GreetingQuiet {
			wait = s.cfg.GreetingQuiet
		}
		if err := s.conn.SetReadDeadline(time.Now().Add(wait)); err != nil {
			return buf, err
		}
		n, err := s.conn.Read(tmp[:protocol.GreetingMaxLen-len(buf)])
		buf = append(buf, tmp[:n]...)
		if err == nil {
			continue
		}
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			// Quiet after data means the greeting is complete.
			break
		}
		if errors.Is(err, io.EOF) {
			if len(buf) > 0 {
				break
			}
			return buf, ErrPeerClosed
		}
		return buf, err
	}
	return buf, nil
}

// Request writes the poll opcode to the wire.
func (s *Session) Request() error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		return err
	}
	_, err := s.conn.Write(protocol.RequestOpcode)
	return err
}

// ReadFrame fills buf with the next fixed-length frame within the configured
// read timeout. Cancelling ctx interrupts a blocked read.
func (s *Session) ReadFrame(ctx context.Context, buf []byte) error {
	return ReadExact(ctx, s.conn, buf, s.cfg.ReadTimeout)
}

// RemoteAddr reports the peer address for logging.
func (s *Session) RemoteAddr() string {
	return s.conn.RemoteAddr().String()
}

func (s *Session) Close() error {
	return s.conn.Close()
}
