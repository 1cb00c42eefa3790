// Package sensortest runs an in-process fake sensor endpoint for transport
// and acquisition tests.
package sensortest

import (
	"bytes"
	"io"
	"net"
	"sync"
	"testing"

	"github.com/edgelab-io/sensorlogd/internal/protocol"
)

// AfterScript selects endpoint behavior once all scripted frames are served.
type AfterScript int

const (
	// CloseAfter closes the connection after the last scripted frame.
	CloseAfter AfterScript = iota
	// SilentAfter keeps the connection open but never answers again.
	SilentAfter
	// RepeatAfter keeps re-serving the last scripted frame.
	RepeatAfter
)

// Config scripts one fake endpoint.
type Config struct {
	Greeting []byte      // defaults to "sensor ready"
	Frames   [][]byte    // responses consumed across all connections, in order
	After    AfterScript // behavior once Frames are exhausted
	// SilentHandshake suppresses the greeting entirely.
	SilentHandshake bool
}

// Server is a scripted TCP sensor endpoint bound to a loopback port.
type Server struct {
	t   *testing.T
	cfg Config
	ln  net.Listener

	mu   sync.Mutex
	next int

	wg     sync.WaitGroup
	closed chan struct{}
}

// Start listens on an ephemeral loopback port and serves until the test ends.
func Start(t *testing.T, cfg Config) *Server {
	t.Helper()
	if cfg.Greeting == nil {
		cfg.Greeting = []byte("sensor ready")
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("sensortest listen: %v", err)
	}
	s := &Server{t: t, cfg: cfg, ln: ln, closed: make(chan struct{})}
	s.wg.Add(1)
	go s.acceptLoop()
	t.Cleanup(s.Close)
	return s
}

// Addr returns the dialable endpoint address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Close stops the listener and waits for connection handlers to exit.
func (s *Server) Close() {
	select {
	case <-s.closed:
		return
	default:
	}
	close(s.closed)
	_ = s.ln.Close()
	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	token := make([]byte, len(protocol.HandshakeToken))
	if _, err := io.ReadFull(conn, token); err != nil {
		return
	}
	if !bytes.Equal(token, protocol.HandshakeToken) {
		return
	}
	if !s.cfg.SilentHandshake {
		if _, err := conn.Write(s.cfg.Greeting); err != nil {
			return
		}
	}

	opcode := make([]byte, len(protocol.RequestOpcode))
	for {
		if _, err := io.ReadFull(conn, opcode); err != nil {
			return
		}
		if !bytes.Equal(opcode, protocol.RequestOpcode) {
			return
		}
		frame, ok := s.nextFrame()
		if !ok {
			switch s.cfg.After {
			case SilentAfter:
				// Swallow requests until the peer gives up.
				continue
			default:
				return
			}
		}
		if _, err := conn.Write(frame); err != nil {
			return
		}
	}
}

// nextFrame consumes the shared script so behavior carries across reconnects.
func (s *Server) nextFrame() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next < len(s.cfg.Frames) {
		f := s.cfg.Frames[s.next]
		s.next++
		return f, true
	}
	if s.cfg.After == RepeatAfter && len(s.cfg.Frames) > 0 {
		return s.cfg.Frames[len(s.cfg.Frames)-1], true
	}
	return nil, false
}

// Served reports how many scripted frames have been consumed.
func (s *Server) Served() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
