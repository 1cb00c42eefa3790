package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// ErrPeerClosed reports a zero-length read: the server closed its side.
var ErrPeerClosed = errors.New("session: peer closed connection")

// TimeoutError reports an exhausted read deadline and how many of the wanted
// bytes had arrived by then.
type TimeoutError struct {
	Want    int
	Partial int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("session: read timeout: %d/%d bytes", e.Partial, e.Want)
}

func (e *TimeoutError) Timeout() bool { return true }

// readPollSlice is the per-poll read deadline inside ReadExact. Sub-deadline
// expiries re-poll so the overall budget, not the OS timeout, decides failure,
// and cancellation is observed between slices: a blocked read stops issuing
// new socket reads within one slice of ctx being cancelled.
const readPollSlice = 100 * time.Millisecond

// ReadExact fills buf from conn within an overall deadline measured from
// entry. Either the whole buffer is populated or an error is returned; partial
// data is never surfaced as success. Cancellation returns ctx.Err().
func ReadExact(ctx context.Context, conn net.Conn, buf []byte, overall time.Duration) error {
	deadline := time.Now().Add(overall)
	total := 0
	for total < len(buf) {
		if err := ctx.Err(); err != nil {
			return err
		}
		slice := time.Until(deadline)
		if slice <= 0 {
			return &TimeoutError{Want: len(buf), Partial: total}
		}
		if slice > readPollSlice {
			slice = readPollSlice
		}
		if err := conn.SetReadDeadline(time.Now().Add(slice)); err != nil {
			return err
		}
		n, err := conn.Read(buf[total:])
		total += n
		if err == nil {
			continue
		}
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			continue
		}
		if errors.Is(err, io.EOF) {
			return ErrPeerClosed
		}
		return err
	}
	return nil
}
