package protocol

import "errors"

var (
	ErrChecksumMismatch = errors.New("protocol: checksum mismatch")
	ErrInvalidTimestamp = errors.New("protocol: invalid timestamp")
	ErrBadFrameLength   = errors.New("protocol: bad frame length")
)
