// Package frame decodes the fixed-width binary sensor frames into typed
// records and encodes records back to wire form for tooling and tests.
package frame

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/edgelab-io/sensorlogd/internal/protocol"
	"github.com/edgelab-io/sensorlogd/internal/telemetry"
)

// Decode parses one frame according to the endpoint's record kind.
func Decode(kind telemetry.Kind, buf []byte) (telemetry.Record, error) {
	switch kind {
	case telemetry.KindTempPressure:
		return DecodeTempPressure(buf)
	case telemetry.KindAccelerometer:
		return DecodeAccelerometer(buf)
	default:
		return nil, fmt.Errorf("frame: unknown record kind %d", int(kind))
	}
}

// DecodeTempPressure parses a 15-byte endpoint-1 frame:
// [u64 ts_us][f32 temp_C][i16 pressure][u8 checksum].
func DecodeTempPressure(buf []byte) (telemetry.TempPressure, error) {
	if len(buf) != protocol.TempPressureFrameLen {
		return telemetry.TempPressure{}, fmt.Errorf("%w: got %d want %d",
			protocol.ErrBadFrameLength, len(buf), protocol.TempPressureFrameLen)
	}
	body := buf[:14]
	if !protocol.Verify(body, buf[14]) {
		return telemetry.TempPressure{}, protocol.ErrChecksumMismatch
	}
	at, err := decodeTimestamp(body[0:8])
	if err != nil {
		return telemetry.TempPressure{}, err
	}
	return telemetry.TempPressure{
		At:          at,
		Temperature: math.Float32frombits(binary.BigEndian.Uint32(body[8:12])),
		Pressure:    int16(binary.BigEndian.Uint16(body[12:14])),
	}, nil
}

// DecodeAccelerometer parses a 21-byte endpoint-2 frame:
// [u64 ts_us][i32 x][i32 y][i32 z][u8 checksum].
func DecodeAccelerometer(buf []byte) (telemetry.Accelerometer, error) {
	if len(buf) != protocol.AccelerometerFrameLen {
		return telemetry.Accelerometer{}, fmt.Errorf("%w: got %d want %d",
			protocol.ErrBadFrameLength, len(buf), protocol.AccelerometerFrameLen)
	}
	body := buf[:20]
	if !protocol.Verify(body, buf[20]) {
		return telemetry.Accelerometer{}, protocol.ErrChecksumMismatch
	}
	at, err := decodeTimestamp(body[0:8])
	if err != nil {
		return telemetry.Accelerometer{}, err
	}
	return telemetry.Accelerometer{
		At: at,
		X:  int32(binary.BigEndian.Uint32(body[8:12])),
		Y:  int32(binary.BigEndian.Uint32(body[12:16])),
		Z:  int32(binary.BigEndian.Uint32(body[16:20])),
	}, nil
}

// decodeTimestamp interprets 8 bytes as a big-endian unsigned microsecond
// count since the Unix epoch. Values past the signed 64-bit range do not
// denote a representable instant and reject the frame.
func decodeTimestamp(b []byte) (time.Time, error) {
	raw := binary.BigEndian.Uint64(b)
	if raw > math.MaxInt64 {
		return time.Time{}, protocol.ErrInvalidTimestamp
	}
	return time.UnixMicro(int64(raw)).UTC(), nil
}

// EncodeTempPressure builds a checksummed endpoint-1 frame.
func EncodeTempPressure(r telemetry.TempPressure) []byte {
	buf := make([]byte, protocol.TempPressureFrameLen)
	binary.BigEndian.PutUint64(buf[0:8], uint64(r.At.UnixMicro()))
	binary.BigEndian.PutUint32(buf[8:12], math.Float32bits(r.Temperature))
	binary.BigEndian.PutUint16(buf[12:14], uint16(r.Pressure))
	buf[14] = protocol.Sum(buf[:14])
	return buf
}

// EncodeAccelerometer builds a checksummed endpoint-2 frame.
func EncodeAccelerometer(r telemetry.Accelerometer) []byte {
	buf := make([]byte, protocol.AccelerometerFrameLen)
	binary.BigEndian.PutUint64(buf[0:8], uint64(r.At.UnixMicro()))
	binary.BigEndian.PutUint32(buf[8:12], uint32(r.X))
	binary.BigEndian.PutUint32(buf[12:16], uint32(r.Y))
	binary.BigEndian.PutUint32(buf[16:20], uint32(r.Z))
	buf[20] = protocol.Sum(buf[:20])
	return buf
}

// Encode builds the wire form of any record. Used by the fake endpoint in
// tests and by configgen sample output.
func Encode(r telemetry.Record) ([]byte, error) {
	switch rec := r.(type) {
	case telemetry.TempPressure:
		return EncodeTempPressure(rec), nil
	case telemetry.Accelerometer:
		return EncodeAccelerometer(rec), nil
	default:
		return nil, fmt.Errorf("frame: unknown record type %T", r)
	}
}
