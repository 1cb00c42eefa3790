// Package telemetry defines the typed sensor records, the static endpoint
// profiles, and the log-line rendering of accepted frames.
package telemetry

import (
	"fmt"
	"time"

	"github.com/edgelab-io/sensorlogd/internal/protocol"
)

// Kind selects which frame variant an endpoint produces.
type Kind int

const (
	KindTempPressure Kind = iota
	KindAccelerometer
)

func (k Kind) String() string {
	switch k {
	case KindTempPressure:
		return "temp_pressure"
	case KindAccelerometer:
		return "accelerometer"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// FrameLen returns the fixed wire size of the variant's frame.
func (k Kind) FrameLen() int {
	switch k {
	case KindAccelerometer:
		return protocol.AccelerometerFrameLen
	default:
		return protocol.TempPressureFrameLen
	}
}

// Record is one decoded sensor reading.
type Record interface {
	Timestamp() time.Time
}

// TempPressure is the endpoint-1 reading: a temperature in degrees Celsius and
// a raw signed pressure value.
type TempPressure struct {
	At          time.Time
	Temperature float32
	Pressure    int16
}

func (r TempPressure) Timestamp() time.Time { return r.At }

// Accelerometer is the endpoint-2 reading: three raw signed axis counts.
type Accelerometer struct {
	At      time.Time
	X, Y, Z int32
}

func (r Accelerometer) Timestamp() time.Time { return r.At }

// Profile is a static per-endpoint descriptor. Two profiles exist for the life
// of the process and are never mutated.
type Profile struct {
	Name    string // log label, e.g. "S1"
	Address string
	Kind    Kind
}
