package telemetry

import "fmt"

const lineTimeLayout = "2006-01-02 15:04:05"

// FormatLine renders one record as a single newline-terminated log line.
// Timestamps are formatted in UTC at seconds precision.
func FormatLine(r Record) string {
	switch rec := r.(type) {
	case TempPressure:
		return fmt.Sprintf("%s [S1] temperature=%.2fC pressure=%d\n",
			rec.At.UTC().Format(lineTimeLayout), rec.Temperature, rec.Pressure)
	case Accelerometer:
		return fmt.Sprintf("%s [S2] x=%d y=%d z=%d\n",
			rec.At.UTC().Format(lineTimeLayout), rec.X, rec.Y, rec.Z)
	default:
		return ""
	}
}
