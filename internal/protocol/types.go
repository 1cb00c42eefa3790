package protocol

const (
	// TempPressureFrameLen is the endpoint-1 frame size on the wire.
	TempPressureFrameLen = 15
	// AccelerometerFrameLen is the endpoint-2 frame size on the wire.
	AccelerometerFrameLen = 21
	// GreetingMaxLen bounds the opaque server greeting read during handshake.
	GreetingMaxLen = 64
)

var (
	// HandshakeToken is the fixed cleartext authentication token.
	HandshakeToken = []byte("isu_pt")
	// RequestOpcode is the poll command sent before every frame read.
	RequestOpcode = []byte("get")
)
