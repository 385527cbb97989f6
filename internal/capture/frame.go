package capture

// ChannelID identifies one of the known data planes a sensor frame can
// carry. Which subset is populated depends on the sensor configuration.
type ChannelID string

const (
	// ChannelColor is the color-camera image. Preferred because it
	// preserves the scene background and true color.
	ChannelColor ChannelID = "color"
	// ChannelColorRaw is the unprocessed 16-bit color-camera image.
	ChannelColorRaw ChannelID = "color_raw"
	// ChannelTexture is the projector texture image, a grayscale-ish
	// fallback when no color camera is fitted.
	ChannelTexture ChannelID = "texture"
	// ChannelCloud holds XYZ point triplets.
	ChannelCloud ChannelID = "cloud"
	// ChannelCloudRGB holds per-point RGB triplets paired index-for-index
	// with ChannelCloud.
	ChannelCloudRGB ChannelID = "cloud_rgb"
)

// Channel is one data plane within a frame. Exactly one of the payload
// slices is populated for a present channel: U8 for 8-bit image samples,
// U16 for 16-bit image samples, F32 for point-cloud triplets. Width and
// Height are zero when the sensor does not declare image dimensions.
type Channel struct {
	U8  []byte
	U16 []uint16
	F32 []float32

	Width  int
	Height int
}

// Empty reports whether the channel carries no payload. An empty channel
// is treated identically to a missing one.
func (c Channel) Empty() bool {
	return len(c.U8) == 0 && len(c.U16) == 0 && len(c.F32) == 0
}

// Samples returns the number of primitive samples in the payload.
func (c Channel) Samples() int {
	if n := len(c.U8); n > 0 {
		return n
	}
	if n := len(c.U16); n > 0 {
		return n
	}
	return len(c.F32)
}

// Frame is one synchronized capture event from the sensor, holding zero or
// more named channels. A missing channel is a normal outcome, not an error.
type Frame struct {
	Channels map[ChannelID]Channel
}

// Channel returns the named channel and whether it is present with a
// non-empty payload.
func (f Frame) Channel(id ChannelID) (Channel, bool) {
	ch, ok := f.Channels[id]
	if !ok || ch.Empty() {
		return Channel{}, false
	}
	return ch, true
}

// Source abstracts the physical sensor and its connect/trigger/fetch
// protocol. Implementations hand over frame payloads owned by the caller:
// once Frame returns a populated Frame, the pipeline may retain and mutate
// its slices.
type Source interface {
	// Connect establishes the sensor connection. Failure here is the only
	// fatal error in the pipeline.
	Connect() error

	// Connected reports whether the sensor connection is alive.
	Connected() bool

	// StartAcquisition puts the sensor into triggerable state.
	StartAcquisition() error

	// TriggerFrame requests one capture and returns its frame index.
	TriggerFrame() (int64, error)

	// Frame fetches a triggered frame by index. ok is false while the
	// frame's channels have not yet populated; callers poll until their
	// wait budget expires.
	Frame(index int64) (frame Frame, ok bool)

	// StopAcquisition leaves triggerable state.
	StopAcquisition() error

	// Disconnect tears down the sensor connection.
	Disconnect() error
}
