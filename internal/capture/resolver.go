package capture

// DefaultImagePriority prefers the true color camera over the raw 16-bit
// plane, with the projector texture as a last resort.
var DefaultImagePriority = []ChannelID{ChannelColor, ChannelColorRaw, ChannelTexture}

// DefaultCloudPriority lists the channels that may supply point triplets.
var DefaultCloudPriority = []ChannelID{ChannelCloud}

// ResolveChannel returns the first channel from the priority list (most
// preferred first) that is present with a non-empty payload, along with
// which name was chosen. ok is false when every candidate is absent; that
// is a per-frame capture failure for the orchestrator, not an error.
func ResolveChannel(f Frame, priority []ChannelID) (ch Channel, chosen ChannelID, ok bool) {
	for _, id := range priority {
		if c, present := f.Channel(id); present {
			return c, id, true
		}
	}
	return Channel{}, "", false
}
