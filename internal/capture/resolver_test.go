package capture

import "testing"

func frameWith(channels map[ChannelID]Channel) Frame {
	return Frame{Channels: channels}
}

func TestResolveChannelPriorityOrder(t *testing.T) {
	f := frameWith(map[ChannelID]Channel{
		ChannelColor:   {U8: []byte{1, 2, 3}},
		ChannelTexture: {U8: []byte{4, 5, 6}},
	})

	ch, chosen, ok := ResolveChannel(f, DefaultImagePriority)
	if !ok {
		t.Fatal("expected a channel")
	}
	if chosen != ChannelColor {
		t.Errorf("chose %q, want %q", chosen, ChannelColor)
	}
	if ch.U8[0] != 1 {
		t.Error("returned the wrong payload")
	}
}

func TestResolveChannelFallsBack(t *testing.T) {
	f := frameWith(map[ChannelID]Channel{
		ChannelTexture: {U8: []byte{4, 5, 6}},
	})

	_, chosen, ok := ResolveChannel(f, DefaultImagePriority)
	if !ok || chosen != ChannelTexture {
		t.Errorf("chose %q ok=%v, want texture fallback", chosen, ok)
	}
}

func TestResolveChannelEmptyPayloadIsMissing(t *testing.T) {
	f := frameWith(map[ChannelID]Channel{
		ChannelColor:   {U8: []byte{}}, // present but empty
		ChannelTexture: {U8: []byte{7}},
	})

	_, chosen, ok := ResolveChannel(f, DefaultImagePriority)
	if !ok || chosen != ChannelTexture {
		t.Errorf("chose %q ok=%v, want texture (empty color skipped)", chosen, ok)
	}
}

func TestResolveChannelAllMissing(t *testing.T) {
	f := frameWith(map[ChannelID]Channel{})
	if _, _, ok := ResolveChannel(f, DefaultImagePriority); ok {
		t.Error("expected no usable channel")
	}
}
