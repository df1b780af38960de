package domain

import (
	"fmt"
	"strconv"
)

// StreamID is the numeric uid the RTC SDK assigns to a published stream.
// It equals the publishing member's UserID.
type StreamID uint32

func ParseStreamID(s string) (StreamID, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse stream id %q: %w", s, err)
	}
	if n == 0 {
		return 0, ErrStreamIDZero
	}
	return StreamID(n), nil
}

func (id StreamID) String() string { return strconv.FormatUint(uint64(id), 10) }

// MediaState is tracked locally next to a stream handle; the SDK does not keep it.
type MediaState struct {
	VideoOn bool `json:"videoOn"`
	AudioOn bool `json:"audioOn"`
}

// MediaOn is the state every freshly subscribed or created stream starts with.
func MediaOn() MediaState { return MediaState{VideoOn: true, AudioOn: true} }
