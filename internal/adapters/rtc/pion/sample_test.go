package pion

import (
	"time"

	"github.com/pion/webrtc/v4/pkg/media"
)

func mediaSample() media.Sample {
	return media.Sample{Data: []byte{0x00, 0x00, 0x00, 0x01, 0x65}, Duration: time.Second / 30}
}
