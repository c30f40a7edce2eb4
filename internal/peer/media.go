package peer

import (
	"fmt"

	thingrtc "github.com/thingify-app/thing-rtc-go"

	"github.com/thingify-app/thingify-net/internal/config"
)

const (
	videoBitrate = 1_000_000
	videoWidth   = 640
	videoHeight  = 480
)

func mediaSource(m config.Media) (*thingrtc.MediaSource, error) {
	if m.RTSPURL != "" {
		source, err := thingrtc.CreateRtspMediaSource(m.RTSPURL)
		if err != nil {
			return nil, fmt.Errorf("opening rtsp source: %w", err)
		}
		return source, nil
	}

	codec, err := makeCodec()
	if err != nil {
		return nil, fmt.Errorf("creating video codec: %w", err)
	}
	source, err := thingrtc.CreateVideoMediaSource(codec, videoWidth, videoHeight)
	if err != nil {
		return nil, fmt.Errorf("opening camera: %w", err)
	}
	return source, nil
}
