//go:build !with_mmal

package peer

import (
	"github.com/thingify-app/thing-rtc-go/codec"
	"github.com/thingify-app/thing-rtc-go/codec/openh264"
)

func makeCodec() (*codec.Codec, error) {
	return openh264.NewCodec(videoBitrate)
}
