//go:build with_mmal

package peer

import (
	"github.com/thingify-app/thing-rtc-go/codec"
	"github.com/thingify-app/thing-rtc-go/codec/mmal"
)

// MMAL is the Raspberry Pi hardware encoder.
func makeCodec() (*codec.Codec, error) {
	return mmal.NewCodec(videoBitrate)
}
