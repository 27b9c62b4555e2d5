// Package screen converts raw RGBA framebuffers into PNG images and
// base64 payloads for the protocol and the web debugger.
package screen

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/retroplay/gbagent/backend/internal/emulator"
)

// Capture is one encoded frame.
type Capture struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Base64 string `json:"base64_data"`
}

// EncodePNG encodes a raw RGBA framebuffer as PNG.
func EncodePNG(fb []byte) ([]byte, error) {
	if len(fb) != emulator.FramebufferSize {
		return nil, fmt.Errorf("framebuffer is %d bytes, expected %d. The emulator core returned a malformed frame.", len(fb), emulator.FramebufferSize)
	}

	img := &image.RGBA{
		Pix:    fb,
		Stride: emulator.ScreenWidth * 4,
		Rect:   image.Rect(0, 0, emulator.ScreenWidth, emulator.ScreenHeight),
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode frame as PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// Encode encodes a raw RGBA framebuffer as a base64 PNG capture.
func Encode(fb []byte) (*Capture, error) {
	data, err := EncodePNG(fb)
	if err != nil {
		return nil, err
	}
	return &Capture{
		Format: "png",
		Width:  emulator.ScreenWidth,
		Height: emulator.ScreenHeight,
		Base64: base64.StdEncoding.EncodeToString(data),
	}, nil
}
