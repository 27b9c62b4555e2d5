package emulator

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Cartridge header layout (offsets into the ROM image).
const (
	headerEnd       = 0x150
	titleStart      = 0x134
	titleEnd        = 0x144
	checksumStart   = 0x134
	checksumEnd     = 0x14D
	headerChecksum  = 0x14D
	cartridgeTypeAt = 0x147
)

// DMG shades, lightest to darkest.
var dmgPalette = [4][3]uint8{
	{0xE0, 0xF8, 0xD0},
	{0x88, 0xC0, 0x70},
	{0x34, 0x68, 0x56},
	{0x08, 0x18, 0x20},
}

// headlessEngine is the built-in core used when no external core is
// wired in. It validates the cartridge header like a real core would
// and renders a deterministic test pattern, so the session lifecycle,
// input plumbing, and screen capture all run end to end without
// depending on emulation accuracy.
type headlessEngine struct {
	rom     []byte
	title   string
	frame   uint64
	pressed map[Button]bool
	fb      [FramebufferSize]byte
	stopped bool
}

// NewHeadless is the default engine Factory.
func NewHeadless(path string, cfg Config) (Engine, error) {
	rom, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if len(rom) < headerEnd {
		return nil, fmt.Errorf("invalid rom: image is %d bytes, smaller than the cartridge header", len(rom))
	}

	var sum uint8
	for i := checksumStart; i < checksumEnd; i++ {
		sum = sum - rom[i] - 1
	}
	if sum != rom[headerChecksum] {
		return nil, fmt.Errorf("invalid rom: header checksum mismatch (computed %#02x, header %#02x)", sum, rom[headerChecksum])
	}

	return &headlessEngine{
		rom:     rom,
		title:   cartTitle(rom),
		pressed: make(map[Button]bool),
	}, nil
}

func cartTitle(rom []byte) string {
	raw := rom[titleStart:titleEnd]
	var b strings.Builder
	for _, c := range raw {
		if c == 0 {
			break
		}
		if c >= 0x20 && c < 0x7F {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func (e *headlessEngine) AdvanceFrame() error {
	if e.stopped {
		return errors.New("engine is stopped")
	}
	e.frame++
	return nil
}

// Framebuffer renders a scrolling checker pattern seeded by the ROM's
// cartridge type byte, shifted one tile per frame so callers can detect
// motion. Input darkens the pattern one shade while any button is held.
func (e *headlessEngine) Framebuffer() []byte {
	seed := int(e.rom[cartridgeTypeAt])
	scroll := int(e.frame % 8)
	shade := 0
	if len(e.pressed) > 0 {
		shade = 1
	}

	for y := 0; y < ScreenHeight; y++ {
		for x := 0; x < ScreenWidth; x++ {
			tile := ((x + scroll) / 8) + ((y + scroll) / 8) + seed
			c := dmgPalette[(tile+shade)%4]
			i := (y*ScreenWidth + x) * 4
			e.fb[i] = c[0]
			e.fb[i+1] = c[1]
			e.fb[i+2] = c[2]
			e.fb[i+3] = 0xFF
		}
	}
	return e.fb[:]
}

func (e *headlessEngine) Press(b Button)   { e.pressed[b] = true }
func (e *headlessEngine) Release(b Button) { delete(e.pressed, b) }

func (e *headlessEngine) Stop() error {
	e.stopped = true
	e.rom = nil
	return nil
}

// Title returns the cartridge title parsed from the header.
func (e *headlessEngine) Title() string { return e.title }
