// Package emulator owns the emulation core boundary.
//
// The Engine interface is the narrow contract the service needs from a
// Game Boy core: tick a frame, read the framebuffer, inject joypad
// input, stop. A Factory constructs an Engine bound to a ROM file; the
// built-in headless factory validates the cartridge header and renders
// a test pattern so the full stack runs without an external core.
//
// Handle wraps exactly one Engine and classifies core failures into two
// error kinds:
//   - ProgramError: the ROM is missing, has an unsupported extension,
//     is corrupt, or cannot be accessed
//   - StateError: the operation does not fit the current state
//
// Handle is not safe for concurrent use; it is exclusively owned by the
// session controller, which serializes every operation.
package emulator
