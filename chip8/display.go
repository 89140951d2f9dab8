package chip8

/// Display dimensions in pixels.
///
const (
	DisplayWidth  = 64
	DisplayHeight = 32
)

/// Display is the monochrome video buffer. Sprites are blended into it
/// with XOR and wrap around both edges. The dirty flag tells a renderer
/// that the contents changed since it last drew them.
///
type Display struct {
	pixels [DisplayHeight][DisplayWidth]bool

	// set by Clear and Draw, cleared by the renderer
	dirty bool
}

/// Clear turns every pixel off.
///
func (d *Display) Clear() {
	d.pixels = [DisplayHeight][DisplayWidth]bool{}
	d.dirty = true
}

/// Draw XORs an n-byte sprite into the buffer at (x, y). Each sprite
/// byte is one row, MSB leftmost. Pixels past an edge wrap to the other
/// side. It reports whether any lit pixel was turned off.
///
func (d *Display) Draw(x, y byte, sprite []byte) bool {
	collision := false

	for row, b := range sprite {
		py := (int(y) + row) % DisplayHeight

		for bit := 0; bit < 8; bit++ {
			if b&(0x80>>bit) == 0 {
				continue
			}

			px := (int(x) + bit) % DisplayWidth

			// a set pixel going out is a collision
			if d.pixels[py][px] {
				collision = true
			}

			d.pixels[py][px] = !d.pixels[py][px]
		}
	}

	d.dirty = true

	return collision
}

/// Pixel reports whether the pixel at (x, y) is lit. Coordinates wrap.
///
func (d *Display) Pixel(x, y int) bool {
	return d.pixels[((y%DisplayHeight)+DisplayHeight)%DisplayHeight][((x%DisplayWidth)+DisplayWidth)%DisplayWidth]
}

/// Pixels returns a snapshot copy of the buffer.
///
func (d *Display) Pixels() [DisplayHeight][DisplayWidth]bool {
	return d.pixels
}

/// Dirty reports whether the buffer changed since ClearDirty.
///
func (d *Display) Dirty() bool {
	return d.dirty
}

/// ClearDirty marks the buffer as rendered.
///
func (d *Display) ClearDirty() {
	d.dirty = false
}
