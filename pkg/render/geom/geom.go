// Package geom computes vertex and texture coordinate buffers
// for drawing a video frame quad into an output surface.
package geom

type ScaleType int

const (
	// ScaleFit shows the whole frame, aspect preserved, centered.
	ScaleFit ScaleType = iota
	// ScaleCrop fills the surface, aspect preserved, edges cut.
	ScaleCrop
	// ScaleStretch fills the surface ignoring the aspect ratio.
	ScaleStretch
)

type Rotation int

const (
	Rot0 Rotation = iota
	Rot90
	Rot180
	Rot270
)

// ParseScale maps a config string to a scale type, fit by default.
func ParseScale(s string) ScaleType {
	switch s {
	case "crop":
		return ScaleCrop
	case "stretch":
		return ScaleStretch
	default:
		return ScaleFit
	}
}

// ParseRotation maps degrees to a rotation, 0 for unknown values.
func ParseRotation(deg uint) Rotation {
	switch deg {
	case 90:
		return Rot90
	case 180:
		return Rot180
	case 270:
		return Rot270
	default:
		return Rot0
	}
}

// unit quad as a triangle strip
var cube = [8]float32{
	-1, -1,
	1, -1,
	-1, 1,
	1, 1,
}

// texture coordinates per rotation, Y pointing down
var texCoords = [4][8]float32{
	Rot0:   {0, 1, 1, 1, 0, 0, 1, 0},
	Rot90:  {1, 1, 1, 0, 0, 1, 0, 0},
	Rot180: {1, 0, 0, 0, 1, 1, 0, 1},
	Rot270: {0, 0, 0, 1, 1, 0, 1, 1},
}

// Calc produces position and texture coordinate buffers for drawing
// an inW x inH frame into an outW x outH surface. It is pure and
// deterministic. Degenerate sizes produce a zero-area position buffer;
// callers are expected to guard against zero dimensions beforehand.
func Calc(scale ScaleType, rot Rotation, flipV bool, inW, inH, outW, outH int) (pos, tex [8]float32) {
	tex = texCoords[rot]
	if flipV {
		for i := 1; i < 8; i += 2 {
			tex[i] = 1 - tex[i]
		}
	}

	// a quarter-turn swaps the effective frame sides
	if rot == Rot90 || rot == Rot270 {
		inW, inH = inH, inW
	}

	if inW <= 0 || inH <= 0 || outW <= 0 || outH <= 0 {
		return [8]float32{}, tex
	}

	pos = cube
	rw := float32(outW) / float32(inW)
	rh := float32(outH) / float32(inH)

	switch scale {
	case ScaleStretch:
		// unit quad as is
	case ScaleCrop:
		r := rw
		if rh > r {
			r = rh
		}
		// visible fraction of the frame on each axis
		fw := float32(outW) / (float32(inW) * r)
		fh := float32(outH) / (float32(inH) * r)
		dx, dy := (1-fw)/2, (1-fh)/2
		for i := 0; i < 8; i += 2 {
			tex[i] = inset(tex[i], dx)
			tex[i+1] = inset(tex[i+1], dy)
		}
	default: // ScaleFit
		r := rw
		if rh < r {
			r = rh
		}
		sw := float32(inW) * r / float32(outW)
		sh := float32(inH) * r / float32(outH)
		for i := 0; i < 8; i += 2 {
			pos[i] *= sw
			pos[i+1] *= sh
		}
	}
	return pos, tex
}

// inset moves an edge texture coordinate towards the center by d.
func inset(coord, d float32) float32 {
	if coord < 0.5 {
		return coord + d
	}
	return coord - d
}

// Cache keeps the last computed buffers together with the
// (input size, output size) pair they were derived from.
// Buffers are recomputed only when one of the sizes changes,
// and the backing arrays are never reallocated.
type Cache struct {
	scale ScaleType
	rot   Rotation
	flipV bool

	inW, inH   int
	outW, outH int
	pos, tex   [8]float32
	has        bool
}

func NewCache(scale ScaleType, rot Rotation, flipV bool) *Cache {
	return &Cache{scale: scale, rot: rot, flipV: flipV}
}

// Buffers returns position and texture coordinates for the given sizes,
// recomputing them only if the sizes differ from the cached pair.
// The returned slices alias the cache and are valid until the next call.
func (c *Cache) Buffers(inW, inH, outW, outH int) (pos, tex []float32, updated bool) {
	if !c.has || inW != c.inW || inH != c.inH || outW != c.outW || outH != c.outH {
		c.pos, c.tex = Calc(c.scale, c.rot, c.flipV, inW, inH, outW, outH)
		c.inW, c.inH, c.outW, c.outH = inW, inH, outW, outH
		c.has = true
		updated = true
	}
	return c.pos[:], c.tex[:], updated
}
