package scene

import "math"

// bouncer moves a thing diagonally and reflects it off the arena walls.
type bouncer struct {
	step  float64
	east  bool
	south bool
}

// newBouncer derives the starting diagonal from the two low bits of dir.
func newBouncer(speed float64, dir int) bouncer {
	return bouncer{
		step:  speed / math.Sqrt2,
		east:  dir&1 == 0,
		south: (dir>>1)&1 == 0,
	}
}

func (b *bouncer) move(x, y, delta, w, h float64) (float64, float64) {
	ds := delta * b.step

	if b.east {
		x += ds
	} else {
		x -= ds
	}
	if b.south {
		y += ds
	} else {
		y -= ds
	}

	if x >= w {
		x = w - 1
		b.east = false
	} else if x < 0 {
		x = 0
		b.east = true
	}
	if y >= h {
		y = h - 1
		b.south = false
	} else if y < 0 {
		y = 0
		b.south = true
	}
	return x, y
}
