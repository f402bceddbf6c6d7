package scene

import (
	"math"

	"critters/internal/genome"
)

const (
	visionDistance = 600.0
	visionAngle    = 0.7 * math.Pi / 2
	scentDistance  = 250.0
)

// sense computes what c perceives and applies touch events. It reports false
// when c touched a danger: the critter is teleported and skips its brain
// update for this step.
func (s *Scene) sense(c *Critter) (genome.Stimuli, bool) {
	var st genome.Stimuli

	// Angles live in (-π, π]. Near ±π the view cone would straddle the
	// discontinuity, so compare in [0, 2π) instead.
	heading := c.angle
	wrapped := false
	if heading > math.Pi/2 {
		wrapped = true
	} else if heading < -math.Pi/2 {
		heading += 2 * math.Pi
		wrapped = true
	}

	bound2 := critterBound * critterBound

	for i := range s.things {
		t := &s.things[i]
		x := t.X - c.x
		y := t.Y - c.y
		d2 := x*x + y*y

		if d2 < bound2 {
			switch t.Kind {
			case KindFood:
				c.food++
				t.X, t.Y = s.randomPosition()
				continue
			case KindDanger:
				c.danger++
				c.place(s.randomPosition())
				return st, false
			}
		}

		if d2 >= visionDistance*visionDistance {
			continue
		}

		target := math.Atan2(-y, x)
		d := math.Sqrt(d2)
		if wrapped && target < 0 {
			target += 2 * math.Pi
		}

		view := heading - target
		if view < visionAngle && view > -visionAngle {
			intensity := (visionDistance - d) / visionDistance
			switch t.Kind {
			case KindFood:
				if intensity > st.FoodIntensity {
					st.FoodIntensity = intensity
					st.FoodAngle = view / visionAngle
				}
			case KindDanger:
				if intensity > st.DangerIntensity {
					st.DangerIntensity = intensity
					st.DangerAngle = view / visionAngle
				}
			}
		}

		if d < scentDistance {
			intensity := (scentDistance - d) / scentDistance
			switch t.Kind {
			case KindFood:
				if intensity > st.FoodOdour {
					st.FoodOdour += intensity
				}
			case KindDanger:
				if intensity > st.DangerOdour {
					st.DangerOdour += intensity
				}
			}
		}
	}

	s.senseWalls(c, &st)
	return st, true
}

// senseWalls looks along the heading for the nearest wall. The wall angle is
// the heading's offset from the wall normal, scaled by π/2.
func (s *Scene) senseWalls(c *Critter, st *genome.Stimuli) {
	a := c.angle

	see := func(distance, angle float64) {
		if distance >= visionDistance {
			return
		}
		intensity := (visionDistance - distance) / visionDistance
		if intensity > st.WallIntensity {
			st.WallIntensity = intensity
			st.WallAngle = angle / (math.Pi / 2)
		}
	}

	switch {
	case a > 0:
		see(c.y/math.Sin(a), a-math.Pi/2)
	case a < 0:
		see((c.y-s.height)/math.Sin(a), a+math.Pi/2)
	}

	switch {
	case a > -math.Pi/2 && a < math.Pi/2:
		see((s.width-c.x)/math.Cos(a), a)
	case a < -math.Pi/2:
		see(-c.x/math.Cos(a), a+math.Pi)
	case a > math.Pi/2:
		see(-c.x/math.Cos(a), a-math.Pi)
	}
}
