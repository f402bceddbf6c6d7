package nn

// Activation limits. Outside (-activationEdge, activationEdge) the curves are
// flat.
const activationEdge = 5.0

// Sigmoid is a piecewise cubic approximation of a logistic curve: 0 below -5,
// 1 above 5 and -0.002t³ + 0.15t + 0.5 in between. Value and slope are
// continuous at both edges.
func Sigmoid(t float64) float64 {
	if t < -activationEdge {
		return 0
	}
	if !(t < activationEdge) {
		return 1
	}
	return (-0.002*t*t+0.15)*t + 0.5
}

// Gaussian is a bell made of two mirrored cubic halves joined at t = 0 where
// it peaks at 1. It is 0 at and beyond ±5.
func Gaussian(t float64) float64 {
	if !(-activationEdge < t && t < activationEdge) {
		return 0
	}
	a := 0.016
	if t < 0 {
		a = -0.016
	}
	return (a*t-0.12)*t*t + 1
}

func ReLU(t float64) float64 {
	if t < 0 {
		return 0
	}
	return t
}

// Sat clamps value to [min, max].
func Sat(value, max, min float64) float64 {
	if value > max {
		return max
	}
	if value < min {
		return min
	}
	return value
}
