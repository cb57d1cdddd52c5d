package paula

import (
	"math"
)

// initFilter builds a low-pass windowed-sinc filter with the cutoff
// at the output Nyquist frequency; scale is an output/chip rate ratio.
//
// The window is cos² over (-1, 1), it spans 2*(FIRWidth-1) taps.
// The table is symmetric around its center.
func initFilter(dst []float32, scale float64) {
	center := len(dst) / 2
	for i := 0; i <= center; i++ {
		x := float64(i)
		w := scale * sinc(x*math.Pi*scale) * window(x/float64(FIRWidth-1))
		dst[center+i] = float32(w)
		dst[center-i] = float32(w)
	}
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(x) / x
}

func window(x float64) float64 {
	if x <= -1 || x >= 1 {
		return 0
	}
	c := math.Cos(x * math.Pi / 2)
	return c * c
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
