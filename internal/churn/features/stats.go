package features

import "math"

func mean(x []float64) float64 {
	n := len(x)
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	return sum / float64(n)
}

// sampleStd computes the ddof=1 standard deviation. For fewer than two
// samples the statistic is undefined and nil is returned, never zero.
func sampleStd(x []float64) *float64 {
	n := len(x)
	if n < 2 {
		return nil
	}
	m := mean(x)
	sumSq := 0.0
	for _, v := range x {
		d := v - m
		sumSq += d * d
	}
	std := math.Sqrt(sumSq / float64(n-1))
	return &std
}

func maxOf(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	m := x[0]
	for _, v := range x[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func column[T any](rows []T, f func(T) float64) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = f(r)
	}
	return out
}
