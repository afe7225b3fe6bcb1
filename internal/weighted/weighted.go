package weighted

import (
	"errors"
	"slices"
)

var (
	// ErrZeroWeight is returned when the rows being averaged carry no weight.
	ErrZeroWeight = errors.New("weighted: total weight is zero")
	// ErrZeroTotal is returned when a Gini is requested over rows whose
	// weighted values sum to zero.
	ErrZeroTotal = errors.New("weighted: weighted value total is zero")
)

// Field extracts a float64 from a row.
type Field[T any] func(T) float64

// Sum returns Σ(value × weight) over rows. NaN weights propagate.
func Sum[T any](rows []T, value, weight Field[T]) float64 {
	var total float64
	for _, r := range rows {
		total += value(r) * weight(r)
	}
	return total
}

// SumBy returns Σ(value × weight) per key.
func SumBy[T any, K comparable](rows []T, key func(T) K, value, weight Field[T]) map[K]float64 {
	out := make(map[K]float64)
	for _, r := range rows {
		out[key(r)] += value(r) * weight(r)
	}
	return out
}

// Sums computes Sum for several columns in one pass. The result is
// indexed like values.
func Sums[T any](rows []T, values []Field[T], weight Field[T]) []float64 {
	out := make([]float64, len(values))
	for _, r := range rows {
		w := weight(r)
		for i, v := range values {
			out[i] += v(r) * w
		}
	}
	return out
}

// Mean returns Σ(value × weight) / Σ(weight).
func Mean[T any](rows []T, value, weight Field[T]) (float64, error) {
	var num, den float64
	for _, r := range rows {
		w := weight(r)
		num += value(r) * w
		den += w
	}
	if den == 0 {
		return 0, ErrZeroWeight
	}
	return num / den, nil
}

// Gini returns the weighted Gini coefficient of value. Rows are ordered by
// value ascending with a stable sort, and the coefficient is
//
//	Σᵢ (Cxᵢ·Cwᵢ₋₁ − Cxᵢ₋₁·Cwᵢ) / (Cxₙ·Cwₙ)
//
// where Cw and Cx are the running sums of weight and weight × value. A
// single row, or rows with one common value, yield 0.
func Gini[T any](rows []T, value, weight Field[T]) (float64, error) {
	if len(rows) == 0 {
		return 0, ErrZeroWeight
	}

	type point struct{ x, w float64 }
	pts := make([]point, len(rows))
	for i, r := range rows {
		pts[i] = point{x: value(r), w: weight(r)}
	}
	slices.SortStableFunc(pts, func(a, b point) int {
		switch {
		case a.x < b.x:
			return -1
		case a.x > b.x:
			return 1
		}
		return 0
	})

	var cumW, cumXW, num float64
	for i, p := range pts {
		prevW, prevXW := cumW, cumXW
		cumW += p.w
		cumXW += p.x * p.w
		if i > 0 {
			num += cumXW*prevW - prevXW*cumW
		}
	}
	if cumW == 0 {
		return 0, ErrZeroWeight
	}
	if cumXW == 0 {
		return 0, ErrZeroTotal
	}
	return num / (cumXW * cumW), nil
}

// GiniBy computes Gini separately for each key.
func GiniBy[T any, K comparable](rows []T, key func(T) K, value, weight Field[T]) (map[K]float64, error) {
	groups := make(map[K][]T)
	for _, r := range rows {
		k := key(r)
		groups[k] = append(groups[k], r)
	}
	out := make(map[K]float64, len(groups))
	for k, g := range groups {
		v, err := Gini(g, value, weight)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}
