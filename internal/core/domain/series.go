package domain

import (
	"math"

	apperrors "github.com/aimat-lab/xrdpattern-sub000/internal/pkg/errors"
)

// RawSeries is an angle/intensity series as decoded from a source file.
// X holds two-theta values in degrees, Y the matching intensities.
type RawSeries struct {
	X []float64
	Y []float64
}

// NewRawSeries builds a series and validates it
func NewRawSeries(x, y []float64) (RawSeries, error) {
	s := RawSeries{X: x, Y: y}
	if err := s.Validate(); err != nil {
		return RawSeries{}, err
	}
	return s, nil
}

// Len returns the number of points
func (s RawSeries) Len() int {
	return len(s.X)
}

// Validate checks equal lengths, at least one point, finite values and a
// non-zero intensity somewhere.
func (s RawSeries) Validate() error {
	if len(s.X) != len(s.Y) {
		return apperrors.InvalidSeries("x and y lengths differ").
			WithDetails("x_len", len(s.X)).
			WithDetails("y_len", len(s.Y))
	}
	if len(s.X) == 0 {
		return apperrors.InvalidSeries("series is empty")
	}

	nonZero := false
	for i := range s.X {
		if !isFinite(s.X[i]) || !isFinite(s.Y[i]) {
			return apperrors.InvalidSeries("series contains NaN or Inf").WithDetails("index", i)
		}
		if s.Y[i] != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		return apperrors.InvalidSeries("all intensities are zero")
	}

	return nil
}

// Range returns the smallest and largest x value. Callers must ensure the
// series is non-empty.
func (s RawSeries) Range() (float64, float64) {
	lo, hi := s.X[0], s.X[0]
	for _, x := range s.X[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}

// StandardizedSeries is a RawSeries resampled onto a uniform grid over
// [DomainStart, DomainEnd] with intensities normalized into [0,1].
type StandardizedSeries struct {
	DomainStart float64   `json:"domain_start"`
	DomainEnd   float64   `json:"domain_end"`
	X           []float64 `json:"two_theta_values"`
	Y           []float64 `json:"intensities"`
}

// Len returns the number of grid points
func (s StandardizedSeries) Len() int {
	return len(s.X)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
