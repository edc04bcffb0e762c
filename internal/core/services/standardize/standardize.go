// Package standardize resamples raw angle/intensity series onto a fixed
// uniform grid over a canonical two-theta domain.
package standardize

import (
	"fmt"
	"math"
	"sort"

	"github.com/aimat-lab/xrdpattern-sub000/internal/core/domain"
	apperrors "github.com/aimat-lab/xrdpattern-sub000/internal/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

// Options define the target grid and the padding policy
type Options struct {
	DomainStart float64
	DomainEnd   float64
	PointCount  int

	// ConstantPadding holds the boundary intensity outside the observed
	// range; otherwise those grid points are zero.
	ConstantPadding bool
}

// DefaultOptions returns the 0-90 degree, 1000 point grid
func DefaultOptions() Options {
	return Options{
		DomainStart: 0,
		DomainEnd:   90,
		PointCount:  1000,
	}
}

// Validate checks the grid definition
func (o Options) Validate() error {
	if math.IsNaN(o.DomainStart) || math.IsNaN(o.DomainEnd) ||
		math.IsInf(o.DomainStart, 0) || math.IsInf(o.DomainEnd, 0) {
		return fmt.Errorf("domain bounds must be finite")
	}
	if o.DomainEnd <= o.DomainStart {
		return fmt.Errorf("domain end %g must exceed start %g", o.DomainEnd, o.DomainStart)
	}
	if o.PointCount < 2 {
		return fmt.Errorf("point count %d must be at least 2", o.PointCount)
	}
	return nil
}

// Grid returns the PointCount uniformly spaced points over the domain,
// both ends included
func (o Options) Grid() []float64 {
	grid := make([]float64, o.PointCount)
	floats.Span(grid, o.DomainStart, o.DomainEnd)
	return grid
}

// Standardize resamples series onto the grid described by opts. The input
// is sorted and deduplicated, baseline-corrected and fitted with a natural
// cubic spline; the result is normalized into [0,1].
func Standardize(series domain.RawSeries, opts Options) (domain.StandardizedSeries, error) {
	if err := opts.Validate(); err != nil {
		return domain.StandardizedSeries{}, apperrors.Wrap(err, apperrors.ErrCodeInvalidSeries, "invalid standardization options")
	}
	if err := series.Validate(); err != nil {
		return domain.StandardizedSeries{}, err
	}

	xs, ys := sortUnique(series.X, series.Y)
	baseline := floats.Min(ys)
	floats.AddConst(-baseline, ys)

	grid := opts.Grid()
	values := make([]float64, len(grid))

	var predict func(float64) float64
	if len(xs) == 1 {
		predict = func(float64) float64 { return ys[0] }
	} else {
		var spline interp.NaturalCubic
		if err := spline.Fit(xs, ys); err != nil {
			return domain.StandardizedSeries{}, apperrors.Wrap(err, apperrors.ErrCodeInvalidSeries, "spline fit failed")
		}
		predict = spline.Predict
	}

	lo, hi := xs[0], xs[len(xs)-1]
	for i, x := range grid {
		switch {
		case x < lo:
			values[i] = pad(ys[0], opts.ConstantPadding)
		case x > hi:
			values[i] = pad(ys[len(ys)-1], opts.ConstantPadding)
		default:
			// Spline overshoot below the baseline is clipped so that zero
			// padding stays the minimum after normalization.
			values[i] = math.Max(predict(x), 0)
		}
	}

	normalize(values)

	return domain.StandardizedSeries{
		DomainStart: opts.DomainStart,
		DomainEnd:   opts.DomainEnd,
		X:           grid,
		Y:           values,
	}, nil
}

func pad(boundary float64, constant bool) float64 {
	if constant {
		return boundary
	}
	return 0
}

// normalize shifts values to a zero minimum and scales the maximum to one.
// An all-zero result stays zero.
func normalize(values []float64) {
	floats.AddConst(-floats.Min(values), values)
	peak := floats.Max(values)
	if peak == 0 {
		peak = 1
	}
	floats.Scale(1/peak, values)
}

// sortUnique returns copies of x and y sorted by x with repeated x values
// removed, keeping the first occurrence in input order
func sortUnique(x, y []float64) ([]float64, []float64) {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return x[idx[a]] < x[idx[b]]
	})

	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for _, i := range idx {
		if len(xs) > 0 && x[i] == xs[len(xs)-1] {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}

// Standardizer applies a fixed set of options to many records
type Standardizer struct {
	opts Options
}

// NewStandardizer validates opts once
func NewStandardizer(opts Options) (*Standardizer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Standardizer{opts: opts}, nil
}

// Options returns the configured grid
func (s *Standardizer) Options() Options {
	return s.opts
}

// Record standardizes the series of a parsed record
func (s *Standardizer) Record(record domain.ParsedRecord) (domain.StandardizedSeries, error) {
	return Standardize(record.Series, s.opts)
}
