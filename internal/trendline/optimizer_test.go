package trendline

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendSentinel/internal/model"
)

func randomWalk(seed uint64, n int) []float64 {
	r := rand.New(rand.NewPCG(seed, seed*31+7))
	y := make([]float64, n)
	v := 100.0
	for i := range y {
		v += r.NormFloat64()
		y[i] = v
	}
	return y
}

func TestSlopeUnit(t *testing.T) {
	// (max - min) / n, not max - min/n.
	assert.InDelta(t, 0.8, SlopeUnit([]float64{1, 3, 2, 5, 4}), 1e-12)
	assert.InDelta(t, 0.0, SlopeUnit([]float64{5, 5, 5}), 1e-12)
	assert.Equal(t, 0.0, SlopeUnit(nil))
}

func TestOptimize_LinearSeries(t *testing.T) {
	y := []float64{1, 2, 3, 4, 5}

	for _, support := range []bool{true, false} {
		res, err := Optimize(support, 0, 1.0, y)
		require.NoError(t, err)
		assert.Equal(t, model.FitOK, res.Status)
		assert.InDelta(t, 1.0, res.Slope, 1e-9)
		assert.InDelta(t, 1.0, res.Intercept, 1e-9)
		assert.InDelta(t, 0.0, res.SquaredError, 1e-12)
	}
}

func TestOptimize_DegenerateStart(t *testing.T) {
	flat := []float64{5, 5, 5, 5, 5}

	res, err := Optimize(true, 2, 1000, flat)
	require.NoError(t, err)
	assert.Equal(t, model.FitDegenerate, res.Status)
	assert.True(t, res.Degenerate())
	assert.Equal(t, 1000.0, res.Slope)
	assert.Equal(t, 5.0-1000.0*2, res.Intercept)
	assert.Equal(t, 0, res.Accepted)

	res, err = Optimize(false, 2, 1000, flat)
	require.NoError(t, err)
	assert.Equal(t, model.FitDegenerate, res.Status)
	assert.Equal(t, 1000.0, res.Slope)

	// Infeasible start on a varied series: moves exist but none is ever accepted.
	y := randomWalk(3, 40)
	res, err = Optimize(true, 0, 50, y)
	require.NoError(t, err)
	assert.Equal(t, model.FitDegenerate, res.Status)
	assert.Equal(t, 50.0, res.Slope)
}

func TestOptimize_InvalidInput(t *testing.T) {
	_, err := Optimize(true, 0, 0, nil)
	assert.ErrorIs(t, err, ErrEmptySeries)

	_, err = Optimize(true, 5, 0, []float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrPivotOutOfRange)

	_, err = Optimize(false, -1, 0, []float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrPivotOutOfRange)
}

func TestOptimize_ErrorNeverIncreases(t *testing.T) {
	y := randomWalk(11, 60)
	pair, err := Fit(y)
	require.NoError(t, err)

	for _, tc := range []struct {
		support bool
		pivot   int
	}{{true, pair.Support.Pivot}, {false, pair.Resistance.Pivot}} {
		var steps []model.OptimizerStep
		opt := NewOptimizer(DefaultParams())
		opt.Trace = func(s model.OptimizerStep) { steps = append(steps, s) }

		res, err := opt.Optimize(tc.support, tc.pivot, pair.BaseSlope, y)
		require.NoError(t, err)
		require.NotEmpty(t, steps)

		prev, _ := CheckLine(tc.support, tc.pivot, pair.BaseSlope, y)
		for _, s := range steps {
			assert.LessOrEqual(t, s.BestErr, prev)
			if s.Accepted {
				assert.True(t, s.Feasible)
				assert.Less(t, s.Error, prev)
			}
			prev = s.BestErr
		}
		assert.Equal(t, prev, res.SquaredError)
	}
}

func TestOptimize_PreservesFeasibility(t *testing.T) {
	for seed := uint64(1); seed <= 25; seed++ {
		y := randomWalk(seed, 30)
		pair, err := Fit(y)
		require.NoError(t, err)

		for _, res := range []model.FitResult{pair.Support, pair.Resistance} {
			assert.Equal(t, model.FitOK, res.Status, "seed %d", seed)
		}
		_, ok := CheckLine(true, pair.Support.Pivot, pair.Support.Slope, y)
		assert.True(t, ok, "support seed %d", seed)
		_, ok = CheckLine(false, pair.Resistance.Pivot, pair.Resistance.Slope, y)
		assert.True(t, ok, "resistance seed %d", seed)

		for i, v := range y {
			assert.LessOrEqual(t, pair.Support.ValueAt(i)-v, DefaultTolerance, "seed %d index %d", seed, i)
			assert.GreaterOrEqual(t, pair.Resistance.ValueAt(i)-v, -DefaultTolerance, "seed %d index %d", seed, i)
		}
	}
}

func TestOptimize_FixedPoint(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		y := randomWalk(seed, 45)
		pair, err := Fit(y)
		require.NoError(t, err)

		for _, first := range []struct {
			support bool
			res     model.FitResult
		}{{true, pair.Support}, {false, pair.Resistance}} {
			again, err := Optimize(first.support, first.res.Pivot, first.res.Slope, y)
			require.NoError(t, err)
			assert.Equal(t, model.FitOK, again.Status)
			assert.GreaterOrEqual(t, again.SquaredError, first.res.SquaredError-1e-9, "seed %d", seed)
			assert.InDelta(t, first.res.Slope, again.Slope, SlopeUnit(y)*1e-3, "seed %d", seed)
		}
	}
}

func TestOptimize_Terminates(t *testing.T) {
	y := randomWalk(5, 100)
	pair, err := Fit(y)
	require.NoError(t, err)

	// Step halves from 1.0 to below 1e-4: exactly 14 rejections.
	for _, res := range []model.FitResult{pair.Support, pair.Resistance} {
		assert.Equal(t, 14, res.Iterations-res.Accepted)
	}

	res, err := Optimize(true, 2, 1000, []float64{5, 5, 5, 5, 5})
	require.NoError(t, err)
	assert.Equal(t, 14, res.Iterations)
}
