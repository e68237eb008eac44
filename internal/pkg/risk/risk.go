package risk

import (
	"errors"
	"math"

	"github.com/compound-health-monitor/internal/domain"
	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
)

// ErrZeroMean is returned when a price series averages to zero, which would
// make the coefficient of variation undefined.
var ErrZeroMean = errors.New("price series mean is zero")

// Volatility returns the coefficient of variation (standard deviation divided
// by mean) of a price series. The caller must guard against empty input; an
// empty series is an error, a constant positive series yields 0.
func Volatility(prices []float64) (float64, error) {
	mean, err := stats.Mean(prices)
	if err != nil {
		return 0, err
	}
	if mean == 0 {
		return 0, ErrZeroMean
	}
	sd, err := stats.StandardDeviation(prices)
	if err != nil {
		return 0, err
	}
	return sd / mean, nil
}

// HealthFactor normalizes Comptroller liquidity figures into [0, 1]:
// liquidity / (liquidity + shortfall), rounded to 2 decimal places.
// Zero liquidity maps to 0 whether the account is underwater or simply has
// no data; the upstream source does not distinguish the two.
func HealthFactor(liquidity, shortfall float64) float64 {
	if liquidity <= 0 {
		return 0
	}
	return math.Round(liquidity/(liquidity+shortfall)*100) / 100
}

// BorrowValue sums per-instrument borrow balances into a single aggregate.
// Balances are expected to be scaled to a common decimal representation
// already (see the compound client).
func BorrowValue(borrows []domain.InstrumentBorrow) decimal.Decimal {
	total := decimal.Zero
	for _, b := range borrows {
		total = total.Add(b.Balance)
	}
	return total
}

// PredictNext fits an ordinary least-squares line through the samples
// (x = sequence index) and extrapolates one step past the end. The forecast
// is currently logged only; it is an extension point, not an alerting input.
func PredictNext(samples []float64) (float64, error) {
	switch len(samples) {
	case 0:
		return 0, stats.EmptyInputErr
	case 1:
		return samples[0], nil
	}
	coords := make(stats.Series, len(samples))
	for i, v := range samples {
		coords[i] = stats.Coordinate{X: float64(i), Y: v}
	}
	fitted, err := stats.LinearRegression(coords)
	if err != nil {
		return 0, err
	}
	first, last := fitted[0], fitted[len(fitted)-1]
	slope := (last.Y - first.Y) / (last.X - first.X)
	return last.Y + slope, nil
}
