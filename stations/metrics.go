package stations

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Metrics summarizes how well a simulated series reproduces an observed one.
type Metrics struct {
	N int `json:"n"`

	Bias        float64 `json:"bias"`
	MAE         float64 `json:"mae"`
	RMSE        float64 `json:"rmse"`
	PercentRMSE float64 `json:"percent_rmse"` // RMSE over the observed range
	StdResidual float64 `json:"std_residual"`

	Correlation   float64 `json:"correlation"`
	R2            float64 `json:"r2"`
	NashSutcliffe float64 `json:"nash_sutcliffe"`
	ScatterIndex  float64 `json:"scatter_index"`
	Lambda        float64 `json:"lambda"`
}

// Compute derives the skill metrics for paired observed/simulated samples.
// Pairs where either side is NaN are dropped; at least two valid pairs are
// required.
func Compute(obs, sim []float64) (Metrics, error) {
	if len(obs) != len(sim) {
		return Metrics{}, fmt.Errorf("metrics: %d observed samples for %d simulated", len(obs), len(sim))
	}

	var o, s []float64
	for i := range obs {
		if math.IsNaN(obs[i]) || math.IsNaN(sim[i]) {
			continue
		}
		o = append(o, obs[i])
		s = append(s, sim[i])
	}
	n := len(o)
	if n < 2 {
		return Metrics{}, fmt.Errorf("metrics: need at least 2 valid pairs, got %d", n)
	}

	residuals := make([]float64, n)
	for i := range o {
		residuals[i] = s[i] - o[i]
	}

	var sumAbs, sumSq float64
	for _, r := range residuals {
		sumAbs += math.Abs(r)
		sumSq += r * r
	}

	meanObs := stat.Mean(o, nil)
	meanSim := stat.Mean(s, nil)
	rmse := math.Sqrt(sumSq / float64(n))
	corr := stat.Correlation(o, s, nil)

	m := Metrics{
		N:           n,
		Bias:        meanSim - meanObs,
		MAE:         sumAbs / float64(n),
		RMSE:        rmse,
		StdResidual: stat.StdDev(residuals, nil),
		Correlation: corr,
		R2:          corr * corr,
	}

	obsRange := floats.Max(o) - floats.Min(o)
	if obsRange > 0 {
		m.PercentRMSE = 100 * rmse / obsRange
	}
	if meanObs != 0 {
		m.ScatterIndex = rmse / math.Abs(meanObs)
	}

	var ssObs, ssSim float64
	for i := range o {
		ssObs += (o[i] - meanObs) * (o[i] - meanObs)
		ssSim += (s[i] - meanSim) * (s[i] - meanSim)
	}
	if ssObs > 0 {
		m.NashSutcliffe = 1 - sumSq/ssObs
	}

	// Duveiller's lambda index of agreement.
	var cross float64
	for i := range o {
		cross += (o[i] - meanObs) * (s[i] - meanSim)
	}
	kappa := 0.0
	if cross < 0 {
		kappa = 2 * math.Abs(cross)
	}
	denom := ssObs + ssSim + float64(n)*(meanObs-meanSim)*(meanObs-meanSim) + kappa
	if denom > 0 {
		m.Lambda = 1 - sumSq/denom
	}
	return m, nil
}
