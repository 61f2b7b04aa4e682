package stats

import (
	"math"

	"github.com/landreg-pipeline/internal/config"
)

// QualityFlags marks whether one aggregate row's sample is trustworthy. The
// flags are derived from the row, they never mutate it.
type QualityFlags struct {
	MedianMeanDiffPct float64
	SufficientSample  bool
	LowVariance       bool
	LowSkew           bool
	Reliable          bool
}

// EvaluateQuality flags a single aggregate row against the configured
// thresholds. A non-positive mean cannot support the ratio metrics, so the
// row is marked unreliable rather than dividing by zero.
func EvaluateQuality(r Row, p config.SampleQualityParams) QualityFlags {
	f := QualityFlags{
		SufficientSample: r.NumTransactions >= int64(p.MinTransactions),
	}

	if r.AvgPrice <= 0 {
		return f
	}

	f.MedianMeanDiffPct = math.Abs(r.AvgPrice-r.MedianPrice) / r.AvgPrice * 100
	f.LowVariance = r.CoefVar <= p.MaxCoefVar
	f.LowSkew = f.MedianMeanDiffPct <= p.MaxMedianMeanDiffPct && r.IQRPct <= p.MaxIQRPct
	f.Reliable = f.SufficientSample && f.LowVariance && f.LowSkew
	return f
}
