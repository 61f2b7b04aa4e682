package stats

import (
	"testing"

	"github.com/landreg-pipeline/internal/config"
)

func TestEvaluateQuality(t *testing.T) {
	params := config.DefaultSampleQualityParams()

	tests := []struct {
		name string
		row  Row
		want QualityFlags
	}{
		{
			name: "reliable group",
			row: Row{
				NumTransactions: 100,
				AvgPrice:        300000,
				MedianPrice:     295000,
				CoefVar:         20,
				IQRPct:          15,
			},
			want: QualityFlags{
				MedianMeanDiffPct: 5.0 / 3,
				SufficientSample:  true,
				LowVariance:       true,
				LowSkew:           true,
				Reliable:          true,
			},
		},
		{
			name: "too few transactions",
			row: Row{
				NumTransactions: 10,
				AvgPrice:        300000,
				MedianPrice:     300000,
				CoefVar:         20,
				IQRPct:          15,
			},
			want: QualityFlags{
				SufficientSample: false,
				LowVariance:      true,
				LowSkew:          true,
				Reliable:         false,
			},
		},
		{
			name: "high variance",
			row: Row{
				NumTransactions: 100,
				AvgPrice:        300000,
				MedianPrice:     300000,
				CoefVar:         80,
				IQRPct:          15,
			},
			want: QualityFlags{
				SufficientSample: true,
				LowVariance:      false,
				LowSkew:          true,
				Reliable:         false,
			},
		},
		{
			name: "skewed by iqr",
			row: Row{
				NumTransactions: 100,
				AvgPrice:        300000,
				MedianPrice:     300000,
				CoefVar:         20,
				IQRPct:          40,
			},
			want: QualityFlags{
				SufficientSample: true,
				LowVariance:      true,
				LowSkew:          false,
				Reliable:         false,
			},
		},
		{
			name: "skewed by median mean gap",
			row: Row{
				NumTransactions: 100,
				AvgPrice:        400000,
				MedianPrice:     300000,
				CoefVar:         20,
				IQRPct:          15,
			},
			want: QualityFlags{
				MedianMeanDiffPct: 25,
				SufficientSample:  true,
				LowVariance:       true,
				LowSkew:           false,
				Reliable:          false,
			},
		},
		{
			name: "zero mean never divides",
			row: Row{
				NumTransactions: 100,
				AvgPrice:        0,
				MedianPrice:     0,
				CoefVar:         0,
				IQRPct:          0,
			},
			want: QualityFlags{
				SufficientSample: true,
				LowVariance:      false,
				LowSkew:          false,
				Reliable:         false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateQuality(tt.row, params)
			if got.SufficientSample != tt.want.SufficientSample {
				t.Errorf("SufficientSample = %v, want %v", got.SufficientSample, tt.want.SufficientSample)
			}
			if got.LowVariance != tt.want.LowVariance {
				t.Errorf("LowVariance = %v, want %v", got.LowVariance, tt.want.LowVariance)
			}
			if got.LowSkew != tt.want.LowSkew {
				t.Errorf("LowSkew = %v, want %v", got.LowSkew, tt.want.LowSkew)
			}
			if got.Reliable != tt.want.Reliable {
				t.Errorf("Reliable = %v, want %v", got.Reliable, tt.want.Reliable)
			}
		})
	}
}

func TestEvaluateQualityMedianMeanDiff(t *testing.T) {
	got := EvaluateQuality(Row{NumTransactions: 50, AvgPrice: 200000, MedianPrice: 180000}, config.DefaultSampleQualityParams())
	if got.MedianMeanDiffPct != 10 {
		t.Errorf("MedianMeanDiffPct = %v, want 10", got.MedianMeanDiffPct)
	}
}
