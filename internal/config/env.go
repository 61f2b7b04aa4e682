package config

import (
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadEnv loads environment variables from the nearest .env file. Variables
// already present in the environment win.
func LoadEnv() {
	for _, path := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(path); err == nil {
			break
		}
	}
}

// GetEnv gets environment variable with default
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt gets integer environment variable with default
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvFloat gets float environment variable with default
func GetEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// SampleQualityParams holds the thresholds used to decide whether a grouped
// price sample is reliable.
type SampleQualityParams struct {
	MinTransactions      int
	MaxCoefVar           float64
	MaxMedianMeanDiffPct float64
	MaxIQRPct            float64
}

// DefaultSampleQualityParams returns the standard thresholds. 30 is the usual
// minimum sample size under the Central Limit Theorem rule of thumb.
func DefaultSampleQualityParams() SampleQualityParams {
	return SampleQualityParams{
		MinTransactions:      30,
		MaxCoefVar:           50,
		MaxMedianMeanDiffPct: 10,
		MaxIQRPct:            25,
	}
}

// QualityParamsFromEnv reads the sample quality thresholds from the
// environment, falling back to the defaults.
func QualityParamsFromEnv() SampleQualityParams {
	d := DefaultSampleQualityParams()
	return SampleQualityParams{
		MinTransactions:      GetEnvInt("LR_MIN_TRANSACTIONS", d.MinTransactions),
		MaxCoefVar:           GetEnvFloat("LR_MAX_COEF_VAR", d.MaxCoefVar),
		MaxMedianMeanDiffPct: GetEnvFloat("LR_MAX_MEDIAN_MEAN_DIFF_PCT", d.MaxMedianMeanDiffPct),
		MaxIQRPct:            GetEnvFloat("LR_MAX_IQR_PCT", d.MaxIQRPct),
	}
}

// CurrentYear returns the year the final merged snapshot is filtered to.
func CurrentYear() int {
	return GetEnvInt("LR_CURRENT_YEAR", 2023)
}

// Partitions returns the number of worker partitions for the grouped
// statistics stage.
func Partitions() int {
	return GetEnvInt("LR_PARTITIONS", runtime.NumCPU())
}
