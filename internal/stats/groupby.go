package stats

import (
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/landreg-pipeline/internal/dataset"
)

// Granularity names the geographic grouping column.
type Granularity string

const (
	ByArea     Granularity = "postcode_area"
	ByDistrict Granularity = "postcode_district"
	BySector   Granularity = "postcode_sector"
)

// Granularities in nesting order, coarsest first.
var Granularities = []Granularity{ByArea, ByDistrict, BySector}

func (g Granularity) valueOf(t dataset.Transaction) string {
	switch g {
	case ByArea:
		return t.PostcodeArea
	case ByDistrict:
		return t.PostcodeDistrict
	case BySector:
		return t.PostcodeSector
	}
	return ""
}

// Key identifies one statistics group: a geography value plus the shared
// grouping columns.
type Key struct {
	Geo          string
	IsLondon     string
	PropertyType string
	Year         int
}

func keyLess(a, b Key) bool {
	if a.Geo != b.Geo {
		return a.Geo < b.Geo
	}
	if a.IsLondon != b.IsLondon {
		return a.IsLondon < b.IsLondon
	}
	if a.PropertyType != b.PropertyType {
		return a.PropertyType < b.PropertyType
	}
	return a.Year < b.Year
}

// partial is the associative, commutative per-partition aggregate. Partials
// from different partitions merge without revisiting rows, so the final
// statistics are independent of how the input was split.
type partial struct {
	count  int64
	sum    float64
	sumSq  float64
	prices []float64
}

func (p *partial) add(price float64) {
	p.count++
	p.sum += price
	p.sumSq += price * price
	p.prices = append(p.prices, price)
}

func (p *partial) merge(o *partial) {
	p.count += o.count
	p.sum += o.sum
	p.sumSq += o.sumSq
	p.prices = append(p.prices, o.prices...)
}

// Row is one aggregate per unique grouping-column combination. Every emitted
// row has NumTransactions >= 1; empty groups never materialize.
type Row struct {
	Key
	Granularity     Granularity
	NumTransactions int64
	AvgPrice        float64
	MedianPrice     float64
	Percentiles     map[float64]float64
	CoefVar         float64
	IQRPct          float64
}

// percentile computes the pth percentile of sorted using linear interpolation
// between closest ranks. The same scheme is applied at every granularity.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo < 0 {
		lo = 0
	}
	if hi >= n {
		hi = n - 1
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func finalize(k Key, gran Granularity, p *partial, extraPercentiles []float64) Row {
	sort.Float64s(p.prices)

	n := float64(p.count)
	mean := p.sum / n

	// Sample standard deviation (n-1 divisor).
	var stddev float64
	if p.count > 1 {
		variance := (p.sumSq - p.sum*p.sum/n) / (n - 1)
		if variance > 0 {
			stddev = math.Sqrt(variance)
		}
	}

	pcts := map[float64]float64{}
	for _, q := range []float64{25, 50, 75} {
		pcts[q] = percentile(p.prices, q)
	}
	for _, q := range extraPercentiles {
		pcts[q] = percentile(p.prices, q)
	}

	row := Row{
		Key:             k,
		Granularity:     gran,
		NumTransactions: p.count,
		AvgPrice:        mean,
		MedianPrice:     pcts[50],
		Percentiles:     pcts,
	}
	if mean != 0 {
		row.CoefVar = stddev / mean * 100
	}
	if row.MedianPrice != 0 {
		row.IQRPct = (pcts[75] - pcts[25]) / row.MedianPrice * 100
	}
	return row
}

// GroupBy aggregates transactions at the given geographic granularity,
// grouped additionally by {is_london, property_type, year}. Each worker
// partition builds its own partials, which are then merged and finalized.
// Output rows are sorted by key, so the result is deterministic under any
// row ordering or partitioning of the input.
func GroupBy(txs []dataset.Transaction, gran Granularity, extraPercentiles []float64, partitions int) []Row {
	if partitions < 1 {
		partitions = 1
	}
	chunk := (len(txs) + partitions - 1) / partitions
	if chunk == 0 {
		return nil
	}

	parts := make([]map[Key]*partial, partitions)
	var g errgroup.Group
	for i := 0; i < partitions; i++ {
		i := i
		lo := i * chunk
		hi := lo + chunk
		if lo > len(txs) {
			lo = len(txs)
		}
		if hi > len(txs) {
			hi = len(txs)
		}
		g.Go(func() error {
			m := map[Key]*partial{}
			for _, t := range txs[lo:hi] {
				k := Key{
					Geo:          gran.valueOf(t),
					IsLondon:     t.IsLondon,
					PropertyType: t.PropertyType,
					Year:         t.Year,
				}
				p := m[k]
				if p == nil {
					p = &partial{}
					m[k] = p
				}
				p.add(t.Price)
			}
			parts[i] = m
			return nil
		})
	}
	g.Wait()

	merged := map[Key]*partial{}
	for _, m := range parts {
		for k, p := range m {
			if q, ok := merged[k]; ok {
				q.merge(p)
			} else {
				merged[k] = p
			}
		}
	}

	rows := make([]Row, 0, len(merged))
	for k, p := range merged {
		rows = append(rows, finalize(k, gran, p, extraPercentiles))
	}
	sort.Slice(rows, func(i, j int) bool { return keyLess(rows[i].Key, rows[j].Key) })
	return rows
}
