package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/landreg-pipeline/internal/postcode"
)

// Transaction is one land registry price-paid record. The postcode-derived
// fields are filled in by Decorate and never mutated afterwards.
type Transaction struct {
	Postcode     string
	DateTransfer time.Time
	Price        float64
	PropertyType string

	PostcodeArea     string
	PostcodeDistrict string
	PostcodeSector   string
	IsLondon         string
	Year             int
}

// ReadStats counts what happened to the raw rows during a read.
type ReadStats struct {
	Read            int
	MissingPostcode int
	BadRows         int
}

var dateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"2/1/2006",
}

func parseDate(s string) (time.Time, error) {
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// ReadTransactions reads a transactions CSV with at least the columns
// postcode, date_transfer, price and property_type, located by header name.
// Rows with an empty postcode are excluded before decomposition; rows with an
// unparseable price or date are counted and skipped, never fatal.
func ReadTransactions(path string) ([]Transaction, ReadStats, error) {
	var stats ReadStats

	file, err := os.Open(path)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	header, err := reader.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"postcode", "date_transfer", "price", "property_type"} {
		if _, ok := cols[required]; !ok {
			return nil, stats, fmt.Errorf("transactions CSV missing column %q", required)
		}
	}

	var txs []Transaction
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Printf("Error reading CSV record: %v\n", err)
			stats.BadRows++
			continue
		}
		stats.Read++

		pc := strings.TrimSpace(record[cols["postcode"]])
		if pc == "" {
			stats.MissingPostcode++
			continue
		}

		price, err := strconv.ParseFloat(record[cols["price"]], 64)
		if err != nil {
			stats.BadRows++
			continue
		}
		date, err := parseDate(record[cols["date_transfer"]])
		if err != nil {
			stats.BadRows++
			continue
		}

		txs = append(txs, Transaction{
			Postcode:     pc,
			DateTransfer: date,
			Price:        price,
			PropertyType: strings.TrimSpace(record[cols["property_type"]]),
		})

		if stats.Read%100000 == 0 {
			fmt.Printf("Read %d transactions...\n", stats.Read)
		}
	}

	return txs, stats, nil
}

// Decorate splits each transaction's postcode into area/district/sector,
// classifies it against Greater London and derives the transfer year. The
// work is row-independent, so it fans out across worker partitions. Records
// with a malformed postcode are dropped; the count of drops is returned.
func Decorate(txs []Transaction, partitions int) ([]Transaction, int) {
	if partitions < 1 {
		partitions = 1
	}
	chunk := (len(txs) + partitions - 1) / partitions
	if chunk == 0 {
		return nil, 0
	}

	kept := make([][]Transaction, partitions)
	dropped := make([]int, partitions)

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
			out := make([]Transaction, 0, hi-lo)
			for _, t := range txs[lo:hi] {
				parts, err := postcode.Split(t.Postcode)
				if err != nil {
					dropped[i]++
					continue
				}
				t.PostcodeArea = parts.Area
				t.PostcodeDistrict = parts.District
				t.PostcodeSector = parts.Sector
				t.IsLondon = postcode.ClassifyLondon(parts.Area, parts.District)
				t.Year = t.DateTransfer.Year()
				out = append(out, t)
			}
			kept[i] = out
			return nil
		})
	}
	g.Wait()

	var decorated []Transaction
	malformed := 0
	for i := 0; i < partitions; i++ {
		decorated = append(decorated, kept[i]...)
		malformed += dropped[i]
	}
	return decorated, malformed
}
