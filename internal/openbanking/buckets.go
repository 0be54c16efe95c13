package openbanking

import (
	"github.com/obrdata/openbankingbr/internal/fields"
)

// FeeBuckets is the regulatory four-bucket fee/rate distribution.
//
// Central Bank Normative 32/2020 requires fee distributions to be published
// over four fixed buckets, each with a median rate and the share of
// customers charged within that bucket. Index i holds bucket i+1.
type FeeBuckets struct {
	Rates     [4]*float64
	Customers [4]*float64
}

// bucketIntervals maps the interval labels used on the wire to bucket
// indices. Entries with any other label are ignored.
var bucketIntervals = map[string]int{
	"1_FAIXA": 0,
	"2_FAIXA": 1,
	"3_FAIXA": 2,
	"4_FAIXA": 3,
}

// decodeBuckets fills a FeeBuckets from a list of interval-tagged entries.
// ratePath selects where the rate lives on each entry: "value" for service
// and bundle prices, "indexer.rate" for interest applications.
func decodeBuckets(entries []any, ratePath string) FeeBuckets {
	var b FeeBuckets
	for _, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}

		interval, ok := fields.String(entry, "interval")
		if !ok {
			continue
		}
		i, ok := bucketIntervals[interval]
		if !ok {
			continue
		}

		if rate, ok := fields.Float(entry, ratePath); ok {
			b.Rates[i] = &rate
		}
		if customers, ok := fields.Float(entry, "customers.rate"); ok {
			b.Customers[i] = &customers
		}
	}
	return b
}
