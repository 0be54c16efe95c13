package openbanking

import (
	"github.com/obrdata/openbankingbr/internal/fields"
)

// Product is one product offering of a participant, already expanded to a
// single interest-rate variant when the source item carried several.
type Product struct {
	key      string
	doc      fields.Doc
	interest fields.Doc // nil for products without interest-rate detail
	seq      int
}

// EndPoint returns the API endpoint the product data was fetched from.
func (p Product) EndPoint() string {
	endpoint, _ := fields.String(p.doc, "endPoint")
	return endpoint
}

// FamilyKey returns the product family key that selected this product.
func (p Product) FamilyKey() string {
	return p.key
}

// Seq returns the 1-based sequence number of the interest-rate variant this
// product was expanded from. Products without variants have sequence 1.
func (p Product) Seq() int {
	return p.seq
}

// Name resolves the display name of the product: the fixed overdraft name,
// then the product type code through the name table, then the raw name
// field when textual.
func (p Product) Name() (string, bool) {
	if isOverdraftKey(p.key) {
		return overdraftName, true
	}

	if productType, ok := p.doc["type"].(string); ok {
		if name, ok := productNames[productType]; ok {
			return name, true
		}
	}

	if name, ok := p.doc["name"].(string); ok {
		return name, true
	}

	return "", false
}

// Type returns the product type code. Credit card products carry it under
// identification.product.type, and that placement is required for them.
func (p Product) Type() (string, error) {
	if isCreditCardKey(p.key) {
		return fields.RequiredString(p.doc, "identification.product.type")
	}

	if productType, ok := p.doc["type"].(string); ok {
		return productType, nil
	}

	if isOverdraftKey(p.key) {
		return "ADP", nil
	}

	return "UNKNOWN", nil
}

// Category returns the coarse product category derived from the family key.
// Unknown keys fall back to CategoryOther.
func (p Product) Category() string {
	if category, ok := keyCategories[p.key]; ok {
		return category
	}
	return CategoryOther
}

// Indexer returns the referential rate indexer of the interest variant.
func (p Product) Indexer() (string, bool) {
	if p.interest == nil {
		return "", false
	}
	indexer, ok := fields.String(p.interest, "referentialRateIndexer")
	if !ok || indexer == "NA" {
		return "", false
	}
	return indexer, true
}

// IndexerRate returns the percentage applied over the referential indexer.
func (p Product) IndexerRate() (float64, bool) {
	if p.interest == nil {
		return 0, false
	}
	return fields.Float(p.interest, "rate")
}

// MinRate returns the minimum effective contract rate of the variant.
func (p Product) MinRate() (float64, bool) {
	if p.interest == nil {
		return 0, false
	}
	return fields.Float(p.interest, "minimumRate")
}

// MaxRate returns the maximum effective contract rate of the variant.
func (p Product) MaxRate() (float64, bool) {
	if p.interest == nil {
		return 0, false
	}
	return fields.Float(p.interest, "maximumRate")
}

// Buckets returns the four-bucket rate distribution of the interest variant,
// decoded from its applications list.
func (p Product) Buckets() FeeBuckets {
	if p.interest == nil {
		return FeeBuckets{}
	}
	applications, ok := fields.List(p.interest, "applications")
	if !ok {
		return FeeBuckets{}
	}
	return decodeBuckets(applications, "indexer.rate")
}

// Network returns the card network of a credit card product.
func (p Product) Network() (string, bool) {
	return fields.String(p.doc, "identification.creditCard.network")
}

// RewardsProgram reports whether a credit card product has a rewards program.
func (p Product) RewardsProgram() (bool, bool) {
	return fields.Bool(p.doc, "rewardsProgram.hasRewardProgram")
}

// Services yields the service fees charged on the product, scanning the
// priority, other and plain service lists under fees.
func (p Product) Services(yield func(Service) bool) {
	fees, ok := fields.Map(p.doc, "fees")
	if !ok {
		return
	}

	for _, key := range []string{"priorityServices", "otherServices", "services"} {
		services, ok := fees[key].([]any)
		if !ok {
			continue
		}
		for _, s := range services {
			service, ok := s.(map[string]any)
			if !ok {
				continue
			}
			if !yield(Service{doc: service}) {
				return
			}
		}
	}
}

// Bundles yields the service packages offered for the product.
func (p Product) Bundles(yield func(Package) bool) {
	bundles, ok := fields.List(p.doc, "serviceBundles")
	if !ok {
		return
	}
	for _, b := range bundles {
		bundle, ok := b.(map[string]any)
		if !ok {
			continue
		}
		if !yield(Package{doc: bundle}) {
			return
		}
	}
}
