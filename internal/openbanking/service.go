package openbanking

import (
	"github.com/obrdata/openbankingbr/internal/fields"
)

// Service is the fee detail of one service charged on a product.
type Service struct {
	doc fields.Doc
}

// Name returns the service name. It is the one field required on a service.
func (s Service) Name() (string, error) {
	return fields.RequiredString(s.doc, "name")
}

// Code returns the standardized service code.
func (s Service) Code() (string, bool) {
	return fields.String(s.doc, "code")
}

// ChargingTriggerInfo returns the fact generating the charge.
func (s Service) ChargingTriggerInfo() (string, bool) {
	return fields.String(s.doc, "chargingTriggerInfo")
}

// Buckets returns the four-bucket fee distribution decoded from prices.
func (s Service) Buckets() FeeBuckets {
	prices, ok := fields.List(s.doc, "prices")
	if !ok {
		return FeeBuckets{}
	}
	return decodeBuckets(prices, "value")
}

// MinRate returns the minimum fee charged for the service.
func (s Service) MinRate() (float64, bool) {
	return fields.Float(s.doc, "minimum.value")
}

// MaxRate returns the maximum fee charged for the service.
func (s Service) MaxRate() (float64, bool) {
	return fields.Float(s.doc, "maximum.value")
}

// Package is a bundle of services offered for a product. It shares the
// four-bucket distribution shape with Service.
type Package struct {
	doc fields.Doc
}

// Name returns the bundle name. It is the one field required on a bundle.
func (p Package) Name() (string, error) {
	return fields.RequiredString(p.doc, "name")
}

// Buckets returns the four-bucket fee distribution decoded from prices.
func (p Package) Buckets() FeeBuckets {
	prices, ok := fields.List(p.doc, "prices")
	if !ok {
		return FeeBuckets{}
	}
	return decodeBuckets(prices, "value")
}

// MinRate returns the minimum fee charged for the bundle.
func (p Package) MinRate() (float64, bool) {
	return fields.Float(p.doc, "minimum.value")
}

// MaxRate returns the maximum fee charged for the bundle.
func (p Package) MaxRate() (float64, bool) {
	return fields.Float(p.doc, "maximum.value")
}
