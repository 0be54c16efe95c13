package openbanking

import (
	"strconv"

	"github.com/obrdata/openbankingbr/internal/fields"
)

// Branch is a service point (posto de atendimento) of a participant.
//
// Every field is optional: institutions publish wildly different subsets,
// and several use the literal string "NA" for values they do not have.
type Branch struct {
	doc fields.Doc
}

// EndPoint returns the API endpoint the branch data was fetched from.
func (b Branch) EndPoint() string {
	endpoint, _ := fields.String(b.doc, "endPoint")
	return endpoint
}

// Type returns the branch type per Bacen Resolution 4072/2012.
func (b Branch) Type() (string, bool) {
	return fields.String(b.doc, "identification.type")
}

// Code returns the numeric branch code.
func (b Branch) Code() (int64, bool) {
	return fields.DigitsInt(b.doc, "identification.code")
}

// CheckDigit returns the verification digit of the branch code.
func (b Branch) CheckDigit() (string, bool) {
	digit, ok := fields.String(b.doc, "identification.checkDigit")
	if !ok || digit == "NA" {
		return "", false
	}
	return digit, true
}

// Name returns the branch name.
func (b Branch) Name() (string, bool) {
	return fields.String(b.doc, "identification.name")
}

// Services returns the codes of the services offered at the branch.
func (b Branch) Services() []string {
	var codes []string
	services, ok := fields.List(b.doc, "services")
	if !ok {
		return codes
	}
	for _, s := range services {
		service, ok := s.(map[string]any)
		if !ok {
			continue
		}
		if code, ok := fields.String(service, "code"); ok && code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

// PublicAccess reports whether the branch is open to the general public.
// False also covers branches restricted to existing customers.
func (b Branch) PublicAccess() bool {
	allowed, ok := fields.Bool(b.doc, "availability.isPublicAccessAllowed")
	return ok && allowed
}

// Address returns the street address of the branch.
func (b Branch) Address() (string, bool) {
	return fields.String(b.doc, "postalAddress.address")
}

// AdditionalInfo returns the address complement.
func (b Branch) AdditionalInfo() (string, bool) {
	info, ok := fields.String(b.doc, "postalAddress.additionalInfo")
	if !ok || info == "NA" {
		return "", false
	}
	return info, true
}

// PostCode returns the numeric CEP of the branch address.
func (b Branch) PostCode() (int64, bool) {
	return fields.DigitsInt(b.doc, "postalAddress.postCode")
}

// Town returns the city of the branch address.
func (b Branch) Town() (string, bool) {
	return fields.String(b.doc, "postalAddress.townName")
}

// State returns the federation unit of the branch address.
func (b Branch) State() (string, bool) {
	return fields.String(b.doc, "postalAddress.countrySubDivision")
}

// District returns the neighborhood of the branch address.
func (b Branch) District() (string, bool) {
	return fields.String(b.doc, "postalAddress.districtName")
}

// IBGECode returns the IBGE code of the city of the branch.
func (b Branch) IBGECode() (int64, bool) {
	return fields.DigitsInt(b.doc, "postalAddress.ibgeCode")
}

// Latitude returns the latitude of the branch location.
func (b Branch) Latitude() (float64, bool) {
	return fields.Float(b.doc, "postalAddress.geographicCoordinates.latitude")
}

// Longitude returns the longitude of the branch location.
func (b Branch) Longitude() (float64, bool) {
	return fields.Float(b.doc, "postalAddress.geographicCoordinates.longitude")
}

// Phone returns the branch phone number as a digit string, composed of
// country code, area code and number. Landlines take precedence over mobile
// numbers.
func (b Branch) Phone() (string, bool) {
	phones, ok := fields.List(b.doc, "phones")
	if !ok {
		return "", false
	}

	for _, kind := range []string{"FIXO", "MOVEL"} {
		for _, p := range phones {
			phone, ok := p.(map[string]any)
			if !ok {
				continue
			}
			if t, _ := fields.String(phone, "type"); t != kind {
				continue
			}

			var number string
			for _, part := range []string{"countryCallingCode", "areaCode", "number"} {
				if digits, ok := fields.DigitsInt(phone, part); ok {
					number += strconv.FormatInt(digits, 10)
				}
			}

			if len(number) > 3 {
				return number, true
			}
		}
	}

	return "", false
}
