package openbanking

import (
	"errors"

	"github.com/obrdata/openbankingbr/internal/fields"
)

var (
	// ErrNotAnObject is returned when a directory entry is not a JSON object.
	ErrNotAnObject = errors.New("participant record is not a JSON object")
	// ErrMissingAuthServers is returned when a directory entry has no AuthorisationServers list.
	ErrMissingAuthServers = errors.New("AuthorisationServers is missing or not a list in the participant record")
)

// Participant is one financial institution registered in the Open Banking
// Brasil directory, together with the API endpoints it declares.
type Participant struct {
	doc       fields.Doc
	endpoints []string
}

// NewParticipant builds a Participant from a raw directory record.
//
// The record must be an object carrying an AuthorisationServers list;
// directory entries are expected to always conform, so violations are
// reported as errors rather than skipped.
func NewParticipant(raw any) (Participant, error) {
	doc, ok := raw.(map[string]any)
	if !ok {
		return Participant{}, ErrNotAnObject
	}

	servers, ok := doc["AuthorisationServers"].([]any)
	if !ok {
		return Participant{}, ErrMissingAuthServers
	}

	// Walk AuthorisationServers[].ApiResources[].ApiDiscoveryEndpoints[],
	// collecting every declared ApiEndpoint. Anything not shaped as
	// expected is silently skipped.
	var endpoints []string
	for _, s := range servers {
		server, ok := s.(map[string]any)
		if !ok {
			continue
		}
		resources, ok := server["ApiResources"].([]any)
		if !ok {
			continue
		}
		for _, r := range resources {
			resource, ok := r.(map[string]any)
			if !ok {
				continue
			}
			discovery, ok := resource["ApiDiscoveryEndpoints"].([]any)
			if !ok {
				continue
			}
			for _, d := range discovery {
				entry, ok := d.(map[string]any)
				if !ok {
					continue
				}
				if endpoint, ok := entry["ApiEndpoint"].(string); ok {
					endpoints = append(endpoints, endpoint)
				}
			}
		}
	}

	return Participant{doc: doc, endpoints: endpoints}, nil
}

// Endpoints returns every API endpoint URL declared by the participant.
func (p Participant) Endpoints() []string {
	return p.endpoints
}

// OrganisationID returns the unique directory identifier of the participant.
func (p Participant) OrganisationID() (string, error) {
	return fields.RequiredString(p.doc, "OrganisationId")
}

// Name returns the organisation name as published in the directory.
func (p Participant) Name() string {
	name, _ := fields.String(p.doc, "OrganisationName")
	return name
}

// RegistrationID returns the registration identifier of the participant.
func (p Participant) RegistrationID() (string, bool) {
	return fields.String(p.doc, "RegistrationId")
}

// RegistrationNumber returns the raw registration number (CNPJ) exactly as
// the directory publishes it, formatting included.
func (p Participant) RegistrationNumber() (string, error) {
	return fields.RequiredString(p.doc, "RegistrationNumber")
}

// CNPJ returns the numeric CNPJ derived from RegistrationNumber.
// Some institutions publish the number formatted with punctuation;
// everything but digits is stripped. An empty number yields 0.
func (p Participant) CNPJ() int64 {
	cnpj, _ := fields.DigitsInt(p.doc, "RegistrationNumber")
	return cnpj
}
