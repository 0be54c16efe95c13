// Package openbanking lists the participants of the Open Banking Brasil
// directory and normalizes the public data their APIs expose into branch,
// product, service and package entities.
//
// Participant APIs are independently operated and deviate from the published
// schemas routinely; decoding is therefore best effort. Two structural
// contracts are load bearing and fail hard: the directory returning a list,
// and each participant record carrying AuthorisationServers. Everything else
// degrades to absent values or skipped entries.
package openbanking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/obrdata/openbankingbr/internal/fetcher"
	"github.com/obrdata/openbankingbr/internal/fields"
)

// DirectoryURL is the public registry of authorized financial institutions.
const DirectoryURL = "https://data.directory.openbankingbrasil.org.br/participants"

const (
	branchesEndpointSuffix = "/open-banking/channels/v1/branches"
	productsEndpointMarker = "/open-banking/products-services/v1/"
)

var (
	// ErrDirectoryUnavailable is returned when the participant directory cannot be fetched.
	ErrDirectoryUnavailable = errors.New("could not fetch the participant directory")
	// ErrDirectoryShape is returned when the directory response is not a JSON array.
	ErrDirectoryShape = errors.New("participant directory did not return a list")
)

// Client walks the directory and participant endpoints.
type Client struct {
	fetcher      *fetcher.Fetcher
	directoryURL string
}

type options struct {
	// Private member exported for tests.
	directoryURL string
}

// Options represents an optional function to override Client default values.
type Options func(*options)

// WithDirectoryURL overrides the participant directory URL.
func WithDirectoryURL(url string) Options {
	return func(o *options) {
		o.directoryURL = url
	}
}

// New returns a Client fetching through f.
func New(f *fetcher.Fetcher, args ...Options) *Client {
	opts := options{directoryURL: DirectoryURL}
	for _, opt := range args {
		opt(&opts)
	}

	return &Client{fetcher: f, directoryURL: opts.directoryURL}
}

// Participants fetches the directory and returns every registered
// participant, in directory order.
//
// A directory that cannot be fetched or is not a list is an error: unlike
// individual participant endpoints, the directory is a hard dependency.
// A malformed participant record is an error too; see NewParticipant.
func (c *Client) Participants(ctx context.Context) ([]Participant, error) {
	doc, err := c.fetcher.Fetch(ctx, c.directoryURL)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDirectoryUnavailable
	}

	records, ok := doc.([]any)
	if !ok {
		return nil, ErrDirectoryShape
	}

	participants := make([]Participant, 0, len(records))
	for i, record := range records {
		p, err := NewParticipant(record)
		if err != nil {
			return nil, fmt.Errorf("invalid participant record at index %d: %w", i, err)
		}
		participants = append(participants, p)
	}

	return participants, nil
}

// FindParticipant returns the first participant matching a numeric CNPJ, an
// organisation identifier, or a domain contained in one of its endpoints.
// Exactly one criterion should be set; zero values are ignored.
func (c *Client) FindParticipant(ctx context.Context, cnpj int64, organisationID, domain string) (Participant, bool, error) {
	participants, err := c.Participants(ctx)
	if err != nil {
		return Participant{}, false, err
	}

	for _, p := range participants {
		switch {
		case cnpj != 0 && p.CNPJ() == cnpj:
			return p, true, nil
		case organisationID != "":
			id, err := p.OrganisationID()
			if err == nil && id == organisationID {
				return p, true, nil
			}
		case domain != "":
			for _, endpoint := range p.Endpoints() {
				if strings.Contains(endpoint, domain) {
					return p, true, nil
				}
			}
		}
	}

	return Participant{}, false, nil
}

// Branches walks the participant's branches endpoint and yields one Branch
// per branch entry, in page order.
//
// Only the first endpoint ending in the branches path is walked. Pages that
// lack the brand.companies nesting are skipped; a company without a branches
// list is a required-field error, which stops the walk.
func (c *Client) Branches(ctx context.Context, p Participant, yield func(Branch) bool) error {
	for _, endpoint := range p.Endpoints() {
		if !strings.HasSuffix(endpoint, branchesEndpointSuffix) {
			continue
		}

		var walkErr error
		err := c.fetcher.WalkPages(ctx, endpoint, func(page fields.Doc) bool {
			companies, ok := fields.List(page, "brand.companies")
			if !ok {
				slog.Debug("Skipping branches page without brand.companies", "endPoint", page["endPoint"])
				return true
			}

			for _, co := range companies {
				company, ok := co.(map[string]any)
				if !ok {
					continue
				}

				branches, err := fields.RequiredList(company, "branches")
				if err != nil {
					walkErr = err
					return false
				}

				for _, b := range branches {
					branch, ok := b.(map[string]any)
					if !ok {
						continue
					}
					branch["endPoint"] = page["endPoint"]
					if !yield(Branch{doc: branch}) {
						return false
					}
				}
			}
			return true
		})
		if err != nil {
			return err
		}
		return walkErr
	}
	return nil
}

// Products walks every products-services endpoint of the participant and
// yields the normalized products, in page order.
//
// On each company the first product family key present selects the family;
// items with multiple interest-rate entries expand into one Product per
// entry, sequence numbered from 1.
func (c *Client) Products(ctx context.Context, p Participant, yield func(Product) bool) error {
	for _, endpoint := range p.Endpoints() {
		if !strings.Contains(endpoint, productsEndpointMarker) {
			continue
		}

		err := c.fetcher.WalkPages(ctx, endpoint, func(page fields.Doc) bool {
			companies, ok := fields.List(page, "brand.companies")
			if !ok {
				slog.Debug("Skipping products page without brand.companies", "endPoint", page["endPoint"])
				return true
			}

			for _, co := range companies {
				company, ok := co.(map[string]any)
				if !ok {
					continue
				}
				if !yieldCompanyProducts(company, page["endPoint"], yield) {
					return false
				}
			}
			return true
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func yieldCompanyProducts(company fields.Doc, endPoint any, yield func(Product) bool) bool {
	var key string
	for _, k := range productFamilyKeys {
		if _, ok := company[k]; ok {
			key = k
			break
		}
	}
	if key == "" {
		return true
	}

	items, ok := company[key].([]any)
	if !ok {
		return true
	}

	for _, it := range items {
		item, ok := it.(map[string]any)
		if !ok {
			continue
		}
		item["endPoint"] = endPoint

		for _, product := range expandProduct(key, item) {
			if !yield(product) {
				return false
			}
		}
	}
	return true
}

// expandProduct applies the interest-rate shape matchers in order: a
// conforming interestRates list, the interest.rates nesting used by
// non-conforming institutions, then a plain product with no interest detail.
func expandProduct(key string, item fields.Doc) []Product {
	for _, path := range []string{"interestRates", "interest.rates"} {
		rates, ok := fields.List(item, path)
		if !ok {
			continue
		}

		products := make([]Product, 0, len(rates))
		for _, r := range rates {
			interest, ok := r.(map[string]any)
			if !ok {
				continue
			}
			products = append(products, Product{key: key, doc: item, interest: interest, seq: len(products) + 1})
		}
		return products
	}

	return []Product{{key: key, doc: item, seq: 1}}
}
