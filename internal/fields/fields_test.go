package fields_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/obrdata/openbankingbr/internal/fields"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, raw string) fields.Doc {
	t.Helper()

	var doc fields.Doc
	err := json.Unmarshal([]byte(raw), &doc)
	require.NoError(t, err, "Setup: fixture should be valid JSON")
	return doc
}

func TestLookup(t *testing.T) {
	t.Parallel()

	doc := mustDecode(t, `{
		"postalAddress": {
			"geographicCoordinates": {"latitude": -30.03, "longitude": null},
			"townName": "Porto Alegre"
		},
		"services": [{"code": "ABRE_CONTA"}]
	}`)

	tests := map[string]struct {
		path string

		want   any
		wantOk bool
	}{
		"Top level key":           {path: "postalAddress", want: doc["postalAddress"], wantOk: true},
		"Nested scalar":           {path: "postalAddress.townName", want: "Porto Alegre", wantOk: true},
		"Deeply nested":           {path: "postalAddress.geographicCoordinates.latitude", want: -30.03, wantOk: true},
		"Missing top level":       {path: "identification"},
		"Missing intermediate":    {path: "identification.code"},
		"Missing leaf":            {path: "postalAddress.countrySubDivision"},
		"Null value is absent":    {path: "postalAddress.geographicCoordinates.longitude"},
		"Traversal through list":  {path: "services.code"},
		"Traversal beyond scalar": {path: "postalAddress.townName.value"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, ok := fields.Lookup(doc, tc.path)
			require.Equal(t, tc.wantOk, ok, "Lookup presence mismatch")
			if tc.wantOk {
				assert.Equal(t, tc.want, got, "Lookup returned the wrong value")
			}
		})
	}
}

func TestTypedGetters(t *testing.T) {
	t.Parallel()

	doc := mustDecode(t, `{
		"name": "Agência Centro",
		"code": "0001",
		"cnpj": "92.702.067/0001-96",
		"rate": "0.25",
		"count": 12,
		"open": true,
		"flagText": "false",
		"phones": [{"type": "FIXO"}],
		"identification": {"type": "AGENCIA"}
	}`)

	t.Run("String converts scalars", func(t *testing.T) {
		t.Parallel()

		s, ok := fields.String(doc, "count")
		require.True(t, ok, "numbers should convert to string")
		assert.Equal(t, "12", s)

		s, ok = fields.String(doc, "open")
		require.True(t, ok)
		assert.Equal(t, "true", s)

		_, ok = fields.String(doc, "phones")
		assert.False(t, ok, "lists should not convert to string")
	})

	t.Run("Float parses strings", func(t *testing.T) {
		t.Parallel()

		f, ok := fields.Float(doc, "rate")
		require.True(t, ok)
		assert.InDelta(t, 0.25, f, 1e-9)

		_, ok = fields.Float(doc, "name")
		assert.False(t, ok, "non numeric strings should be absent")
	})

	t.Run("Int parses digit strings", func(t *testing.T) {
		t.Parallel()

		i, ok := fields.Int(doc, "code")
		require.True(t, ok)
		assert.Equal(t, int64(1), i)

		_, ok = fields.Int(doc, "rate")
		assert.False(t, ok, "fractional strings should not parse as int")
	})

	t.Run("Bool parses strings", func(t *testing.T) {
		t.Parallel()

		b, ok := fields.Bool(doc, "flagText")
		require.True(t, ok)
		assert.False(t, b)

		b, ok = fields.Bool(doc, "count")
		require.True(t, ok)
		assert.True(t, b)
	})

	t.Run("List and Map require exact shape", func(t *testing.T) {
		t.Parallel()

		l, ok := fields.List(doc, "phones")
		require.True(t, ok)
		assert.Len(t, l, 1)

		_, ok = fields.List(doc, "identification")
		assert.False(t, ok)

		m, ok := fields.Map(doc, "identification")
		require.True(t, ok)
		assert.Equal(t, "AGENCIA", m["type"])

		_, ok = fields.Map(doc, "phones")
		assert.False(t, ok)
	})
}

func TestRequiredGetters(t *testing.T) {
	t.Parallel()

	doc := mustDecode(t, `{"identification": {"code": "1234"}, "services": []}`)

	tests := map[string]struct {
		get func() error

		wantPath string
		wantErr  bool
	}{
		"Present string":     {get: func() error { _, err := fields.RequiredString(doc, "identification.code"); return err }},
		"Present list":       {get: func() error { _, err := fields.RequiredList(doc, "services"); return err }},
		"Missing string":     {get: func() error { _, err := fields.RequiredString(doc, "identification.name"); return err }, wantErr: true, wantPath: "identification.name"},
		"Missing branch":     {get: func() error { _, err := fields.RequiredFloat(doc, "prices.value"); return err }, wantErr: true, wantPath: "prices.value"},
		"Wrong type as list": {get: func() error { _, err := fields.RequiredList(doc, "identification"); return err }, wantErr: true, wantPath: "identification"},
		"Wrong type as int":  {get: func() error { _, err := fields.RequiredInt(doc, "services"); return err }, wantErr: true, wantPath: "services"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := tc.get()
			if !tc.wantErr {
				require.NoError(t, err, "required getter should succeed")
				return
			}

			var reqErr *fields.RequiredFieldError
			require.ErrorAs(t, err, &reqErr, "error should be a RequiredFieldError")
			assert.Equal(t, tc.wantPath, reqErr.Path, "error should carry the dotted path")
		})
	}
}

func TestDigitsInt(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		doc  string
		path string

		want   int64
		wantOk bool
	}{
		"Plain digits":         {doc: `{"code": "3006"}`, path: "code", want: 3006, wantOk: true},
		"Formatted CNPJ":       {doc: `{"cnpj": "92.702.067/0001-96"}`, path: "cnpj", want: 92702067000196, wantOk: true},
		"Postal code with dash": {doc: `{"postCode": "90010-280"}`, path: "postCode", want: 90010280, wantOk: true},
		"Numeric value":        {doc: `{"code": 3035}`, path: "code", want: 3035, wantOk: true},
		"No digits at all":     {doc: `{"code": "NA"}`, path: "code"},
		"Missing key":          {doc: `{}`, path: "code"},
		"Null value":           {doc: `{"code": null}`, path: "code"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, ok := fields.DigitsInt(mustDecode(t, tc.doc), tc.path)
			require.Equal(t, tc.wantOk, ok, "DigitsInt presence mismatch")
			if tc.wantOk {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestRequiredFieldErrorMessage(t *testing.T) {
	t.Parallel()

	_, err := fields.RequiredString(fields.Doc{}, "brand.name")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "brand.name", "message should name the path")
	assert.Contains(t, err.Error(), "string", "message should name the expected type")
	assert.False(t, errors.Is(err, errors.ErrUnsupported), "sanity: unrelated sentinel should not match")
}
