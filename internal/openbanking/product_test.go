package openbanking_test

import (
	"testing"

	"github.com/obrdata/openbankingbr/internal/fields"
	"github.com/obrdata/openbankingbr/internal/openbanking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandProduct(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		item string

		wantCount int
		wantSeqs  []int
	}{
		"No interest detail": {item: `{"type": "CONTA_DEPOSITO_A_VISTA"}`, wantCount: 1, wantSeqs: []int{1}},
		"interestRates list": {item: `{"interestRates": [{"rate": 0.1}, {"rate": 0.2}, {"rate": 0.3}]}`,
			wantCount: 3, wantSeqs: []int{1, 2, 3}},
		"Alternate interest.rates nesting": {item: `{"interest": {"rates": [{"rate": 0.1}, {"rate": 0.2}]}}`,
			wantCount: 2, wantSeqs: []int{1, 2}},
		"interestRates takes precedence": {item: `{"interestRates": [{"rate": 0.1}], "interest": {"rates": [{}, {}]}}`,
			wantCount: 1, wantSeqs: []int{1}},
		"interestRates not a list falls through": {item: `{"interestRates": "NA"}`, wantCount: 1, wantSeqs: []int{1}},
		"Empty interestRates yields nothing":     {item: `{"interestRates": []}`},
		"Non-object entries are dropped": {item: `{"interestRates": [{"rate": 0.1}, "bogus", {"rate": 0.2}]}`,
			wantCount: 2, wantSeqs: []int{1, 2}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			products := openbanking.ExpandProduct("personalLoans", mustDecode(t, tc.item))
			require.Len(t, products, tc.wantCount, "expanded product count mismatch")
			for i, p := range products {
				assert.Equal(t, tc.wantSeqs[i], p.Seq(), "variant sequence number mismatch")
			}
		})
	}
}

func TestProductName(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		key  string
		item string

		want   string
		wantOk bool
	}{
		"Known Bacen type": {key: "personalLoans", item: `{"type": "EMPRESTIMO_CHEQUE_ESPECIAL"}`,
			want: "Cheque especial", wantOk: true},
		"Non-standard variant type": {key: "personalLoans", item: `{"type": "EMPRESTIMO_CREDITO_PESSOAL"}`,
			want: "Crédito pessoal sem consignação", wantOk: true},
		"Overdraft ignores type": {key: "personalUnarrangedAccountOverdraft", item: `{"type": "WHATEVER"}`,
			want: "Adiantamento a Depositante", wantOk: true},
		"Business overdraft": {key: "businessUnarrangedAccountOverdraft", item: `{}`,
			want: "Adiantamento a Depositante", wantOk: true},
		"Unknown type falls back to name": {key: "personalLoans", item: `{"type": "X_CUSTOM", "name": "Linha Premium"}`,
			want: "Linha Premium", wantOk: true},
		"Name not textual": {key: "personalLoans", item: `{"type": "X_CUSTOM", "name": 12}`},
		"Nothing to go by": {key: "personalLoans", item: `{}`},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			p := openbanking.NewTestProduct(tc.key, mustDecode(t, tc.item), nil, 1)
			got, ok := p.Name()
			require.Equal(t, tc.wantOk, ok, "name presence mismatch")
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestProductType(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		key  string
		item string

		want    string
		wantErr bool
	}{
		"Plain type":       {key: "personalLoans", item: `{"type": "EMPRESTIMO_HOME_EQUITY"}`, want: "EMPRESTIMO_HOME_EQUITY"},
		"Overdraft":        {key: "businessUnarrangedAccountOverdraft", item: `{}`, want: "ADP"},
		"No type at all":   {key: "personalLoans", item: `{}`, want: "UNKNOWN"},
		"Credit card type": {key: "personalCreditCards", item: `{"identification": {"product": {"type": "PLATINUM"}}}`, want: "PLATINUM"},

		"Credit card missing nested type": {key: "personalCreditCards", item: `{"type": "PLATINUM"}`, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			p := openbanking.NewTestProduct(tc.key, mustDecode(t, tc.item), nil, 1)
			got, err := p.Type()
			if tc.wantErr {
				var reqErr *fields.RequiredFieldError
				require.ErrorAs(t, err, &reqErr, "credit cards require identification.product.type")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestProductCategory(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		key string

		want string
	}{
		"Loans":           {key: "personalLoans", want: "Empréstimo"},
		"Accounts":        {key: "businessAccounts", want: "Conta Corrente"},
		"Financings":      {key: "personalFinancings", want: "Financiamento"},
		"Invoice":         {key: "businessInvoiceFinancings", want: "Antecipação de Recebíveis"},
		"Overdraft":       {key: "personalUnarrangedAccountOverdraft", want: "Adiantamento a Depositante"},
		"Unknown key":     {key: "somethingElse", want: "Outros"},
		"Empty key":       {key: "", want: "Outros"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			p := openbanking.NewTestProduct(tc.key, fields.Doc{}, nil, 1)
			assert.Equal(t, tc.want, p.Category())
		})
	}
}

func TestProductInterest(t *testing.T) {
	t.Parallel()

	interest := mustDecode(t, `{
		"rate": 0.015,
		"referentialRateIndexer": "PRE_FIXADO",
		"minimumRate": 0.01,
		"maximumRate": 0.09,
		"applications": [
			{"interval": "1_FAIXA", "indexer": {"rate": 0.011}, "customers": {"rate": 0.25}},
			{"interval": "3_FAIXA", "indexer": {"rate": 0.031}, "customers": {"rate": 0.10}},
			{"interval": "9_FAIXA", "indexer": {"rate": 0.99}},
			{"interval": "SEM_FAIXA"}
		]
	}`)

	p := openbanking.NewTestProduct("personalLoans", fields.Doc{}, interest, 2)

	indexer, ok := p.Indexer()
	require.True(t, ok)
	assert.Equal(t, "PRE_FIXADO", indexer)

	rate, ok := p.IndexerRate()
	require.True(t, ok)
	assert.InDelta(t, 0.015, rate, 1e-9)

	minRate, ok := p.MinRate()
	require.True(t, ok)
	assert.InDelta(t, 0.01, minRate, 1e-9)

	maxRate, ok := p.MaxRate()
	require.True(t, ok)
	assert.InDelta(t, 0.09, maxRate, 1e-9)

	b := p.Buckets()
	require.NotNil(t, b.Rates[0], "1_FAIXA should populate bucket 0")
	assert.InDelta(t, 0.011, *b.Rates[0], 1e-9)
	require.NotNil(t, b.Customers[0])
	assert.InDelta(t, 0.25, *b.Customers[0], 1e-9)

	assert.Nil(t, b.Rates[1], "bucket 1 was not specified")
	require.NotNil(t, b.Rates[2], "3_FAIXA should populate bucket index 2 only")
	assert.InDelta(t, 0.031, *b.Rates[2], 1e-9)
	assert.Nil(t, b.Rates[3], "unrecognized interval labels are ignored")
}

func TestProductInterestNAIndexer(t *testing.T) {
	t.Parallel()

	p := openbanking.NewTestProduct("personalLoans", fields.Doc{}, mustDecode(t, `{"referentialRateIndexer": "NA"}`), 1)
	_, ok := p.Indexer()
	assert.False(t, ok, "the NA placeholder is absent")
}

func TestProductNoInterest(t *testing.T) {
	t.Parallel()

	p := openbanking.NewTestProduct("personalLoans", fields.Doc{}, nil, 1)

	_, ok := p.Indexer()
	assert.False(t, ok)
	_, ok = p.IndexerRate()
	assert.False(t, ok)
	_, ok = p.MinRate()
	assert.False(t, ok)
	_, ok = p.MaxRate()
	assert.False(t, ok)
	assert.Equal(t, openbanking.FeeBuckets{}, p.Buckets())
}

func TestProductServicesAndBundles(t *testing.T) {
	t.Parallel()

	item := mustDecode(t, `{
		"fees": {
			"priorityServices": [
				{"name": "Confecção de cadastro", "code": "CADASTRO",
				 "prices": [{"interval": "2_FAIXA", "value": 35.0, "customers": {"rate": 0.8}}],
				 "minimum": {"value": 10.0}, "maximum": {"value": 50.0}}
			],
			"otherServices": [
				{"name": "Outro serviço", "chargingTriggerInfo": "Por evento"}
			],
			"services": [
				{"name": "Serviço avulso"},
				"not-an-object"
			]
		},
		"serviceBundles": [
			{"name": "Pacote Essencial", "prices": [{"interval": "4_FAIXA", "value": 20.0}]},
			{"name": "Pacote Plus"}
		]
	}`)

	p := openbanking.NewTestProduct("personalAccounts", item, nil, 1)

	var serviceNames []string
	p.Services(func(s openbanking.Service) bool {
		name, err := s.Name()
		require.NoError(t, err)
		serviceNames = append(serviceNames, name)
		return true
	})
	assert.Equal(t, []string{"Confecção de cadastro", "Outro serviço", "Serviço avulso"}, serviceNames,
		"services should come in priority, other, plain order")

	var bundleNames []string
	p.Bundles(func(b openbanking.Package) bool {
		name, err := b.Name()
		require.NoError(t, err)
		bundleNames = append(bundleNames, name)
		return true
	})
	assert.Equal(t, []string{"Pacote Essencial", "Pacote Plus"}, bundleNames)
}

func TestServiceDetail(t *testing.T) {
	t.Parallel()

	s := openbanking.NewTestService(mustDecode(t, `{
		"name": "TED",
		"code": "TED_ELETRONICO",
		"chargingTriggerInfo": "Por transferência",
		"prices": [
			{"interval": "1_FAIXA", "value": "9.50", "customers": {"rate": 0.5}},
			{"interval": "3_FAIXA", "value": 15.0}
		],
		"minimum": {"value": 5.0},
		"maximum": {"value": 22.5}
	}`))

	name, err := s.Name()
	require.NoError(t, err)
	assert.Equal(t, "TED", name)

	code, ok := s.Code()
	require.True(t, ok)
	assert.Equal(t, "TED_ELETRONICO", code)

	trigger, ok := s.ChargingTriggerInfo()
	require.True(t, ok)
	assert.Equal(t, "Por transferência", trigger)

	b := s.Buckets()
	require.NotNil(t, b.Rates[0])
	assert.InDelta(t, 9.5, *b.Rates[0], 1e-9, "string-typed prices are coerced")
	require.NotNil(t, b.Customers[0])
	require.NotNil(t, b.Rates[2])
	assert.Nil(t, b.Customers[2], "customers absent for the third bucket")
	assert.Nil(t, b.Rates[1])
	assert.Nil(t, b.Rates[3])

	minRate, ok := s.MinRate()
	require.True(t, ok)
	assert.InDelta(t, 5.0, minRate, 1e-9)
	maxRate, ok := s.MaxRate()
	require.True(t, ok)
	assert.InDelta(t, 22.5, maxRate, 1e-9)
}

func TestServiceMissingName(t *testing.T) {
	t.Parallel()

	s := openbanking.NewTestService(fields.Doc{})
	_, err := s.Name()
	var reqErr *fields.RequiredFieldError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "name", reqErr.Path)
}

func TestPackageDetail(t *testing.T) {
	t.Parallel()

	p := openbanking.NewTestPackage(mustDecode(t, `{
		"name": "Cesta Padrão",
		"prices": [{"interval": "2_FAIXA", "value": 29.9, "customers": {"rate": 0.6}}],
		"minimum": {"value": 19.9},
		"maximum": {"value": 49.9}
	}`))

	name, err := p.Name()
	require.NoError(t, err)
	assert.Equal(t, "Cesta Padrão", name)

	b := p.Buckets()
	require.NotNil(t, b.Rates[1])
	assert.InDelta(t, 29.9, *b.Rates[1], 1e-9)
	require.NotNil(t, b.Customers[1])
	assert.InDelta(t, 0.6, *b.Customers[1], 1e-9)
}
