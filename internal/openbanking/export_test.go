package openbanking

import (
	"github.com/obrdata/openbankingbr/internal/fields"
)

// Constructors and internals exported for tests.

func NewTestBranch(doc fields.Doc) Branch {
	return Branch{doc: doc}
}

func NewTestProduct(key string, doc, interest fields.Doc, seq int) Product {
	return Product{key: key, doc: doc, interest: interest, seq: seq}
}

func NewTestService(doc fields.Doc) Service {
	return Service{doc: doc}
}

func NewTestPackage(doc fields.Doc) Package {
	return Package{doc: doc}
}

var (
	ExpandProduct = expandProduct
	DecodeBuckets = decodeBuckets
)
