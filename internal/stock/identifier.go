package stock

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"storefront-service/internal/model"
)

// ErrInvalidIdentifier is returned for identifiers that are empty or not a scalar
var ErrInvalidIdentifier = errors.New("invalid product identifier")

// minDocumentKeyLen is the length a raw identifier must exceed before it is
// tried as a store document key
const minDocumentKeyLen = 5

// Identifier is a product reference as captured by an order. The same raw
// value may be usable as a numeric id, a string id and a document key.
type Identifier struct {
	raw        string
	numeric    int64
	hasNumeric bool
}

// ParseIdentifier builds an Identifier from a decoded JSON scalar. The numeric
// form is set only when the whole trimmed value is a base-10 integer, so
// "12abc" never matches numeric id 12.
func ParseIdentifier(v interface{}) (Identifier, error) {
	var raw string
	switch id := v.(type) {
	case nil:
		return Identifier{}, ErrInvalidIdentifier
	case string:
		raw = strings.TrimSpace(id)
	case float64, float32, int, int32, int64, json.Number:
		raw = model.IDString(id)
	case model.DocKey:
		raw = string(id)
	default:
		return Identifier{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidIdentifier, v)
	}
	if raw == "" {
		return Identifier{}, ErrInvalidIdentifier
	}

	ident := Identifier{raw: raw}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		ident.numeric = n
		ident.hasNumeric = true
	}
	return ident, nil
}

// String is the identifier's raw form
func (i Identifier) String() string {
	return i.raw
}

// NumericID returns the integer form, if the raw value is a base-10 integer
func (i Identifier) NumericID() (int64, bool) {
	return i.numeric, i.hasNumeric
}

// StringID returns the raw form for matching string id fields
func (i Identifier) StringID() string {
	return i.raw
}

// DocumentKey returns the raw form when it is long enough to be a store key
func (i Identifier) DocumentKey() (string, bool) {
	return i.raw, len(i.raw) > minDocumentKeyLen
}
