package stock

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var sizePattern = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)?(kg|gm|g|ml|l)$`)

var thousand = decimal.NewFromInt(1000)

// conversion describes how a size unit maps onto a canonical unit
type conversion struct {
	factor decimal.Decimal
	divide bool
}

var toGrams = map[string]conversion{
	"kg": {factor: thousand},
	"gm": {factor: decimal.NewFromInt(1)},
	"g":  {factor: decimal.NewFromInt(1)},
}

// conversions is keyed by canonical unit, then by size unit (both lower case)
var conversions = map[string]map[string]conversion{
	"kg": {
		"kg": {factor: decimal.NewFromInt(1)},
		"gm": {factor: thousand, divide: true},
		"g":  {factor: thousand, divide: true},
	},
	"gm": toGrams,
	"g":  toGrams,
	"l": {
		"l":  {factor: decimal.NewFromInt(1)},
		"ml": {factor: thousand, divide: true},
	},
	"ml": {
		"l":  {factor: thousand},
		"ml": {factor: decimal.NewFromInt(1)},
	},
}

// Normalize returns the stock quantity, in canonicalUnit, represented by
// quantity packs of the given size. Sizes that do not parse, or that name a
// unit with no conversion to canonicalUnit, leave quantity unconverted.
// The result is never negative.
func Normalize(size, canonicalUnit string, quantity float64) float64 {
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) || quantity <= 0 {
		return 0
	}

	m := sizePattern.FindStringSubmatch(strings.TrimSpace(size))
	if m == nil {
		return quantity
	}

	conv, ok := conversions[strings.ToLower(strings.TrimSpace(canonicalUnit))][strings.ToLower(m[2])]
	if !ok {
		return quantity
	}

	packSize := decimal.NewFromInt(1)
	if m[1] != "" {
		v, err := decimal.NewFromString(m[1])
		if err != nil {
			return quantity
		}
		packSize = v
	}

	total := packSize.Mul(decimal.NewFromFloat(quantity))
	if conv.divide {
		total = total.Div(conv.factor)
	} else {
		total = total.Mul(conv.factor)
	}

	out, _ := total.Float64()
	return math.Max(out, 0)
}
