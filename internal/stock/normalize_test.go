package stock

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		size     string
		unit     string
		quantity float64
		want     float64
	}{
		{"grams into kg", "500gm", "kg", 2, 1},
		{"kg into kg", "1kg", "kg", 3, 3},
		{"litres into ml", "2L", "ml", 1, 2000},
		{"unparsable size", "large", "kg", 4, 4},
		{"unparsable size any unit", "large", "ml", 4, 4},
		{"g alias", "250g", "kg", 4, 1},
		{"ml into L", "250ml", "L", 3, 0.75},
		{"kg into gm", "1.5kg", "gm", 2, 3000},
		{"kg into g", "2kg", "g", 1, 2000},
		{"ml into ml", "200ml", "ml", 2, 400},
		{"bare unit means one", "kg", "kg", 3, 3},
		{"case insensitive", "500GM", "KG", 2, 1},
		{"surrounding spaces", " 500gm ", "kg", 2, 1},
		{"mass against volume", "500gm", "L", 2, 2},
		{"volume against mass", "1l", "kg", 5, 5},
		{"unknown canonical unit", "500gm", "pcs", 2, 2},
		{"empty size", "", "kg", 2, 2},
		{"space between number and unit", "500 gm", "kg", 2, 2},
		{"zero quantity", "500gm", "kg", 0, 0},
		{"negative quantity", "500gm", "kg", -2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.size, tt.unit, tt.quantity)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Normalize(%q, %q, %v) = %v, want %v", tt.size, tt.unit, tt.quantity, got, tt.want)
			}
		})
	}
}

func TestNormalizeExactDecimal(t *testing.T) {
	if got := Normalize("100gm", "kg", 3); got != 0.3 {
		t.Fatalf("expected exactly 0.3, got %v", got)
	}
}

func TestNormalizeNeverNegative(t *testing.T) {
	for _, q := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -0.5} {
		if got := Normalize("1kg", "kg", q); got != 0 {
			t.Fatalf("Normalize with quantity %v = %v, want 0", q, got)
		}
	}
}
