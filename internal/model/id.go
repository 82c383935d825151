package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// IDString renders a legacy identifier the way the storefront writes it:
// integral numbers without a fractional part, strings verbatim
func IDString(v interface{}) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case DocKey:
		return string(id)
	case json.Number:
		return id.String()
	case int:
		return strconv.Itoa(id)
	case int32:
		return strconv.FormatInt(int64(id), 10)
	case int64:
		return strconv.FormatInt(id, 10)
	case float32:
		return formatFloat(float64(id))
	case float64:
		return formatFloat(id)
	default:
		return fmt.Sprint(id)
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
