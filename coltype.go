package cratedb

import "encoding/json"

// Column type tags, as reported in a response's col_types. These are a
// closed set of integer codes for scalar types; composite types nest as
// [ArrayColType, elementTag, ...] and the decoder recurses to find the
// innermost base type.
const (
	ColTypeNull               = 0
	ColTypeNotSupported       = 1
	ColTypeByte               = 2
	ColTypeBoolean            = 3
	ColTypeText               = 4
	ColTypeIP                 = 5
	ColTypeDouble             = 6
	ColTypeFloat              = 7
	ColTypeShort              = 8
	ColTypeInteger            = 9
	ColTypeBigInt             = 10
	ColTypeTimestampWithTZ    = 11
	ColTypeObject             = 12
	ColTypeGeoPoint           = 13
	ColTypeGeoShape           = 14
	ColTypeTimestampWithoutTZ = 15
	ColTypeUncheckedObject    = 16
	ColTypeInterval           = 17
	ColTypeDate               = 18
	ColTypeNumeric            = 22
	ArrayColType              = 100
)

// baseColType unwraps nested array type tags and returns the innermost
// scalar type code. A plain scalar tag (json.Number or float64, from
// JSON decoding, or int) is returned as-is.
func baseColType(ct interface{}) int {
	switch v := ct.(type) {
	case []interface{}:
		if len(v) < 2 {
			return ColTypeNotSupported
		}
		return baseColType(v[1])
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return ColTypeNotSupported
		}
		return int(n)
	case float64:
		return int(v)
	case int:
		return v
	default:
		return ColTypeNotSupported
	}
}

// isArrayColType reports whether ct is a nested array type tag.
func isArrayColType(ct interface{}) bool {
	v, ok := ct.([]interface{})
	if !ok || len(v) < 1 {
		return false
	}
	return baseColType(v[0]) == ArrayColType
}
