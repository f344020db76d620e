package cratedb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
)

// LongMode selects how BIGINT-tagged cells are decoded.
type LongMode string

const (
	// LongModeNumber decodes BIGINT cells as plain Go numbers (int64
	// where the literal fits, float64 otherwise). This is the default;
	// it matches the "number" default called out in the spec's
	// configuration table.
	LongModeNumber LongMode = "number"
	// LongModeBigInt decodes BIGINT cells as BigInt, preserving every
	// digit of the wire literal regardless of magnitude.
	LongModeBigInt LongMode = "bigint"
)

// DateMode selects how DATE/TIMESTAMP-tagged cells are decoded.
type DateMode string

const (
	// DateModeNumber leaves DATE/TIMESTAMP cells as the raw epoch-
	// millisecond number the server sent.
	DateModeNumber DateMode = "number"
	// DateModeDate wraps DATE/TIMESTAMP cells in Date/Timestamp.
	DateModeDate DateMode = "date"
)

// DeserializationConfig controls the per-type decode policy applied to
// a response's rows, keyed off col_types.
type DeserializationConfig struct {
	Long      LongMode
	Date      DateMode
	Timestamp DateMode
}

// DefaultDeserializationConfig matches §3's stated defaults.
func DefaultDeserializationConfig() DeserializationConfig {
	return DeserializationConfig{
		Long:      LongModeNumber,
		Date:      DateModeDate,
		Timestamp: DateModeDate,
	}
}

func newDeserializationError(format string, args ...interface{}) *DeserializationError {
	return &DeserializationError{Message: fmt.Sprintf(format, args...)}
}

// decodeJSONLenient is a plain json.Unmarshal, used for the small
// fixed-shape bodies (error envelopes) that don't need big-integer or
// temporal handling.
func decodeJSONLenient(body []byte, v interface{}) error {
	return json.Unmarshal(body, v)
}

// Encode marshals v to JSON. It exists (rather than a bare json.Marshal
// call at every site) so every encode-path failure is consistently
// reported as a RequestError, per the error taxonomy in §7.
func Encode(v interface{}) ([]byte, error) {
	b, err := encodeValue(v)
	if err != nil {
		return nil, &RequestError{Message: "failed to serialize request payload", Cause: err}
	}
	return b, nil
}

func encodeValue(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// marshalOrderedObject renders a JSON object with keys emitted in the
// given order, used by OrderedMap.
func marshalOrderedObject(keys []string, valueOf func(string) interface{}) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := encodeValue(valueOf(k))
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodedEnvelope is the generic shape decoded off the wire before
// per-column conversion is applied. Numeric leaves in Rows/RowCount/
// Duration arrive as json.Number: Go's stdlib equivalent of the
// "reviver" the design notes call for — it exposes the raw lexeme of
// every JSON number before any float conversion happens, which is
// exactly what's needed to recover 64-bit precision.
type decodedEnvelope struct {
	Cols       []string                `json:"cols"`
	ColTypes   []interface{}           `json:"col_types"`
	Rows       [][]interface{}         `json:"rows"`
	RowCount   json.Number             `json:"rowcount"`
	Duration   json.Number             `json:"duration"`
	Results    []decodedBulkResultWire `json:"results"`
	BulkErrors []int                   `json:"bulk_errors"`
}

type decodedBulkResultWire struct {
	RowCount json.Number      `json:"rowcount"`
	Error    *wireServerError `json:"error,omitempty"`
}

type wireServerError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// DecodeResponse parses body as a successful response envelope and
// applies cfg's per-column conversions to every cell.
func DecodeResponse(body []byte, cfg DeserializationConfig) (*decodedEnvelope, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var env decodedEnvelope
	if err := dec.Decode(&env); err != nil {
		return nil, &DeserializationError{Message: "malformed response body", Cause: err}
	}

	baseTypes := make([]int, len(env.ColTypes))
	for i, ct := range env.ColTypes {
		baseTypes[i] = baseColType(ct)
	}

	for _, row := range env.Rows {
		for i := range row {
			if i >= len(baseTypes) {
				continue
			}
			converted, err := convertCell(row[i], baseTypes[i], cfg)
			if err != nil {
				return nil, err
			}
			row[i] = converted
		}
	}
	return &env, nil
}

// convertCell applies the decode contract (§4.1 step 2) to a single
// cell, recursing into array cells.
func convertCell(cell interface{}, baseType int, cfg DeserializationConfig) (interface{}, error) {
	switch v := cell.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, elem := range v {
			c, err := convertCell(elem, baseType, cfg)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case json.Number:
		return convertNumber(v, baseType, cfg)
	default:
		return v, nil
	}
}

func convertNumber(n json.Number, baseType int, cfg DeserializationConfig) (interface{}, error) {
	switch baseType {
	case ColTypeDate:
		if cfg.Date == DateModeDate {
			ms, err := n.Int64()
			if err != nil {
				return nil, newDeserializationError("invalid DATE literal %q: %v", n.String(), err)
			}
			return NewDate(ms), nil
		}
	case ColTypeTimestampWithTZ, ColTypeTimestampWithoutTZ:
		if cfg.Timestamp == DateModeDate {
			ms, err := n.Int64()
			if err != nil {
				return nil, newDeserializationError("invalid TIMESTAMP literal %q: %v", n.String(), err)
			}
			return NewTimestamp(ms), nil
		}
	case ColTypeBigInt:
		if cfg.Long == LongModeBigInt {
			z := new(big.Int)
			if _, ok := z.SetString(n.String(), 10); !ok {
				return nil, newDeserializationError("invalid BIGINT literal %q", n.String())
			}
			return NewBigInt(z), nil
		}
	}
	return plainNumber(n)
}

// plainNumber is the "Otherwise leave unchanged" branch of the decode
// contract, rendered into ordinary Go numeric types: an int64 when the
// literal round-trips exactly, a float64 otherwise.
func plainNumber(n json.Number) (interface{}, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, newDeserializationError("invalid numeric literal %q: %v", n.String(), err)
	}
	return f, nil
}
