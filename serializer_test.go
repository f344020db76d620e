package cratedb

import (
	"math/big"
	"testing"
)

func TestBigIntMarshalUnmarshalRoundTrip(t *testing.T) {
	huge, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	assertTrueF(t, ok, "test fixture literal must parse")
	b := NewBigInt(huge)

	data, err := b.MarshalJSON()
	assertNilF(t, err)
	assertEqualF(t, string(data), "123456789012345678901234567890")

	var decoded BigInt
	assertNilF(t, decoded.UnmarshalJSON(data))
	assertEqualF(t, decoded.String(), huge.String())
}

func TestDecodeResponseBigIntModePreservesPrecision(t *testing.T) {
	body := []byte(`{"cols":["n"],"col_types":[10],"rows":[[9223372036854775807123]],"rowcount":1,"duration":1.0}`)
	cfg := DeserializationConfig{Long: LongModeBigInt, Date: DateModeDate, Timestamp: DateModeDate}

	env, err := DecodeResponse(body, cfg)
	assertNilF(t, err)

	cell, ok := env.Rows[0][0].(BigInt)
	assertTrueF(t, ok, "expected BigInt cell")
	assertEqualF(t, cell.String(), "9223372036854775807123")
}

func TestDecodeResponseDefaultLongModeIsPlainNumber(t *testing.T) {
	body := []byte(`{"cols":["n"],"col_types":[10],"rows":[[42]],"rowcount":1,"duration":1.0}`)
	env, err := DecodeResponse(body, DefaultDeserializationConfig())
	assertNilF(t, err)

	cell, ok := env.Rows[0][0].(int64)
	assertTrueF(t, ok, "expected plain int64 cell")
	assertEqualF(t, cell, int64(42))
}

func TestDecodeResponseDateModeWrapsDate(t *testing.T) {
	body := []byte(`{"cols":["d"],"col_types":[18],"rows":[[1700000000000]],"rowcount":1,"duration":1.0}`)
	env, err := DecodeResponse(body, DefaultDeserializationConfig())
	assertNilF(t, err)

	cell, ok := env.Rows[0][0].(Date)
	assertTrueF(t, ok, "expected Date cell")
	assertEqualF(t, cell.EpochMillis(), int64(1700000000000))
}

func TestDecodeResponseNumberModeLeavesRawEpoch(t *testing.T) {
	cfg := DeserializationConfig{Long: LongModeNumber, Date: DateModeNumber, Timestamp: DateModeNumber}
	body := []byte(`{"cols":["d"],"col_types":[18],"rows":[[1700000000000]],"rowcount":1,"duration":1.0}`)
	env, err := DecodeResponse(body, cfg)
	assertNilF(t, err)

	cell, ok := env.Rows[0][0].(int64)
	assertTrueF(t, ok, "expected plain int64 cell")
	assertEqualF(t, cell, int64(1700000000000))
}

func TestDecodeResponseRecursesIntoArrayColumns(t *testing.T) {
	body := []byte(`{"cols":["ns"],"col_types":[[100,10]],"rows":[[[1,2,3]]],"rowcount":1,"duration":1.0}`)
	env, err := DecodeResponse(body, DefaultDeserializationConfig())
	assertNilF(t, err)

	cell, ok := env.Rows[0][0].([]interface{})
	assertTrueF(t, ok, "expected array cell")
	assertEqualF(t, len(cell), 3)
	assertEqualF(t, cell[1], int64(2))
}

func TestDecodeResponsePreservesNullCells(t *testing.T) {
	body := []byte(`{"cols":["a","b"],"col_types":[4,9],"rows":[["x",null]],"rowcount":1,"duration":1.0}`)
	env, err := DecodeResponse(body, DefaultDeserializationConfig())
	assertNilF(t, err)
	assertNotNilF(t, env.Rows[0][0])
	assertTrueF(t, env.Rows[0][1] == nil, "expected null cell to decode as nil")
}

func TestOrderedMapMarshalPreservesInsertionOrder(t *testing.T) {
	m := NewOrderedMap().Set("z", 1).Set("a", 2).Set("m", 3)
	data, err := m.MarshalJSON()
	assertNilF(t, err)
	assertEqualF(t, string(data), `{"z":1,"a":2,"m":3}`)
}

func TestSetMarshalPreservesInsertionOrderAndDedups(t *testing.T) {
	s := NewSet().Add("b").Add("a").Add("b")
	data, err := s.MarshalJSON()
	assertNilF(t, err)
	assertEqualF(t, string(data), `["b","a"]`)
	assertEqualF(t, len(s.Values()), 2)
}
