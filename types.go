package cratedb

import (
	"math/big"
	"time"
)

// BigInt carries a 64-bit-or-wider integer through the JSON hop without
// losing precision. Encoding it produces an unquoted JSON numeric
// literal; a standard float64-based encoder would either lose low bits
// or quote the value as a string.
type BigInt struct {
	*big.Int
}

// NewBigInt wraps i.
func NewBigInt(i *big.Int) BigInt {
	return BigInt{Int: i}
}

// BigIntFromInt64 wraps a plain int64.
func BigIntFromInt64(i int64) BigInt {
	return BigInt{Int: big.NewInt(i)}
}

// MarshalJSON implements json.Marshaler directly (rather than relying on
// big.Int's MarshalText, which encoding/json would quote) so the wire
// literal stays an unquoted JSON number.
func (b BigInt) MarshalJSON() ([]byte, error) {
	if b.Int == nil {
		return []byte("null"), nil
	}
	return []byte(b.Int.String()), nil
}

// UnmarshalJSON accepts a bare numeric literal of any length.
func (b *BigInt) UnmarshalJSON(data []byte) error {
	z := new(big.Int)
	if _, ok := z.SetString(string(data), 10); !ok {
		return newDeserializationError("not a valid big integer literal: %s", string(data))
	}
	b.Int = z
	return nil
}

// Date wraps an epoch-millisecond DATE column value. It carries no
// time-of-day or zone component; CrateDB DATE columns are whole days.
type Date struct {
	time.Time
}

// NewDate builds a Date from epoch milliseconds.
func NewDate(epochMillis int64) Date {
	return Date{Time: time.UnixMilli(epochMillis).UTC()}
}

// EpochMillis returns the wire representation.
func (d Date) EpochMillis() int64 {
	return d.Time.UnixMilli()
}

// MarshalJSON emits the epoch-millisecond form the server expects.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(itoa(d.EpochMillis())), nil
}

// Timestamp wraps an epoch-millisecond TIMESTAMP[_WITH_TZ|_WITHOUT_TZ]
// column value.
type Timestamp struct {
	time.Time
}

// NewTimestamp builds a Timestamp from epoch milliseconds.
func NewTimestamp(epochMillis int64) Timestamp {
	return Timestamp{Time: time.UnixMilli(epochMillis).UTC()}
}

// EpochMillis returns the wire representation.
func (t Timestamp) EpochMillis() int64 {
	return t.Time.UnixMilli()
}

// MarshalJSON emits the epoch-millisecond form the server expects.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(itoa(t.EpochMillis())), nil
}

func itoa(n int64) string {
	return big.NewInt(n).String()
}

// OrderedMap is an insertion-ordered string-keyed map. The serializer
// encodes it as a JSON object with keys in insertion order; the client
// façade's Insert and InsertMany take rows as OrderedMaps, so the bound
// column list (and insertMany's key union) follows key insertion order.
type OrderedMap struct {
	keys   []string
	values map[string]interface{}
}

// NewOrderedMap returns an empty OrderedMap.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[string]interface{})}
}

// Set inserts or updates key, appending it to the key order on first
// insertion only.
func (m *OrderedMap) Set(key string, value interface{}) *OrderedMap {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
	return m
}

// Get returns the value for key and whether it was present.
func (m *OrderedMap) Get(key string) (interface{}, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *OrderedMap) Keys() []string {
	return m.keys
}

// Len returns the number of entries.
func (m *OrderedMap) Len() int {
	return len(m.keys)
}

// MarshalJSON writes the object with keys in insertion order.
func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	return marshalOrderedObject(m.keys, func(k string) interface{} { return m.values[k] })
}

// Set is a set-like collection that preserves insertion order and
// serializes as a JSON array.
type Set struct {
	order []interface{}
	seen  map[interface{}]struct{}
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{seen: make(map[interface{}]struct{})}
}

// Add inserts v if not already present.
func (s *Set) Add(v interface{}) *Set {
	if _, ok := s.seen[v]; !ok {
		s.seen[v] = struct{}{}
		s.order = append(s.order, v)
	}
	return s
}

// Has reports whether v is a member.
func (s *Set) Has(v interface{}) bool {
	_, ok := s.seen[v]
	return ok
}

// Values returns the members in insertion order.
func (s *Set) Values() []interface{} {
	return s.order
}

// MarshalJSON writes the set as a JSON array in insertion order.
func (s *Set) MarshalJSON() ([]byte, error) {
	return encodeValue(s.order)
}
