package cratedb

import "testing"

func TestReshapeRowsObjectModePreservesValuesAndNulls(t *testing.T) {
	cols := []string{"a", "b", "c"}
	raw := [][]interface{}{
		{"x", nil, int64(3)},
	}
	rows := reshapeRows(cols, raw, RowModeObject)
	assertEqualF(t, len(rows), 1)
	obj := rows[0].Object
	assertNotNilF(t, obj)
	for i, col := range cols {
		assertEqualF(t, obj[col], raw[0][i], "row["+col+"] must equal originalRow[i]")
	}
}

func TestReshapeRowsObjectModePadsShortRows(t *testing.T) {
	cols := []string{"a", "b"}
	raw := [][]interface{}{{"x"}}
	rows := reshapeRows(cols, raw, RowModeObject)
	assertTrueF(t, rows[0].Object["b"] == nil, "missing trailing cell must decode as nil")
}

func TestReshapeRowsArrayModePassesThrough(t *testing.T) {
	cols := []string{"a", "b"}
	raw := [][]interface{}{{"x", "y"}}
	rows := reshapeRows(cols, raw, RowModeArray)
	assertEqualF(t, len(rows[0].Array), 2)
	assertDeepEqualE(t, rows[0].Array, raw[0])
}

func TestRowMarshalJSONPicksPopulatedRepresentation(t *testing.T) {
	arrRow := Row{Array: []interface{}{"x", "y"}}
	data, err := arrRow.MarshalJSON()
	assertNilF(t, err)
	assertEqualF(t, string(data), `["x","y"]`)

	objRow := Row{Object: map[string]interface{}{"a": "x"}}
	data, err = objRow.MarshalJSON()
	assertNilF(t, err)
	assertEqualF(t, string(data), `{"a":"x"}`)
}
