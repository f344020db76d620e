package cratedb

import "encoding/json"

// Durations are timings attached to every successful response, beyond
// whatever the server itself reports.
type Durations struct {
	CrateDB      float64 `json:"cratedb"`
	Request      float64 `json:"request"`
	Preparation  float64 `json:"preparation,omitempty"`
	Total        float64 `json:"total,omitempty"`
}

// Sizes are byte counts attached to every successful response.
type Sizes struct {
	Request             int `json:"request"`
	Response            int `json:"response"`
	RequestUncompressed int `json:"requestUncompressed,omitempty"`
}

// Row is a single result row. Exactly one of Array or Object is set,
// depending on the response's effective row mode.
type Row struct {
	Array  []interface{}
	Object map[string]interface{}
}

// MarshalJSON renders whichever representation is populated.
func (r Row) MarshalJSON() ([]byte, error) {
	if r.Object != nil {
		return json.Marshal(r.Object)
	}
	return json.Marshal(r.Array)
}

// BulkResult is one sub-operation's outcome within a bulk response.
type BulkResult struct {
	RowCount int64            `json:"rowcount"`
	Error    *wireServerError `json:"error,omitempty"`
}

// Response is the enriched result of execute/executeMany: the server's
// envelope plus the client-added Durations and Sizes.
type Response struct {
	Cols     []string      `json:"cols,omitempty"`
	ColTypes []interface{} `json:"col_types,omitempty"`

	Rows     []Row `json:"rows,omitempty"`
	RowCount int64 `json:"rowcount,omitempty"`

	Results    []BulkResult `json:"results,omitempty"`
	BulkErrors []int        `json:"bulk_errors,omitempty"`

	Duration  float64   `json:"duration"`
	Durations Durations `json:"durations"`
	Sizes     Sizes     `json:"sizes"`
}

// reshapeRows converts array-mode rows into cols-keyed object rows when
// mode is RowModeObject. Null cells are preserved unchanged; in object
// mode a row shorter than cols gets nil for the missing columns, and
// cells beyond len(cols) are dropped.
func reshapeRows(cols []string, rawRows [][]interface{}, mode RowMode) []Row {
	out := make([]Row, len(rawRows))
	for i, raw := range rawRows {
		if mode == RowModeObject {
			obj := make(map[string]interface{}, len(cols))
			for j, c := range cols {
				if j < len(raw) {
					obj[c] = raw[j]
				} else {
					obj[c] = nil
				}
			}
			out[i] = Row{Object: obj}
		} else {
			out[i] = Row{Array: raw}
		}
	}
	return out
}
