package cratedb

import (
	"fmt"
	"strconv"
	"strings"
)

// Column describes one column of a createTable schema. A scalar column
// sets Type (and optionally NotNull/DefaultValue/GeneratedAlways/
// Stored/PrimaryKey); an object column sets Type to "object" and
// Properties instead.
type Column struct {
	Name string

	Type           string
	NotNull        bool
	DefaultValue   interface{}
	GeneratedAlways string
	Stored         bool
	PrimaryKey     bool

	// Object-column fields. Mode is one of ObjectModeStrict,
	// ObjectModeDynamic, ObjectModeIgnored (empty means unspecified,
	// i.e. the server default).
	Mode       ObjectMode
	Properties []Column
}

// ObjectMode is the strictness mode of an OBJECT column.
type ObjectMode string

const (
	ObjectModeStrict  ObjectMode = "strict"
	ObjectModeDynamic ObjectMode = "dynamic"
	ObjectModeIgnored ObjectMode = "ignored"
)

func (c Column) isObject() bool {
	return strings.EqualFold(c.Type, "object")
}

// CreateTableOptions carries createTable's clustering/partitioning/
// replication clauses.
type CreateTableOptions struct {
	PartitionedBy     []string
	ClusteredBy       string
	ClusteredIntoShards int
	NumberOfReplicas  string
}

// KV is an ordered key-value pair, used wherever StatementGenerator
// needs a deterministic iteration order over caller-supplied values
// (update's SET list, optimize's WITH/PARTITION clauses).
type KV struct {
	Key   string
	Value interface{}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteTable splits a possibly schema-qualified table name on "." and
// double-quotes each part.
func quoteTable(table string) string {
	parts := strings.Split(table, ".")
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = quoteIdent(p)
	}
	return strings.Join(quoted, ".")
}

// CreateTable emits a CREATE TABLE statement for table. Columns are
// rendered in the given order; a PRIMARY KEY clause is derived from
// whichever columns (at any nesting depth) set PrimaryKey.
func CreateTable(table string, columns []Column, opts *CreateTableOptions) (string, error) {
	var colDefs []string
	var primaryKeys []string
	for _, col := range columns {
		def, err := renderColumn(col, &primaryKeys)
		if err != nil {
			return "", err
		}
		colDefs = append(colDefs, def)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (%s", quoteTable(table), strings.Join(colDefs, ", "))
	if len(primaryKeys) > 0 {
		fmt.Fprintf(&b, ", PRIMARY KEY(%s)", strings.Join(quoteEach(primaryKeys), ", "))
	}
	b.WriteString(")")

	if opts != nil {
		if len(opts.PartitionedBy) > 0 {
			fmt.Fprintf(&b, " PARTITIONED BY (%s)", strings.Join(quoteEach(opts.PartitionedBy), ", "))
		}
		if opts.ClusteredBy != "" {
			fmt.Fprintf(&b, " CLUSTERED BY (%s)", quoteIdent(opts.ClusteredBy))
			if opts.ClusteredIntoShards > 0 {
				fmt.Fprintf(&b, " INTO %d SHARDS", opts.ClusteredIntoShards)
			}
		} else if opts.ClusteredIntoShards > 0 {
			fmt.Fprintf(&b, " CLUSTERED INTO %d SHARDS", opts.ClusteredIntoShards)
		}
		if opts.NumberOfReplicas != "" {
			fmt.Fprintf(&b, " WITH (number_of_replicas='%s')", opts.NumberOfReplicas)
		}
	}
	b.WriteString(";")
	return b.String(), nil
}

func quoteEach(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quoteIdent(n)
	}
	return out
}

func renderColumn(col Column, primaryKeys *[]string) (string, error) {
	if col.PrimaryKey {
		*primaryKeys = append(*primaryKeys, col.Name)
	}
	if col.isObject() {
		return renderObjectColumn(col, primaryKeys)
	}
	if col.DefaultValue != nil && col.GeneratedAlways != "" {
		return "", newValidationError("column %q cannot set both defaultValue and generatedAlways", col.Name)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", quoteIdent(col.Name), col.Type)
	if col.NotNull {
		b.WriteString(" NOT NULL")
	}
	if col.GeneratedAlways != "" {
		fmt.Fprintf(&b, " GENERATED ALWAYS AS %s", col.GeneratedAlways)
		if col.Stored {
			b.WriteString(" STORED")
		}
	} else if col.DefaultValue != nil {
		fmt.Fprintf(&b, " DEFAULT %s", literalSQL(col.DefaultValue))
	}
	return b.String(), nil
}

func renderObjectColumn(col Column, primaryKeys *[]string) (string, error) {
	var children []string
	for _, child := range col.Properties {
		def, err := renderColumn(child, primaryKeys)
		if err != nil {
			return "", err
		}
		children = append(children, def)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s OBJECT", quoteIdent(col.Name))
	if col.Mode != "" {
		fmt.Fprintf(&b, "(%s)", strings.ToUpper(string(col.Mode)))
	}
	if len(children) > 0 {
		fmt.Fprintf(&b, " AS (%s)", strings.Join(children, ", "))
	}
	return b.String(), nil
}

func literalSQL(v interface{}) string {
	switch val := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Insert emits an INSERT INTO statement binding keys positionally.
// When primaryKeys is non-empty the statement upserts on conflict;
// otherwise (nil or empty) it no-ops on conflict.
func Insert(table string, keys []string, primaryKeys []string) string {
	qcols := make([]string, len(keys))
	placeholders := make([]string, len(keys))
	for i, k := range keys {
		qcols[i] = quoteIdent(k)
		placeholders[i] = "?"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES (%s)",
		quoteTable(table), strings.Join(qcols, ", "), strings.Join(placeholders, ", "))

	if len(primaryKeys) > 0 {
		pkSet := make(map[string]bool, len(primaryKeys))
		for _, pk := range primaryKeys {
			pkSet[pk] = true
		}
		var sets []string
		for _, k := range keys {
			if pkSet[k] {
				continue
			}
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", quoteIdent(k), quoteIdent(k)))
		}
		fmt.Fprintf(&b, " ON CONFLICT (%s) DO UPDATE SET %s",
			strings.Join(quoteEach(primaryKeys), ", "), strings.Join(sets, ", "))
	} else {
		b.WriteString(" ON CONFLICT DO NOTHING")
	}
	b.WriteString(";")
	return b.String()
}

// Update emits an UPDATE statement. where is interpolated verbatim into
// the statement text — per §9(b), the caller is responsible for its
// safety; this function performs no escaping or parameterization of it.
func Update(table string, values []KV, where string) string {
	sets := make([]string, len(values))
	for i, kv := range values {
		sets[i] = fmt.Sprintf("%s=?", quoteIdent(kv.Key))
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s;", quoteTable(table), strings.Join(sets, ", "), where)
}

// Delete emits a DELETE statement. where is interpolated verbatim; see
// the caveat on Update.
func Delete(table, where string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s;", quoteTable(table), where)
}

// DropTable emits a DROP TABLE IF EXISTS statement.
func DropTable(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", quoteTable(table))
}

// Refresh emits a REFRESH TABLE statement.
func Refresh(table string) string {
	return fmt.Sprintf("REFRESH TABLE %s;", quoteTable(table))
}

// Optimize emits an OPTIMIZE TABLE statement with optional WITH/
// PARTITION clauses. String option values are single-quoted; numeric
// values are emitted raw.
func Optimize(table string, options []KV, partitions []KV) string {
	var b strings.Builder
	fmt.Fprintf(&b, "OPTIMIZE TABLE %s", quoteTable(table))
	if len(options) > 0 {
		fmt.Fprintf(&b, " WITH (%s)", renderKVList(options))
	}
	if len(partitions) > 0 {
		fmt.Fprintf(&b, " PARTITION (%s)", renderKVList(partitions))
	}
	b.WriteString(";")
	return b.String()
}

func renderKVList(kvs []KV) string {
	parts := make([]string, len(kvs))
	for i, kv := range kvs {
		parts[i] = fmt.Sprintf("%s=%s", kv.Key, optimizeValueSQL(kv.Value))
	}
	return strings.Join(parts, ", ")
}

func optimizeValueSQL(v interface{}) string {
	switch val := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// primaryKeysQuery is the fixed information-schema probe behind
// GetPrimaryKeys: column names of PRIMARY KEY constraints, in
// ordinal_position order, parameterized by (schema, table).
const primaryKeysQuery = `SELECT c.column_name
FROM information_schema.key_column_usage c
JOIN information_schema.table_constraints t
  ON c.constraint_name = t.constraint_name
 AND c.table_schema = t.table_schema
 AND c.table_name = t.table_name
WHERE t.constraint_type = 'PRIMARY KEY'
  AND c.table_schema = ?
  AND c.table_name = ?
ORDER BY c.ordinal_position;`

// PrimaryKeysQuery returns the fixed SQL text and positional args for
// the primary-key introspection probe.
func PrimaryKeysQuery(schema, table string) (string, []interface{}) {
	return primaryKeysQuery, []interface{}{schema, table}
}
