package cratedb

import "testing"

func TestInsertWithoutPrimaryKeysNoOpsOnConflict(t *testing.T) {
	stmt := Insert("my_table", []string{"a", "b"}, nil)
	assertEqualF(t, stmt, `INSERT INTO "my_table" ("a", "b") VALUES (?, ?) ON CONFLICT DO NOTHING;`)
}

func TestInsertWithPrimaryKeysUpserts(t *testing.T) {
	stmt := Insert("my_table", []string{"id", "a", "b"}, []string{"id"})
	assertEqualF(t, stmt,
		`INSERT INTO "my_table" ("id", "a", "b") VALUES (?, ?, ?) ON CONFLICT ("id") DO UPDATE SET "a" = excluded."a", "b" = excluded."b";`)
}

func TestInsertEmptyKeysEquivalentToNilKeys(t *testing.T) {
	withEmpty := Insert("t", []string{}, nil)
	withNil := Insert("t", nil, nil)
	assertEqualF(t, withEmpty, withNil, "insert with an empty key list must equal insert with a nil key list")
}

func TestStatementGeneratorsAreDeterministic(t *testing.T) {
	cols := []string{"x", "y"}
	pk := []string{"x"}
	first := Insert("t", cols, pk)
	second := Insert("t", cols, pk)
	assertEqualF(t, first, second)
}

func TestQuoteTableSplitsSchemaQualifiedName(t *testing.T) {
	assertEqualF(t, quoteTable("doc.my_table"), `"doc"."my_table"`)
	assertEqualF(t, quoteTable("my_table"), `"my_table"`)
}

func TestCreateTableRendersObjectColumnWithMode(t *testing.T) {
	cols := []Column{
		{Name: "id", Type: "integer", PrimaryKey: true},
		{
			Name: "payload",
			Type: "object",
			Mode: ObjectModeDynamic,
			Properties: []Column{
				{Name: "nested", Type: "text", NotNull: true},
			},
		},
	}
	stmt, err := CreateTable("events", cols, nil)
	assertNilF(t, err)
	assertEqualF(t, stmt,
		`CREATE TABLE "events" ("id" integer, "payload" OBJECT(DYNAMIC) AS ("nested" text NOT NULL), PRIMARY KEY("id"));`)
}

func TestCreateTableRejectsDefaultAndGeneratedAlwaysTogether(t *testing.T) {
	cols := []Column{
		{Name: "x", Type: "integer", DefaultValue: 1, GeneratedAlways: "x + 1"},
	}
	_, err := CreateTable("t", cols, nil)
	var verr *ValidationError
	assertErrorsAsF(t, err, &verr)
}

func TestCreateTableAppliesClusteringAndReplicas(t *testing.T) {
	cols := []Column{{Name: "id", Type: "integer"}}
	opts := &CreateTableOptions{
		PartitionedBy:       []string{"id"},
		ClusteredBy:         "id",
		ClusteredIntoShards: 4,
		NumberOfReplicas:    "0-1",
	}
	stmt, err := CreateTable("t", cols, opts)
	assertNilF(t, err)
	assertEqualF(t, stmt,
		`CREATE TABLE "t" ("id" integer) PARTITIONED BY ("id") CLUSTERED BY ("id") INTO 4 SHARDS WITH (number_of_replicas='0-1');`)
}

func TestUpdateInterpolatesWhereVerbatim(t *testing.T) {
	stmt := Update("t", []KV{{Key: "a", Value: 1}}, "id = 1 OR 1=1")
	assertEqualF(t, stmt, `UPDATE "t" SET "a"=? WHERE id = 1 OR 1=1;`)
}

func TestDeleteInterpolatesWhereVerbatim(t *testing.T) {
	stmt := Delete("t", "id = 1")
	assertEqualF(t, stmt, `DELETE FROM "t" WHERE id = 1;`)
}

func TestOptimizeRendersWithAndPartitionClauses(t *testing.T) {
	stmt := Optimize("t",
		[]KV{{Key: "max_num_segments", Value: 1}},
		[]KV{{Key: "year", Value: "2024"}})
	assertEqualF(t, stmt, `OPTIMIZE TABLE "t" WITH (max_num_segments=1) PARTITION (year='2024');`)
}

func TestPrimaryKeysQueryParameterizesSchemaAndTable(t *testing.T) {
	_, args := PrimaryKeysQuery("doc", "my_table")
	assertEqualF(t, len(args), 2)
	assertEqualF(t, args[0], "doc")
	assertEqualF(t, args[1], "my_table")
}
