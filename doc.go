// Package cratedb is a JSON-over-HTTP client for CrateDB's SQL
// endpoint. It POSTs {stmt, args} or {stmt, bulk_args} to /_sql?types,
// decodes the response without losing 64-bit numeric precision, and
// layers a small statement generator and a server-side cursor on top
// of that endpoint.
//
// A Client is built from a resolved Config:
//
//	host := "crate.example.com"
//	cfg, err := cratedb.NewConfig(cratedb.Options{Host: &host})
//	client := cratedb.NewClient(cfg)
//	resp, err := client.Execute(ctx, "SELECT 1", nil)
//
// Configuration merges built-in defaults, environment variables, an
// optional connection string, and explicitly-set Options fields, in
// that order of increasing precedence.
package cratedb
