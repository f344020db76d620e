package cratedb

import (
	"context"
	"strings"
	"time"

	"github.com/gocrate/cratedb/internal/logger"
)

// Client is the façade over a CrateDB HTTP endpoint: it owns a shared,
// pooled Transport and the resolved Config, and exposes the public
// operations in §4.4. A Client carries no mutable state beyond its
// thread-safe pool, so it is safe for concurrent use.
type Client struct {
	cfg       *Config
	transport *Transport
	log       *logger.Logger
}

// NewClient builds a Client from an already-resolved Config.
func NewClient(cfg *Config) *Client {
	return &Client{cfg: cfg, transport: NewTransport(cfg), log: cfg.Logger}
}

// NewClientFromOptions resolves opts into a Config and builds a Client
// in one step.
func NewClientFromOptions(opts Options) (*Client, error) {
	cfg, err := NewConfig(opts)
	if err != nil {
		return nil, err
	}
	return NewClient(cfg), nil
}

// NewClientFromEnv resolves a Config from defaults and environment
// variables alone (no explicit fields, no connection string) and
// builds a Client from it.
func NewClientFromEnv() (*Client, error) {
	return NewClientFromOptions(Options{})
}

// Close releases the Client's pooled connections.
func (c *Client) Close() {
	c.transport.Close()
}

// callOptions are per-call overlays: they read from Client's resolved
// Config but never write back to it.
type callOptions struct {
	rowMode   RowMode
	transport *Transport
}

// CallOption overrides one per-call setting without mutating the
// Client's Config.
type CallOption func(*callOptions)

// WithRowMode overrides the row shape for a single execute call.
func WithRowMode(mode RowMode) CallOption {
	return func(o *callOptions) { o.rowMode = mode }
}

// WithTransport overrides the Transport used for a single call; mainly
// useful for tests.
func WithTransport(t *Transport) CallOption {
	return func(o *callOptions) { o.transport = t }
}

func (c *Client) resolveOptions(opts []CallOption) callOptions {
	o := callOptions{rowMode: c.cfg.RowMode, transport: c.transport}
	for _, apply := range opts {
		apply(&o)
	}
	return o
}

type execRequest struct {
	Stmt     string          `json:"stmt"`
	Args     []interface{}   `json:"args,omitempty"`
	BulkArgs [][]interface{} `json:"bulk_args,omitempty"`
}

// Execute runs a single, optionally parameterized statement and
// returns the enriched response, reshaped per the effective row mode.
func (c *Client) Execute(ctx context.Context, stmt string, args []interface{}, opts ...CallOption) (*Response, error) {
	o := c.resolveOptions(opts)
	payload, err := Encode(execRequest{Stmt: stmt, Args: args})
	if err != nil {
		return nil, err
	}
	raw, err := o.transport.Execute(ctx, payload)
	if err != nil {
		return nil, err
	}
	return buildResponse(raw, c.cfg.Deserialization, o.rowMode, c.log)
}

// ExecuteMany runs stmt once per row of bulkArgs and returns the bulk
// response, always in array row mode. bulk_errors is derived from
// results whose rowcount is the server's per-row error sentinel (-2),
// and a non-empty set is logged at warn level.
func (c *Client) ExecuteMany(ctx context.Context, stmt string, bulkArgs [][]interface{}, opts ...CallOption) (*Response, error) {
	o := c.resolveOptions(opts)
	payload, err := Encode(execRequest{Stmt: stmt, BulkArgs: bulkArgs})
	if err != nil {
		return nil, err
	}
	raw, err := o.transport.Execute(ctx, payload)
	if err != nil {
		return nil, err
	}
	return buildResponse(raw, c.cfg.Deserialization, RowModeArray, c.log)
}

func buildResponse(raw *rawResult, dsCfg DeserializationConfig, rowMode RowMode, log *logger.Logger) (*Response, error) {
	env, err := DecodeResponse(raw.Body, dsCfg)
	if err != nil {
		return nil, err
	}
	serverMS, _ := env.Duration.Float64()
	wallMS := float64(raw.TransportDuration.Microseconds()) / 1000.0

	resp := &Response{
		Cols:     env.Cols,
		ColTypes: env.ColTypes,
		Duration: serverMS,
		Durations: Durations{
			CrateDB: serverMS,
			Request: wallMS - serverMS,
		},
		Sizes: Sizes{
			Request:             raw.RequestBytes,
			Response:            raw.ResponseBytes,
			RequestUncompressed: raw.RequestBytesRaw,
		},
	}

	if env.Results != nil {
		resp.Results = make([]BulkResult, len(env.Results))
		for i, r := range env.Results {
			rc, _ := r.RowCount.Int64()
			resp.Results[i] = BulkResult{RowCount: rc, Error: r.Error}
			if rc == -2 {
				resp.BulkErrors = append(resp.BulkErrors, i)
			}
		}
		if len(resp.BulkErrors) > 0 && log != nil {
			log.Warnf("cratedb: bulk execute had %d failed row(s) of %d", len(resp.BulkErrors), len(resp.Results))
		}
		return resp, nil
	}

	rc, _ := env.RowCount.Int64()
	resp.RowCount = rc
	resp.Rows = reshapeRows(env.Cols, env.Rows, rowMode)
	return resp, nil
}

// Insert builds and runs an INSERT statement for a single row. obj's
// keys, in insertion order, become the bound column list.
func (c *Client) Insert(ctx context.Context, table string, obj *OrderedMap, primaryKeys []string) (*Response, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, newValidationError("obj must not be nil")
	}
	keys := obj.Keys()
	args := make([]interface{}, len(keys))
	for i, k := range keys {
		v, _ := obj.Get(k)
		args[i] = v
	}
	return c.Execute(ctx, Insert(table, keys, primaryKeys), args)
}

// InsertMany builds and runs a bulk INSERT. rows may have heterogeneous
// keys; the bound column list is the union of all rows' keys in
// first-seen order, and each row's args are padded with nil for keys it
// lacks. After execution, Durations.Preparation is backfilled as
// (wall time for this call) - Durations.Request - Durations.CrateDB.
func (c *Client) InsertMany(ctx context.Context, table string, rows []*OrderedMap, primaryKeys []string) (*Response, error) {
	start := time.Now()
	if err := validateTable(table); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, newValidationError("rows must not be empty")
	}

	var keys []string
	seen := make(map[string]bool)
	for _, row := range rows {
		for _, k := range row.Keys() {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}

	bulkArgs := make([][]interface{}, len(rows))
	for i, row := range rows {
		args := make([]interface{}, len(keys))
		for j, k := range keys {
			if v, ok := row.Get(k); ok {
				args[j] = v
			}
		}
		bulkArgs[i] = args
	}

	resp, err := c.ExecuteMany(ctx, Insert(table, keys, primaryKeys), bulkArgs)
	if err != nil {
		return nil, err
	}
	totalMS := float64(time.Since(start).Microseconds()) / 1000.0
	resp.Durations.Total = totalMS
	resp.Durations.Preparation = totalMS - resp.Durations.Request - resp.Durations.CrateDB
	return resp, nil
}

// Update builds and runs an UPDATE statement. See Update (the
// StatementGenerator function) for the verbatim-WHERE-clause caveat.
func (c *Client) Update(ctx context.Context, table string, values []KV, where string) (*Response, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}
	args := make([]interface{}, len(values))
	for i, kv := range values {
		args[i] = kv.Value
	}
	return c.Execute(ctx, Update(table, values, where), args)
}

// Delete builds and runs a DELETE statement.
func (c *Client) Delete(ctx context.Context, table, where string) (*Response, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}
	return c.Execute(ctx, Delete(table, where), nil)
}

// Drop builds and runs a DROP TABLE IF EXISTS statement.
func (c *Client) Drop(ctx context.Context, table string) (*Response, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}
	return c.Execute(ctx, DropTable(table), nil)
}

// Refresh builds and runs a REFRESH TABLE statement.
func (c *Client) Refresh(ctx context.Context, table string) (*Response, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}
	return c.Execute(ctx, Refresh(table), nil)
}

// CreateTable builds and runs a CREATE TABLE statement.
func (c *Client) CreateTable(ctx context.Context, table string, columns []Column, opts *CreateTableOptions) (*Response, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}
	stmt, err := CreateTable(table, columns, opts)
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, stmt, nil)
}

// Optimize builds and runs an OPTIMIZE TABLE statement.
func (c *Client) Optimize(ctx context.Context, table string, options []KV, partitions []KV) (*Response, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}
	return c.Execute(ctx, Optimize(table, options, partitions), nil)
}

// GetPrimaryKeys returns the primary-key column names of table, in
// ordinal_position order. table may be schema-qualified; an
// unqualified table name defaults to the "doc" schema.
func (c *Client) GetPrimaryKeys(ctx context.Context, table string) ([]string, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}
	schema, tbl := splitSchemaTable(table)
	stmt, args := PrimaryKeysQuery(schema, tbl)
	resp, err := c.Execute(ctx, stmt, args)
	if err != nil {
		return nil, err
	}
	cols := make([]string, len(resp.Rows))
	for i, row := range resp.Rows {
		if len(row.Array) > 0 {
			if s, ok := row.Array[0].(string); ok {
				cols[i] = s
			}
		}
	}
	return cols, nil
}

// CreateCursor returns an unopened Cursor over sql. Call Open before
// fetching.
func (c *Client) CreateCursor(sql string) *Cursor {
	return newCursor(c, sql)
}

func validateTable(table string) error {
	if strings.TrimSpace(table) == "" {
		return newValidationError("table must be a non-empty string")
	}
	return nil
}

func splitSchemaTable(table string) (schema, name string) {
	if i := strings.Index(table, "."); i >= 0 {
		return table[:i], table[i+1:]
	}
	return "doc", table
}
