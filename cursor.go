package cratedb

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gocrate/cratedb/internal/logger"
)

type cursorState int

const (
	cursorStateNew cursorState = iota
	cursorStateOpen
	cursorStateClosed
)

var cursorSeq int64

// Cursor is a server-side, keyed-fetch iterator over one statement's
// results. It holds a dedicated, size-1 Transport so its DECLARE,
// FETCH and CLOSE traffic always lands on the same backend session —
// CrateDB's cursor machinery is not portable across connections. A
// Cursor moves strictly New -> Open -> Closed; any call out of that
// order returns a *CursorStateError.
type Cursor struct {
	mu        sync.Mutex
	client    *Client
	sql       string
	name      string
	transport *Transport
	log       *logger.Logger
	state     cursorState
}

func newCursor(c *Client, sql string) *Cursor {
	n := atomic.AddInt64(&cursorSeq, 1)
	return &Cursor{
		client:    c,
		sql:       sql,
		name:      fmt.Sprintf("cursor_%d", n),
		transport: NewPinnedTransport(c.cfg),
		log:       c.cfg.Logger,
		state:     cursorStateNew,
	}
}

// Open declares the cursor on its pinned connection, NO SCROLL and WITH
// HOLD so it survives past the statement that opened it, and begins
// the session transaction it lives in.
func (cur *Cursor) Open(ctx context.Context, args []interface{}) error {
	cur.mu.Lock()
	defer cur.mu.Unlock()
	if cur.state != cursorStateNew {
		return &CursorStateError{Operation: "open", State: cur.stateName()}
	}
	if _, err := cur.exec(ctx, "BEGIN;", nil); err != nil {
		return err
	}
	declare := fmt.Sprintf("DECLARE %s NO SCROLL CURSOR WITH HOLD FOR %s", cur.name, cur.sql)
	if _, err := cur.exec(ctx, declare, args); err != nil {
		return err
	}
	cur.state = cursorStateOpen
	cur.logTransition("open")
	return nil
}

// FetchOne fetches the next single row, or a Response with zero rows
// once the cursor is exhausted.
func (cur *Cursor) FetchOne(ctx context.Context) (*Response, error) {
	return cur.FetchMany(ctx, 1)
}

// FetchMany fetches up to n rows from the cursor's current position.
// n<1 is satisfied locally with an empty result, without issuing a
// request.
func (cur *Cursor) FetchMany(ctx context.Context, n int) (*Response, error) {
	cur.mu.Lock()
	defer cur.mu.Unlock()
	if cur.state != cursorStateOpen {
		return nil, &CursorStateError{Operation: "fetch", State: cur.stateName()}
	}
	if n < 1 {
		return &Response{}, nil
	}
	return cur.exec(ctx, fmt.Sprintf("FETCH %d FROM %s;", n, cur.name), nil)
}

// FetchAll drains the cursor completely in a single round trip.
func (cur *Cursor) FetchAll(ctx context.Context) (*Response, error) {
	cur.mu.Lock()
	defer cur.mu.Unlock()
	if cur.state != cursorStateOpen {
		return nil, &CursorStateError{Operation: "fetch", State: cur.stateName()}
	}
	return cur.exec(ctx, fmt.Sprintf("FETCH ALL FROM %s;", cur.name), nil)
}

// Iterate fetches rows in batch-sized chunks, calling fn once per row
// in wire order. fn returning an error stops iteration and the error
// propagates to the caller.
func (cur *Cursor) Iterate(ctx context.Context, batch int, fn func(Row) error) error {
	for {
		resp, err := cur.FetchMany(ctx, batch)
		if err != nil {
			return err
		}
		if len(resp.Rows) == 0 {
			return nil
		}
		for _, row := range resp.Rows {
			if err := fn(row); err != nil {
				return err
			}
		}
		if len(resp.Rows) < batch {
			return nil
		}
	}
}

// Close closes the server-side cursor, commits the session transaction
// it was declared in, and tears down the pinned connection pool.
func (cur *Cursor) Close(ctx context.Context) error {
	cur.mu.Lock()
	defer cur.mu.Unlock()
	if cur.state != cursorStateOpen {
		return &CursorStateError{Operation: "close", State: cur.stateName()}
	}
	_, closeErr := cur.exec(ctx, fmt.Sprintf("CLOSE %s;", cur.name), nil)
	_, commitErr := cur.exec(ctx, "COMMIT;", nil)
	cur.transport.Close()
	cur.state = cursorStateClosed
	cur.logTransition("close")
	if closeErr != nil {
		return closeErr
	}
	return commitErr
}

func (cur *Cursor) exec(ctx context.Context, stmt string, args []interface{}) (*Response, error) {
	payload, err := Encode(execRequest{Stmt: stmt, Args: args})
	if err != nil {
		return nil, err
	}
	raw, err := cur.transport.Execute(ctx, payload)
	if err != nil {
		return nil, err
	}
	return buildResponse(raw, cur.client.cfg.Deserialization, cur.client.cfg.RowMode, cur.log)
}

func (cur *Cursor) logTransition(op string) {
	if cur.log != nil {
		cur.log.Debugf("cratedb: cursor %s %s -> %s", cur.name, op, cur.stateName())
	}
}

func (cur *Cursor) stateName() string {
	switch cur.state {
	case cursorStateNew:
		return "new"
	case cursorStateOpen:
		return "open"
	default:
		return "closed"
	}
}
