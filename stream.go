package cratedb

import "context"

// RowStream is a lazy, channel-backed iterator over a query's rows,
// fed by a background goroutine that fetches successive cursor batches.
// Modeled on a chunked async producer feeding a bounded channel: the
// consumer pulls with Next while the next batch is already in flight.
type RowStream struct {
	rows   chan Row
	errCh  chan error
	cursor *Cursor
	cancel context.CancelFunc
}

// StreamQuery opens a cursor over sql/args and returns a RowStream that
// fetches rows lazily in batches of batchSize. The cursor is closed
// automatically when the stream is drained, errors, or Close is called.
func (c *Client) StreamQuery(ctx context.Context, sql string, args []interface{}, batchSize int) (*RowStream, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	cur := c.CreateCursor(sql)
	if err := cur.Open(ctx, args); err != nil {
		return nil, err
	}
	return newRowStream(ctx, cur, batchSize), nil
}

func newRowStream(ctx context.Context, cur *Cursor, batchSize int) *RowStream {
	streamCtx, cancel := context.WithCancel(ctx)
	rs := &RowStream{
		rows:   make(chan Row),
		errCh:  make(chan error, 1),
		cursor: cur,
		cancel: cancel,
	}
	go rs.run(streamCtx, batchSize)
	return rs
}

func (rs *RowStream) run(ctx context.Context, batchSize int) {
	defer close(rs.rows)
	defer rs.cursor.Close(context.Background())

	for {
		resp, err := rs.cursor.FetchMany(ctx, batchSize)
		if err != nil {
			select {
			case rs.errCh <- err:
			default:
			}
			return
		}
		if len(resp.Rows) == 0 {
			return
		}
		for _, row := range resp.Rows {
			select {
			case rs.rows <- row:
			case <-ctx.Done():
				return
			}
		}
		if len(resp.Rows) < batchSize {
			return
		}
	}
}

// Next blocks until the next row is available, or returns ok=false once
// the stream is exhausted or closed. Check Err after ok is false to
// distinguish normal exhaustion from a fetch error.
func (rs *RowStream) Next() (Row, bool) {
	row, ok := <-rs.rows
	return row, ok
}

// Err returns the error that ended the stream, if any.
func (rs *RowStream) Err() error {
	select {
	case err := <-rs.errCh:
		return err
	default:
		return nil
	}
}

// Close stops the stream early and releases its cursor. Safe to call
// after the stream has already drained or errored.
func (rs *RowStream) Close() {
	rs.cancel()
}
