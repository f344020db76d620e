package cratedb

import (
	"context"
	"testing"
)

func TestStreamQueryDrainsAllRowsThenExhausts(t *testing.T) {
	client, _ := newFakeCursorServer(t, 5)
	stream, err := client.StreamQuery(context.Background(), "SELECT n FROM t", nil, 2)
	assertNilF(t, err)

	var got []interface{}
	for {
		row, ok := stream.Next()
		if !ok {
			break
		}
		got = append(got, row.Array[0])
	}
	assertNilF(t, stream.Err())
	assertDeepEqualE(t, got, []interface{}{int64(0), int64(1), int64(2), int64(3), int64(4)})
}

func TestStreamQueryDefaultsBatchSizeTo100(t *testing.T) {
	client, fake := newFakeCursorServer(t, 150)
	stream, err := client.StreamQuery(context.Background(), "SELECT n FROM t", nil, 0)
	assertNilF(t, err)

	var got []interface{}
	for {
		row, ok := stream.Next()
		if !ok {
			break
		}
		got = append(got, row.Array[0])
	}
	assertNilF(t, stream.Err())
	assertEqualE(t, len(got), 150)
	// 150 rows at the default batch size of 100 => pages of 100, 50: two FETCH round trips.
	assertEqualE(t, fake.fetchCalls, 2)
}

func TestStreamQueryCloseStopsEarly(t *testing.T) {
	client, _ := newFakeCursorServer(t, 100)
	stream, err := client.StreamQuery(context.Background(), "SELECT n FROM t", nil, 10)
	assertNilF(t, err)

	row, ok := stream.Next()
	assertTrueF(t, ok, "expected at least one row before closing")
	assertEqualF(t, row.Array[0], int64(0))

	stream.Close()
	// draining after Close must terminate rather than block forever.
	for {
		_, ok := stream.Next()
		if !ok {
			break
		}
	}
}
