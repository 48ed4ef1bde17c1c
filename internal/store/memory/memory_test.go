package memory

import (
	"context"
	"testing"

	"github.com/oraclenet/orchestrator/internal/domain"
)

func TestRecordAttemptIsIdempotent(t *testing.T) {
	s := New()
	ctx := context.Background()

	row := domain.EventRow{
		ID:            "row-1",
		Chain:         "ROOCH",
		OracleAddress: "0xabc",
		EventHandleID: "handle-1",
		EventSeq:      5,
		Status:        domain.StatusSuccess,
	}

	if err := s.RecordAttempt(ctx, row); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := s.RecordAttempt(ctx, row); err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}

	rows := s.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected exactly one row after duplicate insert, got %d", len(rows))
	}
}

func TestLatestCursorMonotonic(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, seq := range []uint64{1, 2, 5, 3} {
		row := domain.EventRow{
			ID:            seqID(seq),
			Chain:         "ROOCH",
			OracleAddress: "0xabc",
			EventHandleID: "handle-1",
			EventSeq:      seq,
			Status:        domain.StatusSuccess,
		}
		if err := s.RecordAttempt(ctx, row); err != nil {
			t.Fatalf("record attempt seq=%d: %v", seq, err)
		}
	}

	cursor, ok, err := s.LatestCursor(ctx, "ROOCH", "0xabc")
	if err != nil {
		t.Fatalf("latest cursor: %v", err)
	}
	if !ok {
		t.Fatalf("expected cursor to exist")
	}
	if cursor != 5 {
		t.Fatalf("expected cursor 5 (max seen), got %d", cursor)
	}
}

func TestLatestCursorMissing(t *testing.T) {
	s := New()
	_, ok, err := s.LatestCursor(context.Background(), "ROOCH", "0xabc")
	if err != nil {
		t.Fatalf("latest cursor: %v", err)
	}
	if ok {
		t.Fatalf("expected no cursor for unseen (chain, oracle) pair")
	}
}

func seqID(seq uint64) string {
	return "row-" + string(rune('0'+seq))
}
