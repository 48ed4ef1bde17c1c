package postgres

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/oraclenet/orchestrator/internal/domain"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "postgres")), mock
}

func TestLatestCursorNoRows(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT MAX\\(event_seq\\)").
		WithArgs("ROOCH-testnet", "0xoracle").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

	seq, ok, err := store.LatestCursor(context.Background(), "ROOCH-testnet", "0xoracle")
	if err != nil {
		t.Fatalf("latest cursor: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false when no rows exist, got seq=%d", seq)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLatestCursorWithRows(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT MAX\\(event_seq\\)").
		WithArgs("ROOCH-testnet", "0xoracle").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(uint64(42)))

	seq, ok, err := store.LatestCursor(context.Background(), "ROOCH-testnet", "0xoracle")
	if err != nil {
		t.Fatalf("latest cursor: %v", err)
	}
	if !ok || seq != 42 {
		t.Fatalf("expected {42, true}, got {%d, %v}", seq, ok)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecordAttemptInsertsOnConflictDoNothing(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("(?s)INSERT INTO orchestrator_events.*ON CONFLICT \\(chain, oracle_address, event_handle_id, event_seq\\) DO NOTHING").
		WillReturnResult(sqlmock.NewResult(0, 1))

	row := domain.EventRow{
		ID:            "row-1",
		Chain:         "ROOCH-testnet",
		OracleAddress: "0xoracle",
		EventHandleID: "handle-1",
		EventSeq:      1,
		Status:        domain.StatusSuccess,
	}
	if err := store.RecordAttempt(context.Background(), row); err != nil {
		t.Fatalf("record attempt: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPutKeeperUpsertsOnConflict(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("(?s)INSERT INTO orchestrator_keepers.*ON CONFLICT \\(chain, module\\) DO UPDATE").
		WithArgs("ROOCH-testnet", "oracles", "deadbeef").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.PutKeeper(context.Background(), domain.Keeper{
		Chain:      "ROOCH-testnet",
		Module:     "oracles",
		PrivateKey: "deadbeef",
	})
	if err != nil {
		t.Fatalf("put keeper: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
