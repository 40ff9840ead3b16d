package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Alias1177/SignalEngine/models"
)

func testSignal(id string, ts int64) models.PersistedSignal {
	return models.PersistedSignal{
		Signal: models.Signal{
			Type:       models.SignalBuy,
			Confidence: 0.7,
			Entry:      100,
			StopLoss:   98,
			TakeProfit: 104,
		},
		ID:        id,
		Pair:      "BTC/USDT",
		Timestamp: ts,
		Status:    models.StatusActive,
		Outcome:   models.OutcomePending,
		EntryTime: time.UnixMilli(ts),
	}
}

func TestMemoryStoreRetention(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(3, "")

	for i := 0; i < 5; i++ {
		if err := store.Append(ctx, testSignal(fmt.Sprintf("id-%d", i), int64(i))); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(List()) = %v, want 3", len(records))
	}

	// Newest first, oldest two evicted
	for i, wantID := range []string{"id-4", "id-3", "id-2"} {
		if records[i].ID != wantID {
			t.Errorf("records[%d].ID = %v, want %v", i, records[i].ID, wantID)
		}
	}
}

func TestMemoryStoreMonotonicStatus(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10, "")

	if err := store.Append(ctx, testSignal("id-1", 1)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if err := store.UpdateStatus(ctx, "id-1", models.StatusHitTP, models.OutcomeWin); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	// A later transition out of the terminal state is silently ignored
	if err := store.UpdateStatus(ctx, "id-1", models.StatusExpired, models.OutcomeLoss); err != nil {
		t.Fatalf("UpdateStatus() on terminal record error = %v", err)
	}

	records, _ := store.List(ctx)
	if records[0].Status != models.StatusHitTP {
		t.Errorf("Status = %v, want %v", records[0].Status, models.StatusHitTP)
	}
	if records[0].Outcome != models.OutcomeWin {
		t.Errorf("Outcome = %v, want %v", records[0].Outcome, models.OutcomeWin)
	}
}

func TestMemoryStoreEmptyOutcomePreserved(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10, "")

	if err := store.Append(ctx, testSignal("id-1", 1)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	// Status-only update must not blank out the pending outcome
	if err := store.UpdateStatus(ctx, "id-1", models.StatusActive, ""); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	records, _ := store.List(ctx)
	if records[0].Outcome != models.OutcomePending {
		t.Errorf("Outcome = %q, want %v", records[0].Outcome, models.OutcomePending)
	}
}

func TestMemoryStoreUnknownID(t *testing.T) {
	store := NewMemoryStore(10, "")

	err := store.UpdateStatus(context.Background(), "missing", models.StatusExpired, models.OutcomeLoss)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateStatus() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreClearAll(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10, "")

	store.Append(ctx, testSignal("id-1", 1))
	store.Append(ctx, testSignal("id-2", 2))

	if err := store.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}
	records, _ := store.List(ctx)
	if len(records) != 0 {
		t.Errorf("len(List()) after ClearAll = %v, want 0", len(records))
	}
}

func TestMemoryStoreFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.json")

	store := NewMemoryStore(10, path)
	store.Append(ctx, testSignal("id-1", 1))
	store.Append(ctx, testSignal("id-2", 2))

	reopened := NewMemoryStore(10, path)
	records, _ := reopened.List(ctx)
	if len(records) != 2 {
		t.Fatalf("restored %v records, want 2", len(records))
	}
	if records[0].ID != "id-2" {
		t.Errorf("records[0].ID = %v, want id-2", records[0].ID)
	}
}

func TestMemoryStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewMemoryStore(10, path)
	records, _ := store.List(context.Background())
	if len(records) != 0 {
		t.Errorf("corrupt file restored %v records, want 0", len(records))
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt file should be removed")
	}
}

func TestMemoryStoreDropsInvalidRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	// Second record is missing its id and pair
	data := `[
		{"id":"id-1","pair":"BTC/USDT","timestamp":1,"signal":{"type":"BUY"},"status":"ACTIVE"},
		{"timestamp":2,"signal":{"type":"SELL"},"status":"ACTIVE"}
	]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewMemoryStore(10, path)
	records, _ := store.List(context.Background())
	if len(records) != 1 {
		t.Fatalf("restored %v records, want 1", len(records))
	}
	if records[0].ID != "id-1" {
		t.Errorf("records[0].ID = %v, want id-1", records[0].ID)
	}
}
