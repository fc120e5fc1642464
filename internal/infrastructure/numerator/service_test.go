package numerator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "kardex/internal/core/numerator"
	"kardex/internal/core/tenant"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the receipt_sequences UPSERT: every call advances
// the counter for (owner, key) by the given increment and returns the new
// value, like RETURNING current_val.
type mockQuerier struct {
	mu       sync.Mutex
	counters map[string]int64
	calls    int
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{counters: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	owner, _ := args[0].(int64)
	key, _ := args[1].(string)
	seqKey := fmt.Sprintf("%d:%s", owner, key)

	var increment int64 = 1
	if len(args) > 2 {
		if v, ok := args[2].(int64); ok {
			increment = v
		} else if v, ok := args[2].(int); ok {
			increment = int64(v)
		}
	}

	if strings.Contains(sql, "DO UPDATE SET current_val = $3") {
		// SetNextNumber overwrites instead of incrementing.
		m.counters[seqKey] = increment
	} else {
		m.counters[seqKey] += increment
	}
	return &mockRow{val: m.counters[seqKey]}
}

func testScope(owner int64) tenant.Scope {
	return tenant.Scope{
		UserIDs:     []int64{owner},
		ActorUserID: owner,
		OwnerUserID: owner,
		BranchID:    1,
	}
}

func TestStrictNumbersAreSequential(t *testing.T) {
	svc := New(newMockQuerier())
	scope := testScope(7)
	period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		got, err := svc.NextNumber(context.Background(), scope, corenumerator.ReceiptConfig(), nil, period)
		if err != nil {
			t.Fatalf("NextNumber: %v", err)
		}
		want := fmt.Sprintf("RCT-2026-%05d", i)
		if got != want {
			t.Errorf("number %d: got %q, want %q", i, got, want)
		}
	}
}

func TestOwnersDoNotShareSequences(t *testing.T) {
	svc := New(newMockQuerier())
	period := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	first, err := svc.NextNumber(context.Background(), testScope(1), corenumerator.ReceiptConfig(), nil, period)
	if err != nil {
		t.Fatalf("NextNumber owner 1: %v", err)
	}
	second, err := svc.NextNumber(context.Background(), testScope(2), corenumerator.ReceiptConfig(), nil, period)
	if err != nil {
		t.Fatalf("NextNumber owner 2: %v", err)
	}

	if first != "RCT-2026-00001" || second != "RCT-2026-00001" {
		t.Errorf("each owner should start at 1, got %q and %q", first, second)
	}
}

func TestCachedStrategyReservesRanges(t *testing.T) {
	querier := newMockQuerier()
	svc := New(querier)
	scope := testScope(3)
	period := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	for i := 1; i <= 15; i++ {
		got, err := svc.NextNumber(context.Background(), scope, corenumerator.ReceiptConfig(), opts, period)
		if err != nil {
			t.Fatalf("NextNumber %d: %v", i, err)
		}
		want := fmt.Sprintf("RCT-2026-%05d", i)
		if got != want {
			t.Errorf("number %d: got %q, want %q", i, got, want)
		}
	}

	// 15 numbers from ranges of 10 need exactly two reservations.
	if querier.calls != 2 {
		t.Errorf("expected 2 range reservations, got %d queries", querier.calls)
	}
}

func TestYearResetChangesKey(t *testing.T) {
	svc := New(newMockQuerier())
	scope := testScope(9)

	dec := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := svc.NextNumber(context.Background(), scope, corenumerator.ReceiptConfig(), nil, dec); err != nil {
		t.Fatalf("NextNumber dec: %v", err)
	}
	got, err := svc.NextNumber(context.Background(), scope, corenumerator.ReceiptConfig(), nil, jan)
	if err != nil {
		t.Fatalf("NextNumber jan: %v", err)
	}
	if got != "RCT-2026-00001" {
		t.Errorf("new year should restart the sequence, got %q", got)
	}
}

func TestSetNextNumberDropsCachedRange(t *testing.T) {
	svc := New(newMockQuerier())
	scope := testScope(4)
	period := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	if _, err := svc.NextNumber(context.Background(), scope, corenumerator.ReceiptConfig(), opts, period); err != nil {
		t.Fatalf("NextNumber: %v", err)
	}
	if err := svc.SetNextNumber(context.Background(), scope, corenumerator.ReceiptConfig(), period, 100); err != nil {
		t.Fatalf("SetNextNumber: %v", err)
	}

	got, err := svc.NextNumber(context.Background(), scope, corenumerator.ReceiptConfig(), opts, period)
	if err != nil {
		t.Fatalf("NextNumber after set: %v", err)
	}
	if got != "RCT-2026-00101" {
		t.Errorf("expected sequence to continue from the set value, got %q", got)
	}
}

func TestRejectsInvalidScope(t *testing.T) {
	svc := New(newMockQuerier())

	_, err := svc.NextNumber(context.Background(), tenant.Scope{}, corenumerator.ReceiptConfig(), nil, time.Now())
	if err == nil {
		t.Fatal("expected an error for an empty scope")
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"RCT-2026-00042", 42},
		{"RCT-00007", 7},
		{"garbage", -1},
	}
	for _, tt := range tests {
		if got := ParseNumber(tt.in); got != tt.want {
			t.Errorf("ParseNumber(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
