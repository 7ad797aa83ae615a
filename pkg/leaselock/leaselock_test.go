package leaselock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeRow struct {
	key string
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) > 0 {
		if p, ok := dest[0].(*string); ok {
			*p = r.key
		}
	}
	return nil
}

type fakeDB struct {
	mu    sync.Mutex
	locks map[string]string
}

func newFakeDB() *fakeDB {
	return &fakeDB{locks: map[string]string{}}
}

func (db *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	db.mu.Lock()
	defer db.mu.Unlock()

	key := args[0].(string)
	token := args[1].(string)

	switch sql {
	case tryAcquireSQL:
		if held, ok := db.locks[key]; ok && held != token {
			return fakeRow{err: pgx.ErrNoRows}
		}
		db.locks[key] = token
		return fakeRow{key: key}
	case renewSQL:
		if db.locks[key] != token {
			return fakeRow{err: pgx.ErrNoRows}
		}
		return fakeRow{key: key}
	}
	return fakeRow{err: pgx.ErrNoRows}
}

func (db *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if sql == releaseSQL {
		key := args[0].(string)
		token := args[1].(string)
		if db.locks[key] == token {
			delete(db.locks, key)
		}
	}
	return pgconn.CommandTag{}, nil
}

func TestAcquireBusy(t *testing.T) {
	db := newFakeDB()
	client := &Client{db: db}
	ctx := context.Background()

	lease, err := client.Acquire(ctx, "document:a", Options{})
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	defer lease.Release(ctx)

	if _, err := client.Acquire(ctx, "document:a", Options{}); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
}

func TestAcquireEmptyKey(t *testing.T) {
	client := &Client{db: newFakeDB()}
	if _, err := client.Acquire(context.Background(), "", Options{}); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestWithLeaseReleases(t *testing.T) {
	db := newFakeDB()
	client := &Client{db: db}

	ran := false
	err := client.WithLease(context.Background(), "document:b", Options{}, func(ctx context.Context) error {
		if ctx.Err() != nil {
			t.Fatal("lease context canceled during fn")
		}
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("WithLease failed: %v", err)
	}
	if !ran {
		t.Fatal("fn did not run")
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if len(db.locks) != 0 {
		t.Fatalf("lease not released, %d locks held", len(db.locks))
	}
}

func TestAcquireWaitsForRelease(t *testing.T) {
	db := newFakeDB()
	client := &Client{db: db}
	ctx := context.Background()

	lease, err := client.Acquire(ctx, "document:c", Options{})
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	go func() {
		time.Sleep(30 * time.Millisecond)
		lease.Release(ctx)
	}()

	second, err := client.Acquire(ctx, "document:c", Options{
		Wait:         true,
		WaitInterval: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("waiting acquire failed: %v", err)
	}
	second.Release(ctx)
}
