package substrate

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAtlasStoreCommit(t *testing.T) {
	ctx := context.Background()
	s, err := OpenAtlasStore("file:atlas_commit_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if err := s.Exec(ctx, "CREATE TABLE counters (name TEXT PRIMARY KEY, value INTEGER)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if err := s.Exec(ctx, "INSERT INTO counters (name, value) VALUES ('x', 0)"); err != nil {
		t.Fatalf("seed row: %v", err)
	}

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := tx.Exec(ctx, "UPDATE counters SET value = value + 1 WHERE name = 'x'"); err != nil {
		t.Fatalf("exec in tx: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	var got int
	row := s.db.QueryRowContext(ctx, "SELECT value FROM counters WHERE name = 'x'")
	if err := row.Scan(&got); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if got != 1 {
		t.Errorf("value = %d, want 1", got)
	}
}

func TestAtlasStoreRollback(t *testing.T) {
	ctx := context.Background()
	s, err := OpenAtlasStore("file:atlas_rollback_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if err := s.Exec(ctx, "CREATE TABLE counters (name TEXT PRIMARY KEY, value INTEGER)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if err := s.Exec(ctx, "INSERT INTO counters (name, value) VALUES ('x', 5)"); err != nil {
		t.Fatalf("seed row: %v", err)
	}

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := tx.Exec(ctx, "UPDATE counters SET value = value + 100 WHERE name = 'x'"); err != nil {
		t.Fatalf("exec in tx: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	var got int
	row := s.db.QueryRowContext(ctx, "SELECT value FROM counters WHERE name = 'x'")
	if err := row.Scan(&got); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if got != 5 {
		t.Errorf("value = %d, want 5 (rollback should have discarded the update)", got)
	}
}

func TestAetherLinkSyncRoundTrip(t *testing.T) {
	srv := httptest.NewServer(NewEchoAetherServer())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	link, err := DialAether(context.Background(), wsURL)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer link.Close()

	ack, err := link.Sync(context.Background(), []byte("hello"))
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if string(ack) != "hello" {
		t.Errorf("ack = %q, want %q", ack, "hello")
	}
}

func TestAetherLinkSyncAfterCloseFails(t *testing.T) {
	srv := httptest.NewServer(NewEchoAetherServer())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	link, err := DialAether(context.Background(), wsURL)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	link.Close()

	if _, err := link.Sync(context.Background(), []byte("x")); err == nil {
		t.Errorf("expected Sync on a closed link to fail")
	}
}
