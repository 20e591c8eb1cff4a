// Package substrate provides reference runtimes for the persist/
// atlas and aether effect-bearing opcodes the Celestial IR emits
// (§3.4, §4-DOMAIN). internal/ir and internal/lowering only ever emit
// atlas.begin/commit/rollback and substrate.enter/aether.sync — they
// never import this package. It exists so a test harness can show a
// persist/aether program actually taking effect end to end, grounded
// on the teacher's internal/database/db_manager.go connection/
// transaction lifecycle, trimmed from four SQL drivers to one
// embeddable, cgo-free one.
package substrate

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// AtlasStore is the reference runtime an atlas.begin/commit/rollback
// triple targets: one *sql.DB per module's persist substrate.
type AtlasStore struct {
	db *sql.DB
}

// OpenAtlasStore opens (creating if absent) a pure-Go SQLite database
// at dsn and verifies connectivity, mirroring db_manager.go's Connect.
func OpenAtlasStore(dsn string) (*AtlasStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("substrate: open atlas store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("substrate: ping atlas store: %w", err)
	}
	return &AtlasStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *AtlasStore) Close() error {
	return s.db.Close()
}

// Exec runs a statement outside of any transaction — used to set up
// schema ahead of a persist block in tests.
func (s *AtlasStore) Exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// TxHandle is the reference value an atlas.begin result materializes
// to: the live *sql.Tx that a matching commit/rollback closes.
type TxHandle struct {
	tx *sql.Tx
}

// Begin opens a transaction, the runtime counterpart of the
// atlas.begin opcode emitted at the top of a `persist { }` block.
func (s *AtlasStore) Begin(ctx context.Context) (*TxHandle, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("substrate: atlas.begin: %w", err)
	}
	return &TxHandle{tx: tx}, nil
}

// Exec runs a statement inside the open transaction.
func (h *TxHandle) Exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := h.tx.ExecContext(ctx, query, args...)
	return err
}

// Commit closes the transaction successfully — the atlas.commit opcode's
// runtime counterpart.
func (h *TxHandle) Commit() error {
	if err := h.tx.Commit(); err != nil {
		return fmt.Errorf("substrate: atlas.commit: %w", err)
	}
	return nil
}

// Rollback discards every statement run since Begin — the
// atlas.rollback opcode's runtime counterpart. Per the resolved open
// question on recover semantics, this is the only path that actually
// undoes side effects; a bare `recover` with no enclosing persist
// never reaches this code.
func (h *TxHandle) Rollback() error {
	if err := h.tx.Rollback(); err != nil {
		return fmt.Errorf("substrate: atlas.rollback: %w", err)
	}
	return nil
}
