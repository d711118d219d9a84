package eeprom

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// migrate runs on every open, so it must be idempotent.
//
//go:embed sql/migrate.sql
var migrate string

const queryTimeout = 2 * time.Second

// SQLite keeps the image in a sqlite database, one row per written address.
// Addresses that were never written read back as Erased.
type SQLite struct {
	mu     sync.Mutex
	db     *sql.DB
	size   int
	closed bool
}

// OpenSQLite opens or creates the database at filePath.
func OpenSQLite(filePath string, size int) (*SQLite, error) {
	const connectionParams = "?_pragma=busy_timeout(1000)&_pragma=journal_mode(WAL)"

	dataSourceName := fmt.Sprintf("%s%s", filePath, connectionParams)
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open connection: %q: %w", dataSourceName, err)
	}

	if _, err := db.Exec(migrate); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec migration: %w", err)
	}

	return &SQLite{db: db, size: size}, nil
}

// LoadByte returns the byte at addr.
func (s *SQLite) LoadByte(addr int) (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	if err := checkRange(addr, s.size); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var value int
	err := s.db.QueryRowContext(ctx, "SELECT Value FROM eeprom WHERE Addr = ?", addr).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return Erased, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query %d: %w", addr, err)
	}
	return byte(value), nil
}

// StoreByte writes b at addr.
func (s *SQLite) StoreByte(addr int, b byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := checkRange(addr, s.size); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	const query = "INSERT INTO eeprom (Addr, Value) VALUES (?, ?) ON CONFLICT(Addr) DO UPDATE SET Value = excluded.Value"
	if _, err := s.db.ExecContext(ctx, query, addr, int(b)); err != nil {
		return fmt.Errorf("exec %d: %w", addr, err)
	}
	return nil
}

// Size returns the number of addressable bytes.
func (s *SQLite) Size() int {
	return s.size
}

// Close closes the database.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
