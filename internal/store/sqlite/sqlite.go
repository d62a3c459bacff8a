package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/relaychat/internal/core"
)

const schema = `
	CREATE TABLE IF NOT EXISTS messages (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		user TEXT NOT NULL,
		text TEXT NOT NULL,
		ts   INTEGER NOT NULL
	)
`

// ErrInvalidPath is returned for a blank database path.
var ErrInvalidPath = errors.New("sqlite: empty database path")

// SQLiteStore implements store.HistoryStore for SQLite.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

// New opens the database at dbPath and checks the connection.
// Call Initialize before use.
func New(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, ErrInvalidPath
	}

	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; this also keeps
	// ":memory:" databases on one handle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{path: dbPath, db: db}, nil
}

// dsn appends the connection options, keeping any query the path already has.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_journal_mode=WAL&_busy_timeout=5000"
}

// Path returns the database location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Initialize creates the messages table if it does not exist.
func (s *SQLiteStore) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// LoadRecent returns up to limit of the newest messages, oldest first.
func (s *SQLiteStore) LoadRecent(ctx context.Context, limit int) ([]core.Message, error) {
	if limit <= 0 {
		return []core.Message{}, nil
	}

	query := `
		SELECT user, text, ts
		FROM messages
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	msgs := make([]core.Message, 0, limit)
	for rows.Next() {
		var msg core.Message
		if err := rows.Scan(&msg.User, &msg.Text, &msg.TS); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	// newest first from the query; callers want chronological order
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Insert appends a message and returns its row id.
func (s *SQLiteStore) Insert(ctx context.Context, msg core.Message) (int64, error) {
	query := `
		INSERT INTO messages (user, text, ts)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, msg.User, msg.Text, msg.TS)
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}
	return id, nil
}

// Count returns the number of stored messages.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
