package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS journal (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	stream      TEXT    NOT NULL,
	kind        TEXT    NOT NULL,
	recorded_at INTEGER NOT NULL,
	body        TEXT    NOT NULL,
	meta        TEXT
);
CREATE INDEX IF NOT EXISTS journal_stream ON journal(stream, seq);
CREATE INDEX IF NOT EXISTS journal_recorded_at ON journal(recorded_at);
`

const selectRecords = "SELECT seq, stream, kind, recorded_at, body, meta FROM journal"

// SQLiteStore is the Store backed by a single sqlite file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens or creates the journal at path. ":memory:" gives a
// throwaway journal for tests and dry runs.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	memory := path == ":memory:"
	if !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, wrap(ErrDatabaseOpenFailed, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrap(ErrDatabaseOpenFailed, err)
	}
	// one connection: ":memory:" stays shared and writes are serialized
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.migrate(memory); err != nil {
		_ = db.Close()
		return nil, wrap(ErrInitializeSchemaFailed, err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate(memory bool) error {
	pragmas := []string{"PRAGMA busy_timeout = 5000"}
	if !memory {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL")
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return err
		}
	}

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}
	if version >= schemaVersion {
		return nil
	}
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	_, err := s.db.Exec("PRAGMA user_version = 1")
	return err
}

func (s *SQLiteStore) Append(ctx context.Context, r Record) (int64, error) {
	if r.At.IsZero() {
		r.At = s.now()
	}
	body := []byte(r.Body)
	if len(body) == 0 {
		body = []byte("{}")
	}
	var meta []byte
	if len(r.Meta) > 0 {
		var err error
		if meta, err = json.Marshal(r.Meta); err != nil {
			return 0, wrap(ErrEventAppendFailed, err)
		}
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO journal (stream, kind, recorded_at, body, meta) VALUES (?, ?, ?, ?, ?)",
		r.Stream, r.Kind, r.At.UnixMilli(), string(body), nullable(meta),
	)
	if err != nil {
		return 0, wrap(ErrEventAppendFailed, err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, wrap(ErrEventAppendFailed, err)
	}
	return seq, nil
}

func (s *SQLiteStore) Stream(ctx context.Context, stream string) ([]Record, error) {
	return s.query(ctx, selectRecords+" WHERE stream = ? ORDER BY seq", stream)
}

func (s *SQLiteStore) Since(ctx context.Context, from time.Time) ([]Record, error) {
	return s.query(ctx, selectRecords+" WHERE recorded_at >= ? ORDER BY seq", from.UnixMilli())
}

// Ping is used by the daemon health check.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) query(ctx context.Context, q string, arg any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, wrap(ErrEventQueryFailed, err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var (
			r    Record
			ms   int64
			body string
			meta sql.NullString
		)
		if err := rows.Scan(&r.Seq, &r.Stream, &r.Kind, &ms, &body, &meta); err != nil {
			return nil, wrap(ErrEventScanFailed, err)
		}
		r.At = time.UnixMilli(ms)
		r.Body = json.RawMessage(body)
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &r.Meta); err != nil {
				return nil, wrap(ErrEventScanFailed, err)
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(ErrEventScanFailed, err)
	}
	return out, nil
}

func nullable(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
