package source

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jeffkirdeikis/pulse-app-sub000/app/catalog"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

var _ Source = (*SQLiteSource)(nil)
var _ Inserter = (*SQLiteSource)(nil)

// SQLiteSource is a SQL implementation of the paginated source contract,
// also used as the sink for ingested submissions.
type SQLiteSource struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteSource{db: db}, nil
}

func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

// RunMigrations applies all pending migrations and returns version info.
func (s *SQLiteSource) RunMigrations() (uint, bool, error) {
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return 0, false, fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return 0, false, fmt.Errorf("failed to create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return 0, false, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return 0, false, fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}

	return version, dirty, nil
}

func (s *SQLiteSource) FetchPage(ctx context.Context, collection catalog.Collection, limit, offset int) ([]catalog.RawRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM records
		WHERE collection = ?
		ORDER BY id
		LIMIT ? OFFSET ?
	`, string(collection), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := make([]catalog.RawRecord, 0, limit)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}

		var record catalog.RawRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating record rows: %w", err)
	}

	return records, nil
}

// UpsertRecord stores an ingested submission, keyed by content hash for
// de-duplication. Returns false when an identical record already exists.
func (s *SQLiteSource) UpsertRecord(ctx context.Context, collection catalog.Collection, contentHash string, record catalog.RawRecord) (bool, error) {
	var existingID string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM records
		WHERE collection = ? AND content_hash = ?
		LIMIT 1
	`, string(collection), contentHash).Scan(&existingID)

	if err == nil {
		return false, nil
	}
	if err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to check duplicate: %w", err)
	}

	id := record.Str("id")
	if id == "" {
		id = uuid.NewString()
		record["id"] = id
	}

	data, err := json.Marshal(record)
	if err != nil {
		return false, fmt.Errorf("failed to encode record: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (id, collection, content_hash, data)
		VALUES (?, ?, ?, ?)
	`, id, string(collection), contentHash, string(data))
	if err != nil {
		return false, fmt.Errorf("failed to insert record: %w", err)
	}

	return true, nil
}
