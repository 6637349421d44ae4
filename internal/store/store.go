// Package store persists finalized incident records. Records are append-only:
// there is no update or delete.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/ppiankov/intake/internal/model"
)

var (
	// ErrNotFound is returned when no record has the requested ID
	ErrNotFound = errors.New("record not found")

	// ErrNotValidated is returned for records that did not pass normalization
	ErrNotValidated = errors.New("record is not validated")
)

const schema = `
CREATE TABLE IF NOT EXISTS incidents (
	id                     TEXT PRIMARY KEY,
	created_at             TIMESTAMP NOT NULL,
	transcript             TEXT NOT NULL,
	draft_source           TEXT NOT NULL,
	provider               TEXT NOT NULL DEFAULT '',
	category               TEXT NOT NULL,
	urgency                TEXT NOT NULL,
	address                TEXT NOT NULL,
	current_danger         BOOLEAN NOT NULL,
	people_involved        INTEGER NOT NULL,
	weapons                BOOLEAN NOT NULL,
	recommended_department TEXT NOT NULL,
	summary                TEXT NOT NULL,
	confidence_score       REAL NOT NULL,
	validation_notes       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_incidents_created_at ON incidents (created_at);
CREATE INDEX IF NOT EXISTS idx_incidents_category ON incidents (category);
`

// row is the flat database shape of a record
type row struct {
	ID                    string    `db:"id"`
	CreatedAt             time.Time `db:"created_at"`
	Transcript            string    `db:"transcript"`
	DraftSource           string    `db:"draft_source"`
	Provider              string    `db:"provider"`
	Category              string    `db:"category"`
	Urgency               string    `db:"urgency"`
	Address               string    `db:"address"`
	CurrentDanger         bool      `db:"current_danger"`
	PeopleInvolved        int       `db:"people_involved"`
	Weapons               bool      `db:"weapons"`
	RecommendedDepartment string    `db:"recommended_department"`
	Summary               string    `db:"summary"`
	ConfidenceScore       float64   `db:"confidence_score"`
	ValidationNotes       string    `db:"validation_notes"`
}

// Store is an append-only SQLite record store
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory database.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
		dsn = "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL"
	}

	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// one connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Append inserts a validated record. A missing ID or timestamp is assigned.
func (s *Store) Append(ctx context.Context, rec *model.Record) error {
	if rec == nil {
		return errors.New("nil record")
	}
	if !rec.Incident.Validated {
		return ErrNotValidated
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	r, err := toRow(rec)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO incidents (
			id, created_at, transcript, draft_source, provider,
			category, urgency, address, current_danger, people_involved,
			weapons, recommended_department, summary, confidence_score, validation_notes
		) VALUES (
			:id, :created_at, :transcript, :draft_source, :provider,
			:category, :urgency, :address, :current_danger, :people_involved,
			:weapons, :recommended_department, :summary, :confidence_score, :validation_notes
		)`

	if _, err := s.db.NamedExecContext(ctx, query, r); err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}

// Get retrieves a record by ID
func (s *Store) Get(ctx context.Context, id string) (*model.Record, error) {
	var r row
	err := s.db.GetContext(ctx, &r, `SELECT * FROM incidents WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return r.toRecord()
}

// List returns the most recent records, newest first. limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, limit int) ([]*model.Record, error) {
	query := `SELECT * FROM incidents ORDER BY created_at DESC, id`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []row
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	records := make([]*model.Record, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// CategoryCount is the number of stored records of one category
type CategoryCount struct {
	Category string `db:"category"`
	Count    int    `db:"count"`
}

// CountByCategory summarizes stored records per category
func (s *Store) CountByCategory(ctx context.Context) ([]CategoryCount, error) {
	var counts []CategoryCount
	query := `SELECT category, COUNT(*) AS count FROM incidents GROUP BY category ORDER BY count DESC, category`
	if err := s.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}
	return counts, nil
}

func toRow(rec *model.Record) (*row, error) {
	notes := rec.Incident.ValidationNotes
	if notes == nil {
		notes = []string{}
	}
	encoded, err := json.Marshal(notes)
	if err != nil {
		return nil, fmt.Errorf("encode notes: %w", err)
	}

	inc := rec.Incident
	return &row{
		ID:                    rec.ID,
		CreatedAt:             rec.CreatedAt.UTC(),
		Transcript:            rec.Transcript,
		DraftSource:           string(rec.DraftSource),
		Provider:              rec.Provider,
		Category:              string(inc.Category),
		Urgency:               string(inc.Urgency),
		Address:               inc.Address,
		CurrentDanger:         inc.CurrentDanger,
		PeopleInvolved:        inc.PeopleInvolved,
		Weapons:               inc.Weapons,
		RecommendedDepartment: inc.RecommendedDepartment,
		Summary:               inc.Summary,
		ConfidenceScore:       inc.ConfidenceScore,
		ValidationNotes:       string(encoded),
	}, nil
}

func (r *row) toRecord() (*model.Record, error) {
	var notes []string
	if err := json.Unmarshal([]byte(r.ValidationNotes), &notes); err != nil {
		return nil, fmt.Errorf("decode notes of %s: %w", r.ID, err)
	}

	return &model.Record{
		ID:          r.ID,
		CreatedAt:   r.CreatedAt,
		Transcript:  r.Transcript,
		DraftSource: model.DraftSource(r.DraftSource),
		Provider:    r.Provider,
		Incident: model.Incident{
			Urgency:               model.Urgency(r.Urgency),
			Category:              model.Category(r.Category),
			Address:               r.Address,
			CurrentDanger:         r.CurrentDanger,
			PeopleInvolved:        r.PeopleInvolved,
			Weapons:               r.Weapons,
			RecommendedDepartment: r.RecommendedDepartment,
			Summary:               r.Summary,
			ConfidenceScore:       r.ConfidenceScore,
			Validated:             true,
			ValidationNotes:       notes,
		},
	}, nil
}
