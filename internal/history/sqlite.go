package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite. It is the
// standalone-mode backend: one local file, no external services.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite history store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord scans a row into a Record struct.
func scanRecord(s scanner) (*Record, error) {
	rec := &Record{}
	err := s.Scan(
		&rec.ID, &rec.PatientID, &rec.Day, &rec.Complaint,
		&rec.Disease, &rec.Label, &rec.Doctor, &rec.Score, &rec.SlicesJSON,
		&rec.PatientExplanation, &rec.DoctorExplanation,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS diagnosis_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		patient_id TEXT NOT NULL,
		day TEXT NOT NULL,
		complaint TEXT DEFAULT '',
		disease TEXT NOT NULL,
		label TEXT NOT NULL,
		doctor TEXT DEFAULT '',
		score REAL NOT NULL DEFAULT 0,
		slices_json TEXT DEFAULT '',
		patient_explanation TEXT DEFAULT '',
		doctor_explanation TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(patient_id, day)
	);

	CREATE INDEX IF NOT EXISTS idx_history_patient ON diagnosis_history(patient_id);
	CREATE INDEX IF NOT EXISTS idx_history_created_at ON diagnosis_history(created_at);
	`

	_, err := db.Exec(schema)
	return err
}

// Save stores or updates the diagnosis record for a patient's day.
func (s *SQLiteStore) Save(ctx context.Context, record *Record) error {
	now := time.Now()

	// Check if exists
	var existingID int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM diagnosis_history WHERE patient_id = ? AND day = ?",
		record.PatientID, record.Day,
	).Scan(&existingID)

	if err == nil {
		// Update existing
		record.ID = existingID
		record.UpdatedAt = now

		_, err = s.db.ExecContext(ctx, `
			UPDATE diagnosis_history SET
				complaint = ?,
				disease = ?,
				label = ?,
				doctor = ?,
				score = ?,
				slices_json = ?,
				patient_explanation = ?,
				doctor_explanation = ?,
				updated_at = ?
			WHERE id = ?
		`,
			record.Complaint,
			record.Disease,
			record.Label,
			record.Doctor,
			record.Score,
			record.SlicesJSON,
			record.PatientExplanation,
			record.DoctorExplanation,
			now,
			existingID,
		)
		return err
	}

	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check existing: %w", err)
	}

	// Insert new
	record.CreatedAt = now
	record.UpdatedAt = now

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO diagnosis_history (
			patient_id, day, complaint, disease, label, doctor, score,
			slices_json, patient_explanation, doctor_explanation,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.PatientID,
		record.Day,
		record.Complaint,
		record.Disease,
		record.Label,
		record.Doctor,
		record.Score,
		record.SlicesJSON,
		record.PatientExplanation,
		record.DoctorExplanation,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert ID: %w", err)
	}
	record.ID = id

	return nil
}

// Get retrieves the record for a patient's day.
func (s *SQLiteStore) Get(ctx context.Context, patientID, day string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, patient_id, day, complaint, disease, label, doctor, score,
			slices_json, patient_explanation, doctor_explanation,
			created_at, updated_at
		FROM diagnosis_history
		WHERE patient_id = ? AND day = ?
		LIMIT 1
	`, patientID, day)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	return rec, nil
}

// ListByPatient returns a patient's records, newest first, with pagination.
func (s *SQLiteStore) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, patient_id, day, complaint, disease, label, doctor, score,
			slices_json, patient_explanation, doctor_explanation,
			created_at, updated_at
		FROM diagnosis_history
		WHERE patient_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var result []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// Count returns the total number of records.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM diagnosis_history").Scan(&count)
	return count, err
}

// Delete removes a record by ID.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM diagnosis_history WHERE id = ?", id)
	return err
}

// maxExportLimit is the maximum number of entries to export at once.
const maxExportLimit = 1000000

// ExportJSON exports all records to a JSON writer.
func (s *SQLiteStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, patient_id, day, complaint, disease, label, doctor, score,
			slices_json, patient_explanation, doctor_explanation,
			created_at, updated_at
		FROM diagnosis_history
		ORDER BY created_at DESC
		LIMIT ?
	`, maxExportLimit)
	if err != nil {
		return fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var all []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		all = append(all, rec)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	export := &Export{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Count:      len(all),
		Records:    all,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// ImportJSON imports records from a JSON reader.
func (s *SQLiteStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
	var export Export
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return 0, 0, fmt.Errorf("failed to decode JSON: %w", err)
	}

	for _, rec := range export.Records {
		existing, err := s.Get(ctx, rec.PatientID, rec.Day)
		if err != nil {
			return imported, skipped, fmt.Errorf("failed to check existing: %w", err)
		}

		if existing != nil {
			skipped++
			continue
		}

		if err := s.Save(ctx, rec); err != nil {
			return imported, skipped, fmt.Errorf("failed to save: %w", err)
		}
		imported++
	}

	return imported, skipped, nil
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
