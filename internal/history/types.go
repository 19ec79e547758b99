// Package history provides per-patient diagnosis history storage. Each
// record captures one scored chat turn so the doctor portal can review how a
// patient's presentation evolved across days.
package history

import (
	"context"
	"io"
	"time"
)

// Record represents one persisted diagnosis turn.
type Record struct {
	ID                 int64     `json:"id,omitempty"`
	PatientID          string    `json:"patient_id"`
	Day                string    `json:"day"` // opaque day/session identifier, e.g. "2026-08-31"
	Complaint          string    `json:"complaint,omitempty"`
	Disease            string    `json:"disease"`
	Label              string    `json:"label"`
	Doctor             string    `json:"doctor"`
	Score              float64   `json:"score"` // top candidate confidence in [0,1]
	SlicesJSON         string    `json:"slices_json,omitempty"` // serialized ranked slices
	PatientExplanation string    `json:"patient_explanation,omitempty"`
	DoctorExplanation  string    `json:"doctor_explanation,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Store defines the interface for history storage operations.
type Store interface {
	// Save stores or updates the diagnosis record for a patient's day.
	// A second turn on the same (patient, day) overwrites the first.
	Save(ctx context.Context, record *Record) error

	// Get retrieves the record for a patient's day.
	Get(ctx context.Context, patientID, day string) (*Record, error)

	// ListByPatient returns a patient's records, newest first, with pagination.
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Record, error)

	// Count returns the total number of records.
	Count(ctx context.Context) (int64, error)

	// Delete removes a record by ID.
	Delete(ctx context.Context, id int64) error

	// ExportJSON exports all records to a JSON writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON imports records from a JSON reader.
	// Returns the number of imported and skipped entries.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	// Close closes the store and releases resources.
	Close() error
}

// Export represents the JSON export format.
type Export struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	Count      int       `json:"count"`
	Records    []*Record `json:"records"`
}
