// Package repository holds the pgx-backed persistence for doctor
// annotations, the server-mode feedback channel where physicians confirm or
// overrule the engine's assessment.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/symptom-triage-server/internal/domain"
)

// Annotation is one physician note attached to a patient's diagnosis day.
type Annotation struct {
	ID               int64     `json:"id"`
	PatientID        string    `json:"patient_id"`
	Day              string    `json:"day"`
	Author           string    `json:"author"`
	ConfirmedDisease string    `json:"confirmed_disease,omitempty"`
	AgreesWithEngine bool      `json:"agrees_with_engine"`
	Note             string    `json:"note,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// AnnotationRepository handles doctor annotation persistence
type AnnotationRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewAnnotationRepository creates a new annotation repository
func NewAnnotationRepository(db *pgxpool.Pool, logger *logrus.Logger) *AnnotationRepository {
	return &AnnotationRepository{
		db:  db,
		log: logger,
	}
}

// Create inserts a new annotation
func (r *AnnotationRepository) Create(ctx context.Context, annotation *Annotation) error {
	query := `
		INSERT INTO doctor_annotations (
			patient_id, day, author, confirmed_disease, agrees_with_engine, note
		) VALUES (
			$1, $2, $3, $4, $5, $6
		) RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		annotation.PatientID,
		annotation.Day,
		annotation.Author,
		annotation.ConfirmedDisease,
		annotation.AgreesWithEngine,
		annotation.Note,
	).Scan(&annotation.ID, &annotation.CreatedAt)

	if err != nil {
		r.log.WithFields(logrus.Fields{
			"patient_id": annotation.PatientID,
			"day":        annotation.Day,
			"error":      err,
		}).Error("Failed to create annotation")
		return fmt.Errorf("creating annotation: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"annotation_id": annotation.ID,
		"patient_id":    annotation.PatientID,
		"day":           annotation.Day,
	}).Info("Annotation created successfully")

	return nil
}

// GetByID retrieves an annotation by its ID
func (r *AnnotationRepository) GetByID(ctx context.Context, id int64) (*Annotation, error) {
	query := `
		SELECT id, patient_id, day, author, confirmed_disease, agrees_with_engine, note, created_at
		FROM doctor_annotations
		WHERE id = $1`

	var a Annotation
	err := r.db.QueryRow(ctx, query, id).Scan(
		&a.ID,
		&a.PatientID,
		&a.Day,
		&a.Author,
		&a.ConfirmedDisease,
		&a.AgreesWithEngine,
		&a.Note,
		&a.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("annotation not found: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("getting annotation by ID: %w", err)
	}

	return &a, nil
}

// ListByPatient returns a patient's annotations, newest first
func (r *AnnotationRepository) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Annotation, error) {
	query := `
		SELECT id, patient_id, day, author, confirmed_disease, agrees_with_engine, note, created_at
		FROM doctor_annotations
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing annotations: %w", err)
	}
	defer rows.Close()

	var result []*Annotation
	for rows.Next() {
		var a Annotation
		if err := rows.Scan(
			&a.ID, &a.PatientID, &a.Day, &a.Author,
			&a.ConfirmedDisease, &a.AgreesWithEngine, &a.Note, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning annotation: %w", err)
		}
		result = append(result, &a)
	}
	return result, rows.Err()
}

// Delete removes an annotation by ID
func (r *AnnotationRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM doctor_annotations WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting annotation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("annotation not found: %w", domain.ErrNotFound)
	}
	return nil
}
