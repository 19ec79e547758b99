package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/symptom-triage-server/internal/domain"
	"github.com/symptom-triage-server/internal/history"
)

// TriageService runs one chat turn end to end: symptom extraction, lab
// context aggregation, scoring, explanation generation, and history
// persistence. The scoring engine stays pure; everything with I/O lives here.
type TriageService struct {
	logger    *logrus.Logger
	extractor domain.SymptomExtractor
	labRules  domain.LabInterpreter
	predictor domain.Predictor
	explainer domain.ExplanationGenerator
	store     history.Store
}

// NewTriageService creates a triage service. extractor, explainer, and store
// may be nil: without an extractor callers must supply a pre-built vector,
// and missing explainer/store degrade to skipped steps.
func NewTriageService(
	logger *logrus.Logger,
	extractor domain.SymptomExtractor,
	labRules domain.LabInterpreter,
	predictor domain.Predictor,
	explainer domain.ExplanationGenerator,
	store history.Store,
) *TriageService {
	return &TriageService{
		logger:    logger,
		extractor: extractor,
		labRules:  labRules,
		predictor: predictor,
		explainer: explainer,
		store:     store,
	}
}

// TurnParams describes one patient chat turn. Either Text (requiring an
// extractor) or Vector must be provided; Vector wins when both are set.
type TurnParams struct {
	PatientID string
	Day       string
	Text      string
	Vector    domain.SymptomVector
	LabItems  []domain.LabResultItem
}

// TurnResult bundles the diagnosis with turn metadata.
type TurnResult struct {
	Result         *domain.DiagnosisResult
	SymptomsFound  bool
	LabContext     *domain.LabContext
	ProcessingTime time.Duration
}

// ProcessTurn runs the full diagnostic workflow for one chat turn.
func (t *TriageService) ProcessTurn(ctx context.Context, params *TurnParams) (*TurnResult, error) {
	startTime := time.Now()

	t.logger.WithFields(logrus.Fields{
		"patient_id": params.PatientID,
		"day":        params.Day,
		"lab_items":  len(params.LabItems),
		"has_vector": params.Vector != nil,
	}).Info("Starting triage turn")

	// Step 1: Obtain the symptom vector.
	vector := params.Vector
	found := true
	if vector == nil {
		if t.extractor == nil {
			return nil, fmt.Errorf("process turn: no symptom vector and no extractor configured")
		}
		var err error
		vector, found, err = t.extractor.ExtractSymptoms(ctx, params.Text)
		if err != nil {
			return nil, fmt.Errorf("process turn: symptom extraction: %w", err)
		}
	}

	// A "no symptoms" extraction still runs through the engine: an all-zero
	// vector resolves to the undetermined result by contract.
	if !found {
		vector = make(domain.SymptomVector, domain.CatalogLength())
	}

	// Step 2: Aggregate lab context.
	labCtx := t.labRules.ApplyLabContext(params.LabItems)

	// Step 3: Score.
	result, err := t.predictor.Predict(vector, labCtx)
	if err != nil {
		return nil, fmt.Errorf("process turn: %w", err)
	}

	// Step 4: Explanations. A failed or missing explainer degrades to empty
	// prose; it never fails the diagnosis.
	if t.explainer != nil && !result.Undetermined() {
		patient, doctor, err := t.explainer.GenerateExplanations(ctx, result)
		if err != nil {
			t.logger.WithError(err).Warn("Explanation generation failed, continuing without prose")
		} else {
			result.PatientExplanation = patient
			result.DoctorExplanation = doctor
		}
	}

	// Step 5: Persist. Storage failures are logged, not surfaced: the
	// diagnosis already happened.
	if t.store != nil && params.PatientID != "" {
		if err := t.saveRecord(ctx, params, result); err != nil {
			t.logger.WithError(err).Warn("Failed to persist diagnosis history")
		}
	}

	turn := &TurnResult{
		Result:         result,
		SymptomsFound:  found,
		LabContext:     labCtx,
		ProcessingTime: time.Since(startTime),
	}

	t.logger.WithFields(logrus.Fields{
		"patient_id":      params.PatientID,
		"disease":         result.DiseaseName.String(),
		"undetermined":    result.Undetermined(),
		"lab_data":        labCtx.HasData,
		"processing_time": turn.ProcessingTime,
	}).Info("Triage turn completed")

	return turn, nil
}

// saveRecord maps a diagnosis result onto a history record.
func (t *TriageService) saveRecord(ctx context.Context, params *TurnParams, result *domain.DiagnosisResult) error {
	slicesJSON, err := json.Marshal(result.Slices)
	if err != nil {
		return fmt.Errorf("marshal slices: %w", err)
	}

	day := params.Day
	if day == "" {
		day = time.Now().Format("2006-01-02")
	}

	score := 0.0
	if len(result.Slices) > 0 {
		score = result.Slices[0].Score
	}

	return t.store.Save(ctx, &history.Record{
		PatientID:          params.PatientID,
		Day:                day,
		Complaint:          params.Text,
		Disease:            result.DiseaseName.String(),
		Label:              result.DiseaseLabel,
		Doctor:             result.Doctor,
		Score:              score,
		SlicesJSON:         string(slicesJSON),
		PatientExplanation: result.PatientExplanation,
		DoctorExplanation:  result.DoctorExplanation,
	})
}
