package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/symptom-triage-server/internal/domain"
	"github.com/symptom-triage-server/internal/repository"
	"github.com/symptom-triage-server/internal/service"
)

// DiagnoseRequest is the diagnosis turn payload. Either Text (routed through
// the symptom extractor) or Vector (pre-built, catalog-aligned) is required.
type DiagnoseRequest struct {
	PatientID  string                 `json:"patient_id"`
	Day        string                 `json:"day"`
	Text       string                 `json:"text"`
	Vector     []int                  `json:"vector"`
	LabResults []domain.LabResultItem `json:"lab_results"`
}

// DiagnoseResponse bundles the scored result with turn metadata.
type DiagnoseResponse struct {
	Result           *domain.DiagnosisResult `json:"result"`
	SymptomsFound    bool                    `json:"symptoms_found"`
	LabDataUsed      bool                    `json:"lab_data_used"`
	ProcessingTimeMS int64                   `json:"processing_time_ms"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	})
}

// handleDiagnose runs one full triage turn.
func (s *Server) handleDiagnose(c *gin.Context) {
	var req DiagnoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, domain.ErrCodeInvalidInput,
			"Invalid request body", err.Error())
		return
	}

	if req.Text == "" && req.Vector == nil {
		s.errorResponse(c, http.StatusBadRequest, domain.ErrCodeValidation,
			"Either text or vector is required", "")
		return
	}

	var vector domain.SymptomVector
	if req.Vector != nil {
		vector = domain.SymptomVector(req.Vector)
	}

	turn, err := s.triage.ProcessTurn(c.Request.Context(), &service.TurnParams{
		PatientID: req.PatientID,
		Day:       req.Day,
		Text:      req.Text,
		Vector:    vector,
		LabItems:  req.LabResults,
	})
	if err != nil {
		if errors.Is(err, domain.ErrVectorLength) {
			s.errorResponse(c, http.StatusBadRequest, domain.ErrCodeValidation,
				"Symptom vector has wrong length", err.Error())
			return
		}
		s.logger.WithError(err).Error("Diagnosis turn failed")
		s.errorResponse(c, http.StatusInternalServerError, domain.ErrCodeDiagnosis,
			"Diagnosis failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, DiagnoseResponse{
		Result:           turn.Result,
		SymptomsFound:    turn.SymptomsFound,
		LabDataUsed:      turn.LabContext.HasData,
		ProcessingTimeMS: turn.ProcessingTime.Milliseconds(),
	})
}

// LabInterpretRequest carries raw lab readings for standalone interpretation.
type LabInterpretRequest struct {
	Items []domain.LabResultItem `json:"items"`
}

// handleLabInterpret applies the marker rules without running a diagnosis,
// so a client can preview how uploaded lab results would shift the ranking.
func (s *Server) handleLabInterpret(c *gin.Context) {
	var req LabInterpretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, domain.ErrCodeInvalidInput,
			"Invalid request body", err.Error())
		return
	}

	labCtx := s.labRules.ApplyLabContext(req.Items)

	c.JSON(http.StatusOK, labCtx)
}

// handleHistory returns a patient's stored diagnosis records, newest first.
func (s *Server) handleHistory(c *gin.Context) {
	if s.store == nil {
		s.errorResponse(c, http.StatusServiceUnavailable, domain.ErrCodeConfiguration,
			"History store is not configured", "")
		return
	}

	patientID := c.Param("patient_id")
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	records, err := s.store.ListByPatient(c.Request.Context(), patientID, limit, offset)
	if err != nil {
		s.logger.WithError(err).Error("History lookup failed")
		s.errorResponse(c, http.StatusInternalServerError, domain.ErrCodeDatabaseError,
			"Failed to load history", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"patient_id": patientID,
		"count":      len(records),
		"records":    records,
	})
}

// AnnotationRequest is the doctor annotation payload.
type AnnotationRequest struct {
	PatientID        string `json:"patient_id" binding:"required"`
	Day              string `json:"day" binding:"required"`
	Author           string `json:"author" binding:"required"`
	ConfirmedDisease string `json:"confirmed_disease"`
	AgreesWithEngine bool   `json:"agrees_with_engine"`
	Note             string `json:"note"`
}

// handleCreateAnnotation stores a physician's verdict on an engine result.
func (s *Server) handleCreateAnnotation(c *gin.Context) {
	if s.annotations == nil {
		s.errorResponse(c, http.StatusServiceUnavailable, domain.ErrCodeConfiguration,
			"Annotations require server mode with a database", "")
		return
	}

	var req AnnotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, domain.ErrCodeInvalidInput,
			"Invalid request body", err.Error())
		return
	}

	if req.ConfirmedDisease != "" && !domain.Disease(req.ConfirmedDisease).IsValid() {
		s.errorResponse(c, http.StatusBadRequest, domain.ErrCodeValidation,
			"Unknown disease", req.ConfirmedDisease)
		return
	}

	annotation := &repository.Annotation{
		PatientID:        req.PatientID,
		Day:              req.Day,
		Author:           req.Author,
		ConfirmedDisease: req.ConfirmedDisease,
		AgreesWithEngine: req.AgreesWithEngine,
		Note:             req.Note,
	}

	if err := s.annotations.Create(c.Request.Context(), annotation); err != nil {
		s.logger.WithError(err).Error("Annotation create failed")
		s.errorResponse(c, http.StatusInternalServerError, domain.ErrCodeDatabaseError,
			"Failed to store annotation", err.Error())
		return
	}

	c.JSON(http.StatusCreated, annotation)
}

// handleListAnnotations returns a patient's annotations, newest first.
func (s *Server) handleListAnnotations(c *gin.Context) {
	if s.annotations == nil {
		s.errorResponse(c, http.StatusServiceUnavailable, domain.ErrCodeConfiguration,
			"Annotations require server mode with a database", "")
		return
	}

	patientID := c.Param("patient_id")
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	annotations, err := s.annotations.ListByPatient(c.Request.Context(), patientID, limit, offset)
	if err != nil {
		s.logger.WithError(err).Error("Annotation lookup failed")
		s.errorResponse(c, http.StatusInternalServerError, domain.ErrCodeDatabaseError,
			"Failed to load annotations", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"patient_id":  patientID,
		"count":       len(annotations),
		"annotations": annotations,
	})
}

// queryInt parses an integer query parameter with a fallback.
func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
