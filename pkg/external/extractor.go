package external

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/symptom-triage-server/internal/domain"
)

// ExtractorClient implements domain.SymptomExtractor over a chat-completions
// endpoint: it asks the model for a {"SYMPTOM_CODE": severity} JSON object
// restricted to the catalog and maps the reply onto a symptom vector.
type ExtractorClient struct {
	llm    *LLMClient
	logger *logrus.Logger
	prompt string
}

// NewExtractorClient creates a symptom extraction client.
func NewExtractorClient(config domain.LLMConfig, logger *logrus.Logger) *ExtractorClient {
	return &ExtractorClient{
		llm:    NewLLMClient(config),
		logger: logger,
		prompt: buildExtractionPrompt(),
	}
}

// buildExtractionPrompt embeds the allowed symptom list so the model cannot
// invent codes outside the catalog.
func buildExtractionPrompt() string {
	codes := make([]string, 0, domain.CatalogLength())
	for _, code := range domain.SymptomCatalog() {
		codes = append(codes, code.String())
	}

	return `You are a medical symptom extractor for a triage system.
Parse the patient's text and output a JSON object of detected symptoms with severity.

ALLOWED SYMPTOM CODES: [` + strings.Join(codes, ", ") + `]

Rules:
- Return ONLY a valid JSON object: {"SYMPTOM_CODE": severity}
- Severity is an integer 1 (mild), 2 (clearly present), or 3 (severe). Never 0, decimals, or values above 3.
- Only include symptoms explicitly found or clearly implied in the text.
- If the patient denies a symptom ("no fever"), do NOT include it.
- Barking cough or noisy inspiration maps to STRIDOR; expiratory whistling to WHEEZING.
- Ignore anything not in the allowed list.
- If no symptoms are found, return {}.`
}

// ExtractSymptoms parses free text into a catalog-aligned severity vector.
// found is false when the model reports no recognizable symptoms.
func (c *ExtractorClient) ExtractSymptoms(ctx context.Context, text string) (domain.SymptomVector, bool, error) {
	reply, err := c.llm.Complete(ctx, c.prompt, text)
	if err != nil {
		return nil, false, fmt.Errorf("symptom extraction: %w", err)
	}

	vector, found, err := ParseSymptomReply(reply)
	if err != nil {
		return nil, false, fmt.Errorf("symptom extraction: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"found":          found,
		"total_severity": vector.TotalSeverity(),
	}).Debug("Extracted symptom vector")

	return vector, found, nil
}

// ParseSymptomReply turns a model reply into a symptom vector. Unknown codes
// are dropped, severities are clamped into [1, MaxSeverity], and markdown
// fences around the JSON are tolerated.
func ParseSymptomReply(reply string) (domain.SymptomVector, bool, error) {
	cleaned := stripCodeFences(reply)

	var raw map[string]int
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, false, fmt.Errorf("invalid extraction reply: %w", err)
	}

	vector := make(domain.SymptomVector, domain.CatalogLength())
	found := false
	for code, severity := range raw {
		idx := domain.SymptomIndex(domain.SymptomCode(code))
		if idx < 0 {
			continue // outside the catalog
		}
		if severity < 1 {
			severity = 1
		}
		if severity > domain.MaxSeverity {
			severity = domain.MaxSeverity
		}
		vector[idx] = severity
		found = true
	}

	return vector, found, nil
}

// stripCodeFences removes a surrounding markdown code block, which chat
// models frequently add around JSON replies.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
