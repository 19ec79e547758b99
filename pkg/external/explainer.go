package external

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/symptom-triage-server/internal/domain"
)

// ExplainerClient implements domain.ExplanationGenerator: it turns a ranked
// diagnosis into two register-matched texts, one for the patient and one for
// the doctor.
type ExplainerClient struct {
	llm    *LLMClient
	logger *logrus.Logger
}

// NewExplainerClient creates an explanation generation client.
func NewExplainerClient(config domain.LLMConfig, logger *logrus.Logger) *ExplainerClient {
	return &ExplainerClient{
		llm:    NewLLMClient(config),
		logger: logger,
	}
}

const explanationSystemPrompt = `You are a pediatric triage assistant writing explanations of a preliminary diagnostic assessment.
Given the ranked candidates, write two texts:
- "patient": 2-3 calm, plain-language sentences for a parent. No percentages, no medical jargon, no alarmism. End by naming the recommended specialist.
- "doctor": 2-4 clinical sentences for the receiving physician. Mention the leading candidates with their confidence values and any laboratory findings that shifted the ranking.

This is a preliminary rules-based assessment, not a diagnosis. Never present it as definitive.
Return ONLY a valid JSON object: {"patient": "...", "doctor": "..."}`

// explanationReply is the expected model reply shape.
type explanationReply struct {
	Patient string `json:"patient"`
	Doctor  string `json:"doctor"`
}

// GenerateExplanations produces patient- and doctor-facing prose for a result.
func (c *ExplainerClient) GenerateExplanations(ctx context.Context, result *domain.DiagnosisResult) (string, string, error) {
	userPrompt, err := buildExplanationPrompt(result)
	if err != nil {
		return "", "", fmt.Errorf("explanation generation: %w", err)
	}

	reply, err := c.llm.Complete(ctx, explanationSystemPrompt, userPrompt)
	if err != nil {
		return "", "", fmt.Errorf("explanation generation: %w", err)
	}

	var parsed explanationReply
	if err := json.Unmarshal([]byte(stripCodeFences(reply)), &parsed); err != nil {
		return "", "", fmt.Errorf("explanation generation: invalid reply: %w", err)
	}
	if parsed.Patient == "" && parsed.Doctor == "" {
		return "", "", fmt.Errorf("explanation generation: empty reply")
	}

	c.logger.WithField("disease", result.DiseaseName.String()).Debug("Generated explanations")

	return parsed.Patient, parsed.Doctor, nil
}

// buildExplanationPrompt serializes the result into a compact briefing for
// the model.
func buildExplanationPrompt(result *domain.DiagnosisResult) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "Assessment: %s (recommended specialist: %s)\n", result.DiseaseLabel, result.Doctor)
	if result.Recommendation != "" {
		fmt.Fprintf(&b, "Recommendation: %s\n", result.Recommendation)
	}

	b.WriteString("Ranked candidates:\n")
	for i, slice := range result.Slices {
		fmt.Fprintf(&b, "%d. %s (confidence %.2f)\n", i+1, slice.Label, slice.Score)
	}

	if len(result.LabInfluences) > 0 {
		b.WriteString("Laboratory findings affecting the ranking:\n")
		for _, inf := range result.LabInfluences {
			names := make([]string, 0, len(inf.Diseases))
			for _, d := range inf.Diseases {
				names = append(names, d.String())
			}
			fmt.Fprintf(&b, "- %s %s: %s for %s (delta %+.1f)\n",
				inf.MarkerName, inf.Direction, string(inf.Effect), strings.Join(names, ", "), inf.Delta)
		}
	}

	return b.String(), nil
}
