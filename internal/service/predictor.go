package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/symptom-triage-server/internal/domain"
)

// Hand-tuned engine defaults. Kept as named constants so they can be pinned
// and tested independently of the algorithm shape.
const (
	// DefaultDecisionThreshold separates "confident enough to show a
	// diagnosis" from "too ambiguous".
	DefaultDecisionThreshold = 0.32
	// DefaultKeySymptomBoost / DefaultKeySymptomDampen are the multipliers
	// applied to a disease's raw score depending on its pathognomonic sign.
	DefaultKeySymptomBoost  = 1.3
	DefaultKeySymptomDampen = 0.6
	// DefaultMaxCandidates caps the slices attached to a result.
	DefaultMaxCandidates = 3
)

// DefaultEngineConfig returns the shipped engine tuning.
func DefaultEngineConfig() domain.EngineConfig {
	return domain.EngineConfig{
		DecisionThreshold: DefaultDecisionThreshold,
		KeySymptomBoost:   DefaultKeySymptomBoost,
		KeySymptomDampen:  DefaultKeySymptomDampen,
		MaxCandidates:     DefaultMaxCandidates,
	}
}

// PredictorService is the diagnostic scoring engine: a pure, synchronous
// mapping from one symptom vector (plus optional lab context) to a ranked
// diagnosis result. All tables are immutable and injected at construction,
// so a single instance is safely shared across concurrent requests.
type PredictorService struct {
	logger   *logrus.Logger
	models   *ModelTable
	keyRules map[domain.Disease]domain.KeySymptomRule
	lexicon  domain.Lexicon
	params   domain.EngineConfig
}

// diseaseScore is an ephemeral (disease, normalized score) pair produced and
// consumed within one Predict call.
type diseaseScore struct {
	name domain.Disease
	pct  float64
}

// NewPredictorService creates a scoring engine over the given tables.
func NewPredictorService(
	logger *logrus.Logger,
	models *ModelTable,
	keyRules map[domain.Disease]domain.KeySymptomRule,
	lexicon domain.Lexicon,
	params domain.EngineConfig,
) *PredictorService {
	if params.MaxCandidates <= 0 {
		params.MaxCandidates = DefaultMaxCandidates
	}
	return &PredictorService{
		logger:   logger,
		models:   models,
		keyRules: keyRules,
		lexicon:  lexicon,
		params:   params,
	}
}

// Predict scores every disease in the model table against the symptom vector
// and returns the ranked top candidates, or the canonical undetermined result
// when nothing clears the decision threshold.
//
// A nil lab context is equivalent to "no lab data". A vector of the wrong
// length is an input contract violation: the engine refuses to proceed with a
// misaligned vector rather than partially scoring it.
func (p *PredictorService) Predict(vector domain.SymptomVector, lab *domain.LabContext) (*domain.DiagnosisResult, error) {
	if err := vector.Validate(); err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if lab == nil {
		lab = domain.EmptyLabContext()
	}

	// No symptoms at all resolves to the undetermined result without
	// iterating the table; matchCount would be 0 for every disease anyway.
	if vector.TotalSeverity() == 0 {
		return p.undeterminedResult(), nil
	}

	scores := make([]diseaseScore, 0, p.models.Len())

	for _, disease := range p.models.Diseases() {
		model, _ := p.models.Model(disease)

		var score, maxScore float64
		matchCount := 0

		for i, weight := range model.Weights {
			if weight <= 0 {
				continue
			}
			maxScore += weight * domain.MaxSeverity
			if severity := vector[i]; severity > 0 {
				score += weight * float64(severity)
				matchCount++
			}
		}

		// A disease with zero symptom overlap is never a candidate,
		// regardless of lab data.
		if matchCount == 0 || maxScore == 0 {
			continue
		}

		// Pathognomonic sign multiplier. maxScore is left untouched: a
		// boosted score may reach, but never exceed, 100% after the clamp.
		if keyRule, ok := p.keyRules[disease]; ok {
			if keyRule.Satisfied(vector) {
				score *= p.params.KeySymptomBoost
			} else {
				score *= p.params.KeySymptomDampen
			}
		}

		// Lab adjustment: a positive delta also raises the ceiling so lab
		// boosts alone cannot push a disease past 100%; negative deltas
		// lower only the score.
		if adj, ok := lab.Adjustments[disease]; ok {
			score += adj
			if adj > 0 {
				maxScore += adj
			}
		}

		score = math.Max(score, 0)
		pct := math.Min(score/maxScore, 1)

		scores = append(scores, diseaseScore{name: disease, pct: pct})
	}

	sort.SliceStable(scores, func(i, j int) bool { return scores[i].pct > scores[j].pct })

	if len(scores) == 0 || scores[0].pct < p.params.DecisionThreshold {
		p.logger.WithFields(logrus.Fields{
			"candidates": len(scores),
			"threshold":  p.params.DecisionThreshold,
		}).Debug("No candidate cleared the decision threshold")
		return p.undeterminedResult(), nil
	}

	top := scores
	if len(top) > p.params.MaxCandidates {
		top = top[:p.params.MaxCandidates]
	}

	// Only the top candidate is threshold-gated; trailing slices may carry
	// arbitrarily low scores. The UI shows relative ranking, not
	// independently gated entries.
	slices := make([]domain.DiseaseSlice, 0, len(top))
	topNames := make([]domain.Disease, 0, len(top))
	for _, s := range top {
		slices = append(slices, domain.DiseaseSlice{
			Name:  s.name,
			Label: p.lexicon.Label(s.name),
			Score: s.pct,
		})
		topNames = append(topNames, s.name)
	}

	// Influences on diseases outside the top candidates were computed but
	// are dropped from the result.
	var influences []domain.LabInfluence
	for _, inf := range lab.Influences {
		if inf.Touches(topNames) {
			influences = append(influences, inf)
		}
	}

	top1 := top[0]
	result := &domain.DiagnosisResult{
		DiseaseName:    top1.name,
		DiseaseLabel:   p.lexicon.Label(top1.name),
		Doctor:         p.lexicon.Doctor(top1.name),
		Recommendation: p.lexicon.Recommendation(top1.name),
		Slices:         slices,
		LabInfluences:  influences,
	}

	p.logger.WithFields(logrus.Fields{
		"disease":        result.DiseaseName.String(),
		"confidence":     top1.pct,
		"candidates":     len(scores),
		"lab_influences": len(influences),
	}).Info("Diagnosis scored")

	return result, nil
}

// undeterminedResult builds the canonical fallback verdict.
func (p *PredictorService) undeterminedResult() *domain.DiagnosisResult {
	return &domain.DiagnosisResult{
		DiseaseName:    domain.DiseaseUnknown,
		DiseaseLabel:   p.lexicon.UndeterminedLabel,
		Doctor:         p.lexicon.DefaultDoctor,
		Recommendation: p.lexicon.UndeterminedRecommendation,
		Slices:         []domain.DiseaseSlice{},
	}
}
