package domain

// Lexicon holds the display strings attached to a diagnosis: the
// human-readable disease label, the recommended specialist, and the first-aid
// recommendation text. It is injected into the engine so alternative string
// sets (e.g. per-locale) are a data swap, not a code path.
type Lexicon struct {
	Labels          map[Disease]string
	Doctors         map[Disease]string
	Recommendations map[Disease]string

	// Strings for the undetermined verdict and defensive fallbacks.
	UndeterminedLabel          string
	UndeterminedRecommendation string
	DefaultDoctor              string
	DefaultRecommendation      string
}

// Label returns the display label for a disease, falling back to the raw
// disease name when the lexicon has no entry. The fallback should not occur
// under correct configuration; it exists so a missing string never fails a
// request.
func (l Lexicon) Label(d Disease) string {
	if s, ok := l.Labels[d]; ok {
		return s
	}
	return d.String()
}

// Doctor returns the recommended specialist for a disease, falling back to
// the generic default.
func (l Lexicon) Doctor(d Disease) string {
	if s, ok := l.Doctors[d]; ok {
		return s
	}
	return l.DefaultDoctor
}

// Recommendation returns the first-aid recommendation for a disease, falling
// back to the generic default.
func (l Lexicon) Recommendation(d Disease) string {
	if s, ok := l.Recommendations[d]; ok {
		return s
	}
	return l.DefaultRecommendation
}

// DefaultLexicon returns the English string set shipped with the demo.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Labels: map[Disease]string{
			Gastroenteritis: "Gastroenteritis (Intestinal Infection)",
			Croup:           "Croup (Acute Laryngotracheitis)",
			ScarletFever:    "Scarlet Fever",
			Eczema:          "Eczema / Dermatitis",
			Asthma:          "Bronchial Asthma",
			Type1Diabetes:   "Type 1 Diabetes (Suspected)",
			Bronchiolitis:   "Bronchiolitis",
			Meningitis:      "Meningitis",
			Influenza:       "Influenza / ARVI",
			Pneumonia:       "Pneumonia",
			Chickenpox:      "Chickenpox",
			Appendicitis:    "Appendicitis",
			CommonCold:      "Common Cold (ARI)",
		},
		Doctors: map[Disease]string{
			Gastroenteritis: "Gastroenterologist / Infectious Disease Specialist",
			Croup:           "Pediatrician / Emergency (if choking)",
			ScarletFever:    "Infectious Disease Specialist / Pediatrician",
			Eczema:          "Dermatologist",
			Asthma:          "Pulmonologist / Allergist",
			Type1Diabetes:   "Endocrinologist (Urgent)",
			Bronchiolitis:   "Pediatrician / Pulmonologist",
			Meningitis:      "EMERGENCY (911) / Neurologist",
			Influenza:       "General Practitioner",
			Pneumonia:       "GP / Pulmonologist",
			Chickenpox:      "GP (home visit)",
			Appendicitis:    "EMERGENCY (Surgery)",
			CommonCold:      "General Practitioner",
		},
		Recommendations: map[Disease]string{
			Gastroenteritis: "Rehydration (ORS), diet (rice, crackers). For pain — antispasmodic.",
			Croup:           "Cool moist air (open window). Calm the child. If breathing is difficult — Pulmicort inhalation. If choking — call 911.",
			ScarletFever:    "Isolation. Plenty of fluids. Doctor required (antibiotics needed).",
			Eczema:          "Skin moisturizing (emollients). Avoid allergens. Antihistamines for itching.",
			Asthma:          "Inhaler (Salbutamol/Berodual). Sit the patient up. Ensure fresh air.",
			Type1Diabetes:   "Urgent blood sugar test. Plenty of fluids. See doctor immediately.",
			Bronchiolitis:   "Humidify air, nasal irrigation. Monitor breathing rate.",
			Meningitis:      "CALL EMERGENCY IMMEDIATELY. Life-threatening. Do not give painkillers before examination.",
			Influenza:       "Rest, plenty of fluids, Paracetamol/Ibuprofen if temp >38.5. No antibiotics without a doctor.",
			Pneumonia:       "Chest X-ray. Doctor will prescribe antibiotics. Breathing exercises.",
			Chickenpox:      "Don't scratch (Calamine/antiseptic). Antipyretic (NOT Aspirin!).",
			Appendicitis:    "Ice on abdomen. DO NOT drink, eat, or take painkillers. Call 911.",
			CommonCold:      "Warm fluids, nasal rinse, rest. Vitamin C.",
		},
		UndeterminedLabel:          "Could not determine",
		UndeterminedRecommendation: "Symptoms are non-specific or there is not enough data. Please describe the condition in more detail.",
		DefaultDoctor:              "General Practitioner",
		DefaultRecommendation:      "A doctor's consultation is required.",
	}
}
