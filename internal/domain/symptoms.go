package domain

// SymptomCode identifies one element of the fixed symptom catalog. The
// catalog order is significant: it defines the index used by symptom vectors
// and disease weight tables, and it is the shared vocabulary between the
// extraction, scoring, and display layers.
type SymptomCode string

const (
	AbdominalPain       SymptomCode = "ABDOMINAL_PAIN"
	ChestPain           SymptomCode = "CHEST_PAIN"
	Cough               SymptomCode = "COUGH"
	Dehydration         SymptomCode = "DEHYDRATION"
	Diarrhea            SymptomCode = "DIARRHEA"
	Fever               SymptomCode = "FEVER"
	Headache            SymptomCode = "HEADACHE"
	Itching             SymptomCode = "ITCHING"
	MuscleAches         SymptomCode = "MUSCLE_ACHES"
	Nausea              SymptomCode = "NAUSEA"
	NeckStiffness       SymptomCode = "NECK_STIFFNESS"
	Photophobia         SymptomCode = "PHOTOPHOBIA"
	Polydipsia          SymptomCode = "POLYDIPSIA"
	Polyuria            SymptomCode = "POLYURIA"
	Rash                SymptomCode = "RASH"
	RespiratoryDistress SymptomCode = "RESPIRATORY_DISTRESS"
	RunnyNose           SymptomCode = "RUNNY_NOSE"
	Sneezing            SymptomCode = "SNEEZING"
	SoreThroat          SymptomCode = "SORE_THROAT"
	Stridor             SymptomCode = "STRIDOR"
	Vomiting            SymptomCode = "VOMITING"
	WeightLoss          SymptomCode = "WEIGHT_LOSS"
	Wheezing            SymptomCode = "WHEEZING"
)

// symptomCatalog is the canonical ordered catalog. Alphabetical by code; the
// order must never change without regenerating every weight vector.
var symptomCatalog = []SymptomCode{
	AbdominalPain,       // 0
	ChestPain,           // 1
	Cough,               // 2
	Dehydration,         // 3
	Diarrhea,            // 4
	Fever,               // 5
	Headache,            // 6
	Itching,             // 7
	MuscleAches,         // 8
	Nausea,              // 9
	NeckStiffness,       // 10
	Photophobia,         // 11
	Polydipsia,          // 12
	Polyuria,            // 13
	Rash,                // 14
	RespiratoryDistress, // 15
	RunnyNose,           // 16
	Sneezing,            // 17
	SoreThroat,          // 18
	Stridor,             // 19
	Vomiting,            // 20
	WeightLoss,          // 21
	Wheezing,            // 22
}

var symptomIndex = buildSymptomIndex()

func buildSymptomIndex() map[SymptomCode]int {
	idx := make(map[SymptomCode]int, len(symptomCatalog))
	for i, code := range symptomCatalog {
		idx[code] = i
	}
	return idx
}

// SymptomCatalog returns the ordered symptom catalog. Callers must treat the
// returned slice as read-only.
func SymptomCatalog() []SymptomCode {
	return symptomCatalog
}

// CatalogLength returns the number of symptoms in the catalog, i.e. the
// required length of every symptom vector and disease weight vector.
func CatalogLength() int {
	return len(symptomCatalog)
}

// SymptomIndex returns the vector index of a symptom code, or -1 when the
// code is outside the catalog.
func SymptomIndex(code SymptomCode) int {
	if i, ok := symptomIndex[code]; ok {
		return i
	}
	return -1
}

// IsValid reports whether the code belongs to the catalog.
func (c SymptomCode) IsValid() bool {
	_, ok := symptomIndex[c]
	return ok
}

// String returns the string representation of the symptom code.
func (c SymptomCode) String() string {
	return string(c)
}
