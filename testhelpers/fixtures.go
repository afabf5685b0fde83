package testhelpers

import (
	"github.com/standardbeagle/medcat/internal/types"
)

// Well-known fixture ids
const (
	ADHDID         types.RecordID = "condition-adhd"
	AnxietyID      types.RecordID = "condition-generalized-anxiety-disorder"
	MIID           types.RecordID = "condition-myocardial-infarction"
	AnaphylaxisID  types.RecordID = "condition-anaphylaxis"
	AsthmaID       types.RecordID = "condition-asthma"
	HypertensionID types.RecordID = "condition-hypertension"
)

// ADHDAndAnxiety returns the two-record regression scenario. The ADHD
// record points at anxietyTarget; pass AnxietyID for a resolvable edge or
// "condition-anxiety" to reproduce the authored id mismatch.
func ADHDAndAnxiety(anxietyTarget types.RecordID) []types.ContentRecord {
	adhd := NewRecord(ADHDID, "Attention-Deficit/Hyperactivity Disorder").
		WithLevels(5).
		WithAlternateNames("ADHD", "ADD", "Hyperkinetic disorder").
		WithKeywords("attention", "hyperactivity", "impulsivity", "stimulant").
		WithSystems("psychiatry", "neurodevelopmental").
		WithICD11("6A05").
		WithLocalizedName("Trastorno por déficit de atención e hiperactividad").
		WithExam(types.ExamUSMLEStep1).
		WithCrossRef(anxietyTarget, "related", "Anxiety disorders").
		Build()

	anxiety := NewRecord(AnxietyID, "Generalized Anxiety Disorder").
		WithLevels(5).
		WithAlternateNames("GAD", "Anxiety").
		WithKeywords("worry", "anxiety", "SSRI").
		WithSystems("psychiatry").
		WithICD11("6B00").
		WithCrossRef(ADHDID, "comorbid", "ADHD").
		Build()

	return []types.ContentRecord{adhd, anxiety}
}

// Catalog returns a small mixed catalog covering every search tier and
// both critical and non-critical relevance.
func Catalog() []types.ContentRecord {
	records := ADHDAndAnxiety(AnxietyID)

	records = append(records,
		NewRecord(MIID, "Myocardial Infarction").
			WithLevels(3).
			WithAlternateNames("Heart attack", "MI", "STEMI").
			WithKeywords("chest pain", "troponin", "cardiac emergency").
			WithSystems("cardiovascular").
			WithICD11("BA41").
			Critical().
			WithCrossRef(HypertensionID, "risk-factor", "Hypertension").
			WithCrossRef("condition-unstable-angina", "differential", "Unstable angina").
			Build(),
		NewRecord(AnaphylaxisID, "Anaphylaxis").
			WithLevels(2).
			WithAlternateNames("Anaphylactic shock").
			WithKeywords("epinephrine", "allergy", "airway emergency").
			WithSystems("immunology").
			WithICD11("4A84").
			Critical().
			Build(),
		NewRecord(AsthmaID, "Asthma").
			WithLevels(4).
			WithAlternateNames("Reactive airway disease").
			WithKeywords("wheeze", "bronchospasm", "inhaler", "allergy").
			WithSystems("respiratory").
			WithRelevance(types.RelevanceHigh).
			WithLevel(4, "Severe acute asthma can progress to respiratory failure and is an emergency.").
			Build(),
		NewRecord(HypertensionID, "Hypertension").
			WithLevels(3).
			WithAlternateNames("High blood pressure").
			WithKeywords("blood pressure", "antihypertensive").
			WithSystems("cardiovascular").
			WithRelevance(types.RelevanceHigh).
			WithCrossRef(MIID, "complication", "Myocardial infarction").
			Build(),
	)
	return records
}

// CatalogCategories groups the Catalog fixture by specialty. Hypertension
// sits in two categories and anaphylaxis in none.
func CatalogCategories() map[string][]types.RecordID {
	return map[string][]types.RecordID{
		"psychiatry":   {ADHDID, AnxietyID},
		"cardiology":   {MIID, HypertensionID},
		"pulmonology":  {AsthmaID},
		"primary-care": {HypertensionID, AsthmaID},
	}
}
