package types

import (
	"sort"
	"strings"
	"time"
)

// Common catalog-wide constants
const (
	// DefaultMaxRecordFileSize caps a single content file read by the loader.
	DefaultMaxRecordFileSize = 8 * 1024 * 1024

	// ICD11SystemURI is the canonical system for ICD-11 MMS codes
	ICD11SystemURI = "http://id.who.int/icd/release/11/mms"
)

// RecordID is the stable identifier of a content record ("condition-adhd").
// Ids are never reused after deletion.
type RecordID string

func (id RecordID) String() string {
	return string(id)
}

// RecordType distinguishes the kind of content a record describes
type RecordType string

const (
	RecordTypeCondition RecordType = "condition"
	RecordTypeTopic     RecordType = "topic"
	RecordTypeDrug      RecordType = "drug"
	RecordTypeProcedure RecordType = "procedure"
	RecordTypeExamTopic RecordType = "exam-topic"
)

// Valid reports whether t is one of the known record kinds
func (t RecordType) Valid() bool {
	switch t {
	case RecordTypeCondition, RecordTypeTopic, RecordTypeDrug, RecordTypeProcedure, RecordTypeExamTopic:
		return true
	}
	return false
}

// Status is the editorial state of a record
type Status string

const (
	StatusDraft     Status = "draft"
	StatusReview    Status = "review"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusReview, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// ClinicalRelevance is the closed urgency scale attached to every record.
// Critical marks emergencies.
type ClinicalRelevance string

const (
	RelevanceLow      ClinicalRelevance = "low"
	RelevanceModerate ClinicalRelevance = "moderate"
	RelevanceHigh     ClinicalRelevance = "high"
	RelevanceCritical ClinicalRelevance = "critical"
)

func (r ClinicalRelevance) Valid() bool {
	switch r {
	case RelevanceLow, RelevanceModerate, RelevanceHigh, RelevanceCritical:
		return true
	}
	return false
}

// ExamBoard names a licensing exam a record can be flagged as relevant to
type ExamBoard string

const (
	ExamUSMLEStep1 ExamBoard = "usmleStep1"
	ExamUSMLEStep2 ExamBoard = "usmleStep2"
	ExamUSMLEStep3 ExamBoard = "usmleStep3"
	ExamCOMLEX     ExamBoard = "comlex"
	ExamNCLEX      ExamBoard = "nclex"
	ExamPANCE      ExamBoard = "pance"
)

// ExamBoards lists every board accepted in ExamRelevance, in display order
var ExamBoards = []ExamBoard{ExamUSMLEStep1, ExamUSMLEStep2, ExamUSMLEStep3, ExamCOMLEX, ExamNCLEX, ExamPANCE}

func (b ExamBoard) Valid() bool {
	for _, known := range ExamBoards {
		if b == known {
			return true
		}
	}
	return false
}

// ExamRelevance holds per-board relevance flags. Keys outside ExamBoards are
// rejected at load time.
type ExamRelevance map[ExamBoard]bool

// Has reports whether the record is flagged for board
func (e ExamRelevance) Has(board ExamBoard) bool {
	return e[board]
}

// Boards returns the flagged boards in ExamBoards order
func (e ExamRelevance) Boards() []ExamBoard {
	out := make([]ExamBoard, 0, len(e))
	for _, b := range ExamBoards {
		if e[b] {
			out = append(out, b)
		}
	}
	return out
}

// Tags classify a record for grouping and search
type Tags struct {
	Systems           []string          `json:"systems" yaml:"systems"`
	Topics            []string          `json:"topics" yaml:"topics"`
	Keywords          []string          `json:"keywords" yaml:"keywords"`
	ClinicalRelevance ClinicalRelevance `json:"clinicalRelevance" yaml:"clinicalRelevance"`
	ExamRelevance     ExamRelevance     `json:"examRelevance,omitempty" yaml:"examRelevance,omitempty"`
}

// KeyTerm is a glossary entry attached to a level
type KeyTerm struct {
	Term          string `json:"term" yaml:"term"`
	Definition    string `json:"definition" yaml:"definition"`
	Pronunciation string `json:"pronunciation,omitempty" yaml:"pronunciation,omitempty"`
}

// ContentLevel is one progressive-disclosure tier of a record, from lay
// summary (level 1) up to expert detail.
type ContentLevel struct {
	Level                   int       `json:"level" yaml:"level"`
	Summary                 string    `json:"summary" yaml:"summary"`
	Explanation             string    `json:"explanation" yaml:"explanation"`
	KeyTerms                []KeyTerm `json:"keyTerms" yaml:"keyTerms"`
	Analogies               []string  `json:"analogies,omitempty" yaml:"analogies,omitempty"`
	Examples                []string  `json:"examples,omitempty" yaml:"examples,omitempty"`
	PatientCounselingPoints []string  `json:"patientCounselingPoints,omitempty" yaml:"patientCounselingPoints,omitempty"`
	ClinicalNotes           []string  `json:"clinicalNotes,omitempty" yaml:"clinicalNotes,omitempty"`
}

// Media is an opaque descriptor for an image, diagram or video
type Media struct {
	ID          string `json:"id" yaml:"id"`
	Type        string `json:"type" yaml:"type"`
	Filename    string `json:"filename" yaml:"filename"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Citation is an opaque bibliographic reference
type Citation struct {
	ID      string   `json:"id" yaml:"id"`
	Type    string   `json:"type" yaml:"type"`
	Title   string   `json:"title" yaml:"title"`
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Source  string   `json:"source,omitempty" yaml:"source,omitempty"`
	Year    int      `json:"year,omitempty" yaml:"year,omitempty"`
	URL     string   `json:"url,omitempty" yaml:"url,omitempty"`
}

// CrossReference is a directed, labeled edge to another record. Only the
// target id is stored; resolution happens lazily one hop at a time.
type CrossReference struct {
	TargetID     RecordID   `json:"targetId" yaml:"targetId"`
	TargetType   RecordType `json:"targetType" yaml:"targetType"`
	Relationship string     `json:"relationship" yaml:"relationship"`
	Label        string     `json:"label" yaml:"label"`
}

// ContentRecord is one condition or topic entry in the catalog
type ContentRecord struct {
	ID              RecordID             `json:"id" yaml:"id"`
	Type            RecordType           `json:"type" yaml:"type"`
	Name            string               `json:"name" yaml:"name"`
	AlternateNames  []string             `json:"alternateNames" yaml:"alternateNames"`
	LocalizedName   string               `json:"localizedName,omitempty" yaml:"localizedName,omitempty"`
	ICD11Code       string               `json:"icd11Code,omitempty" yaml:"icd11Code,omitempty"`
	SNOMEDCode      string               `json:"snomedCode,omitempty" yaml:"snomedCode,omitempty"`
	Levels          map[int]ContentLevel `json:"levels" yaml:"levels"`
	Media           []Media              `json:"media" yaml:"media"`
	Citations       []Citation           `json:"citations" yaml:"citations"`
	CrossReferences []CrossReference     `json:"crossReferences" yaml:"crossReferences"`
	Tags            Tags                 `json:"tags" yaml:"tags"`
	CreatedAt       time.Time            `json:"createdAt" yaml:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt" yaml:"updatedAt"`
	Version         int                  `json:"version" yaml:"version"`
	Status          Status               `json:"status" yaml:"status"`
}

// MaxLevel returns the deepest level number the record defines
func (r *ContentRecord) MaxLevel() int {
	maxLevel := 0
	for n := range r.Levels {
		if n > maxLevel {
			maxLevel = n
		}
	}
	return maxLevel
}

// LevelNumbers returns the defined level numbers in ascending order
func (r *ContentRecord) LevelNumbers() []int {
	nums := make([]int, 0, len(r.Levels))
	for n := range r.Levels {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// Level returns the level with number n, if present
func (r *ContentRecord) Level(n int) (ContentLevel, bool) {
	l, ok := r.Levels[n]
	return l, ok
}

// IsEmergency reports whether the record is tagged critical
func (r *ContentRecord) IsEmergency() bool {
	return r.Tags.ClinicalRelevance == RelevanceCritical
}

// HasExternalCode reports whether an ICD-11 code is populated
func (r *ContentRecord) HasExternalCode() bool {
	return strings.TrimSpace(r.ICD11Code) != ""
}

// Clone returns a copy of r with its own top-level slices and maps
func (r *ContentRecord) Clone() ContentRecord {
	out := *r
	out.AlternateNames = append([]string(nil), r.AlternateNames...)
	out.Media = append([]Media(nil), r.Media...)
	out.Citations = append([]Citation(nil), r.Citations...)
	out.CrossReferences = append([]CrossReference(nil), r.CrossReferences...)
	out.Tags.Systems = append([]string(nil), r.Tags.Systems...)
	out.Tags.Topics = append([]string(nil), r.Tags.Topics...)
	out.Tags.Keywords = append([]string(nil), r.Tags.Keywords...)
	if r.Tags.ExamRelevance != nil {
		out.Tags.ExamRelevance = make(ExamRelevance, len(r.Tags.ExamRelevance))
		for k, v := range r.Tags.ExamRelevance {
			out.Tags.ExamRelevance[k] = v
		}
	}
	if r.Levels != nil {
		out.Levels = make(map[int]ContentLevel, len(r.Levels))
		for n, l := range r.Levels {
			out.Levels[n] = l
		}
	}
	return out
}
