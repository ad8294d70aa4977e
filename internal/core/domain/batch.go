package domain

import "time"

// Stage names for the per-document state machine.
type Stage string

const (
	StageScanned    Stage = "scanned"
	StageExtracted  Stage = "extracted"
	StageClassified Stage = "classified"
	StagePathed     Stage = "pathed"
	StageArchived   Stage = "archived"
	StageRecorded   Stage = "recorded"
)

type ResultStatus string

const (
	ResultSucceeded ResultStatus = "succeeded"
	ResultFailed    ResultStatus = "failed"
)

type BatchStatus string

const (
	BatchPending   BatchStatus = "pending"
	BatchRunning   BatchStatus = "running"
	BatchCompleted BatchStatus = "completed"
	BatchFailed    BatchStatus = "failed"
)

// CandidateDocument is one file the scanner matched against the keyword.
type CandidateDocument struct {
	Path        string `json:"path"`
	SourceLabel string `json:"source_label"`
}

// DerivedPath is the deterministic storage location computed from metadata.
// Directory segments are relative to the output root, in order
// docket / party / document type / filing date.
type DerivedPath struct {
	Directory []string `json:"directory"`
	Filename  string   `json:"filename"`
}

// ProcessingResult is the final outcome for one candidate document. It is
// created when the candidate enters the pipeline and immutable once the
// document is recorded or fails a stage.
type ProcessingResult struct {
	OriginalPath string       `json:"original_path"`
	NewPath      string       `json:"new_path,omitempty"`
	Metadata     Metadata     `json:"metadata"`
	Status       ResultStatus `json:"status"`
	FailedStage  Stage        `json:"failed_stage,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// BatchRequest is the batch trigger contract.
type BatchRequest struct {
	InputDir  string `json:"input_location"`
	OutputDir string `json:"output_location"`
	Keyword   string `json:"keyword"`
}

// BatchReport aggregates every ProcessingResult of one invocation.
type BatchReport struct {
	ID             string             `json:"id"`
	Status         BatchStatus        `json:"status"`
	ProcessedCount int                `json:"processed_count"`
	SucceededCount int                `json:"succeeded_count"`
	FailedCount    int                `json:"failed_count"`
	Results        []ProcessingResult `json:"results"`
	ReportPath     string             `json:"report_path"`
	StartedAt      time.Time          `json:"started_at"`
	FinishedAt     time.Time          `json:"finished_at"`
	Error          string             `json:"error,omitempty"`
}

// LegalDocument is the durable row persisted per successfully pathed document.
type LegalDocument struct {
	ID           int64     `json:"id"`
	Filename     string    `json:"filename"`
	OriginalPath string    `json:"original_path"`
	NewPath      string    `json:"new_path"`
	DocumentType string    `json:"document_type"`
	FilingDate   string    `json:"filing_date"`
	MovingParty  string    `json:"moving_party"`
	Court        string    `json:"court"`
	Judge        string    `json:"judge"`
	DocketNumber string    `json:"docket_number"`
	Summary      string    `json:"summary"`
	ProcessedAt  time.Time `json:"processed_at"`
}

// NewLegalDocument builds the persistence row from a classified document.
func NewLegalDocument(m Metadata, originalPath, newPath, filename string, processedAt time.Time) LegalDocument {
	return LegalDocument{
		Filename:     filename,
		OriginalPath: originalPath,
		NewPath:      newPath,
		DocumentType: m.DocumentType,
		FilingDate:   m.FilingDate,
		MovingParty:  m.MovingParty,
		Court:        m.Court,
		Judge:        m.Judge,
		DocketNumber: m.DocketNumber,
		Summary:      m.Summary,
		ProcessedAt:  processedAt,
	}
}
