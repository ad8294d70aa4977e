package domain

import "time"

// Metadata field names. Every classified document carries exactly this set,
// whether the fields came from the inference service or from defaults.
const (
	FieldDocumentType    = "document_type"
	FieldFilingDate      = "filing_date"
	FieldMovingParty     = "moving_party"
	FieldRespondingParty = "responding_party"
	FieldCourt           = "court"
	FieldJurisdiction    = "jurisdiction"
	FieldJudge           = "judge"
	FieldDocketNumber    = "docket_number"
	FieldCaseName        = "case_name"
	FieldCauseOfAction   = "cause_of_action"
	FieldReliefSought    = "relief_sought"
	FieldFilingAttorney  = "filing_attorney"
	FieldSummary         = "summary"
	FieldTags            = "tags"
	FieldError           = "error"
)

// CanonicalFields is the full field set in canonical order.
var CanonicalFields = []string{
	FieldDocumentType,
	FieldFilingDate,
	FieldMovingParty,
	FieldRespondingParty,
	FieldCourt,
	FieldJurisdiction,
	FieldJudge,
	FieldDocketNumber,
	FieldCaseName,
	FieldCauseOfAction,
	FieldReliefSought,
	FieldFilingAttorney,
	FieldSummary,
	FieldTags,
	FieldError,
}

// Metadata is the classifier's structured output. All fields are plain
// strings and always present (possibly empty); there is no optional variant.
type Metadata struct {
	DocumentType    string `json:"document_type"`
	FilingDate      string `json:"filing_date"` // YYYY-MM-DD
	MovingParty     string `json:"moving_party"`
	RespondingParty string `json:"responding_party"`
	Court           string `json:"court"`
	Jurisdiction    string `json:"jurisdiction"`
	Judge           string `json:"judge"`
	DocketNumber    string `json:"docket_number"`
	CaseName        string `json:"case_name"`
	CauseOfAction   string `json:"cause_of_action"`
	ReliefSought    string `json:"relief_sought"`
	FilingAttorney  string `json:"filing_attorney"`
	Summary         string `json:"summary"`
	Tags            string `json:"tags"` // comma-separated
	Error           string `json:"error"`
}

const unknown = "unknown"

// DefaultMetadata returns the complete default template. Identity fields are
// "unknown", the filing date is today, narrative fields are empty.
func DefaultMetadata(now time.Time) map[string]string {
	return map[string]string{
		FieldDocumentType:    unknown,
		FieldFilingDate:      now.Format("2006-01-02"),
		FieldMovingParty:     unknown,
		FieldRespondingParty: unknown,
		FieldCourt:           unknown,
		FieldJurisdiction:    unknown,
		FieldJudge:           unknown,
		FieldDocketNumber:    unknown,
		FieldCaseName:        unknown,
		FieldCauseOfAction:   "",
		FieldReliefSought:    "",
		FieldFilingAttorney:  unknown,
		FieldSummary:         "",
		FieldTags:            "",
		FieldError:           "",
	}
}

// FallbackMetadata is the record used when the inference call fails or its
// output cannot be parsed. The failure reason lands in the error field.
func FallbackMetadata(now time.Time, reason string) Metadata {
	m := DefaultMetadata(now)
	m[FieldSummary] = "Error analyzing document"
	m[FieldError] = reason
	return fromMap(m)
}

// MergeMetadata overlays a partial service response onto the default
// template: service-supplied non-empty fields win, everything else falls back.
// The result always carries the complete canonical field set.
func MergeMetadata(now time.Time, partial map[string]string) Metadata {
	m := DefaultMetadata(now)
	for k, v := range partial {
		if _, ok := m[k]; ok && v != "" {
			m[k] = v
		}
	}
	return fromMap(m)
}

func fromMap(m map[string]string) Metadata {
	return Metadata{
		DocumentType:    m[FieldDocumentType],
		FilingDate:      m[FieldFilingDate],
		MovingParty:     m[FieldMovingParty],
		RespondingParty: m[FieldRespondingParty],
		Court:           m[FieldCourt],
		Jurisdiction:    m[FieldJurisdiction],
		Judge:           m[FieldJudge],
		DocketNumber:    m[FieldDocketNumber],
		CaseName:        m[FieldCaseName],
		CauseOfAction:   m[FieldCauseOfAction],
		ReliefSought:    m[FieldReliefSought],
		FilingAttorney:  m[FieldFilingAttorney],
		Summary:         m[FieldSummary],
		Tags:            m[FieldTags],
		Error:           m[FieldError],
	}
}

// AsMap renders the record back into the canonical key set.
func (m Metadata) AsMap() map[string]string {
	return map[string]string{
		FieldDocumentType:    m.DocumentType,
		FieldFilingDate:      m.FilingDate,
		FieldMovingParty:     m.MovingParty,
		FieldRespondingParty: m.RespondingParty,
		FieldCourt:           m.Court,
		FieldJurisdiction:    m.Jurisdiction,
		FieldJudge:           m.Judge,
		FieldDocketNumber:    m.DocketNumber,
		FieldCaseName:        m.CaseName,
		FieldCauseOfAction:   m.CauseOfAction,
		FieldReliefSought:    m.ReliefSought,
		FieldFilingAttorney:  m.FilingAttorney,
		FieldSummary:         m.Summary,
		FieldTags:            m.Tags,
		FieldError:           m.Error,
	}
}
