// Package pathrule derives canonical filenames and storage directories from
// document metadata. Derivation is deterministic and never fails: bad input
// degrades to placeholder segments or the generic fallback filename.
package pathrule

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/lawpaw/lawpaw/internal/core/domain"
)

var (
	reISODate = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	reNonWord = regexp.MustCompile(`\W`)
	reUnsafe  = regexp.MustCompile(`[^0-9A-Za-z._-]`)
)

var typeCodes = map[string]string{
	"motion":     "MOT",
	"opposition": "OPP",
	"reply":      "REP",
}

// Deriver computes derived paths. The clock is injectable so the fallback
// filename stays testable.
type Deriver struct {
	now func() time.Time
}

func NewDeriver() *Deriver {
	return &Deriver{now: time.Now}
}

// NewDeriverAt pins the clock, for tests.
func NewDeriverAt(now func() time.Time) *Deriver {
	return &Deriver{now: now}
}

// Derive computes the canonical filename and directory chain for a metadata
// record. Identical input always yields identical output.
func (d *Deriver) Derive(m domain.Metadata) domain.DerivedPath {
	return domain.DerivedPath{
		Directory: d.directory(m),
		Filename:  d.filename(m),
	}
}

func (d *Deriver) filename(m domain.Metadata) string {
	party := reNonWord.ReplaceAllString(m.MovingParty, "")
	if party == "" {
		party = "Unknown"
	} else {
		party = capitalize(party)
	}

	code, ok := typeCodes[strings.ToLower(strings.TrimSpace(m.DocumentType))]
	if !ok {
		code = "DOC"
	}

	descriptor := "GENERAL"
	if tokens := strings.Fields(m.Summary); len(tokens) > 0 {
		if len(tokens) > 3 {
			tokens = tokens[:3]
		}
		descriptor = strings.ToUpper(strings.Join(tokens, "_"))
	}

	name := "PL_" + party + "_" + code + "_" + descriptor + "_" + formatDate(m.FilingDate) + ".pdf"
	name = sanitize(name)
	if name == "" || !strings.HasSuffix(name, ".pdf") {
		return "PL_Document_" + d.now().Format("01-02-2006") + ".pdf"
	}
	return name
}

func (d *Deriver) directory(m domain.Metadata) []string {
	return []string{
		segment(m.DocketNumber, "Unknown_Docket"),
		segment(m.MovingParty, "Unknown_Party"),
		segment(m.DocumentType, "Unknown_Type"),
		segment(m.FilingDate, "Unknown_Date"),
	}
}

func segment(v, placeholder string) string {
	s := sanitize(strings.TrimSpace(v))
	if s == "" {
		return placeholder
	}
	return s
}

// formatDate turns YYYY-MM-DD into MM-DD-YYYY; anything else is passed
// through best-effort with / and . separators normalized to -.
func formatDate(v string) string {
	if m := reISODate.FindStringSubmatch(v); m != nil {
		return m[2] + "-" + m[3] + "-" + m[1]
	}
	v = strings.ReplaceAll(v, "/", "-")
	return strings.ReplaceAll(v, ".", "-")
}

func sanitize(s string) string {
	return reUnsafe.ReplaceAllString(s, "_")
}

func capitalize(s string) string {
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
