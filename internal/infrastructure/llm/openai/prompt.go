package openai

import (
	"strings"

	"github.com/lawpaw/lawpaw/internal/core/domain"
)

// maxPromptChars bounds the extracted text we ship to the model; the caption
// block of a filing sits well inside the first few thousand characters.
const maxPromptChars = 6000

const systemPrompt = `You are a legal document analyst. You receive text recovered from the caption area of a court filing and return a single JSON object describing it. Use exactly these keys, all with string values: ` + "%KEYS%" + `. Dates use YYYY-MM-DD. If a field cannot be determined from the text, use "unknown" for parties, court, judge, docket and case fields, and an empty string for narrative fields. Return only the JSON object.`

func buildRequestBody(model string, temperature float32, text string) map[string]any {
	if len(text) > maxPromptChars {
		text = text[:maxPromptChars]
	}
	return map[string]any{
		"model":       model,
		"temperature": temperature,
		"response_format": map[string]string{
			"type": "json_object",
		},
		"messages": []map[string]string{
			{"role": "system", "content": strings.Replace(systemPrompt, "%KEYS%", fieldList(), 1)},
			{"role": "user", "content": "Document text:\n\n" + text},
		},
	}
}

func fieldList() string {
	keys := make([]string, 0, len(domain.CanonicalFields))
	for _, k := range domain.CanonicalFields {
		if k == domain.FieldError {
			continue
		}
		keys = append(keys, k)
	}
	return strings.Join(keys, ", ")
}
