package validators

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	ErrContentEmpty   = errors.New("content can't be empty")
	ErrContentInvalid = errors.New("content must be an HTML string or an editor document")

	tagRe    = regexp.MustCompile(`<[^>]*>`)
	entityRe = regexp.MustCompile(`&(nbsp|#160|#xa0);`)
)

// RichTextValidator accepts either a JSON string holding HTML or a
// structured editor document. Either must contain some visible text.
func RichTextValidator(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ErrContentEmpty
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ErrContentInvalid
	}

	var text string

	switch v := doc.(type) {
	case string:
		text = StripTags(v)
	case map[string]any, []any:
		var b strings.Builder
		collectText(v, &b)
		text = b.String()
	default:
		return ErrContentInvalid
	}

	if strings.TrimSpace(text) == "" {
		return ErrContentEmpty
	}

	return nil
}

// StripTags removes markup and non breaking spaces from an HTML fragment
func StripTags(html string) string {
	return entityRe.ReplaceAllString(tagRe.ReplaceAllString(html, " "), " ")
}

// collectText gathers every "text" leaf of an editor document
func collectText(node any, b *strings.Builder) {
	switch v := node.(type) {
	case map[string]any:
		if s, ok := v["text"].(string); ok {
			b.WriteString(s)
			b.WriteByte(' ')
		}

		for k, child := range v {
			if k != "text" {
				collectText(child, b)
			}
		}
	case []any:
		for _, child := range v {
			collectText(child, b)
		}
	}
}
