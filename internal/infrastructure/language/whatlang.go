package language

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// Detector guesses the ISO 639-1 code of user text. Detection runs locally;
// anything short, ambiguous or unmapped falls back to the configured locale.
type Detector struct {
	fallback string
}

func NewDetector(fallback string) *Detector {
	if fallback == "" {
		fallback = "en"
	}
	return &Detector{fallback: fallback}
}

func (d *Detector) Detect(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return d.fallback
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return d.fallback
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return d.fallback
	}
	return code
}
