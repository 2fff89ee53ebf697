// Package naming turns generation parameters into prompts and raw model
// output back into clean candidate names.
package naming

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinNameLength = 2
	MaxNameLength = 30
)

var (
	leadingJunk  = regexp.MustCompile(`^[^A-Za-z]+`)
	trailingJunk = regexp.MustCompile(`[^A-Za-z0-9\s-]+$`)
)

// denylist holds generic or meta words models tend to emit instead of names.
var denylist = map[string]struct{}{
	"here": {}, "name": {}, "names": {}, "business": {}, "saas": {},
	"company": {}, "brand": {}, "startup": {}, "suggestions": {},
	"example": {}, "examples": {}, "sure": {}, "output": {}, "list": {},
}

// Sanitize cleans one raw line of model output. ok is false when the line does
// not yield a usable name. Whitespace is trimmed only after the junk passes, so
// trailing junk followed by spaces stays part of the name and counts toward
// MaxNameLength.
func Sanitize(line string) (name string, ok bool) {
	cleaned := leadingJunk.ReplaceAllString(line, "")
	cleaned = trailingJunk.ReplaceAllString(cleaned, "")
	if i := strings.IndexAny(cleaned, "\r\n."); i >= 0 {
		cleaned = cleaned[:i]
	}
	cleaned = strings.TrimSpace(cleaned)

	n := utf8.RuneCountInString(cleaned)
	if n < MinNameLength || n > MaxNameLength {
		return "", false
	}
	if _, denied := denylist[strings.ToLower(cleaned)]; denied {
		return "", false
	}
	return cleaned, true
}

// Lines splits raw output into non-empty lines and keeps at most limit of them.
func Lines(raw string, limit int) []string {
	var out []string
	for _, l := range strings.Split(raw, "\n") {
		if len(out) == limit {
			break
		}
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}
