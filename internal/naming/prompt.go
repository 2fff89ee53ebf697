package naming

import (
	"fmt"
	"strings"

	"namesmith/internal/domain"
)

// RequestedNames is how many names every prompt asks for.
const RequestedNames = 5

var lengthHints = map[domain.LengthBucket]string{
	domain.LengthShort:  "short, one or two syllables, at most 8 letters",
	domain.LengthMedium: "medium length, between 6 and 12 letters",
	domain.LengthLong:   "descriptive, up to three words and at most 25 characters",
}

// BuildPrompt renders the primary generation instruction for p.
func BuildPrompt(p domain.Params) string {
	p = p.Normalize()
	style := p.Style
	if style == "" {
		style = "modern"
	}
	hint, ok := lengthHints[p.Length]
	if !ok {
		hint = lengthHints[domain.LengthMedium]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate exactly %d unique %s business names for a %s company.\n", RequestedNames, style, p.Category)
	fmt.Fprintf(&b, "Each name should be %s.\n", hint)
	if p.Tone != "" {
		fmt.Fprintf(&b, "The tone should feel %s.\n", p.Tone)
	}
	if p.Audience != "" {
		fmt.Fprintf(&b, "The target audience is %s.\n", p.Audience)
	}
	if p.Keyword != "" {
		fmt.Fprintf(&b, "Every name must include the word %q.\n", p.Keyword)
	}
	b.WriteString("Examples of good names: Spotify, Zapier, Notion, Canva, Airtable.\n")
	b.WriteString("Output only the names, one name per line, with no numbering, punctuation or extra text.\n")
	return b.String()
}

// BuildFallbackPrompt is the reduced instruction used when the primary round
// yields too few names.
func BuildFallbackPrompt(p domain.Params) string {
	p = p.Normalize()
	return fmt.Sprintf("List %d short, brandable names for a %s business.\nOne name per line, nothing else.\n", RequestedNames, p.Category)
}
