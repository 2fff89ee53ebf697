package bot

import (
	"fmt"
	"strconv"
	"strings"

	"namesmith/internal/domain"
	"namesmith/internal/pipeline"
)

const helpText = `NameSmith generates business names and estimates their domain availability.

/generate <category> [style=..] [length=short|medium|long] [tone=..] [audience=..] [keyword=..]
/list [category] [fav] [q=text] [ext=.io]
/favorites
/archived
/fav <id>  /archive <id>  /restore <id>  /delete <id>
/rate <id> <0-5> [comment]
/export csv|txt|pdf [archived]
/darkmode on|off
/reset

Ids can be shortened to their first characters.`

// splitCommand returns the command (without any @botname suffix) and its arguments.
func splitCommand(text string) (cmd string, args []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil
	}
	cmd = strings.ToLower(fields[0])
	if i := strings.Index(cmd, "@"); i >= 0 {
		cmd = cmd[:i]
	}
	return cmd, fields[1:]
}

var paramKeys = map[string]bool{
	"category": true, "style": true, "length": true, "tone": true, "audience": true, "keyword": true,
}

// parseGenerateArgs reads "<category words> key=value words ...". A value
// runs until the next recognised key.
func parseGenerateArgs(args []string) (domain.Params, error) {
	values := map[string][]string{}
	current := "category"
	for _, a := range args {
		if k, v, ok := strings.Cut(a, "="); ok && paramKeys[strings.ToLower(k)] {
			current = strings.ToLower(k)
			values[current] = nil
			if v != "" {
				values[current] = append(values[current], v)
			}
			continue
		}
		values[current] = append(values[current], a)
	}

	join := func(k string) string { return strings.Join(values[k], " ") }
	p := domain.Params{
		Category: join("category"),
		Style:    join("style"),
		Length:   domain.LengthBucket(join("length")),
		Tone:     join("tone"),
		Audience: join("audience"),
		Keyword:  join("keyword"),
	}.Normalize()
	if err := p.Validate(); err != nil {
		return domain.Params{}, err
	}
	return p, nil
}

// parseListArgs builds a filter from "/list" arguments.
func parseListArgs(args []string) domain.Filter {
	var f domain.Filter
	var category []string
	for _, a := range args {
		lower := strings.ToLower(a)
		switch {
		case lower == "fav" || lower == "favorites":
			f.FavoritesOnly = true
		case strings.HasPrefix(lower, "q="):
			f.Query = a[2:]
		case strings.HasPrefix(lower, "ext="):
			ext := lower[4:]
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			f.AvailableOn = ext
		default:
			category = append(category, a)
		}
	}
	f.Category = strings.Join(category, " ")
	return f
}

// parseRateArgs reads "<id> <rating> [comment...]".
func parseRateArgs(args []string) (ref string, rating int, comment string, err error) {
	if len(args) < 2 {
		return "", 0, "", fmt.Errorf("usage: /rate <id> <0-5> [comment]")
	}
	rating, err = strconv.Atoi(args[1])
	if err != nil {
		return "", 0, "", domain.ErrInvalidRating
	}
	return args[0], rating, strings.Join(args[2:], " "), nil
}

func parseOnOff(args []string) (bool, error) {
	if len(args) == 1 {
		switch strings.ToLower(args[0]) {
		case "on", "true", "yes", "1":
			return true, nil
		case "off", "false", "no", "0":
			return false, nil
		}
	}
	return false, fmt.Errorf("usage: /darkmode on|off")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatCandidate(c domain.Candidate) string {
	var b strings.Builder
	if c.IsFavorite {
		b.WriteString("★ ")
	}
	fmt.Fprintf(&b, "%s (%s) [%s]", c.Name, c.Category, shortID(c.ID))
	if c.Rating > 0 {
		fmt.Fprintf(&b, " %d/%d", c.Rating, domain.MaxRating)
	}
	available, taken, unknown := c.Domains.Partition()
	if len(available) > 0 {
		fmt.Fprintf(&b, "\n  available: %s", strings.Join(available, " "))
	}
	if len(taken) > 0 {
		fmt.Fprintf(&b, "\n  taken: %s", strings.Join(taken, " "))
	}
	if len(unknown) > 0 && len(unknown) < len(domain.Extensions) {
		fmt.Fprintf(&b, "\n  unknown: %s", strings.Join(unknown, " "))
	}
	if c.RatingComment != "" {
		fmt.Fprintf(&b, "\n  “%s”", c.RatingComment)
	}
	return b.String()
}

func formatList(title string, list []domain.Candidate) string {
	if len(list) == 0 {
		return title + ": nothing here yet."
	}
	parts := make([]string, 0, len(list)+1)
	parts = append(parts, fmt.Sprintf("%s (%d):", title, len(list)))
	for _, c := range list {
		parts = append(parts, formatCandidate(c))
	}
	return strings.Join(parts, "\n\n")
}

func formatBatch(batch pipeline.Batch) string {
	if len(batch.Candidates) == 0 {
		msg := "The generator did not come up with any usable names this time. Try a different category or style."
		if batch.FallbackErr != nil {
			msg += " (The retry with a simpler request also failed.)"
		}
		return msg
	}
	return formatList("New names", batch.Candidates)
}
