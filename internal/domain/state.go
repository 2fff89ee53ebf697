package domain

import (
	"fmt"
	"strings"
)

// HistoryLimit caps the number of active candidates a user keeps.
const HistoryLimit = 20

// State is one user's application state. Values are treated as immutable
// snapshots: every transition returns a fresh State and leaves the receiver untouched.
type State struct {
	GeneratedNames []Candidate
	Favorites      []string
	ArchivedNames  []Candidate
	DarkMode       bool
}

// MergeHistory prepends batch to history and keeps the first HistoryLimit entries.
func MergeHistory(history, batch []Candidate) []Candidate {
	merged := make([]Candidate, 0, len(batch)+len(history))
	merged = append(merged, batch...)
	merged = append(merged, history...)
	if len(merged) > HistoryLimit {
		merged = merged[:HistoryLimit]
	}
	return merged
}

// FavoriteIDs derives the favorites index from the IsFavorite flags.
func FavoriteIDs(active, archived []Candidate) []string {
	ids := []string{}
	for _, c := range active {
		if c.IsFavorite {
			ids = append(ids, c.ID)
		}
	}
	for _, c := range archived {
		if c.IsFavorite {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func (s State) clone() State {
	next := State{DarkMode: s.DarkMode}
	next.GeneratedNames = append([]Candidate(nil), s.GeneratedNames...)
	next.ArchivedNames = append([]Candidate(nil), s.ArchivedNames...)
	return next
}

func (s State) reindex() State {
	s.Favorites = FavoriteIDs(s.GeneratedNames, s.ArchivedNames)
	return s
}

// WithBatch merges a freshly generated batch into the active history.
func (s State) WithBatch(batch []Candidate) State {
	next := s.clone()
	next.GeneratedNames = MergeHistory(next.GeneratedNames, batch)
	return next.reindex()
}

// Resolve finds the full id of a candidate from an exact id or a unique prefix.
func (s State) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrCandidateNotFound
	}
	var match string
	for _, list := range [][]Candidate{s.GeneratedNames, s.ArchivedNames} {
		for _, c := range list {
			if c.ID == ref {
				return c.ID, nil
			}
			if strings.HasPrefix(c.ID, ref) {
				if match != "" && match != c.ID {
					return "", fmt.Errorf("%w: %s", ErrAmbiguousCandidate, ref)
				}
				match = c.ID
			}
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrCandidateNotFound, ref)
	}
	return match, nil
}

// Find returns the candidate with id and whether it is archived.
func (s State) Find(id string) (Candidate, bool, error) {
	if i := indexOf(s.GeneratedNames, id); i >= 0 {
		return s.GeneratedNames[i], false, nil
	}
	if i := indexOf(s.ArchivedNames, id); i >= 0 {
		return s.ArchivedNames[i], true, nil
	}
	return Candidate{}, false, fmt.Errorf("%w: %s", ErrCandidateNotFound, id)
}

// ToggleFavorite flips the favorite flag of the candidate with id.
func (s State) ToggleFavorite(id string) (State, error) {
	return s.update(id, func(c *Candidate) error {
		c.IsFavorite = !c.IsFavorite
		return nil
	})
}

// Rate sets the rating and comment of the candidate with id.
func (s State) Rate(id string, rating int, comment string) (State, error) {
	if rating < 0 || rating > MaxRating {
		return s, ErrInvalidRating
	}
	return s.update(id, func(c *Candidate) error {
		c.Rating = rating
		c.RatingComment = strings.TrimSpace(comment)
		return nil
	})
}

// Archive moves an active candidate to the front of the archive.
func (s State) Archive(id string) (State, error) {
	i := indexOf(s.GeneratedNames, id)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrCandidateNotFound, id)
	}
	next := s.clone()
	c := next.GeneratedNames[i]
	next.GeneratedNames = append(next.GeneratedNames[:i], next.GeneratedNames[i+1:]...)
	next.ArchivedNames = append([]Candidate{c}, next.ArchivedNames...)
	return next.reindex(), nil
}

// Restore moves an archived candidate back to the front of the active history.
// The history bound still applies, so the oldest active entry may drop off.
func (s State) Restore(id string) (State, error) {
	i := indexOf(s.ArchivedNames, id)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrCandidateNotFound, id)
	}
	next := s.clone()
	c := next.ArchivedNames[i]
	next.ArchivedNames = append(next.ArchivedNames[:i], next.ArchivedNames[i+1:]...)
	next.GeneratedNames = MergeHistory(next.GeneratedNames, []Candidate{c})
	return next.reindex(), nil
}

// Delete removes the candidate from whichever collection holds it.
func (s State) Delete(id string) (State, error) {
	next := s.clone()
	if i := indexOf(next.GeneratedNames, id); i >= 0 {
		next.GeneratedNames = append(next.GeneratedNames[:i], next.GeneratedNames[i+1:]...)
		return next.reindex(), nil
	}
	if i := indexOf(next.ArchivedNames, id); i >= 0 {
		next.ArchivedNames = append(next.ArchivedNames[:i], next.ArchivedNames[i+1:]...)
		return next.reindex(), nil
	}
	return s, fmt.Errorf("%w: %s", ErrCandidateNotFound, id)
}

// SetDarkMode returns a copy of s with the dark mode flag set.
func (s State) SetDarkMode(on bool) State {
	next := s.clone()
	next.DarkMode = on
	return next.reindex()
}

func (s State) update(id string, fn func(c *Candidate) error) (State, error) {
	next := s.clone()
	for _, list := range [][]Candidate{next.GeneratedNames, next.ArchivedNames} {
		if i := indexOf(list, id); i >= 0 {
			c := list[i]
			c.Domains = copyDomains(c.Domains)
			if err := fn(&c); err != nil {
				return s, err
			}
			list[i] = c
			return next.reindex(), nil
		}
	}
	return s, fmt.Errorf("%w: %s", ErrCandidateNotFound, id)
}

func indexOf(list []Candidate, id string) int {
	for i, c := range list {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func copyDomains(m DomainMap) DomainMap {
	if m == nil {
		return nil
	}
	out := make(DomainMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Filter narrows a candidate list. Zero-valued fields match everything.
type Filter struct {
	Category      string
	FavoritesOnly bool
	// Query matches case-insensitively against the name.
	Query string
	// AvailableOn keeps only candidates whose domain on this extension is available.
	AvailableOn string
}

// Apply returns the candidates matching f, preserving order.
func (f Filter) Apply(candidates []Candidate) []Candidate {
	out := []Candidate{}
	query := strings.ToLower(strings.TrimSpace(f.Query))
	for _, c := range candidates {
		if f.Category != "" && !strings.EqualFold(c.Category, f.Category) {
			continue
		}
		if f.FavoritesOnly && !c.IsFavorite {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(c.Name), query) {
			continue
		}
		if f.AvailableOn != "" && c.Domains.Get(f.AvailableOn) != StatusAvailable {
			continue
		}
		out = append(out, c)
	}
	return out
}
