package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the estimated availability of a single domain.
type Status string

const (
	StatusAvailable Status = "available"
	StatusTaken     Status = "taken"
	StatusUnknown   Status = "unknown"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusTaken, StatusUnknown:
		return true
	}
	return false
}

// Extensions is the fixed, ordered set of extensions every candidate is probed against.
var Extensions = []string{".com", ".net", ".org", ".io", ".co", ".app", ".dev", ".tech", ".ai", ".me"}

// IsExtension reports whether ext is one of the configured Extensions.
func IsExtension(ext string) bool {
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// DomainMap maps an extension (e.g. ".com") to its estimated status.
type DomainMap map[string]Status

// Get returns the status recorded for ext. Absent keys read as unknown.
func (m DomainMap) Get(ext string) Status {
	if s, ok := m[ext]; ok && s.Valid() {
		return s
	}
	return StatusUnknown
}

// Partition splits the configured extensions by status, in declared order.
func (m DomainMap) Partition() (available, taken, unknown []string) {
	for _, ext := range Extensions {
		switch m.Get(ext) {
		case StatusAvailable:
			available = append(available, ext)
		case StatusTaken:
			taken = append(taken, ext)
		default:
			unknown = append(unknown, ext)
		}
	}
	return available, taken, unknown
}

// Candidate is a single generated business name and the user's annotations on it.
type Candidate struct {
	// ID is assigned at creation and never reused.
	ID string `json:"id"`

	// Name is the sanitized display string.
	Name string `json:"name"`

	// Category is copied from the generation parameters.
	Category string `json:"category"`

	CreatedAt time.Time `json:"createdAt"`

	IsFavorite bool `json:"isFavorite"`

	// Rating is 0 (unrated) to 5.
	Rating        int    `json:"rating"`
	RatingComment string `json:"ratingComment"`

	Domains DomainMap `json:"domains"`
}

// MaxRating is the highest rating a candidate can carry.
const MaxRating = 5

// LengthBucket is the caller's preference for how long names should be.
type LengthBucket string

const (
	LengthShort  LengthBucket = "short"
	LengthMedium LengthBucket = "medium"
	LengthLong   LengthBucket = "long"
)

// Params are the caller-supplied generation parameters.
type Params struct {
	Category string
	Style    string
	Length   LengthBucket
	Tone     string
	Audience string
	Keyword  string
}

var (
	ErrInvalidParams      = errors.New("invalid generation parameters")
	ErrCandidateNotFound  = errors.New("candidate not found")
	ErrInvalidRating      = errors.New("rating must be between 0 and 5")
	ErrAmbiguousCandidate = errors.New("candidate id prefix is ambiguous")
)

// Normalize trims every field and fills in the default length bucket.
func (p Params) Normalize() Params {
	p.Category = strings.TrimSpace(p.Category)
	p.Style = strings.TrimSpace(p.Style)
	p.Tone = strings.TrimSpace(p.Tone)
	p.Audience = strings.TrimSpace(p.Audience)
	p.Keyword = strings.TrimSpace(p.Keyword)
	p.Length = LengthBucket(strings.ToLower(strings.TrimSpace(string(p.Length))))
	if p.Length == "" {
		p.Length = LengthMedium
	}
	return p
}

// Validate checks that p can be turned into a generation request.
func (p Params) Validate() error {
	p = p.Normalize()
	if p.Category == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidParams)
	}
	switch p.Length {
	case LengthShort, LengthMedium, LengthLong:
	default:
		return fmt.Errorf("%w: unknown length %q", ErrInvalidParams, p.Length)
	}
	return nil
}
