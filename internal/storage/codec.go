package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"namesmith/internal/domain"
)

// ErrCorruptState is returned by DecodeState for unreadable records.
var ErrCorruptState = errors.New("stored state is corrupt")

// Record is the persisted shape of a user's state.
type Record struct {
	GeneratedNames []StoredCandidate `json:"generatedNames"`
	Favorites      []string          `json:"favorites"`
	ArchivedNames  []StoredCandidate `json:"archivedNames"`
	DarkMode       bool              `json:"darkMode"`
}

// StoredCandidate is the persisted shape of a candidate. Pointer fields tell
// a missing value apart from a zero one so legacy records can be upgraded.
type StoredCandidate struct {
	ID            string                   `json:"id"`
	Name          string                   `json:"name"`
	Category      string                   `json:"category,omitempty"`
	CreatedAt     string                   `json:"createdAt,omitempty"`
	IsFavorite    bool                     `json:"isFavorite"`
	Rating        *int                     `json:"rating,omitempty"`
	RatingComment *string                  `json:"ratingComment,omitempty"`
	Domains       map[string]domain.Status `json:"domains,omitempty"`

	// DomainStatus is the single .com status older records carried.
	DomainStatus string `json:"domainStatus,omitempty"`
}

// legacyIDNamespace seeds ids for stored candidates that never had one.
var legacyIDNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("namesmith:legacy-candidate"))

// legacyID derives a stable id from the record's content and its position,
// so the same unsaved record yields the same id on every load.
func legacyID(c StoredCandidate, collection string, index int) string {
	seed := fmt.Sprintf("%s|%d|%s|%s|%s", collection, index, c.Name, c.CreatedAt, c.Category)
	return uuid.NewSHA1(legacyIDNamespace, []byte(seed)).String()
}

// Upgrade fills in the fields legacy records lack. It is idempotent and
// deterministic: a missing id is derived from the record's content.
func (c StoredCandidate) Upgrade() StoredCandidate {
	if c.ID == "" {
		c.ID = legacyID(c, "", 0)
	}
	if c.Rating == nil {
		zero := 0
		c.Rating = &zero
	}
	if c.RatingComment == nil {
		empty := ""
		c.RatingComment = &empty
	}
	if c.Domains == nil {
		status := domain.Status(c.DomainStatus)
		if !status.Valid() {
			status = domain.StatusUnknown
		}
		c.Domains = map[string]domain.Status{".com": status}
	}
	c.DomainStatus = ""
	return c
}

func toStored(c domain.Candidate) StoredCandidate {
	rating, comment := c.Rating, c.RatingComment
	domains := make(map[string]domain.Status, len(c.Domains))
	for k, v := range c.Domains {
		domains[k] = v
	}
	sc := StoredCandidate{
		ID:            c.ID,
		Name:          c.Name,
		Category:      c.Category,
		IsFavorite:    c.IsFavorite,
		Rating:        &rating,
		RatingComment: &comment,
		Domains:       domains,
	}
	if !c.CreatedAt.IsZero() {
		sc.CreatedAt = c.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return sc
}

func fromStored(sc StoredCandidate) (domain.Candidate, error) {
	sc = sc.Upgrade()
	c := domain.Candidate{
		ID:            sc.ID,
		Name:          sc.Name,
		Category:      sc.Category,
		IsFavorite:    sc.IsFavorite,
		Rating:        *sc.Rating,
		RatingComment: *sc.RatingComment,
		Domains:       make(domain.DomainMap, len(sc.Domains)),
	}
	if c.Rating < 0 || c.Rating > domain.MaxRating {
		c.Rating = 0
	}
	for ext, status := range sc.Domains {
		if domain.IsExtension(ext) && status.Valid() {
			c.Domains[ext] = status
		}
	}
	if sc.CreatedAt != "" {
		ts, err := time.Parse(time.RFC3339Nano, sc.CreatedAt)
		if err != nil {
			return domain.Candidate{}, fmt.Errorf("candidate %s has invalid createdAt %q: %w", sc.ID, sc.CreatedAt, err)
		}
		c.CreatedAt = ts
	}
	return c, nil
}

// EncodeState serializes a state snapshot.
func EncodeState(s domain.State) ([]byte, error) {
	rec := Record{
		GeneratedNames: make([]StoredCandidate, 0, len(s.GeneratedNames)),
		Favorites:      domain.FavoriteIDs(s.GeneratedNames, s.ArchivedNames),
		ArchivedNames:  make([]StoredCandidate, 0, len(s.ArchivedNames)),
		DarkMode:       s.DarkMode,
	}
	for _, c := range s.GeneratedNames {
		rec.GeneratedNames = append(rec.GeneratedNames, toStored(c))
	}
	for _, c := range s.ArchivedNames {
		rec.ArchivedNames = append(rec.ArchivedNames, toStored(c))
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}
	return data, nil
}

// DecodeState parses a stored record, upgrading legacy candidates. The
// favorites index is rebuilt from the candidates rather than trusted.
func DecodeState(data []byte) (domain.State, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.State{}, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}

	seen := map[string]struct{}{}
	decode := func(collection string, list []StoredCandidate) ([]domain.Candidate, error) {
		out := make([]domain.Candidate, 0, len(list))
		for i, sc := range list {
			if sc.ID == "" {
				sc.ID = legacyID(sc, collection, i)
			}
			c, err := fromStored(sc)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
			}
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
			out = append(out, c)
		}
		return out, nil
	}

	active, err := decode("generatedNames", rec.GeneratedNames)
	if err != nil {
		return domain.State{}, err
	}
	archived, err := decode("archivedNames", rec.ArchivedNames)
	if err != nil {
		return domain.State{}, err
	}
	if len(active) > domain.HistoryLimit {
		active = active[:domain.HistoryLimit]
	}

	return domain.State{
		GeneratedNames: active,
		Favorites:      domain.FavoriteIDs(active, archived),
		ArchivedNames:  archived,
		DarkMode:       rec.DarkMode,
	}, nil
}
