package listing

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/seenimoa/coinscope/internal/store"
)

// ValidationError reports a rejected form field. It blocks the creation or
// edit with no persisted side effect; the caller surfaces it inline.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ErrNotFound is returned when a manual entity ID does not exist.
type ErrNotFound struct {
	ID string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("manual entity %q not found", e.ID)
}

// ManualCollection manages one persisted collection of manual entities.
// Mutations are read-modify-write sequences over the stored blob, serialised
// by mu so concurrent admin requests never drop each other's writes.
type ManualCollection struct {
	mu  sync.Mutex
	st  *store.Store
	key string
}

// NewManualCollection opens the manual collection stored under key
// (store.KeyManualProjects or store.KeyManualExchanges).
func NewManualCollection(st *store.Store, key string) *ManualCollection {
	return &ManualCollection{st: st, key: key}
}

// List returns the persisted manual entities, empty if the key is absent
// or its blob was malformed.
func (c *ManualCollection) List() []Entity {
	entities := []Entity{}
	c.st.Load(c.key, &entities)
	return entities
}

// Add validates and persists a new manual entity. ID and Origin are
// assigned here; Rank is fixed at creation per NextManualRank using the
// current external collection size.
func (c *ManualCollection) Add(e Entity, externalCount int) (Entity, error) {
	if err := validate(e); err != nil {
		return Entity{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	existing := c.List()
	e.ID = uuid.NewString()
	e.Origin = OriginManual
	e.Rank = NextManualRank(externalCount, len(existing))

	existing = append(existing, e)
	if err := c.st.Save(c.key, existing); err != nil {
		return e, err
	}
	return e, nil
}

// Update edits a manual entity in place, matched by ID. Rank and Origin
// are preserved from the stored entity.
func (c *ManualCollection) Update(e Entity) (Entity, error) {
	if err := validate(e); err != nil {
		return Entity{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	existing := c.List()
	for i := range existing {
		if existing[i].ID == e.ID {
			e.Rank = existing[i].Rank
			e.Origin = existing[i].Origin
			existing[i] = e
			return e, c.st.Save(c.key, existing)
		}
	}
	return Entity{}, &ErrNotFound{ID: e.ID}
}

// Remove deletes a manual entity by ID.
func (c *ManualCollection) Remove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	existing := c.List()
	for i := range existing {
		if existing[i].ID == id {
			existing = append(existing[:i], existing[i+1:]...)
			return c.st.Save(c.key, existing)
		}
	}
	return &ErrNotFound{ID: id}
}

// validate enforces the creation-time form rules.
func validate(e Entity) error {
	if strings.TrimSpace(e.Name) == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	if strings.TrimSpace(e.Symbol) == "" {
		return &ValidationError{Field: "symbol", Reason: "required"}
	}
	if e.Metrics.MarketCap < 0 {
		return &ValidationError{Field: "market_cap", Reason: "must be non-negative"}
	}
	if e.Metrics.Volume24h < 0 {
		return &ValidationError{Field: "volume_24h", Reason: "must be non-negative"}
	}
	if e.LinkURL != "" {
		u, err := url.Parse(e.LinkURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return &ValidationError{Field: "link_url", Reason: "must be a valid http(s) URL"}
		}
	}
	return nil
}
