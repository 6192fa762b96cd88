// Package promo implements the promotional banner subsystem: a persisted
// list of time-windowed items, a pure active-set computation, and a
// rotator that cycles the visible item on a fixed cadence.
package promo

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/seenimoa/coinscope/pkg/utils"
)

// SizeClass is a display dimension preset. Layout only, no business logic.
type SizeClass string

const (
	SizeBanner      SizeClass = "banner"      // 728x90
	SizeRectangle   SizeClass = "rectangle"   // 300x250
	SizeHalfPage    SizeClass = "half_page"   // 300x600
)

// sizeClasses is the accepted set for form validation.
var sizeClasses = map[SizeClass]bool{
	SizeBanner:    true,
	SizeRectangle: true,
	SizeHalfPage:  true,
}

// maxImageBytes bounds inline (data URI) banner images.
const maxImageBytes = 512 * 1024

// Item is one promotional banner. Time fields are kept in wire form; an
// item whose times fail to parse is excluded from the active set rather
// than failing the whole list.
type Item struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	ImageURL   string    `json:"image_url"`
	LinkURL    string    `json:"link_url"`
	StartTime  string    `json:"start_time"`         // instant, required
	EndTime    string    `json:"end_time,omitempty"` // instant, optional
	Privileged bool      `json:"privileged"`         // admin-authored
	SizeClass  SizeClass `json:"size_class"`
}

// Window parses the item's time fields. ok is false when the start (or a
// present end) does not parse.
func (it Item) Window() (start time.Time, end *time.Time, ok bool) {
	start, err := utils.ParseInstant(it.StartTime)
	if err != nil {
		return time.Time{}, nil, false
	}
	if strings.TrimSpace(it.EndTime) == "" {
		return start, nil, true
	}
	e, err := utils.ParseInstant(it.EndTime)
	if err != nil {
		return time.Time{}, nil, false
	}
	return start, &e, true
}

// ActiveSet returns the items eligible for display at now, preserving the
// input's relative order. An item is active iff now >= start, a present
// end is still in the future, and an absent end is only allowed for
// privileged items. A non-privileged item with no end is never active;
// the authoring flow always assigns one.
func ActiveSet(items []Item, now time.Time) []Item {
	active := make([]Item, 0, len(items))
	for _, it := range items {
		start, end, ok := it.Window()
		if !ok {
			continue
		}
		if now.Before(start) {
			continue
		}
		if end == nil {
			if !it.Privileged {
				continue
			}
		} else if !now.Before(*end) {
			continue
		}
		active = append(active, it)
	}
	return active
}

// ValidationError reports a rejected authoring-form field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ErrNotFound is returned when a promo ID does not exist.
type ErrNotFound struct {
	ID string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("promo %q not found", e.ID)
}

// Validate enforces the authoring-form rules. The end-after-start ordering
// is enforced here, at creation time only; it is not re-validated at read
// time.
func Validate(it Item) error {
	if strings.TrimSpace(it.Title) == "" {
		return &ValidationError{Field: "title", Reason: "required"}
	}
	if err := checkURL(it.LinkURL); err != nil {
		return &ValidationError{Field: "link_url", Reason: err.Error()}
	}
	if strings.HasPrefix(it.ImageURL, "data:") {
		if len(it.ImageURL) > maxImageBytes {
			return &ValidationError{Field: "image_url", Reason: "inline image exceeds 512KB"}
		}
	} else if it.ImageURL != "" {
		if err := checkURL(it.ImageURL); err != nil {
			return &ValidationError{Field: "image_url", Reason: err.Error()}
		}
	}
	if it.SizeClass != "" && !sizeClasses[it.SizeClass] {
		return &ValidationError{Field: "size_class", Reason: "unknown size class"}
	}

	start, err := utils.ParseInstant(it.StartTime)
	if err != nil {
		return &ValidationError{Field: "start_time", Reason: "unparseable instant"}
	}
	if strings.TrimSpace(it.EndTime) != "" {
		end, err := utils.ParseInstant(it.EndTime)
		if err != nil {
			return &ValidationError{Field: "end_time", Reason: "unparseable instant"}
		}
		if !end.After(start) {
			return &ValidationError{Field: "end_time", Reason: "must be strictly after start_time"}
		}
	}
	return nil
}

func checkURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be a valid http(s) URL")
	}
	return nil
}
