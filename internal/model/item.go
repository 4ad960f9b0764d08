package model

import (
	"fmt"
	"strings"
	"time"
)

// Item is a listing offered for exchange.
type Item struct {
	ID          int64      `json:"id"`
	OwnerID     int64      `json:"owner_id"`
	Title       string     `json:"title"`
	Author      string     `json:"author,omitempty"`
	Description string     `json:"description,omitempty"`
	Condition   Condition  `json:"condition"`
	Tags        []string   `json:"tags"`
	GroupCode   string     `json:"group_code,omitempty"`
	Year        int        `json:"year,omitempty"` // zero when unknown
	Status      ItemStatus `json:"status"`
	CoverMime   string     `json:"cover_mime,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// ItemStatus is the availability of an item.
type ItemStatus string

// Item statuses.
const (
	ItemAvailable ItemStatus = "Available"
	ItemReserved  ItemStatus = "Reserved"
	ItemExchanged ItemStatus = "Exchanged"
)

// Valid reports whether s is a known item status.
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemAvailable, ItemReserved, ItemExchanged:
		return true
	}
	return false
}

// Condition is the physical state of an item on a fixed six-level scale.
type Condition string

// Conditions, best first.
const (
	ConditionNew        Condition = "New"
	ConditionLikeNew    Condition = "Like New"
	ConditionVeryGood   Condition = "Very Good"
	ConditionGood       Condition = "Good"
	ConditionAcceptable Condition = "Acceptable"
	ConditionPoor       Condition = "Poor"
)

var conditionRanks = map[Condition]int{
	ConditionNew:        5,
	ConditionLikeNew:    4,
	ConditionVeryGood:   3,
	ConditionGood:       2,
	ConditionAcceptable: 1,
	ConditionPoor:       0,
}

// Rank returns the ordinal of c (New = 5 ... Poor = 0). ok is false for
// unknown conditions.
func (c Condition) Rank() (rank int, ok bool) {
	rank, ok = conditionRanks[c]
	return rank, ok
}

// ParseCondition validates a condition name.
func ParseCondition(s string) (Condition, error) {
	c := Condition(s)
	if _, ok := c.Rank(); !ok {
		return "", fmt.Errorf("%w: unknown condition %q", ErrInvalidRequest, s)
	}
	return c, nil
}

// NormalizeTags trims surrounding space and drops empty and repeated tags,
// keeping first-seen order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// ItemFilter narrows a catalog listing. Zero fields do not filter.
type ItemFilter struct {
	OwnerID        int64
	ExcludeOwnerID int64
	Status         ItemStatus
	Conditions     []Condition
	Tags           []string // any of
	GroupCode      string
	Query          string // case-insensitive match on title, author, tags and group code
}

// Match reports whether item passes the filter. Stores that cannot express a
// filter natively use it to post-filter.
func (f ItemFilter) Match(item Item) bool {
	if item.DeletedAt != nil {
		return false
	}
	if f.OwnerID != 0 && item.OwnerID != f.OwnerID {
		return false
	}
	if f.ExcludeOwnerID != 0 && item.OwnerID == f.ExcludeOwnerID {
		return false
	}
	if f.Status != "" && item.Status != f.Status {
		return false
	}
	if f.GroupCode != "" && item.GroupCode != f.GroupCode {
		return false
	}
	if len(f.Conditions) > 0 && !containsCondition(f.Conditions, item.Condition) {
		return false
	}
	if len(f.Tags) > 0 && !anyTag(item.Tags, f.Tags) {
		return false
	}
	if f.Query != "" && !matchesQuery(item, f.Query) {
		return false
	}
	return true
}

func containsCondition(list []Condition, c Condition) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}

func anyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}
