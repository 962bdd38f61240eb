package search

import (
	"math"
	"strings"
	"time"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100

	// MaxPage keeps (Page-1)*PerPage inside int for any PerPage <= MaxPerPage.
	MaxPage = math.MaxInt / MaxPerPage
)

const (
	SortCreatedAt         = "created_at"
	SortDeadline          = "deadline"
	SortEventDate         = "event_date"
	SortPaymentAmount     = "payment_amount"
	SortViewsCount        = "views_count"
	SortApplicationsCount = "applications_count"
	SortPriority          = "priority"
)

var sortable = map[string]struct{}{
	SortCreatedAt:         {},
	SortDeadline:          {},
	SortEventDate:         {},
	SortPaymentAmount:     {},
	SortViewsCount:        {},
	SortApplicationsCount: {},
	SortPriority:          {},
}

// Filter is the structured search request. Zero-valued fields do not narrow the result.
type Filter struct {
	Query         string
	CategoryID    uint64
	PaymentTypes  []string
	JobTypes      []string
	LocationTypes []string
	City          string
	State         string
	Country       string
	Experience    []string
	Genres        []string
	Skills        []string
	MinPayment    *float64
	MaxPayment    *float64
	EventFrom     *time.Time
	EventTo       *time.Time
	DeadlineFrom  *time.Time
	DeadlineTo    *time.Time
	FeaturedOnly  bool
	SortBy        string
	SortOrder     string
	Page          int
	PerPage       int
}

// Normalize clamps paging and whitelists the sort key and direction.
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Page > MaxPage {
		f.Page = MaxPage
	}
	if f.PerPage <= 0 {
		f.PerPage = DefaultPerPage
	}
	if f.PerPage > MaxPerPage {
		f.PerPage = MaxPerPage
	}
	f.SortBy = strings.ToLower(strings.TrimSpace(f.SortBy))
	if _, ok := sortable[f.SortBy]; !ok {
		f.SortBy = SortCreatedAt
	}
	f.SortOrder = strings.ToLower(strings.TrimSpace(f.SortOrder))
	if f.SortOrder != "asc" {
		f.SortOrder = "desc"
	}
	f.Query = strings.TrimSpace(f.Query)
	f.City = strings.TrimSpace(f.City)
	f.State = strings.TrimSpace(f.State)
	f.Country = strings.TrimSpace(f.Country)
	f.PaymentTypes = CleanSet(f.PaymentTypes)
	f.JobTypes = CleanSet(f.JobTypes)
	f.LocationTypes = CleanSet(f.LocationTypes)
	f.Experience = CleanSet(f.Experience)
	f.Genres = CleanSet(f.Genres)
	f.Skills = CleanSet(f.Skills)
	return f
}

func (f Filter) Offset() int {
	return (f.Page - 1) * f.PerPage
}

func (f Filter) Descending() bool {
	return f.SortOrder != "asc"
}

// CleanSet trims, drops empties and de-duplicates while keeping order.
func CleanSet(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
