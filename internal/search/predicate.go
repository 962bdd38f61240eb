package search

import (
	"strings"

	"Backstage_Jobs/internal/model"
)

type Op int

const (
	// OpEq compares Field to Value.
	OpEq Op = iota
	// OpIn matches when Field is one of Values.
	OpIn
	// OpContains is a case-insensitive substring match of Value against any of Fields.
	OpContains
	// OpOverlaps matches when the set column Field shares at least one element with Values.
	OpOverlaps
	// OpGte and OpLte compare Field to Value; NULL never matches.
	OpGte
	OpLte
)

// Column names as stored; adapters may rely on these being a closed set.
const (
	FieldStatus       = "status"
	FieldCategoryID   = "category_id"
	FieldPaymentType  = "payment_type"
	FieldJobType      = "job_type"
	FieldLocationType = "location_type"
	FieldCity         = "city"
	FieldState        = "state"
	FieldCountry      = "country"
	FieldExperience   = "required_experience"
	FieldGenres       = "required_genres"
	FieldSkills       = "required_skills"
	FieldPayment      = "payment_amount"
	FieldEventDate    = "event_date"
	FieldDeadline     = "deadline"
	FieldFeatured     = "featured"
	FieldTitle        = "title"
	FieldDescription  = "description"
)

// Predicate is one store-agnostic condition. A predicate set is the AND of its members.
type Predicate struct {
	Op     Op
	Fields []string
	Value  any
	Values []string
}

func (p Predicate) Field() string {
	if len(p.Fields) == 0 {
		return ""
	}
	return p.Fields[0]
}

func eq(field string, v any) Predicate {
	return Predicate{Op: OpEq, Fields: []string{field}, Value: v}
}

func in(field string, vs []string) Predicate {
	return Predicate{Op: OpIn, Fields: []string{field}, Values: vs}
}

func contains(v string, fields ...string) Predicate {
	return Predicate{Op: OpContains, Fields: fields, Value: strings.ToLower(v)}
}

func overlaps(field string, vs []string) Predicate {
	return Predicate{Op: OpOverlaps, Fields: []string{field}, Values: vs}
}

func bound(op Op, field string, v any) Predicate {
	return Predicate{Op: op, Fields: []string{field}, Value: v}
}

// Build translates f into its predicate set. Only open postings are ever eligible.
func Build(f Filter) []Predicate {
	f = f.Normalize()
	preds := []Predicate{eq(FieldStatus, model.PostingStatusOpen)}

	if f.Query != "" {
		preds = append(preds, contains(f.Query, FieldTitle, FieldDescription))
	}
	if f.CategoryID != 0 {
		preds = append(preds, eq(FieldCategoryID, f.CategoryID))
	}
	if len(f.PaymentTypes) > 0 {
		preds = append(preds, in(FieldPaymentType, f.PaymentTypes))
	}
	if len(f.JobTypes) > 0 {
		preds = append(preds, in(FieldJobType, f.JobTypes))
	}
	if len(f.LocationTypes) > 0 {
		preds = append(preds, in(FieldLocationType, f.LocationTypes))
	}
	if f.City != "" {
		preds = append(preds, contains(f.City, FieldCity))
	}
	if f.State != "" {
		preds = append(preds, contains(f.State, FieldState))
	}
	if f.Country != "" {
		preds = append(preds, contains(f.Country, FieldCountry))
	}
	if len(f.Experience) > 0 {
		preds = append(preds, in(FieldExperience, f.Experience))
	}
	if len(f.Genres) > 0 {
		preds = append(preds, overlaps(FieldGenres, f.Genres))
	}
	if len(f.Skills) > 0 {
		preds = append(preds, overlaps(FieldSkills, f.Skills))
	}
	if f.MinPayment != nil {
		preds = append(preds, bound(OpGte, FieldPayment, *f.MinPayment))
	}
	if f.MaxPayment != nil {
		preds = append(preds, bound(OpLte, FieldPayment, *f.MaxPayment))
	}
	if f.EventFrom != nil {
		preds = append(preds, bound(OpGte, FieldEventDate, f.EventFrom.UTC()))
	}
	if f.EventTo != nil {
		preds = append(preds, bound(OpLte, FieldEventDate, f.EventTo.UTC()))
	}
	if f.DeadlineFrom != nil {
		preds = append(preds, bound(OpGte, FieldDeadline, f.DeadlineFrom.UTC()))
	}
	if f.DeadlineTo != nil {
		preds = append(preds, bound(OpLte, FieldDeadline, f.DeadlineTo.UTC()))
	}
	if f.FeaturedOnly {
		preds = append(preds, eq(FieldFeatured, true))
	}
	return preds
}
