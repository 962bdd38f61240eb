package search

import (
	"strings"
	"time"

	"Backstage_Jobs/internal/model"
)

// Match reports whether p satisfies every predicate. It mirrors the SQL adapter
// and is used to post-check store results and in tests.
func Match(p *model.Posting, preds []Predicate) bool {
	for _, pred := range preds {
		if !matchOne(p, pred) {
			return false
		}
	}
	return true
}

func matchOne(p *model.Posting, pred Predicate) bool {
	switch pred.Op {
	case OpEq:
		switch pred.Field() {
		case FieldStatus:
			return p.Status == pred.Value
		case FieldCategoryID:
			return p.CategoryID == pred.Value
		case FieldFeatured:
			return p.Featured == pred.Value
		}
		if s, ok := stringField(p, pred.Field()); ok {
			return s == pred.Value
		}
		return false
	case OpIn:
		s, ok := stringField(p, pred.Field())
		if !ok {
			return false
		}
		for _, v := range pred.Values {
			if s == v {
				return true
			}
		}
		return false
	case OpContains:
		needle, _ := pred.Value.(string)
		for _, f := range pred.Fields {
			if s, ok := stringField(p, f); ok && strings.Contains(strings.ToLower(s), needle) {
				return true
			}
		}
		return false
	case OpOverlaps:
		set := setField(p, pred.Field())
		for _, want := range pred.Values {
			for _, have := range set {
				if have == want {
					return true
				}
			}
		}
		return false
	case OpGte, OpLte:
		return matchBound(p, pred)
	}
	return false
}

func matchBound(p *model.Posting, pred Predicate) bool {
	switch pred.Field() {
	case FieldPayment:
		v, ok := pred.Value.(float64)
		if !ok {
			return false
		}
		if pred.Op == OpGte {
			return p.PaymentAmount >= v
		}
		return p.PaymentAmount <= v
	case FieldEventDate, FieldDeadline:
		at := p.EventDate
		if pred.Field() == FieldDeadline {
			at = p.Deadline
		}
		v, ok := pred.Value.(time.Time)
		if at == nil || !ok {
			return false
		}
		if pred.Op == OpGte {
			return !at.Before(v)
		}
		return !at.After(v)
	}
	return false
}

func stringField(p *model.Posting, field string) (string, bool) {
	switch field {
	case FieldStatus:
		return p.Status, true
	case FieldPaymentType:
		return p.PaymentType, true
	case FieldJobType:
		return p.JobType, true
	case FieldLocationType:
		return p.LocationType, true
	case FieldCity:
		return p.City, true
	case FieldState:
		return p.State, true
	case FieldCountry:
		return p.Country, true
	case FieldExperience:
		return p.RequiredExperience, true
	case FieldTitle:
		return p.Title, true
	case FieldDescription:
		return p.Description, true
	}
	return "", false
}

func setField(p *model.Posting, field string) []string {
	switch field {
	case FieldGenres:
		return p.RequiredGenres
	case FieldSkills:
		return p.RequiredSkills
	}
	return nil
}
