package mysql

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Backstage_Jobs/internal/model"
	"Backstage_Jobs/internal/search"
)

// ErrStaleState is returned when a conditional update matched no row because
// the row already left the expected state.
var ErrStaleState = errors.New("row is no longer in the expected state")

const cancelFeedback = "posting cancelled"

type PostingRepository struct {
	DB *gorm.DB
}

func (r *PostingRepository) Create(ctx context.Context, p *model.Posting) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *PostingRepository) FindByID(ctx context.Context, id uint64) (*model.Posting, error) {
	var p model.Posting
	err := r.DB.WithContext(ctx).First(&p, id).Error
	return &p, err
}

func (r *PostingRepository) FindByIDs(ctx context.Context, ids []uint64) ([]model.Posting, error) {
	var list []model.Posting
	if len(ids) == 0 {
		return list, nil
	}
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error
	return list, err
}

// Update writes the editable columns of p, provided the row is still in
// fromStatus. Counters and ownership are never overwritten. Moving into
// cancelled rejects the posting's pending applications in the same transaction.
func (r *PostingRepository) Update(ctx context.Context, p *model.Posting, fromStatus string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(p).
			Where("status = ?", fromStatus).
			Select("*").
			Omit("id", "posted_by", "views_count", "applications_count", "created_at").
			Updates(p)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleState
		}
		if fromStatus != model.PostingStatusCancelled && p.Status == model.PostingStatusCancelled {
			return cancelPendingApplications(tx, p.ID)
		}
		return nil
	})
}

// Cancel soft-deletes a posting. It reports false when the posting was already cancelled.
func (r *PostingRepository) Cancel(ctx context.Context, id uint64) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Posting{}).
			Where("id = ? AND status <> ?", id, model.PostingStatusCancelled).
			Update("status", model.PostingStatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		changed = true
		return cancelPendingApplications(tx, id)
	})
	return changed, err
}

func cancelPendingApplications(tx *gorm.DB, jobID uint64) error {
	now := time.Now().UTC()
	res := tx.Model(&model.Application{}).
		Where("job_id = ? AND status = ?", jobID, model.ApplicationPending).
		Updates(map[string]any{
			"status":       model.ApplicationRejected,
			"feedback":     cancelFeedback,
			"responded_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	return insertOutbox(tx, model.EventPostingCancelled, jobID, "", map[string]any{
		"job_id":   jobID,
		"rejected": res.RowsAffected,
	})
}

// Search runs the predicate set built from f and returns one page plus the total match count.
func (r *PostingRepository) Search(ctx context.Context, f search.Filter) ([]model.Posting, int64, error) {
	f = f.Normalize()
	preds := search.Build(f)
	base := func() *gorm.DB {
		return applyPredicates(r.DB.WithContext(ctx).Model(&model.Posting{}), preds)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	list := make([]model.Posting, 0, f.PerPage)
	if total == 0 || int64(f.Offset()) >= total {
		return list, total, nil
	}
	err := base().
		Order(orderBy(f.SortBy, f.Descending())).
		Offset(f.Offset()).
		Limit(f.PerPage).
		Find(&list).Error
	return list, total, err
}

// ListByOwner returns the owner's postings in any status, newest first.
func (r *PostingRepository) ListByOwner(ctx context.Context, ownerID uint64, offset, limit int) ([]model.Posting, int64, error) {
	var total int64
	q := r.DB.WithContext(ctx).Model(&model.Posting{}).Where("posted_by = ?", ownerID)
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.Posting
	err := q.Session(&gorm.Session{}).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	return list, total, err
}

// ListOpenRecent is the recency-only feed.
func (r *PostingRepository) ListOpenRecent(ctx context.Context, limit int) ([]model.Posting, error) {
	var list []model.Posting
	err := r.DB.WithContext(ctx).
		Where("status = ?", model.PostingStatusOpen).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

// ListOpenInCategories returns open postings in any of categoryIDs not owned by excludeOwner.
func (r *PostingRepository) ListOpenInCategories(ctx context.Context, categoryIDs []uint64, excludeOwner uint64, limit int) ([]model.Posting, error) {
	var list []model.Posting
	if len(categoryIDs) == 0 {
		return list, nil
	}
	err := r.DB.WithContext(ctx).
		Where("status = ? AND category_id IN ? AND posted_by <> ?", model.PostingStatusOpen, categoryIDs, excludeOwner).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func orderBy(column string, desc bool) clause.OrderBy {
	return clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: column}, Desc: desc},
		{Column: clause.Column{Name: "id"}, Desc: desc},
	}}
}

func applyPredicates(db *gorm.DB, preds []search.Predicate) *gorm.DB {
	for _, p := range preds {
		if expr := predicateExpr(p); expr != nil {
			db = db.Clauses(clause.Where{Exprs: []clause.Expression{expr}})
		}
	}
	return db
}

func predicateExpr(p search.Predicate) clause.Expression {
	col := clause.Column{Name: p.Field()}
	switch p.Op {
	case search.OpEq:
		return clause.Eq{Column: col, Value: p.Value}
	case search.OpIn:
		values := make([]any, len(p.Values))
		for i, v := range p.Values {
			values[i] = v
		}
		return clause.IN{Column: col, Values: values}
	case search.OpGte:
		return clause.Gte{Column: col, Value: p.Value}
	case search.OpLte:
		return clause.Lte{Column: col, Value: p.Value}
	case search.OpContains:
		needle, _ := p.Value.(string)
		pattern := "%" + escapeLike(needle) + "%"
		exprs := make([]clause.Expression, 0, len(p.Fields))
		for _, f := range p.Fields {
			exprs = append(exprs, clause.Expr{
				SQL:  "LOWER(?) LIKE ? ESCAPE '!'",
				Vars: []any{clause.Column{Name: f}, pattern},
			})
		}
		return anyOf(exprs)
	case search.OpOverlaps:
		exprs := make([]clause.Expression, 0, len(p.Values))
		for _, v := range p.Values {
			exprs = append(exprs, datatypes.JSONArrayQuery(p.Field()).Contains(v))
		}
		return anyOf(exprs)
	}
	return nil
}

func anyOf(exprs []clause.Expression) clause.Expression {
	switch len(exprs) {
	case 0:
		return nil
	case 1:
		return exprs[0]
	}
	return clause.Or(exprs...)
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
