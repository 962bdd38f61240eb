package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Backstage_Jobs/internal/model"
)

type CategoryRepository struct {
	DB *gorm.DB
}

func (r *CategoryRepository) ListActive(ctx context.Context) ([]model.Category, error) {
	var list []model.Category
	err := r.DB.WithContext(ctx).
		Where("active = ?", true).
		Order("sort_order ASC, name ASC").
		Find(&list).Error
	return list, err
}

func (r *CategoryRepository) FindByID(ctx context.Context, id uint64) (*model.Category, error) {
	var c model.Category
	err := r.DB.WithContext(ctx).First(&c, id).Error
	return &c, err
}

// Seed inserts categories by name; existing names are left untouched.
func (r *CategoryRepository) Seed(ctx context.Context, list []model.Category) error {
	if len(list) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&list).Error
}

// SetActive toggles a category without touching the rest of the row.
func (r *CategoryRepository) SetActive(ctx context.Context, id uint64, active bool) error {
	return r.DB.WithContext(ctx).Model(&model.Category{}).
		Where("id = ?", id).
		Update("active", active).Error
}
