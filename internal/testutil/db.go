// Package testutil holds fixtures shared by repository, service and handler tests.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"Backstage_Jobs/internal/model"
	"Backstage_Jobs/internal/repository/mysql"
)

// NewDB opens a migrated SQLite database private to t.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "backstage.db") + "?_pragma=busy_timeout(5000)"
	db, err := mysql.Open(sqlite.Open(dsn), mysql.PoolConfig{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := mysql.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Base is a fixed reference time; fixtures offset from it to get a deterministic order.
var Base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func MustCreateUser(t testing.TB, db *gorm.DB, name, accountType string) *model.User {
	t.Helper()
	u := &model.User{
		Username:    name,
		Password:    "x",
		Email:       fmt.Sprintf("%s@example.com", name),
		AccountType: accountType,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func MustCreateCategory(t testing.TB, db *gorm.DB, name string, order int) *model.Category {
	t.Helper()
	c := &model.Category{Name: name, Active: true, SortOrder: order}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("create category %s: %v", name, err)
	}
	return c
}

// Posting returns an open paid posting owned by ownerID, created minutesAfter Base.
func Posting(ownerID, categoryID uint64, title string, minutesAfter int) *model.Posting {
	created := Base.Add(time.Duration(minutesAfter) * time.Minute)
	return &model.Posting{
		PostedBy:          ownerID,
		PosterType:        model.AccountArtist,
		CategoryID:        categoryID,
		Title:             title,
		Description:       title + " description",
		JobType:           model.JobTypeJob,
		PaymentType:       model.PaymentPaid,
		PaymentAmount:     100,
		PaymentCurrency:   "USD",
		LocationType:      model.LocationRemote,
		RequiredSkills:    datatypes.JSONSlice[string]{},
		RequiredGenres:    datatypes.JSONSlice[string]{},
		InstrumentsNeeded: datatypes.JSONSlice[string]{},
		Status:            model.PostingStatusOpen,
		CreatedAt:         created,
		UpdatedAt:         created,
	}
}

func MustCreatePosting(t testing.TB, db *gorm.DB, p *model.Posting) *model.Posting {
	t.Helper()
	if err := db.WithContext(context.Background()).Create(p).Error; err != nil {
		t.Fatalf("create posting %q: %v", p.Title, err)
	}
	return p
}
