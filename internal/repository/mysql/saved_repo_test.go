package mysql_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"Backstage_Jobs/internal/model"
	"Backstage_Jobs/internal/repository/mysql"
	"Backstage_Jobs/internal/testutil"
)

func TestSaved_IdempotentSaveAndUnsave(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	saved := &mysql.SavedRepository{DB: db}
	owner := testutil.MustCreateUser(t, db, "venue", model.AccountVenue)
	fan := testutil.MustCreateUser(t, db, "fan", model.AccountOther)
	cat := testutil.MustCreateCategory(t, db, "Tour Crew", 1)
	p1 := testutil.MustCreatePosting(t, db, testutil.Posting(owner.ID, cat.ID, "Lighting tech", 0))
	p2 := testutil.MustCreatePosting(t, db, testutil.Posting(owner.ID, cat.ID, "Merch seller", 1))

	changed, err := saved.Save(ctx, fan.ID, p1.ID)
	if err != nil || !changed {
		t.Fatalf("first Save = %v, %v", changed, err)
	}
	changed, err = saved.Save(ctx, fan.ID, p1.ID)
	if err != nil || changed {
		t.Fatalf("duplicate Save = %v, %v; want silent no-op", changed, err)
	}
	if n, _ := saved.CountByJob(ctx, p1.ID); n != 1 {
		t.Fatalf("CountByJob = %d, want 1", n)
	}

	// saved later, so listed first
	if err := db.Create(&model.SavedJob{UserID: fan.ID, JobID: p2.ID, CreatedAt: time.Now().UTC().Add(time.Minute)}).Error; err != nil {
		t.Fatalf("seed second save: %v", err)
	}
	list, err := saved.ListPostings(ctx, fan.ID)
	if err != nil {
		t.Fatalf("ListPostings: %v", err)
	}
	if diff := cmp.Diff([]string{"Merch seller", "Lighting tech"}, titles(list)); diff != "" {
		t.Fatalf("saved order mismatch (-want +got):\n%s", diff)
	}

	ids, err := saved.JobIDsByUser(ctx, fan.ID)
	if err != nil || len(ids) != 2 {
		t.Fatalf("JobIDsByUser = %v, %v", ids, err)
	}

	changed, err = saved.Unsave(ctx, fan.ID, p1.ID)
	if err != nil || !changed {
		t.Fatalf("Unsave = %v, %v", changed, err)
	}
	changed, err = saved.Unsave(ctx, fan.ID, p1.ID)
	if err != nil || changed {
		t.Fatalf("second Unsave = %v, %v; want no-op", changed, err)
	}
	if ok, _ := saved.IsSaved(ctx, fan.ID, p1.ID); ok {
		t.Fatalf("IsSaved after unsave")
	}
}

func TestView_RecordAndRecent(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	views := &mysql.ViewRepository{DB: db}
	owner := testutil.MustCreateUser(t, db, "venue", model.AccountVenue)
	cat := testutil.MustCreateCategory(t, db, "Tour Crew", 1)
	p := testutil.MustCreatePosting(t, db, testutil.Posting(owner.ID, cat.ID, "Backline tech", 0))

	viewer := owner.ID
	for i := 0; i < 12; i++ {
		var who *uint64
		if i%2 == 0 {
			who = &viewer
		}
		if err := views.Record(ctx, p.ID, who, testutil.Base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if n, _ := views.CountByJob(ctx, p.ID); n != 12 {
		t.Fatalf("CountByJob = %d, want 12", n)
	}
	var got model.Posting
	db.First(&got, p.ID)
	if got.ViewsCount != 12 {
		t.Fatalf("views_count = %d, want 12", got.ViewsCount)
	}

	recent, err := views.Recent(ctx, p.ID, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 10 {
		t.Fatalf("len(recent) = %d, want 10", len(recent))
	}
	if !recent[0].Equal(testutil.Base.Add(11*time.Minute)) || !recent[9].Equal(testutil.Base.Add(2*time.Minute)) {
		t.Fatalf("recent not newest first: first=%v last=%v", recent[0], recent[9])
	}
}

func TestCategory_SeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	cats := &mysql.CategoryRepository{DB: db}

	seed := func() []model.Category {
		return []model.Category{
			{Name: "Songwriting", Active: true, SortOrder: 2},
			{Name: "Music Production", Active: true, SortOrder: 1},
		}
	}
	if err := cats.Seed(ctx, seed()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := cats.Seed(ctx, seed()); err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	list, err := cats.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Music Production" {
		t.Fatalf("unexpected categories: %+v", list)
	}

	if err := cats.SetActive(ctx, list[0].ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	list, _ = cats.ListActive(ctx)
	if len(list) != 1 || list[0].Name != "Songwriting" {
		t.Fatalf("inactive category still listed: %+v", list)
	}
}
