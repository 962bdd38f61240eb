package service

import (
	"context"
	"testing"

	"Backstage_Jobs/internal/apperr"
	"Backstage_Jobs/internal/model"
	"Backstage_Jobs/internal/testutil"
)

func TestApply_Guards(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.mustCreate(t, e.paidInput("Trumpet player", 250))

	_, err := e.apps.Apply(ctx, 999, e.artist.ID, ApplicationInput{Message: "hi"})
	wantKind(t, err, apperr.KindNotFound)

	_, err = e.apps.Apply(ctx, p.ID, e.owner.ID, ApplicationInput{Message: "hi"})
	wantKind(t, err, apperr.KindValidationFailure)

	_, err = e.apps.Apply(ctx, p.ID, e.artist.ID, ApplicationInput{Message: "  "})
	wantKind(t, err, apperr.KindValidationFailure)

	closed := e.mustCreate(t, e.paidInput("Closed gig", 100))
	if _, err := e.posting.Update(ctx, closed.ID, e.owner.ID, PostingInput{Status: ptr(model.PostingStatusClosed)}); err != nil {
		t.Fatalf("close: %v", err)
	}
	_, err = e.apps.Apply(ctx, closed.ID, e.artist.ID, ApplicationInput{Message: "hi"})
	wantKind(t, err, apperr.KindValidationFailure)
}

func TestApply_TwiceIsDuplicate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.mustCreate(t, e.paidInput("Cellist", 250))

	first, err := e.apps.Apply(ctx, p.ID, e.artist.ID, ApplicationInput{Message: "classically trained", Skills: []string{"sight reading", "sight reading"}})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if first.Status != model.ApplicationPending || len(first.Skills) != 1 {
		t.Fatalf("unexpected application: %+v", first)
	}
	_, err = e.apps.Apply(ctx, p.ID, e.artist.ID, ApplicationInput{Message: "me again"})
	wantKind(t, err, apperr.KindDuplicateApplication)

	list, err := e.apps.ListForPosting(ctx, p.ID, e.owner.ID)
	if err != nil {
		t.Fatalf("ListForPosting: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("applications = %d, want exactly one", len(list))
	}
	got, _ := e.posting.Get(ctx, p.ID, nil)
	if got.ApplicationsCount != 1 {
		t.Fatalf("applications_count = %d, want 1", got.ApplicationsCount)
	}
}

func TestListForPosting_OwnerOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.mustCreate(t, e.paidInput("Violinist", 250))
	stranger := testutil.MustCreateUser(t, e.db, "stranger", model.AccountOther)

	for _, caller := range []uint64{0, e.artist.ID, stranger.ID} {
		_, err := e.apps.ListForPosting(ctx, p.ID, caller)
		wantKind(t, err, apperr.KindUnauthorized)
	}
	list, err := e.apps.ListForPosting(ctx, p.ID, e.owner.ID)
	if err != nil || len(list) != 0 {
		t.Fatalf("owner ListForPosting = %v, %v", list, err)
	}
}

func TestAcceptScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.mustCreate(t, e.paidInput("Backing vocalist", 180))
	app, err := e.apps.Apply(ctx, p.ID, e.artist.ID, ApplicationInput{Message: "alto, 10 years"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	_, err = e.apps.UpdateStatus(ctx, app.ID, e.artist.ID, model.ApplicationAccepted, "")
	wantKind(t, err, apperr.KindUnauthorized)
	_, err = e.apps.UpdateStatus(ctx, app.ID, e.owner.ID, model.ApplicationWithdrawn, "")
	wantKind(t, err, apperr.KindValidationFailure)

	if _, err := e.apps.UpdateStatus(ctx, app.ID, e.owner.ID, model.ApplicationAccepted, "welcome aboard"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	mine, err := e.apps.ListMine(ctx, e.artist.ID)
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("ListMine = %d rows, want 1", len(mine))
	}
	if mine[0].Status != model.ApplicationAccepted || mine[0].RespondedAt == nil || mine[0].JobTitle != p.Title {
		t.Fatalf("unexpected row: %+v", mine[0])
	}

	_, err = e.apps.UpdateStatus(ctx, app.ID, e.owner.ID, model.ApplicationRejected, "")
	wantKind(t, err, apperr.KindValidationFailure)

	var ob model.EventOutbox
	if err := e.db.Where("event_type = ?", model.EventApplicationStatusChanged).First(&ob).Error; err != nil {
		t.Fatalf("status event: %v", err)
	}
	if ob.Recipient != e.artist.Email {
		t.Fatalf("recipient = %q, want the applicant's account email", ob.Recipient)
	}
}

func TestWithdraw_IdempotentAndApplicantOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.mustCreate(t, e.paidInput("Sax player", 220))
	app, err := e.apps.Apply(ctx, p.ID, e.artist.ID, ApplicationInput{Message: "tenor and alto", ContactEmail: "sax@example.com"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	_, err = e.apps.Withdraw(ctx, app.ID, e.owner.ID)
	wantKind(t, err, apperr.KindUnauthorized)

	for i := 0; i < 2; i++ {
		got, err := e.apps.Withdraw(ctx, app.ID, e.artist.ID)
		if err != nil {
			t.Fatalf("Withdraw #%d: %v", i+1, err)
		}
		if got.Status != model.ApplicationWithdrawn {
			t.Fatalf("Withdraw #%d status = %q", i+1, got.Status)
		}
	}
	got, _ := e.posting.Get(ctx, p.ID, nil)
	if got.ApplicationsCount != 0 {
		t.Fatalf("applications_count = %d after withdraw, want 0", got.ApplicationsCount)
	}

	again, err := e.apps.Apply(ctx, p.ID, e.artist.ID, ApplicationInput{Message: "changed my mind"})
	if err != nil {
		t.Fatalf("reapply after withdraw: %v", err)
	}
	if again.ID == app.ID {
		t.Fatalf("reapply must create a new application")
	}
}

func TestWithdrawAccepted_Decrements(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.mustCreate(t, e.paidInput("Roadie", 90))
	app, err := e.apps.Apply(ctx, p.ID, e.artist.ID, ApplicationInput{Message: "strong back"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := e.apps.UpdateStatus(ctx, app.ID, e.owner.ID, model.ApplicationRejected, "sorry"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if _, err := e.apps.Withdraw(ctx, app.ID, e.artist.ID); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	a, err := e.analytics.Get(ctx, p.ID, e.owner.ID)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	got, _ := e.posting.Get(ctx, p.ID, nil)
	if a.Applications != 0 || got.ApplicationsCount != 0 {
		t.Fatalf("counters out of sync: analytics=%d column=%d", a.Applications, got.ApplicationsCount)
	}
}
