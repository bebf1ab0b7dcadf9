package worker

import (
	"context"
	"testing"

	"harambee/internal/amqp"
	"harambee/internal/repo"
	repomem "harambee/internal/repo/memory"
	sheetmem "harambee/internal/sheets/memory"
)

func TestSyncWorker_HandleSyncMessage(t *testing.T) {
	ctx := context.Background()
	store := repomem.New()
	sheet := sheetmem.New()
	w := NewSyncWorker(store, sheet)

	c, err := store.CreateContribution(ctx, repo.CreateContribution{Name: "Jane Doe", Amount: 1000, Ref: "QWE12345XY"})
	if err != nil {
		t.Fatal(err)
	}

	if err := w.HandleSyncMessage(ctx, amqp.NewContributionSyncMessage(c.ID)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	appended := sheet.Appended()
	if len(appended) != 1 {
		t.Fatalf("expected 1 appended row, got %d", len(appended))
	}
	if appended[0].ID != c.ID || appended[0].Amount != 1000 {
		t.Errorf("unexpected row: %+v", appended[0])
	}
}

func TestSyncWorker_MissingContributionIsDropped(t *testing.T) {
	ctx := context.Background()
	sheet := sheetmem.New()
	w := NewSyncWorker(repomem.New(), sheet)

	// Deleted before the worker got to it: skip, no retry.
	if err := w.HandleSyncMessage(ctx, amqp.NewContributionSyncMessage("gone")); err != nil {
		t.Fatalf("expected nil error for missing contribution, got %v", err)
	}
	if len(sheet.Appended()) != 0 {
		t.Errorf("nothing should be appended for a missing contribution")
	}
}
