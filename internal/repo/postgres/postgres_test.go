package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping Postgres integration test")
	}

	ctx := context.Background()
	store, err := New(ctx, dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("New store: %v", err)
	}
	t.Cleanup(store.Close)

	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init schema: %v", err)
	}
	return store
}

// uniqueName avoids collisions with rows left behind by previous runs.
func uniqueName(prefix string) string {
	return fmt.Sprintf("%s %d", prefix, time.Now().UTC().UnixNano())
}

func TestPostgresStore_UpsertAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	name := uniqueName("itest upsert")
	svc, err := store.UpsertService(ctx, name, "https://a.example.com")
	if err != nil {
		t.Fatalf("UpsertService: %v", err)
	}

	// same id, new target: must update, not duplicate
	again, err := store.UpsertService(ctx, name, "https://b.example.com")
	if err != nil {
		t.Fatalf("UpsertService again: %v", err)
	}
	if again.ID != svc.ID || again.Target != "https://b.example.com" {
		t.Fatalf("upsert did not update in place: %+v", again)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	seen := 0
	for _, x := range list {
		if x.ID == svc.ID {
			seen++
			if x.Target != "https://b.example.com" {
				t.Fatalf("listed target not updated: %q", x.Target)
			}
		}
	}
	if seen != 1 {
		t.Fatalf("want exactly 1 row for %s, saw %d", svc.ID, seen)
	}
}

func TestPostgresStore_AppendSampleEvictionAndFlag(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	svc, err := store.UpsertService(ctx, uniqueName("itest ring"), "https://x.example.com")
	if err != nil {
		t.Fatalf("UpsertService: %v", err)
	}

	// Small cap exercises the same CASE slicing AppendSample runs at
	// domain.MaxHistory.
	for _, v := range []int{10, 20, 30, 40} {
		if err := store.appendSampleCapped(ctx, svc.ID, v, 3); err != nil {
			t.Fatalf("append %d: %v", v, err)
		}
	}

	got, err := store.RecentSamples(ctx, svc.ID, 0)
	if err != nil {
		t.Fatalf("RecentSamples: %v", err)
	}
	if len(got) != 3 || got[0] != 20 || got[1] != 30 || got[2] != 40 {
		t.Fatalf("want [20 30 40] after eviction, got %v", got)
	}

	// online flag follows the newest sample
	if err := store.AppendSample(ctx, svc.ID, 0); err != nil {
		t.Fatalf("AppendSample(0): %v", err)
	}
	list, _ := store.List(ctx)
	for _, x := range list {
		if x.ID == svc.ID && x.IsOnline {
			t.Fatalf("zero sample should mark service offline")
		}
	}
}

func TestPostgresStore_AppendSampleUnknownService(t *testing.T) {
	store := openTestStore(t)
	if err := store.AppendSample(context.Background(), "no_such_service_id", 5); err == nil {
		t.Fatalf("want error appending to unknown service")
	}
}

func TestPostgresStore_CountRecentFailuresTrailingWindow(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	svc, err := store.UpsertService(ctx, uniqueName("itest window"), "https://w.example.com")
	if err != nil {
		t.Fatalf("UpsertService: %v", err)
	}

	// old zeros fall outside the trailing-5 window
	for _, v := range []int{0, 0, 0, 10, 0, 0, 20, 0, 0} {
		if err := store.AppendSample(ctx, svc.ID, v); err != nil {
			t.Fatalf("AppendSample(%d): %v", v, err)
		}
	}
	n, err := store.CountRecentFailures(ctx, svc.ID, 5)
	if err != nil {
		t.Fatalf("CountRecentFailures: %v", err)
	}
	if n != 4 {
		t.Fatalf("trailing 5 of [... 0 0 20 0 0] has 4 zeros, got %d", n)
	}

	// history shorter than the window
	short, err := store.UpsertService(ctx, uniqueName("itest short"), "https://s.example.com")
	if err != nil {
		t.Fatalf("UpsertService short: %v", err)
	}
	if err := store.AppendSample(ctx, short.ID, 0); err != nil {
		t.Fatalf("AppendSample: %v", err)
	}
	n, err = store.CountRecentFailures(ctx, short.ID, 5)
	if err != nil {
		t.Fatalf("CountRecentFailures short: %v", err)
	}
	if n != 1 {
		t.Fatalf("want 1 failure with short history, got %d", n)
	}
}

func TestPostgresStore_IncidentsCreateAndIdempotentClose(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	name := uniqueName("itest incident")
	svc, err := store.UpsertService(ctx, name, "https://i.example.com")
	if err != nil {
		t.Fatalf("UpsertService: %v", err)
	}

	inc, err := store.Create(ctx, svc.ID, "down after 5 consecutive failures")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if inc.ServiceName != name {
		t.Fatalf("service name not snapshotted: %q", inc.ServiceName)
	}

	open, err := store.ListOpen(ctx)
	if err != nil {
		t.Fatalf("ListOpen: %v", err)
	}
	found := false
	for _, x := range open {
		if x.ID == inc.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("created incident %d not in open list", inc.ID)
	}

	if err := store.CloseIncident(ctx, inc.ID); err != nil {
		t.Fatalf("CloseIncident: %v", err)
	}

	endTime := incidentEndTime(t, store, inc.ID)
	if endTime == nil {
		t.Fatalf("closed incident should have an end time")
	}

	// closing again must not move the end time
	if err := store.CloseIncident(ctx, inc.ID); err != nil {
		t.Fatalf("second CloseIncident: %v", err)
	}
	if again := incidentEndTime(t, store, inc.ID); again == nil || !again.Equal(*endTime) {
		t.Fatalf("idempotent close moved end time: %v -> %v", endTime, again)
	}
}

func incidentEndTime(t *testing.T, store *Store, id int64) *time.Time {
	t.Helper()
	all, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	for _, x := range all {
		if x.ID == id {
			return x.EndTime
		}
	}
	t.Fatalf("incident %d not found", id)
	return nil
}
