package core

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"hopon/internal/dataset"
)

func TestSessionKeepsPreviousViewOnInvalidParams(t *testing.T) {
	st := NewSessionStore(4, time.Minute)
	sess := st.Create(fixtureSnapshot(), ViewParams{})
	applied, err := sess.ApplyProjectParams(ProjectParams{Clusters: NewSet("C1")})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !reflect.DeepEqual(ids(applied.Projects), []string{"101", "103"}) {
		t.Fatalf("unexpected projects %v", ids(applied.Projects))
	}
	view, err := sess.ApplyProjectParams(ProjectParams{DateRange: Between(day("2022-01-01"), day("2020-01-01"))})
	if !IsFilterError(err) {
		t.Fatalf("expected FilterError, got %v", err)
	}
	if !reflect.DeepEqual(view, applied) || !reflect.DeepEqual(sess.View(), applied) {
		t.Fatalf("previous view must be retained")
	}
	if sess.Params().Projects.DateRange != nil {
		t.Fatalf("invalid params must not be stored")
	}
}

func TestSessionSelectAndRefresh(t *testing.T) {
	st := NewSessionStore(4, time.Minute)
	snap := fixtureSnapshot()
	sess := st.Create(snap, ViewParams{})
	view := sess.Select("104")
	if view.SelectedProjectID != "104" || !reflect.DeepEqual(names(view.SelectedOrganizations), []string{"Delta"}) {
		t.Fatalf("unexpected selection %+v", view)
	}
	view = sess.ApplyOrganizationParams(OrganizationParams{Countries: NewSet("France")})
	if len(view.SelectedOrganizations) != 0 || view.Summary.Organizations != 1 {
		t.Fatalf("selection must follow the filtered organizations: %+v", view.Summary)
	}
	if same := sess.Refresh(snap); !reflect.DeepEqual(same, view) {
		t.Fatalf("refresh with the same snapshot must not change the view")
	}
	next := &dataset.Snapshot{Key: "next", Projects: snap.Projects[:1], Organizations: snap.Organizations}
	refreshed := sess.Refresh(next)
	if refreshed.SnapshotKey != "next" || refreshed.Summary.TotalProjects != 1 {
		t.Fatalf("refresh must recompute against the new snapshot: %+v", refreshed.Summary)
	}
	if refreshed.SelectedProjectID != "104" || len(refreshed.SelectedOrganizations) != 0 {
		t.Fatalf("selection survives but resolves to nothing: %+v", refreshed)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	st := NewSessionStore(8, time.Minute)
	snap := fixtureSnapshot()
	a := st.Create(snap, ViewParams{})
	b := st.Create(snap, ViewParams{})
	if a.ID() == b.ID() || st.Len() != 2 {
		t.Fatalf("sessions need distinct ids")
	}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); _, _ = a.ApplyProjectParams(ProjectParams{Clusters: NewSet("C1")}) }()
		go func() { defer wg.Done(); _ = b.ApplyOrganizationParams(OrganizationParams{Roles: NewSet("participant")}) }()
	}
	wg.Wait()
	if len(a.View().Organizations) != 5 || len(b.View().Projects) != 4 {
		t.Fatalf("sessions leaked state: a=%+v b=%+v", a.View().Summary, b.View().Summary)
	}
	got, ok := st.Get(a.ID())
	if !ok || got != a {
		t.Fatalf("lookup failed")
	}
	if !st.Remove(a.ID()) {
		t.Fatalf("remove failed")
	}
	if _, ok := st.Get(a.ID()); ok {
		t.Fatalf("removed session still present")
	}
}

func TestSessionStoreExpires(t *testing.T) {
	st := NewSessionStore(2, 20*time.Millisecond)
	sess := st.Create(fixtureSnapshot(), ViewParams{})
	time.Sleep(60 * time.Millisecond)
	if _, ok := st.Get(sess.ID()); ok {
		t.Fatalf("session should have expired")
	}
}
