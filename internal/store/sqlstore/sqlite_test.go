package sqlstore_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/IgorAraujoV/agilean-core-api/internal/model"
	"github.com/IgorAraujoV/agilean-core-api/internal/store"
	"github.com/IgorAraujoV/agilean-core-api/internal/store/storetest"
)

func TestSQLite_SeedAndDump(t *testing.T) {
	s := storetest.NewSeeded(t)
	got, err := storetest.Dump(context.Background(), s, storetest.BuildingID)
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if diff := cmp.Diff(storetest.Fixture(), got); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLite_ListOrdering(t *testing.T) {
	s := storetest.NewSeeded(t)
	ctx := context.Background()

	spaces, err := s.ListSpaces(ctx, storetest.BuildingID)
	if err != nil {
		t.Fatalf("ListSpaces: %v", err)
	}
	var ids []string
	for _, sp := range spaces {
		ids = append(ids, sp.ID)
	}
	want := []string{"sp-u", "sp-v", "sp-f1", "sp-f2", "sp-f3"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("space order (-want +got):\n%s", diff)
	}

	pkgs, err := s.ListLinePackages(ctx, "ln-1")
	if err != nil {
		t.Fatalf("ListLinePackages: %v", err)
	}
	if len(pkgs) != 6 || pkgs[0].ID != "pk-a1" || pkgs[3].ID != "pk-b1" {
		t.Errorf("line packages out of order: first=%s fourth=%s", pkgs[0].ID, pkgs[3].ID)
	}
}

func TestSQLite_LinksBlockPackageDelete(t *testing.T) {
	s := storetest.NewSeeded(t)
	ctx := context.Background()
	if err := s.DeletePackages(ctx, []string{"pk-a3"}); err == nil {
		t.Fatal("deleting a linked package should violate the links foreign key")
	}
	if err := s.DeleteLinksForPackages(ctx, []string{"pk-a3"}); err != nil {
		t.Fatalf("DeleteLinksForPackages: %v", err)
	}
	if err := s.DeletePackages(ctx, []string{"pk-a3"}); err != nil {
		t.Fatalf("DeletePackages after link delete: %v", err)
	}
}

func TestSQLite_DeleteStageLeavesNoOrphans(t *testing.T) {
	s := storetest.NewSeeded(t)
	ctx := context.Background()
	if err := s.DeleteStage(ctx, "st-a"); err != nil {
		t.Fatalf("DeleteStage: %v", err)
	}
	ds, err := storetest.Dump(ctx, s, storetest.BuildingID)
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if len(ds.Precedences) != 0 {
		t.Errorf("precedences left: %d", len(ds.Precedences))
	}
	for _, c := range ds.Crews {
		if c.StageID == "st-a" {
			t.Errorf("crew %s still references deleted stage", c.ID)
		}
	}
	crews := map[string]bool{}
	for _, c := range ds.Crews {
		crews[c.ID] = true
	}
	for _, p := range ds.Packages {
		if p.StageID == "st-a" || !crews[p.CrewID] {
			t.Errorf("orphaned package %s", p.ID)
		}
	}
	if len(ds.Packages) != 3 || len(ds.Links) != 0 {
		t.Errorf("got %d packages and %d links, want 3 and 0", len(ds.Packages), len(ds.Links))
	}
}

func TestSQLite_DeleteSpaceTree(t *testing.T) {
	s := storetest.NewSeeded(t)
	ctx := context.Background()

	ids, err := s.DeleteSpaceTree(ctx, "sp-f1")
	if err != nil {
		t.Fatalf("DeleteSpaceTree(sp-f1): %v", err)
	}
	if diff := cmp.Diff([]string{"sp-f1"}, ids); diff != "" {
		t.Errorf("removed ids (-want +got):\n%s", diff)
	}
	ds, err := storetest.Dump(ctx, s, storetest.BuildingID)
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if len(ds.Packages) != 4 || len(ds.Links) != 0 {
		t.Errorf("after floor delete: %d packages %d links, want 4 and 0", len(ds.Packages), len(ds.Links))
	}

	ids, err = s.DeleteSpaceTree(ctx, "sp-u")
	if err != nil {
		t.Fatalf("DeleteSpaceTree(sp-u): %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("removed %v, want unit and two floors", ids)
	}
	ds, err = storetest.Dump(ctx, s, storetest.BuildingID)
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if len(ds.Spaces) != 1 || len(ds.Lines) != 0 || len(ds.Crews) != 0 || len(ds.Packages) != 0 {
		t.Errorf("after unit delete: %d spaces %d lines %d crews %d packages",
			len(ds.Spaces), len(ds.Lines), len(ds.Crews), len(ds.Packages))
	}

	if _, err := s.DeleteSpaceTree(ctx, "sp-gone"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("DeleteSpaceTree(missing) err = %v, want sql.ErrNoRows", err)
	}
}

func TestSQLite_TransactionRollback(t *testing.T) {
	s := storetest.NewSeeded(t)
	ctx := context.Background()

	err := s.RunInTransaction(ctx, func(tx store.Store) error {
		if err := tx.CreateCrew(ctx, &model.Crew{ID: "cr-new", LineID: "ln-1", StageID: "st-a", Position: 2}); err != nil {
			return err
		}
		// Duplicate primary key.
		return tx.CreateCrew(ctx, &model.Crew{ID: "cr-a", LineID: "ln-1", StageID: "st-a", Position: 3})
	})
	if err == nil {
		t.Fatal("expected constraint violation")
	}
	crews, err := s.ListCrews(ctx, storetest.BuildingID)
	if err != nil {
		t.Fatalf("ListCrews: %v", err)
	}
	if len(crews) != 2 {
		t.Errorf("crews after rollback = %d, want 2", len(crews))
	}
}

func TestSQLite_UpdatesReportMissingRows(t *testing.T) {
	s := storetest.NewSeeded(t)
	ctx := context.Background()
	for _, tc := range []struct {
		name string
		fn   func() error
	}{
		{"stage", func() error { return s.UpdateStage(ctx, &model.Stage{ID: "st-x", Duration: 1}) }},
		{"precedence", func() error { return s.UpdatePrecedence(ctx, &model.Precedence{ID: "pr-x"}) }},
		{"link", func() error { return s.UpdateLink(ctx, &model.Link{ID: "lk-x"}) }},
		{"package", func() error {
			return s.UpdatePackagePositions(ctx, []*model.Package{{ID: "pk-x", CrewID: "cr-a"}})
		}},
	} {
		if err := tc.fn(); !errors.Is(err, sql.ErrNoRows) {
			t.Errorf("%s: err = %v, want sql.ErrNoRows", tc.name, err)
		}
	}
}
