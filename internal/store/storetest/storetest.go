// Package storetest provides an in-memory SQLite store and a canonical
// building fixture for tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/IgorAraujoV/agilean-core-api/internal/model"
	"github.com/IgorAraujoV/agilean-core-api/internal/store"
	"github.com/IgorAraujoV/agilean-core-api/internal/store/sqlstore"
)

// BuildingID is the id of the Fixture building.
const BuildingID = "bl-1"

// NewSQLite opens a migrated in-memory SQLite store closed at test cleanup.
func NewSQLite(t *testing.T) *sqlstore.SQLStore {
	t.Helper()
	s, err := sqlstore.Open(context.Background(), "sqlite::memory:")
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// NewSeeded opens an in-memory store holding Fixture().
func NewSeeded(t *testing.T) *sqlstore.SQLStore {
	t.Helper()
	return NewSeededWith(t, Fixture())
}

// NewSeededWith opens an in-memory store holding ds.
func NewSeededWith(t *testing.T, ds *model.Dataset) *sqlstore.SQLStore {
	t.Helper()
	s := NewSQLite(t)
	if err := Seed(context.Background(), s, ds); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return s
}

// Seed inserts every row of ds inside one transaction.
func Seed(ctx context.Context, st store.Store, ds *model.Dataset) error {
	return st.RunInTransaction(ctx, func(tx store.Store) error {
		return store.InsertDataset(ctx, tx, ds)
	})
}

// Dump reads every row of a building back, sorted by id.
func Dump(ctx context.Context, st store.Store, buildingID string) (*model.Dataset, error) {
	return store.ReadDataset(ctx, st, buildingID)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Fixture returns a building with two units, one network of two stages
// joined by a precedence, and one line on unit sp-u with a crew per stage.
// Crew cr-a holds pk-a1..pk-a3 on floors sp-f1..sp-f3 and crew cr-b holds
// pk-b1..pk-b3. Link lk-1 (pk-a3 -> pk-b1) is unlocked; lk-2
// (pk-a1 -> pk-b2, latency 2) is locked and satisfied.
func Fixture() *model.Dataset {
	uStart, uEnd := date(2026, 1, 5), date(2026, 6, 30)
	ds := &model.Dataset{
		Building: &model.Building{ID: BuildingID, Name: "Tower", FirstDate: date(2026, 1, 5)},
		Diagrams: []*model.Diagram{
			{ID: "dg-1", BuildingID: BuildingID, Name: "Main", Position: 0},
		},
		Networks: []*model.Network{
			{ID: "nw-1", DiagramID: "dg-1", Name: "Structure", Position: 0},
		},
		Stages: []*model.Stage{
			{ID: "st-a", NetworkID: "nw-1", Name: "Masonry", Duration: 5, Latency: 0, Position: 0},
			{ID: "st-b", NetworkID: "nw-1", Name: "Plaster", Duration: 3, Latency: 0, Position: 1},
		},
		Precedences: []*model.Precedence{
			{ID: "pr-1", DiagramID: "dg-1", SourceStageID: "st-a", DestStageID: "st-b"},
		},
		Spaces: []*model.Space{
			{ID: "sp-u", BuildingID: BuildingID, Level: 0, Position: 0, Name: "Tower A", StartDate: &uStart, EndDate: &uEnd},
			{ID: "sp-v", BuildingID: BuildingID, Level: 0, Position: 1, Name: "Tower B"},
			{ID: "sp-f1", BuildingID: BuildingID, ParentID: "sp-u", Level: 1, Position: 0, Name: "Floor 1"},
			{ID: "sp-f2", BuildingID: BuildingID, ParentID: "sp-u", Level: 1, Position: 1, Name: "Floor 2"},
			{ID: "sp-f3", BuildingID: BuildingID, ParentID: "sp-u", Level: 1, Position: 2, Name: "Floor 3"},
		},
		Lines: []*model.Line{
			{ID: "ln-1", BuildingID: BuildingID, NetworkID: "nw-1", DiagramID: "dg-1", SpaceID: "sp-u", Position: 0},
		},
		Crews: []*model.Crew{
			{ID: "cr-a", LineID: "ln-1", StageID: "st-a", Position: 0},
			{ID: "cr-b", LineID: "ln-1", StageID: "st-b", Position: 1},
		},
		Packages: []*model.Package{
			{ID: "pk-a1", CrewID: "cr-a", SpaceID: "sp-f1", StageID: "st-a", StartColumn: 1, EndColumn: 5, Status: model.StatusDone, Progress: 1, Cost: 1200.5},
			{ID: "pk-a2", CrewID: "cr-a", SpaceID: "sp-f2", StageID: "st-a", StartColumn: 6, EndColumn: 10, Status: model.StatusRunning, Progress: 0.25},
			{ID: "pk-a3", CrewID: "cr-a", SpaceID: "sp-f3", StageID: "st-a", StartColumn: 11, EndColumn: 15, Status: model.StatusPlanning},
			{ID: "pk-b1", CrewID: "cr-b", SpaceID: "sp-f1", StageID: "st-b", StartColumn: 6, EndColumn: 8, Status: model.StatusPlanning},
			{ID: "pk-b2", CrewID: "cr-b", SpaceID: "sp-f2", StageID: "st-b", StartColumn: 11, EndColumn: 13, Status: model.StatusPlanning},
			{ID: "pk-b3", CrewID: "cr-b", SpaceID: "sp-f3", StageID: "st-b", StartColumn: 16, EndColumn: 18, Status: model.StatusPlanning},
		},
		Links: []*model.Link{
			{ID: "lk-1", SourcePackageID: "pk-a3", DestPackageID: "pk-b1", Latency: 0, Locked: false},
			{ID: "lk-2", SourcePackageID: "pk-a1", DestPackageID: "pk-b2", Latency: 2, Locked: true},
		},
	}
	ds.SortByID()
	return ds
}

// CrossNetworkFixture extends Fixture with a second diagram dg-2 whose
// network nw-2 holds stage st-c (duration 3). Line ln-2 runs it on unit sp-v,
// split into floors sp-v1 and sp-v2, with crew cr-c holding pk-c1 [20,22]
// and pk-c2 [23,25]. Two locked links cross into it, both satisfied
// exactly: lk-3 (pk-b3 -> pk-c1, latency 1) and lk-4 (pk-a3 -> pk-c2,
// latency 7).
func CrossNetworkFixture() *model.Dataset {
	ds := Fixture()
	ds.Diagrams = append(ds.Diagrams,
		&model.Diagram{ID: "dg-2", BuildingID: BuildingID, Name: "Finishing", Position: 1})
	ds.Networks = append(ds.Networks,
		&model.Network{ID: "nw-2", DiagramID: "dg-2", Name: "Finishes", Position: 0})
	ds.Stages = append(ds.Stages,
		&model.Stage{ID: "st-c", NetworkID: "nw-2", Name: "Painting", Duration: 3, Position: 0})
	ds.Spaces = append(ds.Spaces,
		&model.Space{ID: "sp-v1", BuildingID: BuildingID, ParentID: "sp-v", Level: 1, Position: 0, Name: "Floor 1"},
		&model.Space{ID: "sp-v2", BuildingID: BuildingID, ParentID: "sp-v", Level: 1, Position: 1, Name: "Floor 2"},
	)
	ds.Lines = append(ds.Lines,
		&model.Line{ID: "ln-2", BuildingID: BuildingID, NetworkID: "nw-2", DiagramID: "dg-2", SpaceID: "sp-v", Position: 1})
	ds.Crews = append(ds.Crews, &model.Crew{ID: "cr-c", LineID: "ln-2", StageID: "st-c", Position: 0})
	ds.Packages = append(ds.Packages,
		&model.Package{ID: "pk-c1", CrewID: "cr-c", SpaceID: "sp-v1", StageID: "st-c", StartColumn: 20, EndColumn: 22, Status: model.StatusPlanning},
		&model.Package{ID: "pk-c2", CrewID: "cr-c", SpaceID: "sp-v2", StageID: "st-c", StartColumn: 23, EndColumn: 25, Status: model.StatusPlanning},
	)
	ds.Links = append(ds.Links,
		&model.Link{ID: "lk-3", SourcePackageID: "pk-b3", DestPackageID: "pk-c1", Latency: 1, Locked: true},
		&model.Link{ID: "lk-4", SourcePackageID: "pk-a3", DestPackageID: "pk-c2", Latency: 7, Locked: true},
	)
	ds.SortByID()
	return ds
}
