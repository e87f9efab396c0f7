package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/IgorAraujoV/agilean-core-api/internal/model"
)

// InsertDataset inserts every row of ds in foreign-key order. Spaces are
// inserted by level so parents precede their children. Callers wrap it in a
// transaction.
func InsertDataset(ctx context.Context, s Store, ds *model.Dataset) error {
	if err := s.CreateBuilding(ctx, ds.Building); err != nil {
		return fmt.Errorf("building: %w", err)
	}
	for _, d := range ds.Diagrams {
		if err := s.CreateDiagram(ctx, d); err != nil {
			return fmt.Errorf("diagram %s: %w", d.ID, err)
		}
	}
	for _, n := range ds.Networks {
		if err := s.CreateNetwork(ctx, n); err != nil {
			return fmt.Errorf("network %s: %w", n.ID, err)
		}
	}
	for _, st := range ds.Stages {
		if err := s.CreateStage(ctx, st); err != nil {
			return fmt.Errorf("stage %s: %w", st.ID, err)
		}
	}
	for _, p := range ds.Precedences {
		if err := s.CreatePrecedence(ctx, p); err != nil {
			return fmt.Errorf("precedence %s: %w", p.ID, err)
		}
	}
	spaces := append([]*model.Space(nil), ds.Spaces...)
	sort.SliceStable(spaces, func(i, j int) bool { return spaces[i].Level < spaces[j].Level })
	for _, sp := range spaces {
		if err := s.CreateSpace(ctx, sp); err != nil {
			return fmt.Errorf("space %s: %w", sp.ID, err)
		}
	}
	for _, l := range ds.Lines {
		if err := s.CreateLine(ctx, l); err != nil {
			return fmt.Errorf("line %s: %w", l.ID, err)
		}
	}
	for _, c := range ds.Crews {
		if err := s.CreateCrew(ctx, c); err != nil {
			return fmt.Errorf("crew %s: %w", c.ID, err)
		}
	}
	if err := s.CreatePackages(ctx, ds.Packages); err != nil {
		return fmt.Errorf("packages: %w", err)
	}
	for _, l := range ds.Links {
		if err := s.CreateLink(ctx, l); err != nil {
			return fmt.Errorf("link %s: %w", l.ID, err)
		}
	}
	return nil
}

// ReadDataset reads every row of a building, with each table sorted by id.
func ReadDataset(ctx context.Context, s Store, buildingID string) (*model.Dataset, error) {
	b, err := s.GetBuilding(ctx, buildingID)
	if err != nil {
		return nil, err
	}
	ds := &model.Dataset{Building: b}
	if ds.Diagrams, err = s.ListDiagrams(ctx, buildingID); err != nil {
		return nil, fmt.Errorf("list diagrams: %w", err)
	}
	for _, d := range ds.Diagrams {
		nets, err := s.ListNetworks(ctx, d.ID)
		if err != nil {
			return nil, fmt.Errorf("list networks of %s: %w", d.ID, err)
		}
		ds.Networks = append(ds.Networks, nets...)
		for _, n := range nets {
			stages, err := s.ListStages(ctx, n.ID)
			if err != nil {
				return nil, fmt.Errorf("list stages of %s: %w", n.ID, err)
			}
			ds.Stages = append(ds.Stages, stages...)
		}
	}
	if ds.Precedences, err = s.ListPrecedences(ctx, buildingID); err != nil {
		return nil, fmt.Errorf("list precedences: %w", err)
	}
	if ds.Spaces, err = s.ListSpaces(ctx, buildingID); err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}
	if ds.Lines, err = s.ListLines(ctx, buildingID); err != nil {
		return nil, fmt.Errorf("list lines: %w", err)
	}
	if ds.Crews, err = s.ListCrews(ctx, buildingID); err != nil {
		return nil, fmt.Errorf("list crews: %w", err)
	}
	if ds.Packages, err = s.ListPackages(ctx, buildingID); err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	if ds.Links, err = s.ListLinks(ctx, buildingID); err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	ds.SortByID()
	return ds, nil
}
