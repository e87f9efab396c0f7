package graph

import "github.com/IgorAraujoV/agilean-core-api/internal/model"

// Export serializes the graph back to persisted row shape. Positions are
// derived from slice order.
func Export(b *Building) *model.Dataset {
	ds := &model.Dataset{
		Building: &model.Building{ID: b.ID, Name: b.Name, FirstDate: b.FirstDate},
	}
	for di, d := range b.Diagrams {
		ds.Diagrams = append(ds.Diagrams, &model.Diagram{ID: d.ID, BuildingID: b.ID, Name: d.Name, Position: di})
		for ni, n := range d.Networks {
			ds.Networks = append(ds.Networks, &model.Network{ID: n.ID, DiagramID: d.ID, Name: n.Name, Position: ni})
			for si, s := range n.Stages {
				ds.Stages = append(ds.Stages, &model.Stage{
					ID: s.ID, NetworkID: n.ID, Name: s.Name,
					Duration: s.Duration, Latency: s.Latency, Position: si,
				})
			}
		}
		for _, p := range d.Precedences {
			ds.Precedences = append(ds.Precedences, &model.Precedence{
				ID: p.ID, DiagramID: d.ID,
				SourceStageID: p.Source.ID, DestStageID: p.Dest.ID,
				Opening: p.Opening, Latency: p.Latency,
			})
		}
	}
	for _, u := range b.Units {
		u.Walk(func(s *Space) {
			ds.Spaces = append(ds.Spaces, SpaceRow(b, s))
		})
	}
	for li, l := range b.Lines {
		ds.Lines = append(ds.Lines, &model.Line{
			ID: l.ID, BuildingID: b.ID, NetworkID: l.Network.ID,
			DiagramID: l.Network.Diagram.ID, SpaceID: l.Space.ID, Position: li,
		})
		for ci, c := range l.Crews {
			ds.Crews = append(ds.Crews, &model.Crew{ID: c.ID, LineID: l.ID, StageID: c.Stage.ID, Position: ci})
			for _, p := range c.Packages {
				ds.Packages = append(ds.Packages, PackageRow(p))
				for _, lk := range p.Outgoing {
					ds.Links = append(ds.Links, LinkRow(lk))
				}
			}
		}
	}
	return ds
}

// SpaceRow returns the persisted row of a space.
func SpaceRow(b *Building, s *Space) *model.Space {
	row := &model.Space{
		ID:         s.ID,
		BuildingID: b.ID,
		Level:      s.Level,
		Position:   b.spacePosition(s),
		Name:       s.Name,
		StartDate:  s.StartDate,
		EndDate:    s.EndDate,
	}
	if s.Parent != nil {
		row.ParentID = s.Parent.ID
	}
	return row
}

// CrewRow returns the persisted row of a crew.
func CrewRow(c *Crew) *model.Crew {
	return &model.Crew{ID: c.ID, LineID: c.Line.ID, StageID: c.Stage.ID, Position: c.Position()}
}

// PackageRow returns the persisted row of a package.
func PackageRow(p *Package) *model.Package {
	return &model.Package{
		ID:          p.ID,
		CrewID:      p.Crew.ID,
		SpaceID:     p.Space.ID,
		StageID:     p.Crew.Stage.ID,
		StartColumn: p.Start,
		EndColumn:   p.End,
		Status:      p.Status,
		Progress:    p.Progress,
		Cost:        p.Cost,
	}
}

// LinkRow returns the persisted row of a link.
func LinkRow(l *Link) *model.Link {
	return &model.Link{
		ID:              l.ID,
		SourcePackageID: l.Source.ID,
		DestPackageID:   l.Dest.ID,
		Latency:         l.Latency,
		Locked:          l.Locked,
	}
}

// StageRow returns the persisted row of a stage.
func StageRow(s *Stage) *model.Stage {
	return &model.Stage{
		ID: s.ID, NetworkID: s.Network.ID, Name: s.Name,
		Duration: s.Duration, Latency: s.Latency, Position: s.Index(),
	}
}

// PrecedenceRow returns the persisted row of a precedence.
func PrecedenceRow(p *Precedence) *model.Precedence {
	return &model.Precedence{
		ID: p.ID, DiagramID: p.Diagram.ID,
		SourceStageID: p.Source.ID, DestStageID: p.Dest.ID,
		Opening: p.Opening, Latency: p.Latency,
	}
}
