package model

import "sort"

// Dataset holds every persisted row of one building.
type Dataset struct {
	Building    *Building     `json:"building"`
	Diagrams    []*Diagram    `json:"diagrams"`
	Networks    []*Network    `json:"networks"`
	Stages      []*Stage      `json:"stages"`
	Precedences []*Precedence `json:"precedences"`
	Spaces      []*Space      `json:"spaces"`
	Lines       []*Line       `json:"lines"`
	Crews       []*Crew       `json:"crews"`
	Packages    []*Package    `json:"packages"`
	Links       []*Link       `json:"links"`
}

// SortByID orders every table by primary key so that two datasets describing
// the same state compare equal regardless of load order.
func (d *Dataset) SortByID() {
	sort.Slice(d.Diagrams, func(i, j int) bool { return d.Diagrams[i].ID < d.Diagrams[j].ID })
	sort.Slice(d.Networks, func(i, j int) bool { return d.Networks[i].ID < d.Networks[j].ID })
	sort.Slice(d.Stages, func(i, j int) bool { return d.Stages[i].ID < d.Stages[j].ID })
	sort.Slice(d.Precedences, func(i, j int) bool { return d.Precedences[i].ID < d.Precedences[j].ID })
	sort.Slice(d.Spaces, func(i, j int) bool { return d.Spaces[i].ID < d.Spaces[j].ID })
	sort.Slice(d.Lines, func(i, j int) bool { return d.Lines[i].ID < d.Lines[j].ID })
	sort.Slice(d.Crews, func(i, j int) bool { return d.Crews[i].ID < d.Crews[j].ID })
	sort.Slice(d.Packages, func(i, j int) bool { return d.Packages[i].ID < d.Packages[j].ID })
	sort.Slice(d.Links, func(i, j int) bool { return d.Links[i].ID < d.Links[j].ID })
}
