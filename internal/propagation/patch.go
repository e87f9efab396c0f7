package propagation

// Patch is the minimal description of a persisted delta, returned to callers
// so they can update a view without re-reading the line.
type Patch struct {
	MovedCount     int            `json:"movedCount"`
	Packages       []PatchPackage `json:"packages"`
	CreatedCrews   []PatchCrew    `json:"createdCrews"`
	DeletedCrewIDs []string       `json:"deletedCrewIds"`
}

// PatchPackage is a created or moved package with resolved calendar dates.
type PatchPackage struct {
	ID          string `json:"id"`
	CrewID      string `json:"crewId"`
	StartColumn int    `json:"startColumn"`
	EndColumn   int    `json:"endColumn"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

// PatchCrew is a crew created by the operation.
type PatchCrew struct {
	ID       string `json:"id"`
	StageID  string `json:"stageId"`
	LineID   string `json:"lineId"`
	Position int    `json:"position"`
}

// Empty reports whether the patch carries no change.
func (p *Patch) Empty() bool {
	return len(p.Packages) == 0 && len(p.CreatedCrews) == 0 && len(p.DeletedCrewIDs) == 0
}

// PackageIDs returns the ids of every package in the patch, in order.
func (p *Patch) PackageIDs() []string {
	ids := make([]string, len(p.Packages))
	for i, pp := range p.Packages {
		ids[i] = pp.ID
	}
	return ids
}

func emptyPatch() *Patch {
	return &Patch{Packages: []PatchPackage{}, CreatedCrews: []PatchCrew{}, DeletedCrewIDs: []string{}}
}
