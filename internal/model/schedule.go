package model

// Line binds one network to one root space (a Unit).
type Line struct {
	ID         string `json:"id"`
	BuildingID string `json:"building_id"`
	NetworkID  string `json:"network_id"`
	DiagramID  string `json:"diagram_id"`
	SpaceID    string `json:"space_id"`
	Position   int    `json:"position"`
}

// Crew is a work team assigned to one stage within a line.
type Crew struct {
	ID       string `json:"id"`
	LineID   string `json:"line_id"`
	StageID  string `json:"stage_id"`
	Position int    `json:"position"`
}

// PackageStatus is the execution status of a package.
type PackageStatus int

const (
	StatusPlanning PackageStatus = 1
	StatusReady    PackageStatus = 2
	StatusRunning  PackageStatus = 3
	StatusDone     PackageStatus = 4
)

// IsActive reports whether the package has started execution. Active packages
// block destructive structural edits.
func (s PackageStatus) IsActive() bool {
	return s >= StatusRunning
}

// Package is one unit of scheduled work on the column timeline. The interval
// [StartColumn, EndColumn] is closed.
type Package struct {
	ID          string        `json:"id"`
	CrewID      string        `json:"crew_id"`
	SpaceID     string        `json:"space_id"`
	StageID     string        `json:"stage_id"`
	StartColumn int           `json:"start_column"`
	EndColumn   int           `json:"end_column"`
	Status      PackageStatus `json:"status"`
	Progress    float64       `json:"progress"`
	Cost        float64       `json:"cost"`
}

// Duration returns the number of columns the package occupies.
func (p *Package) Duration() int {
	return p.EndColumn - p.StartColumn + 1
}

// Link is a user-defined ordering constraint between two packages in
// different crews.
type Link struct {
	ID              string `json:"id"`
	SourcePackageID string `json:"source_package_id"`
	DestPackageID   string `json:"dest_package_id"`
	Latency         int    `json:"latency"`
	Locked          bool   `json:"locked"`
}
