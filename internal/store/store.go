// Package store defines the relational persistence interface for building
// schedules.
//
// Single-row lookups, updates and deletes report a missing row as
// sql.ErrNoRows.
package store

import (
	"context"

	"github.com/IgorAraujoV/agilean-core-api/internal/model"
)

// Store defines the persistence interface for buildings and their schedules.
type Store interface {
	// Buildings
	CreateBuilding(ctx context.Context, b *model.Building) error
	GetBuilding(ctx context.Context, id string) (*model.Building, error)
	ListBuildings(ctx context.Context) ([]*model.Building, error)

	// Diagram structure
	CreateDiagram(ctx context.Context, d *model.Diagram) error
	ListDiagrams(ctx context.Context, buildingID string) ([]*model.Diagram, error)
	CreateNetwork(ctx context.Context, n *model.Network) error
	ListNetworks(ctx context.Context, diagramID string) ([]*model.Network, error)
	CreateStage(ctx context.Context, s *model.Stage) error
	UpdateStage(ctx context.Context, s *model.Stage) error
	UpdateStagePositions(ctx context.Context, stages []*model.Stage) error
	// DeleteStage removes links touching the stage's packages, then its
	// precedences, then the stage row (crews and packages cascade).
	DeleteStage(ctx context.Context, id string) error
	ListStages(ctx context.Context, networkID string) ([]*model.Stage, error)
	CreatePrecedence(ctx context.Context, p *model.Precedence) error
	UpdatePrecedence(ctx context.Context, p *model.Precedence) error
	DeletePrecedence(ctx context.Context, id string) error
	ListPrecedences(ctx context.Context, buildingID string) ([]*model.Precedence, error)

	// Spaces, ordered by level then position.
	CreateSpace(ctx context.Context, s *model.Space) error
	ListSpaces(ctx context.Context, buildingID string) ([]*model.Space, error)
	// DeleteSpaceTree removes a space with its whole subtree. Links touching
	// packages beneath it are deleted first. It returns the removed space ids.
	DeleteSpaceTree(ctx context.Context, id string) ([]string, error)

	// Lines
	CreateLine(ctx context.Context, l *model.Line) error
	ListLines(ctx context.Context, buildingID string) ([]*model.Line, error)

	// Crews, ordered by line then position.
	CreateCrew(ctx context.Context, c *model.Crew) error
	ListCrews(ctx context.Context, buildingID string) ([]*model.Crew, error)
	UpdateCrewPositions(ctx context.Context, crews []*model.Crew) error
	DeleteCrews(ctx context.Context, ids []string) error

	// Packages, ordered by crew then start column.
	CreatePackages(ctx context.Context, pkgs []*model.Package) error
	ListPackages(ctx context.Context, buildingID string) ([]*model.Package, error)
	ListLinePackages(ctx context.Context, lineID string) ([]*model.Package, error)
	// UpdatePackagePositions rewrites crew_id, start_column and end_column.
	UpdatePackagePositions(ctx context.Context, pkgs []*model.Package) error
	DeletePackages(ctx context.Context, ids []string) error

	// Links
	CreateLink(ctx context.Context, l *model.Link) error
	UpdateLink(ctx context.Context, l *model.Link) error
	DeleteLink(ctx context.Context, id string) error
	DeleteLinksForPackages(ctx context.Context, packageIDs []string) error
	ListLinks(ctx context.Context, buildingID string) ([]*model.Link, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
