package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/IgorAraujoV/agilean-core-api/internal/model"
)

// Column lists used by SELECT statements, in scan order.
const (
	buildingColumns = `id, name, first_date`
	diagramColumns  = `id, building_id, name, position`
	networkColumns  = `id, diagram_id, name, position`
	stageColumns    = `id, network_id, name, duration, latency, position`
	spaceColumns    = `id, building_id, parent_id, level, position, name, start_date, end_date`
	lineColumns     = `id, building_id, network_id, diagram_id, space_id, position`
	packageColumns  = `id, crew_id, space_id, stage_id, start_column, end_column, status, progress, cost`
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries holds every statement of the store over an executor, so the same
// code serves the pooled connection and a transaction.
type queries struct {
	db executor
}

// execOne runs a statement that must affect exactly one row.
func (q queries) execOne(ctx context.Context, query string, args ...any) error {
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// --- buildings ---

func (q queries) CreateBuilding(ctx context.Context, b *model.Building) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO buildings (id, name, first_date) VALUES ($1, $2, $3)`,
		b.ID, b.Name, formatDate(b.FirstDate))
	return err
}

func (q queries) GetBuilding(ctx context.Context, id string) (*model.Building, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+buildingColumns+` FROM buildings WHERE id = $1`, id)
	return scanBuilding(row)
}

func (q queries) ListBuildings(ctx context.Context) ([]*model.Building, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+buildingColumns+` FROM buildings ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanBuilding)
}

// --- diagrams, networks, stages ---

func (q queries) CreateDiagram(ctx context.Context, d *model.Diagram) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO diagrams (id, building_id, name, position) VALUES ($1, $2, $3, $4)`,
		d.ID, d.BuildingID, d.Name, d.Position)
	return err
}

func (q queries) ListDiagrams(ctx context.Context, buildingID string) ([]*model.Diagram, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+diagramColumns+` FROM diagrams WHERE building_id = $1 ORDER BY position, id`, buildingID)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanDiagram)
}

func (q queries) CreateNetwork(ctx context.Context, n *model.Network) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO networks (id, diagram_id, name, position) VALUES ($1, $2, $3, $4)`,
		n.ID, n.DiagramID, n.Name, n.Position)
	return err
}

func (q queries) ListNetworks(ctx context.Context, diagramID string) ([]*model.Network, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+networkColumns+` FROM networks WHERE diagram_id = $1 ORDER BY position, id`, diagramID)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanNetwork)
}

func (q queries) CreateStage(ctx context.Context, s *model.Stage) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO stages (id, network_id, name, duration, latency, position)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.NetworkID, s.Name, s.Duration, s.Latency, s.Position)
	return err
}

func (q queries) UpdateStage(ctx context.Context, s *model.Stage) error {
	return q.execOne(ctx, `
		UPDATE stages SET name = $2, duration = $3, latency = $4, position = $5
		WHERE id = $1`,
		s.ID, s.Name, s.Duration, s.Latency, s.Position)
}

func (q queries) UpdateStagePositions(ctx context.Context, stages []*model.Stage) error {
	for _, s := range stages {
		if err := q.execOne(ctx, `UPDATE stages SET position = $2 WHERE id = $1`, s.ID, s.Position); err != nil {
			return fmt.Errorf("stage %s: %w", s.ID, err)
		}
	}
	return nil
}

func (q queries) DeleteStage(ctx context.Context, id string) error {
	if _, err := q.db.ExecContext(ctx, `
		DELETE FROM links
		WHERE source_package_id IN (SELECT id FROM packages WHERE stage_id = $1)
		   OR dest_package_id IN (SELECT id FROM packages WHERE stage_id = $1)`, id); err != nil {
		return fmt.Errorf("delete stage links: %w", err)
	}
	if _, err := q.db.ExecContext(ctx,
		`DELETE FROM precedences WHERE source_stage_id = $1 OR dest_stage_id = $1`, id); err != nil {
		return fmt.Errorf("delete stage precedences: %w", err)
	}
	return q.execOne(ctx, `DELETE FROM stages WHERE id = $1`, id)
}

func (q queries) ListStages(ctx context.Context, networkID string) ([]*model.Stage, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+stageColumns+` FROM stages WHERE network_id = $1 ORDER BY position, id`, networkID)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanStage)
}

// --- precedences ---

func (q queries) CreatePrecedence(ctx context.Context, p *model.Precedence) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO precedences (id, diagram_id, source_stage_id, dest_stage_id, opening, latency)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.DiagramID, p.SourceStageID, p.DestStageID, p.Opening, p.Latency)
	return err
}

func (q queries) UpdatePrecedence(ctx context.Context, p *model.Precedence) error {
	return q.execOne(ctx,
		`UPDATE precedences SET opening = $2, latency = $3 WHERE id = $1`,
		p.ID, p.Opening, p.Latency)
}

func (q queries) DeletePrecedence(ctx context.Context, id string) error {
	return q.execOne(ctx, `DELETE FROM precedences WHERE id = $1`, id)
}

func (q queries) ListPrecedences(ctx context.Context, buildingID string) ([]*model.Precedence, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT p.id, p.diagram_id, p.source_stage_id, p.dest_stage_id, p.opening, p.latency
		FROM precedences p
		JOIN diagrams d ON d.id = p.diagram_id
		WHERE d.building_id = $1
		ORDER BY d.position, p.id`, buildingID)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanPrecedence)
}

// --- spaces ---

func (q queries) CreateSpace(ctx context.Context, s *model.Space) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO spaces (id, building_id, parent_id, level, position, name, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.BuildingID, nullString(s.ParentID), s.Level, s.Position, s.Name,
		nullDate(s.StartDate), nullDate(s.EndDate))
	return err
}

func (q queries) ListSpaces(ctx context.Context, buildingID string) ([]*model.Space, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+spaceColumns+` FROM spaces WHERE building_id = $1 ORDER BY level, position, id`, buildingID)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanSpace)
}

func (q queries) DeleteSpaceTree(ctx context.Context, id string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, `
		WITH RECURSIVE subtree(id) AS (
			SELECT id FROM spaces WHERE id = $1
			UNION ALL
			SELECT s.id FROM spaces s JOIN subtree t ON s.parent_id = t.id
		)
		SELECT id FROM subtree`, id)
	if err != nil {
		return nil, fmt.Errorf("select subtree: %w", err)
	}
	var ids []string
	for rows.Next() {
		var sid string
		if err := rows.Scan(&sid); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, sid)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, sql.ErrNoRows
	}

	in := placeholders(1, len(ids))
	args := anySlice(ids)
	affected := `SELECT id FROM packages WHERE space_id IN (` + in + `)
		OR crew_id IN (SELECT c.id FROM crews c JOIN lines l ON l.id = c.line_id WHERE l.space_id IN (` + in + `))`
	if _, err := q.db.ExecContext(ctx, `
		DELETE FROM links
		WHERE source_package_id IN (`+affected+`)
		   OR dest_package_id IN (`+affected+`)`, args...); err != nil {
		return nil, fmt.Errorf("delete subtree links: %w", err)
	}
	if _, err := q.db.ExecContext(ctx, `DELETE FROM packages WHERE id IN (`+affected+`)`, args...); err != nil {
		return nil, fmt.Errorf("delete subtree packages: %w", err)
	}
	if err := q.execOne(ctx, `DELETE FROM spaces WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return ids, nil
}

// --- lines ---

func (q queries) CreateLine(ctx context.Context, l *model.Line) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO lines (id, building_id, network_id, diagram_id, space_id, position)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		l.ID, l.BuildingID, l.NetworkID, l.DiagramID, l.SpaceID, l.Position)
	return err
}

func (q queries) ListLines(ctx context.Context, buildingID string) ([]*model.Line, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+lineColumns+` FROM lines WHERE building_id = $1 ORDER BY position, id`, buildingID)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanLine)
}
