package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/IgorAraujoV/agilean-core-api/internal/model"
)

// packageInsertBatch bounds the rows of one multi-row INSERT so the
// statement stays under both drivers' bind-parameter limits.
const packageInsertBatch = 500

// idBatch bounds the ids bound into one IN list.
const idBatch = 500

// execInBatches runs the statement built by stmt once per chunk of at most
// idBatch ids. stmt receives the placeholder list of the chunk.
func (q queries) execInBatches(ctx context.Context, ids []string, stmt func(in string) string) error {
	for start := 0; start < len(ids); start += idBatch {
		chunk := ids[start:min(start+idBatch, len(ids))]
		if _, err := q.db.ExecContext(ctx, stmt(placeholders(1, len(chunk))), anySlice(chunk)...); err != nil {
			return err
		}
	}
	return nil
}

// --- crews ---

func (q queries) CreateCrew(ctx context.Context, c *model.Crew) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO crews (id, line_id, stage_id, position) VALUES ($1, $2, $3, $4)`,
		c.ID, c.LineID, c.StageID, c.Position)
	return err
}

func (q queries) ListCrews(ctx context.Context, buildingID string) ([]*model.Crew, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT c.id, c.line_id, c.stage_id, c.position
		FROM crews c
		JOIN lines l ON l.id = c.line_id
		WHERE l.building_id = $1
		ORDER BY l.position, l.id, c.position, c.id`, buildingID)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanCrew)
}

func (q queries) UpdateCrewPositions(ctx context.Context, crews []*model.Crew) error {
	for _, c := range crews {
		if err := q.execOne(ctx, `UPDATE crews SET position = $2 WHERE id = $1`, c.ID, c.Position); err != nil {
			return fmt.Errorf("crew %s: %w", c.ID, err)
		}
	}
	return nil
}

func (q queries) DeleteCrews(ctx context.Context, ids []string) error {
	return q.execInBatches(ctx, ids, func(in string) string {
		return `DELETE FROM crews WHERE id IN (` + in + `)`
	})
}

// --- packages ---

func (q queries) CreatePackages(ctx context.Context, pkgs []*model.Package) error {
	for start := 0; start < len(pkgs); start += packageInsertBatch {
		end := min(start+packageInsertBatch, len(pkgs))
		batch := pkgs[start:end]

		values := make([]string, len(batch))
		args := make([]any, 0, len(batch)*9)
		for i, p := range batch {
			values[i] = "(" + placeholders(i*9+1, 9) + ")"
			args = append(args,
				p.ID, p.CrewID, p.SpaceID, p.StageID,
				p.StartColumn, p.EndColumn, int(p.Status), p.Progress, p.Cost)
		}
		_, err := q.db.ExecContext(ctx,
			`INSERT INTO packages (`+packageColumns+`) VALUES `+strings.Join(values, ", "), args...)
		if err != nil {
			return err
		}
	}
	return nil
}

func (q queries) ListPackages(ctx context.Context, buildingID string) ([]*model.Package, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT p.id, p.crew_id, p.space_id, p.stage_id, p.start_column, p.end_column,
		       p.status, p.progress, p.cost
		FROM packages p
		JOIN crews c ON c.id = p.crew_id
		JOIN lines l ON l.id = c.line_id
		WHERE l.building_id = $1
		ORDER BY p.crew_id, p.start_column, p.id`, buildingID)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanPackage)
}

func (q queries) ListLinePackages(ctx context.Context, lineID string) ([]*model.Package, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT p.id, p.crew_id, p.space_id, p.stage_id, p.start_column, p.end_column,
		       p.status, p.progress, p.cost
		FROM packages p
		JOIN crews c ON c.id = p.crew_id
		WHERE c.line_id = $1
		ORDER BY c.position, p.start_column, p.id`, lineID)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanPackage)
}

func (q queries) UpdatePackagePositions(ctx context.Context, pkgs []*model.Package) error {
	for _, p := range pkgs {
		err := q.execOne(ctx,
			`UPDATE packages SET crew_id = $2, start_column = $3, end_column = $4 WHERE id = $1`,
			p.ID, p.CrewID, p.StartColumn, p.EndColumn)
		if err != nil {
			return fmt.Errorf("package %s: %w", p.ID, err)
		}
	}
	return nil
}

func (q queries) DeletePackages(ctx context.Context, ids []string) error {
	return q.execInBatches(ctx, ids, func(in string) string {
		return `DELETE FROM packages WHERE id IN (` + in + `)`
	})
}

// --- links ---

func (q queries) CreateLink(ctx context.Context, l *model.Link) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO links (id, source_package_id, dest_package_id, latency, locked)
		VALUES ($1, $2, $3, $4, $5)`,
		l.ID, l.SourcePackageID, l.DestPackageID, l.Latency, l.Locked)
	return err
}

func (q queries) UpdateLink(ctx context.Context, l *model.Link) error {
	return q.execOne(ctx,
		`UPDATE links SET latency = $2, locked = $3 WHERE id = $1`,
		l.ID, l.Latency, l.Locked)
}

func (q queries) DeleteLink(ctx context.Context, id string) error {
	return q.execOne(ctx, `DELETE FROM links WHERE id = $1`, id)
}

func (q queries) DeleteLinksForPackages(ctx context.Context, packageIDs []string) error {
	return q.execInBatches(ctx, packageIDs, func(in string) string {
		return `DELETE FROM links WHERE source_package_id IN (` + in + `) OR dest_package_id IN (` + in + `)`
	})
}

func (q queries) ListLinks(ctx context.Context, buildingID string) ([]*model.Link, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT k.id, k.source_package_id, k.dest_package_id, k.latency, k.locked
		FROM links k
		JOIN packages p ON p.id = k.source_package_id
		JOIN crews c ON c.id = p.crew_id
		JOIN lines l ON l.id = c.line_id
		WHERE l.building_id = $1
		ORDER BY k.id`, buildingID)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanLink)
}
