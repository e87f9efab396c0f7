package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/IgorAraujoV/agilean-core-api/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanAll scans every row with fn and closes rows.
func scanAll[T any](rows *sql.Rows, fn func(scannable) (*T, error)) ([]*T, error) {
	defer rows.Close()
	var out []*T
	for rows.Next() {
		v, err := fn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// scanBuilding scans a row in buildingColumns order into a model.Building.
func scanBuilding(row scannable) (*model.Building, error) {
	var b model.Building
	var first string
	if err := row.Scan(&b.ID, &b.Name, &first); err != nil {
		return nil, err
	}
	t, err := parseDate(first)
	if err != nil {
		return nil, fmt.Errorf("building %s first_date: %w", b.ID, err)
	}
	b.FirstDate = t
	return &b, nil
}

func scanDiagram(row scannable) (*model.Diagram, error) {
	var d model.Diagram
	if err := row.Scan(&d.ID, &d.BuildingID, &d.Name, &d.Position); err != nil {
		return nil, err
	}
	return &d, nil
}

func scanNetwork(row scannable) (*model.Network, error) {
	var n model.Network
	if err := row.Scan(&n.ID, &n.DiagramID, &n.Name, &n.Position); err != nil {
		return nil, err
	}
	return &n, nil
}

func scanStage(row scannable) (*model.Stage, error) {
	var s model.Stage
	if err := row.Scan(&s.ID, &s.NetworkID, &s.Name, &s.Duration, &s.Latency, &s.Position); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanPrecedence(row scannable) (*model.Precedence, error) {
	var p model.Precedence
	if err := row.Scan(&p.ID, &p.DiagramID, &p.SourceStageID, &p.DestStageID, &p.Opening, &p.Latency); err != nil {
		return nil, err
	}
	return &p, nil
}

// scanSpace scans a row in spaceColumns order into a model.Space.
func scanSpace(row scannable) (*model.Space, error) {
	var s model.Space
	var parent, start, end sql.NullString
	if err := row.Scan(&s.ID, &s.BuildingID, &parent, &s.Level, &s.Position, &s.Name, &start, &end); err != nil {
		return nil, err
	}
	s.ParentID = parent.String
	var err error
	if s.StartDate, err = parseNullDate(start); err != nil {
		return nil, fmt.Errorf("space %s start_date: %w", s.ID, err)
	}
	if s.EndDate, err = parseNullDate(end); err != nil {
		return nil, fmt.Errorf("space %s end_date: %w", s.ID, err)
	}
	return &s, nil
}

func scanLine(row scannable) (*model.Line, error) {
	var l model.Line
	if err := row.Scan(&l.ID, &l.BuildingID, &l.NetworkID, &l.DiagramID, &l.SpaceID, &l.Position); err != nil {
		return nil, err
	}
	return &l, nil
}

func scanCrew(row scannable) (*model.Crew, error) {
	var c model.Crew
	if err := row.Scan(&c.ID, &c.LineID, &c.StageID, &c.Position); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanPackage(row scannable) (*model.Package, error) {
	var p model.Package
	err := row.Scan(
		&p.ID, &p.CrewID, &p.SpaceID, &p.StageID,
		&p.StartColumn, &p.EndColumn, &p.Status, &p.Progress, &p.Cost,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanLink(row scannable) (*model.Link, error) {
	var l model.Link
	if err := row.Scan(&l.ID, &l.SourcePackageID, &l.DestPackageID, &l.Latency, &l.Locked); err != nil {
		return nil, err
	}
	return &l, nil
}

// formatDate renders a calendar date as stored in TEXT columns.
func formatDate(t time.Time) string {
	return t.Format(model.DateLayout)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(model.DateLayout, s)
}

// nullDate converts a *time.Time to a sql.NullString date.
func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatDate(*t), Valid: true}
}

func parseNullDate(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// placeholders returns "$from, $from+1, ..." for n arguments.
func placeholders(from, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(parts, ", ")
}

func anySlice(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
