package backup

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/IgorAraujoV/agilean-core-api/internal/graph"
	"github.com/IgorAraujoV/agilean-core-api/internal/loader"
	"github.com/IgorAraujoV/agilean-core-api/internal/model"
	"github.com/IgorAraujoV/agilean-core-api/internal/store"
)

// Version is the export format version written in the header.
const Version = "1"

const (
	typeHeader   = "header"
	typeBuilding = "building"
)

// maxLineSize bounds one JSONL record; a building record carries every row of
// its schedule.
const maxLineSize = 64 << 20

// ErrFormat is returned by ImportJSONL for input that is not a valid export.
var ErrFormat = errors.New("backup: invalid export")

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version       string    `json:"version"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	BuildingCount int       `json:"building_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// rawRecord is record as read back, with its payload left undecoded.
type rawRecord struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ExportJSONL writes the named buildings, or every building when ids is
// empty, as JSONL to w. Each building is hydrated with its packages and
// written back in row shape, so a building that does not load cleanly fails
// the export. Buildings are sorted by id and every table inside a building
// is sorted by id.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer, ids ...string) error {
	if len(ids) == 0 {
		buildings, err := s.ListBuildings(ctx)
		if err != nil {
			return fmt.Errorf("list buildings: %w", err)
		}
		for _, b := range buildings {
			ids = append(ids, b.ID)
		}
	} else {
		ids = append([]string(nil), ids...)
	}
	sort.Strings(ids)

	l := loader.New(s, nil)
	datasets := make([]*model.Dataset, 0, len(ids))
	for _, id := range ids {
		b, err := l.LoadWithPackages(ctx, id)
		if err != nil {
			return fmt.Errorf("load building %s: %w", id, err)
		}
		ds := graph.Export(b)
		ds.SortByID()
		datasets = append(datasets, ds)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:       Version,
		Type:          typeHeader,
		Timestamp:     time.Now().UTC(),
		BuildingCount: len(datasets),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, ds := range datasets {
		if err := enc.Encode(record{Type: typeBuilding, Data: ds}); err != nil {
			return fmt.Errorf("encode building %s: %w", ds.Building.ID, err)
		}
	}

	return nil
}

// ImportJSONL reads an export written by ExportJSONL and inserts every
// building in one transaction. It returns the number of buildings imported.
// Nothing is written when any record is malformed or any insert fails.
func ImportJSONL(ctx context.Context, s store.Store, r io.Reader) (int, error) {
	datasets, err := readJSONL(r)
	if err != nil {
		return 0, err
	}
	err = s.RunInTransaction(ctx, func(tx store.Store) error {
		for _, ds := range datasets {
			if err := store.InsertDataset(ctx, tx, ds); err != nil {
				return fmt.Errorf("import building %s: %w", ds.Building.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(datasets), nil
}

func readJSONL(r io.Reader) ([]*model.Dataset, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineSize)

	var (
		h        *header
		datasets []*model.Dataset
		lineNo   int
	)
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec rawRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrFormat, lineNo, err)
		}
		switch {
		case h == nil:
			if rec.Type != typeHeader {
				return nil, fmt.Errorf("%w: line %d: expected header, got %q", ErrFormat, lineNo, rec.Type)
			}
			h = &header{}
			if err := json.Unmarshal(line, h); err != nil {
				return nil, fmt.Errorf("%w: header: %v", ErrFormat, err)
			}
			if h.Version != Version {
				return nil, fmt.Errorf("%w: unsupported version %q", ErrFormat, h.Version)
			}
		case rec.Type == typeBuilding:
			ds := &model.Dataset{}
			if err := json.Unmarshal(rec.Data, ds); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrFormat, lineNo, err)
			}
			if ds.Building == nil || ds.Building.ID == "" {
				return nil, fmt.Errorf("%w: line %d: building record without a building", ErrFormat, lineNo)
			}
			datasets = append(datasets, ds)
		default:
			return nil, fmt.Errorf("%w: line %d: unknown record type %q", ErrFormat, lineNo, rec.Type)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	if h == nil {
		return nil, fmt.Errorf("%w: missing header", ErrFormat)
	}
	if h.BuildingCount != len(datasets) {
		return nil, fmt.Errorf("%w: header announces %d buildings, found %d", ErrFormat, h.BuildingCount, len(datasets))
	}
	return datasets, nil
}
