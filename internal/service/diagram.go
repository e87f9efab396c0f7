package service

import (
	"context"
	"fmt"

	"github.com/IgorAraujoV/agilean-core-api/internal/graph"
	"github.com/IgorAraujoV/agilean-core-api/internal/idgen"
	"github.com/IgorAraujoV/agilean-core-api/internal/model"
	"github.com/IgorAraujoV/agilean-core-api/internal/propagation"
	"github.com/IgorAraujoV/agilean-core-api/internal/store"
)

// StageInput describes a stage to insert into a network.
type StageInput struct {
	NetworkID string `json:"network_id"`
	Name      string `json:"name"`
	Duration  int    `json:"duration"`
	Latency   int    `json:"latency"`
	// Index is the position in the network; nil appends.
	Index *int `json:"index,omitempty"`
}

// StageResult is a persisted stage together with the delta its edit caused.
type StageResult struct {
	Stage *model.Stage       `json:"stage"`
	Patch *propagation.Patch `json:"patch"`
}

// PrecedenceInput describes a precedence between two stages.
type PrecedenceInput struct {
	SourceStageID string `json:"source_stage_id"`
	DestStageID   string `json:"dest_stage_id"`
	Opening       int    `json:"opening"`
	Latency       int    `json:"latency"`
}

// PrecedenceResult is a persisted precedence with the delta its edit caused.
type PrecedenceResult struct {
	Precedence *model.Precedence  `json:"precedence"`
	Patch      *propagation.Patch `json:"patch"`
}

// stagePositions writes the position of every stage of n.
func stagePositions(n *graph.Network) propagation.Writer {
	return func(ctx context.Context, tx store.Store) error {
		rows := make([]*model.Stage, len(n.Stages))
		for i, st := range n.Stages {
			rows[i] = graph.StageRow(st)
		}
		return tx.UpdateStagePositions(ctx, rows)
	}
}

// AddStage inserts a stage and populates a crew for it on every line of the
// network.
func (s *Service) AddStage(ctx context.Context, userID, buildingID string, in StageInput) (*StageResult, error) {
	if err := model.ValidateStage(&model.Stage{
		NetworkID: in.NetworkID, Name: in.Name, Duration: in.Duration, Latency: in.Latency,
	}); err != nil {
		return nil, classify(err)
	}

	unlock := s.lock(buildingID)
	defer unlock()

	b, err := s.building(ctx, userID, buildingID)
	if err != nil {
		return nil, err
	}
	n := b.Network(in.NetworkID)
	if n == nil {
		return nil, classify(fmt.Errorf("%w: network %q", graph.ErrNotFound, in.NetworkID))
	}
	id, err := s.newID(idgen.Stage)
	if err != nil {
		return nil, err
	}
	index := len(n.Stages)
	if in.Index != nil {
		index = *in.Index
	}

	snap := propagation.Capture(b, propagation.NetworkScope(n.ID))
	st, err := b.InsertStage(n.ID, index, id, in.Name, in.Duration, in.Latency)
	if err != nil {
		return nil, classify(err)
	}
	if err := s.engine.ApplyStructuralChanges(b); err != nil {
		return nil, s.abort(userID, buildingID, "add_stage", err)
	}
	patch, err := s.persist(ctx, userID, b, snap, "add_stage",
		propagation.Before(func(ctx context.Context, tx store.Store) error {
			return tx.CreateStage(ctx, graph.StageRow(st))
		}),
		propagation.Before(stagePositions(n)),
	)
	if err != nil {
		return nil, err
	}
	return &StageResult{Stage: graph.StageRow(st), Patch: patch}, nil
}

// UpdateStage changes a stage's duration and latency and resizes its
// packages.
func (s *Service) UpdateStage(ctx context.Context, userID, buildingID, stageID string, duration, latency int) (*StageResult, error) {
	unlock := s.lock(buildingID)
	defer unlock()

	b, err := s.building(ctx, userID, buildingID)
	if err != nil {
		return nil, err
	}
	st := b.Stage(stageID)
	if st == nil {
		return nil, classify(fmt.Errorf("%w: stage %q", graph.ErrNotFound, stageID))
	}
	row := graph.StageRow(st)
	row.Duration, row.Latency = duration, latency
	if err := model.ValidateStage(row); err != nil {
		return nil, classify(err)
	}

	snap := propagation.Capture(b, propagation.NetworkScope(st.Network.ID))
	if _, err := b.UpdateStage(stageID, duration, latency); err != nil {
		return nil, classify(err)
	}
	if err := s.engine.ApplyStructuralChanges(b); err != nil {
		return nil, s.abort(userID, buildingID, "update_stage", err)
	}
	patch, err := s.persist(ctx, userID, b, snap, "update_stage",
		propagation.Before(func(ctx context.Context, tx store.Store) error {
			return tx.UpdateStage(ctx, row)
		}),
	)
	if err != nil {
		return nil, err
	}
	return &StageResult{Stage: row, Patch: patch}, nil
}

// RemoveStage deletes a stage, its precedences, and every crew and package
// working it. Stages with packages in execution cannot be removed.
func (s *Service) RemoveStage(ctx context.Context, userID, buildingID, stageID string) (*propagation.Patch, error) {
	unlock := s.lock(buildingID)
	defer unlock()

	b, err := s.building(ctx, userID, buildingID)
	if err != nil {
		return nil, err
	}
	st := b.Stage(stageID)
	if st == nil {
		return nil, classify(fmt.Errorf("%w: stage %q", graph.ErrNotFound, stageID))
	}
	n := st.Network
	for _, l := range b.LinesByNetwork(n.ID) {
		for _, c := range l.CrewsForStage(st.ID) {
			if p := activePackage(c.Packages); p != nil {
				return nil, fmt.Errorf("%w: stage %q has package %q in execution", ErrConflict, stageID, p.ID)
			}
		}
	}

	snap := propagation.Capture(b, propagation.NetworkScope(n.ID))
	if _, err := b.RemoveStage(stageID); err != nil {
		return nil, classify(err)
	}
	if err := s.engine.ApplyStructuralChanges(b); err != nil {
		return nil, s.abort(userID, buildingID, "remove_stage", err)
	}
	return s.persist(ctx, userID, b, snap, "remove_stage",
		propagation.After(func(ctx context.Context, tx store.Store) error {
			return tx.DeleteStage(ctx, stageID)
		}),
		propagation.After(stagePositions(n)),
	)
}

func activePackage(pkgs []*graph.Package) *graph.Package {
	for _, p := range pkgs {
		if p.Status.IsActive() {
			return p
		}
	}
	return nil
}

// AddPrecedence links two stages of a diagram and pushes the destination
// stage's packages.
func (s *Service) AddPrecedence(ctx context.Context, userID, buildingID string, in PrecedenceInput) (*PrecedenceResult, error) {
	if err := model.ValidatePrecedence(&model.Precedence{
		SourceStageID: in.SourceStageID, DestStageID: in.DestStageID, Opening: in.Opening, Latency: in.Latency,
	}); err != nil {
		return nil, classify(err)
	}

	unlock := s.lock(buildingID)
	defer unlock()

	b, err := s.building(ctx, userID, buildingID)
	if err != nil {
		return nil, err
	}
	dst := b.Stage(in.DestStageID)
	if dst == nil {
		return nil, classify(fmt.Errorf("%w: stage %q", graph.ErrNotFound, in.DestStageID))
	}
	id, err := s.newID(idgen.Precedence)
	if err != nil {
		return nil, err
	}

	snap := propagation.Capture(b, propagation.DiagramScope(dst.Network.Diagram.ID))
	p, err := b.AddPrecedence(id, in.SourceStageID, in.DestStageID, in.Opening, in.Latency)
	if err != nil {
		return nil, classify(err)
	}
	row := graph.PrecedenceRow(p)
	if err := s.engine.ApplyStructuralChanges(b); err != nil {
		return nil, s.abort(userID, buildingID, "add_precedence", err)
	}
	patch, err := s.persist(ctx, userID, b, snap, "add_precedence",
		propagation.Before(func(ctx context.Context, tx store.Store) error {
			return tx.CreatePrecedence(ctx, row)
		}),
	)
	if err != nil {
		return nil, err
	}
	return &PrecedenceResult{Precedence: row, Patch: patch}, nil
}

// UpdatePrecedence changes a precedence's opening and latency.
func (s *Service) UpdatePrecedence(ctx context.Context, userID, buildingID, precedenceID string, opening, latency int) (*PrecedenceResult, error) {
	unlock := s.lock(buildingID)
	defer unlock()

	b, err := s.building(ctx, userID, buildingID)
	if err != nil {
		return nil, err
	}
	p := b.Precedence(precedenceID)
	if p == nil {
		return nil, classify(fmt.Errorf("%w: precedence %q", graph.ErrNotFound, precedenceID))
	}
	row := graph.PrecedenceRow(p)
	row.Opening, row.Latency = opening, latency
	if err := model.ValidatePrecedence(row); err != nil {
		return nil, classify(err)
	}

	snap := propagation.Capture(b, propagation.DiagramScope(p.Diagram.ID))
	if _, err := b.UpdatePrecedence(precedenceID, opening, latency); err != nil {
		return nil, classify(err)
	}
	if err := s.engine.ApplyStructuralChanges(b); err != nil {
		return nil, s.abort(userID, buildingID, "update_precedence", err)
	}
	patch, err := s.persist(ctx, userID, b, snap, "update_precedence",
		propagation.Before(func(ctx context.Context, tx store.Store) error {
			return tx.UpdatePrecedence(ctx, row)
		}),
	)
	if err != nil {
		return nil, err
	}
	return &PrecedenceResult{Precedence: row, Patch: patch}, nil
}

// RemovePrecedence deletes a precedence. Packages are never pulled earlier,
// so the delta is usually empty.
func (s *Service) RemovePrecedence(ctx context.Context, userID, buildingID, precedenceID string) (*propagation.Patch, error) {
	unlock := s.lock(buildingID)
	defer unlock()

	b, err := s.building(ctx, userID, buildingID)
	if err != nil {
		return nil, err
	}
	p := b.Precedence(precedenceID)
	if p == nil {
		return nil, classify(fmt.Errorf("%w: precedence %q", graph.ErrNotFound, precedenceID))
	}

	snap := propagation.Capture(b, propagation.DiagramScope(p.Diagram.ID))
	if err := b.RemovePrecedence(precedenceID); err != nil {
		return nil, classify(err)
	}
	if err := s.engine.ApplyStructuralChanges(b); err != nil {
		return nil, s.abort(userID, buildingID, "remove_precedence", err)
	}
	return s.persist(ctx, userID, b, snap, "remove_precedence",
		propagation.Before(func(ctx context.Context, tx store.Store) error {
			return tx.DeletePrecedence(ctx, precedenceID)
		}),
	)
}
