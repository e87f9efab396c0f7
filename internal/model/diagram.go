package model

// Diagram is a named precedence diagram owned by a building.
type Diagram struct {
	ID         string `json:"id"`
	BuildingID string `json:"building_id"`
	Name       string `json:"name"`
	Position   int    `json:"position"`
}

// Network is an ordered group of stages inside a diagram.
type Network struct {
	ID        string `json:"id"`
	DiagramID string `json:"diagram_id"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
}

// Stage is one work phase of a network.
type Stage struct {
	ID        string `json:"id"`
	NetworkID string `json:"network_id"`
	Name      string `json:"name"`
	Duration  int    `json:"duration"`
	Latency   int    `json:"latency"`
	Position  int    `json:"position"`
}

// Precedence is a directed ordering constraint between two stages of the
// same diagram.
type Precedence struct {
	ID            string `json:"id"`
	DiagramID     string `json:"diagram_id"`
	SourceStageID string `json:"source_stage_id"`
	DestStageID   string `json:"dest_stage_id"`
	Opening       int    `json:"opening"`
	Latency       int    `json:"latency"`
}
