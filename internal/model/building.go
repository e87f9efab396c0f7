// Package model defines the row-shaped records persisted by the relational store.
//
// Each struct mirrors one table. The in-memory object graph lives in package
// graph; these records are what the loader reads and what the synchronizer
// writes.
package model

import "time"

// DateLayout is the layout used for calendar dates stored as text.
const DateLayout = "2006-01-02"

// Building is the root entity of a schedule.
type Building struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	FirstDate time.Time `json:"first_date"`
}

// Space is a node of the physical location hierarchy. ParentID is empty for
// Units (level 0).
type Space struct {
	ID         string     `json:"id"`
	BuildingID string     `json:"building_id"`
	ParentID   string     `json:"parent_id,omitempty"`
	Level      int        `json:"level"`
	Position   int        `json:"position"`
	Name       string     `json:"name"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
}

// Space levels by depth.
const (
	LevelUnit     = 0
	LevelLocal    = 1
	LevelSubLocal = 2
	LevelAmbient  = 3
)
