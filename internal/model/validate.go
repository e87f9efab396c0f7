package model

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) err() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// ValidateStage checks a Stage for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the stage is valid.
func ValidateStage(s *Stage) error {
	var ve ValidationError
	if strings.TrimSpace(s.Name) == "" {
		ve.add("name", "is required")
	}
	if s.Duration < 1 {
		ve.add("duration", "must be at least 1, got %d", s.Duration)
	}
	if s.Latency < 0 {
		ve.add("latency", "must not be negative, got %d", s.Latency)
	}
	if s.NetworkID == "" {
		ve.add("network_id", "is required")
	}
	return ve.err()
}

// ValidatePrecedence checks a Precedence for constraint violations.
func ValidatePrecedence(p *Precedence) error {
	var ve ValidationError
	if p.SourceStageID == "" {
		ve.add("source_stage_id", "is required")
	}
	if p.DestStageID == "" {
		ve.add("dest_stage_id", "is required")
	}
	if p.SourceStageID != "" && p.SourceStageID == p.DestStageID {
		ve.add("dest_stage_id", "must differ from source_stage_id")
	}
	if p.Opening < 0 {
		ve.add("opening", "must not be negative, got %d", p.Opening)
	}
	if p.Latency < 0 {
		ve.add("latency", "must not be negative, got %d", p.Latency)
	}
	return ve.err()
}

// ValidateLink checks a Link for constraint violations.
func ValidateLink(l *Link) error {
	var ve ValidationError
	if l.SourcePackageID == "" {
		ve.add("source_package_id", "is required")
	}
	if l.DestPackageID == "" {
		ve.add("dest_package_id", "is required")
	}
	if l.SourcePackageID != "" && l.SourcePackageID == l.DestPackageID {
		ve.add("dest_package_id", "must differ from source_package_id")
	}
	if l.Latency < 0 {
		ve.add("latency", "must not be negative, got %d", l.Latency)
	}
	return ve.err()
}

// ValidateSpace checks a Space for constraint violations.
func ValidateSpace(s *Space) error {
	var ve ValidationError
	if strings.TrimSpace(s.Name) == "" {
		ve.add("name", "is required")
	}
	if s.Level < LevelUnit || s.Level > LevelAmbient {
		ve.add("level", "must be between %d and %d, got %d", LevelUnit, LevelAmbient, s.Level)
	}
	if s.Level == LevelUnit && s.ParentID != "" {
		ve.add("parent_id", "must be empty for a unit")
	}
	if s.Level > LevelUnit && s.ParentID == "" {
		ve.add("parent_id", "is required below unit level")
	}
	if s.StartDate != nil && s.EndDate != nil && s.EndDate.Before(*s.StartDate) {
		ve.add("end_date", "must not be before start_date")
	}
	return ve.err()
}

// ValidatePackage checks the persisted fields of a Package. Engine output is
// not repaired here; this is only applied to rows entering through the API.
func ValidatePackage(p *Package) error {
	var ve ValidationError
	if p.EndColumn < p.StartColumn {
		ve.add("end_column", "must be >= start_column (%d), got %d", p.StartColumn, p.EndColumn)
	}
	if p.Progress < 0 || p.Progress > 1 {
		ve.add("progress", "must be between 0 and 1, got %g", p.Progress)
	}
	if p.Cost < 0 {
		ve.add("cost", "must not be negative, got %g", p.Cost)
	}
	return ve.err()
}
