// Package events publishes schedule change notifications.
//
// Subjects are namespaced per building, so a client watching one building
// subscribes to "agl.<kind>.<building_id>" and a global watcher to "agl.>".
package events

import (
	"context"
	"strings"

	"github.com/IgorAraujoV/agilean-core-api/internal/propagation"
)

// Subject prefixes. Use Subject to build a concrete per-building subject.
const (
	TopicPatchApplied = "agl.patch.applied"
	TopicSpaceDeleted = "agl.space.deleted"
	TopicLinkDeleted  = "agl.link.deleted"

	// TopicAll matches every subject published by this package.
	TopicAll = "agl.>"
)

// Subject returns the per-building subject for topic.
func Subject(topic, buildingID string) string {
	return topic + "." + buildingID
}

// ParseSubject splits a subject built by Subject into its event kind, such
// as "patch.applied", and its building id.
func ParseSubject(subject string) (kind, buildingID string, ok bool) {
	rest, ok := strings.CutPrefix(subject, "agl.")
	if !ok {
		return "", "", false
	}
	i := strings.LastIndexByte(rest, '.')
	if i <= 0 || i == len(rest)-1 {
		return "", "", false
	}
	return rest[:i], rest[i+1:], true
}

// PatchApplied is published after a synchronized delta commits.
type PatchApplied struct {
	BuildingID string             `json:"building_id"`
	UserID     string             `json:"user_id,omitempty"`
	Operation  string             `json:"operation"`
	Patch      *propagation.Patch `json:"patch"`
}

// SpaceDeleted is published after a space subtree is removed.
type SpaceDeleted struct {
	BuildingID string   `json:"building_id"`
	UserID     string   `json:"user_id,omitempty"`
	SpaceIDs   []string `json:"space_ids"`
}

// LinkDeleted is published after a link is removed.
type LinkDeleted struct {
	BuildingID string `json:"building_id"`
	UserID     string `json:"user_id,omitempty"`
	LinkID     string `json:"link_id"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, subject string, event any) error
	Close() error
}
