// Package idgen provides short, URL-safe unique ID generation backed by nanoid.
//
// Identifiers are opaque and never reused. Each entity kind carries its own
// prefix so that rows are recognizable in logs and exports.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Kind is an entity kind with its own ID prefix.
type Kind string

const (
	Building   Kind = "bl-"
	Diagram    Kind = "dg-"
	Network    Kind = "nw-"
	Stage      Kind = "st-"
	Precedence Kind = "pr-"
	Space      Kind = "sp-"
	Line       Kind = "ln-"
	Crew       Kind = "cr-"
	Package    Kind = "pk-"
	Link       Kind = "lk-"
)

// Alphabet defines the character set used for the random portion of the ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 10

// Func generates an ID for the given kind. Engines and services accept one so
// tests can substitute a deterministic sequence.
type Func func(Kind) (string, error)

// New returns a new unique ID for the given entity kind.
func New(kind Kind) (string, error) {
	return GenerateWithPrefix(string(kind))
}

// GenerateWithPrefix returns a new unique ID with the given prefix.
func GenerateWithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}

// Sequence returns a Func that yields kind-prefixed, zero-padded counters
// (cr-0001, cr-0002, ...). It is not safe for concurrent use.
func Sequence() Func {
	counters := make(map[Kind]int)
	return func(k Kind) (string, error) {
		counters[k]++
		return fmt.Sprintf("%s%04d", k, counters[k]), nil
	}
}
