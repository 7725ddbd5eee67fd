package teams

import (
	"sort"
	"strings"

	"scorebook/pipeline/internal/models"

	"github.com/rs/zerolog/log"
)

// Resolver maps free-form team labels (abbreviations, city aliases,
// historic names, punctuation variants) to one canonical name. It is
// built once from the alias table and never mutated afterwards, so it is
// safe to share across workers.
//
// Relocated or renamed franchises are distinct canonical names per era;
// the resolver does not know about seasons. Callers needing era-correct
// mapping must pick the right alias set themselves.
type Resolver struct {
	aliases    map[string]string
	canonicals map[string]string
}

// NormalizeLabel derives the lookup key for a raw team label: uppercase
// with '.', ' ', '-' and '_' stripped. Applying it twice returns the
// same key.
func NormalizeLabel(label string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToUpper(label))
}

// NewResolver builds a resolver from alias table entries. Later entries
// win when two aliases normalize to the same key; a conflict between
// different canonical names is logged because it means the alias table
// itself is broken.
func NewResolver(aliases []models.TeamAlias) *Resolver {
	r := &Resolver{
		aliases:    make(map[string]string, len(aliases)),
		canonicals: make(map[string]string, len(aliases)),
	}

	for _, a := range aliases {
		key := NormalizeLabel(a.RawLabel)
		if key == "" {
			continue
		}
		if prev, ok := r.aliases[key]; ok && prev != a.CanonicalName {
			log.Warn().
				Str("raw_label", a.RawLabel).
				Str("previous", prev).
				Str("replacement", a.CanonicalName).
				Msg("Conflicting alias entries normalize to the same key")
		}
		r.aliases[key] = a.CanonicalName
		r.canonicals[NormalizeLabel(a.CanonicalName)] = a.CanonicalName
	}

	return r
}

// Resolve maps a raw label to its canonical name. The second return is
// false when the label is unknown: the resolver never invents a name
// from an unrecognized token, because a guessed token can collide with a
// legitimate alias later and silently corrupt the dataset. Callers
// decide whether to reject the record or surface a warning.
func (r *Resolver) Resolve(raw string) (string, bool) {
	key := NormalizeLabel(raw)
	if key == "" {
		return "", false
	}
	if name, ok := r.aliases[key]; ok {
		return name, true
	}
	// Already-canonical input resolves to itself.
	if name, ok := r.canonicals[key]; ok {
		return name, true
	}
	return "", false
}

// Canonicals returns the distinct canonical names known to the resolver,
// sorted for deterministic iteration.
func (r *Resolver) Canonicals() []string {
	names := make([]string, 0, len(r.canonicals))
	for _, name := range r.canonicals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Size returns the number of alias keys loaded.
func (r *Resolver) Size() int {
	return len(r.aliases)
}
