package models

import "time"

// TeamAlias maps one raw upstream label to a canonical team name.
// The alias table is loaded once at startup and treated as immutable
// for the rest of the run.
type TeamAlias struct {
	ID            int       `db:"id"`
	RawLabel      string    `db:"raw_label"`
	CanonicalName string    `db:"canonical_name"`
	CreatedAt     time.Time `db:"created_at"`
}

// AliasSeedRow is the CSV shape used to bootstrap the alias table in a
// fresh environment.
type AliasSeedRow struct {
	RawLabel      string `csv:"raw_label"`
	CanonicalName string `csv:"canonical_name"`
}

// ToTeamAlias converts a seed row to the stored model.
func (r *AliasSeedRow) ToTeamAlias() *TeamAlias {
	return &TeamAlias{
		RawLabel:      r.RawLabel,
		CanonicalName: r.CanonicalName,
	}
}
