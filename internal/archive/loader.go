// Package archive loads legacy season CSVs and alias seed files from
// disk. Archives are the only source for seasons that predate the score
// feed, so the loader keeps file order deterministic and never guesses
// at malformed rows.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"scorebook/pipeline/internal/models"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
)

// LoadSeasonFile reads one season archive CSV
func LoadSeasonFile(path string) ([]models.ArchiveRow, error) {
	file, err := os.OpenFile(path, os.O_RDONLY, os.ModePerm)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive file: %w", err)
	}
	defer file.Close()

	rows := []models.ArchiveRow{}
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse archive file %s: %w", path, err)
	}

	return rows, nil
}

// LoadSeasonDir reads every .csv file in a directory in filename order
// and concatenates their rows. Row order inside a file is preserved, so
// ingestion order stays reproducible across runs.
func LoadSeasonDir(dir string) ([]models.ArchiveRow, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	var all []models.ArchiveRow
	files := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}

		rows, err := LoadSeasonFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		all = append(all, rows...)
		files++
	}

	log.Info().
		Str("dir", dir).
		Int("files", files).
		Int("rows", len(all)).
		Msg("Season archives loaded")

	return all, nil
}

// LoadAliasSeeds reads an alias seed CSV into stored alias rows
func LoadAliasSeeds(path string) ([]models.TeamAlias, error) {
	file, err := os.OpenFile(path, os.O_RDONLY, os.ModePerm)
	if err != nil {
		return nil, fmt.Errorf("failed to open alias seed file: %w", err)
	}
	defer file.Close()

	seeds := []models.AliasSeedRow{}
	if err := gocsv.UnmarshalFile(file, &seeds); err != nil {
		return nil, fmt.Errorf("failed to parse alias seed file %s: %w", path, err)
	}

	aliases := make([]models.TeamAlias, 0, len(seeds))
	for i := range seeds {
		aliases = append(aliases, *seeds[i].ToTeamAlias())
	}

	return aliases, nil
}

// AsRawRecords adapts archive rows to the normalizer's input
func AsRawRecords(rows []models.ArchiveRow) []models.RawRecord {
	records := make([]models.RawRecord, len(rows))
	for i := range rows {
		records[i] = &rows[i]
	}
	return records
}
