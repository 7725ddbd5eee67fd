// Package export publishes run artifacts to a local directory: the
// canonical dataset as parquet, ratings and predictions as CSV, and the
// feature table as CSV with one column pair per statistic. Every write
// goes through a temp file and rename so consumers never see a partial
// artifact.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"scorebook/pipeline/internal/features"
	"scorebook/pipeline/internal/metrics"
	"scorebook/pipeline/internal/models"

	"github.com/gocarina/gocsv"
	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog/log"
)

// Artifact file names, stable across runs so consumers can poll them.
const (
	DatasetFile     = "dataset.parquet"
	RatingsFile     = "ratings.csv"
	PredictionsFile = "predictions.csv"
	FeaturesFile    = "features.csv"
)

// Exporter writes run artifacts into one directory
type Exporter struct {
	dir string
}

// NewExporter creates the artifact directory if needed
func NewExporter(dir string) (*Exporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &Exporter{dir: dir}, nil
}

type datasetRow struct {
	GameDate   string `parquet:"game_date"`
	Season     int32  `parquet:"season"`
	Sequence   int32  `parquet:"sequence"`
	HomeTeam   string `parquet:"home_team"`
	AwayTeam   string `parquet:"away_team"`
	HomePoints *int32 `parquet:"home_points,optional"`
	AwayPoints *int32 `parquet:"away_points,optional"`
	Status     string `parquet:"status"`
	Source     string `parquet:"source"`
}

type ratingRow struct {
	Team       string  `csv:"team"`
	Rating     float64 `csv:"rating"`
	GamesRated int     `csv:"games_rated"`
	RatingDate string  `csv:"rating_date"`
}

type predictionRow struct {
	GameDate    string  `csv:"game_date"`
	Season      int     `csv:"season"`
	Sequence    int     `csv:"sequence"`
	HomeTeam    string  `csv:"home_team"`
	AwayTeam    string  `csv:"away_team"`
	HomeWinProb float64 `csv:"home_win_prob"`
	AwayWinProb float64 `csv:"away_win_prob"`
	HomeRating  float64 `csv:"home_rating"`
	AwayRating  float64 `csv:"away_rating"`
	AsOf        string  `csv:"as_of"`
}

// WriteDataset writes the canonical dataset as snappy-compressed parquet
func (e *Exporter) WriteDataset(games []models.Game) (string, error) {
	start := time.Now()

	rows := make([]datasetRow, 0, len(games))
	for i := range games {
		g := &games[i]
		row := datasetRow{
			GameDate: g.DateKey(),
			Season:   int32(g.Season),
			Sequence: int32(g.Sequence),
			HomeTeam: g.HomeTeam,
			AwayTeam: g.AwayTeam,
			Status:   g.Status,
			Source:   string(g.Source),
		}
		if g.HomePoints.Valid {
			v := g.HomePoints.Int32
			row.HomePoints = &v
		}
		if g.AwayPoints.Valid {
			v := g.AwayPoints.Int32
			row.AwayPoints = &v
		}
		rows = append(rows, row)
	}

	path, err := e.writeAtomic(DatasetFile, func(f *os.File) error {
		w := parquet.NewWriter(f, parquet.SchemaOf(new(datasetRow)), parquet.Compression(&parquet.Snappy))
		for i := range rows {
			if err := w.Write(rows[i]); err != nil {
				return fmt.Errorf("failed to write dataset row: %w", err)
			}
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("failed to close parquet writer: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	metrics.RecordArtifactWrite("parquet", time.Since(start).Seconds())
	log.Info().Str("path", path).Int("rows", len(rows)).Msg("Dataset artifact written")
	return path, nil
}

// WriteRatings writes the rating snapshot as CSV
func (e *Exporter) WriteRatings(ratings []models.Rating) (string, error) {
	start := time.Now()

	rows := make([]ratingRow, 0, len(ratings))
	for i := range ratings {
		r := &ratings[i]
		rows = append(rows, ratingRow{
			Team:       r.Team,
			Rating:     r.Value,
			GamesRated: r.GamesRated,
			RatingDate: r.RatingDate.Format("2006-01-02"),
		})
	}

	path, err := e.writeAtomic(RatingsFile, func(f *os.File) error {
		if err := gocsv.MarshalFile(&rows, f); err != nil {
			return fmt.Errorf("failed to write ratings csv: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	metrics.RecordArtifactWrite("csv", time.Since(start).Seconds())
	log.Info().Str("path", path).Int("rows", len(rows)).Msg("Ratings artifact written")
	return path, nil
}

// WritePredictions writes fixture predictions as CSV
func (e *Exporter) WritePredictions(predictions []models.Prediction) (string, error) {
	start := time.Now()

	rows := make([]predictionRow, 0, len(predictions))
	for i := range predictions {
		p := &predictions[i]
		rows = append(rows, predictionRow{
			GameDate:    p.GameDate.Format("2006-01-02"),
			Season:      p.Season,
			Sequence:    p.Sequence,
			HomeTeam:    p.HomeTeam,
			AwayTeam:    p.AwayTeam,
			HomeWinProb: p.HomeWinProb,
			AwayWinProb: p.AwayWinProb,
			HomeRating:  p.HomeRating,
			AwayRating:  p.AwayRating,
			AsOf:        p.AsOf.UTC().Format(time.RFC3339),
		})
	}

	path, err := e.writeAtomic(PredictionsFile, func(f *os.File) error {
		if err := gocsv.MarshalFile(&rows, f); err != nil {
			return fmt.Errorf("failed to write predictions csv: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	metrics.RecordArtifactWrite("csv", time.Since(start).Seconds())
	log.Info().Str("path", path).Int("rows", len(rows)).Msg("Predictions artifact written")
	return path, nil
}

// WriteFeatures writes the feature table as CSV. Statistic columns vary
// with the configured windows, so the header is built dynamically with
// a home_/away_ pair per statistic.
func (e *Exporter) WriteFeatures(rows []models.FeatureRow, windows []int) (string, error) {
	start := time.Now()

	columns := features.ColumnNames(windows)
	header := []string{"game_date", "season", "sequence", "home_team", "away_team", "status"}
	for _, col := range columns {
		header = append(header, "home_"+col, "away_"+col)
	}

	path, err := e.writeAtomic(FeaturesFile, func(f *os.File) error {
		w := csv.NewWriter(f)
		if err := w.Write(header); err != nil {
			return fmt.Errorf("failed to write feature header: %w", err)
		}

		record := make([]string, 0, len(header))
		for i := range rows {
			row := &rows[i]
			game := &row.Game
			record = record[:0]
			record = append(record,
				game.DateKey(),
				strconv.Itoa(game.Season),
				strconv.Itoa(game.Sequence),
				game.HomeTeam,
				game.AwayTeam,
				game.Status,
			)
			for _, col := range columns {
				record = append(record,
					strconv.FormatFloat(row.Home[col], 'f', -1, 64),
					strconv.FormatFloat(row.Away[col], 'f', -1, 64),
				)
			}
			if err := w.Write(record); err != nil {
				return fmt.Errorf("failed to write feature row: %w", err)
			}
		}

		w.Flush()
		if err := w.Error(); err != nil {
			return fmt.Errorf("failed to flush feature csv: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	metrics.RecordArtifactWrite("csv", time.Since(start).Seconds())
	log.Info().Str("path", path).Int("rows", len(rows)).Msg("Features artifact written")
	return path, nil
}

// writeAtomic writes through a temp file in the artifact directory and
// renames it into place once the write completes.
func (e *Exporter) writeAtomic(name string, write func(f *os.File) error) (string, error) {
	tmp, err := os.CreateTemp(e.dir, name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp artifact: %w", err)
	}
	tmpName := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close temp artifact: %w", err)
	}

	final := filepath.Join(e.dir, name)
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to publish artifact: %w", err)
	}

	return final, nil
}
