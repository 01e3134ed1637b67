// Command assess runs resilience assessments from the command line using the
// rules narrator and a fixed clock, so output is reproducible.
//
// Usage:
//
//	go run ./cmd/assess \
//	  -neighborhood frenchquarter -foundation pile_column \
//	  -elevation 10 -materials concrete_block -mitigation none
//
//	go run ./cmd/assess -all -elevation 6 -out data/matrix.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/flood-resilience-service/internal/assessment"
	"github.com/couchcryptid/flood-resilience-service/internal/domain"
	"github.com/couchcryptid/flood-resilience-service/internal/observability"
	"github.com/couchcryptid/flood-resilience-service/internal/refdata"
	"github.com/jonboulle/clockwork"
)

var assessedAt = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// envelope matches the HTTP API response body.
type envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
}

// matrixRow is one assessment in -all output.
type matrixRow struct {
	Input      domain.BuildingInput `json:"input"`
	Score      int                  `json:"resilienceScore"`
	Score2055  int                  `json:"score2055"`
	Compliant  bool                 `json:"regulatoryCompliance"`
	Foundation float64              `json:"foundationScore"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dataPath := flag.String("data", "", "reference data YAML (default: embedded)")
	neighborhood := flag.String("neighborhood", "", "neighborhood id")
	foundation := flag.String("foundation", "", "foundation type id")
	elevation := flag.Float64("elevation", 0, "first floor elevation in feet (0-50)")
	materials := flag.String("materials", "", "material id")
	mitigation := flag.String("mitigation", "none", "mitigation feature id")
	all := flag.Bool("all", false, "assess every combination of reference data at -elevation")
	out := flag.String("out", "", "write output to this path instead of stdout")
	flag.Parse()

	store, err := loadStore(*dataPath)
	if err != nil {
		return fmt.Errorf("load reference data: %w", err)
	}

	svc := assessment.New(store, nil,
		slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
		observability.NewMetricsForTesting(),
		assessment.WithClock(clockwork.NewFakeClockAt(assessedAt)),
	)

	var result any
	if *all {
		rows, err := assessAll(svc, store, *elevation)
		if err != nil {
			return err
		}
		printStats(os.Stderr, rows)
		result = rows
	} else {
		if *neighborhood == "" || *foundation == "" || *materials == "" {
			flag.Usage()
			return fmt.Errorf("missing required flags: -neighborhood, -foundation, -materials")
		}
		res, err := svc.Assess(context.Background(), domain.BuildingInput{
			Neighborhood:    *neighborhood,
			FoundationType:  *foundation,
			Elevation:       *elevation,
			Materials:       *materials,
			FloodMitigation: *mitigation,
		})
		if err != nil {
			return err
		}
		result = envelope{Success: true, Data: res, Timestamp: assessedAt.Format(time.RFC3339)}
	}

	if *out != "" {
		if err := writeJSON(*out, result); err != nil {
			return fmt.Errorf("write %s: %w", *out, err)
		}
		log.Printf("wrote %s", *out)
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func loadStore(path string) (*refdata.Store, error) {
	if path == "" {
		return refdata.Default()
	}
	return refdata.LoadFile(path)
}

func assessAll(svc *assessment.Service, store *refdata.Store, elevation float64) ([]matrixRow, error) {
	var rows []matrixRow //nolint:prealloc // size is the product of four tables
	for _, n := range store.Neighborhoods() {
		for _, f := range store.Foundations() {
			for _, m := range store.Materials() {
				for _, mit := range store.Mitigations() {
					in := domain.BuildingInput{
						Neighborhood:    n.ID,
						FoundationType:  f.ID,
						Elevation:       elevation,
						Materials:       m.ID,
						FloodMitigation: mit.ID,
					}
					res, err := svc.Assess(context.Background(), in)
					if err != nil {
						return nil, fmt.Errorf("assess %+v: %w", in, err)
					}
					rows = append(rows, matrixRow{
						Input:      in,
						Score:      res.ResilienceScore,
						Score2055:  res.Timeline[len(res.Timeline)-1].Score,
						Compliant:  res.FoundationAnalysis.RegulatoryCompliance,
						Foundation: res.FoundationAnalysis.StrengthScore,
					})
				}
			}
		}
	}
	return rows, nil
}

func printStats(w io.Writer, rows []matrixRow) {
	if len(rows) == 0 {
		return
	}
	byFoundation := map[string][]int{}
	compliant := 0
	for _, r := range rows {
		byFoundation[r.Input.FoundationType] = append(byFoundation[r.Input.FoundationType], r.Score)
		if r.Compliant {
			compliant++
		}
	}

	names := make([]string, 0, len(byFoundation))
	for k := range byFoundation {
		names = append(names, k)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "assessments: %d (%d compliant)\n", len(rows), compliant)
	for _, name := range names {
		scores := byFoundation[name]
		sort.Ints(scores)
		sum := 0
		for _, s := range scores {
			sum += s
		}
		fmt.Fprintf(w, "  %-15s min %3d  max %3d  mean %5.1f\n",
			name, scores[0], scores[len(scores)-1], float64(sum)/float64(len(scores)))
	}
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
