// Command validate checks a reference data file before it is deployed. It
// loads the file, cross-checks the foundation flags against the zone table,
// and runs every combination of the reference tables through the assessment
// service to confirm the scoring invariants hold.
//
// Usage:
//
//	go run ./cmd/validate -data internal/refdata/reference.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
	"time"

	"github.com/couchcryptid/flood-resilience-service/internal/assessment"
	"github.com/couchcryptid/flood-resilience-service/internal/domain"
	"github.com/couchcryptid/flood-resilience-service/internal/observability"
	"github.com/couchcryptid/flood-resilience-service/internal/projection"
	"github.com/couchcryptid/flood-resilience-service/internal/refdata"
	"github.com/couchcryptid/flood-resilience-service/internal/scoring"
	"github.com/jonboulle/clockwork"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataPath := flag.String("data", "", "reference data YAML to validate (default: embedded)")
	flag.Parse()

	os.Exit(run(*dataPath))
}

func run(dataPath string) int {
	fmt.Println("=== Reference Data Validation ===")
	fmt.Println()

	var (
		store *refdata.Store
		err   error
	)
	if dataPath == "" {
		store, err = refdata.Default()
	} else {
		store, err = refdata.LoadFile(dataPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load reference data: %v\n", err)
		return 1
	}

	counts := store.Counts()
	fmt.Printf("Tables: %d zones, %d neighborhoods, %d foundations, %d materials, %d mitigations\n",
		counts["zones"], counts["neighborhoods"], counts["foundations"], counts["materials"], counts["mitigations"])
	fmt.Println()

	phases := []*phase{
		validateZoneFlags(store),
		validateMitigationCatalog(store),
		validateFoundationScores(store),
		validateAssessments(store),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i >= 20 {
				fmt.Printf("  ... and %d more\n", len(p.errors)-20)
				break
			}
			fmt.Printf("  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	fmt.Println("\nAll phases passed.")
	return 0
}

// validateZoneFlags checks that the per-foundation V/A flags agree with the
// zone table's allowed foundation lists.
func validateZoneFlags(store *refdata.Store) *phase {
	p := &phase{name: "Foundation zone flags"}

	v, okV := store.Zone("V")
	a, okA := store.Zone("A")
	if !okV || !okA {
		p.errorf("zone table must define both V and A")
		return p
	}

	for _, f := range store.Foundations() {
		if got := scoring.Compliant(f.Rank, &v); got != f.VZoneAllowed {
			p.errorf("foundation %s: vZoneAllowed=%v but zone V allows it: %v", f.ID, f.VZoneAllowed, got)
		}
		if got := scoring.Compliant(f.Rank, &a); got != f.AZoneAllowed {
			p.errorf("foundation %s: aZoneAllowed=%v but zone A allows it: %v", f.ID, f.AZoneAllowed, got)
		}
	}
	return p
}

func validateMitigationCatalog(store *refdata.Store) *phase {
	p := &phase{name: "Mitigation catalog"}

	if _, ok := store.Mitigation("none"); !ok {
		p.errorf(`mitigation table must contain the "none" entry`)
	}
	for _, m := range store.Mitigations() {
		if m.ID != "none" && len(m.ApplicableFoundations) == 0 {
			p.errorf("mitigation %s applies to no foundation", m.ID)
		}
		if m.Name == "" {
			p.errorf("mitigation %s has no name", m.ID)
		}
	}
	return p
}

func validateFoundationScores(store *refdata.Store) *phase {
	p := &phase{name: "Foundation score bounds"}
	w := scoring.DefaultWeights()

	for _, f := range store.Foundations() {
		for _, z := range store.Zones() {
			s := scoring.FoundationScore(f, &z, w)
			if s < 0 || s > 100 {
				p.errorf("foundation %s in zone %s: score %v outside [0,100]", f.ID, z.Code, s)
			}
		}
	}
	return p
}

// validateAssessments runs every table combination at the bounds of the
// elevation range and checks the output invariants.
func validateAssessments(store *refdata.Store) *phase {
	p := &phase{name: "Assessment invariants"}

	svc := newValidationService(store)
	ctx := context.Background()

	for _, n := range store.Neighborhoods() {
		for _, f := range store.Foundations() {
			for _, m := range store.Materials() {
				for _, mit := range store.Mitigations() {
					for _, elev := range []float64{assessment.MinElevation, n.BaseBFE, assessment.MaxElevation} {
						in := domain.BuildingInput{
							Neighborhood:    n.ID,
							FoundationType:  f.ID,
							Elevation:       elev,
							Materials:       m.ID,
							FloodMitigation: mit.ID,
						}
						checkAssessment(ctx, p, svc, in)
					}
				}
			}
		}
	}
	return p
}

func newValidationService(store *refdata.Store) *assessment.Service {
	return assessment.New(store, nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewMetricsForTesting(),
		assessment.WithClock(clockwork.NewFakeClockAt(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))),
	)
}

func checkAssessment(ctx context.Context, p *phase, svc *assessment.Service, in domain.BuildingInput) {
	label := fmt.Sprintf("%s/%s/%s/%s@%v", in.Neighborhood, in.FoundationType, in.Materials, in.FloodMitigation, in.Elevation)

	res, err := svc.Assess(ctx, in)
	if err != nil {
		p.errorf("%s: %v", label, err)
		return
	}

	if res.ResilienceScore < projection.MinScore || res.ResilienceScore > 100 {
		p.errorf("%s: resilience score %d outside [%d,100]", label, res.ResilienceScore, projection.MinScore)
	}
	if res.ConfidenceInterval[0] > res.ResilienceScore || res.ConfidenceInterval[1] < res.ResilienceScore {
		p.errorf("%s: confidence interval %v does not contain %d", label, res.ConfidenceInterval, res.ResilienceScore)
	}

	if len(res.Timeline) != 7 {
		p.errorf("%s: timeline has %d points, want 7", label, len(res.Timeline))
	}
	for i, pt := range res.Timeline {
		if want := projection.StartYear + i*projection.StepYears; pt.Year != want {
			p.errorf("%s: timeline point %d has year %d, want %d", label, i, pt.Year, want)
		}
		if pt.Score < projection.MinScore {
			p.errorf("%s: %d score %d below floor", label, pt.Year, pt.Score)
		}
		if i > 0 && pt.Score > res.Timeline[i-1].Score {
			p.errorf("%s: score rises from %d to %d in %d", label, res.Timeline[i-1].Score, pt.Score, pt.Year)
		}
	}

	// A strong building legitimately gets no recommendations; the summary
	// is always present.
	if res.Summary == "" {
		p.errorf("%s: empty summary", label)
	}
	for i, r := range res.Recommendations {
		if err := r.Validate(); err != nil {
			p.errorf("%s: recommendation %d: %v", label, i, err)
		}
	}

	again, err := svc.Assess(ctx, in)
	if err != nil || !reflect.DeepEqual(res, again) {
		p.errorf("%s: repeated assessment differs", label)
	}
}
