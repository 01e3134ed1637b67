package openai

import (
	"fmt"
	"math"
	"strings"

	"github.com/couchcryptid/flood-resilience-service/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const systemPrompt = `You are a flood resilience expert in New Orleans architecture.
Reply with a single JSON object and nothing else, shaped as:
{"recommendations":[{"action":string,"priority":"high"|"medium"|"low","costRange":{"min":number,"max":number},"benefit":string,"timeframe":string,"roi":number,"type":"structural"|"material"|"elevation"|"mitigation","feasibility":"easy"|"moderate"|"complex"}],"summary":string}`

var printer = message.NewPrinter(language.English)

// buildPrompt describes the assessment for the model. Scores are rounded to
// whole numbers; dollar amounts go through printer for thousands separators.
func buildPrompt(ac domain.AssessmentContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Building: %s, %s, %.1fft elevation (base flood elevation %.0fft)\n",
		ac.Neighborhood.Name, ac.Foundation.Name, ac.Input.Elevation, ac.Neighborhood.BaseBFE)
	fmt.Fprintf(&b, "Foundation score: %d%%\n", int(math.Round(ac.FoundationScore)))
	fmt.Fprintf(&b, "Overall score: %d%%\n", int(math.Round(ac.OverallScore)))
	fmt.Fprintf(&b, "Flood zone: %s\n", ac.Neighborhood.FloodZone)
	fmt.Fprintf(&b, "Subsidence: %.2f in/yr, sea level rise by 2055: %.1fft\n",
		ac.Neighborhood.SubsidenceRate, ac.Neighborhood.SeaLevelRise2055)
	fmt.Fprintf(&b, "Risk factors: %s\n", strings.Join(ac.RiskFactors, ", "))

	b.WriteString("Timeline:")
	for _, p := range ac.Timeline {
		fmt.Fprintf(&b, " %d=%d", p.Year, p.Score)
	}
	b.WriteString("\n")

	if len(ac.Mitigation.CostBenefit) > 0 {
		b.WriteString("Mitigation options not yet installed:\n")
		for _, cb := range ac.Mitigation.CostBenefit {
			printer.Fprintf(&b, "- %s: $%d, %s priority\n", cb.Feature, int64(cb.Cost), cb.Priority)
		}
	}

	b.WriteString(`
Provide 3-5 specific, actionable recommendations prioritized by impact and feasibility.
Consider NFIP compliance requirements, cost-effectiveness for architects, the 30-year
timeline, and New Orleans-specific challenges (subsidence, hurricane risk).
Summarize the assessment in 2-3 sentences. If the building scores well today but drops
steeply over the next 30 years, say so.`)

	return b.String()
}
