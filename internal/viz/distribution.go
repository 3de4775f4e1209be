// Package viz renders the summary charts. Chart functions are pure
// consumers of the annotated table: no external calls, PNG side effects
// only.
package viz

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"callsight/internal/types"
)

const (
	intentChartFile    = "intent_distribution_by_speaker.png"
	sentimentChartFile = "overall_sentiment_per_speaker.png"
)

// IntentDistribution renders turn counts grouped by (intent category,
// speaker). Rows without a category are excluded. Returns the written path.
func IntentDistribution(log *logrus.Entry, t types.Table, dir string) (string, error) {
	counts := map[string]map[string]int{}
	for _, u := range t {
		if u.IntentCategory == "" {
			continue
		}
		if counts[u.IntentCategory] == nil {
			counts[u.IntentCategory] = map[string]int{}
		}
		counts[u.IntentCategory][u.Speaker]++
	}
	if len(counts) == 0 {
		log.Warn("no categorized intents, skipping intent distribution chart")
		return "", nil
	}

	groups := sortedKeys(counts)
	path := filepath.Join(dir, intentChartFile)
	err := groupedBar(path, barSpec{
		title:  "Intent Category Distribution by Speaker",
		xLabel: "Intent Category",
		yLabel: "Count",
		groups: groups,
		series: t.Speakers(),
		counts: counts,
	})
	if err != nil {
		return "", err
	}
	log.WithField("path", path).Info("saved intent distribution chart")
	return path, nil
}

// SentimentDistribution renders turn counts grouped by (speaker,
// sentiment), with NEUTRAL turns excluded to emphasize polarized exchanges.
// An all-NEUTRAL table produces a diagnostic and no file.
func SentimentDistribution(log *logrus.Entry, t types.Table, dir string) (string, error) {
	counts := map[string]map[string]int{}
	for _, u := range t {
		if u.Sentiment == types.SentimentNeutral || u.Sentiment == "" {
			continue
		}
		if counts[u.Speaker] == nil {
			counts[u.Speaker] = map[string]int{}
		}
		counts[u.Speaker][string(u.Sentiment)]++
	}
	if len(counts) == 0 {
		log.Warn("all sentiment values neutral, skipping sentiment distribution chart")
		return "", nil
	}

	path := filepath.Join(dir, sentimentChartFile)
	err := groupedBar(path, barSpec{
		title:  "Overall Sentiment Distribution by Speaker (No Neutral)",
		xLabel: "Speaker",
		yLabel: "Number of Turns",
		groups: sortedKeys(counts),
		series: []string{string(types.SentimentPositive), string(types.SentimentNegative)},
		counts: counts,
	})
	if err != nil {
		return "", err
	}
	log.WithField("path", path).Info("saved sentiment distribution chart")
	return path, nil
}

type barSpec struct {
	title, xLabel, yLabel string
	groups                []string // x-axis positions
	series                []string // one bar per series within each group
	counts                map[string]map[string]int
}

func groupedBar(path string, spec barSpec) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create chart dir: %w", err)
	}

	p := plot.New()
	p.Title.Text = spec.title
	p.X.Label.Text = spec.xLabel
	p.Y.Label.Text = spec.yLabel
	p.Legend.Top = true

	width := vg.Points(18)
	for si, s := range spec.series {
		vals := make(plotter.Values, len(spec.groups))
		for gi, g := range spec.groups {
			vals[gi] = float64(spec.counts[g][s])
		}
		bar, err := plotter.NewBarChart(vals, width)
		if err != nil {
			return fmt.Errorf("build bar chart: %w", err)
		}
		bar.LineStyle.Width = 0
		bar.Color = plotutil.Color(si)
		bar.Offset = width * vg.Length(float64(si)-float64(len(spec.series)-1)/2)
		p.Add(bar)
		p.Legend.Add(s, bar)
	}
	p.NominalX(spec.groups...)

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save chart %s: %w", path, err)
	}
	return nil
}

func sortedKeys(m map[string]map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
