package viz

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"callsight/internal/types"
)

const timelineChartFile = "sentiment_trendline_per_speaker.png"

// trendDegree matches the cubic fit the timeline has always used.
const trendDegree = 3

// SentimentTimeline plots each speaker's sentiment score against the
// 1-based exchange index, with a fitted trend line per speaker (speakers
// with a single turn get their point plotted but no trend line) and a
// dashed neutral baseline at zero.
func SentimentTimeline(log *logrus.Entry, t types.Table, dir string) (string, error) {
	if len(t) == 0 {
		log.Warn("empty table, skipping sentiment timeline chart")
		return "", nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create chart dir: %w", err)
	}

	p := plot.New()
	p.Title.Text = "Sentiment Fluctuation Over Conversation by Speaker"
	p.X.Label.Text = "Conversation Exchange"
	p.Y.Label.Text = "Sentiment Score (-1: Negative, 0: Neutral, 1: Positive)"
	p.Legend.Top = true
	p.Y.Min, p.Y.Max = -1.5, 1.5

	for si, speaker := range t.Speakers() {
		var xs, ys []float64
		for i, u := range t {
			if u.Speaker != speaker {
				continue
			}
			xs = append(xs, float64(i+1))
			ys = append(ys, float64(u.Sentiment.Score()))
		}

		pts := make(plotter.XYs, len(xs))
		for i := range xs {
			pts[i].X, pts[i].Y = xs[i], ys[i]
		}
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return "", fmt.Errorf("build scatter: %w", err)
		}
		scatter.GlyphStyle.Color = plotutil.Color(si)
		scatter.GlyphStyle.Radius = vg.Points(3)
		p.Add(scatter)
		p.Legend.Add(speaker+" Data Points", scatter)

		if len(xs) < 2 {
			continue
		}
		coeffs, err := polyfit(xs, ys, trendDegree)
		if err != nil {
			log.WithError(err).WithField("speaker", speaker).Warn("trend fit failed, plotting points only")
			continue
		}
		trend := make(plotter.XYs, len(xs))
		for i, x := range xs {
			trend[i].X, trend[i].Y = x, polyval(coeffs, x)
		}
		line, err := plotter.NewLine(trend)
		if err != nil {
			return "", fmt.Errorf("build trend line: %w", err)
		}
		line.LineStyle.Width = vg.Points(2)
		line.LineStyle.Color = plotutil.Color(si)
		p.Add(line)
		p.Legend.Add(speaker+" Trend Line", line)
	}

	baseline := plotter.XYs{{X: 1, Y: 0}, {X: float64(len(t)), Y: 0}}
	base, err := plotter.NewLine(baseline)
	if err != nil {
		return "", fmt.Errorf("build baseline: %w", err)
	}
	base.LineStyle.Color = color.Gray{Y: 128}
	base.LineStyle.Width = vg.Points(1.5)
	base.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(4)}
	p.Add(base)
	p.Legend.Add("Neutral Baseline", base)

	path := filepath.Join(dir, timelineChartFile)
	if err := p.Save(12*vg.Inch, 6*vg.Inch, path); err != nil {
		return "", fmt.Errorf("save chart %s: %w", path, err)
	}
	log.WithField("path", path).Info("saved sentiment timeline chart")
	return path, nil
}
