// Package pipeline sequences one call's end-to-end analysis: load or
// diarize, annotate, chart, summarize, report.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"callsight/internal/config"
	"callsight/internal/diarization"
	"callsight/internal/intent"
	"callsight/internal/logger"
	"callsight/internal/report"
	"callsight/internal/sentiment"
	"callsight/internal/summary"
	"callsight/internal/transcript"
	"callsight/internal/types"
	"callsight/internal/viz"
)

type Diarizer interface {
	Diarize(ctx context.Context, audioPath string) (types.Table, error)
}

type Annotator interface {
	Annotate(ctx context.Context, t types.Table) (types.Table, error)
}

type Summarizer interface {
	CallSummaries(ctx context.Context, t types.Table) (issue, resolution string)
}

// Input describes one call to analyze. Exactly one of CSVPath or AudioPath
// must be set.
type Input struct {
	CSVPath        string
	AudioPath      string
	CallID         string
	Representative string
	OutDir         string
}

// Result reports where the run's artifacts landed.
type Result struct {
	Table        types.Table
	AnnotatedCSV string
	ChartPaths   []string
	ReportPath   string
}

type Pipeline struct {
	diarizer   Diarizer
	intents    Annotator
	sentiments Annotator
	summarizer Summarizer
	log        *logrus.Entry
}

func New(cfg config.Config, log *logger.Logger, callID string) *Pipeline {
	entry := log.WithRun(callID)
	return &Pipeline{
		diarizer:   diarization.New(cfg, entry),
		intents:    intent.New(cfg, entry),
		sentiments: sentiment.New(cfg, entry),
		summarizer: summary.New(cfg, entry),
		log:        entry,
	}
}

// Run executes the full pipeline for one call. Diarization and input
// errors are fatal; per-row annotation failures, per-summary failures, and
// chart write failures degrade without aborting the run.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	table, err := p.load(ctx, in)
	if err != nil {
		return nil, err
	}
	p.log.WithField("turns", len(table)).Info("utterance table ready")

	table, err = p.intents.Annotate(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("intent annotation: %w", err)
	}
	table, err = p.sentiments.Annotate(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("sentiment annotation: %w", err)
	}

	res := &Result{Table: table}

	dataDir := filepath.Join(in.OutDir, "reports", "data")
	res.AnnotatedCSV = filepath.Join(dataDir, in.CallID+"_annotated.csv")
	if err := transcript.WriteCSV(table, res.AnnotatedCSV); err != nil {
		// The table lives on in memory; losing the flat-file copy is not
		// worth aborting charts and summaries.
		p.log.WithError(err).Warn("failed to persist annotated csv")
		res.AnnotatedCSV = ""
	}

	plotDir := filepath.Join(in.OutDir, "reports", "plots")
	charts := []func(*logrus.Entry, types.Table, string) (string, error){
		viz.IntentDistribution,
		viz.SentimentDistribution,
		viz.SentimentTimeline,
	}
	for _, render := range charts {
		path, err := render(p.log, table, plotDir)
		if err != nil {
			p.log.WithError(err).Warn("chart rendering failed")
			continue
		}
		if path != "" {
			res.ChartPaths = append(res.ChartPaths, path)
		}
	}

	issue, resolution := p.summarizer.CallSummaries(ctx, table)

	meta := report.Meta{
		CallID:         in.CallID,
		Representative: in.Representative,
		Generated:      time.Now(),
	}
	res.ReportPath, err = report.Build(meta, issue, resolution, res.ChartPaths, in.OutDir)
	if err != nil {
		return nil, fmt.Errorf("report build: %w", err)
	}
	p.log.WithField("report", res.ReportPath).Info("pipeline complete")
	return res, nil
}

func (p *Pipeline) load(ctx context.Context, in Input) (types.Table, error) {
	switch {
	case in.AudioPath != "":
		t, err := p.diarizer.Diarize(ctx, in.AudioPath)
		if err != nil {
			return nil, fmt.Errorf("diarization: %w", err)
		}
		return t, nil
	case in.CSVPath != "":
		t, err := transcript.Load(in.CSVPath)
		if err != nil {
			return nil, fmt.Errorf("load transcript: %w", err)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("no input: provide a transcript or an audio file")
	}
}
