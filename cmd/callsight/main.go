package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/joho/godotenv"

	"callsight/internal/config"
	"callsight/internal/logger"
	"callsight/internal/pipeline"
)

func main() {
	_ = godotenv.Load() // loads .env

	csvPath := flag.String("csv", "", "path to the transcript CSV/XLSX file")
	audioPath := flag.String("audio", "", "path to a raw call recording (runs diarization first)")
	callID := flag.String("call-id", "call_001", "call identifier")
	representative := flag.String("representative", "Agent_Unknown", "representative name")
	outDir := flag.String("out", ".", "artifact output root")
	flag.Parse()

	log := logger.New()
	log.WithField("service", "callsight").Info("starting pipeline")

	if *csvPath == "" && *audioPath == "" {
		log.Fatal("usage: callsight -csv transcript.csv [-call-id id] [-representative name] (or -audio recording.wav)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("configuration error")
	}

	fmt.Printf("Summarizing call: %s...\n", *callID)

	p := pipeline.New(cfg, log, *callID)
	res, err := p.Run(context.Background(), pipeline.Input{
		CSVPath:        *csvPath,
		AudioPath:      *audioPath,
		CallID:         *callID,
		Representative: *representative,
		OutDir:         *outDir,
	})
	if err != nil {
		log.WithError(err).Fatal("pipeline failed")
	}

	fmt.Printf("Summary complete! Report saved to %s\n", res.ReportPath)
}
