// Package config reads the process environment once into an immutable
// Config that is passed into every adapter. Nothing else in the pipeline
// touches os.Getenv.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	defaultSummaryURL   = "https://openrouter.ai/api/v1/chat/completions"
	defaultSummaryModel = "ibm-granite/granite-3.2-8b-instruct"

	defaultDiarizationURL = "http://localhost:8390"
	defaultIntentURL      = "http://localhost:8391"
	defaultSentimentURL   = "http://localhost:8392"

	defaultCallTimeout = 30 * time.Second
	defaultWorkers     = 4
)

type Config struct {
	// Summarization (OpenRouter-style chat completions).
	OpenRouterKey string
	SummaryURL    string
	SummaryModel  string

	// Diarization sidecar.
	DiarizationURL string
	DiarizationKey string

	// Per-utterance classifiers.
	IntentURL    string
	SentimentURL string

	// Bounds applied to every external call.
	CallTimeout time.Duration
	Workers     int
}

// Load builds the Config from the environment. A missing summarization key
// is a fatal configuration error; everything else has a default.
func Load() (Config, error) {
	key := os.Getenv("OPENROUTER_API_KEY")
	if key == "" {
		return Config{}, fmt.Errorf("OPENROUTER_API_KEY not set")
	}

	cfg := Config{
		OpenRouterKey:  key,
		SummaryURL:     envOr("SUMMARY_URL", defaultSummaryURL),
		SummaryModel:   envOr("SUMMARY_MODEL", defaultSummaryModel),
		DiarizationURL: envOr("DIARIZATION_URL", defaultDiarizationURL),
		DiarizationKey: os.Getenv("DIARIZATION_API_KEY"),
		IntentURL:      envOr("INTENT_URL", defaultIntentURL),
		SentimentURL:   envOr("SENTIMENT_URL", defaultSentimentURL),
		CallTimeout:    defaultCallTimeout,
		Workers:        defaultWorkers,
	}

	if v := os.Getenv("CALL_TIMEOUT_SEC"); v != "" {
		sec, err := strconv.Atoi(v)
		if err != nil || sec <= 0 {
			return Config{}, fmt.Errorf("invalid CALL_TIMEOUT_SEC %q", v)
		}
		cfg.CallTimeout = time.Duration(sec) * time.Second
	}
	if v := os.Getenv("ANNOTATE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid ANNOTATE_WORKERS %q", v)
		}
		cfg.Workers = n
	}

	return cfg, nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
