// Package sentiment scores each utterance's polarity via the hosted
// sentiment model.
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"callsight/internal/config"
	"callsight/internal/types"
)

// maxInputRunes is the model's input-size contract; longer utterances are
// truncated, never rejected or chunked.
const maxInputRunes = 512

type Annotator struct {
	url      string
	workers  int
	maxRetry time.Duration
	http     *http.Client
	log      *logrus.Entry
}

func New(cfg config.Config, log *logrus.Entry) *Annotator {
	return &Annotator{
		url:      cfg.SentimentURL,
		workers:  cfg.Workers,
		maxRetry: 12 * time.Second,
		http:     &http.Client{Timeout: cfg.CallTimeout},
		log:      log.WithField("module", "sentiment"),
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Annotate appends a normalized Sentiment to every row. Failed rows fall
// back to NEUTRAL with the failure recorded; order and row count are
// preserved exactly.
func (a *Annotator) Annotate(ctx context.Context, t types.Table) (types.Table, error) {
	if len(t) == 0 {
		return nil, fmt.Errorf("sentiment annotation: empty utterance table")
	}

	out := make(types.Table, len(t))
	copy(out, t)

	g := new(errgroup.Group)
	g.SetLimit(a.workers)
	for i := range out {
		i := i
		g.Go(func() error {
			label, err := a.classify(ctx, truncate(out[i].Text))
			if err != nil {
				a.log.WithError(err).WithField("row", i).Warn("sentiment classification failed, substituting NEUTRAL")
				out[i].Sentiment = types.SentimentNeutral
				out[i].SentimentErr = err.Error()
				return nil
			}
			s, known := types.NormalizeSentiment(label)
			out[i].Sentiment = s
			if !known {
				out[i].SentimentErr = fmt.Sprintf("unrecognized label %q", label)
			}
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

func (a *Annotator) classify(ctx context.Context, text string) (string, error) {
	payload, _ := json.Marshal(classifyRequest{Text: text})

	var parsed classifyResponse
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url+"/classify", bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := a.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			return fmt.Errorf("sentiment server error: %s", body)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("sentiment model rejected request: status %d", resp.StatusCode))
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return fmt.Errorf("decode sentiment response: %w", err)
		}
		return nil
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = a.maxRetry
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return "", err
	}
	if parsed.Label == "" {
		return "", fmt.Errorf("sentiment model returned no label")
	}
	return parsed.Label, nil
}

func truncate(text string) string {
	r := []rune(text)
	if len(r) <= maxInputRunes {
		return text
	}
	return string(r[:maxInputRunes])
}
