// Package intent classifies each utterance against the fixed candidate
// label set via the hosted zero-shot classifier.
package intent

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

type Annotator struct {
	url      string
	workers  int
	maxRetry time.Duration
	http     *http.Client
	log      *logrus.Entry
}

func New(cfg config.Config, log *logrus.Entry) *Annotator {
	return &Annotator{
		url:      cfg.IntentURL,
		workers:  cfg.Workers,
		maxRetry: 12 * time.Second,
		http:     &http.Client{Timeout: cfg.CallTimeout},
		log:      log.WithField("module", "intent"),
	}
}

type classifyRequest struct {
	Text   string   `json:"text"`
	Labels []string `json:"labels"`
}

type classifyResponse struct {
	Labels []struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	} `json:"labels"`
}

// Annotate classifies every row and appends Intent and IntentCategory.
// Rows are fanned out across a bounded worker set and written back by
// index, so output order always matches input order. A failed row gets the
// Unknown sentinel and a recorded error; it never aborts its siblings.
func (a *Annotator) Annotate(ctx context.Context, t types.Table) (types.Table, error) {
	if len(t) == 0 {
		return nil, fmt.Errorf("intent annotation: empty utterance table")
	}

	out := make(types.Table, len(t))
	copy(out, t)

	g := new(errgroup.Group)
	g.SetLimit(a.workers)
	for i := range out {
		i := i
		g.Go(func() error {
			label, err := a.classify(ctx, out[i].Text)
			if err != nil {
				a.log.WithError(err).WithField("row", i).Warn("intent classification failed, substituting Unknown")
				out[i].Intent = types.IntentUnknown
				out[i].IntentErr = err.Error()
				return nil
			}
			out[i].Intent = label
			return nil
		})
	}
	_ = g.Wait()

	for i := range out {
		if cat, ok := types.IntentToCategory[out[i].Intent]; ok {
			out[i].IntentCategory = cat
		}
	}
	return out, nil
}

func (a *Annotator) classify(ctx context.Context, text string) (string, error) {
	payload, _ := json.Marshal(classifyRequest{Text: text, Labels: types.CandidateIntents})

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
			return fmt.Errorf("classifier server error: %s", body)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("classifier rejected request: status %d", resp.StatusCode))
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return fmt.Errorf("decode classifier response: %w", err)
		}
		return nil
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = a.maxRetry
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return "", err
	}
	if len(parsed.Labels) == 0 {
		return "", fmt.Errorf("classifier returned no labels")
	}
	return parsed.Labels[0].Label, nil
}
