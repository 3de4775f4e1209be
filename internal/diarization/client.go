// Package diarization talks to the hosted speaker-diarization service:
// upload the recording, poll the job, fetch speaker-labeled utterances.
package diarization

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"callsight/internal/config"
	"callsight/internal/types"
)

// The three failure classes need different operator remediation, so they
// are distinct sentinels.
var (
	ErrAuth    = errors.New("diarization: authentication failed")
	ErrService = errors.New("diarization: service failed to process audio")
	ErrNetwork = errors.New("diarization: service unreachable")
)

type Client struct {
	baseURL      string
	apiKey       string
	pollInterval time.Duration
	pollAttempts int
	maxRetry     time.Duration
	http         *http.Client
	log          *logrus.Entry
}

func New(cfg config.Config, log *logrus.Entry) *Client {
	return &Client{
		baseURL:      cfg.DiarizationURL,
		apiKey:       cfg.DiarizationKey,
		pollInterval: 1500 * time.Millisecond,
		pollAttempts: 40,
		maxRetry:     12 * time.Second,
		http:         &http.Client{Timeout: cfg.CallTimeout},
		log:          log.WithField("module", "diarization"),
	}
}

type job struct {
	ID         string `json:"id"`
	Status     string `json:"status"` // queued | processing | completed | error
	Error      string `json:"error,omitempty"`
	Utterances []struct {
		Speaker string `json:"speaker"`
		Start   int64  `json:"start"` // milliseconds
		End     int64  `json:"end"`
		Text    string `json:"text"`
	} `json:"utterances,omitempty"`
}

// Diarize uploads the audio file and returns the speaker-attributed
// utterance table in chronological order, times in seconds at two-decimal
// precision. Any failure here is fatal to the run.
func (c *Client) Diarize(ctx context.Context, audioPath string) (types.Table, error) {
	id, err := c.upload(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	c.log.WithField("job_id", id).Info("diarization job submitted")

	j, err := c.poll(ctx, id)
	if err != nil {
		return nil, err
	}

	out := make(types.Table, 0, len(j.Utterances))
	for _, u := range j.Utterances {
		out = append(out, types.Utterance{
			Speaker: u.Speaker,
			Start:   msToSeconds(u.Start),
			End:     msToSeconds(u.End),
			Text:    u.Text,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no utterances detected", ErrService)
	}
	return out, nil
}

func (c *Client) upload(ctx context.Context, audioPath string) (string, error) {
	fd, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio file: %w", err)
	}
	defer fd.Close()

	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	fw, err := w.CreateFormFile("audio", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(fw, fd); err != nil {
		return "", fmt.Errorf("read audio file: %w", err)
	}
	_ = w.WriteField("speaker_labels", "true")
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	body := b.Bytes()

	var j job
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcripts", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", w.FormDataContentType())
		c.authorize(req)
		return c.doJSON(req, &j)
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.maxRetry
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return "", err
	}
	if j.ID == "" {
		return "", fmt.Errorf("%w: empty job id", ErrService)
	}
	return j.ID, nil
}

func (c *Client) poll(ctx context.Context, id string) (*job, error) {
	for i := 0; i < c.pollAttempts; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrNetwork, ctx.Err())
		case <-time.After(c.pollInterval):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transcripts/"+id, nil)
		if err != nil {
			return nil, err
		}
		c.authorize(req)
		var j job
		if err := c.doJSON(req, &j); err != nil {
			if errors.Is(err, ErrAuth) {
				return nil, err
			}
			c.log.WithError(err).Warn("diarization poll failed")
			continue
		}
		switch j.Status {
		case "completed":
			return &j, nil
		case "error", "failed":
			return nil, fmt.Errorf("%w: %s", ErrService, j.Error)
		}
	}
	return nil, fmt.Errorf("%w: job %s did not complete", ErrService, id)
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *Client) doJSON(req *http.Request, target any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return backoff.Permanent(fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode))
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d: %s", ErrService, resp.StatusCode, body)
	case resp.StatusCode >= 400:
		return backoff.Permanent(fmt.Errorf("%w: status %d: %s", ErrService, resp.StatusCode, body))
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrService, err)
	}
	return nil
}

func msToSeconds(ms int64) float64 {
	return math.Round(float64(ms)/10) / 100
}
