// Package summary produces the issue and resolution summaries through the
// hosted instruction-following model.
package summary

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

	"callsight/internal/config"
	"callsight/internal/types"
)

const (
	issuePrompt      = "Summarize the main issue the customer is facing:\n%s"
	resolutionPrompt = "Summarize how the representative helped resolve the issue:\n%s"
)

type Client struct {
	url      string
	apiKey   string
	model    string
	maxRetry time.Duration
	http     *http.Client
	log      *logrus.Entry
}

func New(cfg config.Config, log *logrus.Entry) *Client {
	return &Client{
		url:      cfg.SummaryURL,
		apiKey:   cfg.OpenRouterKey,
		model:    cfg.SummaryModel,
		maxRetry: 20 * time.Second,
		http:     &http.Client{Timeout: cfg.CallTimeout},
		log:      log.WithField("module", "summary"),
	}
}

// CallSummaries aggregates the customer and representative turns and
// summarizes each blob independently. A failed call degrades to an empty
// string for that summary only.
func (c *Client) CallSummaries(ctx context.Context, t types.Table) (issue, resolution string) {
	roles := AssignRoles(t)

	issue = c.summarizeOrEmpty(ctx, "issue", fmt.Sprintf(issuePrompt, SpeakerText(t, roles.Customer)))
	resolution = c.summarizeOrEmpty(ctx, "resolution", fmt.Sprintf(resolutionPrompt, SpeakerText(t, roles.Representative)))
	return issue, resolution
}

func (c *Client) summarizeOrEmpty(ctx context.Context, kind, prompt string) string {
	out, err := c.complete(ctx, prompt)
	if err != nil {
		c.log.WithError(err).WithField("summary", kind).Warn("summarization failed, substituting empty summary")
		return ""
	}
	return out
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	payload, _ := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.0,
	})

	var content string
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			return fmt.Errorf("summary server error: %s", body)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("summary request rejected: status %d", resp.StatusCode))
		}
		var parsed chatResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return fmt.Errorf("decode summary response: %w", err)
		}
		if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
			return fmt.Errorf("summary response has no content")
		}
		content = parsed.Choices[0].Message.Content
		return nil
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.maxRetry
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return "", err
	}
	return content, nil
}
