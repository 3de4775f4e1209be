package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"callsight/internal/config"
	"callsight/internal/logger"
	"callsight/internal/types"
)

func writeTranscript(t *testing.T) string {
	t.Helper()
	content := "Speaker,Timestamp,Text\n" +
		"SPEAKER_00,0.00s - 4.10s,\"Hello, my refill order never arrived and I am upset.\"\n" +
		"SPEAKER_01,4.10s - 8.30s,\"Hi, happy to help you sort this out today.\"\n" +
		"SPEAKER_00,8.30s - 12.00s,\"This is terrible, I have been waiting two weeks.\"\n" +
		"SPEAKER_01,12.00s - 16.40s,\"Great news, I have reshipped it with express delivery. Goodbye!\"\n"
	path := filepath.Join(t.TempDir(), "call.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func fakeIntentServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		label := "Provide_Information"
		switch {
		case strings.Contains(req.Text, "Hello") || strings.Contains(req.Text, "Hi,"):
			label = "Greeting"
		case strings.Contains(req.Text, "Goodbye"):
			label = "Close_Conversation"
		case strings.Contains(req.Text, "terrible"):
			label = "Express_Issue"
		}
		fmt.Fprintf(w, `{"labels":[{"label":%q,"score":0.88}]}`, label)
	}))
}

func fakeSentimentServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		label := "NEUTRAL"
		switch {
		case strings.Contains(req.Text, "happy") || strings.Contains(req.Text, "Great"):
			label = "POSITIVE"
		case strings.Contains(req.Text, "upset") || strings.Contains(req.Text, "terrible"):
			label = "NEGATIVE"
		}
		fmt.Fprintf(w, `{"label":%q,"score":0.95}`, label)
	}))
}

func fakeSummaryServer(t *testing.T, fail bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			http.Error(w, "model unavailable", http.StatusBadRequest)
			return
		}
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		content := "The customer's refill order was delayed two weeks."
		if strings.Contains(req.Messages[0].Content, "representative") {
			content = "The representative reshipped the order with express delivery."
		}
		fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, content)
	}))
}

func runPipeline(t *testing.T, summaryFails bool) (*Result, string) {
	t.Helper()
	intentSrv := fakeIntentServer(t)
	defer intentSrv.Close()
	sentimentSrv := fakeSentimentServer(t)
	defer sentimentSrv.Close()
	summarySrv := fakeSummaryServer(t, summaryFails)
	defer summarySrv.Close()

	outDir := t.TempDir()
	cfg := config.Config{
		OpenRouterKey: "test-key",
		SummaryURL:    summarySrv.URL,
		SummaryModel:  "test-model",
		IntentURL:     intentSrv.URL,
		SentimentURL:  sentimentSrv.URL,
		CallTimeout:   5 * time.Second,
		Workers:       2,
	}

	p := New(cfg, logger.New(), "call_test")
	res, err := p.Run(context.Background(), Input{
		CSVPath:        writeTranscript(t),
		CallID:         "call_test",
		Representative: "Dana",
		OutDir:         outDir,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res, outDir
}

func TestRunEndToEnd(t *testing.T) {
	res, outDir := runPipeline(t, false)

	if len(res.Table) != 4 {
		t.Fatalf("table rows = %d, want 4", len(res.Table))
	}
	for i, u := range res.Table {
		if u.Speaker == "" || u.Text == "" || u.Intent == "" || u.IntentCategory == "" || u.Sentiment == "" {
			t.Errorf("row %d not fully annotated: %+v", i, u)
		}
	}
	if res.Table[0].Intent != "Greeting" || res.Table[2].Intent != "Express_Issue" {
		t.Errorf("intents = %q, %q", res.Table[0].Intent, res.Table[2].Intent)
	}
	if res.Table[0].Sentiment != types.SentimentNegative || res.Table[1].Sentiment != types.SentimentPositive {
		t.Errorf("sentiments = %q, %q", res.Table[0].Sentiment, res.Table[1].Sentiment)
	}

	if len(res.ChartPaths) < 2 {
		t.Errorf("charts = %v, want at least the distribution and timeline charts", res.ChartPaths)
	}
	for _, c := range res.ChartPaths {
		if _, err := os.Stat(c); err != nil {
			t.Errorf("chart %s: %v", c, err)
		}
	}

	if res.AnnotatedCSV == "" {
		t.Error("annotated csv not written")
	} else if _, err := os.Stat(res.AnnotatedCSV); err != nil {
		t.Errorf("annotated csv: %v", err)
	}

	wantReport := filepath.Join(outDir, "reports", "html", "call_test.html")
	if res.ReportPath != wantReport {
		t.Errorf("report = %q, want %q", res.ReportPath, wantReport)
	}
	body, err := os.ReadFile(res.ReportPath)
	if err != nil {
		t.Fatal(err)
	}
	html := string(body)
	if !strings.Contains(html, "refill order was delayed") || !strings.Contains(html, "reshipped the order") {
		t.Error("report missing summaries")
	}
	if !strings.Contains(html, "Dana") {
		t.Error("report missing representative name")
	}
}

func TestRunSummarizerFailureDegrades(t *testing.T) {
	res, _ := runPipeline(t, true)

	body, err := os.ReadFile(res.ReportPath)
	if err != nil {
		t.Fatal(err)
	}
	html := string(body)
	if !strings.Contains(html, "Issue summary unavailable.") || !strings.Contains(html, "Resolution summary unavailable.") {
		t.Error("failed summaries should degrade to placeholders, not abort the run")
	}
	// the rest of the pipeline still completed
	if len(res.Table) != 4 || len(res.ChartPaths) < 2 {
		t.Errorf("pipeline did not complete around the summary failure: %+v", res)
	}
}

func TestRunRejectsMissingInput(t *testing.T) {
	p := New(config.Config{CallTimeout: time.Second, Workers: 1}, logger.New(), "call_x")
	if _, err := p.Run(context.Background(), Input{CallID: "call_x"}); err == nil {
		t.Fatal("expected error when neither transcript nor audio is provided")
	}
}

func TestRunPropagatesLoaderErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	if err := os.WriteFile(path, []byte("Speaker,Timestamp\nSPEAKER_00,0.00s - 1.00s\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := New(config.Config{CallTimeout: time.Second, Workers: 1}, logger.New(), "call_x")
	_, err := p.Run(context.Background(), Input{CSVPath: path, CallID: "call_x"})
	if err == nil || !strings.Contains(err.Error(), "Text") {
		t.Fatalf("err = %v, want missing-column error naming Text", err)
	}
}
