package summarizer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nguyentantai21042004/insight-flow/internal/llm"
	"github.com/nguyentantai21042004/insight-flow/internal/logger"
	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

const longText = "Speaker 1: We reviewed the quarterly plan and agreed on the next release date for the mobile app."

type fakeProvider struct {
	name string

	mu             sync.Mutex
	summaryCalls   int
	sentimentCalls int

	summary      string
	summaryErr   error
	sentiment    models.Sentiment
	sentimentErr error
	// failFirst makes only the first n summary calls return summaryErr
	failFirst int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) GenerateSummary(ctx context.Context, text string) (string, error) {
	f.mu.Lock()
	f.summaryCalls++
	n := f.summaryCalls
	f.mu.Unlock()

	if f.summaryErr != nil && (f.failFirst == 0 || n <= f.failFirst) {
		return "", f.summaryErr
	}
	return f.summary, nil
}

func (f *fakeProvider) GenerateSentiment(ctx context.Context, text string) (models.Sentiment, error) {
	f.mu.Lock()
	f.sentimentCalls++
	f.mu.Unlock()
	if f.sentimentErr != nil {
		return models.Sentiment{}, f.sentimentErr
	}
	return f.sentiment, nil
}

type sleepRecorder struct {
	waits []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return ctx.Err()
}

func newTestCoordinator(opts Options, providers ...Provider) (*implCoordinator, *sleepRecorder) {
	c := New(providers, opts, logger.Discard()).(*implCoordinator)
	rec := &sleepRecorder{}
	c.sleep = rec.sleep
	return c, rec
}

func transient(msg string) error {
	return llm.NewError("fake", llm.Transient, errors.New(msg))
}

func permanent(msg string) error {
	return llm.NewError("fake", llm.Permanent, errors.New(msg))
}

func TestSummaryFallsThroughAfterRetries(t *testing.T) {
	timingOut := &fakeProvider{name: "a", summaryErr: context.DeadlineExceeded}
	ok := &fakeProvider{name: "b", summary: "the summary"}
	c, rec := newTestCoordinator(Options{MaxAttempts: 3, Backoff: time.Second, MaxBackoff: 3 * time.Second}, timingOut, ok)

	got, err := c.Summary(context.Background(), longText)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if got != "the summary" {
		t.Errorf("Summary() = %q", got)
	}
	if timingOut.summaryCalls != 3 {
		t.Errorf("first provider calls = %d, want 3", timingOut.summaryCalls)
	}
	if ok.summaryCalls != 1 {
		t.Errorf("second provider calls = %d, want 1", ok.summaryCalls)
	}

	want := []time.Duration{time.Second, 2 * time.Second}
	if len(rec.waits) != len(want) {
		t.Fatalf("waits = %v, want %v", rec.waits, want)
	}
	for i := range want {
		if rec.waits[i] != want[i] {
			t.Errorf("wait %d = %v, want %v", i, rec.waits[i], want[i])
		}
	}
}

func TestBackoffIsCapped(t *testing.T) {
	p := &fakeProvider{name: "a", summaryErr: transient("503")}
	c, rec := newTestCoordinator(Options{MaxAttempts: 4, Backoff: time.Second, MaxBackoff: 3 * time.Second}, p)

	if _, err := c.Summary(context.Background(), longText); err == nil {
		t.Fatal("Summary() error = nil")
	}
	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}
	for i := range want {
		if rec.waits[i] != want[i] {
			t.Errorf("wait %d = %v, want %v", i, rec.waits[i], want[i])
		}
	}
}

func TestPermanentErrorSkipsRetries(t *testing.T) {
	bad := &fakeProvider{name: "a", summaryErr: permanent("invalid api key")}
	ok := &fakeProvider{name: "b", summary: "done"}
	c, rec := newTestCoordinator(Options{MaxAttempts: 3}, bad, ok)

	if _, err := c.Summary(context.Background(), longText); err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if bad.summaryCalls != 1 {
		t.Errorf("permanent failure retried %d times", bad.summaryCalls)
	}
	if len(rec.waits) != 0 {
		t.Errorf("waits = %v, want none", rec.waits)
	}
}

func TestTransientRecovers(t *testing.T) {
	flaky := &fakeProvider{name: "a", summary: "ok", summaryErr: transient("429"), failFirst: 1}
	c, _ := newTestCoordinator(Options{MaxAttempts: 2}, flaky)

	got, err := c.Summary(context.Background(), longText)
	if err != nil || got != "ok" {
		t.Fatalf("Summary() = %q, %v", got, err)
	}
	if flaky.summaryCalls != 2 {
		t.Errorf("calls = %d, want 2", flaky.summaryCalls)
	}
}

func TestSummaryExhaustion(t *testing.T) {
	a := &fakeProvider{name: "a", summaryErr: transient("503")}
	b := &fakeProvider{name: "b", summaryErr: permanent("bad request")}
	c, _ := newTestCoordinator(Options{MaxAttempts: 2}, a, b)

	_, err := c.Summary(context.Background(), longText)
	if !errors.Is(err, models.ErrSummarization) {
		t.Fatalf("Summary() error = %v, want summarization error", err)
	}
	var se *models.StageError
	if !errors.As(err, &se) || se.Stage != models.StageSummarization {
		t.Fatalf("error = %#v", err)
	}
	if !strings.Contains(err.Error(), "503") || !strings.Contains(err.Error(), "bad request") {
		t.Errorf("error does not carry provider causes: %v", err)
	}
}

func TestSummaryShortText(t *testing.T) {
	p := &fakeProvider{name: "a", summary: "x"}
	c, _ := newTestCoordinator(Options{MaxAttempts: 2}, p)

	got, err := c.Summary(context.Background(), "Speaker 1: hi")
	if err != nil || got != TooShortSummary {
		t.Fatalf("Summary() = %q, %v", got, err)
	}
	if p.summaryCalls != 0 {
		t.Errorf("provider called %d times for short text", p.summaryCalls)
	}
}

func TestEmptySummaryIsRetried(t *testing.T) {
	blank := &fakeProvider{name: "a", summary: "   "}
	ok := &fakeProvider{name: "b", summary: "real"}
	c, _ := newTestCoordinator(Options{MaxAttempts: 2}, blank, ok)

	got, err := c.Summary(context.Background(), longText)
	if err != nil || got != "real" {
		t.Fatalf("Summary() = %q, %v", got, err)
	}
	if blank.summaryCalls != 2 {
		t.Errorf("blank provider calls = %d, want 2", blank.summaryCalls)
	}
}

func TestCallTimeoutBoundsAttempt(t *testing.T) {
	hang := &hangingProvider{}
	ok := &fakeProvider{name: "b", summary: "fast"}
	c, _ := newTestCoordinator(Options{MaxAttempts: 2, CallTimeout: 20 * time.Millisecond}, hang, ok)

	got, err := c.Summary(context.Background(), longText)
	if err != nil || got != "fast" {
		t.Fatalf("Summary() = %q, %v", got, err)
	}
	if hang.calls != 2 {
		t.Errorf("hanging provider calls = %d, want 2", hang.calls)
	}
}

type hangingProvider struct{ calls int }

func (h *hangingProvider) Name() string { return "hang" }

func (h *hangingProvider) GenerateSummary(ctx context.Context, text string) (string, error) {
	h.calls++
	<-ctx.Done()
	return "", ctx.Err()
}

func (h *hangingProvider) GenerateSentiment(ctx context.Context, text string) (models.Sentiment, error) {
	<-ctx.Done()
	return models.Sentiment{}, ctx.Err()
}

func TestSentimentNormalizedAndIndependent(t *testing.T) {
	// the summary fails everywhere but sentiment still comes back
	p := &fakeProvider{
		name:       "a",
		summaryErr: permanent("nope"),
		sentiment:  models.Sentiment{Pos: 2, Neu: 1, Neg: 1},
	}
	c, _ := newTestCoordinator(Options{MaxAttempts: 2}, p)

	summary, sentiment, err := c.Summarize(context.Background(), longText)
	if !errors.Is(err, models.ErrSummarization) {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary != "" {
		t.Errorf("summary = %q, want empty", summary)
	}
	// Pos clamps to 1 before rescaling
	want := models.Sentiment{Pos: 1.0 / 3, Neu: 1.0 / 3, Neg: 1.0 / 3}
	if !closeSentiment(sentiment, want) {
		t.Errorf("sentiment = %+v, want %+v", sentiment, want)
	}
}

func TestSummarizeSentimentDegradesToNeutral(t *testing.T) {
	p := &fakeProvider{name: "a", summary: "fine", sentimentErr: permanent("malformed")}
	c, _ := newTestCoordinator(Options{MaxAttempts: 2}, p)

	summary, sentiment, err := c.Summarize(context.Background(), longText)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary != "fine" {
		t.Errorf("summary = %q", summary)
	}
	if sentiment != models.NeutralSentiment() {
		t.Errorf("sentiment = %+v, want neutral", sentiment)
	}
}

func TestSentimentExhaustion(t *testing.T) {
	p := &fakeProvider{name: "a", sentimentErr: transient("timeout")}
	c, _ := newTestCoordinator(Options{MaxAttempts: 2}, p)

	_, err := c.Sentiment(context.Background(), longText)
	var se *models.StageError
	if !errors.As(err, &se) || se.Stage != models.StageSentiment {
		t.Fatalf("Sentiment() error = %v", err)
	}
	if p.sentimentCalls != 2 {
		t.Errorf("calls = %d, want 2", p.sentimentCalls)
	}
}

func TestCancelledContextStops(t *testing.T) {
	a := &fakeProvider{name: "a", summary: "x"}
	c, _ := newTestCoordinator(Options{MaxAttempts: 2}, a)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Summary(ctx, longText); !errors.Is(err, context.Canceled) {
		t.Fatalf("Summary() error = %v, want canceled", err)
	}
	if a.summaryCalls != 0 {
		t.Errorf("calls = %d after cancel", a.summaryCalls)
	}
}

func closeSentiment(a, b models.Sentiment) bool {
	const eps = 1e-9
	d := func(x, y float64) bool { return x-y < eps && y-x < eps }
	return d(a.Pos, b.Pos) && d(a.Neu, b.Neu) && d(a.Neg, b.Neg)
}
