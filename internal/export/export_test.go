package export

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

func sampleResult() models.JobResult {
	return models.JobResult{
		Title:     "Weekly Sync",
		Summary:   "- Budget approved\n- Launch moved to **May**",
		Sentiment: models.Sentiment{Pos: 0.6, Neu: 0.3, Neg: 0.1},
		Transcript: []models.LabeledTranscriptItem{
			{Start: 0, End: 2.5, Speaker: "Speaker 1", Text: "Welcome everyone."},
			{Start: 2.5, End: 65.125, Speaker: "Speaker 2", Text: "Thanks, café is ready."},
			{Start: 65.125, End: 66, Speaker: "Speaker 1", Text: "   "},
		},
		Chapters: []models.ChapterSpan{
			{Title: "Intro", Start: 0, End: 2.5},
			{Title: "Budget", Start: 2.5, End: 66},
		},
	}
}

func TestSRTTime(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{65.125, "00:01:05,125"},
		{3723.0004, "01:02:03,000"},
		{-1, "00:00:00,000"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := srtTime(tt.in); got != tt.want {
				t.Errorf("srtTime(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSRT(t *testing.T) {
	got := SRT(sampleResult().Transcript)
	want := "1\n00:00:00,000 --> 00:00:02,500\nSpeaker 1: Welcome everyone.\n\n" +
		"2\n00:00:02,500 --> 00:01:05,125\nSpeaker 2: Thanks, café is ready.\n\n"
	if got != want {
		t.Errorf("SRT() = %q, want %q", got, want)
	}
}

func TestMarkdown(t *testing.T) {
	got := Markdown(sampleResult())
	for _, want := range []string{
		"# Weekly Sync\n",
		"## Summary\n\n- Budget approved\n- Launch moved to **May**\n",
		"- **Positive:** 60%",
		"1. **Intro** (00:00 - 00:02)",
		"2. **Budget** (00:02 - 01:06)",
		"## Speakers\n\n### Speaker 1\n\nWelcome everyone.\n\n### Speaker 2\n\nThanks, café is ready.\n\n## Transcript",
		"**[00:02] Speaker 2:** Thanks, café is ready.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Markdown() missing %q:\n%s", want, got)
		}
	}
	if Markdown(sampleResult()) != got {
		t.Error("Markdown() is not deterministic")
	}
}

func TestMarkdownWithoutChapters(t *testing.T) {
	res := sampleResult()
	res.Chapters = nil
	res.Title = ""
	got := Markdown(res)
	if strings.Contains(got, "## Chapters") {
		t.Errorf("unexpected chapters section:\n%s", got)
	}
	if !strings.HasPrefix(got, "# Transcription Report\n") {
		t.Errorf("missing default title:\n%s", got)
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		format      string
		contentType string
		prefix      string
	}{
		{"srt", "application/x-subrip", "1\n"},
		{"md", "text/markdown; charset=utf-8", "# Weekly Sync"},
		{"PDF", "application/pdf", "%PDF-"},
		{"docx", contentTypes[FormatDOCX], "PK"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			data, ct, err := Render(tt.format, sampleResult())
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if ct != tt.contentType {
				t.Errorf("content type = %q, want %q", ct, tt.contentType)
			}
			if !bytes.HasPrefix(data, []byte(tt.prefix)) {
				t.Errorf("data starts with %q, want %q", data[:min(len(data), 8)], tt.prefix)
			}
		})
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	renderAll := func() map[string][]byte {
		out := make(map[string][]byte)
		for _, format := range Formats() {
			data, _, err := Render(format, sampleResult())
			if err != nil {
				t.Fatalf("Render(%s) error = %v", format, err)
			}
			out[format] = data
		}
		return out
	}

	first := renderAll()
	// document dates have one second resolution
	time.Sleep(1100 * time.Millisecond)
	second := renderAll()

	for _, format := range Formats() {
		if !bytes.Equal(first[format], second[format]) {
			t.Errorf("Render(%s) differs between calls (%d vs %d bytes)", format, len(first[format]), len(second[format]))
		}
	}
}

func TestPDFFixedDates(t *testing.T) {
	data, err := PDF(sampleResult())
	if err != nil {
		t.Fatalf("PDF() error = %v", err)
	}
	if !bytes.Contains(data, []byte("D:19700101000000")) {
		t.Error("PDF() should stamp a fixed creation date")
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	_, _, err := Render("txt", sampleResult())
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}

func TestDOCXContainsReport(t *testing.T) {
	data, err := DOCX(sampleResult())
	if err != nil {
		t.Fatalf("DOCX() error = %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("not a zip: %v", err)
	}
	var body string
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		raw, _ := io.ReadAll(rc)
		rc.Close()
		body = string(raw)
	}
	for _, want := range []string{"Weekly Sync", "Budget approved", "Welcome everyone."} {
		if !strings.Contains(body, want) {
			t.Errorf("document.xml missing %q", want)
		}
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		title, format, want string
	}{
		{"Weekly Sync", "pdf", "Weekly_Sync.pdf"},
		{"  ../etc/passwd ", "md", "etcpasswd.md"},
		{"", "srt", "transcript.srt"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FileName(tt.title, tt.format); got != tt.want {
				t.Errorf("FileName(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}
