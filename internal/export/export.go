// Package export renders a finished job result as a downloadable artifact.
package export

import (
	"fmt"
	"strings"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

const (
	FormatSRT      = "srt"
	FormatPDF      = "pdf"
	FormatDOCX     = "docx"
	FormatMarkdown = "md"
)

var contentTypes = map[string]string{
	FormatSRT:      "application/x-subrip",
	FormatPDF:      "application/pdf",
	FormatDOCX:     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	FormatMarkdown: "text/markdown; charset=utf-8",
}

// Formats lists the supported artifact formats.
func Formats() []string {
	return []string{FormatSRT, FormatPDF, FormatDOCX, FormatMarkdown}
}

// Supported reports whether format can be rendered.
func Supported(format string) bool {
	_, ok := contentTypes[strings.ToLower(strings.TrimSpace(format))]
	return ok
}

// Render returns the artifact bytes and content type for format.
func Render(format string, res models.JobResult) ([]byte, string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	contentType, ok := contentTypes[format]
	if !ok {
		return nil, "", models.Validationf("unsupported format %q (supported: %s)", format, strings.Join(Formats(), ", "))
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatSRT:
		data = []byte(SRT(res.Transcript))
	case FormatMarkdown:
		data = []byte(Markdown(res))
	case FormatPDF:
		data, err = PDF(res)
	case FormatDOCX:
		data, err = DOCX(res)
	}
	if err != nil {
		return nil, "", fmt.Errorf("render %s: %w", format, err)
	}
	return data, contentType, nil
}

// FileName builds a download name like "my_talk.pdf".
func FileName(title, format string) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		case r == ' ' || r == '_' || r == '.':
			return '_'
		}
		return -1
	}, strings.TrimSpace(title))
	base = strings.Trim(base, "_")
	if base == "" {
		base = "transcript"
	}
	return base + "." + format
}
