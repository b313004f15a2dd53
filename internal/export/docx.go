package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

const (
	fontName = "Times New Roman"
	fontSize = 13
)

var (
	reHeading  = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	reBold     = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBullet   = regexp.MustCompile(`^[\-\*]\s+(.+)$`)
	reNumbered = regexp.MustCompile(`^\d+\.\s+(.+)$`)
)

// DOCX converts the markdown report into a styled Word document.
func DOCX(res models.JobResult) ([]byte, error) {
	dir, err := os.MkdirTemp("", "docx-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "report.docx")
	if err := markdownToDocx(Markdown(res), path); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// markdownToDocx writes headings, bullets, numbered items and **bold**
// spans; other lines become plain paragraphs.
func markdownToDocx(markdown, outputPath string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("new document: %w", err)
	}

	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == "---" {
			continue
		}

		p := doc.AddParagraph("")
		switch m := reHeading.FindStringSubmatch(trimmed); {
		case m != nil:
			addStyledRun(p, m[2], true, headingSize(len(m[1])))
		case reBullet.MatchString(trimmed):
			addRichText(p, "• "+reBullet.FindStringSubmatch(trimmed)[1])
		case reNumbered.MatchString(trimmed):
			addRichText(p, trimmed)
		default:
			addRichText(p, trimmed)
		}
	}

	if err := doc.SaveTo(outputPath); err != nil {
		return fmt.Errorf("save docx: %w", err)
	}
	return nil
}

func headingSize(level int) uint64 {
	switch level {
	case 1:
		return 16
	case 2:
		return 15
	case 3:
		return 14
	default:
		return fontSize
	}
}

func addStyledRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(cleanMarkdownInline(text)).Font(fontName).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}

func addRichText(p *docx.Paragraph, text string) {
	parts := reBold.Split(text, -1)
	matches := reBold.FindAllStringSubmatch(text, -1)

	for i, part := range parts {
		if part != "" {
			p.AddText(cleanMarkdownInline(part)).Font(fontName).Size(fontSize).Color("000000")
		}
		if i < len(matches) {
			p.AddText(cleanMarkdownInline(matches[i][1])).Font(fontName).Size(fontSize).Color("000000").Bold(true)
		}
	}
}

func cleanMarkdownInline(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.ReplaceAll(s, "`", "")
	return s
}
