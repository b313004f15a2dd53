// Package translator translates finished summaries on demand. It never
// reads or writes job state.
package translator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nguyentantai21042004/insight-flow/internal/llm"
	"github.com/nguyentantai21042004/insight-flow/internal/logger"
	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

// Languages lists the supported target codes and their English names.
var Languages = map[string]string{
	"ar": "Arabic",
	"bn": "Bengali",
	"de": "German",
	"en": "English",
	"es": "Spanish",
	"fa": "Persian",
	"fr": "French",
	"gu": "Gujarati",
	"hi": "Hindi",
	"id": "Indonesian",
	"it": "Italian",
	"ja": "Japanese",
	"kn": "Kannada",
	"ko": "Korean",
	"ml": "Malayalam",
	"mr": "Marathi",
	"ms": "Malay",
	"nl": "Dutch",
	"pl": "Polish",
	"pt": "Portuguese",
	"ru": "Russian",
	"ta": "Tamil",
	"te": "Telugu",
	"th": "Thai",
	"tr": "Turkish",
	"vi": "Vietnamese",
	"zh": "Chinese",
}

// aliases folds codes the transcriber may report onto supported ones.
var aliases = map[string]string{
	"ur": "hi",
}

const translatePrompt = `Translate the text below from %s to %s.
Keep the markdown structure. Reply with the translation only.

Text:
%s`

// Translator translates text between supported languages.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

type implTranslator struct {
	clients       []llm.Client
	defaultSource string
	logger        logger.Logger
}

// New creates a Translator that tries clients in order.
func New(clients []llm.Client, defaultSource string, log logger.Logger) Translator {
	if defaultSource == "" {
		defaultSource = "en"
	}
	return &implTranslator{
		clients:       clients,
		defaultSource: defaultSource,
		logger:        log,
	}
}

// Normalize lowercases a code, strips any region and applies aliases.
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	if alias, ok := aliases[code]; ok {
		return alias
	}
	return code
}

// Codes returns the supported language codes, sorted.
func Codes() []string {
	codes := make([]string, 0, len(Languages))
	for code := range Languages {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func invalid(format string, args ...any) error {
	return models.NewStageError(models.StageTranslation, fmt.Sprintf(format, args...), models.ErrValidation)
}

func (t *implTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", invalid("text is empty")
	}
	if strings.TrimSpace(targetLang) == "" {
		return "", invalid("target language is required")
	}

	target := Normalize(targetLang)
	if _, ok := Languages[target]; !ok {
		return "", invalid("language %q is not supported, use one of %s", targetLang, strings.Join(Codes(), ", "))
	}

	source := Normalize(sourceLang)
	if source == "" {
		source = Normalize(t.defaultSource)
	}
	if _, ok := Languages[source]; !ok {
		return "", invalid("source language %q is not supported", sourceLang)
	}

	if source == target {
		t.logger.Debug(ctx, "Source and target are both %s, skipping translation", target)
		return text, nil
	}

	prompt := fmt.Sprintf(translatePrompt, Languages[source], Languages[target], text)

	var errs []error
	for _, c := range t.clients {
		out, err := c.Generate(ctx, prompt)
		if err == nil && strings.TrimSpace(out) == "" {
			err = errors.New("empty translation")
		}
		if err != nil {
			t.logger.Warn(ctx, "Translation via %s failed: %v", c.Name(), err)
			errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		return strings.TrimSpace(out), nil
	}

	if len(errs) == 0 {
		errs = append(errs, errors.New("no translation providers configured"))
	}
	return "", models.NewStageError(models.StageTranslation, "all translation providers failed", errors.Join(errs...))
}
