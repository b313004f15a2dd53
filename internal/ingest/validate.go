package ingest

import (
	"net/url"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

var allowedExtensions = map[string]bool{
	"mp3": true, "wav": true, "mp4": true, "mkv": true, "mov": true,
	"flv": true, "aac": true, "m4a": true, "webm": true, "ogg": true, "flac": true,
}

var reUnsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// AllowedExtension reports whether name has a supported media extension.
func AllowedExtension(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	return allowedExtensions[ext]
}

// Extensions lists the accepted extensions, sorted.
func Extensions() []string {
	out := make([]string, 0, len(allowedExtensions))
	for ext := range allowedExtensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// SafeName reduces an uploaded file name to a base name without path or
// shell-hostile characters.
func SafeName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.Trim(reUnsafeName.ReplaceAllString(base, "_"), "._")
	if base == "" {
		return "upload"
	}
	return base
}

// ValidateSource checks a submission before a job is created.
func ValidateSource(src models.Source) error {
	hasURL := strings.TrimSpace(src.URL) != ""
	hasFile := strings.TrimSpace(src.FilePath) != ""

	switch {
	case !hasURL && !hasFile:
		return models.Validationf("a file or a url is required")
	case hasURL && hasFile:
		return models.Validationf("give either a file or a url, not both")
	case hasURL:
		u, err := url.Parse(strings.TrimSpace(src.URL))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return models.Validationf("url must be an absolute http(s) url")
		}
	default:
		name := src.FileName
		if name == "" {
			name = src.FilePath
		}
		if !AllowedExtension(name) {
			return models.Validationf("unsupported file type %q, allowed: %s", filepath.Ext(name), strings.Join(Extensions(), ", "))
		}
	}
	return nil
}
