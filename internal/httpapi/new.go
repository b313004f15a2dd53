// Package httpapi exposes the processor over HTTP with JSON bodies.
package httpapi

import (
	"net/http"

	"github.com/nguyentantai21042004/insight-flow/internal/ingest"
	"github.com/nguyentantai21042004/insight-flow/internal/logger"
	"github.com/nguyentantai21042004/insight-flow/internal/processor"
)

type implHandler struct {
	proc      processor.Processor
	ingestor  ingest.Ingestor
	logger    logger.Logger
	maxUpload int64
}

// New registers the routes on a fresh mux.
func New(proc processor.Processor, ingestor ingest.Ingestor, maxUploadMB int64, log logger.Logger) http.Handler {
	h := &implHandler{
		proc:      proc,
		ingestor:  ingestor,
		logger:    log,
		maxUpload: maxUploadMB << 20,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", h.handleUpload)
	mux.HandleFunc("POST /process-url", h.handleProcessURL)
	mux.HandleFunc("GET /status/{id}", h.handleStatus)
	mux.HandleFunc("GET /api/result/{id}", h.handleResult)
	mux.HandleFunc("GET /download/{format}/{id}", h.handleDownload)
	mux.HandleFunc("POST /api/translate-summary", h.handleTranslate)
	mux.HandleFunc("GET /jobs", h.handleList)
	mux.HandleFunc("DELETE /jobs/{id}", h.handleEvict)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	return mux
}
