package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"argo-assistant/internal/core"
	"argo-assistant/internal/extract"
	"argo-assistant/pkg"
)

// Server bundles together the dependencies required by HTTP handlers.  It
// implements http.Handler so it can be passed to http.ListenAndServe.
type Server struct {
	Chat      *core.ChatService
	Extractor extract.Extractor
	Log       *slog.Logger
}

// NewServer constructs a Server.
func NewServer(chat *core.ChatService, extractor extract.Extractor, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{Chat: chat, Extractor: extractor, Log: log}
}

// ServeHTTP dispatches incoming requests based on the URL path.  Minimal
// routing logic is implemented here to keep dependencies light.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/chat" && r.Method == http.MethodPost:
		s.handleChat(w, r)
	case r.URL.Path == "/api/documents" && r.Method == http.MethodPost:
		s.handleDocument(w, r)
	case r.URL.Path == "/healthz" && r.Method == http.MethodGet:
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "ok")
	default:
		http.NotFound(w, r)
	}
}

// handleChat processes one user turn and returns the assistant's answer,
// with the report PDF inlined as base64 when the turn produced one.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req pkg.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	result, err := s.Chat.HandleMessage(r.Context(), req.ThreadID, req.Message)
	if err != nil {
		s.Log.Error("chat turn failed", "thread_id", req.ThreadID, "error", err)
		http.Error(w, "assistant unavailable", http.StatusBadGateway)
		return
	}
	resp := pkg.ChatResponse{ThreadID: result.ThreadID, Answer: result.Answer}
	if len(result.PDF) > 0 {
		resp.PDFBase64 = base64.StdEncoding.EncodeToString(result.PDF)
	}
	writeJSON(w, resp)
}

// handleDocument accepts an uploaded document, extracts its text and appends
// it to the thread.  Extraction failure is a warning, not an error: the
// response is still 200 and the thread is left untouched.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	threadID := r.FormValue("thread_id")
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	text, err := s.Extractor.Extract(header.Filename, file)
	if err != nil {
		s.Log.Warn("document extraction failed", "filename", header.Filename, "error", err)
		warning := "No pude leer el documento; el contexto anterior se mantiene."
		if errors.Is(err, extract.ErrUnsupported) {
			warning = "Formato de documento no soportado; el contexto anterior se mantiene."
		}
		writeJSON(w, pkg.UploadResponse{ThreadID: threadID, Warning: warning})
		return
	}

	threadID, err = s.Chat.AttachDocument(r.Context(), threadID, header.Filename, text)
	if err != nil {
		s.Log.Error("attach document failed", "filename", header.Filename, "error", err)
		http.Error(w, "assistant unavailable", http.StatusBadGateway)
		return
	}
	writeJSON(w, pkg.UploadResponse{ThreadID: threadID, Chars: len(text)})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
