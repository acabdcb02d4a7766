package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/gorilla/websocket"

	"LiveBoard/internal/export"
	"LiveBoard/internal/store"
)

type Options struct {
	UploadDir      string
	MaxFileBytes   int64
	MaxFiles       int
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Server is the HTTP face of a hub: websocket live query, REST and
// uploads.
type Server struct {
	hub      *Hub
	files    store.Files
	peers    *PeerManager
	opts     Options
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func New(hub *Hub, files store.Files, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = 10 << 20
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = 5
	}
	if opts.UploadDir == "" {
		opts.UploadDir = "./uploads"
	}

	s := &Server{
		hub:   hub,
		files: files,
		peers: NewPeerManager(opts.Logger),
		opts:  opts,
		log:   opts.Logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) Peers() *PeerManager { return s.peers }

// Handler routes every endpoint of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ws", s.HandleWebSocket)
	mux.HandleFunc("GET /health", s.handleHealth)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/boards/{id}/strokes", s.handleListStrokes)
	api.HandleFunc("DELETE /api/boards/{id}/strokes", s.handleClearBoard)
	api.HandleFunc("GET /api/boards/{id}/export.pdf", s.handleExportPDF)
	api.HandleFunc("GET /api/boards/{id}/thumbnail.png", s.handleThumbnail)

	api.HandleFunc("POST /api/upload", s.handleUpload)
	api.HandleFunc("GET /api/upload", s.handleListUploads)
	api.HandleFunc("GET /api/upload/health", s.handleUploadHealth)
	api.HandleFunc("DELETE /api/upload/{id}", s.handleDeleteUpload)
	api.HandleFunc("GET /api/files/{id}", s.handleDownload)
	api.HandleFunc("GET /api/files/{id}/info", s.handleFileInfo)

	mux.Handle("/api/", s.cors(api))
	return mux
}

// Close disconnects every websocket session.
func (s *Server) Close() {
	s.peers.CloseAll()
}

func (s *Server) originAllowed(origin string) bool {
	return slices.Contains(s.opts.AllowedOrigins, "*") || slices.Contains(s.opts.AllowedOrigins, origin)
}

// checkOrigin lets native clients, which send no Origin, through.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || s.originAllowed(origin)
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "liveboard",
		"peers":   s.peers.Count(),
	})
}

func (s *Server) handleListStrokes(w http.ResponseWriter, r *http.Request) {
	strokes, err := s.hub.Strokes(r.Context(), r.PathValue("id"))
	if err != nil {
		s.log.Error("[API] list strokes failed", "board", r.PathValue("id"), "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list strokes")
		return
	}
	writeJSON(w, http.StatusOK, strokes)
}

func (s *Server) handleClearBoard(w http.ResponseWriter, r *http.Request) {
	n, err := s.hub.DeleteBoard(r.Context(), r.PathValue("id"))
	if err != nil {
		s.log.Error("[API] clear failed", "board", r.PathValue("id"), "err", err)
		writeError(w, http.StatusInternalServerError, "failed to clear board")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	strokes, err := s.hub.Strokes(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list strokes")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".pdf"))
	if err := export.WritePDF(w, id, strokes); err != nil {
		s.log.Error("[API] pdf export failed", "board", id, "err", err)
	}
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	width := export.DefaultThumbnailWidth
	if v := r.URL.Query().Get("width"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "width must be a positive integer")
			return
		}
		width = n
	}

	strokes, err := s.hub.Strokes(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list strokes")
		return
	}
	img, err := export.Thumbnail(strokes, width)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render thumbnail")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	if err := export.WritePNG(w, img); err != nil {
		s.log.Error("[API] thumbnail failed", "board", id, "err", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case IsClientError(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
