package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"LiveBoard/internal/store"
)

// allowedTypes maps the accepted file extensions to their MIME type.
var allowedTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".pdf":  "application/pdf",
	".json": "application/json",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// mimeType guesses the type of a file from its name. ok is false for
// types uploads do not accept.
func mimeType(name string) (typ string, ok bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := allowedTypes[ext]; ok {
		return t, true
	}
	t, _, err := mime.ParseMediaType(mime.TypeByExtension(ext))
	if err != nil || t == "" {
		return "application/octet-stream", false
	}
	return t, false
}

// validUID rejects ids that could escape the upload directory.
func validUID(uid string) bool {
	return uid != "" && uid != "." && uid != ".." && !strings.ContainsAny(uid, `/\`)
}

type uploadResponse struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	Type    string `json:"type"`
	Success bool   `json:"success"`
}

type fileInfo struct {
	store.FileRecord
	URL string `json:"download_url"`
}

func fileURL(id string) string {
	return "/api/files/" + id
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// room for the multipart framing around a file of the maximum size
	limit := s.opts.MaxFileBytes + 1<<20
	if r.ContentLength > limit {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds the %d MB limit", s.opts.MaxFileBytes>>20))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds the %d MB limit", s.opts.MaxFileBytes>>20))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	uid := r.FormValue("uid")
	if !validUID(uid) {
		writeError(w, http.StatusBadRequest, "uid is required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if header.Size > s.opts.MaxFileBytes {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds the %d MB limit", s.opts.MaxFileBytes>>20))
		return
	}
	name := filepath.Base(header.Filename)
	if name == "." || name == string(filepath.Separator) {
		name = "unnamed"
	}
	typ, ok := mimeType(name)
	if !ok {
		writeError(w, http.StatusUnsupportedMediaType, fmt.Sprintf("file type %q not allowed", typ))
		return
	}

	existing, err := s.files.ListFiles(r.Context(), uid)
	if err != nil {
		s.log.Error("[UPLOAD] listing failed", "uid", uid, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to check upload limit")
		return
	}
	if len(existing) >= s.opts.MaxFiles {
		writeError(w, http.StatusTooManyRequests, fmt.Sprintf("upload limit reached, maximum %d files per user", s.opts.MaxFiles))
		return
	}

	id := uuid.NewString()
	dir := filepath.Join(s.opts.UploadDir, uid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.log.Error("[UPLOAD] mkdir failed", "dir", dir, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}
	path := filepath.Join(dir, id+"_"+name)
	size, err := writeFile(path, file)
	if err != nil {
		s.log.Error("[UPLOAD] write failed", "path", path, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	rec := store.FileRecord{
		ID:         id,
		UID:        uid,
		Name:       name,
		Size:       size,
		Type:       typ,
		Path:       path,
		UploadedAt: time.Now().UTC(),
	}
	if err := s.files.SaveFile(r.Context(), rec); err != nil {
		os.Remove(path)
		s.log.Error("[UPLOAD] metadata failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}
	s.log.Info("[UPLOAD] stored", "id", id, "uid", uid, "name", name, "size", size)

	writeJSON(w, http.StatusOK, uploadResponse{
		ID:      id,
		URL:     fileURL(id),
		Name:    name,
		Size:    size,
		Type:    typ,
		Success: true,
	})
}

func writeFile(path string, src io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return 0, err
	}
	return n, nil
}

func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("uid")
	if !validUID(uid) {
		writeError(w, http.StatusBadRequest, "uid is required")
		return
	}
	recs, err := s.files.ListFiles(r.Context(), uid)
	if err != nil {
		s.log.Error("[UPLOAD] listing failed", "uid", uid, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to retrieve uploaded files")
		return
	}
	files := make([]fileInfo, 0, len(recs))
	for _, rec := range recs {
		files = append(files, fileInfo{FileRecord: rec, URL: fileURL(rec.ID)})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"files":       files,
		"total_count": len(files),
		"max_files":   s.opts.MaxFiles,
	})
}

func (s *Server) handleDeleteUpload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	uid := r.URL.Query().Get("uid")
	rec, err := s.files.GetFile(r.Context(), id)
	if err != nil || rec.UID != uid {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	if err := os.Remove(rec.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("[UPLOAD] removing file failed, deleting metadata anyway", "path", rec.Path, "err", err)
	}
	if err := s.files.DeleteFile(r.Context(), id); err != nil {
		writeError(w, statusOf(err), "failed to delete file")
		return
	}
	s.log.Info("[UPLOAD] deleted", "id", id, "uid", uid)
	writeJSON(w, http.StatusOK, map[string]string{"message": "file deleted", "file_id": id})
}

func (s *Server) handleUploadHealth(w http.ResponseWriter, r *http.Request) {
	types := make([]string, 0, len(allowedTypes))
	seen := make(map[string]bool)
	for _, t := range allowedTypes {
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service":            "upload-api",
		"status":             "healthy",
		"max_files_per_user": s.opts.MaxFiles,
		"max_file_size_mb":   s.opts.MaxFileBytes >> 20,
		"allowed_mime_types": types,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	rec, err := s.files.GetFile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, statusOf(err), "file not found")
		return
	}
	f, err := os.Open(rec.Path)
	if err != nil {
		s.log.Error("[UPLOAD] file missing on disk", "id", rec.ID, "path", rec.Path, "err", err)
		writeError(w, http.StatusNotFound, "file not found in storage")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", rec.Type)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.Name))
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-File-ID", rec.ID)
	w.Header().Set("X-Uploaded-By", rec.UID)
	http.ServeContent(w, r, rec.Name, rec.UploadedAt, f)
}

func (s *Server) handleFileInfo(w http.ResponseWriter, r *http.Request) {
	rec, err := s.files.GetFile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, statusOf(err), "file not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":          rec.ID,
		"filename":    rec.Name,
		"file_size":   rec.Size,
		"mime_type":   rec.Type,
		"uploaded_at": rec.UploadedAt,
		"uploaded_by": rec.UID,
	})
}
