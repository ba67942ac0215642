package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/ziadkadry99/esp-finder/internal/sheet"
)

type uploadResponse struct {
	FilePath string   `json:"file_path"`
	Columns  []string `json:"columns"`
}

type processRequest struct {
	FilePath    string `json:"file_path"`
	EmailColumn string `json:"email_column"`
}

type processResponse struct {
	TaskID string `json:"task_id"`
}

type progressResponse struct {
	Progress float64 `json:"progress"`
}

type identifyRequest struct {
	Email string `json:"email"`
}

type identifyResponse struct {
	Email string `json:"email"`
	ESP   string `json:"esp"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// secureFilename reduces an uploaded name to a safe base name.
func secureFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.TrimLeft(name, "._")
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		// A part named "file" without a filename is parsed as a plain value.
		if _, ok := r.MultipartForm.Value["file"]; ok {
			writeError(w, http.StatusBadRequest, "No file selected")
			return
		}
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No file selected")
		return
	}

	name := secureFilename(header.Filename)
	if !sheet.Supported(name) {
		writeError(w, http.StatusBadRequest, "Invalid file type")
		return
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		logrus.WithError(err).Error("creating upload dir")
		writeError(w, http.StatusInternalServerError, "Could not save file")
		return
	}
	dest := filepath.Join(s.cfg.UploadDir, name)
	out, err := os.Create(dest)
	if err != nil {
		logrus.WithError(err).Error("creating upload")
		writeError(w, http.StatusInternalServerError, "Could not save file")
		return
	}
	if _, err := out.ReadFrom(file); err != nil {
		out.Close()
		logrus.WithError(err).Error("saving upload")
		writeError(w, http.StatusInternalServerError, "Could not save file")
		return
	}
	if err := out.Close(); err != nil {
		logrus.WithError(err).Error("saving upload")
		writeError(w, http.StatusInternalServerError, "Could not save file")
		return
	}

	table, err := sheet.Read(dest)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not read file: "+err.Error())
		return
	}

	logrus.WithFields(logrus.Fields{"file": name, "columns": len(table.Headers), "rows": len(table.Rows)}).Info("upload stored")
	writeJSON(w, http.StatusOK, uploadResponse{FilePath: name, Columns: table.Headers})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.FilePath == "" || req.EmailColumn == "" {
		writeError(w, http.StatusBadRequest, "Missing file path or email column")
		return
	}

	name := filepath.Base(req.FilePath)
	if name != req.FilePath {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	if _, err := os.Stat(filepath.Join(s.cfg.UploadDir, name)); err != nil {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	task, err := s.runner.Submit(r.Context(), name, req.EmailColumn)
	if err != nil {
		logrus.WithError(err).Error("submitting task")
		writeError(w, http.StatusInternalServerError, "Could not start processing")
		return
	}

	writeJSON(w, http.StatusOK, processResponse{TaskID: task.ID})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.Get(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil {
		logrus.WithError(err).Error("reading task")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, progressResponse{Progress: task.Progress})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	f, err := os.Open(filepath.Join(s.cfg.ProcessedDir, name))
	if err != nil {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Type", "text/csv")
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func (s *Server) handleIdentify(w http.ResponseWriter, r *http.Request) {
	var req identifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	espName := s.identifier().Identify(r.Context(), email)
	writeJSON(w, http.StatusOK, identifyResponse{Email: email, ESP: espName})
}
