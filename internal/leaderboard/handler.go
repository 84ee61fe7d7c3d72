package leaderboard

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
)

// maxBodyBytes bounds an uploaded leaderboard.
const maxBodyBytes = 1 << 20

// FlatFileHandler serves one JSON file per game. GET returns the file (or "[]"),
// POST replaces the file with the request body. There is no merging and no
// concurrency control beyond serializing the writes themselves.
type FlatFileHandler struct {
	dir    string
	logger *log.Logger
	mu     sync.Mutex
}

// NewFlatFileHandler serves files from dir, creating it if needed.
func NewFlatFileHandler(dir string, logger *log.Logger) (*FlatFileHandler, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &FlatFileHandler{dir: dir, logger: logger}, nil
}

// Register adds the /highscores/{game} routes to r.
func (h *FlatFileHandler) Register(r *mux.Router) {
	r.HandleFunc("/highscores/{game}", h.get).Methods(http.MethodGet)
	r.HandleFunc("/highscores/{game}", h.post).Methods(http.MethodPost)
}

func (h *FlatFileHandler) file(r *http.Request) (string, bool) {
	game := mux.Vars(r)["game"]
	if !ValidGameID(game) {
		return "", false
	}
	return filepath.Join(h.dir, game+".json"), true
}

func (h *FlatFileHandler) get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	p, ok := h.file(r)
	if !ok {
		http.Error(w, "invalid game id", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	data, err := os.ReadFile(p)
	h.mu.Unlock()

	switch {
	case errors.Is(err, os.ErrNotExist):
		data = []byte("[]")
	case err != nil:
		h.logger.Error("read high scores", "file", p, "err", err)
		http.Error(w, "failed to read high scores", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (h *FlatFileHandler) post(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	p, ok := h.file(r)
	if !ok {
		http.Error(w, "invalid game id", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(data) > maxBodyBytes {
		http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
		return
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		http.Error(w, "body must be a JSON array", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	err = writeFileAtomic(p, data)
	h.mu.Unlock()
	if err != nil {
		h.logger.Error("save high scores", "file", p, "err", err)
		http.Error(w, "failed to save high scores", http.StatusInternalServerError)
		return
	}
	h.logger.Info("high scores replaced", "file", filepath.Base(p), "rows", len(rows))
	w.Header().Set("Content-Type", "text/plain")
	io.WriteString(w, "High scores saved")
}
