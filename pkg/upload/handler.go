package upload

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	ferrors "github.com/devfolio-dev/folio/internal/errors"
)

// FailureMessage is the error body of every rejected upload.
const FailureMessage = "image upload failed"

// sniffLen is how many bytes http.DetectContentType considers.
const sniffLen = 512

// Response is the JSON body returned by Handler.
type Response struct {
	Uploaded bool   `json:"uploaded,omitempty"`
	URL      string `json:"url,omitempty"`
	Error    string `json:"error,omitempty"`
	Code     string `json:"code,omitempty"`
}

// HandlerOption configures an upload handler.
type HandlerOption func(*handler)

// WithLogger sets the handler's logger.
func WithLogger(l *slog.Logger) HandlerOption {
	return func(h *handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithOwner sets how the uploading user is identified. The owner becomes the
// first segment of the storage key. Default: "anonymous".
func WithOwner(fn func(r *http.Request) string) HandlerOption {
	return func(h *handler) {
		if fn != nil {
			h.owner = fn
		}
	}
}

type handler struct {
	store  Store
	config *Config
	logger *slog.Logger
	owner  func(r *http.Request) string
}

// Handler returns the editor image upload endpoint.
//
// It expects POST ?target=<target> with a multipart field "upload" and
// answers in the format rich text editors expect:
//
//	200 {"uploaded": true, "url": "..."}
//	400 {"error": "image upload failed", "code": "E022"}
//	413 {"error": "image upload failed", "code": "E020"}
func Handler(store Store, config *Config, opts ...HandlerOption) http.Handler {
	if config == nil {
		config = DefaultConfig()
	}
	h := &handler{
		store:  store,
		config: config,
		logger: slog.Default(),
		owner:  func(*http.Request) string { return "anonymous" },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	target, err := h.config.Target(r.URL.Query().Get("target"))
	if err != nil {
		h.fail(w, http.StatusBadRequest, "", err)
		return
	}

	maxSize := h.config.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultConfig().MaxFileSize
	}
	// Multipart framing adds a little on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1<<20)

	file, header, err := r.FormFile("upload")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, http.StatusRequestEntityTooLarge, "E020", err)
			return
		}
		h.fail(w, http.StatusBadRequest, "", err)
		return
	}
	defer file.Close()

	if header.Size > maxSize {
		h.fail(w, http.StatusRequestEntityTooLarge, "E020", ErrTooLarge)
		return
	}

	ext := strings.TrimPrefix(path.Ext(header.Filename), ".")
	if !h.config.allowedExtension(ext) {
		h.fail(w, http.StatusBadRequest, "E022", ErrType)
		return
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		h.fail(w, http.StatusBadRequest, "", err)
		return
	}
	head = head[:n]
	if n == 0 {
		h.fail(w, http.StatusBadRequest, "", errors.New("empty file"))
		return
	}

	contentType := http.DetectContentType(head)
	if !h.config.allowedType(contentType) {
		h.fail(w, http.StatusBadRequest, "E022", ErrType)
		return
	}

	key := ObjectKey(h.owner(r), target, header.Filename)
	saved, err := h.store.Save(r.Context(), key, contentType, header.Size,
		io.MultiReader(bytes.NewReader(head), file))
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			h.fail(w, http.StatusRequestEntityTooLarge, "E020", err)
			return
		}
		h.logger.Error("upload save failed", "key", key, "error", err)
		h.fail(w, http.StatusBadRequest, "", err)
		return
	}

	h.logger.Info("upload saved", "key", saved.Key, "size", saved.Size, "type", saved.ContentType)
	writeJSON(w, http.StatusOK, Response{Uploaded: true, URL: saved.URL})
}

func (h *handler) fail(w http.ResponseWriter, status int, code string, err error) {
	if code != "" {
		err = ferrors.New(code).Wrap(err)
	}
	h.logger.Warn("upload rejected", "status", status, "error", err)
	writeJSON(w, status, Response{Error: FailureMessage, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
