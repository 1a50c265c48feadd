package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/choreboard/internal/ocr"
)

// OCRHandler relays image uploads to the external OCR service and passes
// its responses through unchanged.
type OCRHandler struct {
	client *ocr.Client
	logger *slog.Logger
}

func NewOCRHandler(client *ocr.Client, logger *slog.Logger) *OCRHandler {
	return &OCRHandler{client: client, logger: logger}
}

// Recognize forwards the uploaded image for text recognition and relays
// the JSON result with the upstream status code.
func (h *OCRHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file")
		return
	}
	defer file.Close()

	res, err := h.client.Recognize(r.Context(), header.Filename, file)
	if err != nil {
		h.logger.Error("ocr recognize", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to contact OCR server")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)
	w.Write(res.Body)
}

// Preview forwards the uploaded image for preprocessing and relays the
// processed image bytes on success, or the upstream error body otherwise.
func (h *OCRHandler) Preview(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file")
		return
	}
	defer file.Close()

	res, err := h.client.Preview(r.Context(), header.Filename, file)
	if err != nil {
		h.logger.Error("ocr preview", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to contact OCR server")
		return
	}

	if res.StatusCode != http.StatusOK {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(res.StatusCode)
		w.Write(res.Body)
		return
	}

	contentType := res.ContentType
	if contentType == "" {
		contentType = "image/png"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(res.Body)
}
