package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/terra-energy/inspecciones/internal/services/documents"
)

// getDocument returns the stored document row
func (r *Router) getDocument(w http.ResponseWriter, req *http.Request) {
	doc, err := r.docs.Get(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		r.respondServiceError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

// downloadPDF renders the certificate of a document
func (r *Router) downloadPDF(w http.ResponseWriter, req *http.Request) {
	pdfBytes, numero, err := r.docs.RenderPDF(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		r.respondServiceError(w, req, err)
		return
	}
	writePDF(w, fmt.Sprintf("informe-%s.pdf", numero), pdfBytes)
}

// downloadLabels prints verification stickers for a document
func (r *Router) downloadLabels(w http.ResponseWriter, req *http.Request) {
	copies := 0
	if v := req.URL.Query().Get("copias"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 500 {
			respondError(w, http.StatusBadRequest, "Número de copias inválido")
			return
		}
		copies = n
	}

	pdfBytes, numero, err := r.docs.Labels(req.Context(), mux.Vars(req)["id"], copies)
	if err != nil {
		r.respondServiceError(w, req, err)
		return
	}
	writePDF(w, fmt.Sprintf("etiquetas-%s.pdf", numero), pdfBytes)
}

// createDocument issues the certificate of a completed inspection
func (r *Router) createDocument(w http.ResponseWriter, req *http.Request) {
	var in documents.CreateInput
	if err := decodeJSON(w, req, &in); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	doc, change, err := r.docs.Create(req.Context(), mux.Vars(req)["id"], in)
	if err != nil {
		r.respondServiceError(w, req, err)
		return
	}
	r.notify(change)
	respondJSON(w, http.StatusCreated, doc)
}

func writePDF(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
