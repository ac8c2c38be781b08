package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/terra-energy/inspecciones/internal/services/documents"
)

type verifyView struct {
	Found     bool
	Documento *documents.Summary
}

// verifyPage renders the public page the certificate QR points at
func (r *Router) verifyPage(w http.ResponseWriter, req *http.Request) {
	sum, err := r.docs.Verify(req.Context(), mux.Vars(req)["id"])
	status := http.StatusOK
	if errors.Is(err, documents.ErrDocumentNotFound) {
		status = http.StatusNotFound
	} else if err != nil {
		r.log.Error("verification failed", zap.String("path", req.URL.Path), zap.Error(err))
		http.Error(w, "Error interno del servidor", http.StatusInternalServerError)
		return
	}
	if r.templates == nil {
		http.Error(w, "Error interno del servidor", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := r.templates.ExecuteTemplate(w, "verificar.html", verifyView{Found: sum != nil, Documento: sum}); err != nil {
		r.log.Error("render verification page", zap.Error(err))
	}
}

func (r *Router) verifyJSON(w http.ResponseWriter, req *http.Request) {
	sum, err := r.docs.Verify(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		r.respondServiceError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, sum)
}
