package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/terra-energy/inspecciones/internal/models"
	"github.com/terra-energy/inspecciones/internal/services/checklists"
)

func (r *Router) jobTypeChecklist(w http.ResponseWriter, req *http.Request) {
	c, err := r.lists.Tree(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		r.respondServiceError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// publishChecklist stores a new checklist version. The body is JSON, or YAML
// when the content type says so.
func (r *Router) publishChecklist(w http.ResponseWriter, req *http.Request) {
	var (
		c      *models.Checklist
		change models.Change
		err    error
	)
	if strings.Contains(req.Header.Get("Content-Type"), "yaml") {
		req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)
		c, change, err = r.lists.ImportYAML(req.Context(), req.Body)
	} else {
		var def checklists.Definition
		if err := decodeJSON(w, req, &def); err != nil {
			respondError(w, http.StatusBadRequest, "JSON inválido")
			return
		}
		c, change, err = r.lists.Publish(req.Context(), &def)
	}
	if err != nil {
		r.respondServiceError(w, req, err)
		return
	}
	r.notify(change)
	respondJSON(w, http.StatusCreated, c)
}
