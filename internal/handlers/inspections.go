package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/terra-energy/inspecciones/internal/models"
	"github.com/terra-energy/inspecciones/internal/services/inspections"
)

type scheduleRequest struct {
	SolicitudID      string `json:"solicitudId"`
	NumeroInspeccion string `json:"numeroInspeccion"`
	FechaProgramada  string `json:"fechaProgramada"`
	OperadorNombre   string `json:"operadorNombre"`
	SupervisorNombre string `json:"supervisorNombre"`
}

// parseFecha accepts a calendar date or a full RFC 3339 timestamp.
func parseFecha(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// scheduleInspection creates an inspection for an approved request
func (r *Router) scheduleInspection(w http.ResponseWriter, req *http.Request) {
	var body scheduleRequest
	if err := decodeJSON(w, req, &body); err != nil {
		respondError(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	fecha, ok := parseFecha(body.FechaProgramada)
	if !ok {
		respondError(w, http.StatusBadRequest, "Fecha programada inválida")
		return
	}

	insp, change, err := r.insp.Schedule(req.Context(), inspections.ScheduleInput{
		SolicitudID:      body.SolicitudID,
		NumeroInspeccion: body.NumeroInspeccion,
		Fecha:            fecha,
		OperadorNombre:   body.OperadorNombre,
		SupervisorNombre: body.SupervisorNombre,
	})
	if err != nil {
		r.respondServiceError(w, req, err)
		return
	}
	r.notify(change)
	respondJSON(w, http.StatusCreated, insp)
}

func (r *Router) getInspection(w http.ResponseWriter, req *http.Request) {
	insp, err := r.insp.Get(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		r.respondServiceError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, insp)
}

// inspectionAction moves an inspection through its lifecycle
func (r *Router) inspectionAction(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	id := vars["id"]
	ctx := req.Context()

	var (
		insp   *models.Inspeccion
		change models.Change
		err    error
	)
	switch vars["accion"] {
	case "reprogramar":
		var body struct {
			FechaProgramada string `json:"fechaProgramada"`
		}
		if err := decodeJSON(w, req, &body); err != nil {
			respondError(w, http.StatusBadRequest, "JSON inválido")
			return
		}
		fecha, ok := parseFecha(body.FechaProgramada)
		if !ok {
			respondError(w, http.StatusBadRequest, "Fecha programada inválida")
			return
		}
		insp, change, err = r.insp.Reschedule(ctx, id, fecha)
	case "iniciar":
		insp, change, err = r.insp.Start(ctx, id)
	case "completar":
		insp, change, err = r.insp.Complete(ctx, id)
	case "cancelar":
		insp, change, err = r.insp.Cancel(ctx, id)
	}
	if err != nil {
		r.respondServiceError(w, req, err)
		return
	}
	r.notify(change)
	respondJSON(w, http.StatusOK, insp)
}

// saveAnswers replaces the answer set of an inspection
func (r *Router) saveAnswers(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Respuestas []inspections.AnswerInput `json:"respuestas"`
	}
	if err := decodeJSON(w, req, &body); err != nil {
		respondError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	change, err := r.insp.SaveAnswers(req.Context(), mux.Vars(req)["id"], body.Respuestas)
	if err != nil {
		r.respondServiceError(w, req, err)
		return
	}
	r.notify(change)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"guardadas": len(body.Respuestas),
	})
}

// getAnswers returns saved answers grouped by section
func (r *Router) getAnswers(w http.ResponseWriter, req *http.Request) {
	groups, result, err := r.insp.Checklist(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		r.respondServiceError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"secciones": groups,
		"resultado": result,
	})
}
