package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/terra-energy/inspecciones/internal/buildinfo"
	"github.com/terra-energy/inspecciones/internal/checklist"
	"github.com/terra-energy/inspecciones/internal/middleware"
	"github.com/terra-energy/inspecciones/internal/models"
	"github.com/terra-energy/inspecciones/internal/services/checklists"
	"github.com/terra-energy/inspecciones/internal/services/documents"
	"github.com/terra-energy/inspecciones/internal/services/inspections"
	"github.com/terra-energy/inspecciones/internal/websocket"
	"github.com/terra-energy/inspecciones/web"
)

const maxBodyBytes = 2 << 20

// DocumentService issues, renders and verifies certificates.
type DocumentService interface {
	Create(ctx context.Context, inspectionID string, in documents.CreateInput) (*models.Documento, models.Change, error)
	Get(ctx context.Context, documentID string) (*models.Documento, error)
	RenderPDF(ctx context.Context, documentID string) ([]byte, string, error)
	Labels(ctx context.Context, documentID string, copies int) ([]byte, string, error)
	Verify(ctx context.Context, documentID string) (*documents.Summary, error)
}

// InspectionService drives the inspection lifecycle and its answers.
type InspectionService interface {
	Schedule(ctx context.Context, in inspections.ScheduleInput) (*models.Inspeccion, models.Change, error)
	Reschedule(ctx context.Context, id string, fecha time.Time) (*models.Inspeccion, models.Change, error)
	Start(ctx context.Context, id string) (*models.Inspeccion, models.Change, error)
	Complete(ctx context.Context, id string) (*models.Inspeccion, models.Change, error)
	Cancel(ctx context.Context, id string) (*models.Inspeccion, models.Change, error)
	Get(ctx context.Context, id string) (*models.Inspeccion, error)
	SaveAnswers(ctx context.Context, id string, in []inspections.AnswerInput) (models.Change, error)
	Checklist(ctx context.Context, id string) ([]checklist.SectionGroup, checklist.Result, error)
}

// ChecklistService publishes and reads checklist definitions.
type ChecklistService interface {
	Publish(ctx context.Context, def *checklists.Definition) (*models.Checklist, models.Change, error)
	ImportYAML(ctx context.Context, r io.Reader) (*models.Checklist, models.Change, error)
	Tree(ctx context.Context, jobTypeID string) (*models.Checklist, error)
}

// Deps is everything the router serves.
type Deps struct {
	Documents   DocumentService
	Inspections InspectionService
	Checklists  ChecklistService
	Hub         *websocket.Hub
	Templates   *template.Template // nil uses the embedded pages
	VerifyLimit *middleware.IPRateLimiter
	JWTSecret   string
	Log         *zap.Logger
}

// Router wraps the mux router and the services behind it
type Router struct {
	*mux.Router
	docs      DocumentService
	insp      InspectionService
	lists     ChecklistService
	hub       *websocket.Hub
	templates *template.Template
	log       *zap.Logger
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(d Deps) *Router {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	r := &Router{
		Router:    mux.NewRouter(),
		docs:      d.Documents,
		insp:      d.Inspections,
		lists:     d.Checklists,
		hub:       d.Hub,
		templates: d.Templates,
		log:       log.Named("http"),
	}
	if r.templates == nil {
		t, err := web.Templates()
		if err != nil {
			r.log.Error("parse templates", zap.Error(err))
		}
		r.templates = t
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")
	r.HandleFunc("/api/status", r.getStatus).Methods("GET")

	// Public verification, reached from the QR code
	verify := r.NewRoute().Subrouter()
	if d.VerifyLimit != nil {
		verify.Use(d.VerifyLimit.Middleware)
	}
	verify.HandleFunc("/verificar/{id}", r.verifyPage).Methods("GET")
	verify.HandleFunc("/api/verificar/{id}", r.verifyJSON).Methods("GET")

	if r.hub != nil {
		r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
			websocket.ServeWs(r.hub, w, req)
		})
	}

	// Protected API
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Auth(d.JWTSecret))

	api.HandleFunc("/documentos/{id}", r.getDocument).Methods("GET")
	api.HandleFunc("/documentos/{id}/pdf", r.downloadPDF).Methods("GET")
	api.HandleFunc("/documentos/{id}/etiquetas", r.downloadLabels).Methods("GET")

	api.HandleFunc("/inspecciones", r.scheduleInspection).Methods("POST")
	api.HandleFunc("/inspecciones/{id}", r.getInspection).Methods("GET")
	api.HandleFunc("/inspecciones/{id}/documento", r.createDocument).Methods("POST")
	api.HandleFunc("/inspecciones/{id}/checklist", r.getAnswers).Methods("GET")
	api.HandleFunc("/inspecciones/{id}/checklist", r.saveAnswers).Methods("PUT")
	api.HandleFunc("/inspecciones/{id}/{accion:reprogramar|iniciar|completar|cancelar}", r.inspectionAction).Methods("POST")

	api.HandleFunc("/tipos-inspeccion/{id}/checklist", r.jobTypeChecklist).Methods("GET")
	api.HandleFunc("/checklists", r.publishChecklist).Methods("POST")

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// getStatus returns the build the server runs
func (r *Router) getStatus(w http.ResponseWriter, req *http.Request) {
	info := buildinfo.Info()
	info["status"] = "running"
	if r.hub != nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{"build": info, "clients": r.hub.Clients()})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"build": info})
}

// notify broadcasts persisted changes to websocket listeners.
func (r *Router) notify(changes ...models.Change) {
	if r.hub != nil {
		r.hub.Broadcast(changes...)
	}
}

func decodeJSON(w http.ResponseWriter, req *http.Request, v interface{}) error {
	req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)
	return json.NewDecoder(req.Body).Decode(v)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

type errorMapping struct {
	err     error
	status  int
	message string
}

var errorTable = []errorMapping{
	{documents.ErrDocumentNotFound, http.StatusNotFound, "Documento no encontrado"},
	{documents.ErrInspectionNotFound, http.StatusNotFound, "Inspección no encontrada"},
	{inspections.ErrInspectionNotFound, http.StatusNotFound, "Inspección no encontrada"},
	{inspections.ErrRequestNotFound, http.StatusNotFound, "Solicitud no encontrada"},
	{checklists.ErrJobTypeNotFound, http.StatusNotFound, "Tipo de inspección no encontrado"},
	{checklists.ErrChecklistNotFound, http.StatusNotFound, "Checklist no encontrado"},

	{documents.ErrInspectionNotCompleted, http.StatusConflict, "La inspección no está completada"},
	{documents.ErrDocumentExists, http.StatusConflict, "La inspección ya tiene un documento"},
	{inspections.ErrRequestNotApproved, http.StatusConflict, "La solicitud no está aprobada"},
	{inspections.ErrInvalidTransition, http.StatusConflict, "Transición de estado no permitida"},
	{inspections.ErrAnswersLocked, http.StatusConflict, "La inspección ya no admite cambios"},
	{inspections.ErrNoChecklist, http.StatusConflict, "El tipo de inspección no tiene checklist"},
	{checklists.ErrChecklistVersion, http.StatusConflict, "La versión debe ser mayor que la última publicada"},
}

// Validation errors carry details about the caller's own input.
var validationErrors = []error{
	inspections.ErrInvalidAnswer,
	inspections.ErrInvalidInput,
	checklists.ErrInvalidDefinition,
	documents.ErrInvalidImage,
}

// respondServiceError maps a service error to a status and a message that
// never exposes upstream detail.
func (r *Router) respondServiceError(w http.ResponseWriter, req *http.Request, err error) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			respondError(w, m.status, m.message)
			return
		}
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	r.log.Error("request failed",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Error(err),
	)
	respondError(w, http.StatusInternalServerError, "Error interno del servidor")
}
