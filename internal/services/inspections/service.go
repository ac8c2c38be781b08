package inspections

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/terra-energy/inspecciones/internal/checklist"
	"github.com/terra-energy/inspecciones/internal/database"
	"github.com/terra-energy/inspecciones/internal/models"
)

var (
	ErrInspectionNotFound = errors.New("inspección no encontrada")
	ErrRequestNotFound    = errors.New("solicitud no encontrada")
	ErrRequestNotApproved = errors.New("la solicitud no está aprobada")
	ErrInvalidTransition  = errors.New("transición de estado no permitida")
	ErrInvalidAnswer      = errors.New("respuesta inválida")
	ErrNoChecklist        = errors.New("el tipo de inspección no tiene checklist")
	ErrAnswersLocked      = errors.New("la inspección ya no admite cambios")
	ErrInvalidInput       = errors.New("datos inválidos")
)

type Repository interface {
	GetInspection(ctx context.Context, id string) (*models.Inspeccion, error)
	GetRequest(ctx context.Context, id string) (*models.Solicitud, error)
	CreateInspection(ctx context.Context, insp *models.Inspeccion) error
	SaveInspection(ctx context.Context, insp *models.Inspeccion) error
	GetChecklist(ctx context.Context, id string) (*models.Checklist, error)
	ListAnswers(ctx context.Context, inspectionID string) ([]models.Respuesta, error)
	ReplaceAnswers(ctx context.Context, inspectionID string, answers []models.Respuesta) error
}

type Service struct {
	repo Repository
	log  *zap.Logger
	now  func() time.Time
}

func New(repo Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, log: log.Named("inspections"), now: time.Now}
}

func changed(id, action string) models.Change {
	return models.Change{Entity: "inspeccion", ID: id, Action: action}
}

// ScheduleInput creates an inspection for an approved request.
type ScheduleInput struct {
	SolicitudID      string    `json:"solicitudId"`
	NumeroInspeccion string    `json:"numeroInspeccion"`
	Fecha            time.Time `json:"fechaProgramada"`
	OperadorNombre   string    `json:"operadorNombre"`
	SupervisorNombre string    `json:"supervisorNombre"`
}

func (s *Service) Schedule(ctx context.Context, in ScheduleInput) (*models.Inspeccion, models.Change, error) {
	if _, err := uuid.Parse(in.SolicitudID); err != nil {
		return nil, models.Change{}, ErrRequestNotFound
	}
	req, err := s.repo.GetRequest(ctx, in.SolicitudID)
	if err != nil {
		return nil, models.Change{}, mapNotFound(err, ErrRequestNotFound)
	}
	if req.Estado != models.SolicitudAprobada {
		return nil, models.Change{}, ErrRequestNotApproved
	}
	if in.Fecha.IsZero() {
		return nil, models.Change{}, fmt.Errorf("%w: fechaProgramada es obligatoria", ErrInvalidInput)
	}

	insp := &models.Inspeccion{
		ID:               uuid.NewString(),
		SolicitudID:      req.ID,
		NumeroInspeccion: in.NumeroInspeccion,
		Estado:           models.InspeccionProgramada,
		FechaProgramada:  in.Fecha.UTC(),
		OperadorNombre:   in.OperadorNombre,
		SupervisorNombre: in.SupervisorNombre,
	}
	if insp.NumeroInspeccion == "" {
		insp.NumeroInspeccion = "INSP-" + insp.ID[:8]
	}
	if err := s.repo.CreateInspection(ctx, insp); err != nil {
		return nil, models.Change{}, fmt.Errorf("create inspection: %w", err)
	}
	s.log.Info("inspection scheduled", zap.String("inspeccion", insp.ID), zap.Time("fecha", insp.FechaProgramada))
	return insp, changed(insp.ID, "scheduled"), nil
}

// Reschedule moves the date of an inspection that has not started.
func (s *Service) Reschedule(ctx context.Context, id string, fecha time.Time) (*models.Inspeccion, models.Change, error) {
	insp, err := s.get(ctx, id)
	if err != nil {
		return nil, models.Change{}, err
	}
	if insp.Estado != models.InspeccionProgramada || fecha.IsZero() {
		return nil, models.Change{}, ErrInvalidTransition
	}
	insp.FechaProgramada = fecha.UTC()
	if err := s.repo.SaveInspection(ctx, insp); err != nil {
		return nil, models.Change{}, err
	}
	return insp, changed(id, "rescheduled"), nil
}

func (s *Service) Start(ctx context.Context, id string) (*models.Inspeccion, models.Change, error) {
	return s.transition(ctx, id, models.InspeccionEnProgreso, "started")
}

// Complete closes the inspection. The completion date is set once.
func (s *Service) Complete(ctx context.Context, id string) (*models.Inspeccion, models.Change, error) {
	return s.transition(ctx, id, models.InspeccionCompletada, "completed")
}

func (s *Service) Cancel(ctx context.Context, id string) (*models.Inspeccion, models.Change, error) {
	return s.transition(ctx, id, models.InspeccionCancelada, "cancelled")
}

func (s *Service) transition(ctx context.Context, id string, next models.EstadoInspeccion, action string) (*models.Inspeccion, models.Change, error) {
	insp, err := s.get(ctx, id)
	if err != nil {
		return nil, models.Change{}, err
	}
	if !insp.Estado.CanTransition(next) {
		return nil, models.Change{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, insp.Estado, next)
	}
	insp.Estado = next
	if next == models.InspeccionCompletada && insp.FechaCompletada == nil {
		now := s.now().UTC()
		insp.FechaCompletada = &now
	}
	if err := s.repo.SaveInspection(ctx, insp); err != nil {
		return nil, models.Change{}, err
	}
	s.log.Info("inspection state changed", zap.String("inspeccion", id), zap.String("estado", string(next)))
	return insp, changed(id, action), nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Inspeccion, error) {
	return s.get(ctx, id)
}

func (s *Service) get(ctx context.Context, id string) (*models.Inspeccion, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInspectionNotFound
	}
	insp, err := s.repo.GetInspection(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrInspectionNotFound)
	}
	return insp, nil
}

// AnswerInput is one answer of a checklist save. Valor is decoded
// according to the response type's kind.
type AnswerInput struct {
	RequisitoID     string          `json:"requisitoId"`
	TipoRespuestaID string          `json:"tipoRespuestaId"`
	Valor           json.RawMessage `json:"valor"`
}

// SaveAnswers replaces the full answer set of an inspection. Every pair must
// belong to the inspection's checklist and every value must match its kind.
// Pairs sent with a null value are left out of the saved set.
// Concurrent saves are last writer wins.
func (s *Service) SaveAnswers(ctx context.Context, id string, in []AnswerInput) (models.Change, error) {
	insp, err := s.get(ctx, id)
	if err != nil {
		return models.Change{}, err
	}
	if insp.Estado.Terminal() {
		return models.Change{}, ErrAnswersLocked
	}

	pairs, err := s.allowedPairs(ctx, insp)
	if err != nil {
		return models.Change{}, err
	}

	seen := make(map[string]bool, len(in))
	answers := make([]models.Respuesta, 0, len(in))
	for i, a := range in {
		key := models.PairKey(a.RequisitoID, a.TipoRespuestaID)
		kind, ok := pairs[key]
		if !ok {
			return models.Change{}, fmt.Errorf("%w: %s no pertenece al checklist", ErrInvalidAnswer, key)
		}
		if seen[key] {
			return models.Change{}, fmt.Errorf("%w: %s repetido", ErrInvalidAnswer, key)
		}
		seen[key] = true

		v, err := checklist.ParseValue(kind, a.Valor)
		if err != nil {
			return models.Change{}, fmt.Errorf("%w: %s: %v", ErrInvalidAnswer, key, err)
		}
		if v == nil {
			// unanswered; a stored answer always holds exactly one value
			continue
		}
		r := models.NewRespuesta(id, a.RequisitoID, a.TipoRespuestaID, i, v)
		r.ID = uuid.NewString()
		answers = append(answers, r)
	}

	if err := s.repo.ReplaceAnswers(ctx, id, answers); err != nil {
		return models.Change{}, fmt.Errorf("replace answers: %w", err)
	}
	s.log.Info("answers saved", zap.String("inspeccion", id), zap.Int("count", len(answers)))
	return models.Change{Entity: "respuestas", ID: id, Action: "saved"}, nil
}

func (s *Service) allowedPairs(ctx context.Context, insp *models.Inspeccion) (map[string]checklist.Kind, error) {
	if insp.Solicitud == nil || insp.Solicitud.TipoInspeccion == nil || insp.Solicitud.TipoInspeccion.ChecklistID == nil {
		return nil, ErrNoChecklist
	}
	c, err := s.repo.GetChecklist(ctx, *insp.Solicitud.TipoInspeccion.ChecklistID)
	if err != nil {
		return nil, mapNotFound(err, ErrNoChecklist)
	}
	return c.Pairs(), nil
}

// Checklist returns the saved answers of an inspection grouped by section,
// with the overall result they evaluate to.
func (s *Service) Checklist(ctx context.Context, id string) ([]checklist.SectionGroup, checklist.Result, error) {
	if _, err := s.get(ctx, id); err != nil {
		return nil, "", err
	}
	answers, err := s.repo.ListAnswers(ctx, id)
	if err != nil {
		return nil, "", err
	}
	rows := models.Rows(answers)
	return checklist.Aggregate(rows), checklist.Evaluate(rows), nil
}

func mapNotFound(err, target error) error {
	if errors.Is(err, database.ErrNotFound) {
		return target
	}
	return err
}
