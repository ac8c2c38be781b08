package inspections

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-energy/inspecciones/internal/checklist"
	"github.com/terra-energy/inspecciones/internal/database"
	"github.com/terra-energy/inspecciones/internal/models"
)

type fakeRepo struct {
	inspections map[string]*models.Inspeccion
	requests    map[string]*models.Solicitud
	checklists  map[string]*models.Checklist
	answers     map[string][]models.Respuesta
	replaced    int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		inspections: map[string]*models.Inspeccion{},
		requests:    map[string]*models.Solicitud{},
		checklists:  map[string]*models.Checklist{},
		answers:     map[string][]models.Respuesta{},
	}
}

func (r *fakeRepo) GetInspection(_ context.Context, id string) (*models.Inspeccion, error) {
	if i, ok := r.inspections[id]; ok {
		cp := *i
		return &cp, nil
	}
	return nil, database.ErrNotFound
}

func (r *fakeRepo) GetRequest(_ context.Context, id string) (*models.Solicitud, error) {
	if s, ok := r.requests[id]; ok {
		return s, nil
	}
	return nil, database.ErrNotFound
}

func (r *fakeRepo) CreateInspection(_ context.Context, insp *models.Inspeccion) error {
	cp := *insp
	cp.Solicitud = r.requests[insp.SolicitudID]
	r.inspections[insp.ID] = &cp
	return nil
}

func (r *fakeRepo) SaveInspection(_ context.Context, insp *models.Inspeccion) error {
	if _, ok := r.inspections[insp.ID]; !ok {
		return database.ErrNotFound
	}
	cp := *insp
	r.inspections[insp.ID] = &cp
	return nil
}

func (r *fakeRepo) GetChecklist(_ context.Context, id string) (*models.Checklist, error) {
	if c, ok := r.checklists[id]; ok {
		return c, nil
	}
	return nil, database.ErrNotFound
}

func (r *fakeRepo) ListAnswers(_ context.Context, id string) ([]models.Respuesta, error) {
	return r.answers[id], nil
}

func (r *fakeRepo) ReplaceAnswers(_ context.Context, id string, answers []models.Respuesta) error {
	r.replaced++
	// Mimic the preloads of the real query.
	c := r.checklists["chk"]
	types := map[string]*models.TipoRespuesta{}
	reqs := map[string]*models.Requisito{}
	for si := range c.Secciones {
		sec := &c.Secciones[si]
		for qi := range sec.Requisitos {
			q := sec.Requisitos[qi]
			q.Seccion = sec
			reqs[q.ID] = &q
			for ti := range q.TiposRespuesta {
				types[q.TiposRespuesta[ti].ID] = &q.TiposRespuesta[ti]
			}
		}
	}
	for i := range answers {
		answers[i].Requisito = reqs[answers[i].RequisitoID]
		answers[i].TipoRespuesta = types[answers[i].TipoRespuestaID]
	}
	r.answers[id] = answers
	return nil
}

func fixture(t *testing.T) (*Service, *fakeRepo, string) {
	t.Helper()
	repo := newFakeRepo()
	chkID := "chk"
	repo.checklists[chkID] = &models.Checklist{
		ID: chkID,
		Secciones: []models.Seccion{{
			Nombre: "Visual",
			Requisitos: []models.Requisito{
				{ID: "r1", Descripcion: "Sin fisuras", TiposRespuesta: []models.TipoRespuesta{
					{ID: "t-cumple", Nombre: "Cumple", TipoDato: checklist.KindBoolean},
				}},
				{ID: "r2", Descripcion: "Espesor", TiposRespuesta: []models.TipoRespuesta{
					{ID: "t-medida", Nombre: "Medida", TipoDato: checklist.KindNumber},
					{ID: "t-fecha", Nombre: "Fecha", TipoDato: checklist.KindDate},
				}},
			},
		}},
	}
	reqID := uuid.NewString()
	repo.requests[reqID] = &models.Solicitud{
		ID:             reqID,
		Estado:         models.SolicitudAprobada,
		TipoInspeccion: &models.TipoInspeccion{Nombre: "Grúa", ChecklistID: &chkID},
	}

	svc := New(repo, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC) }
	return svc, repo, reqID
}

func schedule(t *testing.T, svc *Service, reqID string) *models.Inspeccion {
	t.Helper()
	insp, _, err := svc.Schedule(context.Background(), ScheduleInput{
		SolicitudID: reqID,
		Fecha:       time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return insp
}

func TestLifecycle(t *testing.T) {
	svc, _, reqID := fixture(t)
	ctx := context.Background()

	insp, ch, err := svc.Schedule(ctx, ScheduleInput{SolicitudID: reqID, Fecha: time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Equal(t, models.InspeccionProgramada, insp.Estado)
	assert.Equal(t, "scheduled", ch.Action)
	assert.NotEmpty(t, insp.NumeroInspeccion)

	insp, _, err = svc.Reschedule(ctx, insp.ID, time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 12, insp.FechaProgramada.Day())

	insp, _, err = svc.Start(ctx, insp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InspeccionEnProgreso, insp.Estado)

	_, _, err = svc.Reschedule(ctx, insp.ID, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition, "started inspections cannot be rescheduled")

	insp, ch, err = svc.Complete(ctx, insp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InspeccionCompletada, insp.Estado)
	require.NotNil(t, insp.FechaCompletada)
	assert.Equal(t, 10, insp.FechaCompletada.Day())
	assert.Equal(t, models.Change{Entity: "inspeccion", ID: insp.ID, Action: "completed"}, ch)

	_, _, err = svc.Cancel(ctx, insp.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestInvalidTransitions(t *testing.T) {
	svc, _, reqID := fixture(t)
	ctx := context.Background()
	insp := schedule(t, svc, reqID)

	_, _, err := svc.Complete(ctx, insp.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition, "cannot complete before starting")

	_, _, err = svc.Cancel(ctx, insp.ID)
	require.NoError(t, err)
	_, _, err = svc.Start(ctx, insp.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, _, err = svc.Start(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrInspectionNotFound)
	_, _, err = svc.Start(ctx, "nope")
	assert.ErrorIs(t, err, ErrInspectionNotFound)
}

func TestScheduleRequiresApprovedRequest(t *testing.T) {
	svc, repo, reqID := fixture(t)
	repo.requests[reqID].Estado = models.SolicitudPendiente

	_, _, err := svc.Schedule(context.Background(), ScheduleInput{SolicitudID: reqID, Fecha: time.Now()})
	assert.ErrorIs(t, err, ErrRequestNotApproved)

	_, _, err = svc.Schedule(context.Background(), ScheduleInput{SolicitudID: uuid.NewString(), Fecha: time.Now()})
	assert.ErrorIs(t, err, ErrRequestNotFound)

	repo.requests[reqID].Estado = models.SolicitudAprobada
	_, _, err = svc.Schedule(context.Background(), ScheduleInput{SolicitudID: reqID})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func TestSaveAnswers(t *testing.T) {
	svc, repo, reqID := fixture(t)
	ctx := context.Background()
	insp := schedule(t, svc, reqID)

	ch, err := svc.SaveAnswers(ctx, insp.ID, []AnswerInput{
		{RequisitoID: "r1", TipoRespuestaID: "t-cumple", Valor: raw(`false`)},
		{RequisitoID: "r2", TipoRespuestaID: "t-medida", Valor: raw(`12.5`)},
		{RequisitoID: "r2", TipoRespuestaID: "t-fecha", Valor: raw(`null`)},
	})
	require.NoError(t, err)
	assert.Equal(t, models.Change{Entity: "respuestas", ID: insp.ID, Action: "saved"}, ch)

	saved := repo.answers[insp.ID]
	require.Len(t, saved, 2, "null answers are not stored")
	require.NotNil(t, saved[0].ValorBooleano)
	assert.False(t, *saved[0].ValorBooleano)
	require.NotNil(t, saved[1].ValorNumero)
	assert.Equal(t, 12.5, *saved[1].ValorNumero)
	assert.Equal(t, 1, saved[1].Posicion)
	for _, a := range saved {
		s := a.Slots()
		filled := 0
		for _, set := range []bool{s.Boolean != nil, s.Number != nil, s.Text != nil, s.Date != nil, s.Duration != nil} {
			if set {
				filled++
			}
		}
		assert.Equal(t, 1, filled, "answer %s/%s", a.RequisitoID, a.TipoRespuestaID)
	}

	groups, result, err := svc.Checklist(ctx, insp.ID)
	require.NoError(t, err)
	assert.Equal(t, checklist.Rejected, result)
	require.Len(t, groups, 1)
	assert.Equal(t, "Visual", groups[0].Name)
	assert.Len(t, groups[0].Requirements, 2)
}

func TestSaveAnswersReplacesWholeSet(t *testing.T) {
	svc, repo, reqID := fixture(t)
	ctx := context.Background()
	insp := schedule(t, svc, reqID)

	_, err := svc.SaveAnswers(ctx, insp.ID, []AnswerInput{
		{RequisitoID: "r1", TipoRespuestaID: "t-cumple", Valor: raw(`false`)},
		{RequisitoID: "r2", TipoRespuestaID: "t-medida", Valor: raw(`1`)},
	})
	require.NoError(t, err)
	_, err = svc.SaveAnswers(ctx, insp.ID, []AnswerInput{
		{RequisitoID: "r1", TipoRespuestaID: "t-cumple", Valor: raw(`true`)},
	})
	require.NoError(t, err)

	assert.Len(t, repo.answers[insp.ID], 1)
	assert.Equal(t, 2, repo.replaced)

	_, result, err := svc.Checklist(ctx, insp.ID)
	require.NoError(t, err)
	assert.Equal(t, checklist.Approved, result)
}

func TestSaveAnswersValidation(t *testing.T) {
	svc, repo, reqID := fixture(t)
	ctx := context.Background()
	insp := schedule(t, svc, reqID)

	tests := []struct {
		name string
		in   []AnswerInput
	}{
		{"unknown requirement", []AnswerInput{{RequisitoID: "r9", TipoRespuestaID: "t-cumple", Valor: raw(`true`)}}},
		{"type not linked to requirement", []AnswerInput{{RequisitoID: "r1", TipoRespuestaID: "t-medida", Valor: raw(`1`)}}},
		{"kind mismatch", []AnswerInput{{RequisitoID: "r1", TipoRespuestaID: "t-cumple", Valor: raw(`"si"`)}}},
		{"bad date", []AnswerInput{{RequisitoID: "r2", TipoRespuestaID: "t-fecha", Valor: raw(`"10/05/2024"`)}}},
		{"null for a pair outside the checklist", []AnswerInput{{RequisitoID: "r9", TipoRespuestaID: "t-cumple", Valor: raw(`null`)}}},
		{"duplicate pair", []AnswerInput{
			{RequisitoID: "r1", TipoRespuestaID: "t-cumple", Valor: raw(`true`)},
			{RequisitoID: "r1", TipoRespuestaID: "t-cumple", Valor: raw(`false`)},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SaveAnswers(ctx, insp.ID, tt.in)
			assert.ErrorIs(t, err, ErrInvalidAnswer)
		})
	}
	assert.Zero(t, repo.replaced, "invalid input must not touch stored answers")
}

func TestSaveAnswersLockedAfterCompletion(t *testing.T) {
	svc, _, reqID := fixture(t)
	ctx := context.Background()
	insp := schedule(t, svc, reqID)
	_, _, err := svc.Cancel(ctx, insp.ID)
	require.NoError(t, err)

	_, err = svc.SaveAnswers(ctx, insp.ID, nil)
	assert.ErrorIs(t, err, ErrAnswersLocked)
}

func TestSaveAnswersWithoutChecklist(t *testing.T) {
	svc, repo, reqID := fixture(t)
	repo.requests[reqID].TipoInspeccion.ChecklistID = nil
	insp := schedule(t, svc, reqID)

	_, err := svc.SaveAnswers(context.Background(), insp.ID, nil)
	assert.True(t, errors.Is(err, ErrNoChecklist))
}
