package checklists

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/terra-energy/inspecciones/internal/checklist"
	"github.com/terra-energy/inspecciones/internal/database"
	"github.com/terra-energy/inspecciones/internal/models"
)

var (
	ErrInvalidDefinition = errors.New("definición de checklist inválida")
	ErrChecklistVersion  = errors.New("la versión debe ser mayor que la última publicada")
	ErrJobTypeNotFound   = errors.New("tipo de inspección no encontrado")
	ErrChecklistNotFound = errors.New("checklist no encontrado")
)

type Repository interface {
	ChecklistVersions(ctx context.Context, codigo string) ([]string, error)
	ResponseTypesByCode(ctx context.Context, codes []string) ([]models.TipoRespuesta, error)
	CreateChecklist(ctx context.Context, c *models.Checklist) error
	GetChecklist(ctx context.Context, id string) (*models.Checklist, error)
	GetJobType(ctx context.Context, id string) (*models.TipoInspeccion, error)
	SetJobTypeChecklist(ctx context.Context, jobTypeID, checklistID string) error
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
	return &Service{repo: repo, log: log.Named("checklists"), now: time.Now}
}

// ImportYAML decodes and publishes a definition.
func (s *Service) ImportYAML(ctx context.Context, r io.Reader) (*models.Checklist, models.Change, error) {
	def, err := DecodeYAML(r)
	if err != nil {
		return nil, models.Change{}, err
	}
	return s.Publish(ctx, def)
}

// Publish stores a new immutable checklist version. The version must be
// valid semver and greater than every published version of the same code.
func (s *Service) Publish(ctx context.Context, def *Definition) (*models.Checklist, models.Change, error) {
	if def.Codigo == "" || def.Nombre == "" {
		return nil, models.Change{}, fmt.Errorf("%w: codigo y nombre son obligatorios", ErrInvalidDefinition)
	}
	version, err := semver.NewVersion(def.Version)
	if err != nil {
		return nil, models.Change{}, fmt.Errorf("%w: version %q: %v", ErrInvalidDefinition, def.Version, err)
	}

	published, err := s.repo.ChecklistVersions(ctx, def.Codigo)
	if err != nil {
		return nil, models.Change{}, err
	}
	for _, p := range published {
		pv, err := semver.NewVersion(p)
		if err != nil {
			continue
		}
		if !version.GreaterThan(pv) {
			return nil, models.Change{}, fmt.Errorf("%w: %s <= %s", ErrChecklistVersion, version, pv)
		}
	}

	types, err := s.resolveTypes(ctx, def)
	if err != nil {
		return nil, models.Change{}, err
	}

	c, err := build(def, version.String(), types)
	if err != nil {
		return nil, models.Change{}, err
	}
	c.PublicadoEn = s.now().UTC()

	if def.TipoInspeccionID != "" {
		if _, err := s.repo.GetJobType(ctx, def.TipoInspeccionID); err != nil {
			return nil, models.Change{}, mapNotFound(err, ErrJobTypeNotFound)
		}
	}

	if err := s.repo.CreateChecklist(ctx, c); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, models.Change{}, ErrChecklistVersion
		}
		return nil, models.Change{}, fmt.Errorf("create checklist: %w", err)
	}
	if def.TipoInspeccionID != "" {
		if err := s.repo.SetJobTypeChecklist(ctx, def.TipoInspeccionID, c.ID); err != nil {
			return nil, models.Change{}, fmt.Errorf("link job type: %w", err)
		}
	}

	s.log.Info("checklist published", zap.String("codigo", c.Codigo), zap.String("version", c.Version))
	return c, models.Change{Entity: "checklist", ID: c.ID, Action: "published"}, nil
}

// resolveTypes returns every response type the definition may reference,
// keyed by code. Stored types win over redefinitions, which must agree on
// their kind.
func (s *Service) resolveTypes(ctx context.Context, def *Definition) (map[string]models.TipoRespuesta, error) {
	types := make(map[string]models.TipoRespuesta)
	for _, t := range def.TiposRespuesta {
		kind := checklist.Kind(t.TipoDato)
		if t.Codigo == "" || !kind.Known() {
			return nil, fmt.Errorf("%w: tipo de respuesta %q con tipo_dato %q", ErrInvalidDefinition, t.Codigo, t.TipoDato)
		}
		nombre := t.Nombre
		if nombre == "" {
			nombre = t.Codigo
		}
		types[t.Codigo] = models.TipoRespuesta{ID: uuid.NewString(), Codigo: t.Codigo, Nombre: nombre, TipoDato: kind, Orden: t.Orden}
	}

	codes := referencedCodes(def)
	stored, err := s.repo.ResponseTypesByCode(ctx, codes)
	if err != nil {
		return nil, err
	}
	for _, st := range stored {
		if t, ok := types[st.Codigo]; ok && t.TipoDato != st.TipoDato {
			return nil, fmt.Errorf("%w: tipo de respuesta %q ya existe como %s", ErrInvalidDefinition, st.Codigo, st.TipoDato)
		}
		types[st.Codigo] = st
	}
	return types, nil
}

func referencedCodes(def *Definition) []string {
	seen := map[string]bool{}
	var codes []string
	add := func(reqs []RequisitoDef) {
		for _, r := range reqs {
			for _, c := range r.TiposRespuesta {
				if !seen[c] {
					seen[c] = true
					codes = append(codes, c)
				}
			}
		}
	}
	for _, sec := range def.Secciones {
		add(sec.Requisitos)
		for _, sub := range sec.Subcategorias {
			add(sub.Requisitos)
		}
	}
	return codes
}

func build(def *Definition, version string, types map[string]models.TipoRespuesta) (*models.Checklist, error) {
	if len(def.Secciones) == 0 {
		return nil, fmt.Errorf("%w: sin secciones", ErrInvalidDefinition)
	}
	c := &models.Checklist{
		ID:          uuid.NewString(),
		Codigo:      def.Codigo,
		Version:     version,
		Nombre:      def.Nombre,
		Descripcion: def.Descripcion,
		Orden:       def.Orden,
	}
	for i, sd := range def.Secciones {
		if sd.Nombre == "" {
			return nil, fmt.Errorf("%w: sección %d sin nombre", ErrInvalidDefinition, i+1)
		}
		sec := models.Seccion{
			ID:          uuid.NewString(),
			ChecklistID: c.ID,
			Nombre:      sd.Nombre,
			Orden:       orDefault(sd.Orden, i+1),
		}
		reqs, err := buildRequisitos(sd.Requisitos, types)
		if err != nil {
			return nil, err
		}
		for j := range reqs {
			reqs[j].SeccionID = &sec.ID
		}
		sec.Requisitos = reqs

		for j, subd := range sd.Subcategorias {
			sub := models.Subcategoria{
				ID:             uuid.NewString(),
				SeccionID:      sec.ID,
				Nombre:         subd.Nombre,
				NormaAplicable: optional(subd.NormaAplicable),
				Orden:          orDefault(subd.Orden, j+1),
			}
			reqs, err := buildRequisitos(subd.Requisitos, types)
			if err != nil {
				return nil, err
			}
			for k := range reqs {
				reqs[k].SubcategoriaID = &sub.ID
			}
			sub.Requisitos = reqs
			sec.Subcategorias = append(sec.Subcategorias, sub)
		}
		c.Secciones = append(c.Secciones, sec)
	}
	return c, nil
}

func buildRequisitos(defs []RequisitoDef, types map[string]models.TipoRespuesta) ([]models.Requisito, error) {
	reqs := make([]models.Requisito, 0, len(defs))
	for i, rd := range defs {
		if rd.Descripcion == "" || len(rd.TiposRespuesta) == 0 {
			return nil, fmt.Errorf("%w: requisito %q necesita descripción y tipos de respuesta", ErrInvalidDefinition, rd.Descripcion)
		}
		req := models.Requisito{
			ID:             uuid.NewString(),
			Descripcion:    rd.Descripcion,
			NormaAplicable: optional(rd.NormaAplicable),
			Orden:          orDefault(rd.Orden, i+1),
		}
		for _, code := range rd.TiposRespuesta {
			t, ok := types[code]
			if !ok {
				return nil, fmt.Errorf("%w: tipo de respuesta desconocido %q", ErrInvalidDefinition, code)
			}
			req.TiposRespuesta = append(req.TiposRespuesta, t)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// Tree returns the checklist a job type currently points at.
func (s *Service) Tree(ctx context.Context, jobTypeID string) (*models.Checklist, error) {
	if _, err := uuid.Parse(jobTypeID); err != nil {
		return nil, ErrJobTypeNotFound
	}
	jt, err := s.repo.GetJobType(ctx, jobTypeID)
	if err != nil {
		return nil, mapNotFound(err, ErrJobTypeNotFound)
	}
	if jt.ChecklistID == nil {
		return nil, ErrChecklistNotFound
	}
	c, err := s.repo.GetChecklist(ctx, *jt.ChecklistID)
	if err != nil {
		return nil, mapNotFound(err, ErrChecklistNotFound)
	}
	return c, nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func mapNotFound(err, target error) error {
	if errors.Is(err, database.ErrNotFound) {
		return target
	}
	return err
}
