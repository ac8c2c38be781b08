package documents

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/terra-energy/inspecciones/internal/cache"
	"github.com/terra-energy/inspecciones/internal/checklist"
	"github.com/terra-energy/inspecciones/internal/database"
	"github.com/terra-energy/inspecciones/internal/models"
	"github.com/terra-energy/inspecciones/internal/services/printer"
	"github.com/terra-energy/inspecciones/internal/storage"
	"github.com/terra-energy/inspecciones/internal/verification"
)

const displayDate = "02/01/2006"

var (
	ErrDocumentNotFound       = errors.New("documento no encontrado")
	ErrInspectionNotFound     = errors.New("inspección no encontrada")
	ErrInspectionNotCompleted = errors.New("la inspección no está completada")
	ErrDocumentExists         = errors.New("la inspección ya tiene un documento")
	ErrInvalidImage           = errors.New("imagen no permitida")
)

// Repository is the persistence the service needs.
type Repository interface {
	GetDocument(ctx context.Context, id string) (*models.Documento, error)
	GetDocumentByInspection(ctx context.Context, inspectionID string) (*models.Documento, error)
	CreateDocument(ctx context.Context, doc *models.Documento, number func(seq int) string) error
	SetDocumentPayload(ctx context.Context, id string, payload verification.Payload) error
	SetDocumentPDFURL(ctx context.Context, id, url string) error
	GetInspection(ctx context.Context, id string) (*models.Inspeccion, error)
	ListAnswers(ctx context.Context, inspectionID string) ([]models.Respuesta, error)
}

type Config struct {
	BaseURL        string
	DocumentCode   string
	NumberPrefix   string
	CompanyLogoURL string
}

// Service issues certificates and renders them.
type Service struct {
	repo   Repository
	store  storage.Store
	cache  *cache.PDFCache
	images ImageFetcher
	cfg    Config
	log    *zap.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// New builds the service. store and pdfCache may be nil.
func New(repo Repository, store storage.Store, pdfCache *cache.PDFCache, images ImageFetcher, cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		store:  store,
		cache:  pdfCache,
		images: images,
		cfg:    cfg,
		log:    log.Named("documents"),
		tracer: otel.Tracer("github.com/terra-energy/inspecciones/documents"),
		now:    time.Now,
	}
}

// CreateInput is what the caller may set when issuing a certificate.
type CreateInput struct {
	Revision         string   `json:"revision"`
	Observaciones    string   `json:"observaciones"`
	Imagenes         []string `json:"imagenes"`
	ConObservaciones bool     `json:"conObservaciones"`
}

// Create issues the certificate of a completed inspection. The row is
// inserted with a pending verification payload, then finalized once its id
// exists. A retry on a document still pending finalizes it instead of
// failing. Rendering and storing the PDF is best effort.
func (s *Service) Create(ctx context.Context, inspectionID string, in CreateInput) (*models.Documento, models.Change, error) {
	ctx, span := s.tracer.Start(ctx, "documents.Create", trace.WithAttributes(attribute.String("inspeccion.id", inspectionID)))
	defer span.End()

	if _, err := uuid.Parse(inspectionID); err != nil {
		return nil, models.Change{}, ErrInspectionNotFound
	}
	insp, err := s.repo.GetInspection(ctx, inspectionID)
	if err != nil {
		return nil, models.Change{}, s.mapNotFound(err, ErrInspectionNotFound)
	}
	if insp.Estado != models.InspeccionCompletada {
		return nil, models.Change{}, ErrInspectionNotCompleted
	}

	if existing, err := s.repo.GetDocumentByInspection(ctx, inspectionID); err == nil {
		if existing.QRPayload.IsIssued() {
			return nil, models.Change{}, ErrDocumentExists
		}
		// an earlier create stopped before its token was issued
		return s.complete(ctx, existing)
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, models.Change{}, err
	}

	if checker, ok := s.images.(interface{ Allowed(string) error }); ok {
		for _, img := range in.Imagenes {
			if err := checker.Allowed(img); err != nil {
				return nil, models.Change{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
			}
		}
	}

	answers, err := s.repo.ListAnswers(ctx, inspectionID)
	if err != nil {
		return nil, models.Change{}, fmt.Errorf("list answers: %w", err)
	}
	result := checklist.Evaluate(models.Rows(answers))
	if in.ConObservaciones && result == checklist.Approved {
		result = checklist.WithObservations
	}

	issued := s.now().UTC()
	if insp.FechaCompletada != nil {
		issued = insp.FechaCompletada.UTC()
	}
	issued = time.Date(issued.Year(), issued.Month(), issued.Day(), 0, 0, 0, 0, time.UTC)
	expires := issued.AddDate(1, 0, 0)

	revision := in.Revision
	if revision == "" {
		revision = "0"
	}

	doc := &models.Documento{
		ID:               uuid.NewString(),
		InspeccionID:     inspectionID,
		CodigoDocumento:  s.cfg.DocumentCode,
		Revision:         revision,
		FechaDocumento:   issued,
		FechaVencimiento: &expires,
		Resultado:        result,
		Observaciones:    in.Observaciones,
		OperadorNombre:   insp.OperadorNombre,
		SupervisorNombre: insp.SupervisorNombre,
		Imagenes:         in.Imagenes,
		QRPayload:        verification.Pending(),
	}
	err = s.repo.CreateDocument(ctx, doc, func(seq int) string {
		return FormatNumber(s.cfg.NumberPrefix, issued.Year(), seq)
	})
	if errors.Is(err, database.ErrDuplicate) {
		return nil, models.Change{}, ErrDocumentExists
	}
	if err != nil {
		return nil, models.Change{}, fmt.Errorf("create document: %w", err)
	}

	return s.complete(ctx, doc)
}

// complete runs the second phase of Create: issue the token, then store the
// rendered PDF.
func (s *Service) complete(ctx context.Context, doc *models.Documento) (*models.Documento, models.Change, error) {
	if err := s.Finalize(ctx, doc); err != nil {
		return nil, models.Change{}, err
	}

	s.storePDF(ctx, doc)

	s.log.Info("document created",
		zap.String("documento", doc.ID),
		zap.String("numero", doc.NumeroDocumento),
		zap.String("resultado", string(doc.Resultado)))

	return doc, models.Change{Entity: "documento", ID: doc.ID, Action: "created"}, nil
}

// FormatNumber renders a document number such as INF-2024-0001.
func FormatNumber(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq)
}

// Finalize issues the verification token of a persisted document and
// records its payload.
func (s *Service) Finalize(ctx context.Context, doc *models.Documento) error {
	tok, err := verification.Issue(doc.ID, s.cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("issue verification token: %w", err)
	}
	payload := verification.Issued(tok.Payload)
	if err := s.repo.SetDocumentPayload(ctx, doc.ID, payload); err != nil {
		return fmt.Errorf("store verification payload: %w", err)
	}
	doc.QRPayload = payload
	return nil
}

func (s *Service) storePDF(ctx context.Context, doc *models.Documento) {
	if s.store == nil {
		return
	}
	pdf, _, complete, err := s.render(ctx, doc.ID)
	if err != nil {
		s.log.Warn("render after create failed", zap.String("documento", doc.ID), zap.Error(err))
		return
	}
	if !complete {
		s.log.Warn("pdf not stored, some images could not be fetched", zap.String("documento", doc.ID))
		return
	}

	ctx, span := s.tracer.Start(ctx, "documents.store")
	defer span.End()

	loc, err := s.store.Put(ctx, storage.DocumentKey(doc.NumeroDocumento), pdf)
	if err != nil {
		span.RecordError(err)
		s.log.Warn("store pdf failed", zap.String("documento", doc.ID), zap.Error(err))
		return
	}
	if err := s.repo.SetDocumentPDFURL(ctx, doc.ID, loc); err != nil {
		s.log.Warn("record pdf url failed", zap.String("documento", doc.ID), zap.Error(err))
		return
	}
	doc.PDFURL = &loc
}

// RenderPDF runs the whole certificate pipeline for a document and returns
// the PDF bytes and the document number.
func (s *Service) RenderPDF(ctx context.Context, documentID string) ([]byte, string, error) {
	pdf, numero, _, err := s.render(ctx, documentID)
	return pdf, numero, err
}

// render reports whether every requested image made it into the PDF. Only
// complete renders are cached.
func (s *Service) render(ctx context.Context, documentID string) ([]byte, string, bool, error) {
	ctx, span := s.tracer.Start(ctx, "documents.RenderPDF", trace.WithAttributes(attribute.String("documento.id", documentID)))
	defer span.End()

	data, err := s.Informe(ctx, documentID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, "", false, err
	}

	key, err := cache.Key(data)
	if err != nil {
		s.log.Warn("cache key failed", zap.Error(err))
	} else if pdf, ok := s.cache.Get(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return pdf, data.NumeroDocumento, true, nil
	}

	assets, complete := s.fetchAssets(ctx, data)

	_, renderSpan := s.tracer.Start(ctx, "documents.render")
	pdf, err := printer.GenerateInformePDF(*data, assets)
	renderSpan.End()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, "", false, fmt.Errorf("render informe: %w", err)
	}

	switch {
	case !complete:
		s.log.Warn("render not cached, some images could not be fetched", zap.String("documento", documentID))
	case key != "":
		s.cache.Set(ctx, key, pdf)
	}
	return pdf, data.NumeroDocumento, complete, nil
}

// Informe assembles the renderer input of a document: the document row,
// then the inspection and its answers concurrently, aggregated and
// evaluated.
func (s *Service) Informe(ctx context.Context, documentID string) (*printer.InformeData, error) {
	ctx, span := s.tracer.Start(ctx, "documents.fetch")
	defer span.End()

	doc, err := s.getDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	var (
		insp    *models.Inspeccion
		answers []models.Respuesta
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		insp, err = s.repo.GetInspection(gctx, doc.InspeccionID)
		if err != nil {
			return s.mapNotFound(err, ErrInspectionNotFound)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		answers, err = s.repo.ListAnswers(gctx, doc.InspeccionID)
		if err != nil {
			return fmt.Errorf("list answers: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tok, err := verification.Issue(doc.ID, s.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("issue verification token: %w", err)
	}

	return s.buildInforme(doc, insp, models.Rows(answers), tok), nil
}

func (s *Service) buildInforme(doc *models.Documento, insp *models.Inspeccion, rows []checklist.AnswerRow, tok verification.Token) *printer.InformeData {
	result := checklist.Evaluate(rows)
	if doc.Resultado == checklist.WithObservations && result == checklist.Approved {
		result = checklist.WithObservations
	}

	data := &printer.InformeData{
		NumeroDocumento:  doc.NumeroDocumento,
		Revision:         doc.Revision,
		FechaDocumento:   doc.FechaDocumento.Format(displayDate),
		CodigoDocumento:  doc.CodigoDocumento,
		TerraLogoURL:     s.cfg.CompanyLogoURL,
		NumeroInspeccion: insp.NumeroInspeccion,
		FechaInspeccion:  insp.FechaProgramada.Format(displayDate),
		TipoInspeccion:   printer.DefaultTitle,
		QRDataURL:        tok.QRDataURL,
		Resultado:        result,
		Observaciones:    doc.Observaciones,
		Secciones:        printer.FromSections(checklist.Aggregate(rows)),
		Imagenes:         []string(doc.Imagenes),
		OperadorNombre:   doc.OperadorNombre,
		SupervisorNombre: doc.SupervisorNombre,
	}
	if doc.FechaVencimiento != nil {
		data.FechaVencimiento = doc.FechaVencimiento.Format(displayDate)
	}
	if insp.FechaCompletada != nil {
		data.FechaInspeccion = insp.FechaCompletada.Format(displayDate)
	}
	if sol := insp.Solicitud; sol != nil {
		data.Lugar = sol.Lugar
		data.Contacto = sol.Contacto
		data.Equipo = sol.Equipo.Label()
		if c := sol.Cliente; c != nil {
			data.ClienteNombre = c.Nombre
			if data.Contacto == "" {
				data.Contacto = c.Contacto
			}
			if c.LogoURL != nil {
				data.ClienteLogo = *c.LogoURL
			}
		}
		if t := sol.TipoInspeccion; t != nil && t.Nombre != "" {
			data.TipoInspeccion = t.Nombre
		}
	}
	return data
}

// fetchAssets loads every image of the certificate concurrently. A failed
// image is logged and left out of the document; complete is false when a
// fetch failed for a reason other than the URL not being allowed.
func (s *Service) fetchAssets(ctx context.Context, data *printer.InformeData) (assets printer.Assets, complete bool) {
	assets = printer.Assets{Photos: make([][]byte, len(data.Imagenes))}
	if s.images == nil {
		return assets, true
	}
	var failed atomic.Bool

	ctx, span := s.tracer.Start(ctx, "documents.images")
	defer span.End()

	var g errgroup.Group
	g.SetLimit(4)
	fetch := func(url string, dst *[]byte) {
		if url == "" {
			return
		}
		g.Go(func() error {
			b, err := s.images.Fetch(ctx, url)
			if err != nil {
				s.log.Warn("image fetch failed", zap.String("url", url), zap.Error(err))
				if !errors.Is(err, ErrImageNotAllowed) {
					failed.Store(true)
				}
				return nil
			}
			*dst = b
			return nil
		})
	}
	fetch(data.TerraLogoURL, &assets.CompanyLogo)
	fetch(data.ClienteLogo, &assets.ClientLogo)
	for i, url := range data.Imagenes {
		fetch(url, &assets.Photos[i])
	}
	_ = g.Wait()
	return assets, !failed.Load()
}

// Summary is the public view of a certificate shown on the verification page.
type Summary struct {
	ID               string           `json:"id"`
	NumeroDocumento  string           `json:"numeroDocumento"`
	Revision         string           `json:"revision"`
	FechaDocumento   string           `json:"fechaDocumento"`
	FechaVencimiento string           `json:"fechaVencimiento,omitempty"`
	Vigente          bool             `json:"vigente"`
	Lugar            string           `json:"lugar"`
	Equipo           string           `json:"equipo"`
	Cliente          string           `json:"cliente"`
	TipoInspeccion   string           `json:"tipoInspeccion"`
	Resultado        checklist.Result `json:"resultado"`
	ResultadoTexto   string           `json:"resultadoTexto"`
	Observaciones    string           `json:"observaciones,omitempty"`
}

// Verify returns the public summary of a document.
func (s *Service) Verify(ctx context.Context, documentID string) (*Summary, error) {
	doc, err := s.getDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		ID:              doc.ID,
		NumeroDocumento: doc.NumeroDocumento,
		Revision:        doc.Revision,
		FechaDocumento:  doc.FechaDocumento.Format(displayDate),
		Vigente:         doc.Vigente(s.now()),
		Resultado:       doc.Resultado,
		ResultadoTexto:  doc.Resultado.Label(),
		Observaciones:   doc.Observaciones,
	}
	if doc.FechaVencimiento != nil {
		sum.FechaVencimiento = doc.FechaVencimiento.Format(displayDate)
	}

	insp, err := s.repo.GetInspection(ctx, doc.InspeccionID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}
	if insp != nil && insp.Solicitud != nil {
		sol := insp.Solicitud
		sum.Lugar = sol.Lugar
		sum.Equipo = sol.Equipo.Label()
		if sol.Cliente != nil {
			sum.Cliente = sol.Cliente.Nombre
		}
		if sol.TipoInspeccion != nil {
			sum.TipoInspeccion = sol.TipoInspeccion.Nombre
		}
	}
	return sum, nil
}

// Labels prints a sheet of verification stickers for a document.
func (s *Service) Labels(ctx context.Context, documentID string, copies int) ([]byte, string, error) {
	doc, err := s.getDocument(ctx, documentID)
	if err != nil {
		return nil, "", err
	}
	payload := verification.URL(doc.ID, s.cfg.BaseURL)

	cfg := printer.LabelConfig{
		Payload:         payload,
		NumeroDocumento: doc.NumeroDocumento,
		Copies:          copies,
	}
	if doc.FechaVencimiento != nil {
		cfg.Vencimiento = doc.FechaVencimiento.Format(displayDate)
	}
	pdf, err := printer.GenerateLabelsPDF(cfg)
	if err != nil {
		return nil, "", fmt.Errorf("render labels: %w", err)
	}
	return pdf, doc.NumeroDocumento, nil
}

func (s *Service) Get(ctx context.Context, documentID string) (*models.Documento, error) {
	return s.getDocument(ctx, documentID)
}

// getDocument treats ids that are not UUIDs as unknown documents.
func (s *Service) getDocument(ctx context.Context, id string) (*models.Documento, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrDocumentNotFound
	}
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, s.mapNotFound(err, ErrDocumentNotFound)
	}
	return doc, nil
}

func (s *Service) mapNotFound(err, target error) error {
	if errors.Is(err, database.ErrNotFound) {
		return target
	}
	return err
}
