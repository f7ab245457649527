package service

import (
	"context"
	"sort"
	"time"

	"github.com/lalored20/lavaseco-app-sub000/internal/apierror"
	"github.com/lalored20/lavaseco-app-sub000/internal/dto"
	"github.com/lalored20/lavaseco-app-sub000/internal/model"
	"github.com/lalored20/lavaseco-app-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// LogisticaService keeps the daily garment tallies and builds the per-day
// view that crosses them with the order flow (received vs delivered).
type LogisticaService interface {
	GuardarConteo(ctx context.Context, req dto.ConteoRequest) (*model.ConteoPrendas, error)
	Historial(ctx context.Context, limit int) ([]model.ConteoPrendas, error)
	Resumen(ctx context.Context, req dto.LogisticaFilter) ([]dto.DiaLogistica, error)
}

type logisticaService struct {
	conteos repository.ConteoRepository
	ordenes repository.OrdenRepository
	ahora   func() time.Time
}

func NewLogisticaService(conteos repository.ConteoRepository,
	ordenes repository.OrdenRepository) LogisticaService {
	return &logisticaService{conteos: conteos, ordenes: ordenes, ahora: time.Now}
}

func (s *logisticaService) GuardarConteo(ctx context.Context, req dto.ConteoRequest) (*model.ConteoPrendas, error) {
	dia, err := time.ParseInLocation("2006-01-02", req.Fecha, time.Local)
	if err != nil {
		return nil, apierror.Validacion("fecha invalida: " + req.Fecha)
	}
	if req.ConteoPlanta < 0 || req.ConteoCasa < 0 {
		return nil, apierror.Validacion("los conteos no pueden ser negativos")
	}

	ahora := s.ahora()
	conteo := &model.ConteoPrendas{
		ID:           uuid.New(),
		Fecha:        medianoche(dia),
		ConteoPlanta: req.ConteoPlanta,
		ConteoCasa:   req.ConteoCasa,
		NotasPlanta:  req.NotasPlanta,
		NotasCasa:    req.NotasCasa,
		CreatedAt:    ahora,
		UpdatedAt:    ahora,
	}
	if err := s.conteos.Upsert(ctx, conteo); err != nil {
		return nil, apierror.Almacenamiento("no se pudo guardar el conteo: " + err.Error())
	}

	// The stored row keeps its original id when the day already existed
	guardado, err := s.conteos.GetByFecha(ctx, conteo.Fecha)
	if err != nil {
		return nil, apierror.Almacenamiento(err.Error())
	}

	log.Info().
		Str("fecha", req.Fecha).
		Int("planta", guardado.ConteoPlanta).
		Int("casa", guardado.ConteoCasa).
		Msg("conteo diario guardado")
	return guardado, nil
}

func (s *logisticaService) Historial(ctx context.Context, limit int) ([]model.ConteoPrendas, error) {
	conteos, err := s.conteos.ListRecientes(ctx, limit)
	if err != nil {
		return nil, apierror.Almacenamiento(err.Error())
	}
	return conteos, nil
}

// Resumen buckets tallies, intakes and deliveries by local calendar day over
// the requested range (default: the last week through today).
func (s *logisticaService) Resumen(ctx context.Context, req dto.LogisticaFilter) ([]dto.DiaLogistica, error) {
	ahora := s.ahora()

	desde := medianoche(ahora).AddDate(0, 0, -7)
	if req.Desde != "" {
		d, err := time.ParseInLocation("2006-01-02", req.Desde, time.Local)
		if err != nil {
			return nil, apierror.Validacion("desde invalida: " + req.Desde)
		}
		desde = medianoche(d)
	}
	hasta := medianoche(ahora).AddDate(0, 0, 1)
	if req.Hasta != "" {
		h, err := time.ParseInLocation("2006-01-02", req.Hasta, time.Local)
		if err != nil {
			return nil, apierror.Validacion("hasta invalida: " + req.Hasta)
		}
		hasta = medianoche(h).AddDate(0, 0, 1)
	}
	if !hasta.After(desde) {
		return nil, apierror.Validacion("rango de fechas invalido")
	}

	conteos, err := s.conteos.ListEnRango(ctx, desde, hasta)
	if err != nil {
		return nil, apierror.Almacenamiento(err.Error())
	}
	creadas, err := s.ordenes.ListCreadasEnRango(ctx, desde, hasta)
	if err != nil {
		return nil, apierror.Almacenamiento(err.Error())
	}
	entregadas, err := s.ordenes.ListEntregadasEnRango(ctx, desde, hasta)
	if err != nil {
		return nil, apierror.Almacenamiento(err.Error())
	}

	dias := make(map[string]*dto.DiaLogistica)
	diaDe := func(t time.Time) *dto.DiaLogistica {
		k := t.In(time.Local).Format("2006-01-02")
		d, ok := dias[k]
		if !ok {
			d = &dto.DiaLogistica{Fecha: k}
			dias[k] = d
		}
		return d
	}

	for _, c := range conteos {
		d := diaDe(c.Fecha)
		d.Planta = c.ConteoPlanta
		d.Casa = c.ConteoCasa
		d.NotasPlanta = c.NotasPlanta
		d.NotasCasa = c.NotasCasa
	}
	for _, o := range creadas {
		diaDe(o.CreatedAt).Ingresos++
	}
	for _, o := range entregadas {
		if o.FechaEntrega != nil {
			diaDe(*o.FechaEntrega).Egresos++
		}
	}

	out := make([]dto.DiaLogistica, 0, len(dias))
	for _, d := range dias {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fecha < out[j].Fecha })
	return out, nil
}
