package service

import (
	"context"
	"time"

	"github.com/lalored20/lavaseco-app-sub000/internal/apierror"
	"github.com/lalored20/lavaseco-app-sub000/internal/dto"
	"github.com/lalored20/lavaseco-app-sub000/internal/model"
	"github.com/lalored20/lavaseco-app-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// plazoEliminarGasto: expenses older than this belong to frozen accounting
// windows and cannot be deleted anymore.
const plazoEliminarGasto = 72 * time.Hour

type CajaService interface {
	Resumen(ctx context.Context, req dto.ResumenFilter) (*dto.ResumenCaja, error)
	CerrarTurno(ctx context.Context, req dto.CerrarTurnoRequest) (*model.Turno, error)
	ListTurnos(ctx context.Context, fecha string) ([]model.Turno, error)
	RegistrarGasto(ctx context.Context, req dto.GastoRequest) (*model.Gasto, error)
	EliminarGasto(ctx context.Context, id uuid.UUID) error
}

type cajaService struct {
	abonos repository.AbonoRepository
	gastos repository.GastoRepository
	turnos repository.TurnoRepository
	ahora  func() time.Time
}

func NewCajaService(abonos repository.AbonoRepository, gastos repository.GastoRepository,
	turnos repository.TurnoRepository) CajaService {
	return &cajaService{abonos: abonos, gastos: gastos, turnos: turnos, ahora: time.Now}
}

// ResolverVentana computes the accounting window for a day.
//   - Multi-day ranges and ignorarTurnos always span whole days.
//   - Otherwise, when a turn already closed on that day, the window starts
//     where the turn ended: the drawer was counted and taken at that point.
//   - The window ends "now" for today, at midnight for past days.
//
// Pure on purpose: ultimoCierre is the last closed turn's end time (nil when
// the day has no closed turn) and ahora is injected.
func ResolverVentana(dia time.Time, finDia *time.Time, ignorarTurnos bool,
	ultimoCierre *time.Time, ahora time.Time) (time.Time, time.Time) {

	desde := medianoche(dia)
	hasta := desde.AddDate(0, 0, 1)

	if finDia != nil {
		return desde, medianoche(*finDia).AddDate(0, 0, 1)
	}

	esHoy := medianoche(ahora).Equal(desde)
	if esHoy {
		hasta = ahora
	}

	if !ignorarTurnos && ultimoCierre != nil && !ultimoCierre.Before(desde) {
		desde = *ultimoCierre
	}
	return desde, hasta
}

func medianoche(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func (s *cajaService) ventana(ctx context.Context, req dto.ResumenFilter) (time.Time, time.Time, error) {
	ahora := s.ahora()

	dia := ahora
	if req.Fecha != "" {
		d, err := time.ParseInLocation("2006-01-02", req.Fecha, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, apierror.Validacion("fecha invalida: " + req.Fecha)
		}
		dia = d
	}

	var finDia *time.Time
	if req.FechaFin != "" {
		f, err := time.ParseInLocation("2006-01-02", req.FechaFin, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, apierror.Validacion("fecha_fin invalida: " + req.FechaFin)
		}
		finDia = &f
	}

	var ultimoCierre *time.Time
	if finDia == nil && !req.IgnorarTurnos {
		turno, err := s.turnos.UltimoDelDia(ctx, medianoche(dia))
		switch {
		case err == gorm.ErrRecordNotFound:
			// no closed turn today — full day window
		case err != nil:
			return time.Time{}, time.Time{}, apierror.Almacenamiento(err.Error())
		default:
			ultimoCierre = &turno.EndTime
		}
	}

	desde, hasta := ResolverVentana(dia, finDia, req.IgnorarTurnos, ultimoCierre, ahora)
	return desde, hasta, nil
}

func (s *cajaService) Resumen(ctx context.Context, req dto.ResumenFilter) (*dto.ResumenCaja, error) {
	desde, hasta, err := s.ventana(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.resumenVentana(ctx, desde, hasta)
}

func (s *cajaService) resumenVentana(ctx context.Context, desde, hasta time.Time) (*dto.ResumenCaja, error) {
	abonos, err := s.abonos.ListEnVentana(ctx, desde, hasta)
	if err != nil {
		return nil, apierror.Almacenamiento(err.Error())
	}
	gastos, err := s.gastos.ListEnVentana(ctx, desde, hasta)
	if err != nil {
		return nil, apierror.Almacenamiento(err.Error())
	}

	res := &dto.ResumenCaja{
		Desde:          desde.Format(time.RFC3339),
		Hasta:          hasta.Format(time.RFC3339),
		TotalEfectivo:  decimal.Zero,
		TotalDigital:   decimal.Zero,
		TotalRecaudado: decimal.Zero,
		TotalGastos:    decimal.Zero,
		NumPagos:       len(abonos),
	}

	porMetodo := make(map[string]*dto.MetodoTotal)
	for _, a := range abonos {
		if model.EsDigital(a.Metodo) {
			res.TotalDigital = res.TotalDigital.Add(a.Monto)
		} else {
			res.TotalEfectivo = res.TotalEfectivo.Add(a.Monto)
		}
		mt, ok := porMetodo[a.Metodo]
		if !ok {
			mt = &dto.MetodoTotal{Metodo: a.Metodo, Total: decimal.Zero}
			porMetodo[a.Metodo] = mt
		}
		mt.Total = mt.Total.Add(a.Monto)
		mt.Conteo++
	}
	// Stable method order in the response
	for _, metodo := range []string{
		model.MetodoEfectivo, model.MetodoNequi, model.MetodoDaviplata,
		model.MetodoTarjeta, model.MetodoTransferencia, model.MetodoOtro,
	} {
		if mt, ok := porMetodo[metodo]; ok {
			res.PorMetodo = append(res.PorMetodo, *mt)
		}
	}

	for _, g := range gastos {
		res.TotalGastos = res.TotalGastos.Add(g.Monto)
		res.Gastos = append(res.Gastos, dto.GastoResponse{
			ID:          g.ID.String(),
			Descripcion: g.Descripcion,
			Monto:       g.Monto,
			Metodo:      g.Metodo,
			CreatedAt:   g.CreatedAt.Format(time.RFC3339),
		})
	}

	res.TotalRecaudado = res.TotalEfectivo.Add(res.TotalDigital)
	res.EfectivoNeto = res.TotalEfectivo.Sub(res.TotalGastos)
	return res, nil
}

// CerrarTurno freezes the current window into an immutable Turno snapshot.
// Later payments belong to the next window; the snapshot is never recomputed.
func (s *cajaService) CerrarTurno(ctx context.Context, req dto.CerrarTurnoRequest) (*model.Turno, error) {
	ahora := s.ahora()
	hoy := medianoche(ahora)

	desde := hoy
	numero := 1

	ultimo, err := s.turnos.Ultimo(ctx)
	switch {
	case err == gorm.ErrRecordNotFound:
		// first turn ever
	case err != nil:
		return nil, apierror.Almacenamiento(err.Error())
	default:
		if medianoche(ultimo.EndTime).Equal(hoy) {
			numero = ultimo.NumeroTurno + 1
			desde = ultimo.EndTime
		}
	}

	resumen, err := s.resumenVentana(ctx, desde, ahora)
	if err != nil {
		return nil, err
	}

	turno := &model.Turno{
		ID:             uuid.New(),
		NumeroTurno:    numero,
		Fecha:          hoy,
		StartTime:      desde,
		EndTime:        ahora,
		CerradoPor:     req.CerradoPor,
		TotalEfectivo:  resumen.TotalEfectivo,
		TotalDigital:   resumen.TotalDigital,
		TotalGastos:    resumen.TotalGastos,
		EfectivoNeto:   resumen.EfectivoNeto,
		TotalCalculado: resumen.TotalRecaudado,
		Observaciones:  req.Observaciones,
		CreatedAt:      ahora,
	}
	if err := s.turnos.Create(ctx, turno); err != nil {
		return nil, apierror.Almacenamiento("no se pudo cerrar el turno: " + err.Error())
	}

	log.Info().
		Int("numero_turno", turno.NumeroTurno).
		Str("efectivo_neto", turno.EfectivoNeto.String()).
		Str("cerrado_por", turno.CerradoPor).
		Msg("turno cerrado")
	return turno, nil
}

func (s *cajaService) ListTurnos(ctx context.Context, fecha string) ([]model.Turno, error) {
	dia := s.ahora()
	if fecha != "" {
		d, err := time.ParseInLocation("2006-01-02", fecha, time.Local)
		if err != nil {
			return nil, apierror.Validacion("fecha invalida: " + fecha)
		}
		dia = d
	}
	turnos, err := s.turnos.ListByFecha(ctx, medianoche(dia))
	if err != nil {
		return nil, apierror.Almacenamiento(err.Error())
	}
	return turnos, nil
}

func (s *cajaService) RegistrarGasto(ctx context.Context, req dto.GastoRequest) (*model.Gasto, error) {
	if !req.Monto.IsPositive() {
		return nil, apierror.Validacion("el monto del gasto debe ser mayor a cero")
	}
	metodo := req.Metodo
	if metodo == "" {
		metodo = model.MetodoEfectivo
	}
	gasto := &model.Gasto{
		ID:          uuid.New(),
		Descripcion: req.Descripcion,
		Monto:       req.Monto,
		Metodo:      metodo,
		CreatedAt:   s.ahora(),
	}
	if err := s.gastos.Create(ctx, gasto); err != nil {
		return nil, apierror.Almacenamiento("no se pudo registrar el gasto: " + err.Error())
	}
	return gasto, nil
}

func (s *cajaService) EliminarGasto(ctx context.Context, id uuid.UUID) error {
	gasto, err := s.gastos.Get(ctx, id)
	if err == gorm.ErrRecordNotFound {
		return apierror.Validacion("gasto no encontrado")
	}
	if err != nil {
		return apierror.Almacenamiento(err.Error())
	}
	if s.ahora().Sub(gasto.CreatedAt) > plazoEliminarGasto {
		return apierror.Validacion("el gasto tiene mas de 3 dias y ya no puede eliminarse")
	}
	return s.gastos.Delete(ctx, id)
}
