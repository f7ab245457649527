package service

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/lalored20/lavaseco-app-sub000/internal/apierror"
	"github.com/lalored20/lavaseco-app-sub000/internal/dto"
	"github.com/lalored20/lavaseco-app-sub000/internal/lifecycle"
	"github.com/lalored20/lavaseco-app-sub000/internal/model"
	"github.com/lalored20/lavaseco-app-sub000/internal/repository"
	enginesync "github.com/lalored20/lavaseco-app-sub000/internal/sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Notificador wakes the replication engine after a local write. The engine
// satisfies it; tests pass nil.
type Notificador interface {
	Trigger(reason string)
}

type OrdenService interface {
	Crear(ctx context.Context, req dto.CrearOrdenRequest) (*model.Orden, error)
	Obtener(ctx context.Context, id uuid.UUID) (*model.Orden, []model.Abono, error)
	Buscar(ctx context.Context, req dto.OrdenFilterRequest) ([]model.Orden, error)
	AplicarAccion(ctx context.Context, id uuid.UUID, req dto.AccionRequest) (*model.Orden, error)
	Recibo(ctx context.Context, id uuid.UUID, sede string) (*dto.ReciboResponse, error)
	ProximoTicket(ctx context.Context) (int, bool, error)
}

type ordenService struct {
	ordenes  repository.OrdenRepository
	abonos   repository.AbonoRepository
	clientes repository.ClienteRepository
	uow      repository.UnitOfWork
	rdb      *redis.Client
	notif    Notificador
	ahora    func() time.Time

	// Per-order locks: actions are read-modify-write over the local store,
	// two cashiers acting on the same ticket must serialize
	locks lockPool
}

// lockPool hands out one mutex per order id.
type lockPool struct {
	mu    stdsync.Mutex
	locks map[uuid.UUID]*stdsync.Mutex
}

func (m *lockPool) lock(id uuid.UUID) *stdsync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks == nil {
		m.locks = make(map[uuid.UUID]*stdsync.Mutex)
	}
	l, ok := m.locks[id]
	if !ok {
		l = &stdsync.Mutex{}
		m.locks[id] = l
	}
	return l
}

func NewOrdenService(ordenes repository.OrdenRepository, abonos repository.AbonoRepository,
	clientes repository.ClienteRepository, uow repository.UnitOfWork,
	rdb *redis.Client, notif Notificador) OrdenService {
	return &ordenService{
		ordenes:  ordenes,
		abonos:   abonos,
		clientes: clientes,
		uow:      uow,
		rdb:      rdb,
		notif:    notif,
		ahora:    time.Now,
	}
}

func (s *ordenService) Crear(ctx context.Context, req dto.CrearOrdenRequest) (*model.Orden, error) {
	now := s.ahora()

	cedula := normalizarCedula(req.ClienteCedula)
	if cedula == "" {
		return nil, apierror.Validacion("cedula invalida")
	}

	cliente, err := s.clientes.FindOrCreate(ctx, &model.Cliente{
		ID:        cedula,
		Nombre:    req.ClienteNombre,
		Telefono:  req.ClienteTelefono,
		CreatedAt: now,
	})
	if err != nil {
		return nil, apierror.Almacenamiento("no se pudo registrar el cliente: " + err.Error())
	}

	orden := model.Orden{
		ID:              uuid.New(),
		ClienteID:       cliente.ID,
		ClienteNombre:   req.ClienteNombre,
		ClienteTelefono: req.ClienteTelefono,
		Total:           decimal.Zero,
		Pagado:          decimal.Zero,
		Estado:          model.EstadoPendiente,
		EstadoPago:      model.PagoPendiente,
		FechaProgramada: req.FechaProgramada,
		Notas:           req.Notas,
		SyncEstado:      model.SyncPendingSync,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	for _, it := range req.Items {
		subtotal := it.PrecioUnitario.Mul(decimal.NewFromInt(int64(it.Cantidad)))
		orden.Items = append(orden.Items, model.OrdenItem{
			ID:             uuid.New(),
			OrdenID:        orden.ID,
			Descripcion:    it.Descripcion,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       subtotal,
			Marcas:         it.Marcas,
		})
		orden.Total = orden.Total.Add(subtotal)
	}

	var inicial *model.Abono
	if req.AbonoInicial.IsPositive() {
		metodo := req.MetodoAbono
		if metodo == "" {
			metodo = model.MetodoEfectivo
		}
		orden.Pagado = req.AbonoInicial
		orden.EstadoPago = lifecycle.DerivarEstadoPago(orden.Total, orden.Pagado)
		inicial = &model.Abono{
			ID:        uuid.New(),
			OrdenID:   orden.ID,
			Tipo:      model.AbonoInicial,
			Metodo:    metodo,
			Monto:     req.AbonoInicial,
			CreatedAt: now,
		}
	}

	// One transaction: the order and its initial ledger entry land together
	err = s.uow.Do(ctx, func(ordenes repository.OrdenRepository, abonos repository.AbonoRepository) error {
		if err := ordenes.Create(ctx, &orden); err != nil {
			return err
		}
		if inicial != nil {
			return abonos.Append(ctx, inicial)
		}
		return nil
	})
	if err != nil {
		return nil, apierror.Almacenamiento("no se pudo guardar la orden: " + err.Error())
	}

	log.Info().
		Str("orden_id", orden.ID.String()).
		Str("cliente", cliente.ID).
		Str("total", orden.Total.String()).
		Msg("orden creada localmente")

	if s.notif != nil {
		s.notif.Trigger("orden_creada")
	}
	return &orden, nil
}

func (s *ordenService) Obtener(ctx context.Context, id uuid.UUID) (*model.Orden, []model.Abono, error) {
	orden, err := s.ordenes.Get(ctx, id)
	if err == gorm.ErrRecordNotFound {
		return nil, nil, apierror.Validacion("orden no encontrada")
	}
	if err != nil {
		return nil, nil, apierror.Almacenamiento(err.Error())
	}
	ledger, err := s.abonos.ListByOrden(ctx, id)
	if err != nil {
		return nil, nil, apierror.Almacenamiento(err.Error())
	}
	return orden, ledger, nil
}

func (s *ordenService) Buscar(ctx context.Context, req dto.OrdenFilterRequest) ([]model.Orden, error) {
	filter := repository.OrdenFilter{
		Query:  req.Q,
		Estado: req.Estado,
		Limit:  req.Limit,
	}
	if req.Fecha != "" {
		desde, err := time.ParseInLocation("2006-01-02", req.Fecha, time.Local)
		if err != nil {
			return nil, apierror.Validacion("fecha invalida: " + req.Fecha)
		}
		hasta := desde.AddDate(0, 0, 1)
		if req.FechaFin != "" {
			fin, err := time.ParseInLocation("2006-01-02", req.FechaFin, time.Local)
			if err != nil {
				return nil, apierror.Validacion("fecha_fin invalida: " + req.FechaFin)
			}
			hasta = fin.AddDate(0, 0, 1)
		}
		filter.Desde = &desde
		filter.Hasta = &hasta
	}

	ordenes, err := s.ordenes.Search(ctx, filter)
	if err != nil {
		return nil, apierror.Almacenamiento(err.Error())
	}
	return ordenes, nil
}

func (s *ordenService) AplicarAccion(ctx context.Context, id uuid.UUID, req dto.AccionRequest) (*model.Orden, error) {
	l := s.locks.lock(id)
	l.Lock()
	defer l.Unlock()

	orden, err := s.ordenes.Get(ctx, id)
	if err == gorm.ErrRecordNotFound {
		return nil, apierror.Validacion("orden no encontrada")
	}
	if err != nil {
		return nil, apierror.Almacenamiento(err.Error())
	}

	res, err := lifecycle.Aplicar(*orden, lifecycle.Accion{
		Tipo:   req.Tipo,
		Monto:  req.Monto,
		Metodo: req.Metodo,
		Nota:   req.Nota,
	}, s.ahora())
	if err != nil {
		return nil, err
	}

	// Local edit: a SYNCED record flips to PENDING_UPDATE, a record the
	// central store has never seen stays PENDING_SYNC
	if res.Orden.SyncEstado == model.SyncSynced {
		res.Orden.SyncEstado = model.SyncPendingUpdate
	}

	// Ledger entry and order update commit together or not at all
	err = s.uow.Do(ctx, func(ordenes repository.OrdenRepository, abonos repository.AbonoRepository) error {
		if res.NuevoAbono != nil {
			if err := abonos.Append(ctx, res.NuevoAbono); err != nil {
				return err
			}
		}
		return ordenes.Update(ctx, &res.Orden)
	})
	if err != nil {
		return nil, apierror.Almacenamiento("no se pudo actualizar la orden: " + err.Error())
	}

	s.verificarLedger(ctx, &res.Orden)

	log.Info().
		Str("orden_id", id.String()).
		Str("accion", req.Tipo).
		Str("estado", res.Orden.Estado).
		Msg("accion aplicada")

	if s.notif != nil {
		s.notif.Trigger("accion_" + req.Tipo)
	}
	return &res.Orden, nil
}

// verificarLedger cross-checks the ledger-sum invariant after every mutation.
// A mismatch is logged loudly but does not fail the request: the counter must
// keep working and the replication engine reconciles later.
func (s *ordenService) verificarLedger(ctx context.Context, o *model.Orden) {
	suma, err := s.abonos.SumByOrden(ctx, o.ID)
	if err != nil {
		return
	}
	if !suma.Equal(o.Pagado) {
		log.Error().
			Str("orden_id", o.ID.String()).
			Str("pagado", o.Pagado.String()).
			Str("suma_ledger", suma.String()).
			Msg("invariante roto: pagado != suma del ledger")
	}
}

func (s *ordenService) Recibo(ctx context.Context, id uuid.UUID, sede string) (*dto.ReciboResponse, error) {
	orden, _, err := s.Obtener(ctx, id)
	if err != nil {
		return nil, err
	}

	rec := &dto.ReciboResponse{
		NumeroTicket:    orden.NumeroTicket,
		Sede:            sede,
		ClienteNombre:   orden.ClienteNombre,
		ClienteCedula:   orden.ClienteID,
		ClienteTelefono: orden.ClienteTelefono,
		Total:           orden.Total,
		Pagado:          orden.Pagado,
		Saldo:           orden.Total.Sub(orden.Pagado),
		FechaRecepcion:  orden.CreatedAt.Format("2006-01-02 15:04"),
		Notas:           orden.Notas,
	}
	if orden.FechaProgramada != nil {
		rec.FechaProgramada = orden.FechaProgramada.Format("2006-01-02")
	}
	for _, it := range orden.Items {
		linea := fmt.Sprintf("%dx %s  $%s", it.Cantidad, it.Descripcion, it.Subtotal.StringFixed(0))
		if it.Marcas != "" {
			linea += " (" + it.Marcas + ")"
		}
		rec.Lineas = append(rec.Lineas, linea)
	}
	return rec, nil
}

// ProximoTicket returns the next probable ticket number. It prefers the
// Redis hint kept fresh by pull cycles; with no hint it falls back to the
// local maximum. Either way it is an estimate — the central store has the
// final word at push time.
func (s *ordenService) ProximoTicket(ctx context.Context) (int, bool, error) {
	if s.rdb != nil {
		n, err := s.rdb.Get(ctx, enginesync.UltimoTicketKey).Int()
		if err == nil {
			return n + 1, false, nil
		}
	}
	ordenes, err := s.ordenes.Search(ctx, repository.OrdenFilter{Limit: 200})
	if err != nil {
		return 0, false, apierror.Almacenamiento(err.Error())
	}
	max := 0
	for _, o := range ordenes {
		if o.NumeroTicket > max {
			max = o.NumeroTicket
		}
	}
	return max + 1, true, nil
}

func normalizarCedula(s string) string {
	var out []rune
	for _, r := range s {
		if r >= '0' && r <= '9' {
			out = append(out, r)
		}
	}
	return string(out)
}
