package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lalored20/lavaseco-app-sub000/internal/apierror"
	"github.com/lalored20/lavaseco-app-sub000/internal/dto"
	"github.com/lalored20/lavaseco-app-sub000/internal/model"
	"github.com/lalored20/lavaseco-app-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memOrdenes struct{ ordenes map[uuid.UUID]*model.Orden }

var _ repository.OrdenRepository = (*memOrdenes)(nil)

func newMemOrdenes() *memOrdenes { return &memOrdenes{ordenes: make(map[uuid.UUID]*model.Orden)} }

func (m *memOrdenes) Create(_ context.Context, o *model.Orden) error {
	cp := *o
	m.ordenes[o.ID] = &cp
	return nil
}

func (m *memOrdenes) Get(_ context.Context, id uuid.UUID) (*model.Orden, error) {
	o, ok := m.ordenes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrdenes) GetByTicket(_ context.Context, numero int) (*model.Orden, error) {
	for _, o := range m.ordenes {
		if o.NumeroTicket == numero {
			cp := *o
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memOrdenes) Update(_ context.Context, o *model.Orden) error {
	cp := *o
	m.ordenes[o.ID] = &cp
	return nil
}

func (m *memOrdenes) Upsert(_ context.Context, o *model.Orden) error {
	return m.Update(context.Background(), o)
}

func (m *memOrdenes) Search(_ context.Context, _ repository.OrdenFilter) ([]model.Orden, error) {
	var out []model.Orden
	for _, o := range m.ordenes {
		out = append(out, *o)
	}
	return out, nil
}

func (m *memOrdenes) ListCreadasEnRango(_ context.Context, desde, hasta time.Time) ([]model.Orden, error) {
	var out []model.Orden
	for _, o := range m.ordenes {
		if !o.CreatedAt.Before(desde) && o.CreatedAt.Before(hasta) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memOrdenes) ListEntregadasEnRango(_ context.Context, desde, hasta time.Time) ([]model.Orden, error) {
	var out []model.Orden
	for _, o := range m.ordenes {
		if o.Estado == model.EstadoEntregado && o.FechaEntrega != nil &&
			!o.FechaEntrega.Before(desde) && o.FechaEntrega.Before(hasta) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memOrdenes) ListPendientes(_ context.Context, limit int) ([]model.Orden, error) {
	var out []model.Orden
	for _, o := range m.ordenes {
		if o.SyncEstado != model.SyncSynced && len(out) < limit {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memOrdenes) CountPendientes(_ context.Context) (int64, error) {
	var n int64
	for _, o := range m.ordenes {
		if o.SyncEstado != model.SyncSynced {
			n++
		}
	}
	return n, nil
}

func (m *memOrdenes) MarkSynced(_ context.Context, id uuid.UUID, numeroTicket int) error {
	o, ok := m.ordenes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.SyncEstado = model.SyncSynced
	if numeroTicket > 0 {
		o.NumeroTicket = numeroTicket
	}
	return nil
}

type memClientes struct{ clientes map[string]*model.Cliente }

var _ repository.ClienteRepository = (*memClientes)(nil)

func newMemClientes() *memClientes { return &memClientes{clientes: make(map[string]*model.Cliente)} }

func (m *memClientes) FindOrCreate(_ context.Context, c *model.Cliente) (*model.Cliente, error) {
	if existing, ok := m.clientes[c.ID]; ok {
		cp := *existing
		return &cp, nil
	}
	cp := *c
	m.clientes[c.ID] = &cp
	return c, nil
}

func (m *memClientes) Get(_ context.Context, id string) (*model.Cliente, error) {
	c, ok := m.clientes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

type memNotif struct{ razones []string }

func (n *memNotif) Trigger(reason string) { n.razones = append(n.razones, reason) }

// memUOW mimics transactional semantics over the in-memory fakes: when the
// grouped writes fail, both stores roll back to their pre-call state.
// updateErr, when set, makes the order write inside the unit fail.
type memUOW struct {
	ordenes   *memOrdenes
	abonos    *memAbonos
	updateErr error
}

var _ repository.UnitOfWork = (*memUOW)(nil)

func (u *memUOW) Do(_ context.Context,
	fn func(repository.OrdenRepository, repository.AbonoRepository) error) error {
	ordenesAntes := make(map[uuid.UUID]*model.Orden, len(u.ordenes.ordenes))
	for id, o := range u.ordenes.ordenes {
		cp := *o
		ordenesAntes[id] = &cp
	}
	abonosAntes := append([]model.Abono(nil), u.abonos.abonos...)

	var ordenes repository.OrdenRepository = u.ordenes
	if u.updateErr != nil {
		ordenes = &ordenesFallaUpdate{OrdenRepository: u.ordenes, err: u.updateErr}
	}
	if err := fn(ordenes, u.abonos); err != nil {
		u.ordenes.ordenes = ordenesAntes
		u.abonos.abonos = abonosAntes
		return err
	}
	return nil
}

type ordenesFallaUpdate struct {
	repository.OrdenRepository
	err error
}

func (f *ordenesFallaUpdate) Update(context.Context, *model.Orden) error { return f.err }

// ── Helpers ──────────────────────────────────────────────────────────────────

func servicioOrdenes(ordenes *memOrdenes, abonos *memAbonos, clientes *memClientes, notif *memNotif) *ordenService {
	return &ordenService{
		ordenes:  ordenes,
		abonos:   abonos,
		clientes: clientes,
		uow:      &memUOW{ordenes: ordenes, abonos: abonos},
		notif:    notif,
		ahora:    func() time.Time { return enHora(hoy, 10, 0) },
	}
}

func crearRequest() dto.CrearOrdenRequest {
	return dto.CrearOrdenRequest{
		ClienteNombre: "Ana Maria Rojas",
		ClienteCedula: "1.017.234.567",
		Items: []dto.ItemOrdenRequest{
			{Descripcion: "Vestido de gala", Cantidad: 1, PrecioUnitario: decimal.NewFromInt(35000)},
			{Descripcion: "Pantalon", Cantidad: 2, PrecioUnitario: decimal.NewFromInt(8000)},
		},
		AbonoInicial: decimal.NewFromInt(20000),
		MetodoAbono:  model.MetodoNequi,
	}
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestCrearOrdenConAbonoInicial(t *testing.T) {
	ordenes := newMemOrdenes()
	abonos := &memAbonos{}
	notif := &memNotif{}
	svc := servicioOrdenes(ordenes, abonos, newMemClientes(), notif)

	orden, err := svc.Crear(context.Background(), crearRequest())
	require.NoError(t, err)

	assert.True(t, orden.Total.Equal(decimal.NewFromInt(51000)), "35000 + 2*8000")
	assert.True(t, orden.Pagado.Equal(decimal.NewFromInt(20000)))
	assert.Equal(t, model.PagoAbono, orden.EstadoPago)
	assert.Equal(t, model.SyncPendingSync, orden.SyncEstado)
	assert.Equal(t, "1017234567", orden.ClienteID, "cedula normalized to digits")
	assert.Equal(t, 0, orden.NumeroTicket, "ticket comes from the central store")

	ledger, _ := abonos.ListByOrden(context.Background(), orden.ID)
	require.Len(t, ledger, 1)
	assert.Equal(t, model.AbonoInicial, ledger[0].Tipo)
	assert.Equal(t, model.MetodoNequi, ledger[0].Metodo)

	assert.Contains(t, notif.razones, "orden_creada", "engine woken after local create")
}

func TestCrearOrdenSinAbono(t *testing.T) {
	svc := servicioOrdenes(newMemOrdenes(), &memAbonos{}, newMemClientes(), &memNotif{})
	req := crearRequest()
	req.AbonoInicial = decimal.Zero

	orden, err := svc.Crear(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.PagoPendiente, orden.EstadoPago)
	assert.True(t, orden.Pagado.IsZero())
}

func TestCrearOrdenDedupeCliente(t *testing.T) {
	clientes := newMemClientes()
	svc := servicioOrdenes(newMemOrdenes(), &memAbonos{}, clientes, &memNotif{})

	_, err := svc.Crear(context.Background(), crearRequest())
	require.NoError(t, err)

	// Same person, cedula formatted differently
	req := crearRequest()
	req.ClienteCedula = "1017234567"
	req.ClienteNombre = "Ana M. Rojas"
	_, err = svc.Crear(context.Background(), req)
	require.NoError(t, err)

	assert.Len(t, clientes.clientes, 1, "both orders collapse onto one client")
	assert.Equal(t, "Ana Maria Rojas", clientes.clientes["1017234567"].Nombre,
		"the stored name wins over later variants")
}

func TestAplicarAccionAbonarMantieneInvariante(t *testing.T) {
	ordenes := newMemOrdenes()
	abonos := &memAbonos{}
	svc := servicioOrdenes(ordenes, abonos, newMemClientes(), &memNotif{})

	orden, err := svc.Crear(context.Background(), crearRequest())
	require.NoError(t, err)

	// Simulate that the first push already acked this order
	require.NoError(t, ordenes.MarkSynced(context.Background(), orden.ID, 55))

	actualizada, err := svc.AplicarAccion(context.Background(), orden.ID, dto.AccionRequest{
		Tipo: "abonar", Monto: decimal.NewFromInt(10000), Metodo: model.MetodoEfectivo,
	})
	require.NoError(t, err)

	assert.Equal(t, model.SyncPendingUpdate, actualizada.SyncEstado, "local edit re-queues the record")
	suma, _ := abonos.SumByOrden(context.Background(), orden.ID)
	assert.True(t, suma.Equal(actualizada.Pagado), "pagado == ledger sum")
}

func TestAplicarAccionEntregarLiquidaYTermina(t *testing.T) {
	ordenes := newMemOrdenes()
	abonos := &memAbonos{}
	svc := servicioOrdenes(ordenes, abonos, newMemClientes(), &memNotif{})

	orden, err := svc.Crear(context.Background(), crearRequest())
	require.NoError(t, err)

	entregada, err := svc.AplicarAccion(context.Background(), orden.ID, dto.AccionRequest{Tipo: "entregar"})
	require.NoError(t, err)
	assert.Equal(t, model.EstadoEntregado, entregada.Estado)
	assert.True(t, entregada.Pagado.Equal(entregada.Total))

	ledger, _ := abonos.ListByOrden(context.Background(), orden.ID)
	require.Len(t, ledger, 2, "initial payment + settling payment")

	// Terminal: nothing else is allowed
	_, err = svc.AplicarAccion(context.Background(), orden.ID, dto.AccionRequest{
		Tipo: "abonar", Monto: decimal.NewFromInt(1000),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierror.ErrValidacion))
}

func TestAplicarAccionOrdenInexistente(t *testing.T) {
	svc := servicioOrdenes(newMemOrdenes(), &memAbonos{}, newMemClientes(), &memNotif{})
	_, err := svc.AplicarAccion(context.Background(), uuid.New(), dto.AccionRequest{Tipo: "organizar"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierror.ErrValidacion))
}

func TestReciboAplanado(t *testing.T) {
	svc := servicioOrdenes(newMemOrdenes(), &memAbonos{}, newMemClientes(), &memNotif{})
	orden, err := svc.Crear(context.Background(), crearRequest())
	require.NoError(t, err)

	rec, err := svc.Recibo(context.Background(), orden.ID, "principal")
	require.NoError(t, err)
	assert.Equal(t, "principal", rec.Sede)
	assert.Len(t, rec.Lineas, 2)
	assert.True(t, rec.Saldo.Equal(decimal.NewFromInt(31000)))
}

func TestProximoTicketSinRedisUsaMaximoLocal(t *testing.T) {
	ordenes := newMemOrdenes()
	svc := servicioOrdenes(ordenes, &memAbonos{}, newMemClientes(), &memNotif{})

	o := &model.Orden{ID: uuid.New(), NumeroTicket: 87, SyncEstado: model.SyncSynced}
	require.NoError(t, ordenes.Create(context.Background(), o))

	n, estimado, err := svc.ProximoTicket(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 88, n)
	assert.True(t, estimado)
}

func TestAplicarAccionFallidaNoDejaAbonoHuerfano(t *testing.T) {
	ordenes := newMemOrdenes()
	abonos := &memAbonos{}
	svc := servicioOrdenes(ordenes, abonos, newMemClientes(), &memNotif{})

	orden, err := svc.Crear(context.Background(), crearRequest())
	require.NoError(t, err)

	// The order write fails after the ledger append inside the same unit
	svc.uow = &memUOW{ordenes: ordenes, abonos: abonos, updateErr: errors.New("disk I/O error")}

	_, err = svc.AplicarAccion(context.Background(), orden.ID, dto.AccionRequest{
		Tipo: "abonar", Monto: decimal.NewFromInt(10000), Metodo: model.MetodoEfectivo,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierror.ErrAlmacenamiento))

	got, err := ordenes.Get(context.Background(), orden.ID)
	require.NoError(t, err)
	assert.True(t, got.Pagado.Equal(decimal.NewFromInt(20000)), "stored order untouched")

	ledger, _ := abonos.ListByOrden(context.Background(), orden.ID)
	require.Len(t, ledger, 1, "only the intake payment remains")
	suma, _ := abonos.SumByOrden(context.Background(), orden.ID)
	assert.True(t, suma.Equal(got.Pagado), "pagado == ledger sum even after the failure")
}

func TestCrearOrdenCedulaInvalida(t *testing.T) {
	svc := servicioOrdenes(newMemOrdenes(), &memAbonos{}, newMemClientes(), &memNotif{})
	req := crearRequest()
	req.ClienteCedula = "sin-numeros"
	_, err := svc.Crear(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierror.ErrValidacion))
}
