package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lalored20/lavaseco-app-sub000/internal/infra"
	"github.com/lalored20/lavaseco-app-sub000/internal/model"
	"github.com/lalored20/lavaseco-app-sub000/internal/remote"
	"github.com/lalored20/lavaseco-app-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory fakes ──────────────────────────────────────────────────────────

type fakeOrdenes struct {
	ordenes map[uuid.UUID]*model.Orden
}

var _ repository.OrdenRepository = (*fakeOrdenes)(nil)

func newFakeOrdenes() *fakeOrdenes {
	return &fakeOrdenes{ordenes: make(map[uuid.UUID]*model.Orden)}
}

func (f *fakeOrdenes) Create(_ context.Context, o *model.Orden) error {
	cp := *o
	f.ordenes[o.ID] = &cp
	return nil
}

func (f *fakeOrdenes) Get(_ context.Context, id uuid.UUID) (*model.Orden, error) {
	o, ok := f.ordenes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrdenes) GetByTicket(_ context.Context, numero int) (*model.Orden, error) {
	for _, o := range f.ordenes {
		if o.NumeroTicket == numero {
			cp := *o
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrdenes) Update(_ context.Context, o *model.Orden) error {
	cp := *o
	f.ordenes[o.ID] = &cp
	return nil
}

func (f *fakeOrdenes) Upsert(_ context.Context, o *model.Orden) error {
	cp := *o
	f.ordenes[o.ID] = &cp
	return nil
}

func (f *fakeOrdenes) Search(_ context.Context, _ repository.OrdenFilter) ([]model.Orden, error) {
	var out []model.Orden
	for _, o := range f.ordenes {
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOrdenes) ListCreadasEnRango(_ context.Context, desde, hasta time.Time) ([]model.Orden, error) {
	var out []model.Orden
	for _, o := range f.ordenes {
		if !o.CreatedAt.Before(desde) && o.CreatedAt.Before(hasta) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrdenes) ListEntregadasEnRango(_ context.Context, desde, hasta time.Time) ([]model.Orden, error) {
	var out []model.Orden
	for _, o := range f.ordenes {
		if o.Estado == model.EstadoEntregado && o.FechaEntrega != nil &&
			!o.FechaEntrega.Before(desde) && o.FechaEntrega.Before(hasta) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrdenes) ListPendientes(_ context.Context, limit int) ([]model.Orden, error) {
	var out []model.Orden
	for _, o := range f.ordenes {
		if o.SyncEstado != model.SyncSynced {
			out = append(out, *o)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeOrdenes) CountPendientes(_ context.Context) (int64, error) {
	var n int64
	for _, o := range f.ordenes {
		if o.SyncEstado != model.SyncSynced {
			n++
		}
	}
	return n, nil
}

func (f *fakeOrdenes) MarkSynced(_ context.Context, id uuid.UUID, numeroTicket int) error {
	o, ok := f.ordenes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.SyncEstado = model.SyncSynced
	if numeroTicket > 0 {
		o.NumeroTicket = numeroTicket
	}
	return nil
}

type fakeAbonos struct {
	porOrden map[uuid.UUID][]model.Abono
}

var _ repository.AbonoRepository = (*fakeAbonos)(nil)

func newFakeAbonos() *fakeAbonos {
	return &fakeAbonos{porOrden: make(map[uuid.UUID][]model.Abono)}
}

func (f *fakeAbonos) Append(_ context.Context, a *model.Abono) error {
	f.porOrden[a.OrdenID] = append(f.porOrden[a.OrdenID], *a)
	return nil
}

func (f *fakeAbonos) AppendBatch(_ context.Context, abonos []model.Abono) error {
	for _, a := range abonos {
		f.porOrden[a.OrdenID] = append(f.porOrden[a.OrdenID], a)
	}
	return nil
}

func (f *fakeAbonos) ListByOrden(_ context.Context, ordenID uuid.UUID) ([]model.Abono, error) {
	return append([]model.Abono(nil), f.porOrden[ordenID]...), nil
}

func (f *fakeAbonos) SumByOrden(_ context.Context, ordenID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, a := range f.porOrden[ordenID] {
		total = total.Add(a.Monto)
	}
	return total, nil
}

func (f *fakeAbonos) ListEnVentana(_ context.Context, desde, hasta time.Time) ([]model.Abono, error) {
	var out []model.Abono
	for _, abonos := range f.porOrden {
		for _, a := range abonos {
			if !a.CreatedAt.Before(desde) && a.CreatedAt.Before(hasta) {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func (f *fakeAbonos) ReconciliarOrden(_ context.Context, ordenID uuid.UUID, abonos []model.Abono) error {
	f.porOrden[ordenID] = append([]model.Abono(nil), abonos...)
	return nil
}

type fakeRemote struct {
	recibidos  []remote.Snapshot
	recientes  []remote.Snapshot
	ultimo     int
	failUpsert error
}

var _ remote.Store = (*fakeRemote)(nil)

func (f *fakeRemote) EnsureSchema(_ context.Context) error { return nil }
func (f *fakeRemote) Ping(_ context.Context) error         { return nil }

func (f *fakeRemote) UpsertOrden(_ context.Context, snap remote.Snapshot) (*remote.Ack, error) {
	if f.failUpsert != nil {
		return nil, f.failUpsert
	}
	f.recibidos = append(f.recibidos, snap)
	ticket := snap.Orden.NumeroTicket
	if ticket == 0 {
		f.ultimo++
		ticket = f.ultimo
	}
	return &remote.Ack{NumeroTicket: ticket}, nil
}

func (f *fakeRemote) FetchRecientes(_ context.Context, _ int) ([]remote.Snapshot, error) {
	return f.recientes, nil
}

func (f *fakeRemote) UltimoTicket(_ context.Context) (int, error) { return f.ultimo, nil }

// ── Tests ────────────────────────────────────────────────────────────────────

func newEngine(ordenes *fakeOrdenes, abonos *fakeAbonos, remoto *fakeRemote) *Engine {
	cb := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	return NewEngine(ordenes, abonos, remoto, cb, nil, Config{})
}

func ordenPendiente(total, pagado int64) *model.Orden {
	return &model.Orden{
		ID:         uuid.New(),
		ClienteID:  "1017000000",
		Total:      decimal.NewFromInt(total),
		Pagado:     decimal.NewFromInt(pagado),
		Estado:     model.EstadoPendiente,
		EstadoPago: model.PagoPendiente,
		SyncEstado: model.SyncPendingSync,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
}

func TestPushMarcaSyncedSoloConAck(t *testing.T) {
	ordenes := newFakeOrdenes()
	abonos := newFakeAbonos()
	remoto := &fakeRemote{ultimo: 41}

	o := ordenPendiente(50000, 0)
	require.NoError(t, ordenes.Create(context.Background(), o))

	e := newEngine(ordenes, abonos, remoto)
	e.Cycle(context.Background(), false)

	got, err := ordenes.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SyncSynced, got.SyncEstado)
	assert.Equal(t, 42, got.NumeroTicket, "ticket assigned by the central store")
	assert.Len(t, remoto.recibidos, 1)
}

func TestPushFallidoQuedaPendiente(t *testing.T) {
	ordenes := newFakeOrdenes()
	abonos := newFakeAbonos()
	remoto := &fakeRemote{failUpsert: errors.New("conexion rechazada")}

	o := ordenPendiente(50000, 0)
	require.NoError(t, ordenes.Create(context.Background(), o))

	e := newEngine(ordenes, abonos, remoto)
	e.Cycle(context.Background(), false)

	got, err := ordenes.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SyncPendingSync, got.SyncEstado, "no ack, no SYNCED")

	st := e.Status()
	assert.Equal(t, int64(1), st.Pendientes)
	assert.NotEmpty(t, st.UltimoError)
	assert.Zero(t, st.DLQ, "nothing parked without a Redis-backed dead letter queue")
}

func TestPushAgotadoSigueLocalmentePendiente(t *testing.T) {
	ordenes := newFakeOrdenes()
	abonos := newFakeAbonos()
	remoto := &fakeRemote{failUpsert: errors.New("conexion rechazada")}

	o := ordenPendiente(50000, 0)
	require.NoError(t, ordenes.Create(context.Background(), o))

	// EnsureSchema succeeds each cycle, so the breaker stays closed and
	// every cycle burns exactly one push attempt
	e := newEngine(ordenes, abonos, remoto)
	for i := 0; i < maxIntentosPush; i++ {
		e.Cycle(context.Background(), false)
	}

	// Parking an order never loses it: the local record stays pending
	got, err := ordenes.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SyncPendingSync, got.SyncEstado)

	e.mu.Lock()
	_, rastreada := e.intentos[o.ID]
	e.mu.Unlock()
	assert.False(t, rastreada, "attempt counter cleared once the order is parked")
}

func TestPullCreaRegistroLocal(t *testing.T) {
	ordenes := newFakeOrdenes()
	abonos := newFakeAbonos()

	central := ordenPendiente(30000, 30000)
	central.NumeroTicket = 7
	central.SyncEstado = model.SyncSynced
	entry := model.Abono{
		ID: uuid.New(), OrdenID: central.ID, Tipo: model.AbonoCancelacion,
		Metodo: model.MetodoNequi, Monto: decimal.NewFromInt(30000), CreatedAt: time.Now(),
	}
	remoto := &fakeRemote{recientes: []remote.Snapshot{{Orden: *central, Abonos: []model.Abono{entry}}}, ultimo: 7}

	e := newEngine(ordenes, abonos, remoto)
	e.Cycle(context.Background(), true)

	got, err := ordenes.Get(context.Background(), central.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SyncSynced, got.SyncEstado)
	assert.Equal(t, 7, got.NumeroTicket)

	ledger, _ := abonos.ListByOrden(context.Background(), central.ID)
	require.Len(t, ledger, 1)
	assert.Equal(t, entry.ID, ledger[0].ID)
}

func TestPullNoPisaEdicionLocalPendiente(t *testing.T) {
	ordenes := newFakeOrdenes()
	abonos := newFakeAbonos()

	local := ordenPendiente(30000, 0)
	local.Estado = model.EstadoProblema
	local.SyncEstado = model.SyncPendingUpdate
	require.NoError(t, ordenes.Create(context.Background(), local))

	central := *local
	central.Estado = model.EstadoEnProceso
	remoto := &fakeRemote{recientes: []remote.Snapshot{{Orden: central}}}

	e := newEngine(ordenes, abonos, remoto)
	e.Cycle(context.Background(), true)

	got, err := ordenes.Get(context.Background(), local.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EstadoProblema, got.Estado, "unpushed edit survives the pull")
	assert.Equal(t, model.SyncPendingUpdate, got.SyncEstado)
}

func TestPullDedupeLedger(t *testing.T) {
	ordenes := newFakeOrdenes()
	abonos := newFakeAbonos()

	local := ordenPendiente(30000, 10000)
	local.SyncEstado = model.SyncSynced
	require.NoError(t, ordenes.Create(context.Background(), local))

	// Same payment on both sides: local recorded offline, central recorded
	// by the push 45 seconds later under a fresh id
	ts := time.Now()
	localEntry := model.Abono{
		ID: uuid.New(), OrdenID: local.ID, Tipo: model.AbonoParcial,
		Metodo: model.MetodoEfectivo, Monto: decimal.NewFromInt(10000), CreatedAt: ts,
	}
	require.NoError(t, abonos.Append(context.Background(), &localEntry))

	centralEntry := localEntry
	centralEntry.ID = uuid.New()
	centralEntry.CreatedAt = ts.Add(45 * time.Second)

	central := *local
	remoto := &fakeRemote{recientes: []remote.Snapshot{{Orden: central, Abonos: []model.Abono{centralEntry}}}}

	e := newEngine(ordenes, abonos, remoto)
	e.Cycle(context.Background(), true)

	ledger, _ := abonos.ListByOrden(context.Background(), local.ID)
	require.Len(t, ledger, 1, "duplicate payment collapses to one entry")
	assert.Equal(t, centralEntry.ID, ledger[0].ID)
}

func TestViajeCompletoOffline(t *testing.T) {
	ordenes := newFakeOrdenes()
	abonos := newFakeAbonos()
	remoto := &fakeRemote{ultimo: 99}

	// Created offline with an initial payment
	o := ordenPendiente(60000, 20000)
	require.NoError(t, ordenes.Create(context.Background(), o))
	require.NoError(t, abonos.Append(context.Background(), &model.Abono{
		ID: uuid.New(), OrdenID: o.ID, Tipo: model.AbonoInicial,
		Metodo: model.MetodoEfectivo, Monto: decimal.NewFromInt(20000), CreatedAt: time.Now(),
	}))

	e := newEngine(ordenes, abonos, remoto)

	// Push cycle
	e.Cycle(context.Background(), false)
	got, _ := ordenes.Get(context.Background(), o.ID)
	require.Equal(t, model.SyncSynced, got.SyncEstado)
	require.Equal(t, 100, got.NumeroTicket)
	require.Len(t, remoto.recibidos, 1)
	assert.Len(t, remoto.recibidos[0].Abonos, 1, "ledger travels with the order")

	// Central store answers the next pull with the acked state
	central := *got
	remoto.recientes = []remote.Snapshot{{Orden: central, Abonos: remoto.recibidos[0].Abonos}}
	e.Cycle(context.Background(), true)

	final, _ := ordenes.Get(context.Background(), o.ID)
	assert.Equal(t, model.SyncSynced, final.SyncEstado)
	ledger, _ := abonos.ListByOrden(context.Background(), o.ID)
	assert.Len(t, ledger, 1)
	suma, _ := abonos.SumByOrden(context.Background(), o.ID)
	assert.True(t, suma.Equal(final.Pagado), "ledger sum invariant after round trip")
}

func TestTriggerColapsa(t *testing.T) {
	e := newEngine(newFakeOrdenes(), newFakeAbonos(), &fakeRemote{})
	e.Trigger("focus")
	e.Trigger("focus")
	e.Trigger("online")
	assert.Len(t, e.trigger, 1, "overlapping triggers collapse into one")
}
