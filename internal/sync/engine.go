// Package sync runs the replication engine: the background loop that pushes
// locally created or edited orders to the central store and pulls recent
// central activity back into the terminal.
package sync

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/lalored20/lavaseco-app-sub000/internal/infra"
	"github.com/lalored20/lavaseco-app-sub000/internal/model"
	"github.com/lalored20/lavaseco-app-sub000/internal/remote"
	"github.com/lalored20/lavaseco-app-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// UltimoTicketKey is the Redis key caching the highest ticket number seen on
// the central store. The counter UI reads it (via the order service) to show
// the next probable ticket while offline.
const UltimoTicketKey = "lavaseco:ultimo_ticket"

const maxIntentosPush = 10

// Config tunes the engine loop.
type Config struct {
	Interval        time.Duration // tick period (push every tick)
	BatchSize       int           // max orders pushed per cycle
	PullEveryNTicks int           // a pull runs every Nth tick
	PullLimit       int           // snapshots fetched per pull
}

// Status is a point-in-time view for the /v1/sync/estado endpoint.
type Status struct {
	Pendientes   int64     `json:"pendientes"`
	UltimoCiclo  time.Time `json:"ultimo_ciclo"`
	UltimoError  string    `json:"ultimo_error,omitempty"`
	Pushed       int       `json:"pushed"`
	Pulled       int       `json:"pulled"`
	DLQ          int64     `json:"dlq"` // orders parked after exhausting push retries
	CircuitState string    `json:"circuit_state"`
}

// Engine coordinates push/pull cycles. A mutex-guarded running flag collapses
// overlapping triggers (timer tick, UI focus, manual) into a single cycle —
// a trigger that arrives mid-cycle is dropped, not queued.
type Engine struct {
	ordenes repository.OrdenRepository
	abonos  repository.AbonoRepository
	remoto  remote.Store
	cb      *infra.CircuitBreaker
	rdb     *redis.Client
	cfg     Config

	trigger chan string

	mu       stdsync.Mutex
	running  bool
	status   Status
	intentos map[uuid.UUID]int
}

func NewEngine(ordenes repository.OrdenRepository, abonos repository.AbonoRepository,
	remoto remote.Store, cb *infra.CircuitBreaker, rdb *redis.Client, cfg Config) *Engine {
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 25
	}
	if cfg.PullEveryNTicks <= 0 {
		cfg.PullEveryNTicks = 5
	}
	if cfg.PullLimit <= 0 {
		cfg.PullLimit = 100
	}
	return &Engine{
		ordenes:  ordenes,
		abonos:   abonos,
		remoto:   remoto,
		cb:       cb,
		rdb:      rdb,
		cfg:      cfg,
		trigger:  make(chan string, 1),
		intentos: make(map[uuid.UUID]int),
	}
}

// Trigger requests an immediate cycle (UI regained focus, connectivity came
// back, an order was just created). Never blocks.
func (e *Engine) Trigger(reason string) {
	select {
	case e.trigger <- reason:
	default:
		// a cycle is already queued — collapsing is the intended behavior
	}
}

// Start launches the loop; it stops when ctx is cancelled.
func (e *Engine) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(e.cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", e.cfg.Interval).Msg("sync_engine: started")

		tick := 0
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("sync_engine: shutting down")
				return
			case <-ticker.C:
				tick++
				e.Cycle(ctx, tick%e.cfg.PullEveryNTicks == 0)
			case reason := <-e.trigger:
				log.Debug().Str("reason", reason).Msg("sync_engine: triggered")
				e.Cycle(ctx, false)
			}
		}
	}()
}

// Cycle runs one push (and optionally pull) pass. Re-entrant calls return
// immediately without doing work.
func (e *Engine) Cycle(ctx context.Context, conPull bool) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		log.Debug().Msg("sync_engine: cycle already running, skipping")
		return
	}
	e.running = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	if e.cb.State() == infra.CBOpen {
		log.Debug().Msg("sync_engine: circuit breaker open, skipping cycle")
		return
	}

	if err := e.cb.Execute(func() error { return e.remoto.EnsureSchema(ctx) }); err != nil {
		e.registrarError(err)
		log.Warn().Err(err).Msg("sync_engine: central store unreachable")
		return
	}

	pushed := e.push(ctx)
	pulled := 0
	if conPull {
		pulled = e.pull(ctx)
	}

	pendientes, _ := e.ordenes.CountPendientes(ctx)

	var dlq int64
	if e.rdb != nil {
		if n, err := DLQLength(ctx, e.rdb, QueueOrdenes); err == nil {
			dlq = n
		}
	}

	e.mu.Lock()
	e.status = Status{
		Pendientes:   pendientes,
		UltimoCiclo:  time.Now(),
		Pushed:       pushed,
		Pulled:       pulled,
		DLQ:          dlq,
		CircuitState: e.cb.State().String(),
	}
	e.mu.Unlock()
}

// push sends pending orders one at a time through the circuit breaker.
// A record is marked SYNCED only after the central store acknowledges it —
// never optimistically.
func (e *Engine) push(ctx context.Context) int {
	pendientes, err := e.ordenes.ListPendientes(ctx, e.cfg.BatchSize)
	if err != nil {
		e.registrarError(err)
		log.Error().Err(err).Msg("sync_engine: failed to list pending orders")
		return 0
	}
	if len(pendientes) == 0 {
		return 0
	}

	log.Info().Int("count", len(pendientes)).Msg("sync_engine: pushing pending orders")

	pushed := 0
	for i := range pendientes {
		o := pendientes[i]

		if e.cb.State() == infra.CBOpen {
			log.Debug().Msg("sync_engine: circuit breaker opened mid-batch, stopping")
			break
		}

		ledger, err := e.abonos.ListByOrden(ctx, o.ID)
		if err != nil {
			e.registrarError(err)
			continue
		}

		var ack *remote.Ack
		cbErr := e.cb.Execute(func() error {
			a, err := e.remoto.UpsertOrden(ctx, remote.Snapshot{Orden: o, Abonos: ledger})
			if err != nil {
				return err
			}
			ack = a
			return nil
		})

		if cbErr != nil {
			e.registrarError(cbErr)
			e.mu.Lock()
			e.intentos[o.ID]++
			n := e.intentos[o.ID]
			e.mu.Unlock()

			if n >= maxIntentosPush {
				if e.rdb != nil {
					SendToDLQ(ctx, e.rdb, QueueOrdenes, o.ID.String(), cbErr.Error(), n)
				}
				e.mu.Lock()
				delete(e.intentos, o.ID)
				e.mu.Unlock()
			} else {
				log.Warn().
					Str("orden_id", o.ID.String()).
					Int("intentos", n).
					Err(cbErr).
					Msg("sync_engine: push failed, will retry next cycle")
			}
			continue
		}

		if err := e.ordenes.MarkSynced(ctx, o.ID, ack.NumeroTicket); err != nil {
			e.registrarError(err)
			log.Error().Err(err).Str("orden_id", o.ID.String()).
				Msg("sync_engine: acked but could not mark synced")
			continue
		}
		e.mu.Lock()
		delete(e.intentos, o.ID)
		e.mu.Unlock()
		pushed++
	}
	return pushed
}

// pull fetches recent central activity and merges it into the local store.
func (e *Engine) pull(ctx context.Context) int {
	var snaps []remote.Snapshot
	cbErr := e.cb.Execute(func() error {
		s, err := e.remoto.FetchRecientes(ctx, e.cfg.PullLimit)
		if err != nil {
			return err
		}
		snaps = s
		return nil
	})
	if cbErr != nil {
		e.registrarError(cbErr)
		log.Warn().Err(cbErr).Msg("sync_engine: pull failed")
		return 0
	}

	merged := 0
	for _, snap := range snaps {
		local, err := e.ordenes.Get(ctx, snap.Orden.ID)
		switch {
		case err == gorm.ErrRecordNotFound:
			local = nil
		case err != nil:
			e.registrarError(err)
			continue
		}

		resultado := MergeOrden(local, snap.Orden)
		if resultado == nil {
			// local edits pending — they win until pushed
			continue
		}

		var localLedger []model.Abono
		if local != nil {
			localLedger, err = e.abonos.ListByOrden(ctx, local.ID)
			if err != nil {
				e.registrarError(err)
				continue
			}
		}
		ledger := MergeAbonos(snap.Abonos, localLedger)

		if err := e.ordenes.Upsert(ctx, resultado); err != nil {
			e.registrarError(err)
			log.Error().Err(err).Str("orden_id", resultado.ID.String()).
				Msg("sync_engine: merge upsert failed")
			continue
		}
		if err := e.abonos.ReconciliarOrden(ctx, resultado.ID, ledger); err != nil {
			e.registrarError(err)
			continue
		}
		merged++
	}

	e.actualizarHintTicket(ctx)

	if merged > 0 {
		log.Info().Int("count", merged).Msg("sync_engine: merged central snapshots")
	}
	return merged
}

// actualizarHintTicket caches the highest central ticket so the UI can show
// the next probable number while offline.
func (e *Engine) actualizarHintTicket(ctx context.Context) {
	if e.rdb == nil {
		return
	}
	var ultimo int
	err := e.cb.Execute(func() error {
		n, err := e.remoto.UltimoTicket(ctx)
		if err != nil {
			return err
		}
		ultimo = n
		return nil
	})
	if err != nil {
		return
	}
	if err := e.rdb.Set(ctx, UltimoTicketKey, ultimo, 0).Err(); err != nil {
		log.Warn().Err(err).Msg("sync_engine: failed to cache ticket hint")
	}
}

func (e *Engine) registrarError(err error) {
	e.mu.Lock()
	e.status.UltimoError = err.Error()
	e.mu.Unlock()
}

// Status returns a copy of the last cycle's outcome.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.status
	s.CircuitState = e.cb.State().String()
	return s
}
