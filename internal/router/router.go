package router

import (
	"time"

	"github.com/lalored20/lavaseco-app-sub000/internal/config"
	"github.com/lalored20/lavaseco-app-sub000/internal/handler"
	"github.com/lalored20/lavaseco-app-sub000/internal/infra"
	"github.com/lalored20/lavaseco-app-sub000/internal/middleware"
	"github.com/lalored20/lavaseco-app-sub000/internal/remote"
	"github.com/lalored20/lavaseco-app-sub000/internal/repository"
	"github.com/lalored20/lavaseco-app-sub000/internal/service"
	syncengine "github.com/lalored20/lavaseco-app-sub000/internal/sync"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← local DB / Redis.
// The replication engine is built in main (it owns its own lifecycle) and is
// injected here only to serve triggers and status.
func New(cfg *config.Config, localDB *gorm.DB, rdb *redis.Client, remoto remote.Store,
	cb *infra.CircuitBreaker, engine *syncengine.Engine) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	ordenRepo := repository.NewOrdenRepository(localDB)
	abonoRepo := repository.NewAbonoRepository(localDB)
	clienteRepo := repository.NewClienteRepository(localDB)
	turnoRepo := repository.NewTurnoRepository(localDB)
	gastoRepo := repository.NewGastoRepository(localDB)
	conteoRepo := repository.NewConteoRepository(localDB)

	// ── Services ─────────────────────────────────────────────────────────────
	ordenSvc := service.NewOrdenService(ordenRepo, abonoRepo, clienteRepo,
		repository.NewUnitOfWork(localDB), rdb, engine)
	cajaSvc := service.NewCajaService(abonoRepo, gastoRepo, turnoRepo)
	logisticaSvc := service.NewLogisticaService(conteoRepo, ordenRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	ordenesH := handler.NewOrdenesHandler(ordenSvc, cfg.NombreSede)
	cajaH := handler.NewCajaHandler(cajaSvc)
	logisticaH := handler.NewLogisticaHandler(logisticaSvc)
	syncH := handler.NewSyncHandler(engine)

	// ── Routes ───────────────────────────────────────────────────────────────

	r.GET("/health", handler.Health(localDB, rdb, remoto, cb))

	v1 := r.Group("/v1")
	{
		ordenes := v1.Group("/ordenes")
		{
			ordenes.POST("", ordenesH.Crear)
			ordenes.GET("", ordenesH.Listar)
			ordenes.GET("/proximo-ticket", ordenesH.ProximoTicket)
			ordenes.GET("/:id", ordenesH.Obtener)
			ordenes.POST("/:id/acciones", ordenesH.AplicarAccion)
			ordenes.GET("/:id/recibo", ordenesH.Recibo)
		}

		caja := v1.Group("/caja")
		{
			caja.GET("/resumen", cajaH.Resumen)
			caja.GET("/turnos", cajaH.ListTurnos)
			caja.POST("/turnos", cajaH.CerrarTurno)
		}

		v1.POST("/gastos", cajaH.RegistrarGasto)
		v1.DELETE("/gastos/:id", cajaH.EliminarGasto)

		logistica := v1.Group("/logistica")
		{
			logistica.POST("/conteos", logisticaH.GuardarConteo)
			logistica.GET("/conteos", logisticaH.Historial)
			logistica.GET("/resumen", logisticaH.Resumen)
		}

		sincronizacion := v1.Group("/sync")
		{
			sincronizacion.POST("/trigger", syncH.Trigger)
			sincronizacion.GET("/estado", syncH.Estado)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
