package handler

import (
	"net/http"

	"github.com/lalored20/lavaseco-app-sub000/internal/sync"

	"github.com/gin-gonic/gin"
)

type SyncHandler struct{ engine *sync.Engine }

func NewSyncHandler(engine *sync.Engine) *SyncHandler { return &SyncHandler{engine: engine} }

// Trigger godoc
// @Summary Solicita un ciclo de sincronizacion inmediato (la UI recupero foco / conexion)
// @Tags sync
// @Success 202
// @Router /v1/sync/trigger [post]
func (h *SyncHandler) Trigger(c *gin.Context) {
	h.engine.Trigger("http")
	c.Status(http.StatusAccepted)
}

// Estado godoc
// @Summary Estado del motor de replicacion
// @Tags sync
// @Produce json
// @Success 200 {object} sync.Status
// @Router /v1/sync/estado [get]
func (h *SyncHandler) Estado(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Status())
}
