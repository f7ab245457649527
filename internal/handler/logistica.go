package handler

import (
	"net/http"
	"strconv"

	"github.com/lalored20/lavaseco-app-sub000/internal/apierror"
	"github.com/lalored20/lavaseco-app-sub000/internal/dto"
	"github.com/lalored20/lavaseco-app-sub000/internal/model"
	"github.com/lalored20/lavaseco-app-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type LogisticaHandler struct{ svc service.LogisticaService }

func NewLogisticaHandler(svc service.LogisticaService) *LogisticaHandler {
	return &LogisticaHandler{svc: svc}
}

// GuardarConteo godoc
// @Summary Guarda o corrige el conteo diario de prendas (planta y casa)
// @Tags logistica
// @Accept json
// @Produce json
// @Param body body dto.ConteoRequest true "Conteo del dia"
// @Success 200 {object} dto.ConteoResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/logistica/conteos [post]
func (h *LogisticaHandler) GuardarConteo(c *gin.Context) {
	var req dto.ConteoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	conteo, err := h.svc.GuardarConteo(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conteoToResponse(conteo))
}

// Historial godoc
// @Summary Lista los conteos diarios mas recientes
// @Tags logistica
// @Produce json
// @Param limit query int false "Maximo de dias (default 30)"
// @Success 200 {array} dto.ConteoResponse
// @Router /v1/logistica/conteos [get]
func (h *LogisticaHandler) Historial(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "30"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("limit invalido"))
		return
	}
	conteos, err := h.svc.Historial(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]dto.ConteoResponse, 0, len(conteos))
	for i := range conteos {
		resp = append(resp, conteoToResponse(&conteos[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// Resumen godoc
// @Summary Resumen logistico por dia: conteos, ordenes recibidas y entregadas
// @Tags logistica
// @Produce json
// @Param desde query string false "YYYY-MM-DD; vacio = hace 7 dias"
// @Param hasta query string false "YYYY-MM-DD; vacio = hoy"
// @Success 200 {array} dto.DiaLogistica
// @Router /v1/logistica/resumen [get]
func (h *LogisticaHandler) Resumen(c *gin.Context) {
	var req dto.LogisticaFilter
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("query invalida: "+err.Error()))
		return
	}
	dias, err := h.svc.Resumen(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dias)
}

func conteoToResponse(c *model.ConteoPrendas) dto.ConteoResponse {
	return dto.ConteoResponse{
		ID:           c.ID.String(),
		Fecha:        c.Fecha.Format("2006-01-02"),
		ConteoPlanta: c.ConteoPlanta,
		ConteoCasa:   c.ConteoCasa,
		NotasPlanta:  c.NotasPlanta,
		NotasCasa:    c.NotasCasa,
	}
}
