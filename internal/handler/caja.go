package handler

import (
	"net/http"
	"time"

	"github.com/lalored20/lavaseco-app-sub000/internal/apierror"
	"github.com/lalored20/lavaseco-app-sub000/internal/dto"
	"github.com/lalored20/lavaseco-app-sub000/internal/model"
	"github.com/lalored20/lavaseco-app-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CajaHandler struct{ svc service.CajaService }

func NewCajaHandler(svc service.CajaService) *CajaHandler { return &CajaHandler{svc: svc} }

// Resumen godoc
// @Summary Resumen de caja para la ventana contable del dia
// @Tags caja
// @Produce json
// @Param fecha query string false "YYYY-MM-DD; vacio = hoy"
// @Param fecha_fin query string false "YYYY-MM-DD; rango multi-dia"
// @Param ignorar_turnos query bool false "Ignora cierres de turno del dia"
// @Success 200 {object} dto.ResumenCaja
// @Router /v1/caja/resumen [get]
func (h *CajaHandler) Resumen(c *gin.Context) {
	var req dto.ResumenFilter
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("query invalida: "+err.Error()))
		return
	}
	res, err := h.svc.Resumen(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CerrarTurno godoc
// @Summary Cierra el turno actual congelando sus totales
// @Tags caja
// @Accept json
// @Produce json
// @Param body body dto.CerrarTurnoRequest true "Datos de cierre"
// @Success 201 {object} dto.TurnoResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/caja/turnos [post]
func (h *CajaHandler) CerrarTurno(c *gin.Context) {
	var req dto.CerrarTurnoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	turno, err := h.svc.CerrarTurno(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, turnoToResponse(turno))
}

// ListTurnos godoc
// @Summary Lista los turnos cerrados de un dia
// @Tags caja
// @Produce json
// @Param fecha query string false "YYYY-MM-DD; vacio = hoy"
// @Success 200 {array} dto.TurnoResponse
// @Router /v1/caja/turnos [get]
func (h *CajaHandler) ListTurnos(c *gin.Context) {
	turnos, err := h.svc.ListTurnos(c.Request.Context(), c.Query("fecha"))
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]dto.TurnoResponse, 0, len(turnos))
	for i := range turnos {
		resp = append(resp, turnoToResponse(&turnos[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// RegistrarGasto godoc
// @Summary Registra un gasto de caja
// @Tags gastos
// @Accept json
// @Produce json
// @Param body body dto.GastoRequest true "Gasto"
// @Success 201 {object} dto.GastoResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/gastos [post]
func (h *CajaHandler) RegistrarGasto(c *gin.Context) {
	var req dto.GastoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	gasto, err := h.svc.RegistrarGasto(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.GastoResponse{
		ID:          gasto.ID.String(),
		Descripcion: gasto.Descripcion,
		Monto:       gasto.Monto,
		Metodo:      gasto.Metodo,
		CreatedAt:   gasto.CreatedAt.Format(time.RFC3339),
	})
}

// EliminarGasto godoc
// @Summary Elimina un gasto (solo dentro de los 3 dias siguientes)
// @Tags gastos
// @Param id path string true "ID del gasto"
// @Success 204
// @Failure 422 {object} apierror.APIError
// @Router /v1/gastos/{id} [delete]
func (h *CajaHandler) EliminarGasto(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	if err := h.svc.EliminarGasto(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func turnoToResponse(t *model.Turno) dto.TurnoResponse {
	return dto.TurnoResponse{
		ID:             t.ID.String(),
		NumeroTurno:    t.NumeroTurno,
		Fecha:          t.Fecha.Format("2006-01-02"),
		StartTime:      t.StartTime.Format(time.RFC3339),
		EndTime:        t.EndTime.Format(time.RFC3339),
		CerradoPor:     t.CerradoPor,
		TotalEfectivo:  t.TotalEfectivo,
		TotalDigital:   t.TotalDigital,
		TotalGastos:    t.TotalGastos,
		EfectivoNeto:   t.EfectivoNeto,
		TotalCalculado: t.TotalCalculado,
		Observaciones:  t.Observaciones,
	}
}
