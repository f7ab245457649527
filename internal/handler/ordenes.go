package handler

import (
	"net/http"
	"time"

	"github.com/lalored20/lavaseco-app-sub000/internal/apierror"
	"github.com/lalored20/lavaseco-app-sub000/internal/dto"
	"github.com/lalored20/lavaseco-app-sub000/internal/lifecycle"
	"github.com/lalored20/lavaseco-app-sub000/internal/model"
	"github.com/lalored20/lavaseco-app-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrdenesHandler struct {
	svc  service.OrdenService
	sede string
}

func NewOrdenesHandler(svc service.OrdenService, sede string) *OrdenesHandler {
	return &OrdenesHandler{svc: svc, sede: sede}
}

// Crear godoc
// @Summary Registra una orden nueva (local primero, sincroniza despues)
// @Tags ordenes
// @Accept json
// @Produce json
// @Param body body dto.CrearOrdenRequest true "Datos de la orden"
// @Success 201 {object} dto.OrdenResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/ordenes [post]
func (h *OrdenesHandler) Crear(c *gin.Context) {
	var req dto.CrearOrdenRequest
	if !bindAndValidate(c, &req) {
		return
	}
	orden, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ordenToResponse(orden, nil, time.Now()))
}

// Listar godoc
// @Summary Lista / busca ordenes
// @Tags ordenes
// @Produce json
// @Param q query string false "Busqueda: ticket, nombre, cedula, telefono o prenda"
// @Param estado query string false "Filtro por estado de negocio"
// @Param fecha query string false "YYYY-MM-DD"
// @Success 200 {object} dto.OrdenListResponse
// @Router /v1/ordenes [get]
func (h *OrdenesHandler) Listar(c *gin.Context) {
	var req dto.OrdenFilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("query invalida: "+err.Error()))
		return
	}
	ordenes, err := h.svc.Buscar(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	now := time.Now()
	resp := dto.OrdenListResponse{Data: []dto.OrdenResponse{}, Total: len(ordenes)}
	for i := range ordenes {
		resp.Data = append(resp.Data, ordenToResponse(&ordenes[i], nil, now))
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener godoc
// @Summary Obtiene una orden con su ledger de abonos
// @Tags ordenes
// @Produce json
// @Param id path string true "ID de la orden"
// @Success 200 {object} dto.OrdenResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/ordenes/{id} [get]
func (h *OrdenesHandler) Obtener(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	orden, ledger, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordenToResponse(orden, ledger, time.Now()))
}

// AplicarAccion godoc
// @Summary Aplica una accion del ciclo de vida (organizar, entregar, abonar…)
// @Tags ordenes
// @Accept json
// @Produce json
// @Param id path string true "ID de la orden"
// @Param body body dto.AccionRequest true "Accion"
// @Success 200 {object} dto.OrdenResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/ordenes/{id}/acciones [post]
func (h *OrdenesHandler) AplicarAccion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.AccionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	orden, err := h.svc.AplicarAccion(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordenToResponse(orden, nil, time.Now()))
}

// Recibo godoc
// @Summary Proyeccion plana de la orden para impresion de recibo
// @Tags ordenes
// @Produce json
// @Param id path string true "ID de la orden"
// @Success 200 {object} dto.ReciboResponse
// @Router /v1/ordenes/{id}/recibo [get]
func (h *OrdenesHandler) Recibo(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	rec, err := h.svc.Recibo(c.Request.Context(), id, h.sede)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ProximoTicket godoc
// @Summary Proximo numero de ticket probable (estimado si no hay conexion)
// @Tags ordenes
// @Produce json
// @Success 200 {object} dto.ProximoTicketResponse
// @Router /v1/ordenes/proximo-ticket [get]
func (h *OrdenesHandler) ProximoTicket(c *gin.Context) {
	n, estimado, err := h.svc.ProximoTicket(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ProximoTicketResponse{ProximoTicket: n, Estimado: estimado})
}

func ordenToResponse(o *model.Orden, ledger []model.Abono, now time.Time) dto.OrdenResponse {
	resp := dto.OrdenResponse{
		ID:              o.ID.String(),
		NumeroTicket:    o.NumeroTicket,
		ClienteNombre:   o.ClienteNombre,
		ClienteCedula:   o.ClienteID,
		ClienteTelefono: o.ClienteTelefono,
		Items:           []dto.ItemOrdenResponse{},
		Total:           o.Total,
		Pagado:          o.Pagado,
		Saldo:           o.Total.Sub(o.Pagado),
		Estado:          o.Estado,
		EstadoPago:      o.EstadoPago,
		Alerta:          string(lifecycle.NivelAlerta(o.FechaProgramada, o.CreatedAt, now)),
		FechaProgramada: o.FechaProgramada,
		FechaEntrega:    o.FechaEntrega,
		Notas:           o.Notas,
		SyncEstado:      o.SyncEstado,
		CreatedAt:       o.CreatedAt.Format(time.RFC3339),
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, dto.ItemOrdenResponse{
			Descripcion:    it.Descripcion,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Subtotal,
			Marcas:         it.Marcas,
		})
	}
	for _, a := range ledger {
		resp.Abonos = append(resp.Abonos, dto.AbonoResponse{
			ID:         a.ID.String(),
			Tipo:       a.Tipo,
			Metodo:     a.Metodo,
			Monto:      a.Monto,
			Nota:       a.Nota,
			Recuperado: a.Recuperado,
			CreatedAt:  a.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}
