package dto

import "github.com/shopspring/decimal"

// ResumenFilter is bound from query string of GET /v1/caja/resumen.
type ResumenFilter struct {
	Fecha    string `form:"fecha"`     // YYYY-MM-DD; empty = today
	FechaFin string `form:"fecha_fin"` // inclusive; multi-day ranges ignore turns
	// IgnorarTurnos forces the full-day window even when a turn closed today
	IgnorarTurnos bool `form:"ignorar_turnos"`
}

type MetodoTotal struct {
	Metodo string          `json:"metodo"`
	Total  decimal.Decimal `json:"total"`
	Conteo int             `json:"conteo"`
}

type GastoResponse struct {
	ID          string          `json:"id"`
	Descripcion string          `json:"descripcion"`
	Monto       decimal.Decimal `json:"monto"`
	Metodo      string          `json:"metodo"`
	CreatedAt   string          `json:"created_at"`
}

// ResumenCaja is the accounting view for one window.
// EfectivoNeto = TotalEfectivo - TotalGastos (what the drawer should hold);
// TotalRecaudado = TotalEfectivo + TotalDigital.
type ResumenCaja struct {
	Desde          string          `json:"desde"`
	Hasta          string          `json:"hasta"`
	TotalEfectivo  decimal.Decimal `json:"total_efectivo"`
	TotalDigital   decimal.Decimal `json:"total_digital"`
	TotalRecaudado decimal.Decimal `json:"total_recaudado"`
	TotalGastos    decimal.Decimal `json:"total_gastos"`
	EfectivoNeto   decimal.Decimal `json:"efectivo_neto"`
	PorMetodo      []MetodoTotal   `json:"por_metodo"`
	Gastos         []GastoResponse `json:"gastos"`
	NumPagos       int             `json:"num_pagos"`
}

type CerrarTurnoRequest struct {
	CerradoPor    string `json:"cerrado_por"   validate:"required,min=2"`
	Observaciones string `json:"observaciones"`
}

type TurnoResponse struct {
	ID             string          `json:"id"`
	NumeroTurno    int             `json:"numero_turno"`
	Fecha          string          `json:"fecha"`
	StartTime      string          `json:"start_time"`
	EndTime        string          `json:"end_time"`
	CerradoPor     string          `json:"cerrado_por"`
	TotalEfectivo  decimal.Decimal `json:"total_efectivo"`
	TotalDigital   decimal.Decimal `json:"total_digital"`
	TotalGastos    decimal.Decimal `json:"total_gastos"`
	EfectivoNeto   decimal.Decimal `json:"efectivo_neto"`
	TotalCalculado decimal.Decimal `json:"total_calculado"`
	Observaciones  string          `json:"observaciones,omitempty"`
}

type GastoRequest struct {
	Descripcion string          `json:"descripcion" validate:"required,min=2"`
	Monto       decimal.Decimal `json:"monto"       validate:"required"`
	Metodo      string          `json:"metodo"      validate:"omitempty,oneof=Efectivo Nequi Daviplata Tarjeta Transferencia Otro"`
}
