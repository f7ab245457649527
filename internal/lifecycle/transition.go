// Package lifecycle holds the pure order state machine and the delivery alert
// calculator. Nothing here touches storage or the clock: callers inject `now`
// and persist the result, which keeps every rule unit-testable.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/lalored20/lavaseco-app-sub000/internal/apierror"
	"github.com/lalored20/lavaseco-app-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tipos de acción sobre una orden.
const (
	AccionOrganizar      = "organizar"
	AccionMarcarFaltante = "marcar_faltante"
	AccionMarcarHallada  = "marcar_hallada"
	AccionEntregar       = "entregar"
	AccionCancelar       = "cancelar"
	AccionAbonar         = "abonar"
)

// Accion is a request to move an order through its lifecycle.
// Monto and Metodo are only meaningful for abonar and entregar
// (entregar uses Metodo for the settling payment when a balance remains).
type Accion struct {
	Tipo   string
	Monto  decimal.Decimal
	Metodo string
	Nota   string
}

// Resultado carries the updated order plus the ledger entry the action
// produced, if any. The caller persists both atomically.
type Resultado struct {
	Orden      model.Orden
	NuevoAbono *model.Abono
}

// Aplicar runs one action against an order and returns the updated copy.
// Terminal orders (delivered, CANCELADO) reject every action.
func Aplicar(o model.Orden, a Accion, now time.Time) (Resultado, error) {
	if model.EsTerminal(o.Estado) {
		return Resultado{}, apierror.Validacion(
			fmt.Sprintf("la orden %d esta en estado terminal %s", o.NumeroTicket, o.Estado))
	}

	switch a.Tipo {
	case AccionOrganizar, AccionMarcarHallada:
		o.Estado = model.EstadoEnProceso

	case AccionMarcarFaltante:
		o.Estado = model.EstadoProblema

	case AccionCancelar:
		o.Estado = model.EstadoCancelado
		o.EstadoPago = model.PagoCancelado

	case AccionAbonar:
		abono, err := registrarAbono(&o, a, now)
		if err != nil {
			return Resultado{}, err
		}
		o.UpdatedAt = now
		return Resultado{Orden: o, NuevoAbono: abono}, nil

	case AccionEntregar:
		var abono *model.Abono
		saldo := o.Total.Sub(o.Pagado)
		if saldo.IsPositive() {
			// Delivery settles the balance: register the closing payment first
			liq := a
			liq.Monto = saldo
			if liq.Metodo == "" {
				liq.Metodo = model.MetodoEfectivo
			}
			var err error
			abono, err = registrarAbono(&o, liq, now)
			if err != nil {
				return Resultado{}, err
			}
		}
		entrega := now
		o.FechaEntrega = &entrega
		o.Estado = model.EstadoEntregado
		o.EstadoPago = model.PagoCancelado
		o.UpdatedAt = now
		return Resultado{Orden: o, NuevoAbono: abono}, nil

	default:
		return Resultado{}, apierror.Validacion("accion desconocida: " + a.Tipo)
	}

	o.UpdatedAt = now
	return Resultado{Orden: o}, nil
}

// registrarAbono appends a payment to the order and re-derives its payment
// status. Invariant: Pagado always equals the sum of the ledger, so the new
// total is computed from the old one plus this entry — never overwritten.
func registrarAbono(o *model.Orden, a Accion, now time.Time) (*model.Abono, error) {
	if !a.Monto.IsPositive() {
		return nil, apierror.Validacion("el monto del abono debe ser mayor a cero")
	}
	metodo := a.Metodo
	if metodo == "" {
		metodo = model.MetodoEfectivo
	}

	nuevoPagado := o.Pagado.Add(a.Monto)

	tipo := model.AbonoParcial
	switch {
	case nuevoPagado.GreaterThanOrEqual(o.Total) && o.Total.IsPositive():
		tipo = model.AbonoCancelacion
		o.EstadoPago = model.PagoCancelado
	case nuevoPagado.IsPositive():
		o.EstadoPago = model.PagoAbono
	default:
		o.EstadoPago = model.PagoPendiente
	}

	o.Pagado = nuevoPagado

	return &model.Abono{
		ID:        uuid.New(),
		OrdenID:   o.ID,
		Tipo:      tipo,
		Metodo:    metodo,
		Monto:     a.Monto,
		Nota:      a.Nota,
		CreatedAt: now,
	}, nil
}

// DerivarEstadoPago recomputes the payment status from totals alone.
// Used when reconciling records whose ledger was rebuilt.
func DerivarEstadoPago(total, pagado decimal.Decimal) string {
	switch {
	case pagado.GreaterThanOrEqual(total) && total.IsPositive():
		return model.PagoCancelado
	case pagado.IsPositive():
		return model.PagoAbono
	default:
		return model.PagoPendiente
	}
}
