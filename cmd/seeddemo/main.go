// cmd/seeddemo/main.go — Siembra ordenes de demo en la base local.
// Uso: go run cmd/seeddemo/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/lalored20/lavaseco-app-sub000/internal/infra"
	"github.com/lalored20/lavaseco-app-sub000/internal/model"
	"github.com/lalored20/lavaseco-app-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func main() {
	path := os.Getenv("LOCAL_DB_PATH")
	if path == "" {
		path = "lavaseco.db"
	}

	db, err := infra.NewLocalDB(path)
	if err != nil {
		log.Fatalf("db open error: %v", err)
	}

	ctx := context.Background()
	clientes := repository.NewClienteRepository(db)
	ordenes := repository.NewOrdenRepository(db)
	abonos := repository.NewAbonoRepository(db)

	now := time.Now()
	manana := now.Add(24 * time.Hour)

	demos := []struct {
		cedula, nombre, telefono string
		items                    []model.OrdenItem
		abonoInicial             decimal.Decimal
	}{
		{
			cedula: "1017234567", nombre: "Maria Lopez", telefono: "3001234567",
			items: []model.OrdenItem{
				{Descripcion: "Vestido de gala", Cantidad: 1, PrecioUnitario: decimal.NewFromInt(35000), Marcas: "mancha en la manga"},
				{Descripcion: "Camisa", Cantidad: 3, PrecioUnitario: decimal.NewFromInt(8000)},
			},
			abonoInicial: decimal.NewFromInt(20000),
		},
		{
			cedula: "9876543210", nombre: "Carlos Rios", telefono: "3109876543",
			items: []model.OrdenItem{
				{Descripcion: "Cobija doble", Cantidad: 2, PrecioUnitario: decimal.NewFromInt(25000)},
			},
			abonoInicial: decimal.Zero,
		},
	}

	for _, d := range demos {
		cliente, err := clientes.FindOrCreate(ctx, &model.Cliente{
			ID: d.cedula, Nombre: d.nombre, Telefono: d.telefono, CreatedAt: now,
		})
		if err != nil {
			log.Fatalf("cliente error: %v", err)
		}

		total := decimal.Zero
		items := make([]model.OrdenItem, 0, len(d.items))
		for _, it := range d.items {
			it.ID = uuid.New()
			it.Subtotal = it.PrecioUnitario.Mul(decimal.NewFromInt(int64(it.Cantidad)))
			total = total.Add(it.Subtotal)
			items = append(items, it)
		}

		estadoPago := model.PagoPendiente
		if d.abonoInicial.GreaterThan(decimal.Zero) {
			estadoPago = model.PagoAbono
		}

		orden := &model.Orden{
			ID:              uuid.New(),
			ClienteID:       cliente.ID,
			ClienteNombre:   cliente.Nombre,
			ClienteTelefono: cliente.Telefono,
			Items:           items,
			Total:           total,
			Pagado:          d.abonoInicial,
			Estado:          model.EstadoPendiente,
			EstadoPago:      estadoPago,
			FechaProgramada: &manana,
			SyncEstado:      model.SyncPendingSync,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := ordenes.Create(ctx, orden); err != nil {
			log.Fatalf("orden error: %v", err)
		}

		if d.abonoInicial.GreaterThan(decimal.Zero) {
			err := abonos.Append(ctx, &model.Abono{
				ID:        uuid.New(),
				OrdenID:   orden.ID,
				Tipo:      model.AbonoInicial,
				Metodo:    model.MetodoEfectivo,
				Monto:     d.abonoInicial,
				CreatedAt: now,
			})
			if err != nil {
				log.Fatalf("abono error: %v", err)
			}
		}

		fmt.Printf("orden de demo creada: cliente=%s total=%s\n", d.nombre, total.StringFixed(0))
	}
}
