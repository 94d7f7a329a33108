package repository

import (
	"context"
	"testing"
	"time"

	"dulceriapos/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVentaRepo_LockByIDTx_LoadsDetalles(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewVentaRepository(db)
	negocioID, id := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "ventas" WHERE id = \$1 AND negocio_id = \$2 ORDER BY "ventas"."id" LIMIT \$3 FOR UPDATE`).
		WithArgs(id, negocioID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "negocio_id", "folio", "estado", "total"}).
			AddRow(id, negocioID, "V-20260314-0001", "completada", "42.00"))
	mock.ExpectQuery(`SELECT \* FROM "venta_detalles" WHERE venta_id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "venta_id", "producto_id", "cantidad"}).
			AddRow(uuid.New(), id, uuid.New(), "2").
			AddRow(uuid.New(), id, uuid.New(), "1"))

	v, err := repo.LockByIDTx(db, negocioID, id)
	require.NoError(t, err)
	assert.Equal(t, model.VentaCompletada, v.Estado)
	assert.Len(t, v.Detalles, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVentaRepo_UpdateEstadoTx(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewVentaRepository(db)
	id := uuid.New()
	motivo := "cliente se arrepintió"

	mock.ExpectExec(`UPDATE "ventas" SET .*"estado"=.*WHERE id = `).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateEstadoTx(db, id, model.VentaCancelada, &motivo))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVentaRepo_Totales_EfectivoEsMontoPagado(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewVentaRepository(db)
	negocioID, sucursalID := uuid.New(), uuid.New()
	desde := time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC)
	hasta := desde.Add(24 * time.Hour)

	mock.ExpectQuery(`SELECT COUNT\(\*\) AS numero_ventas, .*`+
		`CASE WHEN metodo_pago = \$1 THEN monto_pagado ELSE 0 END.*`+
		`CASE WHEN metodo_pago = \$2 THEN total ELSE 0 END.* FROM "ventas" `+
		`WHERE ventas\.estado = \$3 .*ventas\.sucursal_id = \$6 AND ventas\.negocio_id = \$7`).
		WithArgs(model.PagoEfectivo, model.PagoTarjeta, model.VentaCompletada, desde, hasta, sucursalID, negocioID).
		WillReturnRows(sqlmock.NewRows([]string{"numero_ventas", "total_ventas", "total_efectivo", "total_tarjetas"}).
			AddRow(2, "250.00", "200.00", "100.00"))

	tot, err := repo.Totales(context.Background(), negocioID, &sucursalID, desde, hasta)
	require.NoError(t, err)
	assert.Equal(t, int64(2), tot.NumeroVentas)
	assert.Equal(t, "200", tot.TotalEfectivo.String())
	assert.Equal(t, "100", tot.TotalTarjetas.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
