package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCajaRepo_FindByFecha_ComparesCalendarDay(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCajaRepository(db)
	negocioID, sucursalID, id := uuid.New(), uuid.New(), uuid.New()

	loc, err := time.LoadLocation("America/Mexico_City")
	require.NoError(t, err)
	// 23:30 local is already the next day in UTC; the day compared must be local.
	fecha := time.Date(2026, 3, 14, 23, 30, 0, 0, loc)

	mock.ExpectQuery(`SELECT \* FROM "cajas" WHERE \(sucursal_id = \$1 AND fecha = \$2\) AND negocio_id = \$3 ORDER BY "cajas"."id" LIMIT \$4`).
		WithArgs(sucursalID, "2026-03-14", negocioID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "negocio_id", "sucursal_id", "monto_inicial", "estado"}).
			AddRow(id, negocioID, sucursalID, "500.00", "abierta"))

	c, err := repo.FindByFecha(context.Background(), negocioID, sucursalID, fecha)
	require.NoError(t, err)
	assert.Equal(t, id, c.ID)
	assert.Equal(t, "500", c.MontoInicial.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCajaRepo_LockByIDTx(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCajaRepository(db)
	negocioID, id := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "cajas" WHERE id = \$1 AND negocio_id = \$2 ORDER BY "cajas"."id" LIMIT \$3 FOR UPDATE`).
		WithArgs(id, negocioID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "negocio_id", "estado"}).
			AddRow(id, negocioID, "abierta"))

	c, err := repo.LockByIDTx(db, negocioID, id)
	require.NoError(t, err)
	assert.Equal(t, "abierta", c.Estado)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCajaRepo_FindAbiertaTx_SharesTheRowLock(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCajaRepository(db)
	negocioID, sucursalID, id := uuid.New(), uuid.New(), uuid.New()
	fecha := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "cajas" WHERE \(sucursal_id = \$1 AND fecha = \$2 AND estado = \$3\) AND negocio_id = \$4 `+
		`ORDER BY "cajas"."id" LIMIT \$5 FOR SHARE`).
		WithArgs(sucursalID, "2026-03-14", "abierta", negocioID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "negocio_id", "sucursal_id", "estado"}).
			AddRow(id, negocioID, sucursalID, "abierta"))

	c, err := repo.FindAbiertaTx(db, negocioID, sucursalID, fecha)
	require.NoError(t, err)
	assert.Equal(t, id, c.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCajaRepo_SumGastosTx(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCajaRepository(db)
	negocioID := uuid.New()
	desde := time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC)
	hasta := desde.Add(24 * time.Hour)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(monto\), 0\) FROM "gastos_caja" WHERE \(created_at >= \$1 AND created_at < \$2\) AND negocio_id = \$3`).
		WithArgs(desde, hasta, negocioID).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("35.50"))

	total, err := repo.SumGastosTx(db, negocioID, desde, hasta)
	require.NoError(t, err)
	assert.Equal(t, "35.5", total.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
