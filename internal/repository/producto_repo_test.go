package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var productoCols = []string{"id", "negocio_id", "codigo", "nombre", "precio", "stock", "stock_minimo", "activo"}

func TestProductoRepo_FindByCodigo(t *testing.T) {
	t.Run("scoped to the negocio", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewProductoRepository(db)
		negocioID, id := uuid.New(), uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "productos" WHERE codigo = \$1 AND negocio_id = \$2 ORDER BY "productos"."id" LIMIT \$3`).
			WithArgs("7501000000011", negocioID, 1).
			WillReturnRows(sqlmock.NewRows(productoCols).
				AddRow(id, negocioID, "7501000000011", "Pulparindo", "8.50", 40, 5, true))

		p, err := repo.FindByCodigo(context.Background(), negocioID, "7501000000011")
		require.NoError(t, err)
		assert.Equal(t, id, p.ID)
		assert.True(t, p.Precio.Equal(decimal.RequireFromString("8.50")))
		assert.Equal(t, 40, p.Stock)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row is ErrRecordNotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewProductoRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "productos" WHERE codigo = \$1 AND negocio_id = \$2`).
			WillReturnRows(sqlmock.NewRows(productoCols))

		_, err := repo.FindByCodigo(context.Background(), uuid.New(), "nada")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductoRepo_LockByIDTx(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductoRepository(db)
	negocioID, id := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "productos" WHERE id = \$1 AND negocio_id = \$2 ORDER BY "productos"."id" LIMIT \$3 FOR UPDATE`).
		WithArgs(id, negocioID, 1).
		WillReturnRows(sqlmock.NewRows(productoCols).
			AddRow(id, negocioID, "123", "Mazapán", "6.00", 12, 0, true))

	p, err := repo.LockByIDTx(db, negocioID, id)
	require.NoError(t, err)
	assert.Equal(t, 12, p.Stock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductoRepo_LockByIDsTx_OrdersByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductoRepository(db)
	negocioID := uuid.New()
	a, b := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "productos" WHERE id IN \(\$1,\$2\) AND negocio_id = \$3 ORDER BY id ASC FOR UPDATE`).
		WithArgs(a, b, negocioID).
		WillReturnRows(sqlmock.NewRows(productoCols).
			AddRow(a, negocioID, "1", "Duvalín", "5.00", 3, 0, true).
			AddRow(b, negocioID, "2", "Rockaleta", "12.00", 9, 0, true))

	list, err := repo.LockByIDsTx(db, negocioID, []uuid.UUID{a, b})
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductoRepo_SetStockTx(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductoRepository(db)
	id := uuid.New()

	mock.ExpectExec(`UPDATE "productos" SET "stock"=\$1,"updated_at"=\$2 WHERE id = \$3`).
		WithArgs(7, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetStockTx(db, id, 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductoRepo_HasVentas(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductoRepository(db)
	id := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "venta_detalles" WHERE producto_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err := repo.HasVentas(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductoRepo_StockBajo(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductoRepository(db)
	negocioID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "productos" WHERE \(activo = true AND stock_minimo > 0 AND stock <= stock_minimo\) AND negocio_id = \$1 ORDER BY stock ASC, nombre ASC`).
		WithArgs(negocioID).
		WillReturnRows(sqlmock.NewRows(productoCols).
			AddRow(uuid.New(), negocioID, "9", "Pelón Pelo Rico", "14.00", 2, 5, true))

	list, err := repo.StockBajo(context.Background(), negocioID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Pelón Pelo Rico", list[0].Nombre)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductoRepo_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductoRepository(db)
	negocioID, id := uuid.New(), uuid.New()

	mock.ExpectExec(`DELETE FROM "productos" WHERE id = \$1 AND negocio_id = \$2`).
		WithArgs(id, negocioID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), negocioID, id))
	assert.NoError(t, mock.ExpectationsWereMet())
}
