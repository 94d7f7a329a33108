// cmd/ledgercheck/main.go: replays the stock ledger of every negocio, or of
// one, and lists the products whose stored stock disagrees with it.
// Uso: go run ./cmd/ledgercheck [-negocio <uuid>] [-reparar]
// Sale con código 1 si queda alguna inconsistencia sin reparar.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"dulceriapos/internal/config"
	"dulceriapos/internal/infra"
	"dulceriapos/internal/repository"
	"dulceriapos/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		negocio string
		reparar bool
	)
	flag.StringVar(&negocio, "negocio", "", "ID del negocio a revisar (vacío = todos)")
	flag.BoolVar(&reparar, "reparar", false, "reescribe el stock desde el ledger cuando la cadena está intacta")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}

	// Repairs change stock, so cached prices are dropped when Redis is there.
	precios := service.NewPrecioCache(nil)
	if rdb, err := infra.NewRedis(cfg.RedisURL); err == nil {
		precios = service.NewPrecioCache(rdb)
		defer rdb.Close()
	} else {
		log.Warn().Err(err).Msg("redis no disponible, el cache de precios no se invalidará")
	}

	ctx := context.Background()
	ids, err := negociosARevisar(ctx, repository.NewNegocioRepository(db), negocio)
	if err != nil {
		log.Fatal().Err(err).Msg("negocios")
	}

	inv := service.NewInventarioService(
		repository.NewProductoRepository(db),
		repository.NewMovimientoStockRepository(db),
		precios,
		cfg.Location(),
	)
	pendientes, err := revisar(ctx, inv, ids, reparar, os.Stdout)
	if err != nil {
		log.Fatal().Err(err).Msg("verificar ledger")
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if pendientes > 0 {
		log.Error().Int("pendientes", pendientes).Msg("ledger inconsistente")
		os.Exit(1)
	}
}

// negociosARevisar returns the negocio named by filtro, or all of them.
func negociosARevisar(ctx context.Context, repo repository.NegocioRepository, filtro string) ([]uuid.UUID, error) {
	if filtro != "" {
		id, err := uuid.Parse(filtro)
		if err != nil {
			return nil, fmt.Errorf("negocio invalido %q: %w", filtro, err)
		}
		return []uuid.UUID{id}, nil
	}
	negocios, err := repo.ListTodos(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(negocios))
	for _, n := range negocios {
		ids = append(ids, n.ID)
	}
	return ids, nil
}

// revisar writes one line per inconsistency and returns how many were left
// unrepaired.
func revisar(ctx context.Context, inv service.InventarioService, negocios []uuid.UUID, reparar bool, out io.Writer) (int, error) {
	pendientes := 0
	for _, id := range negocios {
		res, err := inv.VerificarConsistencia(ctx, id, reparar)
		if err != nil {
			return pendientes, fmt.Errorf("negocio %s: %w", id, err)
		}
		log.Info().
			Str("negocio_id", id.String()).
			Int("productos", res.ProductosRevisados).
			Int("movimientos", res.MovimientosRevisados).
			Int("inconsistencias", len(res.Inconsistencias)).
			Int("reparados", res.Reparados).
			Msg("ledger revisado")

		for _, inc := range res.Inconsistencias {
			fmt.Fprintf(out, "%s\t%s\talmacenado=%d\tledger=%d\tsuma=%d\tcadena_rota=%t\treparado=%t\n",
				id, inc.Codigo, inc.StockAlmacenado, inc.StockLedger, inc.SumaMovimientos, inc.CadenaRota, inc.Reparado)
			if !inc.Reparado {
				pendientes++
			}
		}
	}
	return pendientes, nil
}
