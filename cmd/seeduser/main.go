// cmd/seeduser/main.go: registers a demo negocio with its owner and one cashier.
// Uso: go run ./cmd/seeduser
package main

import (
	"context"
	"fmt"
	"os"

	"dulceriapos/internal/apierror"
	"dulceriapos/internal/config"
	"dulceriapos/internal/dto"
	"dulceriapos/internal/infra"
	"dulceriapos/internal/repository"
	"dulceriapos/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	if err := infra.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("migrations")
	}

	ctx := context.Background()
	usuarioRepo := repository.NewUsuarioRepository(db)
	negocioRepo := repository.NewNegocioRepository(db)
	negocios := service.NewNegocioService(negocioRepo, usuarioRepo)
	usuarios := service.NewUsuarioService(usuarioRepo, repository.NewSesionRepository(db), negocioRepo, cfg)

	negocio, err := negocios.Registrar(ctx, dto.RegistrarNegocioRequest{
		Nombre:              "Dulceria Demo",
		Email:               "demo@dulceria.mx",
		Plan:                "intermedio",
		SucursalNombre:      "Centro",
		PropietarioUsername: "admin",
		PropietarioNombre:   "Admin Demo",
		PropietarioPassword: "dulceria2026",
	})
	if apierror.Is(err, apierror.KindConflict) {
		fmt.Println("El negocio demo ya existe")
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("registrar negocio")
	}

	nid := uuid.MustParse(negocio.ID)
	owner := uuid.MustParse(negocio.Propietario.ID)
	if _, err := usuarios.Crear(ctx, nid, owner, dto.CrearUsuarioRequest{
		Username: "cajero",
		Nombre:   "Cajero Demo",
		Password: "cajero2026",
	}); err != nil {
		log.Fatal().Err(err).Msg("crear cajero")
	}

	fmt.Printf("Negocio %s creado\n  admin / dulceria2026\n  cajero / cajero2026\n", negocio.ID)
}
