package worker

// cron.go
// Background goroutine that ticks every minute. Each tick closes sessions
// idle past the seat window and, at REPORTE_DIARIO_HORA in each negocio's
// time zone, enqueues that negocio's daily report.

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dulceriapos/internal/dto"
	"dulceriapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	cronTickInterval = time.Minute
	// reporteMarcaTTL outlives the day so a restart in the same hour does
	// not enqueue twice.
	reporteMarcaTTL = 26 * time.Hour
)

type reporteEncolador interface {
	EncolarReporte(ctx context.Context, p dto.ReporteJobPayload) error
}

// CronConfig holds all dependencies for the cron goroutine.
type CronConfig struct {
	Negocios      repository.NegocioRepository
	Sesiones      repository.SesionRepository
	Jobs          reporteEncolador
	Cola          Cola // optional; dedupes the report across replicas
	Hora          int
	SessionWindow time.Duration
}

type cron struct {
	cfg CronConfig
	now func() time.Time

	mu        sync.Mutex
	encolados map[uuid.UUID]string // negocio -> last fecha enqueued
}

func newCron(cfg CronConfig) *cron {
	return &cron{cfg: cfg, now: time.Now, encolados: map[uuid.UUID]string{}}
}

// StartCron launches the ticker. It respects ctx for graceful shutdown.
func StartCron(ctx context.Context, cfg CronConfig) {
	c := newCron(cfg)
	go func() {
		ticker := time.NewTicker(cronTickInterval)
		defer ticker.Stop()

		log.Info().Int("hora_reporte", cfg.Hora).Msg("cron: started")
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("cron: shutting down")
				return
			case <-ticker.C:
				c.tick(ctx)
			}
		}
	}()
}

func (c *cron) tick(ctx context.Context) {
	now := c.now()
	c.expirarSesiones(ctx, now)
	c.encolarReportes(ctx, now)
}

func (c *cron) expirarSesiones(ctx context.Context, now time.Time) {
	if c.cfg.Sesiones == nil || c.cfg.SessionWindow <= 0 {
		return
	}
	n, err := c.cfg.Sesiones.ExpirarInactivas(ctx, now.Add(-c.cfg.SessionWindow))
	if err != nil {
		log.Error().Err(err).Msg("cron: failed to expire sessions")
		return
	}
	if n > 0 {
		log.Info().Int64("sesiones", n).Msg("cron: idle sessions closed")
	}
}

func (c *cron) encolarReportes(ctx context.Context, now time.Time) {
	negocios, err := c.cfg.Negocios.ListConReporteDiario(ctx)
	if err != nil {
		log.Error().Err(err).Msg("cron: failed to list negocios with daily report")
		return
	}

	for _, n := range negocios {
		local := now.In(n.Configuracion.Location())
		if local.Hour() != c.cfg.Hora {
			continue
		}
		fecha := local.Format("2006-01-02")
		if !c.marcar(ctx, n.ID, fecha) {
			continue
		}
		p := dto.ReporteJobPayload{NegocioID: n.ID.String(), Fecha: fecha}
		if err := c.cfg.Jobs.EncolarReporte(ctx, p); err != nil {
			log.Error().Err(err).Str("negocio_id", p.NegocioID).Msg("cron: failed to enqueue daily report")
			c.desmarcar(ctx, n.ID, fecha)
			continue
		}
		log.Info().Str("negocio_id", p.NegocioID).Str("fecha", fecha).Msg("cron: daily report enqueued")
	}
}

// marcar records that the report of fecha was taken by this process. With a
// Cola, the Redis marker makes only one replica win.
func (c *cron) marcar(ctx context.Context, negocioID uuid.UUID, fecha string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.encolados[negocioID] == fecha {
		return false
	}
	if c.cfg.Cola != nil {
		ok, err := c.cfg.Cola.SetNX(ctx, marcaKey(negocioID, fecha), 1, reporteMarcaTTL).Result()
		if err != nil {
			log.Warn().Err(err).Msg("cron: redis marker unavailable, using local state")
		} else if !ok {
			c.encolados[negocioID] = fecha
			return false
		}
	}
	c.encolados[negocioID] = fecha
	return true
}

// desmarcar releases the marker so the next tick retries.
func (c *cron) desmarcar(ctx context.Context, negocioID uuid.UUID, fecha string) {
	c.mu.Lock()
	delete(c.encolados, negocioID)
	c.mu.Unlock()
	if c.cfg.Cola != nil {
		_ = c.cfg.Cola.Del(ctx, marcaKey(negocioID, fecha)).Err()
	}
}

func marcaKey(negocioID uuid.UUID, fecha string) string {
	return fmt.Sprintf("reporte:encolado:%s:%s", negocioID, fecha)
}
