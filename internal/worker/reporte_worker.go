package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"dulceriapos/internal/apierror"
	"dulceriapos/internal/dto"
	"dulceriapos/internal/infra"
	"dulceriapos/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReporteWorker mails the daily report of one negocio.
type ReporteWorker struct {
	reportes service.ReporteService
}

func NewReporteWorker(reportes service.ReporteService) *ReporteWorker {
	return &ReporteWorker{reportes: reportes}
}

func (w *ReporteWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload dto.ReporteJobPayload
	if err := decode(raw, &payload); err != nil {
		return err
	}
	negocioID, err := uuid.Parse(payload.NegocioID)
	if err != nil {
		return fmt.Errorf("%w: negocio_id %q", ErrPayloadInvalido, payload.NegocioID)
	}
	err = w.reportes.EnviarReporteDiario(ctx, negocioID, payload.Fecha)
	switch {
	case errors.Is(err, infra.ErrMailerNoConfigurado):
		log.Warn().Str("negocio_id", payload.NegocioID).Msg("reporte_worker: SMTP not configured, skipping")
		return nil
	case apierror.Is(err, apierror.KindNotFound), apierror.Is(err, apierror.KindValidation):
		return fmt.Errorf("%w: %v", ErrPayloadInvalido, err)
	case err != nil:
		return err
	}
	log.Info().Str("negocio_id", payload.NegocioID).Str("fecha", payload.Fecha).Msg("reporte_worker: daily report sent")
	return nil
}
