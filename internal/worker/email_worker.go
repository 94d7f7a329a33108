package worker

// email_worker.go
// Processes mail jobs from QueueEmail: tickets, registration links.

import (
	"context"
	"encoding/json"
	"errors"

	"dulceriapos/internal/dto"
	"dulceriapos/internal/infra"
	"dulceriapos/internal/service"

	"github.com/rs/zerolog/log"
)

// EmailWorker sends each job through the SMTP mailer.
type EmailWorker struct {
	mailer service.Mailer
}

func NewEmailWorker(mailer service.Mailer) *EmailWorker {
	return &EmailWorker{mailer: mailer}
}

func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload dto.EmailJobPayload
	if err := decode(raw, &payload); err != nil {
		return err
	}
	if payload.To == "" {
		log.Warn().Msg("email_worker: empty recipient, skipping")
		return nil
	}

	err := w.mailer.Enviar(payload.To, payload.Subject, payload.Body, payload.Attachment)
	if errors.Is(err, infra.ErrMailerNoConfigurado) {
		log.Warn().Str("to", payload.To).Msg("email_worker: SMTP not configured, dropping mail")
		return nil
	}
	if err != nil {
		return err
	}
	log.Info().Str("to", payload.To).Msg("email_worker: mail sent")
	return nil
}
