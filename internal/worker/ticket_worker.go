package worker

// ticket_worker.go
// Renders the PDF receipt of a completed sale and, when the customer left an
// address, hands it to the email queue.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dulceriapos/internal/dto"
	"dulceriapos/internal/infra"
	"dulceriapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type emailEncolador interface {
	EncolarEmail(ctx context.Context, p dto.EmailJobPayload) error
}

// TicketWorker processes jobs from QueueTicket.
type TicketWorker struct {
	ventaRepo      repository.VentaRepository
	negocioRepo    repository.NegocioRepository
	emails         emailEncolador
	pdfStoragePath string
	loc            *time.Location
}

func NewTicketWorker(
	ventaRepo repository.VentaRepository,
	negocioRepo repository.NegocioRepository,
	emails emailEncolador,
	pdfStoragePath string,
	loc *time.Location,
) *TicketWorker {
	return &TicketWorker{
		ventaRepo:      ventaRepo,
		negocioRepo:    negocioRepo,
		emails:         emails,
		pdfStoragePath: pdfStoragePath,
		loc:            loc,
	}
}

// Process writes ticket_{folio}.pdf and optionally enqueues the mail.
func (w *TicketWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload dto.TicketJobPayload
	if err := decode(raw, &payload); err != nil {
		return err
	}
	ventaID, err := uuid.Parse(payload.VentaID)
	if err != nil {
		return fmt.Errorf("%w: venta_id %q", ErrPayloadInvalido, payload.VentaID)
	}
	negocioID, err := uuid.Parse(payload.NegocioID)
	if err != nil {
		return fmt.Errorf("%w: negocio_id %q", ErrPayloadInvalido, payload.NegocioID)
	}

	venta, err := w.ventaRepo.FindByID(ctx, negocioID, ventaID)
	if err != nil {
		return fmt.Errorf("ticket_worker: venta %s: %w", ventaID, err)
	}

	nombre, loc := "", w.loc
	if n, err := w.negocioRepo.FindByID(ctx, negocioID); err == nil {
		nombre = n.Nombre
		if n.Configuracion != nil {
			loc = n.Configuracion.Location()
		}
	}

	pdfPath, err := infra.GenerarTicketPDF(venta, nombre, loc, w.pdfStoragePath)
	if err != nil {
		return err
	}
	log.Info().Str("pdf", pdfPath).Str("folio", venta.Folio).Msg("ticket_worker: PDF generated")

	if payload.ClienteEmail == "" {
		return nil
	}
	emailJob := dto.EmailJobPayload{
		To:          payload.ClienteEmail,
		Subject:     fmt.Sprintf("%s: ticket %s", nombre, venta.Folio),
		Body:        fmt.Sprintf("Gracias por tu compra.\nTotal: $%s", venta.Total.StringFixed(2)),
		Attachment:  pdfPath,
		ContentType: "application/pdf",
	}
	if err := w.emails.EncolarEmail(ctx, emailJob); err != nil {
		// The PDF exists; a retry would only regenerate it.
		log.Warn().Err(err).Str("email", payload.ClienteEmail).Msg("ticket_worker: failed to enqueue email")
	}
	return nil
}
