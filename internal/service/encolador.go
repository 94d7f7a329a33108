package service

import (
	"context"

	"dulceriapos/internal/dto"
)

// Encolador hands work to the async job queues. worker.Dispatcher
// implements it; enqueue failures never fail the business operation.
type Encolador interface {
	EncolarTicket(ctx context.Context, p dto.TicketJobPayload) error
	EncolarEmail(ctx context.Context, p dto.EmailJobPayload) error
	EncolarReporte(ctx context.Context, p dto.ReporteJobPayload) error
}
