package dto

// Payloads of the Redis job queues. They travel as JSON and carry IDs only;
// workers reload the rows they need.

type TicketJobPayload struct {
	VentaID      string `json:"venta_id"`
	NegocioID    string `json:"negocio_id"`
	ClienteEmail string `json:"cliente_email,omitempty"`
}

type EmailJobPayload struct {
	To          string `json:"to"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	Attachment  string `json:"attachment,omitempty"` // path on disk
	ContentType string `json:"content_type,omitempty"`
}

type ReporteJobPayload struct {
	NegocioID string `json:"negocio_id"`
	Fecha     string `json:"fecha"` // YYYY-MM-DD in the negocio time zone
}
