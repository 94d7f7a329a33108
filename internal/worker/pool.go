package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dulceriapos/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueTicket  = "jobs:ticket"
	QueueEmail   = "jobs:email"
	QueueReporte = "jobs:reporte"

	// MaxIntentos is how many times a job runs before it goes to the DLQ.
	MaxIntentos = 3
)

// ErrPayloadInvalido marks a job that can never succeed; it skips retries.
var ErrPayloadInvalido = errors.New("worker: payload invalido")

// Cola is the subset of *redis.Client used by the queues.
type Cola interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	LLen(ctx context.Context, key string) *redis.IntCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Handler processes one job payload.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	cola Cola
}

func NewDispatcher(cola Cola) *Dispatcher {
	return &Dispatcher{cola: cola}
}

func (d *Dispatcher) EncolarTicket(ctx context.Context, p dto.TicketJobPayload) error {
	return d.enqueue(ctx, QueueTicket, "ticket", p)
}

func (d *Dispatcher) EncolarEmail(ctx context.Context, p dto.EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, "email", p)
}

func (d *Dispatcher) EncolarReporte(ctx context.Context, p dto.ReporteJobPayload) error {
	return d.enqueue(ctx, QueueReporte, "reporte", p)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	return d.cola.LPush(ctx, queue, encoded).Err()
}

// Pool runs a fixed number of goroutines consuming every registered queue.
type Pool struct {
	cola     Cola
	size     int
	handlers map[string]Handler
	queues   []string
	// espera is the first retry backoff; it doubles on every attempt.
	espera time.Duration
}

func NewPool(cola Cola, size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{cola: cola, size: size, handlers: map[string]Handler{}, espera: time.Second}
}

// Handle registers the handler of a queue. Call before Start.
func (p *Pool) Handle(queue string, h Handler) {
	if _, ok := p.handlers[queue]; !ok {
		p.queues = append(p.queues, queue)
	}
	p.handlers[queue] = h
}

// Start launches the workers. Each goroutine blocks on BRPOP, zero CPU when idle.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		go p.run(ctx, i)
	}
	log.Info().Int("workers", p.size).Strs("queues", p.queues).Msg("worker pool started")
}

func (p *Pool) run(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := p.cola.BRPop(ctx, 5*time.Second, p.queues...).Result()
			if err != nil || len(result) < 2 {
				continue
			}
			p.procesar(ctx, result[0], result[1])
		}
	}
}

// procesar runs the job with backoff retries and dead-letters it when every
// attempt failed.
func (p *Pool) procesar(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, p.cola, queue, "desconocido", json.RawMessage(fmt.Sprintf("%q", raw)), err.Error(), 0)
		return
	}
	h, ok := p.handlers[queue]
	if !ok {
		log.Error().Str("queue", queue).Msg("no handler for queue")
		return
	}

	intentos := 0
	err := withRetry(ctx, MaxIntentos, p.espera, func(attempt int) error {
		intentos = attempt + 1
		err := h(ctx, job.Payload)
		if err != nil && !errors.Is(err, ErrPayloadInvalido) {
			log.Warn().Err(err).Str("queue", queue).Int("attempt", intentos).Msg("job failed")
		}
		return err
	})
	if err != nil {
		SendToDLQ(ctx, p.cola, queue, job.Type, job.Payload, err.Error(), intentos)
		return
	}
	log.Debug().Str("type", job.Type).Str("queue", queue).Int("attempts", intentos).Msg("job done")
}

// withRetry calls fn up to maxAttempts times with exponential backoff
// (espera, 2*espera, ...). Payload errors stop immediately.
func withRetry(ctx context.Context, maxAttempts int, espera time.Duration, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := espera * time.Duration(1<<uint(i-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		err := fn(i)
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, ErrPayloadInvalido) {
			return err
		}
	}
	return lastErr
}

// decode unmarshals a payload, tagging failures as ErrPayloadInvalido.
func decode(raw json.RawMessage, v interface{}) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrPayloadInvalido, err)
	}
	return nil
}
