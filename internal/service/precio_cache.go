package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dulceriapos/internal/dto"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const precioCacheTTL = 4 * time.Hour

// PrecioCache backs the public price check. Entries are dropped whenever a
// product changes or its stock moves.
type PrecioCache interface {
	Get(ctx context.Context, negocioID uuid.UUID, codigo string) (*dto.ConsultaPrecioResponse, bool)
	Set(ctx context.Context, negocioID uuid.UUID, codigo string, v *dto.ConsultaPrecioResponse)
	Invalidar(ctx context.Context, negocioID uuid.UUID, codigos ...string)
}

type redisPrecioCache struct{ rdb *redis.Client }

// NewPrecioCache returns a Redis backed cache; a nil client disables caching.
func NewPrecioCache(rdb *redis.Client) PrecioCache {
	return &redisPrecioCache{rdb: rdb}
}

func precioKey(negocioID uuid.UUID, codigo string) string {
	return fmt.Sprintf("precio:%s:%s", negocioID, codigo)
}

func (c *redisPrecioCache) Get(ctx context.Context, negocioID uuid.UUID, codigo string) (*dto.ConsultaPrecioResponse, bool) {
	if c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, precioKey(negocioID, codigo)).Bytes()
	if err != nil {
		return nil, false
	}
	var v dto.ConsultaPrecioResponse
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	return &v, true
}

func (c *redisPrecioCache) Set(ctx context.Context, negocioID uuid.UUID, codigo string, v *dto.ConsultaPrecioResponse) {
	if c.rdb == nil || v == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, precioKey(negocioID, codigo), raw, precioCacheTTL).Err(); err != nil {
		log.Warn().Err(err).Msg("precio_cache: set failed")
	}
}

func (c *redisPrecioCache) Invalidar(ctx context.Context, negocioID uuid.UUID, codigos ...string) {
	if c.rdb == nil || len(codigos) == 0 {
		return
	}
	keys := make([]string, 0, len(codigos))
	for _, codigo := range codigos {
		keys = append(keys, precioKey(negocioID, codigo))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("precio_cache: invalidation failed")
	}
}
