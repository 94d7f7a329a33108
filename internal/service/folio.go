package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// FolioGenerator issues receipt identifiers: V + YYYYmmddHHMMSS + a 4 digit
// daily sequence.
type FolioGenerator interface {
	Siguiente(ctx context.Context, negocioID uuid.UUID, at time.Time) string
}

type redisFolio struct{ rdb *redis.Client }

// NewFolioGenerator keeps the daily sequence in Redis
// (folio:{negocio}:{YYYYmmdd}). With a nil client, or when Redis fails, the
// sequence falls back to a random number; the unique index still guards
// collisions.
func NewFolioGenerator(rdb *redis.Client) FolioGenerator {
	return &redisFolio{rdb: rdb}
}

func (f *redisFolio) Siguiente(ctx context.Context, negocioID uuid.UUID, at time.Time) string {
	seq := int64(0)
	if f.rdb != nil {
		key := fmt.Sprintf("folio:%s:%s", negocioID, at.Format("20060102"))
		n, err := f.rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("folio: redis unavailable, using random sequence")
		} else {
			if n == 1 {
				f.rdb.Expire(ctx, key, 48*time.Hour)
			}
			seq = n % 10000
		}
	}
	if seq == 0 {
		seq = randomSeq()
	}
	return fmt.Sprintf("V%s%04d", at.Format("20060102150405"), seq)
}

func randomSeq() int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(9999))
	if err != nil {
		return time.Now().UnixNano()%9999 + 1
	}
	return n.Int64() + 1
}

// conSufijo appends 4 random hex characters, used after a folio collision.
func conSufijo(folio string) string {
	b := make([]byte, 2)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%s%04X", folio, time.Now().UnixNano()&0xFFFF)
	}
	return folio + strings.ToUpper(hex.EncodeToString(b))
}
