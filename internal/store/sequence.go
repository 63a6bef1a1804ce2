package store

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// SQLSequence hands out invoice numbers from the invoice_sequence table.
// Each call commits on its own so a number is never handed out twice, even
// if the invoice that consumed it is later rolled back.
type SQLSequence struct {
	db *sqlx.DB
}

func NewSQLSequence(db *sqlx.DB) *SQLSequence {
	return &SQLSequence{db: db}
}

func (s *SQLSequence) Next(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.GetContext(ctx, &n, `UPDATE invoice_sequence SET value = value + 1 WHERE name = 'invoice' RETURNING value`)
	if err != nil {
		return 0, storageErr("next invoice number", err)
	}
	return n, nil
}

const redisSequenceKey = "medstock:invoice_seq"

// RedisSequence shares the invoice counter between instances with INCR.
type RedisSequence struct {
	client redis.UniversalClient
}

func NewRedisSequence(client redis.UniversalClient) *RedisSequence {
	return &RedisSequence{client: client}
}

func (s *RedisSequence) Next(ctx context.Context) (int64, error) {
	n, err := s.client.Incr(ctx, redisSequenceKey).Result()
	if err != nil {
		return 0, storageErr("next invoice number", err)
	}
	if n <= 0 {
		return 0, storageErr("next invoice number", errors.New("counter returned a non-positive value"))
	}
	return n, nil
}
