// Package notify publishes fire-and-forget hints that a parent
// record's line-item list changed, so dependent list views can refresh.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ChannelListUpdated carries parent record IDs whose line-item lists
// changed.
const ChannelListUpdated = "lineitems:updated"

const publishTimeout = 2 * time.Second

// NewClient creates a redis client for the notifier.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Publisher broadcasts list-updated hints over redis pub/sub.
type Publisher struct {
	rdb *redis.Client
	log *zap.Logger
}

// NewPublisher creates a Publisher.
func NewPublisher(rdb *redis.Client, log *zap.Logger) *Publisher {
	return &Publisher{rdb: rdb, log: log}
}

// ListUpdated publishes the hint. Failures are logged and swallowed; a
// missed hint only delays a list refresh, it never fails the save that
// triggered it.
func (p *Publisher) ListUpdated(ctx context.Context, parentID uuid.UUID) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.rdb.Publish(ctx, ChannelListUpdated, parentID.String()).Err(); err != nil {
		p.log.Warn("failed to publish list-updated hint",
			zap.String("parent_id", parentID.String()),
			zap.Error(err),
		)
	}
}
