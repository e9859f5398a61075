package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/langowen/currency-rates/internal/entities"
)

var errSubscriptionClosed = errors.New("subscription closed")

const (
	LatestKey      = "currency_rates:latest"
	DefaultChannel = "currency_rates_updated"
)

// Storage is a shared payload cache for every api_service replica and the
// standalone currency_fetcher.
type Storage struct {
	rdb     redis.UniversalClient
	channel string
}

func NewStorage(client redis.UniversalClient, channel string) *Storage {
	if channel == "" {
		channel = DefaultChannel
	}

	return &Storage{
		rdb:     client,
		channel: channel,
	}
}

func InitStorage(ctx context.Context, options *redis.Options, channel string) (*Storage, error) {
	const op = "storage.redis.InitStorage"

	redisClient := redis.NewClient(options)

	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		_ = redisClient.Close()
		return nil, errors.Wrap(err, op)
	}

	return NewStorage(redisClient, channel), nil
}

func (s *Storage) Get(ctx context.Context) (*entities.RatesPayload, bool, error) {
	const op = "storage.redis.Get"

	raw, err := s.rdb.Get(ctx, LatestKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, op)
	}

	var payload entities.RatesPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, false, errors.Wrap(err, op)
	}

	return &payload, true, nil
}

func (s *Storage) Set(ctx context.Context, payload *entities.RatesPayload, ttl time.Duration) error {
	const op = "storage.redis.Set"

	raw, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, op)
	}

	if err := s.rdb.Set(ctx, LatestKey, raw, ttl).Err(); err != nil {
		return errors.Wrap(err, op)
	}

	return nil
}

// PublishRefresh announces a refresh with the upstream date as payload.
func (s *Storage) PublishRefresh(ctx context.Context, payload *entities.RatesPayload) error {
	const op = "storage.redis.PublishRefresh"

	if err := s.rdb.Publish(ctx, s.channel, payload.Date).Err(); err != nil {
		return errors.Wrap(err, op)
	}

	slog.Debug("Published currency rates refresh", "channel", s.channel, "date", payload.Date)

	return nil
}

// ListenRefresh holds one subscription for as long as ctx lives and calls
// handle with the upstream date of every refresh announcement, in order.
func (s *Storage) ListenRefresh(ctx context.Context, handle func(date string)) error {
	const op = "storage.redis.ListenRefresh"

	pubsub := s.rdb.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return errors.Wrap(err, op)
	}

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), op)

		case msg, ok := <-messages:
			if !ok {
				return errors.Wrap(errSubscriptionClosed, op)
			}

			slog.Debug("Received message", "date", msg.Payload)
			handle(msg.Payload)
		}
	}
}

func (s *Storage) Close() error {
	return s.rdb.Close()
}
