package ticketstate

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"wmstriage/store"
)

const activeTicketsKey = "wmstriage:tickets:active"

func ticketKey(id string) string {
	return "wmstriage:ticket:" + id
}

// RedisStore caches ticket rows as JSON. Non-terminal tickets are also
// indexed in a set so the active view is one round trip.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) SetTicket(ctx context.Context, t *store.Ticket) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, ticketKey(t.TicketID), data, r.ttl)
	if isActive(t.Status) {
		pipe.SAdd(ctx, activeTicketsKey, t.TicketID)
	} else {
		pipe.SRem(ctx, activeTicketsKey, t.TicketID)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// GetTicket returns nil, nil on a cache miss.
func (r *RedisStore) GetTicket(ctx context.Context, id string) (*store.Ticket, error) {
	data, err := r.client.Get(ctx, ticketKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var t store.Ticket
	return &t, json.Unmarshal(data, &t)
}

func (r *RedisStore) ActiveTicketIDs(ctx context.Context) ([]string, error) {
	return r.client.SMembers(ctx, activeTicketsKey).Result()
}

func (r *RedisStore) RemoveTicket(ctx context.Context, id string) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, ticketKey(id))
	pipe.SRem(ctx, activeTicketsKey, id)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStore) FlushAll(ctx context.Context) error {
	ids, err := r.ActiveTicketIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		r.client.Del(ctx, ticketKey(id))
	}
	return r.client.Del(ctx, activeTicketsKey).Err()
}

func isActive(status string) bool {
	return status == store.StatusOpen || status == store.StatusInProgress
}
