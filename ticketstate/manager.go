// Package ticketstate keeps a Redis copy of ticket rows in front of the SQL
// ticket table.
package ticketstate

import (
	"context"
	"log"
	"sort"
	"time"

	"wmstriage/store"
)

type LogFunc func(format string, args ...any)

const activeLimit = 1000

// TicketDB is the SQL side of the cache.
type TicketDB interface {
	CreateTicket(t *store.Ticket) error
	GetTicket(id string) (*store.Ticket, error)
	UpdateTicket(t *store.Ticket) error
	AppendTicketHistory(ticketID, status, stage, detail string) error
	ListTickets(status string, limit int) ([]*store.Ticket, error)
}

// Manager provides write-through ticket state: SQL first, then Redis. SQL
// is authoritative; a Redis failure is logged and never fails the call.
type Manager struct {
	db      TicketDB
	redis   *RedisStore
	timeout time.Duration
	logFn   LogFunc
}

func NewManager(db TicketDB, redis *RedisStore, logFn LogFunc) *Manager {
	if logFn == nil {
		logFn = log.Printf
	}
	return &Manager{db: db, redis: redis, timeout: 2 * time.Second, logFn: logFn}
}

func (m *Manager) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.timeout)
}

func (m *Manager) CreateTicket(t *store.Ticket) error {
	if err := m.db.CreateTicket(t); err != nil {
		return err
	}
	m.cache(t)
	return nil
}

func (m *Manager) UpdateTicket(t *store.Ticket) error {
	if err := m.db.UpdateTicket(t); err != nil {
		return err
	}
	m.cache(t)
	return nil
}

func (m *Manager) AppendTicketHistory(ticketID, status, stage, detail string) error {
	return m.db.AppendTicketHistory(ticketID, status, stage, detail)
}

// GetTicket reads from Redis and falls back to SQL, repopulating the cache.
func (m *Manager) GetTicket(id string) (*store.Ticket, error) {
	ctx, cancel := m.ctx()
	defer cancel()
	if t, err := m.redis.GetTicket(ctx, id); err == nil && t != nil {
		return t, nil
	} else if err != nil {
		m.logFn("ticketstate: redis get %s: %v", id, err)
	}

	t, err := m.db.GetTicket(id)
	if err != nil {
		return nil, err
	}
	m.cache(t)
	return t, nil
}

// ActiveTickets returns open and in-progress tickets, newest first.
func (m *Manager) ActiveTickets() ([]*store.Ticket, error) {
	ctx, cancel := m.ctx()
	defer cancel()
	ids, err := m.redis.ActiveTicketIDs(ctx)
	if err != nil || len(ids) == 0 {
		if err != nil {
			m.logFn("ticketstate: redis active set: %v", err)
		}
		return m.activeFromSQL()
	}

	out := make([]*store.Ticket, 0, len(ids))
	for _, id := range ids {
		t, err := m.GetTicket(id)
		if err != nil {
			if store.IsNotFound(err) {
				m.redis.RemoveTicket(ctx, id)
				continue
			}
			return nil, err
		}
		if isActive(t.Status) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Manager) activeFromSQL() ([]*store.Ticket, error) {
	open, err := m.db.ListTickets(store.StatusOpen, activeLimit)
	if err != nil {
		return nil, err
	}
	inProgress, err := m.db.ListTickets(store.StatusInProgress, activeLimit)
	if err != nil {
		return nil, err
	}
	out := append(open, inProgress...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// SyncRedisFromSQL rebuilds the active ticket cache from SQL. Called on startup.
func (m *Manager) SyncRedisFromSQL() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := m.redis.FlushAll(ctx); err != nil {
		return err
	}
	tickets, err := m.activeFromSQL()
	if err != nil {
		return err
	}
	for _, t := range tickets {
		if err := m.redis.SetTicket(ctx, t); err != nil {
			return err
		}
	}
	m.logFn("ticketstate: synced %d active tickets to redis", len(tickets))
	return nil
}

func (m *Manager) cache(t *store.Ticket) {
	ctx, cancel := m.ctx()
	defer cancel()
	if err := m.redis.SetTicket(ctx, t); err != nil {
		m.logFn("ticketstate: redis set %s: %v", t.TicketID, err)
	}
}
