package store

import (
	"database/sql"
	"time"
)

// Ticket statuses.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusClosed     = "closed"
)

type Ticket struct {
	TicketID    string     `json:"ticket_id"`
	UserEmail   string     `json:"user_email"`
	Description string     `json:"issue_description"`
	IssueType   string     `json:"issue_type"`
	Status      string     `json:"status"`
	Stage       string     `json:"stage"`
	ASNID       string     `json:"asn_id"`
	POID        string     `json:"po_id"`
	PalletID    string     `json:"pallet_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ResolvedAt  *time.Time `json:"resolved_at"`
}

// TicketHistory is one append-only transition record.
type TicketHistory struct {
	ID        int64     `json:"id"`
	TicketID  string    `json:"ticket_id"`
	Status    string    `json:"status"`
	Stage     string    `json:"stage"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

const ticketSelectCols = `ticket_id, user_email, description, issue_type, status, stage, asn_id, po_id, pallet_id, created_at, updated_at, resolved_at`

func scanTicket(row interface{ Scan(...any) error }) (*Ticket, error) {
	var t Ticket
	var asnID, poID, palletID sql.NullString
	var createdAt, updatedAt, resolvedAt any
	err := row.Scan(&t.TicketID, &t.UserEmail, &t.Description, &t.IssueType, &t.Status, &t.Stage,
		&asnID, &poID, &palletID, &createdAt, &updatedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}
	t.ASNID = asnID.String
	t.POID = poID.String
	t.PalletID = palletID.String
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	t.ResolvedAt = parseTimePtr(resolvedAt)
	return &t, nil
}

func scanTickets(rows *sql.Rows) ([]*Ticket, error) {
	var tickets []*Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (db *DB) CreateTicket(t *Ticket) error {
	if t.Status == "" {
		t.Status = StatusOpen
	}
	if t.IssueType == "" {
		t.IssueType = "unknown"
	}
	if t.Stage == "" {
		t.Stage = "received"
	}
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	_, err := db.Exec(db.Q(`INSERT INTO tickets (ticket_id, user_email, description, issue_type, status, stage, asn_id, po_id, pallet_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		t.TicketID, t.UserEmail, t.Description, t.IssueType, t.Status, t.Stage,
		nullIfEmpty(t.ASNID), nullIfEmpty(t.POID), nullIfEmpty(t.PalletID),
		stamp(t.CreatedAt), stamp(t.UpdatedAt))
	return err
}

// UpdateTicket writes every mutable field of t. The ticket must exist.
func (db *DB) UpdateTicket(t *Ticket) error {
	t.UpdatedAt = time.Now()
	var resolvedAt any
	if t.ResolvedAt != nil {
		resolvedAt = stamp(*t.ResolvedAt)
	}
	res, err := db.Exec(db.Q(`UPDATE tickets SET issue_type=?, status=?, stage=?, asn_id=?, po_id=?, pallet_id=?, updated_at=?, resolved_at=? WHERE ticket_id=?`),
		t.IssueType, t.Status, t.Stage,
		nullIfEmpty(t.ASNID), nullIfEmpty(t.POID), nullIfEmpty(t.PalletID),
		stamp(t.UpdatedAt), resolvedAt, t.TicketID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (db *DB) GetTicket(id string) (*Ticket, error) {
	row := db.QueryRow(db.Q(`SELECT `+ticketSelectCols+` FROM tickets WHERE ticket_id=?`), id)
	return scanTicket(row)
}

// ListTickets returns tickets newest first. An empty status lists all.
func (db *DB) ListTickets(status string, limit int) ([]*Ticket, error) {
	if limit <= 0 {
		limit = 100
	}
	var (
		rows *sql.Rows
		err  error
	)
	if status == "" {
		rows, err = db.Query(db.Q(`SELECT `+ticketSelectCols+` FROM tickets ORDER BY created_at DESC, ticket_id LIMIT ?`), limit)
	} else {
		rows, err = db.Query(db.Q(`SELECT `+ticketSelectCols+` FROM tickets WHERE status=? ORDER BY created_at DESC, ticket_id LIMIT ?`), status, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// CountTicketsByStatus returns the number of tickets in each status.
func (db *DB) CountTicketsByStatus() (map[string]int, error) {
	rows, err := db.Query(`SELECT status, COUNT(*) FROM tickets GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[string]int{
		StatusOpen:       0,
		StatusInProgress: 0,
		StatusResolved:   0,
		StatusClosed:     0,
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (db *DB) AppendTicketHistory(ticketID, status, stage, detail string) error {
	_, err := db.Exec(db.Q(`INSERT INTO ticket_history (ticket_id, status, stage, detail) VALUES (?, ?, ?, ?)`),
		ticketID, status, stage, detail)
	return err
}

func (db *DB) ListTicketHistory(ticketID string) ([]*TicketHistory, error) {
	rows, err := db.Query(db.Q(`SELECT id, ticket_id, status, stage, detail, created_at FROM ticket_history WHERE ticket_id=? ORDER BY id`), ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*TicketHistory
	for rows.Next() {
		var h TicketHistory
		var createdAt any
		if err := rows.Scan(&h.ID, &h.TicketID, &h.Status, &h.Stage, &h.Detail, &createdAt); err != nil {
			return nil, err
		}
		h.CreatedAt = parseTime(createdAt)
		out = append(out, &h)
	}
	return out, rows.Err()
}
