package store

import (
	"database/sql"
	"time"
)

// PO header statuses.
const (
	POStatusInProgress = "inprogress"
	POStatusReceived   = "received"
	POStatusHold       = "hold"
)

type ASNHeader struct {
	ASNID             string    `json:"asn_id"`
	SupplierReference string    `json:"supplier_reference"`
	LastUpdatedAt     time.Time `json:"last_updated_at"`
}

type ASNLine struct {
	ID                int64     `json:"id"`
	ASNID             string    `json:"asn_id"`
	PalletID          string    `json:"pallet_id"`
	POID              string    `json:"po_id"`
	Quantity          int       `json:"quantity"`
	SupplierReference string    `json:"supplier_reference"`
	LastUpdatedAt     time.Time `json:"last_updated_at"`
}

type POHeader struct {
	POID          string    `json:"po_id"`
	Status        string    `json:"status"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

type POLine struct {
	ID            int64     `json:"id"`
	POID          string    `json:"po_id"`
	PalletID      string    `json:"pallet_id"`
	ASNID         string    `json:"asn_id"`
	Quantity      int       `json:"quantity"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

const (
	asnLineCols = `id, asn_id, pallet_id, po_id, quantity, supplier_reference, last_updated_at`
	poLineCols  = `id, po_id, pallet_id, asn_id, quantity, last_updated_at`
)

func scanASNLine(row interface{ Scan(...any) error }) (*ASNLine, error) {
	var l ASNLine
	var updated any
	if err := row.Scan(&l.ID, &l.ASNID, &l.PalletID, &l.POID, &l.Quantity, &l.SupplierReference, &updated); err != nil {
		return nil, err
	}
	l.LastUpdatedAt = parseTime(updated)
	return &l, nil
}

func scanPOLine(row interface{ Scan(...any) error }) (*POLine, error) {
	var l POLine
	var updated any
	if err := row.Scan(&l.ID, &l.POID, &l.PalletID, &l.ASNID, &l.Quantity, &updated); err != nil {
		return nil, err
	}
	l.LastUpdatedAt = parseTime(updated)
	return &l, nil
}

func scanASNLines(rows *sql.Rows) ([]*ASNLine, error) {
	defer rows.Close()
	var lines []*ASNLine
	for rows.Next() {
		l, err := scanASNLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func scanPOLines(rows *sql.Rows) ([]*POLine, error) {
	defer rows.Close()
	var lines []*POLine
	for rows.Next() {
		l, err := scanPOLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (db *DB) GetASNHeader(asnID string) (*ASNHeader, error) {
	var h ASNHeader
	var updated any
	err := db.QueryRow(db.Q(`SELECT asn_id, supplier_reference, last_updated_at FROM asn_headers WHERE asn_id=?`), asnID).
		Scan(&h.ASNID, &h.SupplierReference, &updated)
	if err != nil {
		return nil, err
	}
	h.LastUpdatedAt = parseTime(updated)
	return &h, nil
}

func (db *DB) ListASNHeaders() ([]*ASNHeader, error) {
	rows, err := db.Query(`SELECT asn_id, supplier_reference, last_updated_at FROM asn_headers ORDER BY asn_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*ASNHeader
	for rows.Next() {
		var h ASNHeader
		var updated any
		if err := rows.Scan(&h.ASNID, &h.SupplierReference, &updated); err != nil {
			return nil, err
		}
		h.LastUpdatedAt = parseTime(updated)
		out = append(out, &h)
	}
	return out, rows.Err()
}

// ListASNLines returns the lines of one ASN in insertion order.
func (db *DB) ListASNLines(asnID string) ([]*ASNLine, error) {
	rows, err := db.Query(db.Q(`SELECT `+asnLineCols+` FROM asn_lines WHERE asn_id=? ORDER BY id`), asnID)
	if err != nil {
		return nil, err
	}
	return scanASNLines(rows)
}

// ListASNLinesByPO returns every ASN line that references the PO.
func (db *DB) ListASNLinesByPO(poID string) ([]*ASNLine, error) {
	rows, err := db.Query(db.Q(`SELECT `+asnLineCols+` FROM asn_lines WHERE po_id=? ORDER BY id`), poID)
	if err != nil {
		return nil, err
	}
	return scanASNLines(rows)
}

func (db *DB) FindASNLineByPallet(palletID string) (*ASNLine, error) {
	row := db.QueryRow(db.Q(`SELECT `+asnLineCols+` FROM asn_lines WHERE pallet_id=? ORDER BY id LIMIT 1`), palletID)
	return scanASNLine(row)
}

func (db *DB) GetPOHeader(poID string) (*POHeader, error) {
	var h POHeader
	var updated any
	err := db.QueryRow(db.Q(`SELECT po_id, status, last_updated_at FROM po_headers WHERE po_id=?`), poID).
		Scan(&h.POID, &h.Status, &updated)
	if err != nil {
		return nil, err
	}
	h.LastUpdatedAt = parseTime(updated)
	return &h, nil
}

func (db *DB) ListPOHeaders() ([]*POHeader, error) {
	rows, err := db.Query(`SELECT po_id, status, last_updated_at FROM po_headers ORDER BY po_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*POHeader
	for rows.Next() {
		var h POHeader
		var updated any
		if err := rows.Scan(&h.POID, &h.Status, &updated); err != nil {
			return nil, err
		}
		h.LastUpdatedAt = parseTime(updated)
		out = append(out, &h)
	}
	return out, rows.Err()
}

func (db *DB) ListPOLines(poID string) ([]*POLine, error) {
	rows, err := db.Query(db.Q(`SELECT `+poLineCols+` FROM po_lines WHERE po_id=? ORDER BY id`), poID)
	if err != nil {
		return nil, err
	}
	return scanPOLines(rows)
}

// ListPOLinesByASN returns every PO line that references the ASN.
func (db *DB) ListPOLinesByASN(asnID string) ([]*POLine, error) {
	rows, err := db.Query(db.Q(`SELECT `+poLineCols+` FROM po_lines WHERE asn_id=? ORDER BY id`), asnID)
	if err != nil {
		return nil, err
	}
	return scanPOLines(rows)
}

func (db *DB) FindPOLineByPallet(palletID string) (*POLine, error) {
	row := db.QueryRow(db.Q(`SELECT `+poLineCols+` FROM po_lines WHERE pallet_id=? ORDER BY id LIMIT 1`), palletID)
	return scanPOLine(row)
}

func (db *DB) UpsertASNHeader(h *ASNHeader) error {
	_, err := db.Exec(db.Q(`INSERT INTO asn_headers (asn_id, supplier_reference, last_updated_at) VALUES (?, ?, ?)
		ON CONFLICT(asn_id) DO UPDATE SET supplier_reference=excluded.supplier_reference, last_updated_at=excluded.last_updated_at`),
		h.ASNID, h.SupplierReference, stamp(h.LastUpdatedAt))
	return err
}

func (db *DB) UpsertASNLine(l *ASNLine) error {
	_, err := db.Exec(db.Q(`INSERT INTO asn_lines (asn_id, pallet_id, po_id, quantity, supplier_reference, last_updated_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(asn_id, pallet_id) DO UPDATE SET po_id=excluded.po_id, quantity=excluded.quantity,
			supplier_reference=excluded.supplier_reference, last_updated_at=excluded.last_updated_at`),
		l.ASNID, l.PalletID, l.POID, l.Quantity, l.SupplierReference, stamp(l.LastUpdatedAt))
	return err
}

func (db *DB) UpsertPOHeader(h *POHeader) error {
	if h.Status == "" {
		h.Status = POStatusInProgress
	}
	_, err := db.Exec(db.Q(`INSERT INTO po_headers (po_id, status, last_updated_at) VALUES (?, ?, ?)
		ON CONFLICT(po_id) DO UPDATE SET status=excluded.status, last_updated_at=excluded.last_updated_at`),
		h.POID, h.Status, stamp(h.LastUpdatedAt))
	return err
}

func (db *DB) UpsertPOLine(l *POLine) error {
	_, err := db.Exec(db.Q(`INSERT INTO po_lines (po_id, pallet_id, asn_id, quantity, last_updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(po_id, pallet_id) DO UPDATE SET asn_id=excluded.asn_id, quantity=excluded.quantity,
			last_updated_at=excluded.last_updated_at`),
		l.POID, l.PalletID, l.ASNID, l.Quantity, stamp(l.LastUpdatedAt))
	return err
}

// DeleteAllRecords clears every ASN and PO table. Tickets are kept.
func (db *DB) DeleteAllRecords() error {
	for _, table := range []string{"asn_lines", "po_lines", "asn_headers", "po_headers"} {
		if _, err := db.Exec(`DELETE FROM ` + table); err != nil {
			return err
		}
	}
	return nil
}

// RecordCounts reports row counts for the ASN and PO tables.
type RecordCounts struct {
	ASNHeaders int `json:"asn_headers"`
	ASNLines   int `json:"asn_lines"`
	POHeaders  int `json:"po_headers"`
	POLines    int `json:"po_lines"`
}

func (db *DB) CountRecords() (*RecordCounts, error) {
	var c RecordCounts
	for _, q := range []struct {
		table string
		dst   *int
	}{
		{"asn_headers", &c.ASNHeaders},
		{"asn_lines", &c.ASNLines},
		{"po_headers", &c.POHeaders},
		{"po_lines", &c.POLines},
	} {
		if err := db.QueryRow(`SELECT COUNT(*) FROM ` + q.table).Scan(q.dst); err != nil {
			return nil, err
		}
	}
	return &c, nil
}
