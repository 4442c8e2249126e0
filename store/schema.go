package store

import "strings"

// schemaTemplate is rendered per driver by Schema.
const schemaTemplate = `
CREATE TABLE IF NOT EXISTS tickets (
    ticket_id   TEXT PRIMARY KEY,
    user_email  TEXT NOT NULL,
    description TEXT NOT NULL,
    issue_type  TEXT NOT NULL DEFAULT 'unknown',
    status      TEXT NOT NULL DEFAULT 'open',
    stage       TEXT NOT NULL DEFAULT 'received',
    asn_id      TEXT,
    po_id       TEXT,
    pallet_id   TEXT,
    created_at  {{ts}} NOT NULL DEFAULT ({{now}}),
    updated_at  {{ts}} NOT NULL DEFAULT ({{now}}),
    resolved_at {{ts}}
);
CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status);

CREATE TABLE IF NOT EXISTS ticket_history (
    id          {{pk}},
    ticket_id   TEXT NOT NULL REFERENCES tickets(ticket_id),
    status      TEXT NOT NULL,
    stage       TEXT NOT NULL,
    detail      TEXT NOT NULL DEFAULT '',
    created_at  {{ts}} NOT NULL DEFAULT ({{now}})
);
CREATE INDEX IF NOT EXISTS idx_ticket_history_ticket ON ticket_history(ticket_id);

CREATE TABLE IF NOT EXISTS asn_headers (
    asn_id             TEXT PRIMARY KEY,
    supplier_reference TEXT NOT NULL DEFAULT '',
    last_updated_at    {{ts}} NOT NULL DEFAULT ({{now}})
);

CREATE TABLE IF NOT EXISTS asn_lines (
    id                 {{pk}},
    asn_id             TEXT NOT NULL,
    pallet_id          TEXT NOT NULL,
    po_id              TEXT NOT NULL DEFAULT '',
    quantity           INTEGER NOT NULL DEFAULT 0,
    supplier_reference TEXT NOT NULL DEFAULT '',
    last_updated_at    {{ts}} NOT NULL DEFAULT ({{now}}),
    UNIQUE(asn_id, pallet_id)
);
CREATE INDEX IF NOT EXISTS idx_asn_lines_po ON asn_lines(po_id);
CREATE INDEX IF NOT EXISTS idx_asn_lines_pallet ON asn_lines(pallet_id);

CREATE TABLE IF NOT EXISTS po_headers (
    po_id           TEXT PRIMARY KEY,
    status          TEXT NOT NULL DEFAULT 'inprogress',
    last_updated_at {{ts}} NOT NULL DEFAULT ({{now}})
);

CREATE TABLE IF NOT EXISTS po_lines (
    id              {{pk}},
    po_id           TEXT NOT NULL,
    pallet_id       TEXT NOT NULL,
    asn_id          TEXT NOT NULL DEFAULT '',
    quantity        INTEGER NOT NULL DEFAULT 0,
    last_updated_at {{ts}} NOT NULL DEFAULT ({{now}}),
    UNIQUE(po_id, pallet_id)
);
CREATE INDEX IF NOT EXISTS idx_po_lines_pallet ON po_lines(pallet_id);

CREATE TABLE IF NOT EXISTS outbox (
    id          {{pk}},
    topic       TEXT NOT NULL,
    payload     {{blob}} NOT NULL,
    msg_type    TEXT NOT NULL DEFAULT '',
    station_id  TEXT NOT NULL DEFAULT '',
    retries     INTEGER NOT NULL DEFAULT 0,
    created_at  {{ts}} NOT NULL DEFAULT ({{now}}),
    sent_at     {{ts}}
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(sent_at);

CREATE TABLE IF NOT EXISTS audit_log (
    id          {{pk}},
    entity_type TEXT NOT NULL,
    entity_id   TEXT NOT NULL,
    action      TEXT NOT NULL,
    old_value   TEXT NOT NULL DEFAULT '',
    new_value   TEXT NOT NULL DEFAULT '',
    actor       TEXT NOT NULL DEFAULT 'system',
    created_at  {{ts}} NOT NULL DEFAULT ({{now}})
);
CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_log(entity_type, entity_id);

CREATE TABLE IF NOT EXISTS admin_users (
    id            {{pk}},
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    {{ts}} NOT NULL DEFAULT ({{now}})
);
`

// Schema renders the full table set in d's column types.
func Schema(d Dialect) string {
	return strings.NewReplacer(
		"{{pk}}", d.AutoIncrementPK(),
		"{{blob}}", d.BlobType(),
		"{{ts}}", d.TimestampType(),
		"{{now}}", d.Now(),
	).Replace(schemaTemplate)
}
