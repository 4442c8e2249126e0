package protocol

import (
	"encoding/json"
	"testing"
	"time"
)

var (
	wmsAddr      = Address{Role: RoleWMS, Station: "wms"}
	externalAddr = Address{Role: RoleExternal}
)

func TestEnvelopeRoundTrip(t *testing.T) {
	env, err := NewEnvelope(TypeExternalRequest, wmsAddr, externalAddr, &ExternalRequest{
		TicketID: "WMS-1A2B3C4D",
		Kind:     KindDetails,
		Category: "missing_pallet",
		POID:     "2000000001",
		PalletID: "500000000000001",
	})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}

	if env.Version != Version {
		t.Errorf("version = %d, want %d", env.Version, Version)
	}
	if env.Type != TypeExternalRequest {
		t.Errorf("type = %q, want %q", env.Type, TypeExternalRequest)
	}
	if env.Src != wmsAddr {
		t.Errorf("src = %+v, want %+v", env.Src, wmsAddr)
	}
	if env.ID == "" {
		t.Error("ID should not be empty")
	}

	data, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var decoded Envelope
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.ID != env.ID {
		t.Errorf("decoded id = %q, want %q", decoded.ID, env.ID)
	}

	var req ExternalRequest
	if err := decoded.DecodePayload(&req); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if req.TicketID != "WMS-1A2B3C4D" {
		t.Errorf("ticket_id = %q", req.TicketID)
	}
	if req.PalletID != "500000000000001" {
		t.Errorf("pallet_id = %q", req.PalletID)
	}
	if req.ASNID != "" {
		t.Errorf("asn_id = %q, want empty", req.ASNID)
	}
}

func TestNewReply(t *testing.T) {
	reply, err := NewReply(TypeExternalConfirm, externalAddr, wmsAddr, "orig-msg-id",
		&ExternalConfirm{TicketID: "WMS-1", Note: "interfaced"})
	if err != nil {
		t.Fatalf("NewReply: %v", err)
	}
	if reply.CorID != "orig-msg-id" {
		t.Errorf("cor = %q, want %q", reply.CorID, "orig-msg-id")
	}
	if reply.Type != TypeExternalConfirm {
		t.Errorf("type = %q, want %q", reply.Type, TypeExternalConfirm)
	}
}

func TestExpiry(t *testing.T) {
	env := &Envelope{ExpiresAt: time.Now().UTC().Add(-1 * time.Minute)}
	if !IsExpired(env) {
		t.Error("expected expired envelope to be detected")
	}

	env.ExpiresAt = time.Now().UTC().Add(10 * time.Minute)
	if IsExpired(env) {
		t.Error("expected future-expiry envelope to not be expired")
	}

	env.ExpiresAt = time.Time{}
	if IsExpired(env) {
		t.Error("expected zero-expiry envelope to not be expired")
	}
}

func TestExpiryHeader(t *testing.T) {
	hdr := &RawHeader{ExpiresAt: time.Now().UTC().Add(-1 * time.Second)}
	if !IsExpiredHeader(hdr) {
		t.Error("expected expired header to be detected")
	}

	hdr.ExpiresAt = time.Now().UTC().Add(5 * time.Minute)
	if IsExpiredHeader(hdr) {
		t.Error("expected future header to not be expired")
	}
}

func TestDefaultTTLFor(t *testing.T) {
	if ttl := DefaultTTLFor(TypeExternalRequest); ttl != 24*time.Hour {
		t.Errorf("request TTL = %v, want 24h", ttl)
	}
	if ttl := DefaultTTLFor(TypeTicketUpdate); ttl != time.Hour {
		t.Errorf("update TTL = %v, want 1h", ttl)
	}
	if ttl := DefaultTTLFor("unknown.type"); ttl != FallbackTTL {
		t.Errorf("unknown TTL = %v, want %v", ttl, FallbackTTL)
	}
}

func TestIngestorDispatch(t *testing.T) {
	handler := &testHandler{}
	ingestor := NewIngestor(handler, nil)

	env, _ := NewEnvelope(TypeExternalConfirm, externalAddr, wmsAddr, &ExternalConfirm{
		TicketID: "WMS-1",
		Rows: []DetailRow{
			{PalletID: "500000000000001", POID: "2000000001", ASNID: "01234", Quantity: 5, SupplierReference: "ABC123"},
		},
	})
	data, _ := env.Encode()

	ingestor.HandleRaw(data)

	if !handler.confirmCalled {
		t.Fatal("expected HandleExternalConfirm to be called")
	}
	if handler.confirm.TicketID != "WMS-1" {
		t.Errorf("ticket_id = %q", handler.confirm.TicketID)
	}
	if len(handler.confirm.Rows) != 1 || handler.confirm.Rows[0].Quantity != 5 {
		t.Errorf("rows = %+v", handler.confirm.Rows)
	}
}

func TestIngestorFilter(t *testing.T) {
	handler := &testHandler{}
	ingestor := NewIngestor(handler, func(hdr *RawHeader) bool {
		return hdr.Dst.Role == RoleWMS
	})

	// Our own outbound request echoed back on a shared broker.
	env, _ := NewEnvelope(TypeExternalConfirm, wmsAddr, externalAddr, &ExternalConfirm{TicketID: "WMS-1"})
	data, _ := env.Encode()

	ingestor.HandleRaw(data)

	if handler.confirmCalled {
		t.Error("expected handler to NOT be called when filter rejects")
	}
}

func TestIngestorDropsExpired(t *testing.T) {
	handler := &testHandler{}
	ingestor := NewIngestor(handler, nil)

	env, _ := NewEnvelope(TypeExternalConfirm, externalAddr, wmsAddr, &ExternalConfirm{TicketID: "WMS-1"})
	env.ExpiresAt = time.Now().UTC().Add(-1 * time.Minute)
	data, _ := env.Encode()

	ingestor.HandleRaw(data)

	if handler.confirmCalled {
		t.Error("expected handler to NOT be called for expired message")
	}
}

func TestIngestorIgnoresGarbage(t *testing.T) {
	handler := &testHandler{}
	ingestor := NewIngestor(handler, nil)

	ingestor.HandleRaw([]byte("not json"))
	ingestor.HandleRaw([]byte(`{"v":1,"type":"something.else","id":"x","p":{}}`))

	if handler.confirmCalled {
		t.Error("expected no handler call")
	}
}

func TestWireFormatKeys(t *testing.T) {
	env, _ := NewEnvelope(TypeTicketUpdate, wmsAddr, externalAddr,
		&TicketUpdate{TicketID: "WMS-1", Status: "resolved", Stage: "resolved"})
	data, _ := env.Encode()

	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, k := range []string{"v", "type", "id", "src", "dst", "ts", "exp", "p"} {
		if _, ok := m[k]; !ok {
			t.Errorf("expected key %q in wire format", k)
		}
	}
	for _, k := range []string{"version", "payload", "timestamp", "expires_at", "source", "destination"} {
		if _, ok := m[k]; ok {
			t.Errorf("unexpected long key %q in wire format", k)
		}
	}
}

type testHandler struct {
	NoOpHandler
	confirmCalled bool
	confirm       ExternalConfirm
}

func (h *testHandler) HandleExternalConfirm(env *Envelope, p *ExternalConfirm) {
	h.confirmCalled = true
	h.confirm = *p
}
