package notify

import (
	"context"
	"errors"
	"net/smtp"
	"reflect"
	"strings"
	"testing"
	"time"

	"wmstriage/config"
	"wmstriage/store"
	"wmstriage/triage"
)

func TestComposeTemplates(t *testing.T) {
	ids := triage.Identifiers{ASNID: "01234", POID: "2123456789", PalletID: "512345678901234"}
	tests := []struct {
		category triage.Category
		outcome  Outcome
		audience Audience
		subject  string
		contains string
	}{
		{triage.MissingASN, OutcomeResolved, ToSubmitter, "ASN Issue Resolved - 01234", "The ASN 01234 has been successfully interfaced"},
		{triage.MissingASN, OutcomeNotFound, ToExternalTeam, "ASN Interface Request - 01234", "Please trigger ASN interface for ASN ID: 01234"},
		{triage.MissingPO, OutcomeResolved, ToSubmitter, "PO Issue Resolved - 2123456789", "All pallet counts and quantities are correct."},
		{triage.MissingPO, OutcomeNotFound, ToExternalTeam, "PO Interface Request - 2123456789", "Please trigger PO interface for PO ID: 2123456789"},
		{triage.MissingPallet, OutcomeResolved, ToSubmitter, "Pallet Issue Resolved - 512345678901234", "All pallet details have been updated correctly."},
		{triage.MissingPallet, OutcomeRequestDetails, ToExternalTeam, "Pallet Details Request - 512345678901234", "- PO ID: 2123456789"},
		{triage.QuantityMismatch, OutcomeResolved, ToSubmitter, "Quantity Mismatch Issue Resolved", "All quantities have been updated and matched correctly."},
		{triage.QuantityMismatch, OutcomeRequestDetails, ToExternalTeam, "Quantity Details Request", "There appears to be a quantity mismatch"},
	}
	for _, tt := range tests {
		t.Run(string(tt.category)+"/"+string(tt.outcome), func(t *testing.T) {
			msg := Compose(tt.category, tt.outcome, ids, "")
			if msg.Subject != tt.subject {
				t.Errorf("Subject = %q, want %q", msg.Subject, tt.subject)
			}
			if msg.Audience != tt.audience {
				t.Errorf("Audience = %v, want %v", msg.Audience, tt.audience)
			}
			if !strings.Contains(msg.Body, tt.contains) {
				t.Errorf("Body missing %q:\n%s", tt.contains, msg.Body)
			}
			if !strings.HasSuffix(msg.Body, "Best regards,\n"+Signoff+"\n") {
				t.Errorf("Body should end with signoff:\n%s", msg.Body)
			}
			wantGreeting := "Dear User,"
			if tt.audience == ToExternalTeam {
				wantGreeting = "Dear SAP Team,"
			}
			if !strings.HasPrefix(msg.Body, wantGreeting) {
				t.Errorf("Body should start with %q:\n%s", wantGreeting, msg.Body)
			}
		})
	}
}

func TestComposeAbsentIdentifiersRenderNA(t *testing.T) {
	msg := Compose(triage.MissingPallet, OutcomeRequestDetails, triage.Identifiers{PalletID: "512345678901234"}, "")
	if !strings.Contains(msg.Body, "- PO ID: N/A") || !strings.Contains(msg.Body, "- ASN ID: N/A") {
		t.Errorf("absent ids should render N/A:\n%s", msg.Body)
	}
	if len(msg.Attachments) != 1 {
		t.Fatalf("details request should carry the sheet, got %d attachments", len(msg.Attachments))
	}
}

func TestComposeFallback(t *testing.T) {
	msg := Compose(triage.Unknown, OutcomeResolved, triage.Identifiers{POID: "2000000001"}, "")
	if msg.Subject != "Issue Update" {
		t.Errorf("Subject = %q, want Issue Update", msg.Subject)
	}
	for _, want := range []string{"regarding unknown", "- ASN: N/A", "- PO: 2000000001", "- Pallet: N/A"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("fallback body missing %q:\n%s", want, msg.Body)
		}
	}
	// A known category with an outcome it has no template for also falls back.
	if got := Compose(triage.MissingASN, OutcomeRequestDetails, triage.Identifiers{}, "").Subject; got != "Issue Update" {
		t.Errorf("Subject = %q, want Issue Update", got)
	}
}

func TestComposeIsPure(t *testing.T) {
	ids := triage.Identifiers{ASNID: "01234"}
	a := Compose(triage.MissingASN, OutcomeResolved, ids, "snippet")
	b := Compose(triage.MissingASN, OutcomeResolved, ids, "snippet")
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Compose not deterministic:\n%#v\n%#v", a, b)
	}
}

func TestComposeIncludesSnippet(t *testing.T) {
	snippet := FormatSnippet("ASN", []Row{{{"asn_id", "01234"}}}, "asn_id")
	msg := Compose(triage.MissingASN, OutcomeResolved, triage.Identifiers{ASNID: "01234"}, snippet)
	if !strings.Contains(msg.Body, ">>> ASN_ID: 01234 <<<") {
		t.Errorf("snippet not embedded:\n%s", msg.Body)
	}
}

func TestComposeManualReview(t *testing.T) {
	msg := ComposeManualReview("WMS-ABCD1234", "the printer is jammed")
	if msg.Subject != "Issue Under Review - WMS-ABCD1234" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "Issue Description: the printer is jammed") {
		t.Errorf("Body:\n%s", msg.Body)
	}
	if msg.Audience != ToSubmitter {
		t.Errorf("Audience = %v", msg.Audience)
	}
}

func TestFormatSnippet(t *testing.T) {
	got := FormatSnippet("po", []Row{
		{{"po_id", "2000000001"}, {"status", "inprogress"}},
		{{"pallet_id", "500000000000001"}, {"quantity", 5}},
	}, "po_id")
	want := "\n=== PO TABLE ===\n" +
		separator + "\n" +
		">>> PO_ID: 2000000001 <<<\n" +
		"status: inprogress\n" +
		separator + "\n" +
		separator + "\n" +
		"pallet_id: 500000000000001\n" +
		"quantity: 5\n" +
		separator + "\n"
	if got != want {
		t.Errorf("FormatSnippet =\n%s\nwant\n%s", got, want)
	}
	if len(separator) != 50 {
		t.Errorf("separator width = %d, want 50", len(separator))
	}
	if FormatSnippet("x", nil) != "No data found." {
		t.Error("empty rows should render 'No data found.'")
	}
}

func TestRecordSnippets(t *testing.T) {
	ts := time.Date(2024, 3, 1, 8, 30, 0, 0, time.Local)
	s := ASNSnippet(&store.ASNHeader{ASNID: "01234", SupplierReference: "SUP01234", LastUpdatedAt: ts},
		[]*store.ASNLine{{ASNID: "01234", PalletID: "500000000000001", POID: "2000000001", Quantity: 4}})
	for _, want := range []string{"=== ASN TABLE ===", ">>> ASN_ID: 01234 <<<", "supplier_reference: SUP01234", "last_updated_date: 2024-03-01 08:30:00", "quantity: 4"} {
		if !strings.Contains(s, want) {
			t.Errorf("ASN snippet missing %q:\n%s", want, s)
		}
	}

	s = PalletSnippet(&store.POLine{POID: "2000000001", PalletID: "500000000000001", Quantity: 5},
		&store.ASNLine{ASNID: "01234", PalletID: "500000000000001", POID: "2000000001", Quantity: 5})
	if strings.Count(s, ">>> PALLET_ID: 500000000000001 <<<") != 2 {
		t.Errorf("pallet snippet should highlight both lines:\n%s", s)
	}
	if !strings.Contains(s, "table: PO_LINE") || !strings.Contains(s, "table: ASN_LINE") {
		t.Errorf("pallet snippet missing table tags:\n%s", s)
	}

	s = POSnippet(&store.POHeader{POID: "2000000001", Status: "received"}, nil)
	if !strings.Contains(s, ">>> PO_ID: 2000000001 <<<") {
		t.Errorf("PO snippet:\n%s", s)
	}
}

func TestDetailsSheet(t *testing.T) {
	a := DetailsSheet(triage.Identifiers{PalletID: "512345678901234", POID: "2987654321"})
	if a.Filename != "pallet_512345678901234.csv" {
		t.Errorf("Filename = %q", a.Filename)
	}
	want := "pallet_id,po_id,asn_id,quantity,supplier_reference\n512345678901234,2987654321,,,\n"
	if string(a.Content) != want {
		t.Errorf("Content = %q, want %q", a.Content, want)
	}
}

func TestSMTPNotifierSend(t *testing.T) {
	n := NewSMTPNotifier(&config.NotifyConfig{
		SMTPHost: "smtp.example.com",
		SMTPPort: 587,
		Username: "bot",
		Password: "secret",
		From:     "wms@example.com",
	})
	var gotAddr, gotFrom string
	var gotTo []string
	var gotRaw []byte
	n.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotRaw = addr, from, to, msg
		return nil
	}

	msg := Compose(triage.MissingPallet, OutcomeRequestDetails, triage.Identifiers{PalletID: "512345678901234"}, "")
	msg.To = "sap_team@company.com"
	if err := n.Send(context.Background(), msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotAddr != "smtp.example.com:587" {
		t.Errorf("addr = %q", gotAddr)
	}
	if gotFrom != "wms@example.com" {
		t.Errorf("from = %q", gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "sap_team@company.com" {
		t.Errorf("to = %v", gotTo)
	}
	raw := string(gotRaw)
	for _, want := range []string{
		"Subject: Pallet Details Request - 512345678901234",
		"Content-Type: multipart/mixed",
		"Please provide pallet details for:",
		`filename=pallet_512345678901234.csv`,
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("raw message missing %q", want)
		}
	}
}

func TestSMTPNotifierErrors(t *testing.T) {
	n := NewSMTPNotifier(&config.NotifyConfig{SMTPHost: "localhost", SMTPPort: 25})
	if err := n.Send(context.Background(), Message{Subject: "x"}); err == nil {
		t.Error("expected error for message without recipient")
	}

	boom := errors.New("connection refused")
	n.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return boom }
	err := n.Send(context.Background(), Message{To: "a@b.c", Subject: "x"})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}
}

func TestNewSelectsBackend(t *testing.T) {
	if _, ok := New(&config.NotifyConfig{Enabled: false}).(LogNotifier); !ok {
		t.Error("disabled mail should use LogNotifier")
	}
	if _, ok := New(&config.NotifyConfig{Enabled: true, SMTPHost: "h", SMTPPort: 25}).(*SMTPNotifier); !ok {
		t.Error("enabled mail should use SMTPNotifier")
	}
}
