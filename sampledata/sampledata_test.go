package sampledata

import (
	"path/filepath"
	"testing"

	"wmstriage/checker"
	"wmstriage/config"
	"wmstriage/store"
	"wmstriage/triage"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestIDFormatsMatchExtractor(t *testing.T) {
	g := New(nil, 1)
	for i := 0; i < 200; i++ {
		asn, po, pallet := g.ASNID(), g.POID(), g.PalletID()
		ids := triage.Extract("ASN " + asn + " PO " + po + " pallet " + pallet)
		if ids.ASNID != asn || ids.POID != po || ids.PalletID != pallet {
			t.Fatalf("extract(%s, %s, %s) = %+v", asn, po, pallet, ids)
		}
	}
}

func TestSupplierReferenceShape(t *testing.T) {
	g := New(nil, 2)
	for i := 0; i < 50; i++ {
		ref := g.SupplierReference()
		if len(ref) != 6 {
			t.Fatalf("ref %q has length %d", ref, len(ref))
		}
		for j, c := range ref {
			if j < 3 && (c < 'A' || c > 'Z') || j >= 3 && (c < '0' || c > '9') {
				t.Fatalf("ref %q not AAA999", ref)
			}
		}
	}
}

func TestGenerateWritesConsistentRecords(t *testing.T) {
	db := testDB(t)
	// Leftovers are cleared first.
	db.UpsertPOHeader(&store.POHeader{POID: "2999999999"})

	g := New(db, 42)
	sum, err := g.Generate(DefaultOptions())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(sum.ASNs) != 5 || len(sum.POs) != 10 {
		t.Fatalf("summary has %d ASNs and %d POs", len(sum.ASNs), len(sum.POs))
	}

	counts, err := db.CountRecords()
	if err != nil {
		t.Fatal(err)
	}
	want := store.RecordCounts{ASNHeaders: 5, ASNLines: 30, POHeaders: 10, POLines: 30}
	if *counts != want {
		t.Errorf("counts = %+v, want %+v", *counts, want)
	}
	if _, err := db.GetPOHeader("2999999999"); !store.IsNotFound(err) {
		t.Error("old records not cleared")
	}

	c := checker.New(db)
	for _, po := range sum.POs {
		res, err := c.CheckPO(po.POID)
		if err != nil {
			t.Fatalf("check po %s: %v", po.POID, err)
		}
		if res.Outcome != checker.OutcomeConsistent {
			t.Errorf("po %s outcome = %s, want consistent", po.POID, res.Outcome)
		}
		for _, p := range po.Pallets {
			if p.Quantity < 1 || p.Quantity > 10 {
				t.Errorf("pallet %s quantity %d out of range", p.PalletID, p.Quantity)
			}
		}
	}
}

func TestGenerateRejectsEmptySizes(t *testing.T) {
	g := New(testDB(t), 1)
	if _, err := g.Generate(Options{ASNs: 1, POsPerASN: 0, PalletsPerPO: 1}); err == nil {
		t.Fatal("expected error for zero POs per ASN")
	}
}

func TestScenarioRecords(t *testing.T) {
	db := testDB(t)
	g := New(db, 7)
	sc, err := g.CreateScenarios()
	if err != nil {
		t.Fatalf("scenarios: %v", err)
	}
	c := checker.New(db)

	// Missing ASN: header only.
	if lines, _ := db.ListASNLines(sc.MissingASN.ASNID); len(lines) != 0 {
		t.Errorf("missing asn scenario has %d lines", len(lines))
	}
	if res, _ := c.CheckASN(sc.MissingASN.ASNID); res.Outcome != checker.OutcomeOrphanHeader && res.Outcome != checker.OutcomePresent {
		t.Errorf("missing asn outcome = %s", res.Outcome)
	}

	// Missing PO: nothing stored.
	if res, _ := c.CheckPO(sc.MissingPO.POID); res.Outcome != checker.OutcomeAbsent {
		t.Errorf("missing po outcome = %s, want absent", res.Outcome)
	}

	// Missing pallet: headers but no line for the pallet.
	if _, err := db.GetPOHeader(sc.MissingPallet.POID); err != nil {
		t.Errorf("missing pallet po header: %v", err)
	}
	if res, _ := c.CheckPallet(sc.MissingPallet.PalletID); res.Outcome == checker.OutcomePresent {
		t.Error("missing pallet scenario pallet should not be present")
	}

	// Quantity mismatch: 5 against 3.
	qm := sc.QuantityMismatch
	res, err := c.CheckPO(qm.POID)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != checker.OutcomeQuantityMismatch {
		t.Errorf("quantity outcome = %s, want quantity_mismatch", res.Outcome)
	}
	if res.POQuantity != MismatchPOQuantity || res.ASNQuantity != MismatchASNQuantity {
		t.Errorf("quantities = %d/%d", res.POQuantity, res.ASNQuantity)
	}
}

func TestScenarioDescriptionsCarryIdentifiers(t *testing.T) {
	g := New(testDB(t), 9)
	sc, err := g.CreateScenarios()
	if err != nil {
		t.Fatal(err)
	}
	// The quantity mismatch text names only the pallet and PO.
	qm := sc.QuantityMismatch
	qm.ASNID = ""
	for name, s := range map[string]Scenario{
		"missing_asn":       sc.MissingASN,
		"missing_po":        sc.MissingPO,
		"missing_pallet":    sc.MissingPallet,
		"quantity_mismatch": qm,
	} {
		ids := triage.Extract(s.Description)
		if ids.ASNID != s.ASNID {
			t.Errorf("%s: asn %q, want %q", name, ids.ASNID, s.ASNID)
		}
		if s.POID != "" && ids.POID != s.POID {
			t.Errorf("%s: po %q, want %q", name, ids.POID, s.POID)
		}
		if s.PalletID != "" && ids.PalletID != s.PalletID {
			t.Errorf("%s: pallet %q, want %q", name, ids.PalletID, s.PalletID)
		}
	}

	issues := SampleIssues(sc)
	if len(issues) != 12 {
		t.Fatalf("issues = %d, want 12", len(issues))
	}
	// Three texts per category, in Categories order.
	for i, text := range issues {
		want := triage.Categories[i/3]
		if got := triage.Classify(text); got != want {
			t.Errorf("classify(%q) = %s, want %s (scores %v)", text, got, want, triage.Scores(text))
		}
	}
	for want, s := range map[triage.Category]Scenario{
		triage.MissingASN:       sc.MissingASN,
		triage.MissingPO:        sc.MissingPO,
		triage.MissingPallet:    sc.MissingPallet,
		triage.QuantityMismatch: sc.QuantityMismatch,
	} {
		if got := triage.Classify(s.Description); got != want {
			t.Errorf("classify(%q) = %s, want %s", s.Description, got, want)
		}
	}
}
