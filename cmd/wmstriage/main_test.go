package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"wmstriage/triage"
)

func TestClassifyResult(t *testing.T) {
	got := classifyResult("Cannot find PO 2123456789 in WMS. Please investigate.")
	if got.Category != triage.MissingPO {
		t.Errorf("category = %q, want %q", got.Category, triage.MissingPO)
	}
	if got.Identifiers.POID != "2123456789" {
		t.Errorf("po_id = %q", got.Identifiers.POID)
	}
	if got.Scores[triage.MissingPO] == 0 {
		t.Errorf("scores = %v", got.Scores)
	}
}

func TestClassifyCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"classify", "ASN", "01234", "not", "found", "in", "WMS"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(out.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v (%s)", err, out.String())
	}
	if body["issue_type"] != "missing_asn" {
		t.Errorf("issue_type = %v", body["issue_type"])
	}
	if body["entities"].(map[string]any)["asn_id"] != "01234" {
		t.Errorf("entities = %v", body["entities"])
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.HasPrefix(out.String(), "wmstriage ") {
		t.Errorf("output = %q", out.String())
	}
}
