// Package checker evaluates the record-store predicates behind each issue
// category. It never writes.
package checker

import (
	"context"
	"fmt"

	"wmstriage/store"
	"wmstriage/triage"
)

type Outcome string

const (
	OutcomePresent          Outcome = "present"
	OutcomeOrphanHeader     Outcome = "orphan_header"
	OutcomeAbsent           Outcome = "absent"
	OutcomeConsistent       Outcome = "consistent"
	OutcomeMissingPallet    Outcome = "missing_pallet"
	OutcomeQuantityMismatch Outcome = "quantity_mismatch"
	OutcomeMismatchReported Outcome = "mismatch_reported"
	OutcomeCannotEvaluate   Outcome = "cannot_evaluate"
)

// Satisfied reports whether the outcome means the records are in order.
func (o Outcome) Satisfied() bool {
	return o == OutcomePresent || o == OutcomeConsistent
}

// Records is the read side of the record store.
type Records interface {
	GetASNHeader(asnID string) (*store.ASNHeader, error)
	ListASNLines(asnID string) ([]*store.ASNLine, error)
	ListASNLinesByPO(poID string) ([]*store.ASNLine, error)
	GetPOHeader(poID string) (*store.POHeader, error)
	ListPOLines(poID string) ([]*store.POLine, error)
	FindPOLineByPallet(palletID string) (*store.POLine, error)
	FindASNLineByPallet(palletID string) (*store.ASNLine, error)
}

// Result carries the outcome and whatever rows were read to reach it.
type Result struct {
	Outcome   Outcome
	ASNHeader *store.ASNHeader
	ASNLines  []*store.ASNLine
	POHeader  *store.POHeader
	POLines   []*store.POLine

	// Pallet checks.
	POLine  *store.POLine
	ASNLine *store.ASNLine

	// PalletID is the first differing pallet when Outcome is OutcomeMissingPallet.
	PalletID    string
	POQuantity  int
	ASNQuantity int
}

type Checker struct {
	records Records
}

func New(records Records) *Checker {
	return &Checker{records: records}
}

// Check evaluates the predicate for category against ids. A missing
// identifier yields OutcomeCannotEvaluate; record-store failures other than
// "not found" are returned as errors.
func (c *Checker) Check(ctx context.Context, category triage.Category, ids triage.Identifiers) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch category {
	case triage.MissingASN:
		if ids.ASNID == "" {
			return &Result{Outcome: OutcomeCannotEvaluate}, nil
		}
		return c.CheckASN(ids.ASNID)
	case triage.MissingPO:
		if ids.POID == "" {
			return &Result{Outcome: OutcomeCannotEvaluate}, nil
		}
		return c.CheckPO(ids.POID)
	case triage.MissingPallet:
		if ids.PalletID == "" {
			return &Result{Outcome: OutcomeCannotEvaluate}, nil
		}
		return c.CheckPallet(ids.PalletID)
	case triage.QuantityMismatch:
		return c.checkQuantity(ids)
	}
	return &Result{Outcome: OutcomeCannotEvaluate}, nil
}

// CheckASN reports present (header and lines), orphan_header or absent.
func (c *Checker) CheckASN(asnID string) (*Result, error) {
	h, err := c.records.GetASNHeader(asnID)
	if store.IsNotFound(err) {
		return &Result{Outcome: OutcomeAbsent}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get asn header %s: %w", asnID, err)
	}
	lines, err := c.records.ListASNLines(asnID)
	if err != nil {
		return nil, fmt.Errorf("list asn lines %s: %w", asnID, err)
	}
	r := &Result{ASNHeader: h, ASNLines: lines, Outcome: OutcomePresent}
	if len(lines) == 0 {
		r.Outcome = OutcomeOrphanHeader
	}
	return r, nil
}

// CheckPO verifies the PO exists with lines, then compares it against the
// ASN lines that reference it.
func (c *Checker) CheckPO(poID string) (*Result, error) {
	h, err := c.records.GetPOHeader(poID)
	if store.IsNotFound(err) {
		return &Result{Outcome: OutcomeAbsent}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get po header %s: %w", poID, err)
	}
	poLines, err := c.records.ListPOLines(poID)
	if err != nil {
		return nil, fmt.Errorf("list po lines %s: %w", poID, err)
	}
	r := &Result{POHeader: h, POLines: poLines}
	if len(poLines) == 0 {
		r.Outcome = OutcomeAbsent
		return r, nil
	}
	asnLines, err := c.records.ListASNLinesByPO(poID)
	if err != nil {
		return nil, fmt.Errorf("list asn lines for po %s: %w", poID, err)
	}
	r.ASNLines = asnLines
	r.Outcome, r.PalletID, r.POQuantity, r.ASNQuantity = Compare(poLines, asnLines)
	return r, nil
}

// Compare applies the PO/ASN invariant: equal pallet sets and equal quantity
// sums. On a set difference it returns the first differing pallet, scanning
// PO lines before ASN lines.
func Compare(poLines []*store.POLine, asnLines []*store.ASNLine) (outcome Outcome, palletID string, poQty, asnQty int) {
	poPallets := make(map[string]bool, len(poLines))
	for _, l := range poLines {
		poPallets[l.PalletID] = true
		poQty += l.Quantity
	}
	asnPallets := make(map[string]bool, len(asnLines))
	for _, l := range asnLines {
		asnPallets[l.PalletID] = true
		asnQty += l.Quantity
	}
	for _, l := range poLines {
		if !asnPallets[l.PalletID] {
			return OutcomeMissingPallet, l.PalletID, poQty, asnQty
		}
	}
	for _, l := range asnLines {
		if !poPallets[l.PalletID] {
			return OutcomeMissingPallet, l.PalletID, poQty, asnQty
		}
	}
	if poQty != asnQty {
		return OutcomeQuantityMismatch, "", poQty, asnQty
	}
	return OutcomeConsistent, "", poQty, asnQty
}

// CheckPallet reports present only when both a PO line and an ASN line
// carry the pallet.
func (c *Checker) CheckPallet(palletID string) (*Result, error) {
	r := &Result{Outcome: OutcomeAbsent, PalletID: palletID}
	poLine, err := c.records.FindPOLineByPallet(palletID)
	if err != nil && !store.IsNotFound(err) {
		return nil, fmt.Errorf("find po line for pallet %s: %w", palletID, err)
	}
	asnLine, err := c.records.FindASNLineByPallet(palletID)
	if err != nil && !store.IsNotFound(err) {
		return nil, fmt.Errorf("find asn line for pallet %s: %w", palletID, err)
	}
	r.POLine, r.ASNLine = poLine, asnLine
	if poLine != nil && asnLine != nil {
		r.Outcome = OutcomePresent
	}
	return r, nil
}

// checkQuantity has no local predicate. It loads the PO side, when known, so
// callers can quote and correct it.
func (c *Checker) checkQuantity(ids triage.Identifiers) (*Result, error) {
	r := &Result{Outcome: OutcomeMismatchReported, PalletID: ids.PalletID}
	if ids.POID == "" {
		return r, nil
	}
	poLines, err := c.records.ListPOLines(ids.POID)
	if err != nil {
		return nil, fmt.Errorf("list po lines %s: %w", ids.POID, err)
	}
	asnLines, err := c.records.ListASNLinesByPO(ids.POID)
	if err != nil {
		return nil, fmt.Errorf("list asn lines for po %s: %w", ids.POID, err)
	}
	r.POLines, r.ASNLines = poLines, asnLines
	_, _, r.POQuantity, r.ASNQuantity = Compare(poLines, asnLines)
	return r, nil
}
