package sampledata

import (
	"fmt"

	"wmstriage/store"
)

type Scenario struct {
	ASNID       string `json:"asn_id,omitempty"`
	POID        string `json:"po_id,omitempty"`
	PalletID    string `json:"pallet_id,omitempty"`
	Description string `json:"description"`
}

// Scenarios holds one ready-made report per issue category.
type Scenarios struct {
	MissingASN       Scenario `json:"missing_asn"`
	MissingPO        Scenario `json:"missing_po"`
	MissingPallet    Scenario `json:"missing_pallet"`
	QuantityMismatch Scenario `json:"quantity_mismatch"`
}

// Quantities written for the quantity mismatch scenario.
const (
	MismatchPOQuantity  = 5
	MismatchASNQuantity = 3
)

// CreateScenarios writes the records behind each scenario on top of
// whatever is already stored:
//   - missing ASN: a header with no lines
//   - missing PO: nothing at all
//   - missing pallet: PO and ASN headers, no pallet lines
//   - quantity mismatch: PO line of 5 against ASN line of 3
func (g *Generator) CreateScenarios() (*Scenarios, error) {
	now := g.now()
	sc := &Scenarios{}

	sc.MissingASN.ASNID = g.ASNID()
	if err := g.db.UpsertASNHeader(&store.ASNHeader{
		ASNID: sc.MissingASN.ASNID, SupplierReference: g.SupplierReference(), LastUpdatedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("missing asn scenario: %w", err)
	}
	sc.MissingASN.Description = fmt.Sprintf("ASN %s is missing from the system", sc.MissingASN.ASNID)

	sc.MissingPO.POID = g.POID()
	sc.MissingPO.Description = fmt.Sprintf("PO %s is not found in the system", sc.MissingPO.POID)

	mp := &sc.MissingPallet
	mp.POID, mp.ASNID, mp.PalletID = g.POID(), g.ASNID(), g.PalletID()
	if err := g.db.UpsertPOHeader(&store.POHeader{POID: mp.POID, Status: store.POStatusInProgress, LastUpdatedAt: now}); err != nil {
		return nil, fmt.Errorf("missing pallet scenario: %w", err)
	}
	if err := g.db.UpsertASNHeader(&store.ASNHeader{ASNID: mp.ASNID, SupplierReference: g.SupplierReference(), LastUpdatedAt: now}); err != nil {
		return nil, fmt.Errorf("missing pallet scenario: %w", err)
	}
	mp.Description = fmt.Sprintf("Pallet %s is missing for PO %s and ASN %s", mp.PalletID, mp.POID, mp.ASNID)

	qm := &sc.QuantityMismatch
	qm.POID, qm.ASNID, qm.PalletID = g.POID(), g.ASNID(), g.PalletID()
	supplier := g.SupplierReference()
	steps := []func() error{
		func() error {
			return g.db.UpsertPOHeader(&store.POHeader{POID: qm.POID, Status: store.POStatusInProgress, LastUpdatedAt: now})
		},
		func() error {
			return g.db.UpsertASNHeader(&store.ASNHeader{ASNID: qm.ASNID, SupplierReference: supplier, LastUpdatedAt: now})
		},
		func() error {
			return g.db.UpsertPOLine(&store.POLine{
				POID: qm.POID, PalletID: qm.PalletID, ASNID: qm.ASNID,
				Quantity: MismatchPOQuantity, LastUpdatedAt: now,
			})
		},
		func() error {
			return g.db.UpsertASNLine(&store.ASNLine{
				ASNID: qm.ASNID, PalletID: qm.PalletID, POID: qm.POID,
				Quantity: MismatchASNQuantity, SupplierReference: supplier, LastUpdatedAt: now,
			})
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, fmt.Errorf("quantity mismatch scenario: %w", err)
		}
	}
	qm.Description = fmt.Sprintf("Quantity mismatch for pallet %s in PO %s", qm.PalletID, qm.POID)

	return sc, nil
}

// SampleIssues returns example report texts built from the scenarios,
// three per category.
func SampleIssues(sc *Scenarios) []string {
	a, p, mp, qm := sc.MissingASN, sc.MissingPO, sc.MissingPallet, sc.QuantityMismatch
	return []string{
		fmt.Sprintf("Hi, I'm reporting that ASN %s is missing from our system. Please check.", a.ASNID),
		fmt.Sprintf("ASN %s not found in WMS. Can you help?", a.ASNID),
		fmt.Sprintf("The ASN %s seems to be missing. Need assistance.", a.ASNID),

		fmt.Sprintf("Purchase order %s is missing from the system.", p.POID),
		fmt.Sprintf("Cannot find PO %s in WMS. Please investigate.", p.POID),
		fmt.Sprintf("PO %s is not interfaced. Need help.", p.POID),

		fmt.Sprintf("Pallet %s is missing for PO %s.", mp.PalletID, mp.POID),
		fmt.Sprintf("Cannot find pallet %s in ASN %s.", mp.PalletID, mp.ASNID),
		fmt.Sprintf("Missing pallet %s for PO %s and ASN %s.", mp.PalletID, mp.POID, mp.ASNID),

		fmt.Sprintf("Quantity mismatch for pallet %s in PO %s.", qm.PalletID, qm.POID),
		fmt.Sprintf("Wrong quantity for pallet %s in ASN %s.", qm.PalletID, qm.ASNID),
		fmt.Sprintf("Quantity difference found in PO %s for pallet %s.", qm.POID, qm.PalletID),
	}
}
