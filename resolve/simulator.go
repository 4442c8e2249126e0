package resolve

import (
	"fmt"

	"wmstriage/checker"
	"wmstriage/store"
	"wmstriage/triage"
)

// Simulated pallet detail values returned for a pallet details request.
const (
	SimulatedPalletQuantity = 5
	SimulatedSupplierRef    = "ABC123"
)

// SimulatorRecords is what the simulator reads, plus the header writes it
// performs when standing in for an interface run.
type SimulatorRecords interface {
	checker.Records
	ListPOLinesByASN(asnID string) ([]*store.POLine, error)
	UpsertASNHeader(h *store.ASNHeader) error
	UpsertPOHeader(h *store.POHeader) error
}

// Simulator stands in for the external team. Detail requests are answered
// at once. Interface requests are answered only when interfaceHeaders is set
// and the other side of the record already names the missing one: the
// header is written directly and its lines come back as confirmed rows.
type Simulator struct {
	records          SimulatorRecords
	interfaceHeaders bool
}

func NewSimulator(records SimulatorRecords, interfaceHeaders bool) *Simulator {
	return &Simulator{records: records, interfaceHeaders: interfaceHeaders}
}

func (s *Simulator) Respond(req ExternalRequest) (*Confirmation, error) {
	ids := req.Identifiers
	switch req.Kind {
	case KindDetails:
		if req.Category == triage.QuantityMismatch {
			rows, err := s.quantityRows(ids)
			if err != nil {
				return nil, err
			}
			return &Confirmation{Rows: rows, Note: "quantities confirmed against PO"}, nil
		}
		row := DetailRow{
			PalletID:          ids.PalletID,
			POID:              ids.POID,
			ASNID:             ids.ASNID,
			Quantity:          SimulatedPalletQuantity,
			SupplierReference: SimulatedSupplierRef,
		}
		// A PO line that already carries the pallet keeps its quantity.
		pl, err := s.records.FindPOLineByPallet(ids.PalletID)
		if err != nil && !store.IsNotFound(err) {
			return nil, fmt.Errorf("find po line for pallet %s: %w", ids.PalletID, err)
		}
		if pl != nil && pl.POID == ids.POID {
			row.Quantity = pl.Quantity
		}
		return &Confirmation{Rows: []DetailRow{row}, Note: "pallet details supplied"}, nil

	case KindInterface:
		if !s.interfaceHeaders {
			return nil, nil
		}
		switch req.Category {
		case triage.MissingASN:
			return s.interfaceASN(ids.ASNID)
		case triage.MissingPO:
			return s.interfacePO(ids.POID)
		}
		return nil, nil
	}
	return nil, fmt.Errorf("unknown request kind %q", req.Kind)
}

// interfaceASN rebuilds an ASN from the PO lines that reference it. With
// no such lines there is nothing to interface and no answer is given.
func (s *Simulator) interfaceASN(asnID string) (*Confirmation, error) {
	poLines, err := s.records.ListPOLinesByASN(asnID)
	if err != nil {
		return nil, fmt.Errorf("list po lines for asn %s: %w", asnID, err)
	}
	if len(poLines) == 0 {
		return nil, nil
	}
	supplier := "SUP" + asnID
	if err := s.records.UpsertASNHeader(&store.ASNHeader{ASNID: asnID, SupplierReference: supplier}); err != nil {
		return nil, fmt.Errorf("interface asn %s: %w", asnID, err)
	}
	rows := make([]DetailRow, 0, len(poLines))
	for _, l := range poLines {
		rows = append(rows, DetailRow{
			PalletID: l.PalletID, POID: l.POID, ASNID: asnID, Quantity: l.Quantity, SupplierReference: supplier,
		})
	}
	return &Confirmation{Rows: rows, Note: "interface triggered"}, nil
}

// interfacePO rebuilds a PO from the ASN lines that reference it.
func (s *Simulator) interfacePO(poID string) (*Confirmation, error) {
	asnLines, err := s.records.ListASNLinesByPO(poID)
	if err != nil {
		return nil, fmt.Errorf("list asn lines for po %s: %w", poID, err)
	}
	if len(asnLines) == 0 {
		return nil, nil
	}
	if err := s.records.UpsertPOHeader(&store.POHeader{POID: poID, Status: store.POStatusInProgress}); err != nil {
		return nil, fmt.Errorf("interface po %s: %w", poID, err)
	}
	rows := make([]DetailRow, 0, len(asnLines))
	for _, l := range asnLines {
		rows = append(rows, DetailRow{
			PalletID: l.PalletID, POID: poID, ASNID: l.ASNID, Quantity: l.Quantity, SupplierReference: l.SupplierReference,
		})
	}
	return &Confirmation{Rows: rows, Note: "interface triggered"}, nil
}

// quantityRows treats the PO quantities as authoritative and restates them
// for every pallet the PO carries.
func (s *Simulator) quantityRows(ids triage.Identifiers) ([]DetailRow, error) {
	var poLines []*store.POLine
	switch {
	case ids.POID != "":
		lines, err := s.records.ListPOLines(ids.POID)
		if err != nil {
			return nil, fmt.Errorf("list po lines %s: %w", ids.POID, err)
		}
		poLines = lines
	case ids.PalletID != "":
		l, err := s.records.FindPOLineByPallet(ids.PalletID)
		if err != nil && !store.IsNotFound(err) {
			return nil, fmt.Errorf("find po line for pallet %s: %w", ids.PalletID, err)
		}
		if l != nil {
			poLines = append(poLines, l)
		}
	}

	rows := make([]DetailRow, 0, len(poLines))
	for _, pl := range poLines {
		row := DetailRow{PalletID: pl.PalletID, POID: pl.POID, ASNID: pl.ASNID, Quantity: pl.Quantity}
		al, err := s.records.FindASNLineByPallet(pl.PalletID)
		if err != nil && !store.IsNotFound(err) {
			return nil, fmt.Errorf("find asn line for pallet %s: %w", pl.PalletID, err)
		}
		if al != nil {
			row.ASNID = al.ASNID
			row.SupplierReference = al.SupplierReference
		}
		rows = append(rows, row)
	}
	return rows, nil
}
