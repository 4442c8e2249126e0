// Package sampledata fills the record store with matching ASN and PO data
// and with records that set up each discrepancy category.
package sampledata

import (
	"fmt"
	"math/rand"
	"time"

	"wmstriage/store"
)

// Store is the record store surface the generator writes to.
type Store interface {
	DeleteAllRecords() error
	UpsertASNHeader(h *store.ASNHeader) error
	UpsertASNLine(l *store.ASNLine) error
	UpsertPOHeader(h *store.POHeader) error
	UpsertPOLine(l *store.POLine) error
}

type Options struct {
	ASNs         int `json:"asns"`
	POsPerASN    int `json:"pos_per_asn"`
	PalletsPerPO int `json:"pallets_per_po"`
}

func DefaultOptions() Options {
	return Options{ASNs: 5, POsPerASN: 2, PalletsPerPO: 3}
}

type PalletSummary struct {
	PalletID string `json:"pallet_id"`
	POID     string `json:"po_id,omitempty"`
	Quantity int    `json:"quantity"`
}

type ASNSummary struct {
	ASNID             string          `json:"asn_id"`
	SupplierReference string          `json:"supplier_reference"`
	Pallets           []PalletSummary `json:"pos"`
}

type POSummary struct {
	POID    string          `json:"po_id"`
	ASNID   string          `json:"asn_id"`
	Status  string          `json:"status"`
	Pallets []PalletSummary `json:"pallets"`
}

type Summary struct {
	ASNs []ASNSummary `json:"asns"`
	POs  []POSummary  `json:"pos"`
}

// Generator produces random records. IDs follow the extractor's formats and
// never repeat within one generator.
type Generator struct {
	db   Store
	rnd  *rand.Rand
	used map[string]bool
	now  func() time.Time
}

func New(db Store, seed int64) *Generator {
	return &Generator{
		db:   db,
		rnd:  rand.New(rand.NewSource(seed)),
		used: make(map[string]bool),
		now:  time.Now,
	}
}

// Generate replaces all records with opts.ASNs ASNs, each carrying
// opts.POsPerASN POs of opts.PalletsPerPO pallets. PO and ASN lines agree.
func (g *Generator) Generate(opts Options) (*Summary, error) {
	if opts.ASNs <= 0 || opts.POsPerASN <= 0 || opts.PalletsPerPO <= 0 {
		return nil, fmt.Errorf("sample sizes must be positive: %+v", opts)
	}
	if err := g.db.DeleteAllRecords(); err != nil {
		return nil, fmt.Errorf("clear records: %w", err)
	}

	sum := &Summary{}
	for i := 0; i < opts.ASNs; i++ {
		asn := ASNSummary{ASNID: g.ASNID(), SupplierReference: g.SupplierReference()}
		if err := g.db.UpsertASNHeader(&store.ASNHeader{
			ASNID:             asn.ASNID,
			SupplierReference: asn.SupplierReference,
			LastUpdatedAt:     g.recent(),
		}); err != nil {
			return nil, fmt.Errorf("asn header %s: %w", asn.ASNID, err)
		}

		for j := 0; j < opts.POsPerASN; j++ {
			po := POSummary{POID: g.POID(), ASNID: asn.ASNID, Status: g.poStatus()}
			if err := g.db.UpsertPOHeader(&store.POHeader{
				POID:          po.POID,
				Status:        po.Status,
				LastUpdatedAt: g.recent(),
			}); err != nil {
				return nil, fmt.Errorf("po header %s: %w", po.POID, err)
			}

			for k := 0; k < opts.PalletsPerPO; k++ {
				palletID := g.PalletID()
				qty := g.rnd.Intn(10) + 1
				if err := g.db.UpsertPOLine(&store.POLine{
					POID: po.POID, PalletID: palletID, ASNID: asn.ASNID,
					Quantity: qty, LastUpdatedAt: g.recent(),
				}); err != nil {
					return nil, fmt.Errorf("po line %s/%s: %w", po.POID, palletID, err)
				}
				if err := g.db.UpsertASNLine(&store.ASNLine{
					ASNID: asn.ASNID, PalletID: palletID, POID: po.POID,
					Quantity: qty, SupplierReference: asn.SupplierReference, LastUpdatedAt: g.recent(),
				}); err != nil {
					return nil, fmt.Errorf("asn line %s/%s: %w", asn.ASNID, palletID, err)
				}
				asn.Pallets = append(asn.Pallets, PalletSummary{PalletID: palletID, POID: po.POID, Quantity: qty})
				po.Pallets = append(po.Pallets, PalletSummary{PalletID: palletID, Quantity: qty})
			}
			sum.POs = append(sum.POs, po)
		}
		sum.ASNs = append(sum.ASNs, asn)
	}
	return sum, nil
}

// ASNID returns a fresh "0" + 4 digit ASN number.
func (g *Generator) ASNID() string {
	return g.unique(func() string { return fmt.Sprintf("0%d", 1000+g.rnd.Intn(9000)) })
}

// POID returns a fresh "2" + 9 digit PO number.
func (g *Generator) POID() string {
	return g.unique(func() string { return fmt.Sprintf("2%d", 100000000+g.rnd.Intn(900000000)) })
}

// PalletID returns a fresh "5" + 14 digit pallet number.
func (g *Generator) PalletID() string {
	return g.unique(func() string { return fmt.Sprintf("5%d", 10000000000000+g.rnd.Int63n(90000000000000)) })
}

// SupplierReference returns three letters and three digits, e.g. "QXD481".
func (g *Generator) SupplierReference() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := make([]byte, 6)
	for i := 0; i < 3; i++ {
		b[i] = letters[g.rnd.Intn(len(letters))]
		b[i+3] = byte('0' + g.rnd.Intn(10))
	}
	return string(b)
}

func (g *Generator) unique(gen func() string) string {
	for {
		id := gen()
		if !g.used[id] {
			g.used[id] = true
			return id
		}
	}
}

func (g *Generator) poStatus() string {
	statuses := []string{store.POStatusInProgress, store.POStatusReceived, store.POStatusHold}
	return statuses[g.rnd.Intn(len(statuses))]
}

// recent returns a time within the last 30 days.
func (g *Generator) recent() time.Time {
	return g.now().Add(-time.Duration(g.rnd.Int63n(int64(30 * 24 * time.Hour))))
}
