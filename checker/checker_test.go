package checker

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// seedPO writes a PO header, its lines, and ASN lines under asnID that
// reference it.
func seedPO(t *testing.T, db *store.DB, poID, asnID string, poQty, asnQty map[string]int) {
	t.Helper()
	require.NoError(t, db.UpsertPOHeader(&store.POHeader{POID: poID}))
	require.NoError(t, db.UpsertASNHeader(&store.ASNHeader{ASNID: asnID, SupplierReference: "SUP" + asnID}))
	for _, pallet := range sortedKeys(poQty) {
		require.NoError(t, db.UpsertPOLine(&store.POLine{POID: poID, PalletID: pallet, ASNID: asnID, Quantity: poQty[pallet]}))
	}
	for _, pallet := range sortedKeys(asnQty) {
		require.NoError(t, db.UpsertASNLine(&store.ASNLine{ASNID: asnID, PalletID: pallet, POID: poID, Quantity: asnQty[pallet]}))
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestCheckASN(t *testing.T) {
	db := testDB(t)
	c := New(db)
	ctx := context.Background()

	r, err := c.Check(ctx, triage.MissingASN, triage.Identifiers{ASNID: "01234"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAbsent, r.Outcome)

	require.NoError(t, db.UpsertASNHeader(&store.ASNHeader{ASNID: "01234", SupplierReference: "SUP01234"}))
	r, err = c.Check(ctx, triage.MissingASN, triage.Identifiers{ASNID: "01234"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeOrphanHeader, r.Outcome)
	assert.False(t, r.Outcome.Satisfied())

	require.NoError(t, db.UpsertASNLine(&store.ASNLine{ASNID: "01234", PalletID: "500000000000001", POID: "2000000001", Quantity: 3}))
	r, err = c.Check(ctx, triage.MissingASN, triage.Identifiers{ASNID: "01234"})
	require.NoError(t, err)
	assert.Equal(t, OutcomePresent, r.Outcome)
	assert.True(t, r.Outcome.Satisfied())
	assert.Len(t, r.ASNLines, 1)
	assert.Equal(t, "SUP01234", r.ASNHeader.SupplierReference)
}

func TestCheckPOConsistent(t *testing.T) {
	db := testDB(t)
	seedPO(t, db, "2123456789", "01234",
		map[string]int{"500000000000001": 10, "500000000000002": 5},
		map[string]int{"500000000000001": 10, "500000000000002": 5})

	r, err := New(db).Check(context.Background(), triage.MissingPO, triage.Identifiers{POID: "2123456789"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeConsistent, r.Outcome)
	assert.Equal(t, 15, r.POQuantity)
	assert.Equal(t, 15, r.ASNQuantity)
}

func TestCheckPOQuantityMismatchNeverMissingPallet(t *testing.T) {
	db := testDB(t)
	seedPO(t, db, "2123456789", "01234",
		map[string]int{"500000000000001": 10, "500000000000002": 5},
		map[string]int{"500000000000001": 10, "500000000000002": 7})

	r, err := New(db).CheckPO("2123456789")
	require.NoError(t, err)
	assert.Equal(t, OutcomeQuantityMismatch, r.Outcome)
	assert.Empty(t, r.PalletID)
	assert.Equal(t, 15, r.POQuantity)
	assert.Equal(t, 17, r.ASNQuantity)
}

func TestCheckPOMissingPallet(t *testing.T) {
	db := testDB(t)
	seedPO(t, db, "2123456789", "01234",
		map[string]int{"500000000000001": 10, "500000000000002": 5, "500000000000003": 1},
		map[string]int{"500000000000001": 10})

	r, err := New(db).CheckPO("2123456789")
	require.NoError(t, err)
	assert.Equal(t, OutcomeMissingPallet, r.Outcome)
	assert.Contains(t, []string{"500000000000002", "500000000000003"}, r.PalletID)
	// PO lines are scanned first, in store order.
	assert.Equal(t, "500000000000002", r.PalletID)
}

func TestCheckPOExtraASNPallet(t *testing.T) {
	db := testDB(t)
	seedPO(t, db, "2123456789", "01234",
		map[string]int{"500000000000001": 10},
		map[string]int{"500000000000001": 10, "500000000000009": 2})

	r, err := New(db).CheckPO("2123456789")
	require.NoError(t, err)
	assert.Equal(t, OutcomeMissingPallet, r.Outcome)
	assert.Equal(t, "500000000000009", r.PalletID)
}

func TestCheckPOAbsent(t *testing.T) {
	db := testDB(t)
	c := New(db)

	r, err := c.CheckPO("2000000000")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAbsent, r.Outcome)

	// Header without lines is still absent.
	require.NoError(t, db.UpsertPOHeader(&store.POHeader{POID: "2000000000"}))
	r, err = c.CheckPO("2000000000")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAbsent, r.Outcome)
	assert.NotNil(t, r.POHeader)
}

func TestCheckPallet(t *testing.T) {
	db := testDB(t)
	c := New(db)
	ids := triage.Identifiers{PalletID: "512345678901234", POID: "2987654321"}

	r, err := c.Check(context.Background(), triage.MissingPallet, ids)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAbsent, r.Outcome)
	assert.Nil(t, r.POLine)
	assert.Nil(t, r.ASNLine)

	require.NoError(t, db.UpsertPOLine(&store.POLine{POID: "2987654321", PalletID: "512345678901234", Quantity: 5}))
	r, _ = c.Check(context.Background(), triage.MissingPallet, ids)
	assert.Equal(t, OutcomeAbsent, r.Outcome, "PO line alone is not enough")
	assert.NotNil(t, r.POLine)

	require.NoError(t, db.UpsertASNLine(&store.ASNLine{ASNID: "", PalletID: "512345678901234", POID: "2987654321", Quantity: 5}))
	r, _ = c.Check(context.Background(), triage.MissingPallet, ids)
	assert.Equal(t, OutcomePresent, r.Outcome)
}

func TestCheckQuantity(t *testing.T) {
	db := testDB(t)
	seedPO(t, db, "2123456789", "01234",
		map[string]int{"500000000000001": 10},
		map[string]int{"500000000000001": 8})

	r, err := New(db).Check(context.Background(), triage.QuantityMismatch, triage.Identifiers{POID: "2123456789"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeMismatchReported, r.Outcome)
	assert.Equal(t, 10, r.POQuantity)
	assert.Equal(t, 8, r.ASNQuantity)

	r, err = New(db).Check(context.Background(), triage.QuantityMismatch, triage.Identifiers{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeMismatchReported, r.Outcome)
}

func TestCheckCannotEvaluate(t *testing.T) {
	c := New(testDB(t))
	for _, cat := range []triage.Category{triage.MissingASN, triage.MissingPO, triage.MissingPallet, triage.Unknown} {
		r, err := c.Check(context.Background(), cat, triage.Identifiers{})
		require.NoError(t, err)
		assert.Equal(t, OutcomeCannotEvaluate, r.Outcome, cat)
	}
}

type failingRecords struct {
	Records
	err error
}

func (f failingRecords) GetASNHeader(string) (*store.ASNHeader, error) { return nil, f.err }
func (f failingRecords) GetPOHeader(string) (*store.POHeader, error)   { return nil, f.err }
func (f failingRecords) FindPOLineByPallet(string) (*store.POLine, error) {
	return nil, f.err
}

func TestCheckPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("disk on fire")
	c := New(failingRecords{err: boom})
	for _, tc := range []struct {
		cat triage.Category
		ids triage.Identifiers
	}{
		{triage.MissingASN, triage.Identifiers{ASNID: "01234"}},
		{triage.MissingPO, triage.Identifiers{POID: "2123456789"}},
		{triage.MissingPallet, triage.Identifiers{PalletID: "512345678901234"}},
	} {
		_, err := c.Check(context.Background(), tc.cat, tc.ids)
		assert.ErrorIs(t, err, boom, tc.cat)
	}
}

func TestCompareEmptySides(t *testing.T) {
	outcome, pallet, _, _ := Compare(nil, nil)
	assert.Equal(t, OutcomeConsistent, outcome)
	assert.Empty(t, pallet)

	outcome, pallet, _, _ = Compare([]*store.POLine{{PalletID: "500000000000001", Quantity: 1}}, nil)
	assert.Equal(t, OutcomeMissingPallet, outcome)
	assert.Equal(t, "500000000000001", pallet)
}
