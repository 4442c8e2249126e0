package triage

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Identifiers
	}{
		{"asn only", "ASN 01234 is missing from our system.", Identifiers{ASNID: "01234"}},
		{"po only", "Purchase order 2123456789 is not found in WMS.", Identifiers{POID: "2123456789"}},
		{"pallet and po", "Pallet 512345678901234 is missing for PO 2987654321.",
			Identifiers{POID: "2987654321", PalletID: "512345678901234"}},
		{"all three", "ASN 05555 PO 2000000001 pallet 500000000000001",
			Identifiers{ASNID: "05555", POID: "2000000001", PalletID: "500000000000001"}},
		{"leftmost wins", "ASN 01111 then ASN 02222", Identifiers{ASNID: "01111"}},
		{"wrong leading digit", "ASN 11234 PO 3123456789 pallet 412345678901234", Identifiers{}},
		{"too long", "012345 21234567890 5123456789012345", Identifiers{}},
		{"glued to letters", "ASN01234 PO2123456789", Identifiers{}},
		{"empty", "", Identifiers{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text))
		})
	}
}

func TestExtractNeverMalformed(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	alphabet := []byte("0123456789 0123456789 abcASNPO.,-\n")
	for i := 0; i < 2000; i++ {
		buf := make([]byte, r.Intn(80))
		for j := range buf {
			buf[j] = alphabet[r.Intn(len(alphabet))]
		}
		ids := Extract(string(buf))
		if ids.ASNID != "" {
			require.Len(t, ids.ASNID, 5)
			require.Equal(t, byte('0'), ids.ASNID[0])
		}
		if ids.POID != "" {
			require.Len(t, ids.POID, 10)
			require.Equal(t, byte('2'), ids.POID[0])
		}
		if ids.PalletID != "" {
			require.Len(t, ids.PalletID, 15)
			require.Equal(t, byte('5'), ids.PalletID[0])
		}
	}
}

func TestIdentifiersOr(t *testing.T) {
	ids := Identifiers{POID: "2000000001"}.Or(Identifiers{ASNID: "01234", POID: "2999999999"})
	assert.Equal(t, Identifiers{ASNID: "01234", POID: "2000000001"}, ids)
	assert.True(t, Identifiers{}.Empty())
	assert.False(t, ids.Empty())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want Category
	}{
		{"ASN 01234 is missing from our system.", MissingASN},
		{"Purchase order 2123456789 is not found in WMS.", MissingPO},
		{"Pallet 512345678901234 is missing for PO 2987654321.", MissingPallet},
		{"Quantity mismatch for pallet 512345678901234", QuantityMismatch},
		{"We received the wrong qty on the last delivery", QuantityMismatch},
		{"PO MISSING: 2000000001", MissingPO},
		{"shipment notice never arrived", MissingASN},
		{"the printer is jammed", Unknown},
		{"", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestClassifyTieGoesToFirstCategory(t *testing.T) {
	// One hit each for the ASN and pallet sets.
	text := "asn and pallet"
	scores := Scores(text)
	require.Equal(t, scores[MissingASN], scores[MissingPallet])
	assert.Equal(t, MissingASN, Classify(text))
}

func TestClassifyIgnoresIdentifierTokens(t *testing.T) {
	scores := Scores("Pallet 512345678901234 is missing for PO 2987654321 and ASN 01234")
	// "pallet is missing" and "pallet" both hit once the pallet ID is dropped.
	assert.Equal(t, 2, scores[MissingPallet])
	assert.Equal(t, 1, scores[MissingASN])

	tests := []struct {
		text string
		want Category
	}{
		{"Cannot find PO 2123456789 in WMS. Please investigate.", MissingPO},
		{"PO 2123456789 is not interfaced. Need help.", MissingPO},
		{"PO 2123456789 is not found in the system", MissingPO},
		{"Cannot find pallet 512345678901234 in ASN 01234.", MissingPallet},
		{"Wrong quantity for pallet 598765432109876 in ASN 01234.", QuantityMismatch},
		{"Quantity difference found in PO 2123456789 for pallet 598765432109876.", QuantityMismatch},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.text), tt.text)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	text := "Pallet 512345678901234 quantity mismatch against PO 2000000001"
	first := Classify(text)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Classify(text))
	}
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("missing_pallet")
	require.NoError(t, err)
	assert.Equal(t, MissingPallet, c)

	_, err = ParseCategory("bogus")
	assert.Error(t, err)
}

func TestAnalyze(t *testing.T) {
	r := Analyze("ASN 01234 is missing from our system.")
	assert.Equal(t, MissingASN, r.Category)
	assert.Equal(t, "01234", r.Identifiers.ASNID)
}
