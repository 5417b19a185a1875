package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arguspanoptes/argus-server/internal/domain"
)

const kohaFixture = `<?xml version="1.0"?>
<zs:searchRetrieveResponse xmlns:zs="http://www.loc.gov/zing/srw/">
  <zs:numberOfRecords>1</zs:numberOfRecords>
  <zs:records>
    <zs:record>
      <zs:recordData>
        <record>
          <datafield tag="952" ind1=" " ind2=" ">
            <subfield code="b">WARMAN</subfield>
            <subfield code="o">FIC ATW</subfield>
            <subfield code="p">31234000111111</subfield>
            <subfield code="y">BK</subfield>
          </datafield>
          <datafield tag="952" ind1=" " ind2=" ">
            <subfield code="a">MARTEN</subfield>
            <subfield code="o">FIC ATW</subfield>
            <subfield code="p">31234000222222</subfield>
            <subfield code="q">2026-09-12</subfield>
            <subfield code="y">LP</subfield>
          </datafield>
          <datafield tag="952" ind1=" " ind2=" ">
            <subfield code="b">WARMAN</subfield>
            <subfield code="o">FIC ATW REF</subfield>
            <subfield code="p">31234000333333</subfield>
            <subfield code="7">1</subfield>
          </datafield>
        </record>
      </zs:recordData>
    </zs:record>
  </zs:records>
</zs:searchRetrieveResponse>`

func TestKohaSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bath.isbn="+testISBN13, r.URL.Query().Get("query"))
		w.Write([]byte(kohaFixture))
	}))
	defer srv.Close()

	base, _ := testBase(t)
	system := sruTestSystem(srv.URL, domain.ProtocolKoha)
	a := NewKoha(base, system.Adapters[0])

	result, err := a.Search(context.Background(), testISBN13, system)
	require.NoError(t, err)
	require.Len(t, result.Holdings, 3)

	// No due date, no not-for-loan flag: on the shelf.
	h := result.Holdings[0]
	assert.Equal(t, domain.StatusAvailable, h.Status)
	assert.Equal(t, "Available", h.RawStatus)
	assert.Equal(t, domain.MaterialBook, h.Material)
	assert.Equal(t, "31234000111111", h.Barcode)
	assert.Equal(t, domain.SourceDirect, h.Source)

	// 952$q set: checked out, with the due date carried through. The
	// branch came from 952$a because $b was absent.
	h = result.Holdings[1]
	assert.Equal(t, domain.StatusCheckedOut, h.Status)
	assert.Equal(t, "2026-09-12", h.DueDate)
	assert.Equal(t, domain.BranchId("wheatland-martensville"), h.BranchID)
	assert.Equal(t, domain.MaterialLargePrint, h.Material)

	// Non-zero 952$7: not for loan, which has no place in the shared
	// availability vocabulary.
	h = result.Holdings[2]
	assert.Equal(t, domain.StatusUnknown, h.Status)
	assert.Equal(t, "Not for loan", h.RawStatus)
}

func TestKohaFingerprintsDistinctPerBarcode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(kohaFixture))
	}))
	defer srv.Close()

	base, _ := testBase(t)
	system := sruTestSystem(srv.URL, domain.ProtocolKoha)
	a := NewKoha(base, system.Adapters[0])

	result, err := a.Search(context.Background(), testISBN13, system)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, h := range result.Holdings {
		assert.False(t, seen[h.Fingerprint], "fingerprint %s repeated", h.Fingerprint)
		seen[h.Fingerprint] = true
	}
}
