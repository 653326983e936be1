package sportsinc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocs = `{"items":[{"poNumber":"KS26-004","siDocNumber":12345,"supplier":"Acme","docTotal":"30.50","active":true,
 "shippingAddress":{"name":"Store","zipcode":98101},
 "lines":[{"description":"Bat","quantityShipped":2,"netPrice":5.25},{"supplierItemNumber":"GLV","quantityOrdered":1,"listPrice":20,"extension":20}]}]}`

type recorder struct {
	mu      sync.Mutex
	queries []string
}

func (r *recorder) add(q string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, q)
}

func TestFetchByPO_ExactMatch(t *testing.T) {
	var rec recorder
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r.URL.Query().Get("poNumber"))
		assert.Equal(t, "/dealers/documents/", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))
		assert.Equal(t, "true", r.URL.Query().Get("lines"))
		assert.Equal(t, "500", r.URL.Query().Get("pageSize"))
		w.Write([]byte(sampleDocs))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", 0)
	invoices, err := c.FetchByPO(context.Background(), " KS26-004 ")
	require.NoError(t, err)
	require.Len(t, invoices, 1)

	inv := invoices[0]
	assert.Equal(t, "12345", inv.SIDocNumber)
	assert.Equal(t, "Active", inv.Status)
	assert.Equal(t, "30.5", inv.DocumentTotal.String())
	assert.Equal(t, "98101", inv.ShipTo.Zip)
	require.Len(t, inv.LineItems, 2)
	assert.Equal(t, "5.25", inv.LineItems[0].NetPrice.String())
	assert.Nil(t, inv.LineItems[0].Extension)
	assert.Equal(t, "GLV", inv.LineItems[1].SupplierItemNumber)
	assert.Equal(t, []string{"KS26-004"}, rec.queries)
}

func TestFetchByPO_TruncationFallback(t *testing.T) {
	var rec recorder
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("poNumber")
		rec.add(q)
		switch q {
		case "KS26-004-D/KT26":
			w.Write([]byte(sampleDocs))
		case "KS26-004-D/KT26-007-D":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.Write([]byte(`{"items":[]}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", 0)
	invoices, err := c.FetchByPO(context.Background(), "KS26-004-D/KT26-007-D")
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, []string{
		"KS26-004-D/KT26-007-D",
		"KS26-004-D/KT26-007-",
		"KS26-004-D/KT26-007",
		"KS26-004-D/KT26-00",
		"KS26-004-D/KT26-0",
		"KS26-004-D/KT26-",
		"KS26-004-D/KT26",
	}, rec.queries)
}

func TestFetchByPO_NotFoundReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	invoices, err := NewClient(srv.URL, "secret", 0).FetchByPO(context.Background(), "ABCDEFG")
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func TestFetchByPO_AuthFailureStopsImmediately(t *testing.T) {
	var rec recorder
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r.URL.Query().Get("poNumber"))
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "bad", 0).FetchByPO(context.Background(), "ABCDEFGHIJ")
	require.ErrorIs(t, err, ErrAuthFailure)
	assert.Len(t, rec.queries, 1)
}

func TestFetchByPO_ServerErrorsSurfaceAsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "secret", 0).FetchByPO(context.Background(), "ABCDEF")
	require.ErrorIs(t, err, ErrTransport)
}

func TestFetchByPO_MissingKey(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:1", "", 0).FetchByPO(context.Background(), "ABC-1")
	require.ErrorIs(t, err, ErrMissingCredentials)
}

func TestTruncationCandidates(t *testing.T) {
	assert.Empty(t, TruncationCandidates("ABCDE"))
	assert.Equal(t, []string{"ABCDE"}, TruncationCandidates("ABCDEF"))
	assert.Len(t, TruncationCandidates("ABCDEFGHIJKLMNOPQRST"), 10)
}
