package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestES(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return es
}

func esJSON(w http.ResponseWriter, body string) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, body)
}

func TestSearch_DecodesHits(t *testing.T) {
	var gotBody map[string]any
	es := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		esJSON(w, `{
			"hits": {
				"total": {"value": 2},
				"hits": [
					{"_source": {"name": "Acme Trading", "company": "Acme Holdings", "industry": "manufacturing", "location": "Rotterdam", "ebitda_margin_pct": 18.5}},
					{"_source": {"name": "Beta Logistics", "company": "Beta BV", "industry": "logistics", "location": "Antwerp"}}
				]
			}
		}`)
	})

	total, clients, err := Search(context.Background(), es, "clients", "acme", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, clients, 2)

	assert.Equal(t, "Acme Trading", clients[0].Name)
	assert.Equal(t, "Acme Holdings", clients[0].Company)
	assert.InDelta(t, 18.5, clients[0].EbitdaMarginPct, 1e-9)
	assert.Equal(t, "Beta Logistics", clients[1].Name)

	// The query body carries the multi_match over the client fields.
	query := gotBody["query"].(map[string]any)
	mm := query["multi_match"].(map[string]any)
	assert.Equal(t, "acme", mm["query"])
	assert.Contains(t, mm["fields"], "name^2")
}

func TestSearch_ErrorStatus(t *testing.T) {
	es := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"boom"}`)
	})

	_, _, err := Search(context.Background(), es, "clients", "acme", 0, 10)
	require.Error(t, err)
}

func TestSearch_NoHits(t *testing.T) {
	es := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		esJSON(w, `{"hits": {"total": {"value": 0}, "hits": []}}`)
	})

	total, clients, err := Search(context.Background(), es, "clients", "nothing", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, clients)
}
