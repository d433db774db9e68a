package seeder

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sizzlebits/layerlens/cli/internal/client"
)

func TestGenerate_CountAndShape(t *testing.T) {
	entries := Generate(Config{Queue: "dataLayer", Count: 200, Seed: 1})
	require.Len(t, entries, 200)

	for _, entry := range entries {
		name, ok := entry["event"].(string)
		require.True(t, ok, "every entry carries an event name")
		assert.NotEmpty(t, name)
	}
}

func TestGenerate_Reproducible(t *testing.T) {
	a := Generate(Config{Count: 50, Seed: 7})
	b := Generate(Config{Count: 50, Seed: 7})
	assert.Equal(t, a, b)

	c := Generate(Config{Count: 50, Seed: 8})
	assert.NotEqual(t, a, c)
}

func TestGenerate_MixCoversCommerceEvents(t *testing.T) {
	entries := Generate(Config{Count: 1000, Seed: 42})

	seen := map[string]bool{}
	for _, entry := range entries {
		seen[entry["event"].(string)] = true
	}
	for _, want := range []string{"page_view", "gtm.click", "add_to_cart", "purchase"} {
		assert.True(t, seen[want], "mix should include %s", want)
	}
}

func TestRun_PushesEveryEntry(t *testing.T) {
	var pushed int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/queues/dataLayer/push", r.URL.Path)
		pushed++
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "length": pushed})
	}))
	defer ts.Close()

	var lastDone int
	err := Run(t.Context(), client.NewCapture(ts.URL),
		Config{Queue: "dataLayer", Count: 25, Seed: 1},
		func(done, total int) { lastDone = done })
	require.NoError(t, err)
	assert.Equal(t, 25, pushed)
	assert.Equal(t, 25, lastDone)
}
