package cloudharvest

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gravwell/cift/internal/evidence"
	"github.com/gravwell/cift/internal/store"
)

func newTestHarvester(t *testing.T, product store.Product) (*Harvester, *httptest.Server) {
	t.Helper()
	lib, err := evidence.Open(filepath.Join(t.TempDir(), "evidence"))
	require.NoError(t, err)
	t.Cleanup(func() { lib.Close() })
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), product)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	h := newHarvester(http.DefaultClient, lib, st, "UTC")
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)
	return h, srv
}

func TestFetchRawAndRegister(t *testing.T) {
	h, srv := newTestHarvester(t, store.ProductAlexa)
	body, err := h.fetchRaw(srv.URL)
	require.NoError(t, err)
	require.Equal(t, "{}", string(body))

	fileID, err := h.register(srv.URL, "test fetch", body)
	require.NoError(t, err)
	require.NotZero(t, fileID)
}

func TestFetchRawErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	h, _ := newTestHarvester(t, store.ProductAlexa)
	_, err := h.fetchRaw(srv.URL)
	require.Error(t, err)
}

func TestWithParam(t *testing.T) {
	require.Equal(t, "https://x/?id=abc%2Bdef", withParam("https://x/?id={}", "abc+def"))
}
