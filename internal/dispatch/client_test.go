package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightwise/cargodesk/internal/store"
	"github.com/freightwise/cargodesk/internal/wizard"
)

func TestClientDispatchCreatePosts(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "AEX-1001"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	res, err := c.Dispatch(context.Background(), wizard.DispatchRequest{
		WizardType:   "airexport",
		ResourcePath: "air-export-jobs",
		Mode:         wizard.ModeCreate,
		Payload:      map[string]any{"customer_code": "ACME"},
	})
	require.NoError(t, err)
	assert.Equal(t, "AEX-1001", res.ID)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/air-export-jobs", gotPath)
	assert.Equal(t, "ACME", gotBody["customer_code"])
}

func TestClientDispatchEditPuts(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	res, err := c.Dispatch(context.Background(), wizard.DispatchRequest{
		ResourcePath: "air-export-jobs",
		Mode:         wizard.ModeEdit,
		ResourceID:   "AEX-77",
		Payload:      map[string]any{},
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/air-export-jobs/AEX-77", gotPath)

	// An empty upstream body falls back to the known resource id.
	assert.Equal(t, "AEX-77", res.ID)
}

func TestClientDispatchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "incoterm unknown", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Dispatch(context.Background(), wizard.DispatchRequest{
		ResourcePath: "air-export-jobs",
		Mode:         wizard.ModeCreate,
		Payload:      map[string]any{},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "incoterm unknown")
}

func TestClientNotify(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	err := c.Notify(context.Background(), "callentry", "CALL-9", map[string]any{"email": "dana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "/call-entries/CALL-9/notifications", gotPath)
}

func TestLocalDispatchPersists(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	l := NewLocal(mem)

	res, err := l.Dispatch(ctx, wizard.DispatchRequest{
		WizardType:   "airexport",
		ResourcePath: "air-export-jobs",
		Mode:         wizard.ModeCreate,
		Payload:      map[string]any{"customer_code": "ACME"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.ID)

	subs, err := mem.ListSubmissions(ctx, store.DefaultPagination())
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "airexport", subs[0].Kind)
	assert.JSONEq(t, `{"customer_code":"ACME"}`, string(subs[0].Payload))
}
