package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/sdk/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrument_PassesRequestThrough(t *testing.T) {
	var gotPath string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusTeapot)
	})

	h := Instrument("test-api", new(app.Telemetry))(inner)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/ord-1/tax-lines", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "/api/orders/ord-1/tax-lines", gotPath)
}

func TestInstrument_ComposesInChain(t *testing.T) {
	h := Wrap(okHandler(),
		RequestID(),
		Instrument("test-api", new(app.Telemetry)),
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
