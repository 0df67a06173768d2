package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHandlerUsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(InstrumentHandler)
	r.HandleFunc("/tickets/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/tickets/{id}", "418"))
	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tickets/"+id, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/tickets/{id}", "418"))
	assert.Equal(t, before+2, after)
}

func TestDomainCounters(t *testing.T) {
	before := testutil.ToFloat64(dpDecisions.WithLabelValues("approved"))
	RecordDPDecision("approved")
	assert.Equal(t, before+1, testutil.ToFloat64(dpDecisions.WithLabelValues("approved")))

	before = testutil.ToFloat64(statusTransitions.WithLabelValues("selesai"))
	RecordStatusTransition("selesai")
	assert.Equal(t, before+1, testutil.ToFloat64(statusTransitions.WithLabelValues("selesai")))

	before = testutil.ToFloat64(intakeSubmissions.WithLabelValues("public"))
	RecordIntake("public")
	assert.Equal(t, before+1, testutil.ToFloat64(intakeSubmissions.WithLabelValues("public")))
}

func TestHandlerServesRegistry(t *testing.T) {
	RecordIntake("staff")
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "form_service_tickets_intake_submissions_total")
}
