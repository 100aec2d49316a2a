package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordBooking(t *testing.T) {
	before := testutil.ToFloat64(bookingsTotal.WithLabelValues("sold_out"))
	RecordBooking("sold_out")
	RecordBooking("sold_out")
	assert.Equal(t, before+2, testutil.ToFloat64(bookingsTotal.WithLabelValues("sold_out")))
}

func TestHandler_ExposesCounters(t *testing.T) {
	RecordHTTPRequest(http.MethodGet, "/booking/v1/events", 200, 5*time.Millisecond)
	RecordOutbox("sent")

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, "booking_outbox_messages_total")
}
