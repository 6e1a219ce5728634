package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterIsIdempotent(t *testing.T) {
	Register()
	Register()
}

func TestRecorders(t *testing.T) {
	before := testutil.ToFloat64(messagesDecoded.WithLabelValues("Test"))
	RecordDecoded("Test")
	RecordDecoded("Test")
	if got := testutil.ToFloat64(messagesDecoded.WithLabelValues("Test")); got != before+2 {
		t.Errorf("decoded = %v, want %v", got, before+2)
	}

	RecordSuspension("Test")
	if got := testutil.ToFloat64(suspensions.WithLabelValues("Test")); got < 1 {
		t.Errorf("suspensions = %v", got)
	}

	RecordFailure("Test", "UnexpectedTag")
	if got := testutil.ToFloat64(decodeFailures.WithLabelValues("Test", "UnexpectedTag")); got < 1 {
		t.Errorf("failures = %v", got)
	}

	read := testutil.ToFloat64(bytesRead)
	RecordBytesRead(10)
	RecordBytesRead(0)
	RecordBytesRead(-1)
	if got := testutil.ToFloat64(bytesRead); got != read+10 {
		t.Errorf("bytes read = %v, want %v", got, read+10)
	}

	RecordEncoded("BindResponse")
	if got := testutil.ToFloat64(messagesEncoded.WithLabelValues("BindResponse")); got < 1 {
		t.Errorf("encoded = %v", got)
	}
}

func TestHandler(t *testing.T) {
	RecordDecoded("HandlerTest")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `obacodec_decoder_messages_total{grammar="HandlerTest"}`) {
		t.Error("metrics output missing decoded counter")
	}
}
