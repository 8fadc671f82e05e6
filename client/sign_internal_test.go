package client

import (
	"bytes"
	"io"
	"net/http"
	"testing"
	"time"

	"goa.design/schemarpc/auth"
)

func TestHashRequestBodyReadsThroughGetBodyWithoutConsumingBody(t *testing.T) {
	const payload = `{"name":"gizmo"}`
	req, err := http.NewRequest(http.MethodPost, "https://example.com/widgets", bytes.NewReader([]byte(payload)))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader([]byte(payload))), nil
	}

	hash, err := hashRequestBody(req)
	if err != nil {
		t.Fatalf("hashRequestBody: %v", err)
	}
	if want := auth.HashPayload([]byte(payload)); hash != want {
		t.Fatalf("hash = %q, want %q", hash, want)
	}

	// req.Body must still be readable: hashRequestBody must not have
	// consumed it.
	got, err := io.ReadAll(req.Body)
	if err != nil {
		t.Fatalf("read req.Body: %v", err)
	}
	if string(got) != payload {
		t.Fatalf("req.Body = %q after hashing, want %q", got, payload)
	}
}

func TestWithPayloadHashDoesNotOverrideExplicitScheme(t *testing.T) {
	base := auth.Properties{"payloadHash": "explicit"}
	got := withPayloadHash(base, "computed")
	if got["payloadHash"] != "explicit" {
		t.Fatalf("payloadHash = %v, want unchanged %q", got["payloadHash"], "explicit")
	}

	fresh := withPayloadHash(auth.Properties{"service": "demo"}, "computed")
	if fresh["payloadHash"] != "computed" {
		t.Fatalf("payloadHash = %v, want %q", fresh["payloadHash"], "computed")
	}
	if fresh["service"] != "demo" {
		t.Fatal("withPayloadHash must preserve existing keys")
	}
	if base["payloadHash"] != "explicit" {
		t.Fatal("withPayloadHash must not mutate its input map")
	}
}

func TestClassifyDecisionThreadsRetryAfterHeaderIntoErrorAndDecision(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	err := newError(KindUnmodeled, "demo#Op", nil).withHTTPStatus(503)

	d := classifyDecision(err, false, now, "Mon, 01 Jan 2024 02:00:00 GMT")

	if d.RetryAfter != 2*time.Hour {
		t.Fatalf("RetryAfter = %v, want 2h", d.RetryAfter)
	}
	ce, ok := AsError(err)
	if !ok {
		t.Fatal("AsError failed")
	}
	if ce.RetryAfter() != 2*time.Hour {
		t.Fatalf("(*Error).RetryAfter() = %v, want 2h", ce.RetryAfter())
	}
}
