package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Webhook deliveries are signed with a shared secret: the header has
// the form "t=<unix>,v1=<hex hmac>" where the digest is
// HMAC-SHA256(secret, "<unix>.<raw body>"). Verification must run
// against the raw request bytes, not re-serialized JSON, because the
// digest is byte-sensitive.

// DefaultTolerance bounds how old a signed timestamp may be before the
// delivery is rejected as a possible replay.
const DefaultTolerance = 5 * time.Minute

// ErrInvalidSignature is returned when the header is malformed or no
// candidate digest matches.
var ErrInvalidSignature = errors.New("gateway: invalid webhook signature")

// ErrStaleTimestamp is returned when the signed timestamp falls
// outside the tolerance window.
var ErrStaleTimestamp = errors.New("gateway: webhook timestamp outside tolerance")

// SignPayload produces the signature header for a payload at time t.
// The server uses it in tests; the processor computes the same value
// on its side.
func SignPayload(payload []byte, secret string, t time.Time) string {
	ts := strconv.FormatInt(t.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

// VerifySignature checks header against payload. Multiple v1 entries
// are accepted (the processor sends several during secret rotation);
// comparison is constant time. tolerance <= 0 falls back to
// DefaultTolerance.
func VerifySignature(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	var ts string
	var candidates []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts = kv[1]
		case "v1":
			candidates = append(candidates, kv[1])
		}
	}
	if ts == "" || len(candidates) == 0 {
		return ErrInvalidSignature
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	signedAt := time.Unix(unix, 0)
	if d := now.Sub(signedAt); d > tolerance || d < -tolerance {
		return ErrStaleTimestamp
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)
	for _, cand := range candidates {
		got, err := hex.DecodeString(cand)
		if err != nil {
			continue
		}
		if hmac.Equal(expected, got) {
			return nil
		}
	}
	return ErrInvalidSignature
}
