// Package signature implements timing-safe HMAC request signatures.
//
// Signed requests carry a header of the form:
//
//	t=<unix-seconds>,v1=<mac>
//
// where the MAC is HMAC-SHA512 over "<t>.<body>" keyed with a shared
// secret, encoded as hex or base64. The timestamp is in unix SECONDS;
// callers that mistakenly sign with milliseconds are rejected.
package signature

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Timestamps above this are not plausible unix seconds (they would be
// milliseconds, e.g. from JavaScript's Date.now()).
const maxPlausibleSeconds = 1_000_000_000_000

// DefaultTolerance is the clock-skew window applied when the config
// does not specify one.
const DefaultTolerance = 5 * time.Minute

// Verify reports whether header is a valid signature over payload.
// It never returns an error: any malformed input fails closed.
func Verify(payload []byte, header, secret string, tolerance time.Duration) bool {
	return verifyAt(payload, header, secret, tolerance, time.Now())
}

func verifyAt(payload []byte, header, secret string, tolerance time.Duration, now time.Time) bool {
	if header == "" || secret == "" {
		return false
	}

	var tsPart, macPart string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			tsPart = value
		case "v1":
			macPart = value
		}
	}
	if tsPart == "" || macPart == "" {
		return false
	}

	ts, err := strconv.ParseInt(tsPart, 10, 64)
	if err != nil || ts <= 0 || ts > maxPlausibleSeconds {
		return false
	}

	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	skew := now.Sub(time.Unix(ts, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > tolerance {
		return false
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(tsPart))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	supplied, ok := decodeMAC(macPart)
	if !ok {
		return false
	}
	return hmac.Equal(supplied, expected)
}

// decodeMAC accepts hex or standard base64 encodings of the MAC.
func decodeMAC(s string) ([]byte, bool) {
	if b, err := hex.DecodeString(s); err == nil {
		return b, true
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, true
	}
	return nil, false
}

// Sign produces a signature header for payload at the given time, hex
// encoded. Used by tests and client SDKs.
func Sign(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}
