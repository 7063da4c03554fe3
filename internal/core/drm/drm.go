// Package drm generates the Sec-MS-GEC token value required on every
// connection to the Edge speech service and keeps the process-wide clock
// skew learned from authentication failures.
package drm

import (
	"crypto/sha256"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	platformerrors "edge-speech-go/internal/platform/errors"
)

const (
	// TrustedClientToken is the fixed service token sent on every request.
	TrustedClientToken = "6A5AA1D4EAFF4E9FB37E23D68491D6F4"

	// winEpoch is the offset in seconds between the Windows file time
	// epoch (1601-01-01 UTC) and the Unix epoch (1970-01-01 UTC).
	winEpoch = 11644473600

	// tokenWindow aligns tokens to 5-minute boundaries of server time.
	tokenWindow = 300
)

var (
	mu               sync.Mutex
	clockSkewSeconds float64

	// nowFunc is replaced in tests.
	nowFunc = time.Now
)

// AdjustClockSkew adds skewSeconds to the accumulated process-wide skew.
func AdjustClockSkew(skewSeconds float64) {
	mu.Lock()
	defer mu.Unlock()
	clockSkewSeconds += skewSeconds
}

// ClockSkew returns the accumulated skew in seconds.
func ClockSkew() float64 {
	mu.Lock()
	defer mu.Unlock()
	return clockSkewSeconds
}

// unixTimestamp returns the current Unix time corrected by the skew.
func unixTimestamp() float64 {
	mu.Lock()
	skew := clockSkewSeconds
	mu.Unlock()
	return float64(nowFunc().UTC().UnixNano())/float64(time.Second) + skew
}

// GenerateSecMSGEC derives the token for the current 5-minute window:
// skew-corrected Unix time shifted to the Windows epoch, floored to the
// window, converted to 100-ns ticks, concatenated with the trusted client
// token and hashed with SHA-256.
func GenerateSecMSGEC() string {
	ticks := unixTimestamp()
	ticks += winEpoch
	ticks -= math.Mod(ticks, tokenWindow)
	ticks *= 1e9 / 100

	strToHash := fmt.Sprintf("%.0f%s", ticks, TrustedClientToken)
	digest := sha256.Sum256([]byte(strToHash))
	return strings.ToUpper(fmt.Sprintf("%x", digest))
}

// ParseRFC2616Date parses an HTTP date header into a Unix timestamp.
func ParseRFC2616Date(date string) (float64, bool) {
	parsed, err := time.Parse(time.RFC1123, date)
	if err != nil {
		return 0, false
	}
	return float64(parsed.UTC().UnixNano()) / float64(time.Second), true
}

// HandleHandshakeError adjusts the clock skew from the server date carried
// by a rejected handshake response. A missing or unparsable date makes the
// authentication failure fatal.
func HandleHandshakeError(headers http.Header) error {
	if headers == nil {
		return platformerrors.New(platformerrors.KindDRM, "skew", "no server date in headers")
	}
	serverDate := headers.Get("Date")
	if serverDate == "" {
		return platformerrors.New(platformerrors.KindDRM, "skew", "no server date in headers")
	}
	serverSeconds, ok := ParseRFC2616Date(serverDate)
	if !ok {
		return platformerrors.New(platformerrors.KindDRM, "skew",
			fmt.Sprintf("failed to parse server date: %s", serverDate))
	}
	AdjustClockSkew(serverSeconds - unixTimestamp())
	return nil
}
