package communicate

import (
	"net/http"

	"edge-speech-go/internal/core/drm"
)

const (
	// BaseURL roots both the synthesis websocket and the voice catalog.
	BaseURL = "speech.platform.bing.com/consumer/speech/synthesize/readaloud"

	// WSSURL is the synthesis endpoint, token pair and connection id appended per dial.
	WSSURL = "wss://" + BaseURL + "/edge/v1?TrustedClientToken=" + drm.TrustedClientToken

	// SecMSGECVersion pins the browser build the token scheme expects.
	ChromiumFullVersion  = "130.0.2849.68"
	ChromiumMajorVersion = "130"
	SecMSGECVersion      = "1-" + ChromiumFullVersion

	// DefaultVoice is used when the caller does not pick one.
	DefaultVoice = "en-US-EmmaMultilingualNeural"

	// UserAgent mimics the Edge build matching SecMSGECVersion.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36" +
		" (KHTML, like Gecko) Chrome/" + ChromiumMajorVersion + ".0.0.0 Safari/537.36" +
		" Edg/" + ChromiumMajorVersion + ".0.0.0"

	// OutputFormat is the only audio encoding this client requests.
	OutputFormat = "audio-24khz-48kbitrate-mono-mp3"

	// chunkPadding is the service's average trailing silence per turn, in
	// 100-ns ticks, added to the offset compensation between chunks.
	chunkPadding = 8_750_000
)

// HandshakeHeaders returns the browser-like headers sent on the websocket
// handshake. Sec-WebSocket-Extensions and Sec-WebSocket-Protocol are
// managed by the dialer itself.
func HandshakeHeaders() http.Header {
	h := http.Header{}
	h.Set("User-Agent", UserAgent)
	h.Set("Accept", "*/*")
	h.Set("Accept-Encoding", "gzip, deflate, br")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Pragma", "no-cache")
	h.Set("Cache-Control", "no-cache")
	h.Set("Origin", "chrome-extension://jdiccldimpdaibmpdkjnbmckianbfold")
	return h
}
