// Package ssml builds the single-line speech markup document the service
// expects and computes the per-message overhead used to bound chunk sizes.
package ssml

import (
	"fmt"
	"strings"

	"edge-speech-go/internal/core/protocol"
)

// websocketMaxSize is the hard cap on one outbound message.
const websocketMaxSize = 1 << 16

// marginOfError leaves headroom under the message cap.
const marginOfError = 50

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Escape replaces XML special characters with their entities.
func Escape(text string) string {
	return escaper.Replace(text)
}

// Unescape reverses Escape.
func Unescape(text string) string {
	return strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
		"&amp;", "&",
	).Replace(text)
}

// RemoveIncompatibleCharacters blanks control characters the service
// rejects (0x00-0x08, 0x0B-0x0C, 0x0E-0x1F), most notably the vertical tab
// common in OCR-ed documents.
func RemoveIncompatibleCharacters(text string) string {
	runes := []rune(text)
	for i, r := range runes {
		if (r >= 0 && r <= 8) || (r >= 11 && r <= 12) || (r >= 14 && r <= 31) {
			runes[i] = ' '
		}
	}
	return string(runes)
}

// Build creates the speech markup document for one chunk. The text must
// already be escaped.
func Build(text, voice, rate, volume, pitch string) string {
	return "<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='en-US'>" +
		fmt.Sprintf("<voice name='%s'><prosody pitch='%s' rate='%s' volume='%s'>", voice, pitch, rate, volume) +
		text +
		"</prosody></voice></speak>"
}

// HeadersPlusData returns the complete outbound ssml message for one chunk.
// The X-Timestamp value carries a trailing Z the browser client also sends.
func HeadersPlusData(requestID, timestamp, markup string) string {
	return fmt.Sprintf(
		"X-RequestId:%s\r\n"+
			"Content-Type:application/ssml+xml\r\n"+
			"X-Timestamp:%sZ\r\n"+
			"Path:ssml\r\n\r\n"+
			"%s",
		requestID, timestamp, markup)
}

// MaxPayloadBytes returns the largest chunk size that keeps the on-wire
// ssml message under the websocket cap, measured by wrapping empty text
// with a representative request id and timestamp.
func MaxPayloadBytes(voice, rate, volume, pitch string) int {
	overhead := len(HeadersPlusData(
		protocol.ConnectID(),
		protocol.DateToString(),
		Build("", voice, rate, volume, pitch),
	)) + marginOfError
	return websocketMaxSize - overhead
}
