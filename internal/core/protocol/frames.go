// Package protocol implements the framed message format used by the Edge
// speech service: text frames made of CRLF header lines, a blank line and a
// body, and binary frames prefixed with a big-endian header length.
package protocol

import (
	"bytes"
	"encoding/binary"
	"strings"
	"time"

	"github.com/google/uuid"

	platformerrors "edge-speech-go/internal/platform/errors"
)

const headerBodySeparator = "\r\n\r\n"

// Recognized Path header values.
const (
	PathResponse      = "response"
	PathTurnStart     = "turn.start"
	PathAudioMetadata = "audio.metadata"
	PathAudio         = "audio"
	PathTurnEnd       = "turn.end"
)

// ConnectID returns a UUID v4 without dashes, used for ConnectionId and
// X-RequestId values.
func ConnectID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// DateToString returns the timestamp format the vendor's browser client
// sends, always rendered against UTC.
func DateToString() string {
	return time.Now().UTC().Format("Mon Jan 02 2006 15:04:05 GMT+0000 (Coordinated Universal Time)")
}

// EncodeTextFrame builds an outbound text frame: an X-Timestamp line, the
// given header lines, a blank line and the body.
func EncodeTextFrame(headers [][2]string, body string) string {
	var sb strings.Builder
	sb.WriteString("X-Timestamp:")
	sb.WriteString(DateToString())
	sb.WriteString("\r\n")
	for _, h := range headers {
		sb.WriteString(h[0])
		sb.WriteString(":")
		sb.WriteString(h[1])
		sb.WriteString("\r\n")
	}
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return sb.String()
}

// EncodeBinaryFrame builds a binary frame from a header block and a body.
// The two-byte prefix counts the header block, separator included.
func EncodeBinaryFrame(headerBlock string, body []byte) []byte {
	header := []byte(headerBlock + headerBodySeparator)
	frame := make([]byte, 0, 2+len(header)+len(body))
	frame = binary.BigEndian.AppendUint16(frame, uint16(len(header)))
	frame = append(frame, header...)
	frame = append(frame, body...)
	return frame
}

// TextFrame is a decoded inbound text frame.
type TextFrame struct {
	Headers map[string]string
	Body    []byte
}

// Path returns the frame's Path header value.
func (f *TextFrame) Path() string {
	return f.Headers["Path"]
}

// DecodeTextFrame splits an inbound text frame at the first CRLF-CRLF
// delimiter into a header map and a body.
func DecodeTextFrame(data []byte) (*TextFrame, error) {
	sep := bytes.Index(data, []byte(headerBodySeparator))
	if sep == -1 {
		return nil, platformerrors.New(platformerrors.KindUnexpectedResponse, "decode",
			"text message is missing the header/body separator")
	}

	headers, err := parseHeaderBlock(data[:sep])
	if err != nil {
		return nil, err
	}

	return &TextFrame{
		Headers: headers,
		Body:    data[sep+len(headerBodySeparator):],
	}, nil
}

// BinaryFrame is a decoded inbound binary frame.
type BinaryFrame struct {
	Headers map[string]string
	Body    []byte
}

// Path returns the frame's Path header value.
func (f *BinaryFrame) Path() string {
	return f.Headers["Path"]
}

// ContentType returns the frame's Content-Type header value.
func (f *BinaryFrame) ContentType() string {
	return f.Headers["Content-Type"]
}

// DecodeBinaryFrame decodes an inbound binary frame: two bytes of
// big-endian header length, the header text, then the binary body.
func DecodeBinaryFrame(data []byte) (*BinaryFrame, error) {
	if len(data) < 2 {
		return nil, platformerrors.New(platformerrors.KindUnexpectedResponse, "decode",
			"binary message is missing the header length")
	}

	headerLength := int(binary.BigEndian.Uint16(data[:2]))
	if headerLength+2 > len(data) {
		return nil, platformerrors.New(platformerrors.KindUnexpectedResponse, "decode",
			"binary message is missing the audio payload")
	}

	// The header text carries its own trailing CRLF-CRLF separator; the
	// binary body starts immediately after it.
	headers, err := parseHeaderBlock(data[2 : 2+headerLength])
	if err != nil {
		return nil, err
	}

	return &BinaryFrame{
		Headers: headers,
		Body:    data[2+headerLength:],
	}, nil
}

func parseHeaderBlock(block []byte) (map[string]string, error) {
	headers := make(map[string]string)
	block = bytes.TrimSuffix(block, []byte("\r\n\r\n"))
	block = bytes.TrimSuffix(block, []byte("\r\n"))
	if len(block) == 0 {
		return headers, nil
	}
	for _, line := range bytes.Split(block, []byte("\r\n")) {
		if len(line) == 0 {
			continue
		}
		key, value, found := bytes.Cut(line, []byte(":"))
		if !found {
			return nil, platformerrors.New(platformerrors.KindUnexpectedResponse, "decode",
				"malformed header line in message")
		}
		headers[string(key)] = string(value)
	}
	return headers, nil
}
