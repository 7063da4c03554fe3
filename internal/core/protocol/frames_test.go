package protocol

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	platformerrors "edge-speech-go/internal/platform/errors"
)

func TestConnectID(t *testing.T) {
	id := ConnectID()
	if matched, _ := regexp.MatchString(`^[0-9a-f]{32}$`, id); !matched {
		t.Errorf("connect id %q is not 32 lowercase hex chars", id)
	}
	if id == ConnectID() {
		t.Error("two connect ids should not collide")
	}
}

func TestDateToString(t *testing.T) {
	date := DateToString()
	if !strings.HasSuffix(date, "GMT+0000 (Coordinated Universal Time)") {
		t.Errorf("unexpected date suffix: %q", date)
	}
}

func TestTextFrameRoundTrip(t *testing.T) {
	frame := EncodeTextFrame([][2]string{
		{"Content-Type", "application/json; charset=utf-8"},
		{"Path", "speech.config"},
	}, `{"context":{}}`)

	decoded, err := DecodeTextFrame([]byte(frame))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}

	if decoded.Headers["Content-Type"] != "application/json; charset=utf-8" {
		t.Errorf("wrong Content-Type: %q", decoded.Headers["Content-Type"])
	}
	if decoded.Headers["Path"] != "speech.config" {
		t.Errorf("wrong Path: %q", decoded.Headers["Path"])
	}
	if decoded.Headers["X-Timestamp"] == "" {
		t.Error("X-Timestamp header missing")
	}
	if string(decoded.Body) != `{"context":{}}` {
		t.Errorf("wrong body: %q", decoded.Body)
	}
}

func TestDecodeTextFrame_BodyWithSeparator(t *testing.T) {
	// Only the first CRLF-CRLF splits headers from body.
	raw := "Path:audio.metadata\r\n\r\nfirst\r\n\r\nsecond"
	decoded, err := DecodeTextFrame([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if string(decoded.Body) != "first\r\n\r\nsecond" {
		t.Errorf("wrong body: %q", decoded.Body)
	}
}

func TestDecodeTextFrame_MissingSeparator(t *testing.T) {
	_, err := DecodeTextFrame([]byte("Path:response\r\nno separator here"))
	if err == nil {
		t.Fatal("expected error for missing separator")
	}
	if !platformerrors.IsKind(err, platformerrors.KindUnexpectedResponse) {
		t.Errorf("expected unexpected_response kind, got %v", err)
	}
}

func TestBinaryFrameRoundTrip(t *testing.T) {
	audio := []byte{0xff, 0xf3, 0x01, 0x02, 0x03}
	frame := EncodeBinaryFrame("Path:audio\r\nContent-Type:audio/mpeg", audio)

	decoded, err := DecodeBinaryFrame(frame)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if decoded.Path() != "audio" {
		t.Errorf("wrong Path: %q", decoded.Path())
	}
	if decoded.ContentType() != "audio/mpeg" {
		t.Errorf("wrong Content-Type: %q", decoded.ContentType())
	}
	if !bytes.Equal(decoded.Body, audio) {
		t.Errorf("wrong body: %v", decoded.Body)
	}
}

func TestBinaryFrameRoundTrip_BodyStartsWithCRLF(t *testing.T) {
	// A body that happens to begin with the separator bytes must not be
	// shortened by decoding.
	audio := []byte("\r\n\r\npayload")
	frame := EncodeBinaryFrame("Path:audio\r\nContent-Type:audio/mpeg", audio)

	decoded, err := DecodeBinaryFrame(frame)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if !bytes.Equal(decoded.Body, audio) {
		t.Errorf("wrong body: %q", decoded.Body)
	}
}

func TestDecodeBinaryFrame_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "too short", data: []byte{0x00}},
		{name: "empty", data: nil},
		{name: "header length beyond message", data: []byte{0xff, 0xff, 'P'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBinaryFrame(tt.data)
			if err == nil {
				t.Fatal("expected error")
			}
			if !platformerrors.IsKind(err, platformerrors.KindUnexpectedResponse) {
				t.Errorf("expected unexpected_response kind, got %v", err)
			}
		})
	}
}
