package ssml

import (
	"strings"
	"testing"
)

func TestEscapeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "plain", text: "hello world"},
		{name: "all entities", text: `a & b < c > d "e" 'f'`},
		{name: "ampersand entity text", text: "foo &amp; bar"},
		{name: "unicode", text: "héllo wörld 你好"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Unescape(Escape(tt.text)); got != tt.text {
				t.Errorf("round trip changed text: %q -> %q", tt.text, got)
			}
		})
	}
}

func TestEscape(t *testing.T) {
	if got := Escape(`<a href="x">&'</a>`); got != "&lt;a href=&quot;x&quot;&gt;&amp;&apos;&lt;/a&gt;" {
		t.Errorf("unexpected escape result: %q", got)
	}
}

func TestRemoveIncompatibleCharacters(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "vertical tab", in: "a\x0bb", want: "a b"},
		{name: "null and bell", in: "\x00x\x07y", want: " x y"},
		{name: "tab and newline survive", in: "a\tb\nc", want: "a\tb\nc"},
		{name: "carriage return survives", in: "a\rb", want: "a\rb"},
		{name: "clean text untouched", in: "plain", want: "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RemoveIncompatibleCharacters(tt.in); got != tt.want {
				t.Errorf("RemoveIncompatibleCharacters(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	markup := Build("hi", "Microsoft Server Speech Text to Speech Voice (en-US, AriaNeural)", "+0%", "+0%", "+0Hz")

	for _, want := range []string{
		"<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='en-US'>",
		"<voice name='Microsoft Server Speech Text to Speech Voice (en-US, AriaNeural)'>",
		"<prosody pitch='+0Hz' rate='+0%' volume='+0%'>hi</prosody>",
		"</voice></speak>",
	} {
		if !strings.Contains(markup, want) {
			t.Errorf("markup missing %q: %s", want, markup)
		}
	}
	if strings.Contains(markup, "\n") {
		t.Error("markup must be a single line")
	}
}

func TestHeadersPlusData(t *testing.T) {
	msg := HeadersPlusData("reqid123", "timestamp", "<speak/>")

	if !strings.HasPrefix(msg, "X-RequestId:reqid123\r\n") {
		t.Errorf("missing request id line: %q", msg)
	}
	if !strings.Contains(msg, "X-Timestamp:timestampZ\r\n") {
		t.Errorf("timestamp must carry a trailing Z: %q", msg)
	}
	if !strings.Contains(msg, "Content-Type:application/ssml+xml\r\n") {
		t.Errorf("missing content type: %q", msg)
	}
	if !strings.HasSuffix(msg, "Path:ssml\r\n\r\n<speak/>") {
		t.Errorf("missing path and body: %q", msg)
	}
}

func TestMaxPayloadBytes(t *testing.T) {
	voice := "Microsoft Server Speech Text to Speech Voice (en-US, AriaNeural)"
	max := MaxPayloadBytes(voice, "+0%", "+0%", "+0Hz")

	if max <= 0 || max >= 1<<16 {
		t.Fatalf("max payload %d outside (0, 65536)", max)
	}

	// A message built with exactly max bytes of text stays under the cap.
	text := strings.Repeat("a", max)
	msg := HeadersPlusData("00000000000000000000000000000000", "n/a", Build(text, voice, "+0%", "+0%", "+0Hz"))
	if len(msg) > 1<<16 {
		t.Errorf("message with max payload exceeds cap: %d", len(msg))
	}

	// A longer voice name shrinks the budget.
	longer := MaxPayloadBytes(voice+" extended", "+0%", "+0%", "+0Hz")
	if longer >= max {
		t.Errorf("longer voice should shrink budget: %d >= %d", longer, max)
	}
}
