package submaker

import (
	"strings"
	"testing"
)

func feedSample(s *SubMaker) {
	s.Feed("hello", 1_000_000, 5_000_000)
	s.Feed("wonderful", 7_000_000, 6_000_000)
	s.Feed("world", 14_000_000, 4_000_000)
}

func TestMktimestamp(t *testing.T) {
	tests := []struct {
		name  string
		ticks int64
		sep   string
		want  string
	}{
		{name: "zero", ticks: 0, sep: ",", want: "00:00:00,000"},
		{name: "millis", ticks: 1_000_000, sep: ",", want: "00:00:00,100"},
		{name: "seconds", ticks: 15_000_000, sep: ".", want: "00:00:01.500"},
		{name: "minutes", ticks: 10_000_000 * 61, sep: ".", want: "00:01:01.000"},
		{name: "hours", ticks: 10_000_000 * 3_725, sep: ",", want: "01:02:05,000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mktimestamp(tt.ticks, tt.sep); got != tt.want {
				t.Errorf("mktimestamp(%d) = %q, want %q", tt.ticks, got, tt.want)
			}
		})
	}
}

func TestSubMaker_SRT(t *testing.T) {
	s := New()
	feedSample(s)

	srt := s.SRT()
	want := "1\r\n00:00:00,100 --> 00:00:00,600\r\nhello\r\n\r\n" +
		"2\r\n00:00:00,700 --> 00:00:01,300\r\nwonderful\r\n\r\n" +
		"3\r\n00:00:01,400 --> 00:00:01,800\r\nworld\r\n\r\n"
	if srt != want {
		t.Errorf("unexpected SRT output:\n%q\nwant:\n%q", srt, want)
	}
}

func TestSubMaker_WebVTT(t *testing.T) {
	s := New()
	feedSample(s)

	vtt := s.WebVTT()
	if !strings.HasPrefix(vtt, "WEBVTT\r\n\r\n") {
		t.Error("WebVTT output must start with the WEBVTT header")
	}
	if !strings.Contains(vtt, "00:00:00.100 --> 00:00:00.600\r\nhello\r\n\r\n") {
		t.Errorf("missing first cue:\n%q", vtt)
	}
	if strings.Contains(vtt, ",") {
		t.Error("WebVTT timestamps use dots, not commas")
	}
}

func TestSubMaker_Plain(t *testing.T) {
	s := New()
	feedSample(s)

	if got := s.Plain(); got != "hello wonderful world" {
		t.Errorf("Plain() = %q", got)
	}
}

func TestSubMaker_Empty(t *testing.T) {
	s := New()
	if got := s.SRT(); got != "" {
		t.Errorf("empty SRT should be empty, got %q", got)
	}
	if got := s.WebVTT(); got != "WEBVTT\r\n\r\n" {
		t.Errorf("empty WebVTT should contain only the header, got %q", got)
	}
	if got := s.Plain(); got != "" {
		t.Errorf("empty Plain should be empty, got %q", got)
	}
}

func TestSubMaker_MergeCues(t *testing.T) {
	s := New()
	feedSample(s)

	if err := s.MergeCues(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cues := s.Cues()
	if len(cues) != 2 {
		t.Fatalf("expected 2 merged cues, got %d", len(cues))
	}
	if cues[0].Text != "hello wonderful" {
		t.Errorf("first merged cue = %q", cues[0].Text)
	}
	if cues[0].Start != 1_000_000 || cues[0].End != 13_000_000 {
		t.Errorf("first merged cue spans [%d, %d]", cues[0].Start, cues[0].End)
	}
	if cues[1].Text != "world" {
		t.Errorf("second merged cue = %q", cues[1].Text)
	}
}

func TestSubMaker_MergeCues_Invalid(t *testing.T) {
	s := New()
	feedSample(s)

	for _, words := range []int{0, -3} {
		if err := s.MergeCues(words); err == nil {
			t.Errorf("MergeCues(%d) should fail", words)
		}
	}
}

func TestSubMaker_MergeCues_Empty(t *testing.T) {
	s := New()
	if err := s.MergeCues(5); err != nil {
		t.Errorf("merging an empty maker should be a no-op, got %v", err)
	}
	if len(s.Cues()) != 0 {
		t.Error("empty maker should stay empty")
	}
}
