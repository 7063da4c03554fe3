// Package submaker accumulates word boundary records into subtitle cues
// and renders them as SRT, WebVTT or plain text. It consumes the
// synthesis stream through the word boundary hook and never re-sorts or
// re-segments what the service reported.
package submaker

import (
	"fmt"
	"strings"
	"sync"
)

// ticksPerMillisecond converts service ticks (100 ns) to milliseconds.
const ticksPerMillisecond = 10_000

// Cue is one subtitle entry. Start and End are in ticks.
type Cue struct {
	Start int64
	End   int64
	Text  string
}

// SubMaker collects cues, one per word boundary fed to it.
type SubMaker struct {
	mu   sync.Mutex
	cues []Cue
}

func New() *SubMaker {
	return &SubMaker{}
}

// Feed appends one cue. Its signature matches the synthesis word boundary
// hook so a SubMaker can be attached directly to a job.
func (s *SubMaker) Feed(text string, offset, duration int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cues = append(s.cues, Cue{
		Start: offset,
		End:   offset + duration,
		Text:  text,
	})
}

// Cues returns a copy of the collected cues.
func (s *SubMaker) Cues() []Cue {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Cue, len(s.cues))
	copy(out, s.cues)
	return out
}

// MergeCues groups consecutive cues into entries of at most words words,
// spanning from the first word's start to the last word's end.
func (s *SubMaker) MergeCues(words int) error {
	if words <= 0 {
		return fmt.Errorf("invalid number of words to merge: %d", words)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.cues) == 0 {
		return nil
	}

	var merged []Cue
	current := s.cues[0]
	count := 1
	for _, cue := range s.cues[1:] {
		if count < words {
			current = Cue{
				Start: current.Start,
				End:   cue.End,
				Text:  current.Text + " " + cue.Text,
			}
			count++
			continue
		}
		merged = append(merged, current)
		current = cue
		count = 1
	}
	merged = append(merged, current)
	s.cues = merged
	return nil
}

// SRT renders the cues as a SubRip document.
func (s *SubMaker) SRT() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sb strings.Builder
	for i, cue := range s.cues {
		sb.WriteString(fmt.Sprintf("%d\r\n", i+1))
		sb.WriteString(mktimestamp(cue.Start, ","))
		sb.WriteString(" --> ")
		sb.WriteString(mktimestamp(cue.End, ","))
		sb.WriteString("\r\n")
		sb.WriteString(cue.Text)
		sb.WriteString("\r\n\r\n")
	}
	return sb.String()
}

// WebVTT renders the cues as a WebVTT document.
func (s *SubMaker) WebVTT() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("WEBVTT\r\n\r\n")
	for _, cue := range s.cues {
		sb.WriteString(mktimestamp(cue.Start, "."))
		sb.WriteString(" --> ")
		sb.WriteString(mktimestamp(cue.End, "."))
		sb.WriteString("\r\n")
		sb.WriteString(cue.Text)
		sb.WriteString("\r\n\r\n")
	}
	return sb.String()
}

// Plain renders the cue texts joined by spaces.
func (s *SubMaker) Plain() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	texts := make([]string, len(s.cues))
	for i, cue := range s.cues {
		texts[i] = cue.Text
	}
	return strings.Join(texts, " ")
}

// mktimestamp renders ticks as HH:MM:SS<sep>mmm.
func mktimestamp(ticks int64, sep string) string {
	ms := ticks / ticksPerMillisecond
	hours := ms / 3_600_000
	minutes := (ms / 60_000) % 60
	seconds := (ms / 1000) % 60
	millis := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", hours, minutes, seconds, sep, millis)
}
