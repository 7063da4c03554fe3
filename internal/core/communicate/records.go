package communicate

// RecordType tags one output record.
type RecordType string

const (
	RecordAudio        RecordType = "audio"
	RecordWordBoundary RecordType = "WordBoundary"
)

// Record is one element of the synthesis output stream: either a slice of
// raw MP3 bytes or a word-level timing entry. Offsets and durations are in
// 100-ns ticks measured from the start of the full synthesized timeline.
type Record struct {
	Type     RecordType
	Data     []byte
	Offset   int64
	Duration int64
	Text     string
}

// WordBoundaryHook receives every word boundary record as it is emitted,
// so subtitle formatters can accumulate cues without draining the stream
// themselves.
type WordBoundaryHook func(text string, offset, duration int64)
