package communicate

import (
	"bytes"

	platformerrors "edge-speech-go/internal/platform/errors"
)

// splitTextByByteLength splits text into slices of at most byteLength
// bytes, preferring to split on a space and never severing an unterminated
// XML entity. The slices concatenate back to exactly the input.
func splitTextByByteLength(text []byte, byteLength int) ([][]byte, error) {
	if byteLength <= 0 {
		return nil, platformerrors.New(platformerrors.KindConfig, "split",
			"byte length must be greater than 0")
	}

	var chunks [][]byte
	for len(text) > byteLength {
		// Split just after the last space in the window so the trailing
		// space stays with the finished chunk.
		splitAt := bytes.LastIndexByte(text[:byteLength], ' ') + 1
		if splitAt == 0 {
			splitAt = byteLength
		}

		// Walk the split point back past any ampersand whose entity is
		// not terminated before the split.
		for splitAt > 0 {
			amp := bytes.LastIndexByte(text[:splitAt], '&')
			if amp == -1 || bytes.IndexByte(text[amp:splitAt], ';') != -1 {
				break
			}
			splitAt = amp
		}

		// No usable boundary in the window; split at the hard limit.
		if splitAt == 0 {
			splitAt = byteLength
		}

		chunks = append(chunks, text[:splitAt])
		text = text[splitAt:]
	}

	if len(text) > 0 {
		chunks = append(chunks, text)
	}
	return chunks, nil
}
