package communicate

import (
	"context"
	"os"

	"github.com/bytedance/sonic"

	platformerrors "edge-speech-go/internal/platform/errors"
)

// metadataLine is the on-disk form of one word boundary record.
type metadataLine struct {
	Type     RecordType `json:"type"`
	Offset   int64      `json:"offset"`
	Duration int64      `json:"duration"`
	Text     string     `json:"text"`
}

// Save drains the stream into an audio file and, when metadataPath is not
// empty, a word boundary metadata file with one JSON document per line.
func (c *Communicate) Save(ctx context.Context, audioPath, metadataPath string) error {
	audio, err := os.Create(audioPath)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindConfig, "save", "create audio file", err)
	}
	defer audio.Close()

	var metadata *os.File
	if metadataPath != "" {
		metadata, err = os.Create(metadataPath)
		if err != nil {
			return platformerrors.Wrap(platformerrors.KindConfig, "save", "create metadata file", err)
		}
		defer metadata.Close()
	}

	records, errs := c.Stream(ctx)
	for record := range records {
		switch record.Type {
		case RecordAudio:
			if _, err := audio.Write(record.Data); err != nil {
				return platformerrors.Wrap(platformerrors.KindConfig, "save", "write audio", err)
			}
		case RecordWordBoundary:
			if metadata == nil {
				continue
			}
			line, err := sonic.Marshal(metadataLine{
				Type:     record.Type,
				Offset:   record.Offset,
				Duration: record.Duration,
				Text:     record.Text,
			})
			if err != nil {
				return platformerrors.Wrap(platformerrors.KindUnknown, "save", "marshal metadata", err)
			}
			line = append(line, '\n')
			if _, err := metadata.Write(line); err != nil {
				return platformerrors.Wrap(platformerrors.KindConfig, "save", "write metadata", err)
			}
		}
	}

	return <-errs
}
