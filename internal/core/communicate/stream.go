package communicate

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"edge-speech-go/internal/core/drm"
	"edge-speech-go/internal/core/protocol"
	"edge-speech-go/internal/core/retry"
	"edge-speech-go/internal/core/ssml"
	"edge-speech-go/internal/domain/eventbus"
	platformerrors "edge-speech-go/internal/platform/errors"
)

// sessionState tracks the per-channel request/response exchange.
type sessionState int

const (
	stateAwaitResponse sessionState = iota
	stateAwaitTurnStart
	stateStreaming
)

// errTokenRejected marks a 403 handshake whose skew correction succeeded,
// so the orchestrator may reopen the channel once with a fresh token.
var errTokenRejected = platformerrors.New(platformerrors.KindDRM, "dial",
	"service rejected the connection token")

// speechConfig is the body of the first outbound message on every channel.
type speechConfig struct {
	Context struct {
		Synthesis struct {
			Audio struct {
				MetadataOptions struct {
					SentenceBoundaryEnabled bool `json:"sentenceBoundaryEnabled"`
					WordBoundaryEnabled     bool `json:"wordBoundaryEnabled"`
				} `json:"metadataoptions"`
				OutputFormat string `json:"outputFormat"`
			} `json:"audio"`
		} `json:"synthesis"`
	} `json:"context"`
}

// metadataPayload is the body of an audio.metadata frame.
type metadataPayload struct {
	Metadata []struct {
		Type string `json:"Type"`
		Data struct {
			Offset   int64 `json:"Offset"`
			Duration int64 `json:"Duration"`
			Text     struct {
				Text string `json:"Text"`
			} `json:"text"`
		} `json:"Data"`
	} `json:"Metadata"`
}

// Stream starts the synthesis job and returns its output: a finite,
// ordered, once-consumable sequence of records plus an error channel that
// delivers at most one terminal error. The record channel closes when all
// chunks complete or the job fails; records emitted before a failure
// remain valid.
func (c *Communicate) Stream(ctx context.Context) (<-chan Record, <-chan error) {
	out := make(chan Record)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(out)

		if err := c.markConsumed(); err != nil {
			errs <- err
			return
		}
		if err := c.run(ctx, out); err != nil {
			eventbus.Publish(eventbus.EventSynthesisError, eventbus.SynthesisEventData{
				Voice: c.voice,
				Error: err.Error(),
			})
			errs <- err
		}
	}()

	return out, errs
}

func (c *Communicate) run(ctx context.Context, out chan<- Record) error {
	cleaned := ssml.Escape(ssml.RemoveIncompatibleCharacters(c.text))
	budget := ssml.MaxPayloadBytes(c.voice, c.rate, c.volume, c.pitch)

	chunks, err := splitTextByByteLength([]byte(cleaned), budget)
	if err != nil {
		return err
	}

	c.infof("[TTS] synthesizing %d chunk(s), voice %s", len(chunks), c.voice)
	eventbus.Publish(eventbus.EventSynthesisStarted, eventbus.SynthesisEventData{
		Voice:  c.voice,
		Chunks: len(chunks),
	})

	for i, chunk := range chunks {
		if err := c.synthesizeChunk(ctx, chunk, out); err != nil {
			return platformerrors.Wrap(platformerrors.KindUnknown, "stream",
				fmt.Sprintf("chunk %d/%d failed", i+1, len(chunks)), err)
		}
	}

	eventbus.Publish(eventbus.EventSynthesisCompleted, eventbus.SynthesisEventData{
		Voice:  c.voice,
		Chunks: len(chunks),
	})
	return nil
}

// synthesizeChunk runs one chunk over one channel. An authentication
// rejection whose skew correction succeeded is retried exactly once with a
// regenerated token; the channel is closed on every exit path.
func (c *Communicate) synthesizeChunk(ctx context.Context, chunk []byte, out chan<- Record) error {
	conn, err := c.openChannel(ctx)
	if err == errTokenRejected {
		c.warnf("[DRM] connection token rejected, skew %.0fs; reopening channel", drm.ClockSkew())
		conn, err = c.openChannel(ctx)
	}
	if err != nil {
		return err
	}
	defer conn.Close()

	return c.driveChannel(ctx, conn, chunk, out)
}

// openChannel dials the service through the reconnect policy.
func (c *Communicate) openChannel(ctx context.Context) (*websocket.Conn, error) {
	var conn *websocket.Conn
	policy := retry.NewPolicy(c.reconnect)
	result := policy.Execute(ctx, func(ctx context.Context) error {
		var err error
		conn, err = c.dial(ctx)
		return err
	})
	if result.Err != nil {
		return nil, result.Err
	}
	c.debugf("[WS] channel open after %d attempt(s)", result.Attempts)
	return conn, nil
}

// dial performs a single handshake with a fresh token and connection id.
func (c *Communicate) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout:  c.connectTimeout,
		EnableCompression: true,
		Subprotocols:      []string{"synthesize"},
	}
	if c.proxy != "" {
		proxyURL, err := url.Parse(c.proxy)
		if err != nil {
			return nil, retry.Permanent(platformerrors.Wrap(platformerrors.KindConfig, "dial",
				"invalid proxy url", err))
		}
		dialer.Proxy = http.ProxyURL(proxyURL)
	}

	endpoint := fmt.Sprintf("%s&Sec-MS-GEC=%s&Sec-MS-GEC-Version=%s&ConnectionId=%s",
		c.endpoint, drm.GenerateSecMSGEC(), SecMSGECVersion, protocol.ConnectID())

	conn, resp, err := dialer.DialContext(ctx, endpoint, HandshakeHeaders())
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusForbidden {
			if skewErr := drm.HandleHandshakeError(resp.Header); skewErr != nil {
				return nil, retry.Permanent(skewErr)
			}
			return nil, retry.Permanent(errTokenRejected)
		}
		return nil, platformerrors.Wrap(platformerrors.KindWebSocket, "dial",
			"websocket connect failed", err)
	}
	return conn, nil
}

// driveChannel runs the per-channel state machine: send the config and
// markup messages, then consume frames until turn.end.
func (c *Communicate) driveChannel(ctx context.Context, conn *websocket.Conn, chunk []byte, out chan<- Record) error {
	if err := c.sendSpeechConfig(conn); err != nil {
		return err
	}
	if err := c.sendSSML(conn, chunk); err != nil {
		return err
	}

	// Closing the connection on cancellation unblocks a pending read.
	watcherDone := make(chan struct{})
	defer close(watcherDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-watcherDone:
		}
	}()

	state := stateAwaitResponse
	audioReceived := false
	var lastDurationOffset int64

	for {
		if err := conn.SetReadDeadline(time.Now().Add(c.receiveTimeout)); err != nil {
			return platformerrors.Wrap(platformerrors.KindWebSocket, "recv", "set read deadline", err)
		}
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return platformerrors.Wrap(platformerrors.KindWebSocket, "recv", "stream cancelled", ctxErr)
			}
			return platformerrors.Wrap(platformerrors.KindWebSocket, "recv", "websocket receive failed", err)
		}

		switch msgType {
		case websocket.TextMessage:
			frame, err := protocol.DecodeTextFrame(data)
			if err != nil {
				return err
			}

			switch frame.Path() {
			case protocol.PathResponse:
				if state != stateAwaitResponse {
					return platformerrors.New(platformerrors.KindUnexpectedResponse, "recv",
						"response frame out of order")
				}
				state = stateAwaitTurnStart

			case protocol.PathTurnStart:
				if state != stateAwaitTurnStart {
					return platformerrors.New(platformerrors.KindUnexpectedResponse, "recv",
						"turn.start frame out of order")
				}
				state = stateStreaming

			case protocol.PathAudioMetadata:
				if state != stateStreaming {
					return platformerrors.New(platformerrors.KindUnexpectedResponse, "recv",
						"audio.metadata frame before turn.start")
				}
				if err := c.emitWordBoundaries(ctx, frame.Body, &lastDurationOffset, out); err != nil {
					return err
				}

			case protocol.PathTurnEnd:
				if state != stateStreaming {
					return platformerrors.New(platformerrors.KindUnexpectedResponse, "recv",
						"turn.end frame before turn.start")
				}
				if !audioReceived {
					return platformerrors.New(platformerrors.KindNoAudio, "recv",
						"no audio was received; verify that the voice and parameters are correct")
				}
				// Advance the job timeline past this chunk, allowing for
				// the trailing silence the service pads turns with.
				c.offsetCompensation += lastDurationOffset + chunkPadding
				return nil

			default:
				return platformerrors.New(platformerrors.KindUnknownResponse, "recv",
					fmt.Sprintf("unrecognized path %q", frame.Path()))
			}

		case websocket.BinaryMessage:
			frame, err := protocol.DecodeBinaryFrame(data)
			if err != nil {
				return err
			}
			if state != stateStreaming {
				return platformerrors.New(platformerrors.KindUnexpectedResponse, "recv",
					"binary frame before turn.start")
			}
			if frame.Path() != protocol.PathAudio {
				return platformerrors.New(platformerrors.KindUnknownResponse, "recv",
					fmt.Sprintf("unrecognized binary path %q", frame.Path()))
			}

			switch contentType := frame.ContentType(); {
			case contentType == "" && len(frame.Body) == 0:
				// bookkeeping frame, nothing to emit
			case contentType == "":
				return platformerrors.New(platformerrors.KindUnexpectedResponse, "recv",
					"audio frame carries a body but no content type")
			case contentType != "audio/mpeg":
				return platformerrors.New(platformerrors.KindUnexpectedResponse, "recv",
					fmt.Sprintf("unexpected audio content type %q", contentType))
			case len(frame.Body) == 0:
				return platformerrors.New(platformerrors.KindUnexpectedResponse, "recv",
					"audio frame with content type but no payload")
			default:
				audioReceived = true
				if err := c.emit(ctx, out, Record{Type: RecordAudio, Data: frame.Body}); err != nil {
					return err
				}
			}

		default:
			return platformerrors.New(platformerrors.KindUnexpectedResponse, "recv",
				fmt.Sprintf("unsupported websocket message type %d", msgType))
		}
	}
}

func (c *Communicate) sendSpeechConfig(conn *websocket.Conn) error {
	var cfg speechConfig
	cfg.Context.Synthesis.Audio.MetadataOptions.SentenceBoundaryEnabled = false
	cfg.Context.Synthesis.Audio.MetadataOptions.WordBoundaryEnabled = true
	cfg.Context.Synthesis.Audio.OutputFormat = OutputFormat

	body, err := sonic.MarshalString(&cfg)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindUnknown, "send", "marshal speech config", err)
	}

	msg := protocol.EncodeTextFrame([][2]string{
		{"Content-Type", "application/json; charset=utf-8"},
		{"Path", "speech.config"},
	}, body+"\r\n")

	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		return platformerrors.Wrap(platformerrors.KindWebSocket, "send", "send speech config", err)
	}
	return nil
}

func (c *Communicate) sendSSML(conn *websocket.Conn, chunk []byte) error {
	msg := ssml.HeadersPlusData(
		protocol.ConnectID(),
		protocol.DateToString(),
		ssml.Build(string(chunk), c.voice, c.rate, c.volume, c.pitch),
	)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		return platformerrors.Wrap(platformerrors.KindWebSocket, "send", "send ssml", err)
	}
	return nil
}

// emitWordBoundaries parses an audio.metadata body and emits one record
// per WordBoundary element, offset by the running compensation.
func (c *Communicate) emitWordBoundaries(ctx context.Context, body []byte, lastDurationOffset *int64, out chan<- Record) error {
	var payload metadataPayload
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return platformerrors.Wrap(platformerrors.KindUnexpectedResponse, "recv",
			"invalid metadata payload", err)
	}

	for _, meta := range payload.Metadata {
		switch meta.Type {
		case "WordBoundary":
			record := Record{
				Type:     RecordWordBoundary,
				Offset:   meta.Data.Offset + c.offsetCompensation,
				Duration: meta.Data.Duration,
				Text:     meta.Data.Text.Text,
			}
			if c.hook != nil {
				c.hook(record.Text, record.Offset, record.Duration)
			}
			if err := c.emit(ctx, out, record); err != nil {
				return err
			}
			*lastDurationOffset = meta.Data.Offset + meta.Data.Duration
		case "SessionEnd":
			// end-of-session marker, nothing to emit
		default:
			return platformerrors.New(platformerrors.KindUnknownResponse, "recv",
				fmt.Sprintf("unknown metadata type %q", meta.Type))
		}
	}
	return nil
}

func (c *Communicate) emit(ctx context.Context, out chan<- Record, record Record) error {
	select {
	case out <- record:
		return nil
	case <-ctx.Done():
		return platformerrors.Wrap(platformerrors.KindWebSocket, "emit", "stream cancelled", ctx.Err())
	}
}

func (c *Communicate) debugf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(format, args...)
	}
}

func (c *Communicate) infof(format string, args ...any) {
	if c.logger != nil {
		c.logger.Info(format, args...)
	}
}

func (c *Communicate) warnf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(format, args...)
	}
}
