// Package communicate drives one synthesis job against the Edge speech
// service: it chunks the input text, opens one websocket channel per
// chunk, runs the request/response exchange, and streams audio and word
// boundary records with a continuous timeline.
package communicate

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"edge-speech-go/internal/core/retry"
	platformerrors "edge-speech-go/internal/platform/errors"
	"edge-speech-go/internal/platform/logging"
)

var (
	shortVoicePattern = regexp.MustCompile(`^([a-z]{2,})-([A-Z]{2,})-(.+Neural)$`)
	fullVoicePattern  = regexp.MustCompile(`^Microsoft Server Speech Text to Speech Voice \(.+,.+\)$`)
	ratePattern       = regexp.MustCompile(`^[+-]\d+%$`)
	volumePattern     = regexp.MustCompile(`^[+-]\d+%$`)
	pitchPattern      = regexp.MustCompile(`^[+-]\d+Hz$`)
)

// Communicate is one synthesis job. Its output stream may be consumed at
// most once.
type Communicate struct {
	text   string
	voice  string
	rate   string
	volume string
	pitch  string

	proxy          string
	connectTimeout time.Duration
	receiveTimeout time.Duration
	reconnect      retry.Config
	hook           WordBoundaryHook
	logger         *logging.Logger

	// endpoint is overridden in tests.
	endpoint string

	mu                 sync.Mutex
	streamConsumed     bool
	offsetCompensation int64
}

// Option customizes a synthesis job.
type Option func(*Communicate)

func WithVoice(voice string) Option {
	return func(c *Communicate) { c.voice = voice }
}

// WithRate sets the speaking rate expression, e.g. "+10%".
func WithRate(rate string) Option {
	return func(c *Communicate) { c.rate = rate }
}

// WithVolume sets the volume expression, e.g. "-20%".
func WithVolume(volume string) Option {
	return func(c *Communicate) { c.volume = volume }
}

// WithPitch sets the pitch expression, e.g. "+5Hz".
func WithPitch(pitch string) Option {
	return func(c *Communicate) { c.pitch = pitch }
}

// WithProxy routes the websocket through the given proxy URL.
func WithProxy(proxy string) Option {
	return func(c *Communicate) { c.proxy = proxy }
}

func WithConnectTimeout(d time.Duration) Option {
	return func(c *Communicate) { c.connectTimeout = d }
}

func WithReceiveTimeout(d time.Duration) Option {
	return func(c *Communicate) { c.receiveTimeout = d }
}

// WithReconnectConfig overrides the backoff parameters used when opening
// channels.
func WithReconnectConfig(cfg retry.Config) Option {
	return func(c *Communicate) { c.reconnect = cfg }
}

// WithWordBoundaryHook registers a callback invoked for every word
// boundary record, e.g. a subtitle maker.
func WithWordBoundaryHook(hook WordBoundaryHook) Option {
	return func(c *Communicate) { c.hook = hook }
}

func WithLogger(logger *logging.Logger) Option {
	return func(c *Communicate) { c.logger = logger }
}

// New validates the parameters and creates a synthesis job.
func New(text string, opts ...Option) (*Communicate, error) {
	c := &Communicate{
		text:           text,
		voice:          DefaultVoice,
		rate:           "+0%",
		volume:         "+0%",
		pitch:          "+0Hz",
		connectTimeout: 10 * time.Second,
		receiveTimeout: 60 * time.Second,
		reconnect:      retry.DefaultConfig(),
		endpoint:       WSSURL,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.voice == "" {
		return nil, platformerrors.New(platformerrors.KindConfig, "new", "voice must not be empty")
	}

	// Short names like en-US-AriaNeural are expanded to the full form the
	// browser sends. Multi-part region suffixes fold into the region.
	if m := shortVoicePattern.FindStringSubmatch(c.voice); m != nil {
		lang, region, name := m[1], m[2], m[3]
		if idx := strings.IndexByte(name, '-'); idx != -1 {
			region = region + "-" + name[:idx]
			name = name[idx+1:]
		}
		c.voice = fmt.Sprintf("Microsoft Server Speech Text to Speech Voice (%s-%s, %s)", lang, region, name)
	}

	if !fullVoicePattern.MatchString(c.voice) {
		return nil, platformerrors.New(platformerrors.KindConfig, "new",
			fmt.Sprintf("invalid voice %q", c.voice))
	}
	if !ratePattern.MatchString(c.rate) {
		return nil, platformerrors.New(platformerrors.KindConfig, "new",
			fmt.Sprintf("invalid rate %q", c.rate))
	}
	if !volumePattern.MatchString(c.volume) {
		return nil, platformerrors.New(platformerrors.KindConfig, "new",
			fmt.Sprintf("invalid volume %q", c.volume))
	}
	if !pitchPattern.MatchString(c.pitch) {
		return nil, platformerrors.New(platformerrors.KindConfig, "new",
			fmt.Sprintf("invalid pitch %q", c.pitch))
	}

	return c, nil
}

// Voice returns the normalized voice name the job will send.
func (c *Communicate) Voice() string {
	return c.voice
}

func (c *Communicate) markConsumed() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.streamConsumed {
		return platformerrors.New(platformerrors.KindConfig, "stream",
			"stream may only be consumed once per job")
	}
	c.streamConsumed = true
	return nil
}
