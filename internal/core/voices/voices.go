// Package voices retrieves and filters the service's voice catalog.
package voices

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"edge-speech-go/internal/core/communicate"
	"edge-speech-go/internal/core/drm"
	platformerrors "edge-speech-go/internal/platform/errors"
)

// ListURL is the voice catalog endpoint, token pair appended per request.
const ListURL = "https://" + communicate.BaseURL + "/voices/list?trustedclienttoken=" + drm.TrustedClientToken

// VoiceTag carries the service's voice classification labels.
type VoiceTag struct {
	ContentCategories  []string `json:"ContentCategories"`
	VoicePersonalities []string `json:"VoicePersonalities"`
}

// Voice is one catalog entry. Language is derived from Locale locally.
type Voice struct {
	Name           string   `json:"Name"`
	ShortName      string   `json:"ShortName"`
	Gender         string   `json:"Gender"`
	Locale         string   `json:"Locale"`
	SuggestedCodec string   `json:"SuggestedCodec"`
	FriendlyName   string   `json:"FriendlyName"`
	Status         string   `json:"Status"`
	VoiceTag       VoiceTag `json:"VoiceTag"`
	Language       string   `json:"-"`
}

// Client fetches the voice catalog.
type Client struct {
	httpClient *http.Client
	listURL    string
	proxy      string
}

type ClientOption func(*Client)

// WithProxy routes catalog requests through the given proxy URL.
func WithProxy(proxy string) ClientOption {
	return func(c *Client) { c.proxy = proxy }
}

// WithListURL overrides the catalog endpoint (useful for tests).
func WithListURL(u string) ClientOption {
	return func(c *Client) { c.listURL = u }
}

func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		listURL:    ListURL,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.proxy != "" {
		proxyURL, err := url.Parse(c.proxy)
		if err != nil {
			return nil, platformerrors.Wrap(platformerrors.KindConfig, "voices", "invalid proxy url", err)
		}
		c.httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}
	return c, nil
}

// List fetches all available voices. A 403 adjusts the clock skew from the
// server date and retries once with a regenerated token.
func (c *Client) List(ctx context.Context) ([]Voice, error) {
	voices, err := c.fetch(ctx)
	if err != nil && platformerrors.IsKind(err, platformerrors.KindDRM) {
		voices, err = c.fetch(ctx)
	}
	return voices, err
}

func (c *Client) fetch(ctx context.Context) ([]Voice, error) {
	endpoint := fmt.Sprintf("%s&Sec-MS-GEC=%s&Sec-MS-GEC-Version=%s",
		c.listURL, drm.GenerateSecMSGEC(), communicate.SecMSGECVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindConfig, "voices", "build request", err)
	}
	req.Header.Set("User-Agent", communicate.UserAgent)
	req.Header.Set("Accept", "*/*")
	// Accept-Encoding is left to the transport so responses are
	// decompressed transparently.
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Authority", "speech.platform.bing.com")
	req.Header.Set("Sec-CH-UA", fmt.Sprintf(
		`" Not;A Brand";v="99", "Microsoft Edge";v=%q, "Chromium";v=%q`,
		communicate.ChromiumMajorVersion, communicate.ChromiumMajorVersion))
	req.Header.Set("Sec-CH-UA-Mobile", "?0")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Dest", "empty")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindWebSocket, "voices", "voice list request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		if skewErr := drm.HandleHandshakeError(resp.Header); skewErr != nil {
			return nil, skewErr
		}
		return nil, platformerrors.New(platformerrors.KindDRM, "voices",
			"service rejected the voice list token")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, platformerrors.New(platformerrors.KindUnexpectedResponse, "voices",
			fmt.Sprintf("voice list returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindUnexpectedResponse, "voices", "read voice list", err)
	}

	var voices []Voice
	if err := sonic.Unmarshal(body, &voices); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindUnexpectedResponse, "voices", "parse voice list", err)
	}

	for i := range voices {
		voices[i].Language = strings.SplitN(voices[i].Locale, "-", 2)[0]
	}
	return voices, nil
}

// Filter selects voices by attribute; empty fields match everything.
type Filter struct {
	Gender   string
	Locale   string
	Language string
}

// Manager holds a fetched catalog and answers attribute queries.
type Manager struct {
	voices []Voice
}

// NewManager creates a Manager over an already fetched catalog.
func NewManager(voices []Voice) *Manager {
	return &Manager{voices: voices}
}

// CreateManager fetches the catalog and wraps it in a Manager.
func CreateManager(ctx context.Context, client *Client) (*Manager, error) {
	voices, err := client.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewManager(voices), nil
}

// Find returns all voices matching the filter.
func (m *Manager) Find(filter Filter) []Voice {
	var matches []Voice
	for _, voice := range m.voices {
		if filter.Gender != "" && voice.Gender != filter.Gender {
			continue
		}
		if filter.Locale != "" && voice.Locale != filter.Locale {
			continue
		}
		if filter.Language != "" && voice.Language != filter.Language {
			continue
		}
		matches = append(matches, voice)
	}
	return matches
}
