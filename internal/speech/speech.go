// Package speech defines the voice I/O boundary. The assistant core only
// depends on the Speaker and Listener interfaces; audio processing itself is
// out of scope and delegated to external services.
package speech

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// SpeakOptions carries optional synthesis parameters.
type SpeakOptions struct {
	Voice   string `json:"voice,omitempty"`
	UseSSML bool   `json:"use_ssml,omitempty"`
}

// Speaker voices a response. Implementations must respect ctx and never
// block indefinitely.
type Speaker interface {
	Speak(ctx context.Context, text string, opts SpeakOptions) error
}

// Listener captures one utterance of user input. Returns an empty string
// (not an error) on timeout or unrecognized speech.
type Listener interface {
	Listen(ctx context.Context, timeout time.Duration) (string, error)
}

// HTTPSpeaker posts text to an external TTS endpoint.
type HTTPSpeaker struct {
	endpoint string
	client   *http.Client
}

// NewHTTPSpeaker builds a speaker for the given TTS endpoint.
func NewHTTPSpeaker(endpoint string, timeout time.Duration) *HTTPSpeaker {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &HTTPSpeaker{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Speak sends text to the TTS service; the service plays the audio.
func (s *HTTPSpeaker) Speak(ctx context.Context, text string, opts SpeakOptions) error {
	body, err := json.Marshal(struct {
		Text string `json:"text"`
		SpeakOptions
	}{Text: text, SpeakOptions: opts})
	if err != nil {
		return fmt.Errorf("speech: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("speech: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("speech: tts request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("speech: tts returned status %d", resp.StatusCode)
	}
	return nil
}

// NopSpeaker logs instead of speaking. Used when no TTS endpoint is
// configured.
type NopSpeaker struct {
	logger *log.Logger
}

// NewNopSpeaker builds a logging speaker.
func NewNopSpeaker(logger *log.Logger) *NopSpeaker {
	if logger == nil {
		logger = log.Default()
	}
	return &NopSpeaker{logger: logger}
}

// Speak logs the text and returns.
func (s *NopSpeaker) Speak(_ context.Context, text string, _ SpeakOptions) error {
	s.logger.Printf("speak: %s", text)
	return nil
}

// StdinListener reads typed commands, one per line. The CLI's stand-in for
// speech recognition.
type StdinListener struct {
	reader *bufio.Reader
}

// NewStdinListener wraps r (typically os.Stdin).
func NewStdinListener(r io.Reader) *StdinListener {
	return &StdinListener{reader: bufio.NewReader(r)}
}

// Listen reads one line. EOF yields an empty string and io.EOF; the timeout
// is ignored because typed input has no recognition window.
func (l *StdinListener) Listen(_ context.Context, _ time.Duration) (string, error) {
	line, err := l.reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil {
		if err == io.EOF && line != "" {
			return line, nil
		}
		return "", err
	}
	return line, nil
}

// Compile-time assertions.
var (
	_ Speaker  = (*HTTPSpeaker)(nil)
	_ Speaker  = (*NopSpeaker)(nil)
	_ Listener = (*StdinListener)(nil)
)
