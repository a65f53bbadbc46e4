package speech

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSpeakerPostsText(t *testing.T) {
	var got struct {
		Text  string `json:"text"`
		Voice string `json:"voice"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewHTTPSpeaker(srv.URL, 0)
	err := s.Speak(context.Background(), "hello sir", SpeakOptions{Voice: "en-GB"})
	require.NoError(t, err)
	assert.Equal(t, "hello sir", got.Text)
	assert.Equal(t, "en-GB", got.Voice)
}

func TestHTTPSpeakerNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewHTTPSpeaker(srv.URL, 0)
	err := s.Speak(context.Background(), "hello", SpeakOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestNopSpeakerNeverFails(t *testing.T) {
	s := NewNopSpeaker(nil)
	assert.NoError(t, s.Speak(context.Background(), "anything", SpeakOptions{}))
}

func TestStdinListenerReadsLines(t *testing.T) {
	l := NewStdinListener(strings.NewReader("  open chrome  \nwhat time is it\n"))

	got, err := l.Listen(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "open chrome", got)

	got, err = l.Listen(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "what time is it", got)

	_, err = l.Listen(context.Background(), 0)
	assert.ErrorIs(t, err, io.EOF)
}

func TestStdinListenerFinalLineWithoutNewline(t *testing.T) {
	l := NewStdinListener(strings.NewReader("goodbye"))

	got, err := l.Listen(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "goodbye", got)
}
