package appctl

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	started []string
	ran     [][]string
	err     error
}

func (f *fakeRunner) Start(_ context.Context, name string, _ ...string) error {
	f.started = append(f.started, name)
	return f.err
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	f.ran = append(f.ran, append([]string{name}, args...))
	return f.err
}

func newTestController(runner Runner) *Controller {
	c := NewController(DefaultCatalog(), runner, nil)
	c.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	c.pathDirs = func() []string { return nil }
	return c
}

func TestResolveExactMatch(t *testing.T) {
	c := newTestController(nil)

	target, ok := c.Resolve("chrome")
	require.True(t, ok)
	assert.Equal(t, "google-chrome", target)
}

func TestResolveSynonym(t *testing.T) {
	c := newTestController(nil)

	target, ok := c.Resolve("browser")
	require.True(t, ok)
	assert.Equal(t, "google-chrome", target)

	target, ok = c.Resolve("music")
	require.True(t, ok)
	assert.Equal(t, "spotify", target)
}

func TestResolveFuzzyAboveCutoff(t *testing.T) {
	c := newTestController(nil)

	// misspelling within the similarity cutoff
	target, ok := c.Resolve("chrme")
	require.True(t, ok)
	assert.Equal(t, "google-chrome", target)

	target, ok = c.Resolve("spotfy")
	require.True(t, ok)
	assert.Equal(t, "spotify", target)
}

func TestResolveFuzzyBelowCutoffMisses(t *testing.T) {
	c := newTestController(nil)

	_, ok := c.Resolve("qqqqqq")
	assert.False(t, ok)
}

func TestResolveFallsBackToLookPath(t *testing.T) {
	c := newTestController(nil)
	c.lookPath = func(name string) (string, error) {
		if name == "htop" {
			return "/usr/bin/htop", nil
		}
		return "", errors.New("not found")
	}

	target, ok := c.Resolve("htop")
	require.True(t, ok)
	assert.Equal(t, "/usr/bin/htop", target)
}

func TestResolveEmptyName(t *testing.T) {
	c := newTestController(nil)

	_, ok := c.Resolve("")
	assert.False(t, ok)
}

func TestOpenLaunchesResolvedTarget(t *testing.T) {
	runner := &fakeRunner{}
	c := newTestController(runner)

	require.NoError(t, c.Open(context.Background(), "chrome"))
	assert.Equal(t, []string{"google-chrome"}, runner.started)
}

func TestOpenUnknownApp(t *testing.T) {
	runner := &fakeRunner{}
	c := newTestController(runner)

	err := c.Open(context.Background(), "qqqqqq")
	require.Error(t, err)
	assert.Empty(t, runner.started)
}

func TestCloseUsesProcessKill(t *testing.T) {
	runner := &fakeRunner{}
	c := newTestController(runner)

	require.NoError(t, c.Close(context.Background(), "spotify"))
	require.Len(t, runner.ran, 1)
	assert.Contains(t, runner.ran[0], "spotify")
}

func TestOpenPropagatesRunnerFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exec format error")}
	c := newTestController(runner)

	err := c.Open(context.Background(), "chrome")
	assert.Error(t, err)
}

func TestLoadCatalogDefault(t *testing.T) {
	cat, err := LoadCatalog("")
	require.NoError(t, err)
	assert.NotEmpty(t, cat.Apps)
	assert.NotEmpty(t, cat.Synonyms)
}
