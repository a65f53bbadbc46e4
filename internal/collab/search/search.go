// Package search opens web searches in the platform browser. The dispatcher
// wraps every failure into an apology; this package only reports it.
package search

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os/exec"
	"runtime"
)

// Engine identifies a supported search destination.
type Engine string

const (
	Google    Engine = "google"
	YouTube   Engine = "youtube"
	Wikipedia Engine = "wikipedia"
)

// Opener opens a URL in the user's browser. Split out so tests can capture
// the URL instead of launching anything.
type Opener interface {
	Open(ctx context.Context, url string) error
}

// ExecOpener launches the platform browser command.
type ExecOpener struct{}

// Open starts the platform-specific URL handler without waiting for it.
func (ExecOpener) Open(ctx context.Context, target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", target)
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", target)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", target)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("search: failed to open browser: %w", err)
	}
	return nil
}

// Client performs web searches.
type Client struct {
	opener Opener
	logger *log.Logger
}

// NewClient builds a search client. A nil opener selects the platform
// browser.
func NewClient(opener Opener, logger *log.Logger) *Client {
	if opener == nil {
		opener = ExecOpener{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{opener: opener, logger: logger}
}

// QueryURL returns the search results URL for the engine and query.
func QueryURL(engine Engine, query string) (string, error) {
	escaped := url.QueryEscape(query)
	switch engine {
	case Google:
		return "https://www.google.com/search?q=" + escaped, nil
	case YouTube:
		return "https://www.youtube.com/results?search_query=" + escaped, nil
	case Wikipedia:
		return "https://en.wikipedia.org/wiki/Special:Search?search=" + escaped, nil
	default:
		return "", fmt.Errorf("search: unsupported engine %q", engine)
	}
}

// Search opens the results page for query on the given engine.
func (c *Client) Search(ctx context.Context, engine Engine, query string) error {
	target, err := QueryURL(engine, query)
	if err != nil {
		return err
	}
	c.logger.Printf("search: opening %s for %q", engine, query)
	return c.opener.Open(ctx, target)
}
