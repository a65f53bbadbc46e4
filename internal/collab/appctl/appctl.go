// Package appctl opens and closes desktop applications by spoken name,
// resolving names through a catalog, synonyms, fuzzy matching, and the
// system PATH, in that priority order.
package appctl

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/scrypster/ashley/internal/nlp"
)

// fuzzyCutoff is the minimum sequence similarity for a fuzzy catalog match.
const fuzzyCutoff = 0.6

// Runner executes process start/kill commands. Split out so tests can
// record commands instead of touching real processes.
type Runner interface {
	Start(ctx context.Context, name string, args ...string) error
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs real commands.
type ExecRunner struct{}

// Start launches a command without waiting for it to finish.
func (ExecRunner) Start(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Start()
}

// Run executes a command and waits for completion.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// Controller resolves application names and controls their processes.
type Controller struct {
	catalog *Catalog
	runner  Runner
	logger  *log.Logger

	// lookPath and pathDirs are swappable for tests
	lookPath func(string) (string, error)
	pathDirs func() []string
}

// NewController builds a controller over the given catalog. A nil runner
// selects real process execution.
func NewController(catalog *Catalog, runner Runner, logger *log.Logger) *Controller {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		catalog:  catalog,
		runner:   runner,
		logger:   logger,
		lookPath: exec.LookPath,
		pathDirs: func() []string {
			return filepath.SplitList(os.Getenv("PATH"))
		},
	}
}

// Resolve maps a spoken name to an executable target. The chain is:
// exact catalog match, synonym match, fuzzy match against catalog and
// synonym keys (similarity >= 0.6, best match wins), direct PATH lookup,
// then a shallow scan of PATH directories for a prefix match.
func (c *Controller) Resolve(name string) (string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", false
	}

	if target, ok := c.catalog.Apps[name]; ok {
		return target, true
	}
	if app, ok := c.catalog.Synonyms[name]; ok {
		if target, ok := c.catalog.Apps[app]; ok {
			return target, true
		}
		return app, true
	}

	if match, ok := c.fuzzyMatch(name); ok {
		return match, true
	}

	if path, err := c.lookPath(name); err == nil {
		return path, true
	}

	if target, ok := c.scanPath(name); ok {
		return target, true
	}

	return "", false
}

// fuzzyMatch finds the catalog or synonym key most similar to name.
func (c *Controller) fuzzyMatch(name string) (string, bool) {
	bestKey := ""
	bestScore := 0.0
	consider := func(key string) {
		score := nlp.SequenceRatio(name, key)
		if score < fuzzyCutoff {
			return
		}
		// ties resolve lexicographically so map order never leaks out
		if score > bestScore || (score == bestScore && key < bestKey) {
			bestKey = key
			bestScore = score
		}
	}
	for key := range c.catalog.Apps {
		consider(key)
	}
	for key := range c.catalog.Synonyms {
		consider(key)
	}
	if bestKey == "" {
		return "", false
	}
	if app, ok := c.catalog.Synonyms[bestKey]; ok {
		bestKey = app
	}
	if target, ok := c.catalog.Apps[bestKey]; ok {
		return target, true
	}
	return bestKey, true
}

// scanPath looks for an executable whose name starts with the spoken name
// in the top level of each PATH directory.
func (c *Controller) scanPath(name string) (string, bool) {
	for _, dir := range c.pathDirs() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			base := strings.ToLower(e.Name())
			if strings.HasPrefix(base, name) {
				return filepath.Join(dir, e.Name()), true
			}
		}
	}
	return "", false
}

// Open resolves name and launches it.
func (c *Controller) Open(ctx context.Context, name string) error {
	target, ok := c.Resolve(name)
	if !ok {
		return fmt.Errorf("appctl: no application matching %q", name)
	}
	c.logger.Printf("appctl: opening %s (%s)", name, target)
	if err := c.runner.Start(ctx, target); err != nil {
		return fmt.Errorf("appctl: failed to open %s: %w", name, err)
	}
	return nil
}

// Close resolves name and terminates its processes.
func (c *Controller) Close(ctx context.Context, name string) error {
	target, ok := c.Resolve(name)
	if !ok {
		return fmt.Errorf("appctl: no application matching %q", name)
	}
	base := filepath.Base(target)
	c.logger.Printf("appctl: closing %s (%s)", name, base)

	var err error
	if runtime.GOOS == "windows" {
		err = c.runner.Run(ctx, "taskkill", "/f", "/im", base+".exe")
	} else {
		err = c.runner.Run(ctx, "pkill", "-f", base)
	}
	if err != nil {
		return fmt.Errorf("appctl: failed to close %s: %w", name, err)
	}
	return nil
}
