package appctl

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog maps spoken application names to executable targets, plus a
// synonym layer mapping colloquial names onto catalog entries.
type Catalog struct {
	Apps     map[string]string `yaml:"apps"`
	Synonyms map[string]string `yaml:"synonyms"`
}

// DefaultCatalog returns the built-in application catalog.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Apps: map[string]string{
			// browsers
			"chrome":  "google-chrome",
			"firefox": "firefox",
			"edge":    "msedge",
			"opera":   "opera",

			// editors and dev tools
			"vscode":   "code",
			"notepad":  "notepad",
			"sublime":  "subl",
			"vim":      "vim",
			"terminal": "x-terminal-emulator",

			// media and communication
			"vlc":      "vlc",
			"spotify":  "spotify",
			"discord":  "discord",
			"slack":    "slack",
			"zoom":     "zoom",
			"telegram": "telegram-desktop",

			// utilities
			"calculator":    "gnome-calculator",
			"file explorer": "nautilus",
			"settings":      "gnome-control-center",
			"steam":         "steam",
		},
		Synonyms: map[string]string{
			"browser":      "chrome",
			"web browser":  "chrome",
			"internet":     "chrome",
			"code editor":  "vscode",
			"editor":       "vscode",
			"ide":          "vscode",
			"text editor":  "notepad",
			"music":        "spotify",
			"video":        "vlc",
			"movies":       "vlc",
			"chat":         "discord",
			"messaging":    "discord",
			"video call":   "zoom",
			"meeting":      "zoom",
			"files":        "file explorer",
			"explorer":     "file explorer",
			"my computer":  "file explorer",
			"preferences":  "settings",
			"config":       "settings",
			"command line": "terminal",
			"shell":        "terminal",
			"games":        "steam",
			"gaming":       "steam",
		},
	}
}

// LoadCatalog returns the app catalog. An empty path selects the built-in
// default; otherwise the YAML file at path is loaded and validated.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("appctl: failed to read app catalog: %w", err)
	}

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("appctl: failed to parse app catalog: %w", err)
	}
	if len(cat.Apps) == 0 {
		return nil, fmt.Errorf("appctl: app catalog %s defines no apps", path)
	}
	for syn, target := range cat.Synonyms {
		if _, ok := cat.Apps[target]; !ok {
			return nil, fmt.Errorf("appctl: synonym %q points at unknown app %q", syn, target)
		}
	}
	return &cat, nil
}
