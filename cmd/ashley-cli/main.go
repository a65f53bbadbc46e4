// Command ashley-cli is an interactive REPL over the assistant pipeline:
// typed commands stand in for speech recognition, responses print to stdout.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/scrypster/ashley/internal/assistant"
	"github.com/scrypster/ashley/internal/collab/alarm"
	"github.com/scrypster/ashley/internal/collab/appctl"
	"github.com/scrypster/ashley/internal/collab/search"
	"github.com/scrypster/ashley/internal/collab/weather"
	"github.com/scrypster/ashley/internal/config"
	"github.com/scrypster/ashley/internal/llm"
	"github.com/scrypster/ashley/internal/nlp"
	"github.com/scrypster/ashley/internal/rag"
	"github.com/scrypster/ashley/internal/session"
	"github.com/scrypster/ashley/internal/speech"
	"github.com/scrypster/ashley/internal/storage/sqlite"
	"github.com/scrypster/ashley/pkg/types"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	store, err := sqlite.New(filepath.Join(cfg.Storage.DataPath, "ashley.db"))
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	cfg, err = config.LoadConfigFromDB(store.DB())
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ctrl+C ends the session cleanly instead of killing the process mid-turn.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	sessions := session.NewManager(store, cfg.Storage.MaxHistory, nil)
	alarms := alarm.NewStore(store.DB())
	ashley, err := buildAssistant(cfg, sessions, alarms)
	if err != nil {
		log.Fatalf("Failed to assemble assistant: %v", err)
	}

	// Due alarms print into the REPL.
	watcher := alarm.NewWatcher(alarms, 0, func(a alarm.Alarm) {
		fmt.Printf("\nALARM! %s\n> ", a.Label)
	}, nil)
	go watcher.Run(ctx)

	fmt.Printf("Hello! I'm %s, your AI assistant.\n", cfg.User.AssistantName)
	repl(ctx, ashley)
}

func repl(ctx context.Context, ashley *assistant.Assistant) {
	listener := speech.NewStdinListener(os.Stdin)
	sessionID := session.EnsureID("")

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nGoodbye!")
			return
		default:
		}

		fmt.Print("> ")
		line, err := listener.Listen(ctx, 0)
		if err != nil {
			if err == io.EOF {
				fmt.Println("\nGoodbye!")
				return
			}
			log.Printf("read failed: %v", err)
			return
		}
		if line == "" {
			continue
		}

		result, err := ashley.HandleCommand(ctx, assistant.Command{
			SessionID:  sessionID,
			Text:       line,
			UseContext: true,
		})
		if err != nil {
			log.Printf("command failed: %v", err)
			continue
		}

		fmt.Println(result.Response)
		if result.Intent == types.IntentExit {
			return
		}
	}
}

// buildAssistant wires the NLP pipeline and collaborators for local use.
func buildAssistant(cfg *config.Config, sessions *session.Manager, alarms *alarm.Store) (*assistant.Assistant, error) {
	catalog, err := config.LoadIntentCatalog(cfg.NLP.IntentsPath)
	if err != nil {
		return nil, err
	}

	var secondary nlp.ZeroShot
	if cfg.NLP.ZeroShotURL != "" {
		secondary = llm.NewHTTPZeroShot(llm.ZeroShotConfig{
			URL:    cfg.NLP.ZeroShotURL,
			APIKey: cfg.NLP.ZeroShotAPIKey,
		})
	}

	extractor := nlp.NewExtractor(nlp.NewGazetteerTagger())
	classifier := nlp.NewClassifier(catalog, extractor, secondary, nil)
	resolver := nlp.NewResolver(classifier, types.DefaultFollowUpTable())

	kb, err := rag.Load(cfg.NLP.KnowledgePath)
	if err != nil {
		return nil, err
	}
	var gen rag.Generator
	if cfg.Fallback.APIKey != "" {
		gen = llm.NewOpenRouterClient(llm.OpenRouterConfig{
			APIKey:  cfg.Fallback.APIKey,
			Model:   cfg.Fallback.Model,
			BaseURL: cfg.Fallback.BaseURL,
		})
	}
	answerer := rag.NewAnswerer(kb, gen, nil)

	appCatalog, err := appctl.LoadCatalog(cfg.NLP.AppsPath)
	if err != nil {
		return nil, err
	}

	dispatcher := assistant.NewDispatcher(assistant.Deps{
		Search: search.NewClient(search.ExecOpener{}, nil),
		Weather: weather.NewClient(weather.Config{
			APIKey:      cfg.Collab.WeatherAPIKey,
			DefaultCity: cfg.Collab.DefaultCity,
		}, nil),
		Apps:          appctl.NewController(appCatalog, appctl.ExecRunner{}, nil),
		Alarms:        alarms,
		Volume:        assistant.ExecVolume{},
		Fallback:      answerer,
		AssistantName: cfg.User.AssistantName,
	})

	// The REPL prints responses itself; no TTS.
	return assistant.New(resolver, sessions, dispatcher, speech.NewNopSpeaker(log.New(io.Discard, "", 0)), nil), nil
}
