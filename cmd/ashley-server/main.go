package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/scrypster/ashley/internal/assistant"
	"github.com/scrypster/ashley/internal/collab/alarm"
	"github.com/scrypster/ashley/internal/collab/appctl"
	"github.com/scrypster/ashley/internal/collab/search"
	"github.com/scrypster/ashley/internal/collab/weather"
	"github.com/scrypster/ashley/internal/config"
	"github.com/scrypster/ashley/internal/llm"
	"github.com/scrypster/ashley/internal/nlp"
	"github.com/scrypster/ashley/internal/rag"
	"github.com/scrypster/ashley/internal/server"
	"github.com/scrypster/ashley/internal/session"
	"github.com/scrypster/ashley/internal/speech"
	"github.com/scrypster/ashley/internal/storage"
	"github.com/scrypster/ashley/internal/storage/postgres"
	"github.com/scrypster/ashley/internal/storage/sqlite"
	"github.com/scrypster/ashley/pkg/types"
)

func main() {
	// Bootstrap config from the environment; user settings are re-read from
	// the database once it is open.
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// The local sqlite database always exists: it carries settings and
	// alarms even when conversations go to postgres.
	local, err := sqlite.New(filepath.Join(cfg.Storage.DataPath, "ashley.db"))
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer local.Close()

	cfg, err = config.LoadConfigFromDB(local.DB())
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	var store storage.ConversationStore = local
	if cfg.Storage.StorageEngine == "postgres" {
		pg, err := postgres.New(cfg.Storage.PostgresDSN)
		if err != nil {
			log.Fatalf("Failed to connect to postgres: %v", err)
		}
		defer pg.Close()
		store = pg
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions := session.NewManager(store, cfg.Storage.MaxHistory, nil)
	alarms := alarm.NewStore(local.DB())
	speaker := buildSpeaker(cfg)

	ashley, err := buildAssistant(cfg, sessions, alarms, speaker)
	if err != nil {
		log.Fatalf("Failed to assemble assistant: %v", err)
	}

	addr, wsHub := server.Start(ctx, cfg, ashley, store, sessions)
	log.Printf("Ashley API running at http://%s", addr)

	// Alarm watcher: speak and broadcast each due alarm.
	watcher := alarm.NewWatcher(alarms, 0, func(a alarm.Alarm) {
		wsHub.BroadcastAlarm(a.Label, a.FireAt)
		if err := speaker.Speak(ctx, "ALARM! "+a.Label, speech.SpeakOptions{}); err != nil {
			log.Printf("Failed to speak alarm: %v", err)
		}
	}, nil)
	go watcher.Run(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(1 * time.Second) // Give time for connections to close
}

// buildAssistant wires the NLP pipeline, collaborators, and dispatcher.
func buildAssistant(cfg *config.Config, sessions *session.Manager, alarms *alarm.Store, speaker speech.Speaker) (*assistant.Assistant, error) {
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

	return assistant.New(resolver, sessions, dispatcher, speaker, nil), nil
}

func buildSpeaker(cfg *config.Config) speech.Speaker {
	if cfg.Collab.TTSEndpoint != "" {
		return speech.NewHTTPSpeaker(cfg.Collab.TTSEndpoint, 0)
	}
	return speech.NewNopSpeaker(nil)
}
