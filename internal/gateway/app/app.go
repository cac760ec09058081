package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"ucraft/internal/archive"
	"ucraft/internal/assets"
	"ucraft/internal/chat"
	"ucraft/internal/gateway/config"
	"ucraft/internal/gateway/handler"
	"ucraft/internal/gateway/server"
	"ucraft/internal/gateway/session"
	"ucraft/internal/leads"
	"ucraft/internal/llm"
	"ucraft/internal/preview"
	"ucraft/internal/recordstore"
)

const archivePutTimeout = 30 * time.Second

// App owns every long-lived component of the gateway and tears them down in
// reverse order on Shutdown.
type App struct {
	cfg      *config.Config
	client   llm.Client
	store    recordstore.Store
	registry *session.Registry
	server   *server.Server
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := newRecordStore(ctx, cfg.Store)
	if err != nil {
		client.Close()
		return nil, err
	}

	fetcher, err := assets.NewFetcher()
	if err != nil {
		client.Close()
		store.Close()
		return nil, fmt.Errorf("init reference fetcher: %w", err)
	}

	var archiveStore *archive.S3Store
	if cfg.Archive.Enabled {
		archiveStore, err = archive.NewS3Store(archive.S3Config{
			Endpoint:  cfg.Archive.Endpoint,
			Region:    cfg.Archive.Region,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			Bucket:    cfg.Archive.Bucket,
			UseSSL:    cfg.Archive.UseSSL,
		})
		if err != nil {
			client.Close()
			store.Close()
			return nil, fmt.Errorf("init archive store: %w", err)
		}
	}

	factory := func(id string) (*preview.Session, *chat.Session) {
		opts := []preview.SessionOption{
			preview.WithFetcher(fetcher),
			preview.WithNotify(func(ev preview.Event) {
				if ev.State == preview.StateSuccess && ev.Item != nil {
					log.Printf("preview result ready: session=%s seq=%d", id, ev.Item.Seq)
				}
			}),
		}
		if archiveStore != nil {
			opts = append(opts, preview.WithArchiver(archiver(archiveStore, id)))
		}
		return preview.NewSession(client, opts...), chat.NewSession(client)
	}
	registry := session.NewRegistry(cfg.SessionTTL, factory)

	leadsSvc := leads.NewService(store)

	router := server.NewRouter(server.Handlers{
		Sessions: handler.NewSessionHandler(registry),
		Preview:  handler.NewPreviewHandler(registry, cfg.RequestTimeout),
		Chat:     handler.NewChatHandler(registry, cfg.RequestTimeout),
		Proxy:    handler.NewProxyHandler(cfg.GeminiAPIKey, ""),
		Leads:    handler.NewLeadsHandler(leadsSvc, cfg.AdminSecret),
	})

	return &App{
		cfg:      cfg,
		client:   client,
		store:    store,
		registry: registry,
		server:   server.New(cfg.Port, router),
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	a.registry.Close()
	if cerr := a.store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if cerr := a.client.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func newLLMClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	if cfg.GeminiAPIKey == "" {
		log.Printf("GEMINI_API_KEY is not set, AI features disabled")
		return llm.Disabled{}, nil
	}
	client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}
	return client, nil
}

func newRecordStore(ctx context.Context, cfg config.StoreConfig) (recordstore.Store, error) {
	switch cfg.Backend {
	case "postgres":
		store, err := recordstore.NewPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("init postgres record store: %w", err)
		}
		return store, nil
	case "redis":
		store, err := recordstore.NewRedis(ctx, recordstore.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("init redis record store: %w", err)
		}
		return store, nil
	case "memory":
		return recordstore.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown record store backend %q", cfg.Backend)
	}
}

func archiver(store *archive.S3Store, sessionID string) preview.Archiver {
	return func(item preview.HistoryItem) {
		ctx, cancel := context.WithTimeout(context.Background(), archivePutTimeout)
		defer cancel()
		if err := store.Put(ctx, sessionID, item.ID, item.Image.Data, item.Image.MIMEType); err != nil {
			log.Printf("archive preview %s/%s failed: %v", sessionID, item.ID, err)
		}
	}
}
