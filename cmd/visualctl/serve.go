package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"
	"go.uber.org/zap"

	"github.com/goliatone/go-visualsync/components/dashboard"
	"github.com/goliatone/go-visualsync/components/dashboard/commands"
	"github.com/goliatone/go-visualsync/components/dashboard/gorouter"
	"github.com/goliatone/go-visualsync/components/dashboard/httpapi"
	"github.com/goliatone/go-visualsync/components/dashboard/queries"
	"github.com/goliatone/go-visualsync/pkg/layoutapi"
)

type serveCmd struct {
	Addr        string        `default:":9876" help:"Listen address."`
	Transport   string        `enum:"router,fiber" default:"router" help:"HTTP stack: go-router with the refresh WebSocket, or plain fiber."`
	Config      string        `type:"existingfile" help:"Page config; the built-in page is used when empty."`
	BasePath    string        `default:"/visualsync" help:"Route prefix."`
	EventsAddr  string        `help:"Optional listen address for the net/http WebSocket and SSE event streams."`
	LayoutURL   string        `env:"VISUALSYNC_LAYOUT_URL" help:"Layout API base URL (overrides layout_api_url from the config)."`
	Token       string        `env:"VISUALSYNC_TOKEN" help:"Bearer token used for layout requests."`
	ReportID    string        `help:"Report id to embed."`
	PageName    string        `help:"Report page to embed."`
	EmbedURL    string        `help:"Embed URL of the report."`
	AccessToken string        `env:"VISUALSYNC_EMBED_TOKEN" help:"Embed access token."`
	QuietPeriod time.Duration `help:"Override the layout save debounce window."`
	LayoutCache time.Duration `default:"30s" help:"Cache remote layout loads per viewer (0 disables)."`
	Debug       bool          `help:"Enable development logging."`
}

func (cmd *serveCmd) Run(ctx context.Context) error {
	logger, err := cmd.logger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := loadConfig(cmd.Config)
	if err != nil {
		return err
	}
	store, err := cmd.layoutStore(cfg)
	if err != nil {
		return err
	}

	hook := dashboard.NewBroadcastHook()
	opts := dashboard.Options{
		Config:      cfg,
		Embedder:    dashboard.NewBridgeEmbedder(hook),
		LayoutStore: store,
		RefreshHook: dashboard.MultiHook{hook, dashboard.LogHook{Logger: logger.Named("events")}},
		Telemetry:   dashboard.ZapTelemetry{Logger: logger},
		Logger:      logger,
		QuietPeriod: cmd.QuietPeriod,
	}
	if cmd.Token != "" {
		opts.TokenSource = dashboard.StaticToken(cmd.Token)
	}
	engine, err := dashboard.Bootstrap(ctx, "", opts)
	if err != nil {
		return err
	}
	defer func() {
		engine.FlushSave()
		if err := engine.Close(); err != nil {
			logger.Warn("engine close failed", zap.Error(err))
		}
	}()

	if cmd.ReportID != "" {
		report := dashboard.ReportDescriptor{
			ReportID:    cmd.ReportID,
			PageName:    cmd.PageName,
			EmbedURL:    cmd.EmbedURL,
			AccessToken: cmd.AccessToken,
		}
		if err := engine.SetReport(ctx, report); err != nil {
			return fmt.Errorf("visualctl: set report: %w", err)
		}
	}

	telemetry := dashboard.ZapTelemetry{Logger: logger}
	api := &httpapi.Handlers{
		Select:         commands.NewSelectDataCommand(engine, telemetry),
		ClearSelection: commands.NewClearSelectionCommand(engine, telemetry),
		ClearFilters:   commands.NewClearFiltersCommand(engine, telemetry),
		ApplyFilters:   commands.NewApplyFiltersCommand(engine, telemetry),
		Reorder:        commands.NewReorderVisualsCommand(engine, telemetry),
		Add:            commands.NewAddVisualsCommand(engine, telemetry),
		Remove:         commands.NewRemoveVisualCommand(engine, telemetry),
		Event:          commands.NewWidgetEventCommand(engine, telemetry),
		View:           queries.NewViewQuery(engine),
		Readiness:      queries.NewReadinessQuery(engine),
	}

	logger.Info("visual sync routes ready",
		zap.String("addr", cmd.Addr),
		zap.String("transport", cmd.Transport),
		zap.String("base_path", cmd.BasePath),
		zap.String("engine_id", engine.ID()),
	)
	if cmd.EventsAddr != "" {
		events := &http.Server{Addr: cmd.EventsAddr, Handler: eventsMux(hook), ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := events.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("event stream server failed", zap.Error(err))
			}
		}()
		defer events.Close()
	}
	if cmd.Transport == "fiber" {
		app := fiber.New(fiber.Config{DisableStartupMessage: true})
		httpapi.MountFiber(app, cmd.BasePath, api)
		return app.Listen(cmd.Addr)
	}

	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config{
		Router:    server.Router(),
		API:       api,
		Broadcast: hook,
		BasePath:  cmd.BasePath,
	}); err != nil {
		return fmt.Errorf("visualctl: register routes: %w", err)
	}
	return server.Serve(cmd.Addr)
}

func eventsMux(hook *dashboard.BroadcastHook) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hook.ServeWebSocket)
	mux.HandleFunc("/events", hook.ServeSSE)
	return mux
}

func (cmd *serveCmd) logger() (*zap.Logger, error) {
	if cmd.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func (cmd *serveCmd) layoutStore(cfg dashboard.Config) (dashboard.LayoutStore, error) {
	url := cmd.LayoutURL
	if url == "" {
		url = cfg.LayoutAPIURL
	}
	if url == "" {
		return dashboard.NewInMemoryLayoutStore(), nil
	}
	client, err := layoutapi.NewClient(layoutapi.Config{BaseURL: url})
	if err != nil {
		return nil, err
	}
	if cmd.LayoutCache <= 0 {
		return client, nil
	}
	return dashboard.NewCachingLayoutStore(client, cmd.LayoutCache), nil
}
