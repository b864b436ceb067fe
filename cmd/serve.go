package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
	"github.com/spf13/cobra"

	"schedulehub/config"
	"schedulehub/engine"
	"schedulehub/feed"
	"schedulehub/jobs"
	"schedulehub/models"
	"schedulehub/prefs"
	"schedulehub/web"
	"schedulehub/web/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard web server",
	Long: `Run the dashboard web server.

Configuration comes from SCHEDHUB_* environment variables (a .env file in
the working directory is honored). Set SCHEDHUB_FEED=redis to share live
updates between several server processes.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides SCHEDHUB_ADDRESS)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Address = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := models.Open(cfg.DBDriver, cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	fd, err := openFeed(ctx, cfg)
	if err != nil {
		return err
	}
	defer fd.Close()
	store.SetPublisher(fd)

	signer, err := models.NewTokenSigner(cfg.JWTSecret)
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		logger.Info("SCHEDHUB_JWT_SECRET not set, using the development secret")
	}

	prefStore, err := prefs.Open(cfg.PrefsPath)
	if err != nil {
		return err
	}

	hub := engine.NewHub(store, fd)
	defer hub.Close()

	var defaultRoomID string
	if cfg.RoomCode != "" {
		room, err := store.GetRoomByCode(ctx, cfg.RoomCode)
		if err != nil {
			return serr.Wrap(err, "configured room code "+cfg.RoomCode+" is not usable")
		}
		if _, err := hub.Engine(ctx, room.ID); err != nil {
			return err
		}
		defaultRoomID = room.ID
		logger.Info("Serving default household", "code", room.Code, "room_id", room.ID)
	}

	sched, err := jobs.New(hub, cfg.RefreshCron)
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	srv := web.NewServer(cfg.Address, web.Options{
		Deps: api.Deps{
			Store:  store,
			Hub:    hub,
			Signer: signer,
			Prefs:  prefStore,
		},
		DefaultRoomID: defaultRoomID,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- web.Run(srv, cfg.Address)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return serr.Wrap(err, "web server stopped")
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}
	return nil
}

// openFeed returns the change feed selected by the configuration
func openFeed(ctx context.Context, cfg *config.Config) (feed.Feed, error) {
	switch cfg.Feed {
	case config.FeedRedis:
		f, err := feed.NewRedisFeed(ctx, cfg.RedisURL, cfg.FeedPrefix)
		if err != nil {
			return nil, err
		}
		logger.Info("Using redis change feed", "prefix", cfg.FeedPrefix)
		return f, nil
	default:
		return feed.NewBroker(), nil
	}
}
