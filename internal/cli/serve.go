package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/skua-dev/skua/internal/apiserver"
	"github.com/skua-dev/skua/internal/controller"
	"github.com/skua-dev/skua/internal/session"
	"github.com/skua-dev/skua/internal/store"
	"github.com/skua-dev/skua/internal/vector"
	v1alpha1 "github.com/skua-dev/skua/pkg/apis/v1alpha1"
)

func newServeCmd() *cobra.Command {
	var (
		port    int
		host    string
		dataDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Skua daemon",
		Long:  "Start the Skua API server and the document-index and thread-title controllers.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("data-dir") {
				cfg.Store.DataDir = dataDir
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer logger.Sync()

			var st store.Store
			if cfg.Store.Type == "memory" {
				st = store.NewMemoryStore()
			} else {
				if err := os.MkdirAll(cfg.Store.DataDir, 0o755); err != nil {
					return fmt.Errorf("creating data directory %s: %w", cfg.Store.DataDir, err)
				}
				bolt, err := store.NewBoltStore(cfg.DBPath())
				if err != nil {
					return fmt.Errorf("opening store at %s: %w", cfg.DBPath(), err)
				}
				st = bolt
			}
			defer st.Close()

			// Model backends: the gateway runs the tool loop, the
			// completer serves titling and grounded answers, and the
			// OpenAI client doubles as the embedder.
			openai := newOpenAIClient(cfg, logger)
			completer, err := buildCompleter(cfg, logger)
			if err != nil {
				return err
			}

			index := vector.NewIndex(st, openai, logger)
			engine := session.NewEngine(st, openai, completer, index, cfg, logger)

			mgr := controller.NewManager(st, logger)
			mgr.Register("DocumentIndexController",
				controller.NewDocumentIndexController(st, index, logger),
				v1alpha1.KindDocument)
			mgr.Register("ThreadTitleController",
				controller.NewThreadTitleController(st, completer, logger),
				v1alpha1.KindThread)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			mgr.Start(ctx)

			apiSrv := apiserver.NewServer(cfg.ServerAddress(), st, engine, logger)

			banner := color.New(color.FgCyan, color.Bold)
			banner.Println("Skua")
			fmt.Printf("   API Server: %s\n", cfg.ServerURL())
			fmt.Printf("   Data Dir:   %s\n", cfg.Store.DataDir)
			fmt.Printf("   Provider:   %s\n", cfg.LLM.Provider)
			fmt.Println()

			errCh := make(chan error, 1)
			go func() {
				if err := apiSrv.Start(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case sig := <-sigCh:
				logger.Info("received shutdown signal", zap.String("signal", sig.String()))
			case err := <-errCh:
				logger.Error("API server error", zap.Error(err))
				mgr.Stop()
				return err
			}

			fmt.Println()
			logger.Info("shutting down")

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()

			mgr.Stop()
			if err := apiSrv.Shutdown(shutdownCtx); err != nil {
				logger.Error("API server shutdown error", zap.Error(err))
			}
			logger.Info("skua stopped")
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 7311, "API server port")
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "API server host")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Data directory (default: ~/.skua/data)")

	return cmd
}
