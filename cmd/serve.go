package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ukidney/docchat/internal/admin"
	"github.com/ukidney/docchat/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the docchat gateway server",
	Long:  `Starts the HTTP gateway serving the embeddable widget, the chat proxy and the admin API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if servePort != 0 {
			cfg.Port = servePort
		}

		d, err := openDeps(cfg)
		if err != nil {
			return err
		}
		defer d.Close()

		audit := admin.NewAudit(d.database)
		adminHandler := admin.NewHandler(d.client, d.resolver, audit, d.sessions)

		srv := server.New(*cfg, d.resolver, d.guard, d.client, d.sessions, adminHandler)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "docchat v%s starting on port %d\n", Version, cfg.Port)
		fmt.Fprintf(os.Stderr, "  Upstream: %s\n", cfg.UpstreamURL)
		fmt.Fprintf(os.Stderr, "  Data dir: %s\n", cfg.DataDir)
		fmt.Fprintf(os.Stderr, "  Access fail mode: %s\n", cfg.AccessFail)

		return srv.Start()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
