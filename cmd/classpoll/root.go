package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"classpoll/internal/app"
	"classpoll/internal/config"
)

const shutdownTimeout = 10 * time.Second

// newCmd builds the root command. Every flag can also be set through a
// CLASSPOLL_* environment variable; explicit flags win.
func newCmd() *cobra.Command {
	cfg := config.DefaultConfig()

	v := viper.New()
	v.SetEnvPrefix("CLASSPOLL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "classpoll",
		Short:         "Real-time classroom polling over websockets.",
		Args:          cobra.ExactArgs(0),
		Version:       app.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.HTTP.Host, "bind", "b", cfg.HTTP.Host, "address to bind to (env: CLASSPOLL_BIND)")
	fs.IntVarP(&cfg.HTTP.Port, "port", "p", cfg.HTTP.Port, "port to listen on (env: CLASSPOLL_PORT)")
	fs.DurationVar(&cfg.HTTP.ReadTimeout, "http-read-timeout", cfg.HTTP.ReadTimeout, "HTTP read timeout (env: CLASSPOLL_HTTP_READ_TIMEOUT)")
	fs.DurationVar(&cfg.HTTP.WriteTimeout, "http-write-timeout", cfg.HTTP.WriteTimeout, "HTTP write timeout (env: CLASSPOLL_HTTP_WRITE_TIMEOUT)")
	fs.StringVar(&cfg.HTTP.TLSCert, "tls-cert", "", "path to tls certificate (env: CLASSPOLL_TLS_CERT)")
	fs.StringVar(&cfg.HTTP.TLSKey, "tls-key", "", "path to tls keyfile (env: CLASSPOLL_TLS_KEY)")
	fs.DurationVar(&cfg.WebSocket.PingInterval, "ping-interval", cfg.WebSocket.PingInterval, "websocket heartbeat interval (env: CLASSPOLL_PING_INTERVAL)")
	fs.DurationVar(&cfg.WebSocket.ReadTimeout, "ws-read-timeout", cfg.WebSocket.ReadTimeout, "websocket read timeout (env: CLASSPOLL_WS_READ_TIMEOUT)")
	fs.StringVar(&cfg.Archive.DSN, "archive", cfg.Archive.DSN, "sqlite path for completed polls, :memory: for ephemeral (env: CLASSPOLL_ARCHIVE)")
	fs.StringVar(&cfg.PublicURL, "public-url", "", "join URL encoded by the /qr endpoint (env: CLASSPOLL_PUBLIC_URL)")
	fs.BoolVar(&cfg.Profile, "profile", false, "register net/http/pprof handlers (env: CLASSPOLL_PROFILE)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "display additional output (env: CLASSPOLL_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("classpoll v{{.Version}}\n")

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	application, err := app.NewApplication(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return application.Stop(shutdownCtx)
}
