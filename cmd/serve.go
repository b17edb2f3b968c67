package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/samkraft/samkraft-api/internal/api"
	"github.com/samkraft/samkraft-api/internal/logger"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(_ *cobra.Command, _ []string) error {
		return serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("address", "", "address to listen on (default is :8080)")

	viper.BindPFlag("server.address", serveCmd.Flags().Lookup("address"))
}

func viperDebug() bool {
	return viper.GetBool("debug")
}

func serve() error {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer l.Sync()

	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}

	l.Info("starting samkraft", zap.String("version", version), zap.String("backend", config.Backend.Kind))

	app := fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx").WithOptions(zap.IncreaseLevel(zap.WarnLevel))}
		}),
		fx.Supply(config, l),
		coreModule,
		fx.Provide(newCaptcha, newAuthenticator, newServer),
		fx.Invoke(registerServer),
	)

	if err := app.Start(context.Background()); err != nil {
		return fmt.Errorf("starting: %w", err)
	}

	sig := <-app.Wait()
	l.Info("stopping samkraft", zap.Int("exit_code", sig.ExitCode))

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		return fmt.Errorf("stopping: %w", err)
	}
	if sig.ExitCode != 0 {
		return fmt.Errorf("exited with code %d", sig.ExitCode)
	}
	return nil
}

func registerServer(lc fx.Lifecycle, shutdowner fx.Shutdowner, srv *api.Server, l *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					l.Error("http server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: srv.Shutdown,
	})
}
