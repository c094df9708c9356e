package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/netefood/pos/internal/fiscal"
	"github.com/netefood/pos/pkg/httpmiddleware"
)

// Config holds the fiscal emulator configuration (FISCAL_ env prefix).
type Config struct {
	Addr        string `default:"0.0.0.0:3001" usage:"Fiscal server listen address"`
	CertPath    string `default:"certificado.pfx" usage:"PFX certificate path" flag:"cert-path"`
	Passphrase  string `usage:"Certificate passphrase (FISCAL_PASSPHRASE)"`
	Environment string `default:"HOMOLOGACAO (TESTE)" usage:"Reported fiscal environment"`
}

func loadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{EnvPrefix: "FISCAL"})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if cfg.Passphrase == "" {
		// Compatibility with the legacy deployment variable.
		cfg.Passphrase = os.Getenv("CERTIFICADO_SENHA")
	}
	return &cfg, nil
}

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		srv := fiscal.NewServer(fiscal.ServerConfig{
			CertPath:    cfg.CertPath,
			Passphrase:  cfg.Passphrase,
			Environment: cfg.Environment,
		})

		server := &http.Server{
			ReadHeaderTimeout: time.Second,
			ReadTimeout:       5 * time.Second,
			WriteTimeout:      10 * time.Second,
			Addr:              cfg.Addr,
			Handler: httpmiddleware.Wrap(srv.Routes(),
				httpmiddleware.Recovery(),
				httpmiddleware.CORS(httpmiddleware.CORSConfig{
					AllowHeaders: []string{"Content-Type"},
				}),
				httpmiddleware.RequestID(),
				httpmiddleware.InjectLogger(zctx.From(ctx)),
				httpmiddleware.LogRequests(),
			),
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()

		lg.Info("Fiscal server listening",
			zap.String("addr", cfg.Addr),
			zap.String("cert", cfg.CertPath),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
}
