package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/proposer"
)

// ServeOptions holds the flags of the serve command. Non-zero values
// override the config file.
type ServeOptions struct {
	ConfigPath string
	Addr       string
	Store      string
	StorePath  string
	LogLevel   string
	NoWorker   bool
}

// LoadServeConfig loads the config file and applies flag overrides.
func LoadServeConfig(opts ServeOptions) (proposer.Config, error) {
	cfg, err := proposer.LoadConfig(opts.ConfigPath)
	if err != nil {
		return cfg, err
	}

	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}
	if opts.Store != "" {
		cfg.Store.Driver = opts.Store
		cfg.Store.Path = ""
	}
	if opts.StorePath != "" {
		cfg.Store.Path = opts.StorePath
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.NoWorker {
		cfg.Worker.Enabled = false
	}

	if err := cfg.Finalize(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Serve runs the service until SIGINT or SIGTERM.
func Serve(opts ServeOptions) error {
	cfg, err := LoadServeConfig(opts)
	if err != nil {
		return err
	}

	ctx := NewSignalContext(context.Background())
	defer ctx.Cancel()

	svc, err := proposer.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("error initializing proposer: %w", err)
	}
	defer svc.Close()

	err = svc.Serve(ctx)
	if sig := ctx.Signal(); sig != nil {
		svc.Logger.Info("shutdown requested", "signal", sig.String())
	}
	return err
}
