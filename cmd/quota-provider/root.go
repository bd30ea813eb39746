package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/yuxishi/quota-provider/internal/aws"
	"github.com/yuxishi/quota-provider/internal/cache"
	"github.com/yuxishi/quota-provider/internal/config"
	"github.com/yuxishi/quota-provider/internal/logs"
	"github.com/yuxishi/quota-provider/internal/provider"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "quota-provider",
	Short:        "Custom resource provider that manages service quotas and account settings",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yaml if present)")
	rootCmd.AddCommand(serveCmd, invokeCmd, typesCmd)
}

// app is everything a command needs to answer events.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	clients  *aws.Clients
	cache    *cache.Cache
	provider *provider.Provider
}

func loadConfig() (*config.Config, error) {
	name := cfgFile
	if name == "" {
		name = "config.yaml"
	}
	return config.Load(name)
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := logs.New(os.Stderr, cfg.GetLogLevel())

	awsCfg, err := aws.LoadConfig(ctx, cfg.GetRegion(), cfg.Profile, logger)
	if err != nil {
		return nil, err
	}
	clients := aws.NewClients(awsCfg, logger)
	c := cache.New(ctx, cfg.GetCacheTTL())

	p := provider.New(cfg.GetRegion(), logger)
	provider.RegisterDefaults(p, backendFor(clients), c, cfg.MaxConcurrency, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		clients:  clients,
		cache:    c,
		provider: p,
	}, nil
}

func backendFor(clients *aws.Clients) provider.Backend {
	return provider.Backend{
		Quotas: func(region string) provider.QuotaAPI {
			return clients.Region(region).Quotas
		},
		Accounts: func(region string) provider.AccountAPI {
			return clients.Region(region).Identity
		},
		PasswordPolicies: func(region string) provider.PasswordPolicyAPI {
			return clients.Region(region).Identity
		},
	}
}
