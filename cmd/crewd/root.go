package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rickchristie/crew"
	"github.com/rickchristie/crew/config"
	"github.com/rickchristie/crew/models"
	"github.com/rickchristie/crew/roles"
	"github.com/rickchristie/crew/tools/fileops"
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "crewd",
		Short:         "Multi-agent task backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(serveCmd(), chatCmd(), rolesCmd())
	return cmd
}

// deps is everything the serve and chat commands share.
type deps struct {
	cfg      *config.Config
	logger   *zap.Logger
	model    crew.Model
	profiles map[string]roles.Profile
	tools    *crew.Registry
}

// buildDeps loads configuration and constructs the model, the tool catalog
// and the role profiles.
func buildDeps(ctx context.Context, logger *zap.Logger) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	model, err := models.NewVertex(ctx, cfg.ProjectID, cfg.Location, cfg.Model)
	if err != nil {
		return nil, err
	}

	profiles := roles.Defaults()
	if cfg.RolesFile != "" {
		profiles, err = roles.LoadFile(cfg.RolesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", cfg.RolesFile, err)
		}
	}

	tools := fileops.New(cfg.Workspace).Register(crew.NewRegistry())

	return &deps{
		cfg:      cfg,
		logger:   logger,
		model:    model,
		profiles: profiles,
		tools:    tools,
	}, nil
}
