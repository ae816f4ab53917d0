package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rickchristie/crew/config"
	"github.com/rickchristie/crew/roles"
)

func rolesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "List available role profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles := roles.Defaults()
			if cfg, err := config.Load(); err == nil && cfg.RolesFile != "" {
				profiles, err = roles.LoadFile(cfg.RolesFile)
				if err != nil {
					return err
				}
			}

			names := make([]string, 0, len(profiles))
			for name := range profiles {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				p := profiles[name]
				fmt.Printf("%s\n  %s\n  tools: %s\n  max_iterations: %d, budget: %s, review: %v\n\n",
					p.Name, p.Description, strings.Join(p.Tools, ", "),
					p.MaxIterations, p.Budget.Std(), p.Review)
			}
			return nil
		},
	}
}
