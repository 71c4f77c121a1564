package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/debrief/internal/catalog"
	"github.com/fyrsmithlabs/debrief/internal/config"
	"github.com/fyrsmithlabs/debrief/internal/logging"
	"github.com/fyrsmithlabs/debrief/internal/validator"
)

func newCheckConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate configuration, prompts and catalog root without calling a model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkConfig(configPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "configuration OK")
			return nil
		},
	}
}

// checkConfig reports every configuration problem at once.
func checkConfig(path string) error {
	cfg, err := config.LoadUnvalidated(path)
	if err != nil {
		return err
	}

	var errs []error
	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := validator.LoadPrompts(cfg.Validator.PromptsFile); err != nil {
		errs = append(errs, err)
	}
	if _, err := catalog.OpenDir(cfg.Catalog.Root, logging.NewNop()); err != nil {
		errs = append(errs, err)
	}
	if fi, err := os.Stat(cfg.Catalog.Root); err == nil && fi.IsDir() {
		for _, sub := range []string{"guidecards", "protocols"} {
			if _, err := os.Stat(filepath.Join(cfg.Catalog.Root, sub)); err != nil {
				errs = append(errs, fmt.Errorf("catalog root %s: missing %s/", cfg.Catalog.Root, sub))
			}
		}
	}
	return errors.Join(errs...)
}
