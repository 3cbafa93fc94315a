package cmd

import (
	"fmt"
	"strings"

	"github.com/caedis/mod-update-checker/internal/library"
	"github.com/caedis/mod-update-checker/internal/logging"
	"github.com/spf13/cobra"
)

var warningsOnly bool

var checksCmd = &cobra.Command{
	Use:   "checks",
	Short: "Manage per-mod update checks",
	Long:  "Enable, disable, or list update checks for tracked mods. Mods with checks disabled are skipped by period checks and never reported as outdated.",
}

var checksEnableCmd = &cobra.Command{
	Use:   "enable [mods...]",
	Short: "Enable update checks for mods",
	Args:  usageArgs(cobra.MinimumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setChecks(args, true)
	},
}

var checksDisableCmd = &cobra.Command{
	Use:   "disable [mods...]",
	Short: "Disable update checks for mods",
	Args:  usageArgs(cobra.MinimumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setChecks(args, false)
	},
}

var checksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List mods with update checks or warnings disabled",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := library.Load(instanceDir)
		if err != nil {
			return err
		}

		var disabled, quiet []string
		for _, m := range state.Mods {
			if !m.UpdateChecksEnabled {
				disabled = append(disabled, m.Filename)
			} else if !m.UpdateWarningEnabled {
				quiet = append(quiet, m.Filename)
			}
		}

		if len(disabled) == 0 && len(quiet) == 0 {
			logging.Infoln("All mods are checked.")
			return nil
		}
		if len(disabled) > 0 {
			logging.Infoln("Checks disabled:")
			for _, name := range disabled {
				logging.Infof("  - %s\n", name)
			}
		}
		if len(quiet) > 0 {
			logging.Infoln("Warnings disabled:")
			for _, name := range quiet {
				logging.Infof("  - %s\n", name)
			}
		}
		return nil
	},
}

func setChecks(names []string, enabled bool) error {
	state, err := library.Load(instanceDir)
	if err != nil {
		return err
	}

	what := "checks"
	if warningsOnly {
		what = "warnings"
	}
	verb := "disabled"
	if enabled {
		verb = "enabled"
	}

	changed := 0
	for _, name := range names {
		mod, err := resolveMod(state, name)
		if err != nil {
			logging.Warnf("%v\n", err)
			continue
		}

		target := &mod.UpdateChecksEnabled
		if warningsOnly {
			target = &mod.UpdateWarningEnabled
		}
		if *target == enabled {
			logging.Infof("  %s: %s already %s\n", mod.Filename, what, verb)
			continue
		}
		*target = enabled
		changed++
		logging.Infof("  %s: %s %s\n", mod.Filename, what, verb)
	}

	if changed == 0 {
		return nil
	}
	if err := state.Save(instanceDir); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}

// resolveMod finds a mod by exact file name first, then by fuzzy search when
// that yields a single result.
func resolveMod(state *library.State, name string) (*library.ManagedMod, error) {
	if mod, ok := state.Lookup(name); ok {
		return mod, nil
	}
	matches := state.Find(name)
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no tracked mod matches %q", name)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, m.Filename)
		}
		return nil, fmt.Errorf("%q is ambiguous: %s", name, strings.Join(names, ", "))
	}
}

func init() {
	checksEnableCmd.Flags().BoolVar(&warningsOnly, "warnings", false, "Toggle update warnings instead of checks")
	checksDisableCmd.Flags().BoolVar(&warningsOnly, "warnings", false, "Toggle update warnings instead of checks")
	checksCmd.AddCommand(checksEnableCmd, checksDisableCmd, checksListCmd)
	rootCmd.AddCommand(checksCmd)
}
