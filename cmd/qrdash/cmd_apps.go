package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"qrdash/internal/files"
	"qrdash/internal/utils"
)

var confirmed bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered apps in insertion order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registryStore().Load()
		if err != nil {
			return err
		}
		if reg.Len() == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No apps available.")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, e := range reg.Entries() {
			fmt.Fprintf(tw, "%s\t%s\n", e.Name, e.URL)
		}
		return tw.Flush()
	},
}

var addCmd = &cobra.Command{
	Use:   "add NAME URL",
	Short: "Add an app, replacing the URL of an existing one with the same name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, added, err := registryStore().Add(args[0], args[1])
		if err != nil {
			return err
		}
		if !added {
			return warningError(utils.ErrMissingFields)
		}
		logger.Debug("app added", zap.String("name", args[0]), zap.String("url", args[1]))
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s!\n", args[0])
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove NAME...",
	Short: "Remove one or more apps (requires --yes)",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, removed, err := registryStore().Remove(args, confirmed)
		if err != nil {
			return warningError(err)
		}
		if len(removed) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "None of the selected apps exist.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed: %s\n", strings.Join(removed, ", "))
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every app (requires --yes)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := registryStore().Clear(confirmed); err != nil {
			return warningError(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All apps cleared!")
		return nil
	},
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Write the QR code PNG of every app to the output directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registryStore().Load()
		if err != nil {
			return err
		}
		arts, err := files.NewArtifactStore(cfg.OutputDir).WriteAll(reg.Entries())
		if err != nil {
			return err
		}
		for _, a := range arts {
			fmt.Fprintln(cmd.OutOrStdout(), a.Path)
		}
		return nil
	},
}

func init() {
	removeCmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "confirm removal of the selected apps")
	clearCmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "confirm clearing all apps")
}

// warningError turns a *utils.Warning into a plain message for the terminal.
func warningError(err error) error {
	if warn, ok := utils.AsWarning(err); ok {
		return errors.New(warn.Message)
	}
	return err
}
