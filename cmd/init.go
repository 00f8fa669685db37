package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/line-relay/internal/config"
)

var initDefaults bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a linerelay configuration file",
	Long: `Runs an interactive wizard and writes the result to the --config path.
Credentials are not stored; provide them through the environment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !initDefaults {
			_, err := config.RunWizard(cfgFile)
			return err
		}
		if err := config.DefaultConfig().Save(cfgFile); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Default configuration saved to %s\n", cfgFile)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initDefaults, "defaults", false, "write the default configuration without prompting")
	rootCmd.AddCommand(initCmd)
}
