package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/wsecho/pkg/cli/internal/output"
	"github.com/getmockd/wsecho/pkg/cliconfig"
)

var configFile string

// ConfigOutput is the JSON form of the config command.
type ConfigOutput struct {
	Config  *cliconfig.Config `json:"config"`
	Sources map[string]string `json:"sources"`
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective server configuration",
	Long: `Display the configuration serve would start with, after merging defaults,
the global and local config files and WSECHO_* environment variables.
Each value is annotated with where it came from.`,
	Example: `  wsecho config
  wsecho config --config ./wsecho.yaml
  WSECHO_PORT=9000 wsecho config --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cliconfig.LoadAll(configFile)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			output.Warn(cmd.ErrOrStderr(), "%v", err)
		}

		if jsonOutput {
			return output.JSON(cmd.OutOrStdout(), ConfigOutput{Config: cfg, Sources: cfg.Sources})
		}
		return printConfigAsYAML(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to a YAML config file (replaces .wsechorc.yaml)")
}

// printConfigAsYAML outputs the config as YAML with each value's source as a
// line comment.
func printConfigAsYAML(w io.Writer, cfg *cliconfig.Config) error {
	if cfg.ConfigFile != "" {
		fmt.Fprintf(w, "# Resolved configuration from %s\n", cfg.ConfigFile)
	} else {
		fmt.Fprintln(w, "# Resolved configuration (no config file found)")
	}

	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// doc is a mapping: keys and values alternate.
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i].Value
		if src, ok := cfg.Sources[key]; ok {
			doc.Content[i+1].LineComment = src
		}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return enc.Close()
}
