package commands

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/normacomex/normabot/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long: `Manage NormaBot configuration.

Configuration is stored in ~/.normacomex/normabot/config.yaml.
Multiple contexts can be defined for different accounts or environments.`,
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Add a new context",
	Long: `Add a new context with Gemini credentials.

Examples:
  normabot config add-context prod --api-key AIza...
  normabot config add-context dev --api-key AIza... --voice Puck --transport sdk`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		name := args[0]
		apiKey, _ := cmd.Flags().GetString("api-key")
		if apiKey == "" {
			return fmt.Errorf("api-key is required")
		}
		ctx := &cli.Context{APIKey: apiKey}
		ctx.BaseURL, _ = cmd.Flags().GetString("base-url")
		ctx.Model, _ = cmd.Flags().GetString("model")
		ctx.DefaultVoice, _ = cmd.Flags().GetString("voice")
		for _, key := range []string{cli.ExtraTransport, cli.ExtraLanguage} {
			v, _ := cmd.Flags().GetString(strings.ReplaceAll(key, "_", "-"))
			ctx.SetExtra(key, v)
		}

		if err := cfg.AddContext(name, ctx); err != nil {
			return err
		}
		if cfg.CurrentContext == "" {
			if err := cfg.UseContext(name); err != nil {
				return err
			}
		}
		cli.PrintSuccess("Context '%s' added successfully", name)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a setting on the selected context",
	Long: `Set a setting on the context selected with -c (or the current one).
An empty value removes the setting.

Keys:
  ` + strings.Join(cli.ExtraKeys, "\n  "),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if !slices.Contains(cli.ExtraKeys, key) {
			return fmt.Errorf("unknown key %q", key)
		}
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		ctx, err := cfg.Resolve(contextName)
		if err != nil {
			return err
		}
		if ctx.Name == cli.EnvContextName {
			return fmt.Errorf("no context configured; run `config add-context` first")
		}
		ctx.SetExtra(key, value)
		if err := cfg.Save(); err != nil {
			return err
		}
		cli.PrintSuccess("Set %s on context '%s'", key, ctx.Name)
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.DeleteContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Context '%s' deleted", args[0])
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the default context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.UseContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Switched to context '%s'", args[0])
		return nil
	},
}

var configGetContextCmd = &cobra.Command{
	Use:   "get-context",
	Short: "Show the current context",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if cfg.CurrentContext == "" {
			fmt.Println("No current context set")
			return nil
		}
		fmt.Println(cfg.CurrentContext)
		return nil
	},
}

var configListContextsCmd = &cobra.Command{
	Use:   "list-contexts",
	Short: "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		names := cfg.ListContexts()
		if len(names) == 0 {
			fmt.Println("No contexts configured")
			return nil
		}
		for _, name := range names {
			marker := "  "
			if name == cfg.CurrentContext {
				marker = "* "
			}
			fmt.Printf("%s%s\n", marker, name)
		}
		return nil
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "View full configuration with secrets masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		return outputResult(maskedConfig(cfg))
	},
}

// maskedConfig copies cfg with API keys and secrets masked.
func maskedConfig(cfg *cli.Config) *cli.Config {
	out := &cli.Config{CurrentContext: cfg.CurrentContext, Contexts: make(map[string]*cli.Context, len(cfg.Contexts))}
	for name, ctx := range cfg.Contexts {
		c := *ctx
		c.APIKey = cli.MaskAPIKey(c.APIKey)
		c.Extra = nil
		for k, v := range ctx.Extra {
			if k == cli.ExtraOpenAIKey || k == cli.ExtraS3SecretKey || k == cli.ExtraS3AccessKey {
				v = cli.MaskAPIKey(v)
			}
			c.SetExtra(k, v)
		}
		out.Contexts[name] = &c
	}
	return out
}

func init() {
	configAddContextCmd.Flags().StringP("api-key", "k", "", "Gemini API key (required)")
	configAddContextCmd.Flags().StringP("base-url", "u", "", "Live API WebSocket URL (default: Google endpoint)")
	configAddContextCmd.Flags().String("model", "", "Live model for calls")
	configAddContextCmd.Flags().String("voice", "", "Prebuilt voice for calls (Kore, Puck, ...)")
	configAddContextCmd.Flags().String("transport", "", "Live transport: websocket or sdk")
	configAddContextCmd.Flags().String("language", "", "Default call language: es or en")

	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configGetContextCmd)
	configCmd.AddCommand(configListContextsCmd)
	configCmd.AddCommand(configViewCmd)
}
