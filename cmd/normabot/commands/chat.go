package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/normacomex/normabot/pkg/chat"
	"github.com/normacomex/normabot/pkg/cli"
)

var (
	chatProvider string
	chatModel    string
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Text chat with NormaBot",
	Long: `Ask NormaBot about customs, exchange, tax and foreign-trade regulation.

With a message argument the answer is printed and the command exits.
Without one an interactive conversation starts; type /exit to leave.

Examples:
  normabot chat "¿Qué cambia con el Decreto 0125 de 2025?"
  normabot chat --provider openai`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatProvider, "provider", "", "chat provider: gemini or openai (default: context chat_provider or gemini)")
	chatCmd.Flags().StringVar(&chatModel, "model", "", "chat model (default: context chat_model or the provider default)")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, err := getContext()
	if err != nil {
		return err
	}
	gen, err := createGenerator(cmd.Context(), ctx, chatProvider, chatModel)
	if err != nil {
		return err
	}
	session := chat.NewSession(gen)

	if len(args) == 1 {
		reply, err := session.Send(cmd.Context(), args[0])
		if err != nil {
			printVerbose("generate: %v", err)
		}
		if outputJSON || outputQuery != "" {
			return outputResult(reply)
		}
		fmt.Println(reply.Text)
		return nil
	}

	styles := cli.NewStyles(cli.DefaultTheme)
	fmt.Println(styles.Label.Render("NormaBot") + " " + session.Messages()[0].Text)
	fmt.Println(styles.Help.Render("/exit para salir"))
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(styles.Accent.Render("Tú") + " > ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" || input == "/quit" {
			break
		}
		reply, err := session.Send(cmd.Context(), input)
		if err != nil {
			printVerbose("generate: %v", err)
		}
		label := styles.Label.Render("NormaBot")
		if reply.IsError {
			label = styles.Alert.Render("NormaBot")
		}
		fmt.Printf("%s %s\n\n", label, reply.Text)
		if cmd.Context().Err() != nil {
			break
		}
	}

	if outputFile != "" {
		return cli.Output(session.Messages(), cli.OutputOptions{Format: cli.FormatYAML, File: outputFile})
	}
	return nil
}
