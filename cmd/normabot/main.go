// Command normabot is the NormaComex regulatory assistant.
//
// Usage:
//
//	normabot [flags] <command> [args]
//
// Commands:
//
//	call     - real-time voice call with NormaBot
//	chat     - text chat with NormaBot
//	norms    - browse, search, export and share the regulatory catalog
//	devices  - list audio devices
//	config   - configuration management
//
// Configuration is stored in ~/.normacomex/normabot/. Without a configured
// context the Gemini API key is read from $GEMINI_API_KEY.
package main

import (
	"fmt"
	"os"

	"github.com/normacomex/normabot/cmd/normabot/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
