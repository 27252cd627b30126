// GoChat terminal client.
//
// The login screen asks for a display name, joins over REST and opens the
// WebSocket stream. A goroutine reads frames from the stream into a channel
// that the Bubbletea event loop drains one frame at a time through
// waitForFrame. Messages and typing updates go out on the same socket.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Tyrowin/gochat/internal/client"
)

func main() {
	addr := flag.String("addr", "http://localhost:3003", "server base URL")
	name := flag.String("name", "", "display name to prefill")
	flag.Parse()

	p := tea.NewProgram(
		newModel(client.New(*addr), *name),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
