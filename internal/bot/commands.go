package bot

import (
	"fmt"
	"html"
	"strings"

	"github.com/kiyogawa/solana-dex-bot/internal/notifier"
)

// HandleCommand processes a user command and returns a reply. It only reads
// the state published by the last cycle and never blocks on a running one.
func (b *Bot) HandleCommand(command string) string {
	var cmd string
	if fields := strings.Fields(command); len(fields) > 0 {
		// "/status@my_bot" in group chats
		cmd, _, _ = strings.Cut(strings.ToLower(fields[0]), "@")
	}

	b.viewMu.RLock()
	v := b.view
	b.viewMu.RUnlock()

	switch cmd {
	case "/status":
		reply := notifier.FormatPerformance("Performance", v.summary, v.at)
		return reply + fmt.Sprintf("\nLast decision: %s (%s)\n", strings.ToUpper(string(v.decision.Action)), html.EscapeString(v.decision.Reason))
	case "/positions":
		return notifier.FormatPositions(v.positions)
	default:
		return notifier.FormatHelp()
	}
}
