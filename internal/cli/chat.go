package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"supportagent/internal/domain"
)

var (
	chatTicket      string
	chatShowSources bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant in the terminal",
	Long: `Start an interactive conversation. Type /clear to forget the history,
/sources to toggle source listing and /quit to leave.

Examples:
  supportagent chat
  supportagent chat --ticket TICKET-001`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatTicket, "ticket", "", "ticket id to ground the conversation in")
	chatCmd.Flags().BoolVar(&chatShowSources, "sources", true, "print the knowledge base sources of each reply")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	c, err := openContainer(ctx, false)
	if err != nil {
		return err
	}
	defer c.Close()

	sessionID := uuid.NewString()
	fmt.Println("Hello! I'm your AI support agent. How can I help you today?")
	if chatTicket != "" {
		fmt.Printf("I see you have ticket %s associated with this chat.\n", chatTicket)
	}
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/clear":
			c.Service.ClearHistory(sessionID)
			fmt.Println("History cleared.")
			continue
		case "/sources":
			chatShowSources = !chatShowSources
			continue
		}

		reply := c.Service.ProcessMessage(ctx, line, sessionID, chatTicket)
		if ctx.Err() != nil {
			return nil
		}
		fmt.Printf("\nagent> %s\n", reply.Response)
		if chatShowSources {
			printSources(reply.Sources)
		}
		fmt.Println()
	}
}

func printSources(sources []domain.Source) {
	if len(sources) == 0 {
		return
	}
	fmt.Println("\nSources:")
	for i, s := range sources {
		fmt.Printf("  [%d] %s (page %d) %s\n", i+1, s.Source, s.Page, domain.FormatSimilarity(s.Similarity))
	}
}
