package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"cmsrag/internal/domain"
	"cmsrag/internal/logger"
	"cmsrag/internal/usecase"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive question session",
	Long: `Start a conversation about the methodology report. Follow-up questions
see the earlier turns, so "what about transfers?" works after a question
about exclusions.

Commands inside the session:
  /context   show the passages behind the last answer
  /history   show the conversation so far
  /clear     forget the conversation
  /reload    load a rebuilt index without restarting
  /exit      leave the session`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

	stack, err := openQueryStack(ctx, cfg)
	if err != nil {
		return err
	}
	defer stack.Close()

	info := stack.handle.Info()
	fmt.Printf("Loaded %d chunks from %s (%s)\n", info.ChunkCount, stack.handle.Dir(), info.EmbeddingModel)
	fmt.Println("Ask a question, or /exit to quit.")

	return chatLoop(ctx, os.Stdin, os.Stdout, usecase.NewSession(stack.assistant), stack.reload)
}

// chatLoop reads questions from in until EOF or /exit. A failed question is
// reported and the session continues.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, session *usecase.Session, reload func() error) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, "\n> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/exit", "/quit":
			return nil
		case "/clear":
			session.Clear()
			fmt.Fprintln(out, "Conversation cleared.")
			continue
		case "/context":
			renderContext(out, session.LastContext())
			continue
		case "/history":
			printHistory(out, session.History())
			continue
		case "/reload":
			if err := reload(); err != nil {
				renderError(out, err)
				continue
			}
			fmt.Fprintln(out, "Index reloaded.")
			continue
		}

		answer, retrieved, err := session.Ask(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Debug("question failed: %v", err)
			renderError(out, err)
			continue
		}
		renderAnswer(out, answer)
		if logger.IsVerbose() {
			renderContext(out, retrieved)
		}
	}
}

func printHistory(w io.Writer, history domain.History) {
	if len(history) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No conversation yet."))
		return
	}
	for _, turn := range history {
		fmt.Fprintf(w, "%s %s\n", headerStyle.Render(string(turn.Role)+":"), turn.Content)
	}
}
