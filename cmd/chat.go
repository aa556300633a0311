package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ukidney/docchat/internal/access"
	"github.com/ukidney/docchat/internal/chat"
	"github.com/ukidney/docchat/internal/resolver"
	"github.com/ukidney/docchat/internal/upstream"
)

var (
	chatPasscode string
	chatModel    string
)

var chatCmd = &cobra.Command{
	Use:   "chat [doc]",
	Short: "Chat with a document from the terminal",
	Long: `Starts an interactive terminal conversation with one or more documents.
Multiple documents may be joined with "+", e.g. "kdigo-ckd-2024+anemia-in-ckd".`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatPasscode, "passcode", "", "passcode for protected documents")
	chatCmd.Flags().StringVar(&chatModel, "model", "", "override the upstream model")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	d, err := openDeps(cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	slugs := resolver.SplitSlugs(args[0])
	if len(slugs) == 0 {
		return fmt.Errorf("no document slugs given")
	}

	passcode := chatPasscode
	results, all := d.guard.CheckAll(ctx, slugs, passcode)
	if !all {
		blocker, _ := access.FirstBlocker(results)
		switch blocker.State {
		case access.StatePasscodeRequired:
			passcode, err = promptPasscode(blocker.Incorrect)
			if err != nil {
				return err
			}
			if _, all = d.guard.CheckAll(ctx, slugs, passcode); !all {
				return fmt.Errorf("access denied for %q", blocker.Slug)
			}
		case access.StateAuthRequired:
			return fmt.Errorf("document %q requires a signed-in session; run `docchat login` via the upstream service", blocker.Slug)
		case access.StateNotFound:
			return fmt.Errorf("document %q does not exist", blocker.Slug)
		default:
			return fmt.Errorf("access denied for %q", blocker.Slug)
		}
	}

	res, err := d.resolver.Resolve(ctx, resolver.Request{Docs: slugs, Passcode: passcode})
	if err != nil {
		return fmt.Errorf("resolving documents: %w", err)
	}
	if len(res.Documents) == 0 {
		return fmt.Errorf("none of the requested documents exist")
	}

	model := chatModel
	if model == "" {
		model = cfg.Model
	}
	sess := chat.NewSession(d.client, chat.Options{
		Docs:      slugs,
		Passcode:  passcode,
		Embedding: string(cfg.Embedding),
		Model:     model,
	})

	titles := make([]string, 0, len(res.Documents))
	for _, doc := range res.Documents {
		titles = append(titles, doc.Title)
	}
	fmt.Printf("Chatting with %s. Type your question, or \"exit\" to quit.\n\n", strings.Join(titles, " + "))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		var lastLen int
		_, err := sess.Stream(ctx, line, func(partial string) {
			fmt.Print(partial[lastLen:])
			lastLen = len(partial)
		})
		if err != nil {
			if errors.Is(err, upstream.ErrChatTimeout) {
				fmt.Fprintln(os.Stderr, "\nThe request timed out. Please try again.")
				continue
			}
			fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
			continue
		}
		fmt.Println()
		fmt.Println()
	}

	return scanner.Err()
}

// promptPasscode asks for the document passcode, masking input.
func promptPasscode(incorrect bool) (string, error) {
	label := "Passcode"
	if incorrect {
		label = "Passcode (previous attempt was not recognized)"
	}
	prompt := promptui.Prompt{
		Label: label,
		Mask:  '*',
	}
	passcode, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("reading passcode: %w", err)
	}
	return passcode, nil
}
