package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"beadchat/internal/bead"
	"beadchat/internal/chat"
	"beadchat/internal/config"
	"beadchat/internal/export"
	"beadchat/internal/history"
	"beadchat/internal/logging"
	"beadchat/internal/provider"
	"beadchat/internal/session"
)

// app wires the pieces of an interactive chat together.
type app struct {
	cfg       *config.Config
	library   *bead.Library
	composer  *bead.Composer
	assembler *chat.Assembler
	sessions  *session.Store
	adapter   provider.Adapter
	conv      *chat.Conversation
	sessionID string
	log       *logging.Logger
}

func providerOptions(cfg *config.Config) provider.Options {
	return provider.Options{
		OllamaBaseURL:    cfg.Providers.Ollama.BaseURL,
		OpenAIBaseURL:    cfg.Providers.OpenAI.BaseURL,
		OpenAIKey:        cfg.Providers.OpenAI.APIKey,
		AnthropicBaseURL: cfg.Providers.Anthropic.BaseURL,
		AnthropicKey:     cfg.Providers.Anthropic.APIKey,
		GeminiBaseURL:    cfg.Providers.Gemini.BaseURL,
		GeminiKey:        cfg.Providers.Gemini.APIKey,
	}
}

func newApp(cfg *config.Config) (*app, error) {
	library := bead.NewLibrary(cfg.Beads.Paths...)
	composer := bead.NewComposer(library)
	expander := chat.NewDiskExpander(cfg.Files.MaxBytes)
	assembler := chat.NewAssembler(composer, expander, cfg.History.MessageLimit)

	sessions, err := session.Open(filepath.Join(cfg.StateDir, "sessions.db"))
	if err != nil {
		return nil, err
	}

	providerName := cfg.Provider
	if providerName == "" {
		providerName = provider.DetectProvider(providerOptions(cfg))
	}
	model := cfg.Model
	if model == "" {
		model = provider.DefaultModel(providerName)
	}

	adapter, err := provider.New(providerName, model, providerOptions(cfg).OptionsFromEnv())
	if err != nil {
		sessions.Close()
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		library:   library,
		composer:  composer,
		assembler: assembler,
		sessions:  sessions,
		adapter:   adapter,
		sessionID: session.TerminalSessionID(),
		log:       logging.Get(logging.CategoryChat),
	}

	// Resume this terminal's conversation when one exists and still points
	// at the same provider.
	if conv, found, err := sessions.Load(a.sessionID); err == nil && found && conv.Provider == providerName {
		conv.Model = model
		a.conv = conv
	} else {
		a.conv = chat.NewConversation(providerName, model)
	}

	if cfg.Beads.Watch {
		if err := library.Watch(); err != nil {
			a.log.Warn("bead watcher unavailable: %v", err)
		}
	}
	return a, nil
}

func (a *app) close() {
	a.library.CloseWatcher()
	if err := a.sessions.Save(a.sessionID, a.conv); err != nil {
		a.log.Error("saving session on exit failed: %v", err)
	}
	a.sessions.Close()
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.sessions.PruneDead(); err != nil {
		a.log.Warn("pruning dead sessions failed: %v", err)
	}

	a.printBanner()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print(promptStyle.Render("you> ") + " ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			quit, err := a.dispatch(input)
			if err != nil {
				fmt.Println(errorStyle.Render(err.Error()))
			}
			if quit {
				return nil
			}
			continue
		}

		if err := a.turn(input, sigCh); err != nil {
			fmt.Println(errorStyle.Render(describeError(err)))
		}
	}
}

// turn runs one exchange: assemble context, stream the reply, and commit
// both sides to history only when the exchange completes. An interrupt
// discards the turn entirely.
func (a *app) turn(input string, sigCh <-chan os.Signal) error {
	messages, err := a.assembler.Assemble(input, a.conv)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chunks, errs := a.adapter.Stream(ctx, messages)

	var reply strings.Builder
	interrupted := false

	fmt.Print(headerStyle.Render(a.adapter.Name()+"> ") + " ")
loop:
	for {
		select {
		case <-sigCh:
			cancel()
			interrupted = true
		case chunk, ok := <-chunks:
			if !ok {
				break loop
			}
			if !interrupted {
				fmt.Print(chunk)
				reply.WriteString(chunk)
			}
		}
	}
	fmt.Println()

	streamErr := <-errs
	if interrupted {
		fmt.Println(dimStyle.Render("(interrupted, turn discarded)"))
		return nil
	}
	if streamErr != nil && !errors.Is(streamErr, context.Canceled) {
		return streamErr
	}

	// The user turn carries the expanded input so exported transcripts and
	// future requests see what the model saw.
	a.conv.History.Append(history.RoleUser, messages[len(messages)-1].Text)
	a.conv.History.Append(history.RoleAssistant, reply.String())

	if err := a.sessions.Save(a.sessionID, a.conv); err != nil {
		a.log.Error("saving session failed: %v", err)
	}
	return nil
}

func describeError(err error) string {
	switch {
	case errors.Is(err, provider.ErrUnavailable):
		return fmt.Sprintf("Backend unreachable: %v", err)
	case errors.Is(err, provider.ErrAuth):
		return fmt.Sprintf("Authentication failed: %v", err)
	case errors.Is(err, provider.ErrRateLimited):
		return "Rate limited. Wait a moment and try again."
	case errors.Is(err, provider.ErrTimeout):
		return "Request timed out."
	default:
		return err.Error()
	}
}

func (a *app) printBanner() {
	fmt.Println(headerStyle.Render("beadchat") + dimStyle.Render(
		fmt.Sprintf("  %s / %s  (%s)", a.adapter.Name(), a.conv.Model, a.sessionID)))
	if warnings := a.library.Warnings(); len(warnings) > 0 {
		fmt.Println(dimStyle.Render(fmt.Sprintf("%d bead definitions were skipped; see /beads warnings", len(warnings))))
	}
	fmt.Println("beads: " + beadPills(a.library, a.conv.BeadIDs))
	fmt.Println(dimStyle.Render("Type /help for commands. @path expands files inline."))
	fmt.Println()
}

// dispatch handles a slash command. The bool result requests exit.
func (a *app) dispatch(input string) (bool, error) {
	fields := strings.Fields(input)
	command, args := fields[0], fields[1:]

	switch command {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		a.printHelp()
	case "/beads":
		return false, a.cmdBeads(args)
	case "/compact":
		return false, a.cmdCompact(args)
	case "/clear":
		a.conv.History.Clear()
		fmt.Println(dimStyle.Render("History cleared."))
	case "/export":
		return false, a.cmdExport(args)
	case "/model":
		return false, a.cmdModel(args)
	case "/models":
		a.cmdModels()
	default:
		return false, fmt.Errorf("unknown command %s (try /help)", command)
	}
	return false, nil
}

func (a *app) printHelp() {
	fmt.Print(`Commands:
  /beads                 Show active beads
  /beads list            List all library beads
  /beads add <id>        Activate a bead
  /beads remove <id>     Deactivate a bead
  /beads warnings        Show skipped bead definitions
  /compact               Show history usage and strategy
  /compact <strategy>    Set strategy: recent, first, middle
  /clear                 Clear conversation history
  /export [json|md] [path]  Export the transcript
  /model <name>          Switch model on the current provider
  /models                List models across providers
  /quit                  Exit
`)
}

func (a *app) cmdBeads(args []string) error {
	if len(args) == 0 {
		fmt.Println("active: " + beadPills(a.library, a.conv.BeadIDs))
		return nil
	}
	switch args[0] {
	case "list":
		for _, b := range a.library.List("") {
			fmt.Printf("%s  %s\n", beadPill(b), dimStyle.Render(b.Name))
		}
		if a.library.Count() == 0 {
			fmt.Println(dimStyle.Render("Library is empty. Try: beadchat bead create"))
		}
	case "warnings":
		warnings := a.library.Warnings()
		if len(warnings) == 0 {
			fmt.Println(dimStyle.Render("No warnings."))
		}
		for _, w := range warnings {
			fmt.Println(dimStyle.Render(w))
		}
	case "add":
		if len(args) < 2 {
			return fmt.Errorf("usage: /beads add <id>")
		}
		id := args[1]
		if _, ok := a.library.Get(id); !ok {
			return fmt.Errorf("no bead named %q in the library", id)
		}
		for _, existing := range a.conv.BeadIDs {
			if existing == id {
				return nil
			}
		}
		a.conv.BeadIDs = append(a.conv.BeadIDs, id)
		fmt.Println("active: " + beadPills(a.library, a.conv.BeadIDs))
	case "remove":
		if len(args) < 2 {
			return fmt.Errorf("usage: /beads remove <id>")
		}
		kept := a.conv.BeadIDs[:0]
		for _, existing := range a.conv.BeadIDs {
			if existing != args[1] {
				kept = append(kept, existing)
			}
		}
		a.conv.BeadIDs = kept
		fmt.Println("active: " + beadPills(a.library, a.conv.BeadIDs))
	default:
		return fmt.Errorf("unknown subcommand /beads %s", args[0])
	}
	return nil
}

func (a *app) cmdCompact(args []string) error {
	if len(args) == 0 {
		turns := a.conv.History.Size()
		tokens := history.EstimateTurnTokens(a.conv.History.Snapshot())
		fmt.Printf("history: %d turns (~%d tokens), limit %d, strategy %s\n",
			turns, tokens, a.cfg.History.MessageLimit, a.conv.CompactionStrategy)
		return nil
	}
	switch args[0] {
	case "recent", "first", "middle":
	default:
		return fmt.Errorf("unknown strategy %q (use recent, first, or middle)", args[0])
	}
	strategy := history.ParseStrategy(args[0])
	a.conv.CompactionStrategy = strategy
	fmt.Println(dimStyle.Render("Strategy set to " + string(strategy)))
	return nil
}

func (a *app) cmdExport(args []string) error {
	format := export.FormatMarkdown
	path := ""
	if len(args) > 0 {
		format = export.ParseFormat(args[0])
	}
	if len(args) > 1 {
		path = args[1]
	}
	written, err := export.WriteFile(a.conv, format, path)
	if err != nil {
		return err
	}
	fmt.Println(dimStyle.Render("Exported to " + written))
	return nil
}

func (a *app) cmdModel(args []string) error {
	if len(args) == 0 {
		fmt.Printf("%s / %s\n", a.adapter.Name(), a.conv.Model)
		return nil
	}
	model := args[0]
	adapter, err := provider.New(a.adapter.Name(), model, providerOptions(a.cfg).OptionsFromEnv())
	if err != nil {
		return err
	}
	a.adapter = adapter
	a.conv.Model = model
	fmt.Println(dimStyle.Render("Model set to " + model))
	return nil
}

func (a *app) cmdModels() {
	ctx, cancel := context.WithTimeout(context.Background(), modelListTimeout)
	defer cancel()
	printModelListing(provider.ListAllModels(ctx, providerOptions(a.cfg)))
}
