// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat_cmd.go - Interactive chat command handlers.
//
// "docuflow chat" runs a liner-backed REPL that streams answers token by
// token; --tui swaps in the full bubbletea interface. "docuflow chats"
// manages the chat list.
//
// Interactive Commands (during chat):
//   /chats              List your chats
//   /switch <id>        Switch to another chat
//   /new [name]         Start a new chat
//   /sources            Show citations for the last answer
//   /help, /h           Show available commands
//   /quit, /q           Exit chat
//   Ctrl+C              Cancel the current answer
//   Ctrl+D              Exit chat
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/peterh/liner"

	"github.com/docuflow/docuflow-cli/internal/api"
	"github.com/docuflow/docuflow-cli/internal/config"
	"github.com/docuflow/docuflow-cli/internal/model"
	"github.com/docuflow/docuflow-cli/internal/ui/chat"
	"github.com/docuflow/docuflow-cli/internal/ui/components"
	"github.com/docuflow/docuflow-cli/internal/util"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for the chat REPL.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI with history loaded from the config dir.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	cli := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	cli.LoadHistory()
	return cli
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line with history navigation on arrow keys.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists input history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

// HandleChat handles "docuflow chat [--chat ID] [--tui]".
func HandleChat(args Args) error {
	parser := NewArgParser(args.Raw)

	app, err := NewApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := app.Context()
	if err := app.RequireAuth(ctx); err != nil {
		cancel()
		return err
	}

	current, err := resolveChat(ctx, app, parser.Flag("chat"))
	cancel()
	if err != nil {
		return err
	}

	if parser.BoolFlag("tui") {
		return runChatTUI(app, current.ID)
	}
	return runChatREPL(app, current, args.Quiet)
}

// resolveChat picks the chat to talk to: the --chat flag, else the most
// recently updated chat, else a brand new one.
func resolveChat(ctx context.Context, app *App, chatID string) (*model.Chat, error) {
	if chatID != "" {
		c, err := app.Client.GetChat(ctx, chatID)
		if err != nil {
			// Cached copy still lets the transcript render offline.
			if app.Cache != nil && !errors.Is(err, api.ErrUnauthorized) {
				if cached, cerr := app.Cache.Chat(ctx, chatID); cerr == nil {
					return cached, nil
				}
			}
			return nil, fmt.Errorf("failed to open chat: %s", api.UserMessage(err))
		}
		return c, nil
	}

	chats, err := listChatsCached(ctx, app)
	if err != nil {
		return nil, err
	}
	if len(chats) > 0 {
		return chats[0], nil
	}

	created, err := app.Client.CreateChat(ctx, "New chat")
	if err != nil {
		return nil, fmt.Errorf("failed to create chat: %s", api.UserMessage(err))
	}
	return created, nil
}

// listChatsCached loads the chat list, refreshing the cache on success
// and falling back to it when the backend is unreachable.
func listChatsCached(ctx context.Context, app *App) ([]*model.Chat, error) {
	var chats []*model.Chat
	err := app.Client.WithRetry(ctx, func(ctx context.Context) error {
		var err error
		chats, err = app.Client.ListChats(ctx)
		return err
	})
	if err == nil {
		if app.Cache != nil {
			_ = app.Cache.PutChats(ctx, chats)
		}
		return chats, nil
	}
	if app.Cache != nil && !errors.Is(err, api.ErrUnauthorized) {
		if cached, cerr := app.Cache.Chats(ctx); cerr == nil {
			return cached, nil
		}
	}
	return nil, fmt.Errorf("failed to load chats: %s", api.UserMessage(err))
}

// runChatTUI runs the full-screen bubbletea chat. Stderr is not usable
// under the alt screen, so debug output goes to a log file instead.
func runChatTUI(app *App, chatID string) error {
	if app.verbose {
		if dir, err := config.ConfigDir(); err == nil {
			if f, err := tea.LogToFile(filepath.Join(dir, "docuflow.log"), "debug"); err == nil {
				defer f.Close()
			}
		}
	}

	m := chat.New(app.Client, app.Session, app.Cache, chatID)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// runChatREPL runs the line-oriented chat loop.
func runChatREPL(app *App, current *model.Chat, quiet bool) error {
	input := NewChatCLI()
	defer input.Close()

	if !quiet {
		printChatWelcome(app, current)
	}

	var lastSources []model.Source

	for {
		line, err := input.ReadInput(PromptStyle.Render("> "))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				continue
			}
			// Ctrl+D or closed stdin ends the session.
			fmt.Println()
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			done, switched, err := handleSlashCommand(app, line, lastSources)
			if err != nil {
				fmt.Println(ErrorStyle.Render(err.Error()))
				continue
			}
			if switched != nil {
				current = switched
				if !quiet {
					fmt.Println(DimStyle.Render("Switched to: " + current.Name))
				}
			}
			if done {
				return nil
			}
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		sources, err := streamAnswer(app, current.ID, line)
		if err != nil {
			fmt.Println(ErrorStyle.Render(api.UserMessage(err)))
			continue
		}
		lastSources = sources

		if len(sources) > 0 && !quiet {
			fmt.Println(SourceStyle.Render(renderSources(sources)))
		}
	}
}

// streamAnswer posts the question and prints tokens as they arrive.
// Ctrl+C cancels the in-flight answer without leaving the REPL.
func streamAnswer(app *App, chatID, content string) ([]model.Source, error) {
	ctx, cancel := context.WithTimeout(background(), 5*time.Minute)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	printed := 0
	result, err := app.Client.StreamMessage(ctx, chatID, content, func(u api.StreamUpdate) {
		if len(u.Content) > printed {
			fmt.Print(u.Content[printed:])
			printed = len(u.Content)
		}
	})
	fmt.Println()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println(DimStyle.Render("(cancelled)"))
			return nil, nil
		}
		return nil, err
	}
	return result.Sources, nil
}

// handleSlashCommand executes a /command. It returns done=true to exit
// the REPL and a non-nil chat when the session switched chats.
func handleSlashCommand(app *App, line string, lastSources []model.Source) (done bool, switched *model.Chat, err error) {
	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])

	switch cmd {
	case "/quit", "/q", "/exit":
		return true, nil, nil

	case "/help", "/h":
		fmt.Println(DimStyle.Render("Commands: /chats /switch <id> /new [name] /sources /quit"))
		return false, nil, nil

	case "/chats":
		ctx, cancel := app.Context()
		defer cancel()
		chats, err := listChatsCached(ctx, app)
		if err != nil {
			return false, nil, err
		}
		for _, c := range chats {
			fmt.Printf("  %s  %s\n", DimStyle.Render(c.ID), util.TruncateRunes(c.Name, 48))
		}
		return false, nil, nil

	case "/switch":
		if len(fields) < 2 {
			return false, nil, errors.New("usage: /switch <id>")
		}
		ctx, cancel := app.Context()
		defer cancel()
		c, err := app.Client.GetChat(ctx, fields[1])
		if err != nil {
			return false, nil, fmt.Errorf("failed to open chat: %s", api.UserMessage(err))
		}
		return false, c, nil

	case "/new":
		name := collectName(fields[1:])
		if name == "" {
			name = "New chat"
		}
		ctx, cancel := app.Context()
		defer cancel()
		c, err := app.Client.CreateChat(ctx, name)
		if err != nil {
			return false, nil, fmt.Errorf("failed to create chat: %s", api.UserMessage(err))
		}
		return false, c, nil

	case "/sources":
		if len(lastSources) == 0 {
			fmt.Println(DimStyle.Render("No citations for the last answer."))
			return false, nil, nil
		}
		fmt.Println(SourceStyle.Render(renderSources(lastSources)))
		return false, nil, nil

	default:
		return false, nil, fmt.Errorf("unknown command: %s (try /help)", cmd)
	}
}

func printChatWelcome(app *App, current *model.Chat) {
	fmt.Println(TitleStyle.Render("docuflow chat"))
	fmt.Println(RenderLabel("Chat:", current.Name))
	fmt.Println(RenderLabel("Account:", app.Session.Email()))
	if last := current.LastMessage(); last != nil {
		fmt.Println(RenderLabel("Last:", util.TruncateRunes(util.FirstLine(last.Content), 60)))
	}
	fmt.Println(DimStyle.Render("Type a question, /help for commands, /quit to exit."))
	fmt.Println()
}

func renderSources(sources []model.Source) string {
	var b strings.Builder
	for _, s := range sources {
		name := s.DocumentName
		if name == "" {
			name = s.DocumentID
		}
		fmt.Fprintf(&b, "  ↳ %s (p. %d)\n", name, s.Page)
	}
	return strings.TrimRight(b.String(), "\n")
}

// =============================================================================
// CHATS MANAGEMENT
// =============================================================================

// HandleChats handles "docuflow chats [list|new|show|delete]".
func HandleChats(args Args) error {
	parser := NewArgParser(args.Raw)

	app, err := NewApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := app.Context()
	defer cancel()

	if err := app.RequireAuth(ctx); err != nil {
		return err
	}

	switch parser.Subcommand() {
	case "", "list", "ls":
		chats, err := listChatsCached(ctx, app)
		if err != nil {
			return err
		}
		if len(chats) == 0 {
			fmt.Println(DimStyle.Render("No chats yet. Start one with: docuflow chat"))
			return nil
		}
		for _, c := range chats {
			fmt.Printf("%s  %-48s  %s\n",
				DimStyle.Render(c.ID),
				util.TruncateRunes(c.Name, 48),
				DimStyle.Render(c.UpdatedAt.Local().Format("2006-01-02 15:04")))
		}
		return nil

	case "new", "create":
		name := collectName(parser.PositionalFrom(1))
		if name == "" {
			return errors.New("usage: docuflow chats new <name>")
		}
		c, err := app.Client.CreateChat(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to create chat: %s", api.UserMessage(err))
		}
		fmt.Println(SuccessStyle.Render("Created chat " + c.ID))
		return nil

	case "show":
		id := parser.Positional(1)
		if id == "" {
			return errors.New("usage: docuflow chats show <id>")
		}
		c, err := resolveChat(ctx, app, id)
		if err != nil {
			return err
		}
		printTranscript(c)
		return nil

	case "delete", "rm":
		id := parser.Positional(1)
		if id == "" {
			return errors.New("usage: docuflow chats delete <id> --confirm")
		}
		if !parser.BoolFlag("confirm") {
			return errors.New("deleting a chat is permanent; re-run with --confirm")
		}
		if err := app.Client.DeleteChat(ctx, id); err != nil {
			return fmt.Errorf("failed to delete chat: %s", api.UserMessage(err))
		}
		if app.Cache != nil {
			_ = app.Cache.DeleteChat(ctx, id)
		}
		fmt.Println(SuccessStyle.Render("Deleted chat " + id))
		return nil

	default:
		return fmt.Errorf("unknown chats subcommand: %s", parser.Subcommand())
	}
}

func printTranscript(c *model.Chat) {
	fmt.Println(TitleStyle.Render(c.Name))
	for _, msg := range c.Messages {
		speaker := "You"
		content := msg.Content
		if msg.Role == model.RoleAssistant {
			speaker = "Docuflow"
			content = renderAnswer(content)
		}
		fmt.Printf("%s %s\n", PromptStyle.Render(speaker+":"), content)
		if len(msg.Sources) > 0 {
			fmt.Println(SourceStyle.Render(renderSources(msg.Sources)))
		}
		fmt.Println()
	}
}

// renderAnswer runs fenced code blocks in an assistant answer through
// chroma for transcript output, which bypasses the TUI markdown pipeline.
// Anything malformed (unclosed fence, missing language line) passes
// through untouched.
func renderAnswer(content string) string {
	var out strings.Builder
	rest := content
	for {
		start := strings.Index(rest, "```")
		if start < 0 {
			out.WriteString(rest)
			break
		}
		nl := strings.IndexByte(rest[start+3:], '\n')
		if nl < 0 {
			out.WriteString(rest)
			break
		}
		lang := strings.TrimSpace(rest[start+3 : start+3+nl])
		body := rest[start+3+nl+1:]
		end := strings.Index(body, "```")
		if end < 0 {
			out.WriteString(rest)
			break
		}

		out.WriteString(rest[:start])
		out.WriteString(components.HighlightCode(body[:end], lang))
		rest = body[end+3:]
	}
	return out.String()
}
