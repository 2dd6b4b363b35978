// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command parsing and help text for the docuflow CLI.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/docuflow/docuflow-cli/internal/ui/components"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdChat Command = iota
	CmdChats
	CmdLogin
	CmdSignup
	CmdVerify
	CmdForgotPassword
	CmdResetPassword
	CmdLogout
	CmdProfile
	CmdFolders
	CmdDocs
	CmdAdmin
	CmdSync
	CmdStatus
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool

	// Remaining args after the command word; each handler runs its own
	// ArgParser over these.
	Raw []string
}

const usageText = `docuflow - chat with your documents from the terminal

Docuflow uploads your PDFs to a workspace and lets you ask questions
about them. Answers stream back with page-level citations.

Usage:
  docuflow                          Open the chat TUI (most recent chat)
  docuflow login [email]            Sign in (prompts for password)
  docuflow signup <email>           Create an account
  docuflow verify <code>            Verify your email address
  docuflow forgot-password <email>  Request a password reset code
  docuflow reset-password <code>    Set a new password with a reset code
  docuflow logout                   Sign out and clear stored credentials
  docuflow profile [subcommand]     Show or edit your profile
  docuflow chat [--chat ID]         Interactive chat (REPL, --tui for full UI)
  docuflow chats [subcommand]       Manage chats
  docuflow folders [subcommand]     Manage folders
  docuflow docs [subcommand]        Manage documents
  docuflow sync [once|watch]        Upload PDFs from a watched directory
  docuflow admin [subcommand]       Organization administration
  docuflow status, s                Show session and cache status
  docuflow config [show|set|path]   Configuration
  docuflow version                  Show version information

Chat Commands:
  docuflow chat                     REPL against your most recent chat
  docuflow chat --chat ID           REPL against a specific chat
  docuflow chat --tui               Full-screen chat interface
  docuflow chats                    List chats (newest first)
  docuflow chats new <name>         Create a chat
  docuflow chats show <id>          Print a chat transcript
  docuflow chats delete <id> --confirm

Folder and Document Commands:
  docuflow folders                  List folders at the location root
  docuflow folders --parent ID      List subfolders
  docuflow folders tree             Print the full folder tree
  docuflow folders create <name> [--parent ID]
  docuflow folders rename <id> <name>
  docuflow folders delete <id> --confirm
  docuflow docs                     List documents [--folder ID]
  docuflow docs upload <file> [--folder ID]   PDF only
  docuflow docs process <id>        Trigger processing for one document
  docuflow docs process --all       Process every unprocessed document
  docuflow docs download <id> [--output FILE]
  docuflow docs delete <id> --confirm

Sync Commands:
  docuflow sync once                One-shot upload of new PDFs
  docuflow sync watch               Watch the directory and upload as files land
    --dir PATH                      Override the configured watch directory
    --folder ID                     Destination folder

Admin Commands (org_admin / super_admin):
  docuflow admin orgs [list|create|delete]
  docuflow admin locations [list|create|delete]
  docuflow admin users [list|create|delete]
  docuflow admin plans              List pricing plans
  docuflow admin subs [list|create]

Global Flags:
  -q, --quiet     Minimal output
  --verbose       Debug output to stderr
  --json          Machine-readable output where supported

Examples:
  docuflow login jane@example.com
  docuflow docs upload ./contract.pdf
  docuflow chat
  docuflow chats new "Q3 contracts"
  docuflow folders create "Legal" --parent 4f1c...
  docuflow sync watch --dir ~/Documents/inbox
  docuflow status

Config and credentials live under ~/.docuflow/.

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("docuflow version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
	fmt.Printf("  Terminal:   %s\n", components.TerminalProfile())
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	return parseArgs(os.Args[1:])
}

// parseArgs is the testable core of Parse.
func parseArgs(argv []string) (Command, Args) {
	remaining, parsed := parseGlobalFlags(argv)

	// No command: open the chat UI.
	if len(remaining) == 0 {
		return CmdChat, parsed
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsed.Raw = remaining

	switch cmd {
	case "login", "signin":
		return CmdLogin, parsed

	case "signup", "register":
		return CmdSignup, parsed

	case "verify":
		return CmdVerify, parsed

	case "forgot-password", "forgot":
		return CmdForgotPassword, parsed

	case "reset-password", "reset":
		return CmdResetPassword, parsed

	case "logout", "signout":
		return CmdLogout, parsed

	case "profile", "me":
		return CmdProfile, parsed

	case "chat":
		return CmdChat, parsed

	case "chats", "conversations":
		return CmdChats, parsed

	case "folders", "folder":
		return CmdFolders, parsed

	case "docs", "documents", "doc":
		return CmdDocs, parsed

	case "admin":
		return CmdAdmin, parsed

	case "sync":
		return CmdSync, parsed

	case "status", "s":
		return CmdStatus, parsed

	case "config":
		return CmdConfig, parsed

	case "version", "-v", "--version":
		return CmdVersion, parsed

	case "help", "-h", "--help":
		return CmdHelp, parsed

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		return CmdHelp, parsed
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsed Args

	for _, arg := range args {
		switch arg {
		case "-q", "--quiet":
			parsed.Quiet = true
		case "--verbose":
			parsed.Verbose = true
		case "--json":
			parsed.JSON = true
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, parsed
}
