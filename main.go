// docuflow - chat with your documents from the terminal.
//
// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	"github.com/docuflow/docuflow-cli/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	var err error
	switch cmd {
	case cli.CmdLogin:
		err = cli.HandleLogin(args)
	case cli.CmdSignup:
		err = cli.HandleSignup(args)
	case cli.CmdVerify:
		err = cli.HandleVerify(args)
	case cli.CmdForgotPassword:
		err = cli.HandleForgotPassword(args)
	case cli.CmdResetPassword:
		err = cli.HandleResetPassword(args)
	case cli.CmdLogout:
		err = cli.HandleLogout(args)
	case cli.CmdProfile:
		err = cli.HandleProfile(args)
	case cli.CmdChat:
		err = cli.HandleChat(args)
	case cli.CmdChats:
		err = cli.HandleChats(args)
	case cli.CmdFolders:
		err = cli.HandleFolders(args)
	case cli.CmdDocs:
		err = cli.HandleDocs(args)
	case cli.CmdAdmin:
		err = cli.HandleAdmin(args)
	case cli.CmdSync:
		err = cli.HandleSync(args)
	case cli.CmdStatus:
		err = cli.HandleStatus(args)
	case cli.CmdConfig:
		err = cli.HandleConfig(args)
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	default:
		cli.PrintUsage()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
