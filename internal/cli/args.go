// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// args.go - Unified argument parsing for all CLI commands.
//
// Each command handler builds one ArgParser over the args left after the
// command word, so flag handling stays consistent across commands.
package cli

import (
	"strings"

	"github.com/docuflow/docuflow-cli/internal/util"
)

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser provides unified argument parsing for CLI commands.
// It handles multiple flag formats consistently:
//   - Long flags: --flag value or --flag=value
//   - Short flags: -f value
//   - Boolean flags: --flag (no value needed)
//   - Positional arguments: arguments without flags
//   - Subcommands: first positional argument
type ArgParser struct {
	subcommand string
	flags      map[string]string
	boolFlags  map[string]bool
	positional []string
	raw        []string
}

// NewArgParser creates a new argument parser from raw arguments.
//
// Example:
//
//	args := NewArgParser([]string{"create", "Legal", "--parent", "f-9", "--confirm"})
//	args.Subcommand()       // "create"
//	args.Positional(1)      // "Legal"
//	args.Flag("parent")     // "f-9"
//	args.BoolFlag("confirm") // true
func NewArgParser(raw []string) *ArgParser {
	parser := &ArgParser{
		flags:      make(map[string]string),
		boolFlags:  make(map[string]bool),
		positional: make([]string, 0),
		raw:        raw,
	}

	i := 0
	for i < len(raw) {
		arg := raw[i]

		if strings.HasPrefix(arg, "-") {
			// --flag=value form; --flag=true and --flag=false are booleans.
			if strings.Contains(arg, "=") {
				parts := strings.SplitN(arg, "=", 2)
				name := strings.TrimLeft(parts[0], "-")
				value := parts[1]
				if value == "true" || value == "false" {
					parser.boolFlags[name] = value == "true"
				} else {
					parser.flags[name] = value
				}
				i++
				continue
			}

			name := strings.TrimLeft(arg, "-")

			// A flag followed by a non-flag token takes it as its value.
			if i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
				parser.flags[name] = raw[i+1]
				i += 2
			} else {
				parser.boolFlags[name] = true
				i++
			}
		} else {
			parser.positional = append(parser.positional, arg)
			i++
		}
	}

	if len(parser.positional) > 0 {
		parser.subcommand = parser.positional[0]
	}
	return parser
}

// Subcommand returns the first positional argument, or "".
func (p *ArgParser) Subcommand() string {
	return p.subcommand
}

// Flag returns the value of a string flag, or "" if absent.
func (p *ArgParser) Flag(name string) string {
	name = strings.TrimLeft(name, "-")
	return p.flags[name]
}

// FlagOrDefault returns the flag value or a default if not set.
func (p *ArgParser) FlagOrDefault(name, defaultValue string) string {
	if val := p.Flag(name); val != "" {
		return val
	}
	return defaultValue
}

// BoolFlag returns the value of a boolean flag, or false if absent.
func (p *ArgParser) BoolFlag(name string) bool {
	name = strings.TrimLeft(name, "-")
	return p.boolFlags[name]
}

// HasFlag reports whether the flag was given in either form.
func (p *ArgParser) HasFlag(name string) bool {
	name = strings.TrimLeft(name, "-")
	_, hasString := p.flags[name]
	_, hasBool := p.boolFlags[name]
	return hasString || hasBool
}

// Positional returns the positional argument at index, or "".
// Index 0 is the subcommand.
func (p *ArgParser) Positional(index int) string {
	if index < 0 || index >= len(p.positional) {
		return ""
	}
	return p.positional[index]
}

// PositionalFrom returns all positional arguments starting from index.
// Useful for joining trailing words into a name or message.
func (p *ArgParser) PositionalFrom(index int) []string {
	if index < 0 || index >= len(p.positional) {
		return []string{}
	}
	return p.positional[index:]
}

// PositionalCount returns the number of positional arguments.
func (p *ArgParser) PositionalCount() int {
	return len(p.positional)
}

// Raw returns the original raw arguments.
func (p *ArgParser) Raw() []string {
	return p.raw
}

// collectName joins trailing positional words into one name and cleans it
// the way all name validation expects: NFC-normalized, whitespace trimmed.
// A name made of nothing but whitespace collapses to "".
func collectName(parts []string) string {
	return util.CleanName(strings.Join(parts, " "))
}
