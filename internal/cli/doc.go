// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the routine command line.
//
// Running routine with no subcommand starts the interactive TUI. The
// subcommands expose the same catalog, selection and advisor operations for
// scripts:
//
//	routine products [--category X] [--json]
//	routine categories
//	routine select list|toggle <id>|remove <index>|clear|export
//	routine generate
//	routine chat
//	routine config show|path|init
//
// Commands return errors instead of exiting; Execute maps them to exit codes
// with ExitCode.
package cli
