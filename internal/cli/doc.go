// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the sofia command line.
//
// Running sofia with no subcommand opens the full-screen chat. The
// subcommands cover the same backend from a plain terminal, which is handy
// over ssh or in scripts.
//
// # Commands
//
// Conversations:
//   - chat: line-mode chat with input history
//   - chats: list conversations grouped by project
//   - show: print one conversation
//   - export: write a conversation to a markdown file
//   - projects: list, create, rename and delete projects
//
// Tokens:
//   - balance: show the token balance
//   - packages: list the recharge packages
//   - buy: pay a Lightning invoice and wait for the credit
//   - history: recent purchases and usage; --local lists payments credited
//     from this machine
//   - models: model prices
//
// Account and settings:
//   - login, logout: store or forget the bearer token
//   - config: show the effective configuration
//
// Most listing commands accept --json for scripting.
package cli
