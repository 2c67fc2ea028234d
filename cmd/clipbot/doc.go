// Package main hosts the clipbot CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the bot daemon in the foreground and
// offers offline tooling around it: configuration scaffolding and
// validation, a dependency check, a view of recorded clip runs, and a test
// alert. It centralizes configuration resolution and logging setup so
// subcommands can focus on output instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
