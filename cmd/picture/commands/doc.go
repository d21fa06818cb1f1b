// Package commands defines the picture CLI and wires dependencies for subcommands.
//
// Commands
//
//   - serve    Run the SSH picture server, the catalog watcher and the HTTP API
//   - view     Render one picture in the local terminal
//   - match    Print the source a picture selects for a given viewport
//   - parse    Print the structured form of a media query
//
// # Implementation
//
// The root command loads the environment configuration and applies flag
// overrides before any subcommand runs. Each subcommand builds its own logger:
// serve logs JSON to stdout, the others log to stderr so their output stays
// readable.
package commands
