// Package app wires application dependencies for the CLI.
//
// It builds the concrete key store, collaborator clients and session manager
// from Config, exposing them via the Wire struct for commands to use.
package app
