// Package commands defines the sealwire CLI subcommands.
package commands
