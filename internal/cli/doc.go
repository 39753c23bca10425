// Package cli builds the addonkit command tree. It translates flags into an
// app.Config and maps failures onto process exit codes.
package cli
