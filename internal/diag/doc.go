// Package diag defines the diagnostic model shared by the rule engine,
// the CLI renderer and the LSP publisher.
package diag
