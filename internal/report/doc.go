// Package report renders audit results for humans and tools: plain
// text for the terminal, JSON for integrations, Markdown for sharing.
package report
