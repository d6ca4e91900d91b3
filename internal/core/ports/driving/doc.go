// Package driving holds the interfaces that front ends (CLI, TUI, MCP)
// use to query and steer a running pipeline. internal/core/services
// implements them.
package driving
