// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The Coordinator is the live document pipeline: it owns the current
// Document, feeds diagram specs to the DiagramService, carries scroll
// anchors across reparses and hands snapshots to the Dispatcher.
//
// Services are pure Go with no CGO and depend on adapters only through ports.
package services
