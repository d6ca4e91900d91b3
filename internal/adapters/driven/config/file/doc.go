// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML configuration at ~/.mdr/config.toml, or a path given
//     with --config. Nested tables are exposed as dotted keys.
package file
