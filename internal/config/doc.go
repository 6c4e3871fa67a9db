// Package config holds the runtime configuration for lorescan.
//
// Configuration flows from three sources, in increasing precedence:
// built-in defaults, an optional .lorescan YAML file, and CLI flags.
// The resolved Config is passed through the application by dependency
// injection; nothing in this package is global mutable state.
package config
