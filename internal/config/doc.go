// Package config loads the ecscli configuration.
//
// Configuration comes from three layers, later ones overriding earlier:
//
//  1. Built-in defaults (Default)
//  2. A TOML file, or YAML when the file ends in .yaml or .yml
//  3. ECSCLI_ environment variables
//
// # Example
//
//	[log]
//	level = "debug"
//
//	[dispatcher]
//	queue_capacity = 256
//
//	[app]
//	tick_interval = "16ms"
//	startup = ["hello world"]
//
//	[aliases]
//	hi = "echo hi"
//
// A missing file is not an error. Parse failures are reported as
// *ParseError and invalid settings as *ValidationError.
//
// The watcher subpackage reports changes to the file so aliases can be
// reloaded while the application runs.
package config
