// Package config handles configuration loading for tutorchat.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults; a missing file
// yields the full default configuration.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from TUTORCHAT_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/tutorchat/config.yaml
//  3. ~/.config/tutorchat/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	server:
//	  url: "${TUTOR_BACKEND_URL}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	server:
//	  reconnect_delay: "3s"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Backend connection:
//
//	server:
//	  url: "ws://localhost:8050/ws/llm"
//	  reconnect_delay: "3s"
//
// Conversation storage:
//
//	database:
//	  path: "~/.local/share/tutorchat/conversations.db"
//
// Logging (file-based, since the TUI owns the terminal):
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//	  file: "~/.local/share/tutorchat/tutorchat.log"
//
// Transcript export:
//
//	export:
//	  dir: "~/.local/share/tutorchat/exports"
//
// Recommended questions (shown on an empty conversation):
//
//	questions:
//	  recommended:
//	    - "Can you explain this concept with a simple example?"
//
// # Validation
//
// Load() validates:
//
//   - server.url and database.path are non-empty
//   - reconnect_delay is a valid, non-negative duration
//   - logging level and format values
//
// # Usage
//
// Load configuration from the resolved default path:
//
//	cfg, err := config.Load(config.Path())
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
