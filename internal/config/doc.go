// Package config provides the persistent configuration of perch.
//
// Settings are read in layers, higher layers overriding lower ones:
//
//	┌─────────────────────────────┐
//	│  5. Command line flags      │  ← Highest priority
//	├─────────────────────────────┤
//	│  4. Environment (PERCH_*)   │
//	├─────────────────────────────┤
//	│  3. Project                 │  ← ./perch.toml or ./perch.yaml
//	├─────────────────────────────┤
//	│  2. User                    │  ← ~/.config/perch/perch.toml
//	├─────────────────────────────┤
//	│  1. Built-in defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Unknown keys and values of the wrong type never fail a load; they are
// reported as warnings and the lower layer's value is kept.
//
// # Sub-packages
//
//   - loader: file parsing (TOML, YAML) and environment variables
//   - watcher: fsnotify based change notification for live reload
package config
