// Package prefs persists swapp user preferences (theme and last username)
// in ~/.config/swapp/prefs.toml.
//
// Load never fails the caller: a missing or malformed file yields defaults.
// Save creates the directory and replaces the file atomically.
package prefs
