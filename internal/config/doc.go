// Package config defines the application's startup configuration and
// handles loading it from the environment and optional config files.
package config
