package main

import "time"

// GlobalFlags holds minimal global/persistent flags for CLI commands
type GlobalFlags struct {
	ConfigPath string
}

// CheckFlags Flag structs to decouple cobra from logic for testing.
type CheckFlags struct {
	App      string
	Services []string
	DataDir  string
	NoFiles  bool
	// API forwarding
	APIUrl     string
	APITimeout time.Duration
}

// ServeFlags holds flags for serve command
type ServeFlags struct {
	ConfigPath  string
	Listen      string
	MetricsAddr string
}

// StatusFlags holds flags for status command
type StatusFlags struct {
	APIUrl     string
	APITimeout time.Duration
}

// AddFlags holds flags for add command
type AddFlags struct {
	Name       string
	Status     string
	Host       string
	Timestamp  string
	APIUrl     string
	APITimeout time.Duration
}
