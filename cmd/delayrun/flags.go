package main

import "time"

// RunFlags holds flags for the run command.
type RunFlags struct {
	ConfigPath  string
	Strategy    string
	Unit        string
	CancelAfter time.Duration
	HistoryDSN  string
	Quiet       bool
}

// ServeFlags holds flags for the serve command.
type ServeFlags struct {
	ConfigPath    string
	Listen        string
	BasePath      string
	MetricsListen string
}
