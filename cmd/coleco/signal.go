package main

import (
	"os"
	"os/signal"
	"syscall"
)

// notifyShutdown arranges for ch to receive the process's termination
// signals, so headless mode can stop between frames instead of mid-frame.
func notifyShutdown(ch chan os.Signal) {
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
}
