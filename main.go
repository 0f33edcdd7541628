// main is the entry point for the phenomask CLI.
package main

import (
	"github.com/huangsam/phenomask/cmd"
	"github.com/huangsam/phenomask/internal/contract"
	"github.com/huangsam/phenomask/internal/history"
	"github.com/huangsam/phenomask/internal/logger"
)

func main() {
	cmd.SetHistoryManager(history.Manager)

	// contract.LogFatal exits without running defers, so cleanup is explicit
	err := cmd.Execute()
	history.CloseHistory()
	logger.Sync()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Failed to stop profiling", stopErr)
	}
	if err != nil {
		contract.LogFatal("Command failed", err)
	}
}
