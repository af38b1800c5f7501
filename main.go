// main is the entry point for the qpsplot CLI.
package main

import (
	"os"

	"github.com/qpsplot/qpsplot/cmd"
	"github.com/qpsplot/qpsplot/internal/contract"
	"github.com/qpsplot/qpsplot/internal/iocache"
)

func main() {
	defer iocache.CloseStores()

	if err := cmd.Execute(); err != nil {
		_ = cmd.StopProfiling()
		contract.LogFatal("Error starting CLI", err)
	}
	if err := cmd.StopProfiling(); err != nil {
		contract.LogWarn("Failed to stop profiling", err)
		os.Exit(1)
	}
}
