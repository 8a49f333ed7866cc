// Package main is the entrypoint for the sensorlabel CLI.
package main

import (
	"github.com/huangsam/sensorlabel/cmd"
	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/internal/iocache"
)

func main() {
	defer iocache.CloseStores()
	defer func() {
		if err := cmd.StopProfiling(); err != nil {
			contract.LogWarn("Failed to write profiles", err)
		}
	}()

	cmd.SetCacheManager(iocache.Manager)
	if err := cmd.Execute(); err != nil {
		contract.LogFatal("Command failed", err)
	}
}
