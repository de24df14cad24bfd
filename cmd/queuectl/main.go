package main

import (
	"os"
	_ "time/tzdata"

	"backend-antrian-klinik/internal/cli"
	"backend-antrian-klinik/internal/logger"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		logger.Logger.WithError(err).Error("queuectl gagal")
		os.Exit(1)
	}
}
