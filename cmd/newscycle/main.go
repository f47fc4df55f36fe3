package main

import (
	"newscycle/cmd/cmd"
	"newscycle/internal/logger"
)

func main() {
	logger.Init()
	cmd.Execute()
}
