package main

import (
	"locallibrary/internal/config"
	"locallibrary/internal/entrypoint"
)

func main() {
	cfg := config.NewConfig()
	entrypoint.Run(cfg)
}
