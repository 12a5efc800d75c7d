package main

import (
	"github.com/kitewave/creatorboard/internal/creatorboard"
	"github.com/kitewave/creatorboard/internal/creatorboard/config"
)

func main() {
	// "./config/config.yaml"
	cfg := config.MustLoad()
	a := creatorboard.NewApp(cfg)
	a.Run()
}
