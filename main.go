package main

import (
	"github.com/bchristie/brutons-tribunal/config"
	"github.com/bchristie/brutons-tribunal/internal/api"
)

func main() {
	cfg := config.LoadConfig()
	api.StartServer(cfg)
}
