package main

import (
	"github.com/dotflow/refill-backend/internal/server"
)

func main() {
	server.Init()
}
