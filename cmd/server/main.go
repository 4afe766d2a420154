package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Theras-Labs/theras-boost-protocol/internal/app/server"
)

func main() {
	addr := flag.String("addr", defaultAddr(), "The protocol HTTP server address")
	flag.Parse()

	log.SetPrefix("[BOOST] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, *addr); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}

func defaultAddr() string {
	if value := strings.TrimSpace(os.Getenv("THERAS_BOOST_HTTP_ADDR")); value != "" {
		return value
	}
	return "localhost:8090"
}
