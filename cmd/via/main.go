// Command via starts the reactive runtime's HTTP server. There are no
// subcommands in the core (spec.md §6); application-specific routes
// are registered by programs that import this module, not by this
// binary — running it directly serves an empty router.
package main

import (
	"log"
	"net/http"

	"github.com/go-via/via"
)

func main() {
	cfg := via.LoadServerConfig("via.toml")

	app := via.New(via.Config{DevMode: cfg.DevMode})

	addr := cfg.Host + ":" + cfg.Port
	handler := app.Middleware()(app)

	if via.TestMode() {
		log.Printf("via: VIA_TEST_MODE=1, not starting listener (would bind %s)", addr)
		return
	}

	log.Printf("via: listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("via: server failed: %v", err)
	}
}
