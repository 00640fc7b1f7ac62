// bantercheck probes a running banter server: health, word list, and one
// opener exchange. Exits non-zero when the API misbehaves.
package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/kapu/notyourbuddy/internal/banterclient"
)

func main() {
	baseURL := os.Getenv("BANTER_BASE_URL")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}

	client := banterclient.NewClient(baseURL, banterclient.WithTimeout(8*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	health, err := client.Health(ctx)
	if err != nil {
		log.Fatalf("/healthz error: %v", err)
	}
	log.Printf("/healthz ok: status=%s words=%d", health.Status, health.Words)

	list, err := client.Words(ctx)
	if err != nil {
		log.Fatalf("/_list error: %v", err)
	}
	if len(list.Words) == 0 {
		log.Fatal("/_list returned an empty lexicon")
	}
	first := list.Words[0].Term
	log.Printf("/_list ok: %d words, first=%q", len(list.Words), first)

	res, err := client.Chat(ctx, "hey "+first)
	if err != nil {
		log.Fatalf("/chat error: %v", err)
	}
	if res.Score != 1 || !strings.HasPrefix(res.Reply, "I'm not your ") {
		log.Fatalf("/chat unexpected result: reply=%q score=%d", res.Reply, res.Score)
	}
	log.Printf("/chat ok: %q score=%d", res.Reply, res.Score)

	if _, err := client.Chat(ctx, "::reset"); err != nil {
		log.Fatalf("/chat reset error: %v", err)
	}
	log.Print("reset ok")
}
