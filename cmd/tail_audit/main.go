// Tails the resolver audit stream from NATS. Useful for watching what a
// running instance resolves, rejects, and falls back on.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/segovia241/ia-erp-universal/pkg/nats"
)

func main() {
	subject := flag.String("subject", "resolver.>", "subject filter within the resolver stream")
	durable := flag.String("durable", "audit-tail", "durable consumer name")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	url := os.Getenv("NATS_URL")
	if url == "" {
		log.Fatal("Error: NATS_URL is not set")
	}

	sub, err := nats.NewSubscriber(url)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer sub.Close()

	subjectColor := color.New(color.FgCyan, color.Bold)
	rejected := color.New(color.FgRed)
	resolved := color.New(color.FgGreen)

	err = sub.Subscribe(*subject, *durable, func(_ context.Context, subject string, payload map[string]interface{}) error {
		line := subjectColor.Sprint(subject)
		switch {
		case strings.HasSuffix(subject, "ACTION_REJECTED"):
			line += " " + rejected.Sprint(compact(payload))
		case strings.HasSuffix(subject, "ACTION_RESOLVED"):
			line += " " + resolved.Sprint(compact(payload))
		default:
			line += " " + compact(payload)
		}
		fmt.Println(line)
		return nil
	})
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
}

func compact(payload map[string]interface{}) string {
	parts := make([]string, 0, len(payload))
	for k, v := range payload {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, " ")
}
