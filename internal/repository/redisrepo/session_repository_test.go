package redisrepo

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestCloseReleasesClient(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	repo := NewSessionRepository(client, time.Minute)

	repo.Close()

	// The repository owns the client, so Close must shut it down; a closed
	// client fails fast without dialing.
	if err := client.Ping(context.Background()).Err(); err == nil {
		t.Fatal("client still usable after Close")
	}
}
