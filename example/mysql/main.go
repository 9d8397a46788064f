// Command main demonstrates driving ascore.Connection to IDLE against
// a live MySQL-compatible server and reporting the outcome.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/ascore-go/ascore"
)

const defaultHost = "127.0.0.1"
const defaultPort = 3307

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	host := getEnv("ASCORE_HOST", defaultHost)
	user := getEnv("ASCORE_USER", "root")
	password := getEnv("ASCORE_PASSWORD", "")
	schema := getEnv("ASCORE_SCHEMA", "")

	conn := ascore.Create(host, defaultPort, user, password, schema)
	defer conn.Destroy()

	status := conn.Connect()
	fmt.Printf("connect -> %s\n", status)

	for status != ascore.StatusIdle && status != ascore.StatusConnectFailed {
		select {
		case <-ctx.Done():
			return fmt.Errorf("interrupted while connecting")
		default:
		}
		status = conn.Poll()
		fmt.Printf("poll -> %s\n", status)
	}

	if status == ascore.StatusConnectFailed {
		errs := conn.Err()
		return fmt.Errorf("connect failed: %s: %s", errs.Code, errs.Message)
	}

	fmt.Printf("connection %s reached IDLE\n", conn.ID())
	time.Sleep(100 * time.Millisecond)
	return nil
}
