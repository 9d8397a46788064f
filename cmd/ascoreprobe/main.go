// Command ascoreprobe drives a single ascore.Connection through
// Connect/Poll and renders its lifecycle as it happens. It exists to
// exercise the engine interactively during development and is not
// part of the library's public surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ascore-go/ascore/cmd/ascoreprobe/internal/probe"
)

func main() {
	fs := flag.NewFlagSet("ascoreprobe", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "ascoreprobe — interactive ascore connection probe\n\nUsage:\n  ascoreprobe -host HOST -port PORT -user USER [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}

	host := fs.String("host", "127.0.0.1", "server host, or socket path with -uds")
	port := fs.Int("port", 3306, "server port (TCP mode)")
	user := fs.String("user", "root", "user name")
	password := fs.String("password", "", "password")
	schema := fs.String("schema", "", "initial schema")
	uds := fs.Bool("uds", false, "connect over a Unix-domain socket at -host instead of TCP")
	polling := fs.Bool("polling", false, "use non-blocking polling instead of blocking Poll calls")

	_ = fs.Parse(os.Args[1:])

	if *port < 0 || *port > 65535 {
		fmt.Fprintln(os.Stderr, "port out of range")
		os.Exit(1)
	}

	cfg := probe.Config{
		Host:     *host,
		Port:     uint16(*port),
		User:     *user,
		Password: *password,
		Schema:   *schema,
		UDS:      *uds,
		Polling:  *polling,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := tea.NewProgram(probe.New(cfg))
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "ascoreprobe: "+strconv.Quote(err.Error()))
		os.Exit(1)
	}
}
