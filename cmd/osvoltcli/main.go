package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/veesix-networks/osvolt/pkg/version"
)

var (
	serverAddr  = flag.String("server", "localhost:8181", "osvoltd API address")
	basePath    = flag.String("base-path", "/oltapp", "API base path")
	format      = flag.String("format", "yaml", "Output format for show commands (yaml or json)")
	timeout     = flag.Duration("timeout", 10*time.Second, "Per-request timeout")
	wait        = flag.Duration("wait", 0, "Wait up to this long for osvoltd to become ready before starting")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("osvoltcli", version.Full())
		return
	}

	client := NewClient(*serverAddr, *basePath, *timeout)

	if *wait > 0 {
		if err := client.WaitReady(context.Background(), *wait); err != nil {
			fmt.Fprintf(os.Stderr, "osvoltd not reachable at %s: %v\n", *serverAddr, err)
			os.Exit(1)
		}
	}

	cli := NewCLI(client, *serverAddr, *format, *timeout)

	// one-shot mode: osvoltcli service add portA 100 200
	if args := flag.Args(); len(args) > 0 {
		if err := cli.processCommand(strings.Join(args, " ")); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		cli.Stop()
		os.Exit(0)
	}()

	if err := cli.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
