package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
)

type CLI struct {
	client     *Client
	serverAddr string
	format     string
	timeout    time.Duration
	out        io.Writer
	rl         *readline.Instance
	running    bool
}

func NewCLI(client *Client, serverAddr, format string, timeout time.Duration) *CLI {
	return &CLI{
		client:     client,
		serverAddr: serverAddr,
		format:     format,
		timeout:    timeout,
		out:        os.Stdout,
		running:    true,
	}
}

func (c *CLI) Run() error {
	var err error
	c.rl, err = readline.NewEx(&readline.Config{
		Prompt:              "olt> ",
		HistoryFile:         os.ExpandEnv("$HOME/.osvoltcli_history"),
		AutoComplete:        buildCompleter(),
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer c.rl.Close()

	c.out = c.rl.Stdout()
	c.printBanner()

	for c.running {
		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					break
				}
				continue
			} else if err == io.EOF {
				break
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := c.processCommand(line); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	return nil
}

func (c *CLI) Stop() {
	c.running = false
}

func (c *CLI) printBanner() {
	fmt.Fprintln(c.out, "=====================================")
	fmt.Fprintln(c.out, "    osvolt Interactive CLI")
	fmt.Fprintln(c.out, "=====================================")
	fmt.Fprintf(c.out, "Connected to: %s\n", c.serverAddr)
	fmt.Fprintln(c.out, "Type 'help' for available commands")
	fmt.Fprintln(c.out, "Type 'exit' or 'quit' to exit")
	fmt.Fprintln(c.out)
}

func (c *CLI) processCommand(line string) error {
	switch line {
	case "exit", "quit":
		c.running = false
		return nil
	case "help", "?":
		printHelp(c.out)
		return nil
	}

	words := strings.Fields(line)
	cmd, args := lookup(words)
	if cmd == nil {
		return fmt.Errorf("unknown command %q, type 'help' for available commands", words[0])
	}
	if err := cmd.checkArgs(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	return cmd.Handler(ctx, c, args)
}

func buildCompleter() readline.AutoCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("provision"),
		readline.PcItem("remove"),
		readline.PcItem("service",
			readline.PcItem("add"),
			readline.PcItem("remove"),
		),
		readline.PcItem("show",
			readline.PcItem("status"),
		),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

func filterInput(r rune) (rune, bool) {
	switch r {
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}
