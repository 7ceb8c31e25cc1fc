package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"gopkg.in/yaml.v3"
)

type CommandHandler func(ctx context.Context, c *CLI, args []string) error

type Command struct {
	Path        []string
	Usage       string
	Description string
	MinArgs     int
	MaxArgs     int
	Handler     CommandHandler
}

var commands = []*Command{
	{
		Path:        []string{"provision"},
		Usage:       "<device> <port>",
		Description: "Provision the subscriber on a device port",
		MinArgs:     2,
		MaxArgs:     2,
		Handler:     cmdProvision,
	},
	{
		Path:        []string{"remove"},
		Usage:       "<device> <port>",
		Description: "Remove the subscriber on a device port",
		MinArgs:     2,
		MaxArgs:     2,
		Handler:     cmdRemove,
	},
	{
		Path:        []string{"service", "add"},
		Usage:       "<port-name> [<s-tag> <c-tag>]",
		Description: "Provision a subscriber service on a named port",
		MinArgs:     1,
		MaxArgs:     3,
		Handler:     cmdServiceAdd,
	},
	{
		Path:        []string{"service", "remove"},
		Usage:       "<port-name> [<s-tag> <c-tag>]",
		Description: "Remove a subscriber service from a named port",
		MinArgs:     1,
		MaxArgs:     3,
		Handler:     cmdServiceRemove,
	},
	{
		Path:        []string{"show", "status"},
		Description: "Display API and access service status",
		Handler:     cmdShowStatus,
	},
}

// lookup finds the command whose path prefixes words and returns it with
// the remaining words as arguments.
func lookup(words []string) (*Command, []string) {
	for _, cmd := range commands {
		if len(words) < len(cmd.Path) {
			continue
		}
		match := true
		for i, p := range cmd.Path {
			if words[i] != p {
				match = false
				break
			}
		}
		if match {
			return cmd, words[len(cmd.Path):]
		}
	}
	return nil, nil
}

func (cmd *Command) checkArgs(args []string) error {
	if len(args) < cmd.MinArgs || len(args) > cmd.MaxArgs {
		return fmt.Errorf("usage: %s %s", strings.Join(cmd.Path, " "), cmd.Usage)
	}
	if cmd.MaxArgs == 3 && len(args) == 2 {
		return fmt.Errorf("both tags are required: %s %s", strings.Join(cmd.Path, " "), cmd.Usage)
	}
	return nil
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w)
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-42s %s\n", strings.TrimSpace(strings.Join(cmd.Path, " ")+" "+cmd.Usage), cmd.Description)
	}
	fmt.Fprintf(w, "  %-42s %s\n", "exit", "Exit the CLI")
	fmt.Fprintln(w)
}

func cmdProvision(ctx context.Context, c *CLI, args []string) error {
	resp, err := c.client.ProvisionAttachment(ctx, args[0], args[1])
	return c.report(resp, err)
}

func cmdRemove(ctx context.Context, c *CLI, args []string) error {
	resp, err := c.client.RemoveAttachment(ctx, args[0], args[1])
	return c.report(resp, err)
}

func cmdServiceAdd(ctx context.Context, c *CLI, args []string) error {
	resp, err := c.client.AddService(ctx, args[0], args[1:]...)
	return c.report(resp, err)
}

func cmdServiceRemove(ctx context.Context, c *CLI, args []string) error {
	resp, err := c.client.RemoveService(ctx, args[0], args[1:]...)
	return c.report(resp, err)
}

func cmdShowStatus(ctx context.Context, c *CLI, args []string) error {
	resp, err := c.client.Status(ctx)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status: %s", resp.Message())
	}

	if c.format == "json" {
		var out bytes.Buffer
		if err := json.Indent(&out, resp.Body, "", "  "); err != nil {
			return err
		}
		fmt.Fprintln(c.out, out.String())
		return nil
	}

	var st map[string]any
	if err := json.Unmarshal(resp.Body, &st); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}

	enc := yaml.NewEncoder(c.out)
	enc.SetIndent(2)
	if err := enc.Encode(st); err != nil {
		return err
	}
	return enc.Close()
}

func (c *CLI) report(resp *Response, err error) error {
	if err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		fmt.Fprintln(c.out, "accepted")
		return nil
	case http.StatusNotFound:
		fmt.Fprintln(c.out, "rejected by the access service")
		return nil
	default:
		return fmt.Errorf("%d %s (request %s)", resp.StatusCode, resp.Message(), resp.RequestID)
	}
}
