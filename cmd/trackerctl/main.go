// Command trackerctl is the terminal client for the tracker API.
//
//	trackerctl login 11111111
//	trackerctl expense add --name Lunch --amount 120 --category Food
//	trackerctl dashboard
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/juju/gnuflag"

	"studentspend/internal/cli"
	"studentspend/internal/client"
	"studentspend/internal/config"
	applog "studentspend/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	cli.SetupLogger(cfg, applog.ComponentClient)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := client.NewApp(client.NewAPI(cfg.APIURL), client.NewFileSessionStore(cfg.SessionFile))
	c := &ctl{app: app, recipient: cfg.ContactRecipient, stdout: os.Stdout, stderr: os.Stderr}

	err := c.run(ctx, os.Args[1:])
	switch {
	case err == nil:
	case errors.Is(err, gnuflag.ErrHelp):
	default:
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type ctl struct {
	app       *client.App
	recipient string
	stdout    io.Writer
	stderr    io.Writer
}

type command struct {
	usage string
	run   func(c *ctl, ctx context.Context, args []string) error
	// anonymous commands work without a saved session
	anonymous bool
}

var commands = map[string]command{
	"login":     {usage: "login <regNo>", run: (*ctl).login, anonymous: true},
	"logout":    {usage: "logout", run: (*ctl).logout, anonymous: true},
	"contact":   {usage: "contact --name N --email E --message M [--mailto]", run: (*ctl).contact, anonymous: true},
	"whoami":    {usage: "whoami", run: (*ctl).whoami},
	"dashboard": {usage: "dashboard", run: (*ctl).dashboard},
	"expenses":  {usage: "expenses", run: (*ctl).expenses},
	"expense":   {usage: "expense add|edit <id>|delete <id> [--name --amount --category --date]", run: (*ctl).expense},
	"budget":    {usage: "budget --type weekly|monthly --amount A", run: (*ctl).budget},
	"income":    {usage: "income <amount>", run: (*ctl).income},
	"search":    {usage: "search <term>", run: (*ctl).search},
	"splits":    {usage: "splits", run: (*ctl).splits},
	"split":     {usage: "split --name N --amount A --with regNo[,regNo...]", run: (*ctl).split},
}

var commandOrder = []string{
	"login", "logout", "whoami", "dashboard", "expenses", "expense",
	"budget", "income", "search", "splits", "split", "contact",
}

func (c *ctl) usage() {
	fmt.Fprintln(c.stderr, "usage: trackerctl <command> [args]")
	for _, name := range commandOrder {
		fmt.Fprintln(c.stderr, "  "+commands[name].usage)
	}
}

func (c *ctl) run(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		c.usage()
		return gnuflag.ErrHelp
	}
	cmd, ok := commands[args[0]]
	if !ok {
		c.usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
	if !cmd.anonymous {
		restored, err := c.app.Restore(ctx)
		if err != nil {
			return err
		}
		if !restored {
			return errors.New("not logged in, run: trackerctl login <regNo>")
		}
	}
	return cmd.run(c, ctx, args[1:])
}

func (c *ctl) flags(name string) *gnuflag.FlagSet {
	fs := gnuflag.NewFlagSet(name, gnuflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}
