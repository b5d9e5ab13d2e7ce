// Command tripdeskctl lets operators queue proposal generation and inspect
// the job queue.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/tripdesk/tripdesk/internal/app"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, "tripdeskctl")
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&generateCmd{}, "jobs")
	commander.Register(&queueCmd{}, "jobs")
	commander.Register(&taskCmd{}, "jobs")
	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// withQueue opens the queue helpers from configuration and runs fn.
func withQueue(fn func(*queueCLI) subcommands.ExitStatus) subcommands.ExitStatus {
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load config: %v\n", err)
		return subcommands.ExitFailure
	}
	cli, err := newQueueCLI(cfg.RedisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: connect queue: %v\n", err)
		return subcommands.ExitFailure
	}
	defer func() {
		_ = cli.Close()
	}()
	return fn(cli)
}

// --- generateCmd ---

type generateCmd struct {
	itineraryID int64
}

func (*generateCmd) Name() string     { return "generate" }
func (*generateCmd) Synopsis() string { return "queues proposal generation for an itinerary" }
func (*generateCmd) Usage() string {
	return `generate -id <itinerary_id>

Enqueues a proposals:generate task. The worker rolls the itinerary's pricing
ledger up into proposals and stores them.
`
}
func (c *generateCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.itineraryID, "id", 0, "The itinerary id to roll up.")
}

func (c *generateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.itineraryID <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -id flag is required.")
		return subcommands.ExitUsageError
	}
	return withQueue(func(cli *queueCLI) subcommands.ExitStatus {
		taskID, err := cli.Generate(ctx, c.itineraryID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: enqueue: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("queued %s for itinerary %d\n", taskID, c.itineraryID)
		return subcommands.ExitSuccess
	})
}

// --- queueCmd ---

type queueCmd struct{}

func (*queueCmd) Name() string     { return "queue" }
func (*queueCmd) Synopsis() string { return "prints the default queue counters" }
func (*queueCmd) Usage() string {
	return `queue

Prints pending, active, scheduled, retry and archived counts of the default queue.
`
}
func (*queueCmd) SetFlags(*flag.FlagSet) {}

func (*queueCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withQueue(func(cli *queueCLI) subcommands.ExitStatus {
		stats, err := cli.Stats()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: inspect queue: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived)
		return subcommands.ExitSuccess
	})
}

// --- taskCmd ---

type taskCmd struct {
	id string
}

func (*taskCmd) Name() string     { return "task" }
func (*taskCmd) Synopsis() string { return "shows the state of a queued task" }
func (*taskCmd) Usage() string {
	return `task -id <task_id>

Prints the type, state and last error of a task returned by generate.
`
}
func (c *taskCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "The task id printed by generate.")
}

func (c *taskCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		fmt.Fprintln(os.Stderr, "Error: -id flag is required.")
		return subcommands.ExitUsageError
	}
	return withQueue(func(cli *queueCLI) subcommands.ExitStatus {
		info, err := cli.Task(c.id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: task info: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("task=%s type=%s state=%s\n", info.ID, info.Type, info.State)
		if info.LastErr != "" {
			fmt.Printf("last error: %s\n", info.LastErr)
		}
		return subcommands.ExitSuccess
	})
}
