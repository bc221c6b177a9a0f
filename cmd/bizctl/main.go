package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bizinsight360/bizinsight360/cmd/bizctl/cli"
)

const usage = `usage: bizctl [-redis addr] <command>

commands:
  stats              show counters for every queue
  archived [n]       list tasks that exhausted their retries
  trigger <job>      enqueue a maintenance job (%s)
  test-email <to>    enqueue a test email through the worker
`

func main() {
	redisAddr := flag.String("redis", envOr("REDIS_ADDR", "127.0.0.1:6379"), "redis address")
	flag.Usage = func() { fmt.Fprintf(os.Stderr, usage, strings.Join(cli.TriggerableJobs, ", ")) }
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := cli.NewJobsCLI(*redisAddr)
	defer c.Close()

	if err := run(ctx, c, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "bizctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *cli.JobsCLI, args []string) error {
	if len(args) == 0 {
		flag.Usage()
		return fmt.Errorf("missing command")
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	switch args[0] {
	case "stats":
		stats, err := c.InspectQueues(ctx)
		if err != nil {
			return err
		}
		return enc.Encode(stats)
	case "archived":
		size := 10
		if len(args) > 1 {
			if _, err := fmt.Sscanf(args[1], "%d", &size); err != nil {
				return fmt.Errorf("invalid size %q", args[1])
			}
		}
		tasks, err := c.ListArchived(ctx, size)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			fmt.Printf("%s\t%s\t%s\t%s\n", t.Queue, t.ID, t.Type, t.LastErr)
		}
		return nil
	case "trigger":
		if len(args) < 2 {
			return fmt.Errorf("trigger requires a job name")
		}
		info, err := c.Trigger(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("enqueued %s (%s)\n", info.Type, info.ID)
		return nil
	case "test-email":
		if len(args) < 2 {
			return fmt.Errorf("test-email requires a recipient")
		}
		info, err := c.SendTestEmail(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("enqueued %s (%s)\n", info.Type, info.ID)
		return nil
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
