package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gogogo/cmd/api"
	"gogogo/cmd/worker"
	"gogogo/internal/cli"
)

func main() {
	// quick path for global help
	if len(os.Args) == 2 && (os.Args[1] == "--help" || os.Args[1] == "-h") {
		cli.PrintUsage(os.Stdout)
		os.Exit(0)
	}

	// parse mode and collect the remaining args for that mode
	mode, svcArgs, err := cli.ParseMode(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cli.PrintUsage(os.Stderr)
		os.Exit(2)
	}

	// context cancelled on SIGINT/SIGTERM for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch mode {

	case cli.ModeAPI:
		fs := flag.NewFlagSet(cli.ModeAPI, flag.ContinueOnError)
		configPath := fs.String("config", "config/config.yaml", "Path to the YAML config file")
		maxConc := fs.Int("max-concurrent", 100, "Maximum number of concurrent HTTP requests to process")
		parseFlags(fs, cli.ModeAPI, svcArgs)

		if *maxConc < 1 {
			fmt.Fprintln(os.Stderr, "Error: --max-concurrent must be >= 1")
			fs.Usage()
			os.Exit(2)
		}
		if err := api.Run(ctx, *configPath, *maxConc); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	case cli.ModeWorker:
		fs := flag.NewFlagSet(cli.ModeWorker, flag.ContinueOnError)
		configPath := fs.String("config", "config/config.yaml", "Path to the YAML config file")
		prefetch := fs.Int("prefetch", 0, "RabbitMQ prefetch count (0 uses rabbitmq.prefetch from config)")
		maxConc := fs.Int("max-concurrent", 0, "Maximum number of match jobs processed at once (0 uses prefetch)")
		parseFlags(fs, cli.ModeWorker, svcArgs)

		if *prefetch < 0 || *maxConc < 0 {
			fmt.Fprintln(os.Stderr, "Error: --prefetch and --max-concurrent cannot be negative")
			fs.Usage()
			os.Exit(2)
		}
		if err := worker.Run(ctx, *configPath, *prefetch, *maxConc); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	case cli.ModeToken:
		fs := flag.NewFlagSet(cli.ModeToken, flag.ContinueOnError)
		secret := fs.String("secret", os.Getenv("WEBHOOK_SIGNING_SECRET"), "HMAC secret shared with the bot")
		event := fs.String("event", "new_offer_found", "Event name carried in the token")
		ttl := fs.Duration("ttl", 5*time.Minute, "Token lifetime")
		parseFlags(fs, cli.ModeToken, svcArgs)

		token, claims, err := cli.GenerateWebhookToken(*secret, "gogogo-worker", *event, *ttl)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		fmt.Println(token)
		fmt.Fprintf(os.Stderr, "expires at %s\n", claims.ExpiresAt.Time.Format(time.RFC3339))

	default:
		// should not happen because ParseMode validates known modes
		fmt.Fprintln(os.Stderr, "Error: unknown mode")
		os.Exit(2)
	}
}

// parseFlags parses mode flags, exiting on -h or a bad flag.
func parseFlags(fs *flag.FlagSet, mode string, args []string) {
	cli.AttachUsage(fs, mode)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
}
