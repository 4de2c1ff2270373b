package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/coderegistry/internal/api/client"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type globalFlags struct {
	server  string
	timeout time.Duration
	json    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdout).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(exitCode(err))
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "regctl",
		Short: "Inspect release bundles and talk to a code registry",
		Long: `regctl reads release bundles from disk and publishes them to a code
registry server, and queries what accounts have published.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&flags.server, "server", envOr("REGISTRY_URL", "http://localhost:8000"), "Registry server URL")
	root.PersistentFlags().DurationVar(&flags.timeout, "timeout", 30*time.Second, "Request timeout")
	root.PersistentFlags().BoolVar(&flags.json, "json", false, "Print JSON")

	root.AddCommand(
		inspectCmd(flags),
		publishCmd(flags),
		getCmd(flags),
		watchCmd(flags),
		versionCmd(),
	)
	return root
}

func (f *globalFlags) client() *client.Client {
	opts := client.DefaultOptions()
	opts.Timeout = f.timeout
	return client.New(f.server, opts)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
