package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/agui-dev/agui-go/agui"
	"github.com/agui-dev/agui-go/agui/pkg/constants"
)

var (
	serverFlag  string
	timeoutFlag int
)

func main() {
	configureLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error while connecting or receiving data: %v\n", err)
		os.Exit(1)
	}
}

func configureLogging() {
	level, err := zerolog.ParseLevel(os.Getenv(constants.EnvLogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "agui [question]",
		Short:         "Send a question to an ag-ui agent server and stream the replies",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runAsk,
	}

	cmd.Flags().StringVar(&serverFlag, "server", "",
		"full ag-ui server URL (defaults to $AG_UI_SERVER or the registry default)")
	cmd.Flags().IntVar(&timeoutFlag, "timeout", constants.DefaultTimeoutSeconds,
		"connect/read timeout in seconds")

	cmd.AddCommand(serversCmd(), versionCmd())
	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	client, err := agui.New(agui.Config{
		ServerURL:      serverFlag,
		TimeoutSeconds: timeoutFlag,
	})
	if err != nil {
		return err
	}

	var question string
	if len(args) > 0 {
		question = args[0]
	}
	if question == "" {
		question, err = promptQuestion(cmd)
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Connecting to %s...\n\n", client.ServerURL())

	ctx := cmd.Context()
	stream, err := client.Stream(ctx, question)
	if err != nil {
		return interrupted(cmd, err)
	}
	defer stream.Close()

	for {
		message, more, err := stream.Next(ctx)
		if err != nil {
			return interrupted(cmd, err)
		}
		if !more {
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), message.Text)
	}
}

// interrupted turns a Ctrl-C cancellation into a quiet exit instead of an
// error report.
func interrupted(cmd *cobra.Command, err error) error {
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(cmd.OutOrStdout(), "\nInterrupted.")
		return nil
	}
	return err
}

func promptQuestion(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), "What would you like to ask the agent? ")

	reader := bufio.NewReader(cmd.InOrStdin())
	line, _ := reader.ReadString('\n')
	question := strings.TrimSpace(line)
	if question == "" {
		return "", fmt.Errorf("no question was provided")
	}
	return question, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the agui version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "agui %s\n", agui.Version)
		},
	}
}
