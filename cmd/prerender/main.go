// Command prerender regenerates category page snapshots. It runs from the
// build pipeline for every category, from the EventBridge schedule as a
// Lambda, or by hand for a single category.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"dashboard/application/commands"
	"dashboard/application/queries"
	"dashboard/infrastructure/config"
	"dashboard/infrastructure/di"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var trigger string

var rootCmd = &cobra.Command{
	Use:           "prerender",
	Short:         "Generate explore category snapshots",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Regenerate every category",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd.Context(), func(ctx context.Context, c *di.Container) error {
			return c.CommandBus.Send(ctx, commands.PrerenderAllCommand{Trigger: trigger})
		})
	},
}

var categoryCmd = &cobra.Command{
	Use:   "category <id>",
	Short: "Regenerate one category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd.Context(), func(ctx context.Context, c *di.Container) error {
			return c.CommandBus.Send(ctx, commands.PrerenderCategoryCommand{
				CategoryID: args[0],
				Trigger:    commands.TriggerRevalidate,
				Owner:      "cli",
			})
		})
	},
}

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "List the category ids that have a page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd.Context(), func(ctx context.Context, c *di.Container) error {
			result, err := c.QueryBus.Ask(ctx, queries.ListCategoryPathsQuery{})
			if err != nil {
				return err
			}
			for _, p := range result.(*queries.ListCategoryPathsResult).Paths {
				fmt.Fprintln(cmd.OutOrStdout(), p.Category)
			}
			return nil
		})
	},
}

func init() {
	allCmd.Flags().StringVar(&trigger, "trigger", commands.TriggerBuild, "trigger recorded on the snapshots (build or schedule)")
	rootCmd.AddCommand(allCmd, categoryCmd, pathsCmd)
}

func withContainer(ctx context.Context, fn func(context.Context, *di.Container) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize container: %w", err)
	}
	defer container.Close(context.Background())
	return fn(ctx, container)
}

// scheduleDetail is the optional detail of the scheduled event. An empty
// category regenerates every page.
type scheduleDetail struct {
	Category string `json:"category"`
}

func handleSchedule(ctx context.Context, event events.CloudWatchEvent) error {
	var detail scheduleDetail
	if len(event.Detail) > 0 {
		if err := json.Unmarshal(event.Detail, &detail); err != nil {
			return fmt.Errorf("decode event detail: %w", err)
		}
	}

	return withContainer(ctx, func(ctx context.Context, c *di.Container) error {
		c.Logger.Info("Scheduled prerender",
			zap.String("eventId", event.ID),
			zap.String("category", detail.Category),
		)
		if detail.Category == "" {
			return c.CommandBus.Send(ctx, commands.PrerenderAllCommand{Trigger: commands.TriggerSchedule})
		}
		return c.CommandBus.Send(ctx, commands.PrerenderCategoryCommand{
			CategoryID: detail.Category,
			Trigger:    commands.TriggerSchedule,
			Owner:      "schedule",
		})
	})
}

func main() {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(handleSchedule)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "prerender:", err)
		os.Exit(1)
	}
}
