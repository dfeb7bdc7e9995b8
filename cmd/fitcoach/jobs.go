package main

import (
	"alcyxob/fitcoach/internal/config"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var markOverdueCmd = &cobra.Command{
	Use:   "mark-overdue",
	Short: "Store the overdue status on every open task past its due date, then exit",
	Long:  "Runs the overdue batch once. Meant to be scheduled from cron.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		repos, err := openRepositories(cfg.Database)
		if err != nil {
			return err
		}
		defer repos.close()

		ctx, cancel := context.WithTimeout(cmdContext(cmd), time.Minute)
		defer cancel()
		n, err := repos.taskService(nil).UpdateOverdueTasks(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d tasks marked overdue\n", n)
		return nil
	},
}

var ensureIndexesCmd = &cobra.Command{
	Use:   "ensure-indexes",
	Short: "Create the MongoDB indexes and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Database.Driver != config.DriverMongo {
			return errors.New("ensure-indexes needs database.driver=mongo")
		}
		ctx, cancel := context.WithTimeout(cmdContext(cmd), time.Minute)
		defer cancel()
		ensureIndexes(ctx, cfg)
		return nil
	},
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
