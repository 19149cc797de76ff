package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"relief/internal/platform/database"
	"relief/internal/platform/redis"
)

func newCheckCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check store and Redis connectivity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return runCheck(ctx)
		},
	}
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 5*time.Second, "Timeout for the checks")
	return cmd
}

func runCheck(ctx context.Context) error {
	cfg, _, err := loadConfig()
	if err != nil {
		failLine.Println("✗", err)
		return err
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		failLine.Println("✗ database:", err)
		return err
	}
	defer db.Close()
	okLine.Printf("✓ database (%s) is reachable\n", cfg.Database.Driver)

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		failLine.Println("✗ redis:", err)
		return err
	}
	if rc == nil {
		infoLine.Println("  redis not configured, rate limiting stays in process")
		return nil
	}
	defer rc.Close()
	okLine.Println("✓ redis is reachable")
	return nil
}
