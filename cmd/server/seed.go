package main

import (
	"context"

	"github.com/spf13/cobra"

	"relief/internal/relief/seed"
)

func newSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create fixture rows from a YAML file",
		Long: `Create fixture rows through the same validation as the API.

Examples:
  relief seed --file fixtures.yaml
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd.Context(), file)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "fixtures.yaml", "YAML fixture file")
	return cmd
}

func runSeed(ctx context.Context, file string) error {
	fixtures, err := seed.Load(file)
	if err != nil {
		failLine.Println("✗", err)
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		failLine.Println("✗", err)
		return err
	}
	defer a.Close()

	created, err := seed.Apply(ctx, a.module.Coordinator, fixtures, a.logger)
	for _, c := range created {
		infoLine.Printf("  %s %s=%d\n", c.Resource, c.Key, c.ID)
	}
	if err != nil {
		failLine.Println("✗ seeding stopped:", err)
		return err
	}
	okLine.Printf("✓ seeded %d rows\n", len(created))
	return nil
}
