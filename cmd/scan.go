package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
)

// ScanCommand returns the CLI command for running exactly one scan cycle
func ScanCommand() *cli.Command {
	return &cli.Command{
		Name:   "scan",
		Usage:  "Run one scan cycle and exit",
		Action: runScan,
	}
}

func runScan(c *cli.Context) error {
	cfg, err := loadAndValidate(c)
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	controller, err := buildController(ctx, cfg)
	if err != nil {
		return err
	}

	result, err := controller.RunCycle(ctx)
	if err != nil {
		return fmt.Errorf("scan cycle failed: %w", err)
	}

	fmt.Printf("Scanned %d candidates: %d replied, %d skipped, %d failed\n",
		result.Candidates, result.Replied, result.Skipped, result.Failed)
	return nil
}
