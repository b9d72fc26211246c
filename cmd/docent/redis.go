package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docentlabs/docent/internal/config"
	"github.com/docentlabs/docent/internal/home"
	"github.com/docentlabs/docent/internal/redisctl"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Manage the Redis cache container",
	Long: `Manage the Redis cache container lifecycle.

The Redis backend for the response cache can run in a managed Docker
container with data persisted to ~/.docent/redis/.

Examples:
  docent redis start   # Start the Redis container
  docent redis stop    # Stop the container (data preserved)
  docent redis status  # Check container status
  docent redis logs    # View container logs`,
}

func getRedisManager() (*redisctl.DockerManager, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(h.RedisDataPath(), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create redis data directory: %w", err)
	}

	cm, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return nil, err
	}
	cfg := cm.Get()

	return redisctl.NewDockerManager(redisctl.DockerConfig{
		ContainerName: cfg.Redis.ContainerName,
		Image:         cfg.Redis.Image,
		DataPath:      h.RedisDataPath(),
		HostPort:      cfg.Redis.Port,
	})
}

var redisStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Redis cache container",
	Long: `Start the Redis cache container.

If the container doesn't exist, it will be created and started.
If it exists but is stopped, it will be started.
If it's already running, this is a no-op.

Data is persisted to ~/.docent/redis/.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getRedisManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		if err := mgr.ValidateExisting(ctx); err != nil {
			return fmt.Errorf("existing container mismatch: %w", err)
		}

		fmt.Println("Starting Redis...")
		if err := mgr.Start(ctx); err != nil {
			return fmt.Errorf("failed to start Redis: %w", err)
		}

		fmt.Printf("Redis is running at %s\n", mgr.Addr())
		return nil
	},
}

var redisStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the Redis cache container",
	Long: `Stop the Redis cache container.

This stops the container but preserves data. Use 'docent redis start'
to restart it later.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getRedisManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Stopping Redis...")
		if err := mgr.Stop(ctx); err != nil {
			return fmt.Errorf("failed to stop Redis: %w", err)
		}

		fmt.Println("Redis stopped")
		return nil
	},
}

var redisStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show Redis container status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getRedisManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		status, err := mgr.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}

		fmt.Printf("Status: %s\n", status)
		if status == redisctl.StatusRunning {
			fmt.Printf("Address: %s\n", mgr.Addr())
		}
		return nil
	},
}

var redisLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show Redis container logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getRedisManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		logs, err := mgr.Logs(ctx, "100")
		if err != nil {
			return err
		}
		fmt.Print(logs)
		return nil
	},
}

var redisRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Stop and remove the Redis container",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getRedisManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		if err := mgr.Remove(ctx); err != nil {
			return fmt.Errorf("failed to remove Redis: %w", err)
		}
		fmt.Println("Redis container removed")
		return nil
	},
}

func init() {
	redisCmd.AddCommand(redisStartCmd)
	redisCmd.AddCommand(redisStopCmd)
	redisCmd.AddCommand(redisStatusCmd)
	redisCmd.AddCommand(redisLogsCmd)
	redisCmd.AddCommand(redisRemoveCmd)
}
