package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stwalsh4118/lineup/internal/logger"
	"github.com/stwalsh4118/lineup/internal/server"
)

var (
	generateChannelID    string
	materializeChannelID string
	commandTimeout       time.Duration
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Fill one channel's infinite schedule buffer and exit",
	Long: `Runs a single generation pass for the channel, extending its generated
timeline up to the schedule's buffer horizon.

Examples:
  lineup generate --channel 5f1c0d2e-7a4b-4f3e-9a51-0d8c1e2b3a4f`,
	RunE: runGenerate,
}

var materializeCmd = &cobra.Command{
	Use:   "materialize",
	Short: "Print one channel's materialized schedule as JSON",
	RunE:  runMaterialize,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(materializeCmd)

	generateCmd.Flags().StringVar(&generateChannelID, "channel", "", "Channel ID (required)")
	_ = generateCmd.MarkFlagRequired("channel")
	materializeCmd.Flags().StringVar(&materializeChannelID, "channel", "", "Channel ID (required)")
	_ = materializeCmd.MarkFlagRequired("channel")

	rootCmd.PersistentFlags().DurationVar(&commandTimeout, "timeout", 5*time.Minute, "Deadline for one-off commands")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	channelID, err := uuid.Parse(generateChannelID)
	if err != nil {
		return fmt.Errorf("invalid --channel: %w", err)
	}

	database, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	services := server.NewServices(cfg, database)
	result, err := services.Generator.GenerateBuffer(ctx, channelID)
	if err != nil {
		return err
	}

	logger.Log.Info().
		Str("channel_id", channelID.String()).
		Int("items_written", result.ItemsWritten).
		Int("batches", result.Batches).
		Int64("high_water_mark", result.NewHighWaterMark).
		Msg("Buffer generated")
	return nil
}

func runMaterialize(cmd *cobra.Command, args []string) error {
	channelID, err := uuid.Parse(materializeChannelID)
	if err != nil {
		return fmt.Errorf("invalid --channel: %w", err)
	}

	database, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	services := server.NewServices(cfg, database)
	materialized, err := services.Materializer.Materialize(ctx, channelID)
	if err != nil {
		return err
	}
	if materialized == nil {
		return fmt.Errorf("channel %s has no schedule", channelID)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(materialized)
}
