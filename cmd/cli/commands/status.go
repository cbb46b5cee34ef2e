package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atelierml/atelier/internal/types"
)

func init() {
	statusCmd.Flags().StringP("kind", "k", string(types.JobKindTraining), "Job kind to query: training or inference")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current job status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		kind, _ := cmd.Flags().GetString("kind")

		var (
			status types.JobStatus
			err    error
		)
		switch types.JobKind(kind) {
		case types.JobKindTraining:
			status, err = apiClient.TrainingStatus(context.Background())
		case types.JobKindInference:
			status, err = apiClient.GenerationStatus(context.Background())
		default:
			return fmt.Errorf("unknown job kind %q", kind)
		}
		if err != nil {
			return fmt.Errorf("error fetching status: %w", err)
		}

		out, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var terminateCmd = &cobra.Command{
	Use:   "terminate [training|inference]",
	Short: "Request cancellation of the active job",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		var err error
		switch types.JobKind(args[0]) {
		case types.JobKindTraining:
			err = apiClient.TerminateTraining(context.Background())
		case types.JobKindInference:
			err = apiClient.TerminateGeneration(context.Background())
		default:
			return fmt.Errorf("unknown job kind %q", args[0])
		}
		if err != nil {
			return fmt.Errorf("error requesting termination: %w", err)
		}

		fmt.Println("Termination signal sent.")
		return nil
	},
}
