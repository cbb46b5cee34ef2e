package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/atelierml/atelier/internal/types"
)

func init() {
	trainCmd.Flags().StringSliceP("image", "i", nil, "Training image file (repeatable, or a glob pattern)")
	trainCmd.Flags().String("base-model", "runwayml/stable-diffusion-v1-5", "Base model to fine-tune")
	trainCmd.Flags().String("instance-prompt", "", "Instance prompt describing the subject")
	trainCmd.Flags().Int("steps", 500, "Number of training steps")
	trainCmd.Flags().Float64("learning-rate", 0.0001, "Learning rate")
	trainCmd.Flags().Int("resolution", 512, "Training resolution")
	trainCmd.Flags().Int("batch-size", 1, "Training batch size")
	_ = trainCmd.MarkFlagRequired("image")
	_ = trainCmd.MarkFlagRequired("instance-prompt")
}

// expandImageArgs resolves glob patterns in the image flags to file paths.
func expandImageArgs(patterns []string) ([]string, error) {
	var paths []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid image pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match image pattern %q", pattern)
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Start a fine-tuning job from a set of images",
	RunE: func(cmd *cobra.Command, _ []string) error {
		images, _ := cmd.Flags().GetStringSlice("image")
		baseModel, _ := cmd.Flags().GetString("base-model")
		instancePrompt, _ := cmd.Flags().GetString("instance-prompt")
		steps, _ := cmd.Flags().GetInt("steps")
		learningRate, _ := cmd.Flags().GetFloat64("learning-rate")
		resolution, _ := cmd.Flags().GetInt("resolution")
		batchSize, _ := cmd.Flags().GetInt("batch-size")

		paths, err := expandImageArgs(images)
		if err != nil {
			return err
		}

		req := types.TrainingRequest{
			BaseModel:      baseModel,
			InstancePrompt: instancePrompt,
			Steps:          steps,
			LearningRate:   learningRate,
			Resolution:     resolution,
			TrainBatchSize: batchSize,
		}
		resp, err := apiClient.StartTraining(context.Background(), req, paths)
		if err != nil {
			return fmt.Errorf("error starting training: %w", err)
		}

		fmt.Printf("Training started. Model will be saved to %s\n", resp.OutputDir)
		fmt.Println("Poll with: atelier status --kind training")
		return nil
	},
}
