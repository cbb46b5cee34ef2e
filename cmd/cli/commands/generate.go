package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atelierml/atelier/internal/types"
)

func init() {
	generateCmd.Flags().StringP("prompt", "p", "", "Prompt to generate from")
	generateCmd.Flags().StringP("negative-prompt", "n", "", "Negative prompt")
	generateCmd.Flags().Int("steps", 0, "Number of sampling steps (0 = engine default)")
	_ = generateCmd.MarkFlagRequired("prompt")
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Start an image-generation job",
	RunE: func(cmd *cobra.Command, _ []string) error {
		prompt, _ := cmd.Flags().GetString("prompt")
		negative, _ := cmd.Flags().GetString("negative-prompt")
		steps, _ := cmd.Flags().GetInt("steps")

		req := types.GenerateRequest{
			Prompt:         prompt,
			NegativePrompt: negative,
			Steps:          steps,
		}
		if err := apiClient.StartGeneration(context.Background(), req); err != nil {
			return fmt.Errorf("error starting generation: %w", err)
		}

		fmt.Println("Generation started. Poll with: atelier status --kind inference")
		return nil
	},
}
