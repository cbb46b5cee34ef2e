package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// modelOutput represents the filtered output for a model artifact
type modelOutput struct {
	Name      string `json:"name"`
	Prompt    string `json:"prompt"`
	CreatedAt string `json:"created_at"`
}

func init() {
	downloadModelCmd.Flags().StringP("output", "o", "", "Output file (defaults to <name>.zip)")

	modelsCmd.AddCommand(listModelsCmd)
	modelsCmd.AddCommand(downloadModelCmd)
	modelsCmd.AddCommand(deleteModelCmd)
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage trained models",
}

var listModelsCmd = &cobra.Command{
	Use:   "list",
	Short: "List trained models, newest first",
	RunE: func(_ *cobra.Command, _ []string) error {
		models, err := apiClient.ListModels(context.Background())
		if err != nil {
			return fmt.Errorf("error fetching models: %w", err)
		}

		output := make([]modelOutput, len(models))
		for i, m := range models {
			output[i] = modelOutput{
				Name:      m.Name,
				Prompt:    m.Prompt,
				CreatedAt: m.CreatedAt.Format("2006-01-02 15:04:05"),
			}
		}

		out, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var downloadModelCmd = &cobra.Command{
	Use:   "download <name>",
	Short: "Download a trained model as a zip archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = args[0] + ".zip"
		}

		archive, err := apiClient.DownloadModel(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("error downloading model: %w", err)
		}
		if err := os.WriteFile(output, archive, 0o644); err != nil {
			return fmt.Errorf("error writing archive: %w", err)
		}

		fmt.Printf("Saved model %s to %s\n", args[0], output)
		return nil
	},
}

var deleteModelCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a trained model",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if err := apiClient.DeleteModel(context.Background(), args[0]); err != nil {
			return fmt.Errorf("error deleting model: %w", err)
		}

		fmt.Printf("Deleted model %s\n", args[0])
		return nil
	},
}
