package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/railsight/sidenum/internal/ocr"
	"github.com/railsight/sidenum/internal/utils"
)

// recognizeCmd runs the recognition engine once on an image file.
var recognizeCmd = &cobra.Command{
	Use:   "recognize [image]",
	Short: "Recognize text in a single image",
	Long: `Run the three-stage recognition pipeline on one image and print the
recognized text regions with their confidence scores. Useful for model and
threshold tuning without the full service.

Examples:
  sidenum recognize frame.jpg
  sidenum recognize frame.jpg --models-dir /opt/sidenum/models`,
	Args: cobra.ExactArgs(1),
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)
}

func runRecognize(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	log := slog.Default()

	img, err := utils.LoadImage(args[0])
	if err != nil {
		return err
	}

	engine, err := ocr.NewEngine(cfg.EngineConfig(), log)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	result, err := engine.Recognize(img)
	if err != nil {
		return err
	}

	if len(result.Texts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no text found")
		return nil
	}
	for i, text := range result.Texts {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.3f\n", text, result.Scores[i])
	}
	return nil
}
