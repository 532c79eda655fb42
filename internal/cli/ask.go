package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"cmsrag/internal/domain"
)

var (
	askQuestion string
	askTopK     int
	askJSON     bool
	askNoCtx    bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask a single question about the methodology report",
	Long: `Retrieve the most relevant passages for a question and answer it from them.

Examples:
  cmsrag ask -q "What is the readmission window?"
  cmsrag ask -q "Which admissions are excluded?" --top-k 8
  cmsrag ask -q "How is risk adjustment done?" --json`,
	Args: cobra.NoArgs,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "question to ask (required)")
	askCmd.Flags().IntVar(&askTopK, "top-k", 0, "number of passages to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the answer and context as JSON")
	askCmd.Flags().BoolVar(&askNoCtx, "no-context", false, "print only the answer")
	askCmd.MarkFlagRequired("question")

	rootCmd.AddCommand(askCmd)
}

type askOutput struct {
	Question string          `json:"question"`
	Answer   string          `json:"answer"`
	Context  []contextOutput `json:"context"`
}

type contextOutput struct {
	ID       string  `json:"id"`
	FileName string  `json:"file_name"`
	Page     int     `json:"page"`
	Score    float64 `json:"score"`
	Text     string  `json:"text"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

	if strings.TrimSpace(askQuestion) == "" {
		return fmt.Errorf("%w: question must not be empty", domain.ErrInvalidInput)
	}
	if askTopK < 0 {
		return fmt.Errorf("%w: --top-k must be positive", domain.ErrInvalidInput)
	}
	if askTopK > 0 {
		cfg.Retrieve.TopK = askTopK
	}

	stack, err := openQueryStack(ctx, cfg)
	if err != nil {
		return err
	}
	defer stack.Close()

	answer, retrieved, err := stack.assistant.AnswerQuestion(ctx, askQuestion, nil)
	if err != nil {
		return err
	}

	if askJSON {
		return writeAskJSON(askQuestion, answer, retrieved)
	}

	renderAnswer(os.Stdout, answer)
	if !askNoCtx {
		fmt.Println()
		renderContext(os.Stdout, retrieved)
	}
	return nil
}

func writeAskJSON(question, answer string, retrieved domain.RetrievalResult) error {
	out := askOutput{
		Question: question,
		Answer:   answer,
		Context:  make([]contextOutput, 0, len(retrieved)),
	}
	for _, sc := range retrieved {
		out.Context = append(out.Context, contextOutput{
			ID:       sc.Chunk.ID,
			FileName: sc.Chunk.Metadata.FileName,
			Page:     sc.Chunk.Metadata.Page,
			Score:    sc.Score,
			Text:     sc.Chunk.Text,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
