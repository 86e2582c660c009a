package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/faceproctor/faceproctor/internal/ai"
	"github.com/faceproctor/faceproctor/internal/exam"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Question set management commands",
}

var questionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the active question set",
	RunE:  runQuestionsList,
}

var questionsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a question set with an LLM",
	Long: `Generate a multiple-choice question set and write it as the
active question file. Requires OPENAI_TOKEN or GEMINI_API_KEY.

Examples:
  faceproctor questions generate --topic "computer networks"
  faceproctor questions generate --topic databases --count 15 --provider gemini`,
	RunE: runQuestionsGenerate,
}

func init() {
	rootCmd.AddCommand(questionsCmd)
	questionsCmd.AddCommand(questionsListCmd)
	questionsCmd.AddCommand(questionsGenerateCmd)

	questionsGenerateCmd.Flags().String("topic", "", "Subject area for the questions (required)")
	questionsGenerateCmd.Flags().Int("count", 10, "Number of questions to generate")
	questionsGenerateCmd.Flags().String("provider", "openai", "LLM provider (openai or gemini)")
	questionsGenerateCmd.Flags().Bool("dry-run", false, "Print the questions without writing the question file")
	_ = questionsGenerateCmd.MarkFlagRequired("topic")
}

func runQuestionsList(cmd *cobra.Command, args []string) error {
	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	questions, err := exam.LoadQuestions(a.cfg.Data.QuestionsPath())
	if err != nil {
		return err
	}
	source := "file"
	if questions == nil {
		questions = exam.DefaultQuestions()
		source = "builtin"
	}

	fmt.Printf("Active question set (%s, %d questions):\n\n", source, len(questions))
	printQuestions(questions)
	return nil
}

func runQuestionsGenerate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	topic := mustGetString(cmd, "topic")
	count := mustGetInt(cmd, "count")
	dryRun := mustGetBool(cmd, "dry-run")

	provider, err := questionProvider(ctx, a, mustGetString(cmd, "provider"))
	if err != nil {
		return err
	}

	fmt.Printf("Generating %d questions about %q with %s...\n", count, topic, provider.Name())

	questions, err := provider.GenerateQuestions(ctx, topic, count)
	if err != nil {
		return err
	}

	usage := provider.GetUsage()
	fmt.Printf("Done (%d input tokens, %d output tokens)\n\n", usage.InputTokens, usage.OutputTokens)
	printQuestions(questions)

	if dryRun {
		fmt.Println("\nDry run, question file unchanged")
		return nil
	}

	if err := exam.SaveQuestions(a.cfg.Data.QuestionsPath(), questions); err != nil {
		return err
	}
	fmt.Printf("\nWrote %s\n", a.cfg.Data.QuestionsPath())
	return nil
}

func questionProvider(ctx context.Context, a *app, name string) (ai.Provider, error) {
	switch name {
	case "openai":
		if a.cfg.OpenAI.Token == "" {
			return nil, errors.New("OPENAI_TOKEN environment variable is required")
		}
		return ai.NewOpenAIProvider(a.cfg.OpenAI.Token), nil
	case "gemini":
		if a.cfg.Gemini.APIKey == "" {
			return nil, errors.New("GEMINI_API_KEY environment variable is required")
		}
		return ai.NewGeminiProvider(ctx, a.cfg.Gemini.APIKey)
	default:
		return nil, fmt.Errorf("unknown provider %q (use openai or gemini)", name)
	}
}

func printQuestions(questions []exam.Question) {
	for i, q := range questions {
		fmt.Printf("%d. %s\n", i+1, q.Text)
		for j, opt := range q.Options {
			marker := " "
			if j == q.Answer {
				marker = "*"
			}
			fmt.Printf("   %s %s\n", marker, opt)
		}
	}
}
