package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arbiterhq/arbiter/internal/config"
	"github.com/arbiterhq/arbiter/pkg/models"
)

var (
	lessonsSearch string
	lessonsLimit  int
)

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "Browse lessons captured from past runs",
	Long: `List reflection records from the experience store. Each record
holds the risks identified before a run, the lessons extracted after
it, and how the run was classified. With --search, records related to
the query are ranked by keyword overlap.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		store, err := openExperienceStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		var records []*models.ReflectionRecord
		if lessonsSearch != "" {
			records, err = store.QueryRelated(cmd.Context(), lessonsSearch, lessonsLimit)
		} else {
			records, err = store.List(cmd.Context(), lessonsLimit)
		}
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("no lessons recorded yet")
			return nil
		}

		for _, rec := range records {
			printRecord(rec)
		}
		return nil
	},
}

func init() {
	lessonsCmd.Flags().StringVarP(&lessonsSearch, "search", "s", "", "Rank records related to this query")
	lessonsCmd.Flags().IntVar(&lessonsLimit, "limit", 10, "Maximum records to show")
}

func printRecord(rec *models.ReflectionRecord) {
	class := string(rec.Classification)
	switch rec.Classification {
	case models.OutcomeSucceeded:
		class = color.GreenString(class)
	case models.OutcomeSucceededWithCaveats:
		class = color.YellowString(class)
	case models.OutcomeFailed:
		class = color.RedString(class)
	}
	fmt.Printf("%s  %s  %s\n", rec.CreatedAt.Format("2006-01-02 15:04"), class, rec.Goal)
	for _, lesson := range rec.Lessons {
		fmt.Printf("    - %s\n", lesson)
	}
}
