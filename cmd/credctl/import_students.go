package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var importStudentsCmd = &cobra.Command{
	Use:   "import-students <file.csv>",
	Short: "Upsert students from a CSV file",
	Long:  "The CSV needs a header row with student_id and name; email, program and year are optional.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		file, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer file.Close()

		container, err := openContainer(ctx)
		if err != nil {
			return err
		}
		defer container.Close()

		report, err := container.Students.Import(ctx, file)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(report)
		}

		fmt.Printf("Imported %d rows, %d failed\n", report.Imported, report.Failed)
		for _, row := range report.Rows {
			if row.Error != "" {
				fmt.Printf("  line %d (%s): %s\n", row.Line, row.StudentID, row.Error)
			}
		}
		return nil
	},
}
