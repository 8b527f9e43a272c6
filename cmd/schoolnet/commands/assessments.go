package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gradecam/schoolnet-client/pkg/schoolnet"
)

// NewAssessmentsCommand creates the assessments command.
func NewAssessmentsCommand() *cobra.Command {
	var (
		modifiedSince string
		flags         ListFlags
	)

	cmd := &cobra.Command{
		Use:   "assessments",
		Short: "List assessments",
		Long:  "List scheduled, in-progress and completed multiple-choice assessments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &schoolnet.AssessmentsOptions{}

			if modifiedSince != "" {
				since, err := ParseDate(modifiedSince)
				if err != nil {
					return err
				}

				opts.ModifiedSince = since
			}

			listOpts := flags.Options(cmd)
			opts.Limit = listOpts.Limit
			opts.Offset = listOpts.Offset

			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			assessments, err := client.GetAssessments(cmd.Context(), opts)
			if err != nil {
				return err
			}

			return Output(cmd.OutOrStdout(), assessments)
		},
	}

	cmd.Flags().StringVar(&modifiedSince, "modified-since", "", "only assessments modified since this date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&flags.Limit, "limit", 0, "page size (fetches a single page)")
	cmd.Flags().IntVar(&flags.Offset, "offset", 0, "starting offset (fetches a single page)")

	return cmd
}

// NewAssessmentCommand creates the assessment command.
func NewAssessmentCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "assessment ASSESSMENT",
		Short: "Get an assessment",
		Long:  "Display an assessment with its questions and schedule. ASSESSMENT is an id or a JSON object with id or instanceId",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefGet(cmd, args[0], func(c schoolnet.Client, ref schoolnet.Ref) (schoolnet.Record, error) {
				return c.GetAssessment(cmd.Context(), ref)
			})
		},
	}
}

// NewPutStudentAssessmentCommand creates the put-student-assessment command.
func NewPutStudentAssessmentCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "put-student-assessment [JSON]",
		Short: "Write a student assessment result",
		Long: `Write a student assessment result. The JSON object must carry an assessmentId.
It is read from the argument, from --file, or from stdin when neither is given.
The write is attempted once; a failed write exits non-zero.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readRecordInput(cmd, args, file)
			if err != nil {
				return err
			}

			record, err := ParseRecord(data)
			if err != nil {
				return err
			}

			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			result := client.PutStudentAssessment(cmd.Context(), record)

			err = Output(cmd.OutOrStdout(), result)
			if err != nil {
				return err
			}

			return result.Err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read the student assessment from a JSON file")

	return cmd
}

func readRecordInput(cmd *cobra.Command, args []string, file string) ([]byte, error) {
	switch {
	case len(args) == 1:
		return []byte(args[0]), nil
	case file != "":
		data, err := os.ReadFile(filepath.Clean(file))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}

		return data, nil
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}

		return data, nil
	}
}
