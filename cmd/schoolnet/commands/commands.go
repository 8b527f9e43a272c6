// Package commands implements the schoolnet CLI subcommands.
package commands

import "github.com/spf13/cobra"

// AddCommands registers every subcommand on root.
func AddCommands(root *cobra.Command, version, commit, date string) {
	root.AddCommand(NewVersionCommand(version, commit, date))
	root.AddCommand(NewConfigCommand())
	root.AddCommand(NewTokenCommand())
	root.AddCommand(NewTenantsCommand())
	root.AddCommand(NewDistrictsCommand())
	root.AddCommand(NewSchoolsCommand())
	root.AddCommand(NewSchoolCommand())
	root.AddCommand(NewSectionsCommand())
	root.AddCommand(NewSectionCommand())
	root.AddCommand(NewStudentsCommand())
	root.AddCommand(NewStaffCommand())
	root.AddCommand(NewStaffSectionsCommand())
	root.AddCommand(NewAssessmentsCommand())
	root.AddCommand(NewAssessmentCommand())
	root.AddCommand(NewPutStudentAssessmentCommand())
}
