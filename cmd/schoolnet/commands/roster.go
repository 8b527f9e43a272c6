package commands

import (
	"github.com/spf13/cobra"

	"github.com/gradecam/schoolnet-client/pkg/schoolnet"
)

// NewDistrictsCommand creates the districts command.
func NewDistrictsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "districts",
		Short: "List districts",
		Long:  "List every district visible to the configured credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			districts, err := client.GetDistricts(cmd.Context())
			if err != nil {
				return err
			}

			return Output(cmd.OutOrStdout(), districts)
		},
	}
}

// NewSchoolsCommand creates the schools command.
func NewSchoolsCommand() *cobra.Command {
	var flags ListFlags

	cmd := &cobra.Command{
		Use:   "schools DISTRICT",
		Short: "List schools in a district",
		Long:  "List the schools of a district. DISTRICT is an id or a JSON district object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefList(cmd, args[0], func(c schoolnet.Client, ref schoolnet.Ref) ([]schoolnet.Record, error) {
				return c.GetSchools(cmd.Context(), ref, flags.Options(cmd))
			})
		},
	}

	addListFlags(cmd, &flags)

	return cmd
}

// NewSchoolCommand creates the school command.
func NewSchoolCommand() *cobra.Command {
	var flags ListFlags

	cmd := &cobra.Command{
		Use:   "school SCHOOL",
		Short: "Get a school",
		Long:  "Display a single school. SCHOOL is an id or a JSON school object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefGet(cmd, args[0], func(c schoolnet.Client, ref schoolnet.Ref) (schoolnet.Record, error) {
				return c.GetSchool(cmd.Context(), ref, flags.Options(cmd))
			})
		},
	}

	addListFlags(cmd, &flags)

	return cmd
}

// NewSectionsCommand creates the sections command.
func NewSectionsCommand() *cobra.Command {
	var flags ListFlags

	cmd := &cobra.Command{
		Use:   "sections SCHOOL",
		Short: "List sections in a school",
		Long:  "List the class sections of a school. SCHOOL is an id or a JSON school object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefList(cmd, args[0], func(c schoolnet.Client, ref schoolnet.Ref) ([]schoolnet.Record, error) {
				return c.GetSections(cmd.Context(), ref, flags.Options(cmd))
			})
		},
	}

	addListFlags(cmd, &flags)

	return cmd
}

// NewSectionCommand creates the section command.
func NewSectionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "section SECTION",
		Short: "Get a section",
		Long:  "Display a section with its assessment assignments, course and schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefGet(cmd, args[0], func(c schoolnet.Client, ref schoolnet.Ref) (schoolnet.Record, error) {
				return c.GetSection(cmd.Context(), ref)
			})
		},
	}
}

// NewStudentsCommand creates the students command.
func NewStudentsCommand() *cobra.Command {
	var flags ListFlags

	cmd := &cobra.Command{
		Use:   "students SECTION",
		Short: "List students in a section",
		Long:  "List the students enrolled in a section, including their identifiers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefList(cmd, args[0], func(c schoolnet.Client, ref schoolnet.Ref) ([]schoolnet.Record, error) {
				return c.GetStudents(cmd.Context(), ref, flags.Options(cmd))
			})
		},
	}

	addListFlags(cmd, &flags)

	return cmd
}

// NewStaffCommand creates the staff command.
func NewStaffCommand() *cobra.Command {
	var flags ListFlags

	cmd := &cobra.Command{
		Use:   "staff STAFF",
		Short: "Get a staff member",
		Long:  "Display a staff member with identifiers. STAFF is an id or a JSON object with staffId, teacher or id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefGet(cmd, args[0], func(c schoolnet.Client, ref schoolnet.Ref) (schoolnet.Record, error) {
				return c.GetStaff(cmd.Context(), ref, flags.Options(cmd))
			})
		},
	}

	addListFlags(cmd, &flags)

	return cmd
}

// NewStaffSectionsCommand creates the staff-sections command.
func NewStaffSectionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "staff-sections STAFF",
		Short: "List section assignments of a staff member",
		Long:  "List the sections a staff member is assigned to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefList(cmd, args[0], func(c schoolnet.Client, ref schoolnet.Ref) ([]schoolnet.Record, error) {
				return c.GetStaffSections(cmd.Context(), ref)
			})
		},
	}
}

// NewTenantsCommand creates the tenants command.
func NewTenantsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tenants",
		Short: "List tenants",
		Long:  "List the tenants available to the configured credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			tenants, err := client.GetTenants(cmd.Context())
			if err != nil {
				return err
			}

			return Output(cmd.OutOrStdout(), tenants)
		},
	}
}

func runRefList(cmd *cobra.Command, arg string, fetch func(schoolnet.Client, schoolnet.Ref) ([]schoolnet.Record, error)) error {
	ref, err := ParseRef(arg)
	if err != nil {
		return err
	}

	client, err := CreateClient(cmd.Context())
	if err != nil {
		return err
	}

	records, err := fetch(client, ref)
	if err != nil {
		return err
	}

	return Output(cmd.OutOrStdout(), records)
}

func runRefGet(cmd *cobra.Command, arg string, fetch func(schoolnet.Client, schoolnet.Ref) (schoolnet.Record, error)) error {
	ref, err := ParseRef(arg)
	if err != nil {
		return err
	}

	client, err := CreateClient(cmd.Context())
	if err != nil {
		return err
	}

	record, err := fetch(client, ref)
	if err != nil {
		return err
	}

	return Output(cmd.OutOrStdout(), record)
}
