package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andrensetiawan/form-service/services"
)

var fixRolesDryRun bool

var fixRolesCmd = &cobra.Command{
	Use:   "fix-roles",
	Short: "Rewrite stored user roles to their canonical values",
	RunE:  runFixRoles,
}

func init() {
	fixRolesCmd.Flags().BoolVar(&fixRolesDryRun, "dry-run", false, "report changes without writing them")
}

func runFixRoles(cmd *cobra.Command, args []string) error {
	_, logger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	report, err := services.NewUserService(db).FixRoles(cmd.Context(), fixRolesDryRun)
	if err != nil {
		return fmt.Errorf("fix roles: %w", err)
	}
	out := cmd.OutOrStdout()
	for _, c := range report.Changes {
		fmt.Fprintf(out, "%-40s %-20q -> %s\n", c.Email, c.From, c.To)
	}
	verb := "updated"
	if report.DryRun {
		verb = "would update"
	}
	fmt.Fprintf(out, "scanned %d users, %s %d\n", report.Scanned, verb, len(report.Changes))
	return nil
}
