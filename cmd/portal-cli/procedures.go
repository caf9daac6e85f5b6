package main

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/client"
	"github.com/noah-isme/portal-colegio-api/internal/models"
)

var (
	procStudentID int64
	procStatus    string
	procNotes     string
)

var proceduresCmd = &cobra.Command{
	Use:   "procedures",
	Short: "Work with administrative procedures",
}

var proceduresListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the procedures visible to the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		family, err := sessionFamily()
		if err != nil {
			return err
		}
		procedures, err := api.ListProcedures(cmd.Context(), client.ProcedureQuery{
			Family:    family,
			StudentID: procStudentID,
			Status:    procStatus,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd, procedures)
	},
}

var proceduresTransitionCmd = &cobra.Command{
	Use:   "transition <id> <status>",
	Short: "Move a procedure to a new status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		family, err := sessionFamily()
		if err != nil {
			return err
		}
		if family == authz.RequireParent {
			return errors.New("parents cannot change procedure status")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return errors.New("invalid procedure id")
		}
		status := models.ProcedureStatus(args[1])
		if !status.Valid() {
			return errors.New("unknown status " + args[1])
		}
		var notes *string
		if cmd.Flags().Changed("notes") {
			notes = &procNotes
		}

		res, err := api.TransitionProcedure(cmd.Context(), family, id, status, notes)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

func init() {
	proceduresListCmd.Flags().Int64Var(&procStudentID, "student", 0, "Student id (required for parents)")
	proceduresListCmd.Flags().StringVar(&procStatus, "status", "", "Filter by status")
	proceduresTransitionCmd.Flags().StringVar(&procNotes, "notes", "", "Notes to record with the transition")
	proceduresCmd.AddCommand(proceduresListCmd, proceduresTransitionCmd)
}

// sessionFamily maps the session to the API route family it works through,
// using the same priority as the landing route.
func sessionFamily() (authz.Requirement, error) {
	switch guard.DefaultLandingRoute() {
	case authz.PathAdminHome:
		return authz.RequireAdmin, nil
	case authz.PathTeacherHome:
		return authz.RequireTeacher, nil
	case authz.PathParentHome:
		return authz.RequireParent, nil
	}
	if _, ok := guard.CurrentIdentity(); !ok {
		return 0, errors.New("not signed in")
	}
	return 0, errors.New("session has no portal role")
}
