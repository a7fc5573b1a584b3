package main

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"clinic-console/internal/model"
	"clinic-console/internal/view"
)

const usersScreen = "/dashboard/users"

func usersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Administer accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(usersScreen); err != nil {
				return err
			}
			if err := a.users.Fetch(cmd.Context()); err != nil {
				return err
			}
			return view.Users(a.out, a.users.Items())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(usersScreen); err != nil {
				return err
			}
			if err := a.users.Get(cmd.Context(), model.ID(args[0])); err != nil {
				return err
			}
			u, _ := a.users.Selected()
			return view.Users(a.out, []model.User{u})
		},
	})

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change an account's details, role or active flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(usersScreen); err != nil {
				return err
			}
			f := cmd.Flags()
			var in model.UserUpdate
			in.Username, _ = f.GetString("username")
			in.Email, _ = f.GetString("email")
			in.Phone, _ = f.GetString("phone")
			if role, _ := f.GetString("role"); role != "" {
				r, ok := model.ParseRole(role)
				if !ok {
					return fmt.Errorf("unknown role %q", role)
				}
				in.Role = r
			}
			if f.Changed("active") {
				active, _ := f.GetBool("active")
				in.Active = lo.ToPtr(active)
			}
			return a.users.Update(cmd.Context(), model.ID(args[0]), in)
		},
	}
	update.Flags().String("username", "", "new display name")
	update.Flags().String("email", "", "new email")
	update.Flags().String("phone", "", "new phone")
	update.Flags().String("role", "", "new role")
	update.Flags().Bool("active", true, "whether the account may sign in")
	cmd.AddCommand(update)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(usersScreen); err != nil {
				return err
			}
			return a.users.Delete(cmd.Context(), model.ID(args[0]))
		},
	})
	return cmd
}
