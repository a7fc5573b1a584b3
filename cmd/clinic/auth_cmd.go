package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clinic-console/internal/api"
	"clinic-console/internal/authz"
	"clinic-console/internal/model"
	"clinic-console/internal/router"
	"clinic-console/internal/view"
)

func loginCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(router.Login); err != nil {
				return fmt.Errorf("already signed in as %s", a.me().Username)
			}
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password are required")
			}
			if err := a.auth.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			d := a.nav.Refresh()
			fmt.Fprintf(a.out, "Signed in. Home: %s\n", d.Path)
			return nil
		},
	}
	cmd.Flags().String("email", "", "account email")
	cmd.Flags().String("password", "", "account password")
	return cmd
}

func registerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(router.Register); err != nil {
				return fmt.Errorf("sign out before registering a new account")
			}
			var in api.Registration
			in.Username, _ = cmd.Flags().GetString("username")
			in.Email, _ = cmd.Flags().GetString("email")
			in.Password, _ = cmd.Flags().GetString("password")
			in.Phone, _ = cmd.Flags().GetString("phone")
			role, _ := cmd.Flags().GetString("role")
			if in.Username == "" || in.Email == "" || in.Password == "" {
				return fmt.Errorf("--username, --email and --password are required")
			}
			if role != "" {
				r, ok := model.ParseRole(role)
				if !ok {
					return fmt.Errorf("unknown role %q", role)
				}
				in.Role = r
			}
			if err := a.auth.Register(cmd.Context(), in); err != nil {
				return err
			}
			if a.auth.IsAuthenticated() {
				fmt.Fprintf(a.out, "Signed in. Home: %s\n", a.nav.Refresh().Path)
			}
			return nil
		},
	}
	cmd.Flags().String("username", "", "display name")
	cmd.Flags().String("email", "", "account email")
	cmd.Flags().String("password", "", "account password")
	cmd.Flags().String("phone", "", "contact phone")
	cmd.Flags().String("role", "", "requested role (defaults to patient)")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.auth.Logout(cmd.Context())
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, ok := a.auth.Session()
			if !ok {
				if msg := a.auth.Err(); msg != "" {
					return fmt.Errorf("not signed in: %s", msg)
				}
				return fmt.Errorf("not signed in")
			}
			return view.Session(a.out, s)
		},
	}
}

func openCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open [path]",
		Short: "Show where navigating to a path ends up",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := router.Root
			if len(args) == 1 {
				p = args[0]
			}
			d := a.nav.Navigate(p)
			switch d.Kind {
			case router.Render:
				fmt.Fprintf(a.out, "%s -> %s (%s)\n", router.Clean(p), d.Path, d.Route.Screen)
			case router.NotFound:
				return fmt.Errorf("no screen at %s", d.Path)
			default:
				fmt.Fprintf(a.out, "%s -> %s\n", router.Clean(p), d.Kind)
			}
			return nil
		},
	}
}

func menuCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "List the screens available to the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, ok := a.auth.Session()
			if !ok {
				return fmt.Errorf("not signed in, run: clinic login")
			}
			return view.Menu(a.out, authz.Menu(s), authz.DashboardRoute(s))
		},
	}
}
