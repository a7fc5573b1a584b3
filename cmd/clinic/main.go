package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"clinic-console/internal/state"
)

func main() {
	_ = godotenv.Load()

	a := &app{out: os.Stdout}
	rootCmd := &cobra.Command{
		Use:           "clinic",
		Short:         "Terminal console for the clinic management API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["standalone"] == "true" {
				return a.configure()
			}
			return a.start(cmd.Context())
		},
	}

	rootCmd.AddCommand(loginCmd(a), registerCmd(a), logoutCmd(a), whoamiCmd(a))
	rootCmd.AddCommand(openCmd(a), menuCmd(a), dashboardCmd(a))
	rootCmd.AddCommand(appointmentsCmd(a), doctorsCmd(a), patientsCmd(a))
	rootCmd.AddCommand(medicinesCmd(a), prescriptionsCmd(a), inventoryCmd(a))
	rootCmd.AddCommand(usersCmd(a))
	rootCmd.AddCommand(devserverCmd(a))

	err := rootCmd.Execute()
	a.flush()
	a.close()
	if err != nil {
		// rejected operations were already shown as notices
		var oe *state.OpError
		if !errors.As(err, &oe) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
