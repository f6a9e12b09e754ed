/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/shiftnotes/apiserver/config"
	"github.com/shiftnotes/apiserver/internal/db"
	"github.com/shiftnotes/apiserver/internal/store"
	"github.com/shiftnotes/apiserver/types"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	adminName     string
	adminEmail    string
	adminPassword string
)

// createAdminCmd bootstraps the first admin account so the API has
// someone who can create the remaining users.
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create the initial admin user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if adminName == "" || adminEmail == "" || adminPassword == "" {
			return errors.New("name, email, and password are required")
		}

		cfg := config.LoadConfig()
		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		hashed, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		users := store.NewUserRepository(dbConn)
		user, err := users.Create(cmd.Context(), types.User{
			Name:         adminName,
			Email:        adminEmail,
			Role:         types.RoleAdmin,
			PasswordHash: string(hashed),
		})
		if err != nil {
			if errors.Is(err, store.ErrDuplicateEmail) {
				return fmt.Errorf("a user with email %s already exists", adminEmail)
			}
			return err
		}

		fmt.Printf("admin user %d created (%s)\n", user.ID, user.Email)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createAdminCmd)

	createAdminCmd.Flags().StringVar(&adminName, "name", "", "admin full name")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
}
