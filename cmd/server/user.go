package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"blog/internal/store"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
	Long:  "List, create and delete blog users directly against the database.",
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	RunE:  runUserList,
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user (the first one becomes admin)",
	RunE:  runUserCreate,
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete [email]",
	Short: "Delete a user and their posts",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserDelete,
}

var (
	userEmail    string
	userPassword string
)

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userDeleteCmd)

	userCreateCmd.Flags().StringVarP(&userEmail, "email", "e", "", "User email (required)")
	userCreateCmd.Flags().StringVarP(&userPassword, "password", "p", "", "User password, 8 to 64 characters (required)")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")
}

func durableEnv(cmd *cobra.Command) (*env, error) {
	e, err := setup(cmd.Context(), true)
	if err != nil {
		return nil, err
	}
	if e.cfg.Storage.Driver == "memory" {
		e.close()
		return nil, errors.New("user commands need the postgres driver")
	}
	return e, nil
}

func runUserList(cmd *cobra.Command, _ []string) error {
	e, err := durableEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	users, err := e.store.ListUsers(cmd.Context())
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tROLE\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Email, u.Role, u.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runUserCreate(cmd *cobra.Command, _ []string) error {
	if n := len([]rune(userPassword)); n < 8 || n > 64 {
		return errors.New("password must be 8 to 64 characters")
	}

	e, err := durableEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	svc, _, err := e.authServices()
	if err != nil {
		return err
	}
	u, _, err := svc.Register(cmd.Context(), userEmail, userPassword)
	if err != nil {
		return fmt.Errorf("create user %s: %w", userEmail, err)
	}

	fmt.Printf("User %s created (ID: %d, role: %s)\n", u.Email, u.ID, u.Role)
	return nil
}

func runUserDelete(cmd *cobra.Command, args []string) error {
	e, err := durableEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	u, err := e.store.FindUserByEmail(cmd.Context(), args[0])
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no user with email %s", args[0])
	}
	if err != nil {
		return err
	}
	if err := e.store.DeleteUser(cmd.Context(), u.ID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	fmt.Printf("User %s deleted\n", u.Email)
	return nil
}
