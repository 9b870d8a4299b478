package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/souschef/souschef/internal/api"
	"github.com/souschef/souschef/internal/auth"
	"github.com/souschef/souschef/internal/constants"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "User management commands",
}

var listUsersCmd = &cobra.Command{
	Use:     "list",
	Short:   "List all users",
	Long:    `List all users in the system with their basic information (admin only)`,
	Example: fmt.Sprintf(`  - %s users list`, constants.ProjectName),
	Run:     runListUsers,
}

func init() {
	usersCmd.AddCommand(listUsersCmd)
}

func runListUsers(cmd *cobra.Command, _ []string) {
	executeWithClient(cmd, func(ctx context.Context, c api.Interface) error {
		service := NewUsersService(c, NewOutputWrapper())
		return service.ListUsers(ctx)
	})
}

var (
	userRole string
	userName string
)

var createUserCmd = &cobra.Command{
	Use:   "create <email>",
	Short: "Create a new user",
	Long:  `Create a new user with a generated password (admin only)`,
	Example: fmt.Sprintf(`  - %s users create alice@example.com
  - %s users create bob@example.com --role admin --name "Bob"`, constants.ProjectName, constants.ProjectName),
	Run:  runCreateUser,
	Args: cobra.ExactArgs(1),
}

func init() {
	createUserCmd.Flags().StringVar(&userRole, "role", "user", "User role (admin or user)")
	createUserCmd.Flags().StringVar(&userName, "name", "", "Display name")
	usersCmd.AddCommand(createUserCmd)
}

func runCreateUser(cmd *cobra.Command, args []string) {
	email := args[0]
	executeWithClient(cmd, func(ctx context.Context, c api.Interface) error {
		service := NewUsersService(c, NewOutputWrapper())
		return service.CreateUser(ctx, email, userName, userRole)
	})
}

var revokeUserCmd = &cobra.Command{
	Use:   "revoke <email>",
	Short: "Deactivate a user and delete their tokens",
	Run:   runRevokeUser,
	Args:  cobra.ExactArgs(1),
}

func init() {
	usersCmd.AddCommand(revokeUserCmd)
	rootCmd.AddCommand(usersCmd)
}

func runRevokeUser(cmd *cobra.Command, args []string) {
	email := args[0]
	executeWithClient(cmd, func(ctx context.Context, c api.Interface) error {
		service := NewUsersService(c, NewOutputWrapper())
		return service.RevokeUser(ctx, email)
	})
}

// UsersService handles user management logic.
type UsersService struct {
	client api.Interface
	output OutputInterface
}

// NewUsersService creates a new UsersService with the provided dependencies.
func NewUsersService(apiClient api.Interface, outputter OutputInterface) *UsersService {
	return &UsersService{
		client: apiClient,
		output: outputter,
	}
}

// CreateUser registers a new user with a locally generated password.
func (s *UsersService) CreateUser(ctx context.Context, email, name, role string) error {
	s.output.Info("Creating user with email %s and role %s...", email, role)

	password, err := auth.GeneratePassword()
	if err != nil {
		return fmt.Errorf("failed to generate password: %w", err)
	}

	user, err := s.client.RegisterUser(ctx, api.RegisterUserRequest{
		Email:    email,
		Password: password,
		Name:     name,
		Role:     role,
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	s.output.Success("User created successfully")
	s.output.KeyValue("Email", user.Email)
	s.output.KeyValue("Role", user.Role)
	s.output.KeyValue("Password", s.output.Bold(password))
	s.output.Blank()
	s.output.Warning("The password is shown only once; share it securely")
	return nil
}

// ListUsers lists all users and displays them in a table format.
func (s *UsersService) ListUsers(ctx context.Context) error {
	s.output.Info("Listing users…")

	resp, err := s.client.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if len(resp.Users) == 0 {
		s.output.Blank()
		s.output.Warning("No users found")
		return nil
	}

	rows := s.formatUsers(resp.Users)

	s.output.Blank()
	s.output.Table(
		[]string{
			"Email",
			"Name",
			"Role",
			"Status",
			"Created (UTC)",
			"Last Login (UTC)",
		},
		rows,
	)
	s.output.Blank()
	s.output.Success("Users listed successfully")
	return nil
}

// RevokeUser deactivates a user and deletes their tokens.
func (s *UsersService) RevokeUser(ctx context.Context, email string) error {
	s.output.Info("Revoking user with email %s...", email)

	resp, err := s.client.RevokeUser(ctx, api.RevokeUserRequest{
		Email: email,
	})
	if err != nil {
		return fmt.Errorf("failed to revoke user: %w", err)
	}

	s.output.Success("User revoked successfully")
	s.output.KeyValue("Email", resp.Email)
	return nil
}

// formatUsers formats user data into table rows.
func (s *UsersService) formatUsers(users []*api.User) [][]string {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		createdAt := u.CreatedAt.UTC().Format(time.DateTime)

		lastLogin := "Never"
		if u.LastLogin != nil && !u.LastLogin.IsZero() {
			lastLogin = u.LastLogin.UTC().Format(time.DateTime)
		}

		status := "Active"
		if !u.IsActive {
			status = "Revoked"
		}

		rows = append(rows, []string{
			s.output.Bold(u.Email),
			u.Name,
			u.Role,
			status,
			createdAt,
			lastLogin,
		})
	}
	return rows
}
