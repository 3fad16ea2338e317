package usersvc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mkrupp/homecase-users/internal/domain"
	"github.com/mkrupp/homecase-users/internal/infra/logging"
)

// errReported marks command failures whose message was already printed.
var errReported = errors.New("reported")

// CLITransport exposes the user service as one-shot commands.
type CLITransport struct {
	userSvc Service
	log     logging.Logger
	stdout  io.Writer
	stderr  io.Writer
}

// NewCLITransport creates a CLITransport writing results to stdout and errors to stderr.
func NewCLITransport(userSvc Service, stdout, stderr io.Writer) *CLITransport {
	return &CLITransport{
		userSvc: userSvc,
		log:     logging.GetLogger("svc.usersvc.cli_transport"),
		stdout:  stdout,
		stderr:  stderr,
	}
}

// Execute runs the command line given in args and returns the process exit code.
func (ct *CLITransport) Execute(ctx context.Context, args []string) int {
	cmd := ct.Command()
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(ct.stderr, "Error: %s\n", err)
		}

		return 1
	}

	return 0
}

// Command builds the root command with the get-user and create-user subcommands.
func (ct *CLITransport) Command() *cobra.Command {
	//nolint:exhaustruct
	root := &cobra.Command{
		Use:           "usercli",
		Short:         "Read and create users",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.SetOut(ct.stdout)
	root.SetErr(ct.stderr)

	root.AddCommand(ct.getUserCommand(), ct.createUserCommand())

	return root
}

func (ct *CLITransport) getUserCommand() *cobra.Command {
	var id string

	//nolint:exhaustruct
	cmd := &cobra.Command{
		Use:   "get-user",
		Short: "Get a user by ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ct.runGetUser(cmd.Context(), id)
		},
	}

	cmd.Flags().StringVarP(&id, "id", "i", "", "ID of the user to fetch")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func (ct *CLITransport) runGetUser(ctx context.Context, rawID string) (err error) {
	log := ct.log.With(logging.Group("cli", "command", "get-user", "id", rawID))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "get user failed", "error", err)
		}
	}()

	id, err := ParseUserID(rawID)
	if errors.Is(err, domain.ErrUserNotFound) {
		fmt.Fprintln(ct.stdout, "User not found")

		return nil
	} else if err != nil {
		fmt.Fprintln(ct.stderr, "Error: Invalid user ID. ID must be a positive number.")

		return fmt.Errorf("%w: %w", errReported, err)
	}

	u, found, err := ct.userSvc.GetUserByID(ctx, id)
	if err != nil {
		fmt.Fprintf(ct.stderr, "Error fetching user: %s\n", err)

		return fmt.Errorf("%w: get user: %w", errReported, err)
	}

	if !found {
		fmt.Fprintln(ct.stdout, "User not found")

		return nil
	}

	ct.printUser(u)

	return nil
}

func (ct *CLITransport) createUserCommand() *cobra.Command {
	var username, email string

	//nolint:exhaustruct
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ct.runCreateUser(cmd.Context(), username, email)
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username of the new user")
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address of the new user")

	return cmd
}

func (ct *CLITransport) runCreateUser(ctx context.Context, username, email string) (err error) {
	log := ct.log.With(logging.Group("cli", "command", "create-user", "username", username, "email", email))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "create user failed", "error", err)
		}
	}()

	if username == "" || email == "" {
		fmt.Fprintln(ct.stderr, "Error: Username and email are required.")

		return fmt.Errorf("%w: %w", errReported, ErrMissingFields)
	}

	if !domain.IsValidEmail(email) {
		fmt.Fprintln(ct.stderr, "Error: Invalid email format.")

		return fmt.Errorf("%w: %w", errReported, ErrInvalidEmail)
	}

	u, err := ct.userSvc.CreateUser(ctx, username, email)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidUser) || errors.Is(err, domain.ErrUserCreationFailed) {
			fmt.Fprintln(ct.stderr, "Error: Failed to create user.")
		} else {
			fmt.Fprintf(ct.stderr, "Error creating user: %s\n", err)
		}

		return fmt.Errorf("%w: create user: %w", errReported, err)
	}

	ct.printUser(u)

	return nil
}

func (ct *CLITransport) printUser(u *domain.User) {
	fmt.Fprintln(ct.stdout, "<< RESULT >>")
	fmt.Fprintf(ct.stdout, "ID: %d\n", u.ID)
	fmt.Fprintf(ct.stdout, "Username: %s\n", u.Username)
	fmt.Fprintf(ct.stdout, "Email: %s\n", u.Email)
}
