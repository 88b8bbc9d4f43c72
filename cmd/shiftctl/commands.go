package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/spec-kit/shift-service/internal/config"
	"github.com/spec-kit/shift-service/internal/domain"
	"github.com/spec-kit/shift-service/internal/observability"
	"github.com/spec-kit/shift-service/internal/persistence"
	"github.com/spec-kit/shift-service/internal/repository"
	"github.com/spec-kit/shift-service/internal/service"
)

// cliEnv holds the connections a command needs; close releases them.
type cliEnv struct {
	cfg    *config.Config
	logger *zap.Logger
	pg     *persistence.Postgres
	auth   *service.AuthService
}

func openCLIEnv(ctx context.Context) (*cliEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if pg.Pool == nil {
		return nil, fmt.Errorf("POSTGRES_DSN is required")
	}
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:  repository.NewUserRepository(pg.Pool),
		StoreRepo: repository.NewStoreRepository(pg.Pool),
		Logger:    logger,
	})
	return &cliEnv{cfg: cfg, logger: logger, pg: pg, auth: authService}, nil
}

func (r *cliEnv) close() {
	r.pg.Close()
	_ = r.logger.Sync()
}

func withCLIEnv(fn func(ctx context.Context, env *cliEnv) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		env, err := openCLIEnv(ctx)
		if err != nil {
			return err
		}
		defer env.close()
		return fn(ctx, env)
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: withCLIEnv(func(ctx context.Context, env *cliEnv) error {
			if err := persistence.RunMigrations(ctx, env.pg.Pool, env.logger); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Println("migrations applied")
			return nil
		}),
	}
}

func storeCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "store", Short: "Manage stores"}

	var name string
	var approvalRequired bool
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a store",
		RunE: withCLIEnv(func(ctx context.Context, env *cliEnv) error {
			store, err := env.auth.CreateStore(ctx, name, approvalRequired)
			if err != nil {
				return err
			}
			fmt.Printf("created store %s (%s), approval required: %t\n", store.ID, store.Name, store.ApprovalRequired)
			return nil
		}),
	}
	create.Flags().StringVar(&name, "name", "", "store name")
	create.Flags().BoolVar(&approvalRequired, "approval-required", true, "claims need manager approval by default")
	_ = create.MarkFlagRequired("name")

	cmd.AddCommand(create)
	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage store members"}

	var input service.UserInput
	var role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user; the password is read from SHIFTCTL_PASSWORD or prompted",
		RunE: withCLIEnv(func(ctx context.Context, env *cliEnv) error {
			password, err := readPassword()
			if err != nil {
				return err
			}
			input.Password = password
			input.Role = domain.Role(strings.ToLower(role))
			user, err := env.auth.CreateUser(ctx, input)
			if err != nil {
				return err
			}
			fmt.Printf("created %s %s <%s> in store %s\n", user.Role, user.ID, user.Email, user.StoreID)
			return nil
		}),
	}
	create.Flags().StringVar(&input.Name, "name", "", "display name")
	create.Flags().StringVar(&input.Email, "email", "", "login email")
	create.Flags().StringVar(&input.StoreID, "store", "", "store id")
	create.Flags().StringVar(&role, "role", string(domain.RoleEmployee), "admin, manager or employee")
	for _, f := range []string{"name", "email", "store"} {
		_ = create.MarkFlagRequired(f)
	}

	cmd.AddCommand(create)
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "token", Short: "Manage bearer tokens"}

	var userID string
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue a bearer token for an existing user",
		RunE: withCLIEnv(func(ctx context.Context, env *cliEnv) error {
			token, exp, err := env.auth.IssueToken(ctx, userID)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "expires %s\n", exp.Format(time.RFC3339))
			fmt.Println(token)
			return nil
		}),
	}
	issue.Flags().StringVar(&userID, "user", "", "user id")
	_ = issue.MarkFlagRequired("user")

	cmd.AddCommand(issue)
	return cmd
}

func readPassword() (string, error) {
	if pw := os.Getenv("SHIFTCTL_PASSWORD"); pw != "" {
		return pw, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("set SHIFTCTL_PASSWORD when stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}
