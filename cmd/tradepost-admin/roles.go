package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/hellforge/tradepost/internal/bootstrap"
	"github.com/hellforge/tradepost/internal/data"
	domainauth "github.com/hellforge/tradepost/internal/domain/auth"
	"github.com/hellforge/tradepost/internal/ports"
)

const defaultRoleCommandTimeout = 2 * time.Minute

type roleGrantOptions struct {
	IdentityID string
	Role       domainauth.Role
	GrantedBy  string
	Timeout    time.Duration
}

type roleRevokeOptions struct {
	IdentityID string
	Yes        bool
	Timeout    time.Duration
}

type roleListOptions struct {
	Limit   int
	Offset  int
	Timeout time.Duration
}

func runRoleGrant(cmdCtx *commandContext, args []string) error {
	opts, err := parseRoleGrantFlags(args)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		repo := data.NewRoleRepo(db)
		if upsertErr := repo.UpsertRole(ctx, opts.IdentityID, opts.Role, opts.GrantedBy); upsertErr != nil {
			return fmt.Errorf("grant role: %w", upsertErr)
		}

		publishRoleChange(ctx, cmdCtx, "update", opts.IdentityID)

		cmdCtx.Logger.Info("role granted",
			"identity_id", opts.IdentityID,
			"role", string(opts.Role),
			"granted_by", opts.GrantedBy)
		return nil
	})
}

func runRoleRevoke(cmdCtx *commandContext, args []string) error {
	opts, err := parseRoleRevokeFlags(args)
	if err != nil {
		return err
	}

	if confirmErr := confirmAction(opts.Yes, "revoke the role assignment", "identity "+opts.IdentityID); confirmErr != nil {
		return confirmErr
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		repo := data.NewRoleRepo(db)
		if deleteErr := repo.DeleteRole(ctx, opts.IdentityID); deleteErr != nil {
			return fmt.Errorf("revoke role: %w", deleteErr)
		}

		publishRoleChange(ctx, cmdCtx, "delete", opts.IdentityID)

		cmdCtx.Logger.Info("role revoked", "identity_id", opts.IdentityID)
		return nil
	})
}

func runRoleList(cmdCtx *commandContext, args []string) error {
	opts, err := parseRoleListFlags(args)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		repo := data.NewRoleRepo(db)
		roles, listErr := repo.List(ctx, opts.Limit, opts.Offset)
		if listErr != nil {
			return fmt.Errorf("list roles: %w", listErr)
		}

		if len(roles) == 0 {
			return writeln(os.Stdout, "No role assignments found.")
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		if writeErr := writef(tw, "IDENTITY\tROLE\tGRANTED BY\tUPDATED\n"); writeErr != nil {
			return fmt.Errorf("print role header: %w", writeErr)
		}
		for _, r := range roles {
			grantedBy := "-"
			if r.GrantedBy != nil && *r.GrantedBy != "" {
				grantedBy = *r.GrantedBy
			}
			if writeErr := writef(tw, "%s\t%s\t%s\t%s\n",
				r.IdentityID,
				r.Role,
				grantedBy,
				r.UpdatedAt.UTC().Format(time.RFC3339),
			); writeErr != nil {
				return fmt.Errorf("print role row: %w", writeErr)
			}
		}
		if flushErr := tw.Flush(); flushErr != nil {
			return fmt.Errorf("flush role table: %w", flushErr)
		}
		return nil
	})
}

// publishRoleChange pushes a user_roles change onto the feed so live sessions
// pick up the new role without re-login. Redis being down is not fatal: the
// role row is already written and sessions refresh on next lookup.
func publishRoleChange(ctx context.Context, cmdCtx *commandContext, op, identityID string) {
	client, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		cmdCtx.Logger.Warn("redis unavailable; live sessions will not refresh immediately", "error", err)
		return
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", closeErr)
		}
	}()

	feed := bootstrap.BuildChangeFeed(client, cmdCtx.Config.Realtime, cmdCtx.Logger)
	if feed == nil {
		return
	}
	change := ports.Change{
		Table:   "user_roles",
		Op:      op,
		Payload: map[string]any{"identity_id": identityID},
	}
	if publishErr := feed.Publish(ctx, change); publishErr != nil {
		cmdCtx.Logger.Warn("change feed publish failed", "op", op, "error", publishErr)
	}
}

func parseRoleGrantFlags(args []string) (roleGrantOptions, error) {
	fs := flag.NewFlagSet("role-grant", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := roleGrantOptions{
		Timeout: defaultRoleCommandTimeout,
	}
	var roleName string

	fs.StringVar(&opts.IdentityID, "identity", "", "Identity ID to grant the role to (required)")
	fs.StringVar(&roleName, "role", "", "Role to grant: user, moderator, or admin (required)")
	fs.StringVar(&opts.GrantedBy, "granted-by", "admin-cli", "Audit label recorded as the grantor")
	fs.DurationVar(&opts.Timeout, "timeout", defaultRoleCommandTimeout, "Maximum duration to wait for the grant to complete")

	if err := fs.Parse(args); err != nil {
		return roleGrantOptions{}, err
	}

	if strings.TrimSpace(opts.IdentityID) == "" {
		return roleGrantOptions{}, errors.New("--identity is required")
	}
	role, ok := domainauth.ParseRole(roleName)
	if !ok {
		return roleGrantOptions{}, fmt.Errorf("invalid --role %q: must be one of user, moderator, admin", roleName)
	}
	opts.Role = role
	if opts.Timeout <= 0 {
		return roleGrantOptions{}, errors.New("--timeout must be greater than zero")
	}

	return opts, nil
}

func parseRoleRevokeFlags(args []string) (roleRevokeOptions, error) {
	fs := flag.NewFlagSet("role-revoke", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := roleRevokeOptions{
		Timeout: defaultRoleCommandTimeout,
	}

	fs.StringVar(&opts.IdentityID, "identity", "", "Identity ID whose role assignment should be removed (required)")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")
	fs.DurationVar(&opts.Timeout, "timeout", defaultRoleCommandTimeout, "Maximum duration to wait for the revoke to complete")

	if err := fs.Parse(args); err != nil {
		return roleRevokeOptions{}, err
	}

	if strings.TrimSpace(opts.IdentityID) == "" {
		return roleRevokeOptions{}, errors.New("--identity is required")
	}
	if opts.Timeout <= 0 {
		return roleRevokeOptions{}, errors.New("--timeout must be greater than zero")
	}

	return opts, nil
}

func parseRoleListFlags(args []string) (roleListOptions, error) {
	fs := flag.NewFlagSet("role-list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := roleListOptions{
		Limit:   50,
		Timeout: defaultRoleCommandTimeout,
	}

	fs.IntVar(&opts.Limit, "limit", 50, "Maximum number of assignments to list")
	fs.IntVar(&opts.Offset, "offset", 0, "Number of assignments to skip")
	fs.DurationVar(&opts.Timeout, "timeout", defaultRoleCommandTimeout, "Maximum duration to wait for the listing")

	if err := fs.Parse(args); err != nil {
		return roleListOptions{}, err
	}

	if opts.Limit <= 0 {
		return roleListOptions{}, errors.New("--limit must be greater than zero")
	}
	if opts.Offset < 0 {
		return roleListOptions{}, errors.New("--offset cannot be negative")
	}
	if opts.Timeout <= 0 {
		return roleListOptions{}, errors.New("--timeout must be greater than zero")
	}

	return opts, nil
}
