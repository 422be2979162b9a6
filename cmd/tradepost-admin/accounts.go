package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hellforge/tradepost/internal/adapters/passwordauth"
	"github.com/hellforge/tradepost/internal/data"
	domainauth "github.com/hellforge/tradepost/internal/domain/auth"
)

const defaultAccountTimeout = 2 * time.Minute

type createAccountOptions struct {
	Email    string
	Username string
	Password string
	Timeout  time.Duration
}

// runCreateAccount provisions a password-auth account: a profile row plus a
// bcrypt hash. Used for local development and for operators on deployments
// that run without an OIDC provider.
func runCreateAccount(cmdCtx *commandContext, args []string) error {
	opts, err := parseCreateAccountFlags(args)
	if err != nil {
		return err
	}

	if opts.Password == "" {
		opts.Password, err = promptPassword()
		if err != nil {
			return err
		}
	}

	hash, err := passwordauth.HashPassword(opts.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		repo := data.NewProfileRepo(db)
		profile, ensureErr := repo.EnsureForIdentity(ctx, domainauth.Identity{
			UserID:   uuid.NewString(),
			Username: opts.Username,
			Email:    opts.Email,
		})
		if ensureErr != nil {
			return fmt.Errorf("create profile: %w", ensureErr)
		}

		if setErr := repo.SetPasswordHash(ctx, profile.IdentityID, hash); setErr != nil {
			return fmt.Errorf("set password hash: %w", setErr)
		}

		cmdCtx.Logger.Info("account created",
			"identity_id", profile.IdentityID,
			"username", profile.Username,
			"email", profile.Email)
		return nil
	})
}

func promptPassword() (string, error) {
	if err := writef(os.Stderr, "Password: "); err != nil {
		return "", fmt.Errorf("print password prompt: %w", err)
	}
	reader := bufio.NewReader(os.Stdin)
	resp, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(resp, "\r\n")
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	return password, nil
}

func parseCreateAccountFlags(args []string) (createAccountOptions, error) {
	fs := flag.NewFlagSet("create-account", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := createAccountOptions{
		Timeout: defaultAccountTimeout,
	}

	fs.StringVar(&opts.Email, "email", "", "Email address for the account (required)")
	fs.StringVar(&opts.Username, "username", "", "Username for the account (required)")
	fs.StringVar(&opts.Password, "password", "", "Password for the account; prompted when omitted")
	fs.DurationVar(&opts.Timeout, "timeout", defaultAccountTimeout, "Maximum duration to wait for account creation")

	if err := fs.Parse(args); err != nil {
		return createAccountOptions{}, err
	}

	if strings.TrimSpace(opts.Email) == "" {
		return createAccountOptions{}, errors.New("--email is required")
	}
	if strings.TrimSpace(opts.Username) == "" {
		return createAccountOptions{}, errors.New("--username is required")
	}
	if opts.Timeout <= 0 {
		return createAccountOptions{}, errors.New("--timeout must be greater than zero")
	}

	return opts, nil
}
