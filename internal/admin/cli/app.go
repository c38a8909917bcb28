package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/asthmaguard/internal/server/models"
)

// ErrUsage is returned for unknown commands and missing arguments.
var ErrUsage = errors.New("usage error")

const usage = `Usage: asthmactl [-c config.json] [flags] <command>

Commands:
  create-user      create an account (prompts for username, email, password)
  disable <email>  mark the account inactive
  enable <email>   mark the account active again
  migrate          apply pending schema migrations
  help             show this message
`

// UserAdmin is the part of the user service the CLI drives.
type UserAdmin interface {
	Signup(ctx context.Context, username, email, password string) (*models.User, error)
	SetDisabled(ctx context.Context, email string, disabled bool) error
}

type App struct {
	users   UserAdmin
	migrate func(ctx context.Context) error
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(users UserAdmin, migrate func(ctx context.Context) error, in io.Reader, out io.Writer) *App {
	return &App{users: users, migrate: migrate, reader: bufio.NewReader(in), out: out}
}

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]

	switch cmd {
	case "create-user":
		return a.createUser(ctx)
	case "disable":
		return a.setDisabled(ctx, rest, true)
	case "enable":
		return a.setDisabled(ctx, rest, false)
	case "migrate":
		if err := a.migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Fprintln(a.out, "Migrations applied")
		return nil
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprintf(a.out, "Unknown command: %s\n\n%s", cmd, usage)
		return ErrUsage
	}
}

func (a *App) createUser(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	pw, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer clear(pw)

	u, err := a.users.Signup(ctx, username, email, string(pw))
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Created user %s (%s)\n", u.Email, u.ID)
	return nil
}

func (a *App) setDisabled(ctx context.Context, args []string, disabled bool) error {
	if len(args) != 1 {
		fmt.Fprint(a.out, usage)
		return ErrUsage
	}
	email := args[0]

	if err := a.users.SetDisabled(ctx, email, disabled); err != nil {
		return err
	}

	state := "enabled"
	if disabled {
		state = "disabled"
	}
	fmt.Fprintf(a.out, "User %s %s\n", email, state)
	return nil
}
