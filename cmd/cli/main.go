package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/amirasaad/backoffice/infra/initializer"
	"github.com/amirasaad/backoffice/pkg/app"
	"github.com/amirasaad/backoffice/pkg/config"
	"github.com/amirasaad/backoffice/pkg/domain/request"
	"github.com/amirasaad/backoffice/pkg/policy"
	usersvc "github.com/amirasaad/backoffice/pkg/service/user"
	"github.com/fatih/color"
	"golang.org/x/term"
)

const usage = `Usage: cli <command> [arguments]
Commands:
  seed-admin <username>        create the first admin (password read from the terminal)
  unlock <username>            clear the login lock of an identity
  pending <kind>               list pending requests (account-open, account-deletion, password-reset)
  reconcile <account-number>   compare the incremental balance with a full ledger replay`

var errUsage = errors.New("invalid usage")

var stdin = bufio.NewReader(os.Stdin)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	keyColor  = color.New(color.FgCyan)
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(2)
	}
	if err := run(os.Args[1:]); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err) //nolint:errcheck
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage) //nolint:errcheck
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}
	deps, cleanup, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer cleanup()

	c := &cli{app: app.New(deps, cfg), out: os.Stdout, readPassword: promptPassword}
	return c.run(context.Background(), args)
}

type cli struct {
	app          *app.App
	out          io.Writer
	readPassword func(prompt string) (string, error)
}

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	switch args[0] {
	case "seed-admin":
		return c.seedAdmin(ctx, args[1])
	case "unlock":
		return c.unlock(ctx, args[1])
	case "pending":
		return c.pending(ctx, args[1])
	case "reconcile":
		return c.reconcile(ctx, args[1])
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
}

func (c *cli) seedAdmin(ctx context.Context, username string) error {
	password, err := c.readPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := c.readPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}
	admin, checking, err := c.app.UserService.Bootstrap(ctx, usersvc.CreateInput{
		Username: username,
		Password: password,
	})
	if err != nil {
		return err
	}
	okColor.Fprintf(c.out, "Admin %s created\n", admin.Username) //nolint:errcheck
	fmt.Fprintf(c.out, "%s %s\n", keyColor.Sprint("id:"), admin.ID)
	fmt.Fprintf(c.out, "%s %s\n", keyColor.Sprint("checking:"), checking.Number)
	return nil
}

func (c *cli) unlock(ctx context.Context, username string) error {
	identity, err := c.app.UserService.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := c.app.LoginService.Unlock(ctx, policy.System(), identity.ID); err != nil {
		return err
	}
	okColor.Fprintf(c.out, "%s unlocked\n", identity.Username) //nolint:errcheck
	return nil
}

func (c *cli) pending(ctx context.Context, rawKind string) error {
	kind, err := request.ParseKind(rawKind)
	if err != nil {
		return err
	}
	reqs, err := c.app.RequestService.ListPending(ctx, policy.System(), kind)
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		fmt.Fprintf(c.out, "No pending %s requests\n", kind)
		return nil
	}
	for _, r := range reqs {
		detail := r.Payload.Reason
		switch r.Kind {
		case request.KindAccountOpen:
			detail = strings.TrimSpace(string(r.Payload.AccountType) + " " + detail)
		case request.KindAccountDeletion:
			detail = strings.TrimSpace(r.Payload.AccountNumber + " " + detail)
		}
		fmt.Fprintf(c.out, "%s  %s  %s  %s\n",
			keyColor.Sprint(r.ID),
			r.RequestedAt.Format("2006-01-02 15:04:05"),
			r.RequesterID,
			detail,
		)
	}
	return nil
}

func (c *cli) reconcile(ctx context.Context, number string) error {
	acc, err := c.app.AccountService.FindByNumber(ctx, number)
	if err != nil {
		return err
	}
	r, err := c.app.LedgerService.Reconcile(ctx, acc.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s %s\n", keyColor.Sprint("account:"), acc.Number)
	fmt.Fprintf(c.out, "%s %s\n", keyColor.Sprint("incremental:"), r.Incremental.StringFixed(2))
	fmt.Fprintf(c.out, "%s %s\n", keyColor.Sprint("replayed:"), r.Replayed.StringFixed(2))
	fmt.Fprintf(c.out, "%s %d (last seq %d)\n", keyColor.Sprint("entries:"), r.Entries, r.LastSeq)
	if !r.Consistent {
		warnColor.Fprintln(c.out, "MISMATCH") //nolint:errcheck
		return fmt.Errorf("account %s balance does not match its ledger", acc.Number)
	}
	okColor.Fprintln(c.out, "OK") //nolint:errcheck
	return nil
}

// promptPassword reads a password without echo from a terminal, or a line
// from stdin when it is not one.
func promptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := stdin.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	fmt.Fprint(os.Stderr, prompt) //nolint:errcheck
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr) //nolint:errcheck
	if err != nil {
		return "", err
	}
	return string(b), nil
}
