package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as an administrator",
		Long:  "Exchange email and password for a backend session. The session cookies are kept in the state directory for later commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in := bufio.NewReader(cmd.InOrStdin())

			if email == "" {
				v, err := prompt(cmd.ErrOrStderr(), in, "Email: ")
				if err != nil {
					return fmt.Errorf("read email: %w", err)
				}
				email = v
			}
			if password == "" {
				v, err := promptPassword(cmd.ErrOrStderr(), cmd.InOrStdin(), in, "Password: ")
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = v
			}

			tty := newTerminal(cmd.ErrOrStderr())
			a, err := openApp(ctx, tty, tty)
			if err != nil {
				return err
			}
			defer a.Close()

			a.session.Initialize(ctx)

			res, err := a.client.Login(ctx, email, password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if err := a.session.Login(*res); err != nil {
				return fmt.Errorf("login: %w", err)
			}

			user := a.session.User()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Logged in as %s <%s> (%s)\n", user.DisplayName(), user.Email, user.Role)
			if exp := a.session.ExpiresAt(); !exp.IsZero() {
				fmt.Fprintf(out, "Session expires %s (%s)\n", humanize.Time(exp), exp.Local().Format(time.RFC1123))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (prompted if omitted)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted if omitted)")
	return cmd
}

func prompt(w io.Writer, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads without echo when the input is a terminal.
func promptPassword(w io.Writer, src io.Reader, in *bufio.Reader, label string) (string, error) {
	f, ok := src.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return prompt(w, in, label)
	}
	fd := int(f.Fd())
	fmt.Fprint(w, label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
