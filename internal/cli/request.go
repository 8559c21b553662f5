package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bengalcodingacademy-dev/admin/internal/apiclient"
)

func newRequestCmd() *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "request <METHOD> <PATH>",
		Short: "Send an authenticated request to the backend",
		Long:  "Send METHOD PATH (relative to the API base URL) with the stored session and print the response body.",
		Example: `  bcaadmin request GET /admin/courses
  bcaadmin request POST /admin/coupons --data '{"code":"NEW10","percent":10}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			method := strings.ToUpper(args[0])
			path := args[1]

			var body io.Reader
			if data != "" {
				if !json.Valid([]byte(data)) {
					return fmt.Errorf("--data is not valid JSON")
				}
				body = strings.NewReader(data)
			}

			tty := newTerminal(cmd.ErrOrStderr())
			a, err := openApp(ctx, tty, tty)
			if err != nil {
				return err
			}
			defer a.Close()

			a.session.Initialize(ctx)

			req, err := a.client.NewRequest(ctx, method, path, body)
			if err != nil {
				return err
			}
			req.Header.Set("Accept", "application/json")
			if body != nil {
				req.Header.Set("Content-Type", "application/json")
			}

			out := cmd.OutOrStdout()
			resp, err := a.client.Send(req)
			if err != nil {
				var se *apiclient.StatusError
				if errors.As(err, &se) && len(se.Body) > 0 {
					printBody(out, se.Body)
				}
				if tty.SessionEnded() {
					fmt.Fprintln(cmd.ErrOrStderr(), "Session ended. Run 'bcaadmin login' to sign in again.")
				}
				return err
			}
			defer resp.Body.Close()

			raw, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("read response: %w", err)
			}
			if resp.StatusCode != http.StatusNoContent {
				printBody(out, raw)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	return cmd
}

// printBody pretty-prints JSON and writes anything else unchanged.
func printBody(w io.Writer, raw []byte) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err == nil {
		buf.WriteByte('\n')
		buf.WriteTo(w)
		return
	}
	w.Write(raw)
	if len(raw) > 0 && raw[len(raw)-1] != '\n' {
		fmt.Fprintln(w)
	}
}
