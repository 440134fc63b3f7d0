package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Args:  cobra.NoArgs,
	RunE:  runRegister,
}

var (
	registerName     string
	registerEmail    string
	registerPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in",
	Long: `Sign in with email and password.

The password is prompted for without echo unless --password is given.
Use --github to sign in through GitHub: open the printed URL, then paste
the token from the JSON response. --token adopts a token directly.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var (
	loginEmail    string
	loginPassword string
	loginToken    string
	loginGitHub   bool
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return current.session.Logout()
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := signedIn()
		if err != nil {
			return err
		}
		u := a.session.User()
		fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n%s\n", titleStyle.Render(u.Name), u.Email, mutedStyle.Render("id "+u.ID))
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerName, "name", "", "display name")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "email address")
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "password (prompted when omitted)")

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "email address")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "password (prompted when omitted)")
	loginCmd.Flags().StringVar(&loginToken, "token", "", "adopt an existing session token")
	loginCmd.Flags().BoolVar(&loginGitHub, "github", false, "sign in with GitHub")
	loginCmd.MarkFlagsMutuallyExclusive("token", "github", "email")

	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, whoamiCmd)
}

func runRegister(cmd *cobra.Command, _ []string) error {
	in := bufio.NewReader(cmd.InOrStdin())
	name, err := valueOrPrompt(cmd, in, registerName, "Name: ")
	if err != nil {
		return err
	}
	email, err := valueOrPrompt(cmd, in, registerEmail, "Email: ")
	if err != nil {
		return err
	}
	password, err := passwordOrPrompt(cmd, in, registerPassword)
	if err != nil {
		return err
	}
	return reported(current.session.Register(contextOf(cmd), name, email, password))
}

func runLogin(cmd *cobra.Command, _ []string) error {
	ctx := contextOf(cmd)
	in := bufio.NewReader(cmd.InOrStdin())

	if loginGitHub {
		fmt.Fprintf(cmd.OutOrStdout(), "Open this URL in a browser and sign in:\n\n  %s\n\n",
			strings.TrimRight(current.cfg.Server, "/")+"/users/github/login")
		token, err := prompt(cmd, in, "Paste the token: ")
		if err != nil {
			return err
		}
		loginToken = token
	}
	if loginToken != "" {
		return reported(current.session.AdoptToken(ctx, loginToken))
	}

	email, err := valueOrPrompt(cmd, in, loginEmail, "Email: ")
	if err != nil {
		return err
	}
	password, err := passwordOrPrompt(cmd, in, loginPassword)
	if err != nil {
		return err
	}
	return reported(current.session.Login(ctx, email, password))
}

func valueOrPrompt(cmd *cobra.Command, in *bufio.Reader, value, label string) (string, error) {
	if value != "" {
		return value, nil
	}
	return prompt(cmd, in, label)
}

func prompt(cmd *cobra.Command, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimSpace(line), nil
}

// passwordOrPrompt reads the password without echo when stdin is a terminal.
func passwordOrPrompt(cmd *cobra.Command, in *bufio.Reader, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	if cmd.InOrStdin() != os.Stdin || !term.IsTerminal(int(os.Stdin.Fd())) {
		return prompt(cmd, in, "Password: ")
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}
