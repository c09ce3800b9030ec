package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"imgcrawler/pkg/credentials"
	"imgcrawler/pkg/ui"
)

var (
	authCookie    string
	authAuthz     string
	authUserAgent string
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage per-site credentials",
	Long: `Manage the cookies and authorization headers sent to specific hosts.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (IMGCRAWLER_COOKIE, IMGCRAWLER_AUTHORIZATION)

Stored values are sent to the start page's host on every crawl unless
--site-auth=false is given.`,
}

// setCmd represents the auth set command
var setCmd = &cobra.Command{
	Use:   "set <host>",
	Short: "Store credentials for a host",
	Long: `Store a cookie, an Authorization header and/or a User-Agent for a host.

Values not given as flags are prompted for; secrets are read without echo.
A URL may be given instead of a bare host.`,
	Example: `  # Interactive
  imgcrawler auth set example.com

  # Non-interactive
  imgcrawler auth set https://example.com/gallery --cookie "session=abc"`,
	Args: cobra.ExactArgs(1),
	RunE: runAuthSet,
}

// authShowCmd represents the auth show command
var authShowCmd = &cobra.Command{
	Use:   "show [host]",
	Short: "List stored hosts with masked values",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuthShow,
}

// deleteCmd represents the auth delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <host>",
	Short: "Remove stored credentials for a host",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthDelete,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(setCmd)
	authCmd.AddCommand(authShowCmd)
	authCmd.AddCommand(deleteCmd)

	setCmd.Flags().StringVar(&authCookie, "cookie", "", "Cookie header value")
	setCmd.Flags().StringVar(&authAuthz, "authorization", "", "Authorization header value")
	setCmd.Flags().StringVar(&authUserAgent, "user-agent", "", "User-Agent header value")
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	manager, err := credentials.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	host, err := credentials.NormalizeHost(args[0])
	if err != nil {
		return err
	}

	site := &credentials.Site{
		Host:          host,
		Cookie:        authCookie,
		Authorization: authAuthz,
		UserAgent:     authUserAgent,
	}

	anyFlag := cmd.Flags().Changed("cookie") || cmd.Flags().Changed("authorization") || cmd.Flags().Changed("user-agent")
	if !anyFlag {
		reader := bufio.NewReader(os.Stdin)
		fmt.Printf("Credentials for %s (press Enter to skip a value)\n\n", ui.Cyan(host))

		if site.Cookie, err = promptSecret(reader, "Cookie: "); err != nil {
			return fmt.Errorf("failed to read cookie: %w", err)
		}
		if site.Authorization, err = promptSecret(reader, "Authorization: "); err != nil {
			return fmt.Errorf("failed to read authorization: %w", err)
		}
		fmt.Print("User-Agent: ")
		if site.UserAgent, err = readLine(reader); err != nil {
			return fmt.Errorf("failed to read user agent: %w", err)
		}
	}

	if err := manager.Store(site); err != nil {
		return err
	}

	ui.PrintSuccess("Credentials saved for " + host)
	return nil
}

func runAuthShow(cmd *cobra.Command, args []string) error {
	manager, err := credentials.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var sites []*credentials.Site
	if len(args) == 1 {
		site, err := manager.Retrieve(args[0])
		if err != nil {
			return err
		}
		sites = []*credentials.Site{site}
	} else {
		sites, err = manager.List()
		if err != nil {
			return err
		}
	}

	if len(sites) == 0 {
		ui.PrintWarning("No stored credentials")
		fmt.Println("\nTo add some, run:")
		fmt.Println("  imgcrawler auth set <host>")
		return nil
	}

	for _, site := range sites {
		printSite(os.Stdout, credentials.Sanitize(site))
	}
	return nil
}

func runAuthDelete(cmd *cobra.Command, args []string) error {
	manager, err := credentials.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	if err := manager.Delete(args[0]); err != nil {
		return err
	}
	ui.PrintSuccess("Credentials removed for " + args[0])
	return nil
}

func printSite(w io.Writer, site *credentials.Site) {
	fmt.Fprintln(w, ui.Cyan(site.Host))
	if site.Cookie != "" {
		fmt.Fprintf(w, "  cookie:        %s\n", site.Cookie)
	}
	if site.Authorization != "" {
		fmt.Fprintf(w, "  authorization: %s\n", site.Authorization)
	}
	if site.UserAgent != "" {
		fmt.Fprintf(w, "  user-agent:    %s\n", site.UserAgent)
	}
	if !site.LastModified.IsZero() {
		fmt.Fprintf(w, "  updated:       %s\n", ui.Dim(site.LastModified.Format("2006-01-02 15:04")))
	}
}

// promptSecret reads a value without echo when stdin is a terminal
func promptSecret(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}
	return readLine(reader)
}

func readLine(reader *bufio.Reader) (string, error) {
	input, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
