// Command scanq is the command-line client for a scanq server. It drives the
// tool-call endpoint: synchronous InterProScan runs, asynchronous job
// submission, and job lifecycle management.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/bioscanq/scanq/internal/backoff"
)

const defaultBaseURL = "http://localhost:8080"

var version = "dev"

// ---------------------------------------------------------------------------
// Profiles
// ---------------------------------------------------------------------------

type profile struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token,omitempty"`
}

type cliConfig struct {
	Current  string             `yaml:"current"`
	Profiles map[string]profile `yaml:"profiles"`
}

func configDir() string {
	if dir := os.Getenv("SCANQ_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".scanq"
	}
	return filepath.Join(home, ".scanq")
}

func configPath() string { return filepath.Join(configDir(), "config.yaml") }

func loadCLIConfig() (*cliConfig, error) {
	cfg := &cliConfig{Profiles: map[string]profile{}}
	data, err := os.ReadFile(configPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath(), err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]profile{}
	}
	return cfg, nil
}

func saveCLIConfig(cfg *cliConfig) error {
	if err := os.MkdirAll(configDir(), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath(), data, 0o600)
}

// resolveProfile layers flags over the named (or current) profile over
// environment variables over defaults.
func resolveProfile(cfg *cliConfig, name, flagBaseURL, flagToken string) profile {
	p := profile{BaseURL: defaultBaseURL}
	if env := os.Getenv("SCANQ_BASE_URL"); env != "" {
		p.BaseURL = env
	}
	if env := os.Getenv("SCANQ_TOKEN"); env != "" {
		p.Token = env
	}
	if name == "" {
		name = cfg.Current
	}
	if name != "" {
		if stored, ok := cfg.Profiles[name]; ok {
			if stored.BaseURL != "" {
				p.BaseURL = stored.BaseURL
			}
			if stored.Token != "" {
				p.Token = stored.Token
			}
		}
	}
	if flagBaseURL != "" {
		p.BaseURL = flagBaseURL
	}
	if flagToken != "" {
		p.Token = flagToken
	}
	p.BaseURL = strings.TrimRight(p.BaseURL, "/")
	return p
}

// ---------------------------------------------------------------------------
// HTTP client
// ---------------------------------------------------------------------------

type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func newClient(p profile) *client {
	return &client{
		baseURL: p.BaseURL,
		token:   p.Token,
		http:    &http.Client{Timeout: 35 * time.Minute},
	}
}

func (c *client) request(method, path string, body any) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return data, resp.StatusCode, nil
}

type contentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// callTool invokes a server-side tool and returns the first content item.
// Error-typed content comes back as a Go error so commands can exit nonzero.
func (c *client) callTool(name string, args map[string]any) (string, error) {
	payload := map[string]any{"name": name, "arguments": args}
	data, status, err := c.request(http.MethodPost, "/v1/scanq/tools/call", payload)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return "", fmt.Errorf("server: %s (HTTP %d)", apiErr.Error, status)
		}
		return "", fmt.Errorf("server returned HTTP %d", status)
	}
	var out struct {
		Content []contentItem `json:"content"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(out.Content) == 0 {
		return "", errors.New("empty response")
	}
	item := out.Content[0]
	if item.Type == "error" {
		return "", errors.New(item.Text)
	}
	return item.Text, nil
}

// ---------------------------------------------------------------------------
// Output helpers
// ---------------------------------------------------------------------------

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	failMark = color.New(color.FgRed).SprintFunc()
	dim      = color.New(color.Faint).SprintFunc()
)

func printErr(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", failMark("error:"), err)
}

func newSpinner(msg string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
	s.Suffix = " " + msg
	s.Writer = os.Stderr
	return s
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func main() {
	var (
		flagBaseURL string
		flagToken   string
		flagProfile string
	)

	getClient := func() (*client, error) {
		cfg, err := loadCLIConfig()
		if err != nil {
			return nil, err
		}
		return newClient(resolveProfile(cfg, flagProfile, flagBaseURL, flagToken)), nil
	}

	root := &cobra.Command{
		Use:           "scanq",
		Short:         "Client for the scanq protein analysis server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "server base URL (default "+defaultBaseURL+", env SCANQ_BASE_URL)")
	root.PersistentFlags().StringVar(&flagToken, "token", "", "bearer token (env SCANQ_TOKEN)")
	root.PersistentFlags().StringVar(&flagProfile, "profile", "", "named profile from "+configPath())

	root.AddCommand(
		initCmd(),
		authCmd(&flagProfile),
		toolsCmd(getClient),
		runCmd(getClient),
		submitCmd(getClient),
		jobCmd(getClient),
	)

	if err := root.Execute(); err != nil {
		printErr(err)
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	var baseURL string
	cmd := &cobra.Command{
		Use:   "init [profile]",
		Short: "Create or update a profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "default"
			if len(args) == 1 {
				name = args[0]
			}
			cfg, err := loadCLIConfig()
			if err != nil {
				return err
			}
			p := cfg.Profiles[name]
			if baseURL != "" {
				p.BaseURL = baseURL
			}
			if p.BaseURL == "" {
				p.BaseURL = promptLine(fmt.Sprintf("Server base URL [%s]: ", defaultBaseURL))
				if p.BaseURL == "" {
					p.BaseURL = defaultBaseURL
				}
			}
			cfg.Profiles[name] = p
			cfg.Current = name
			if err := saveCLIConfig(cfg); err != nil {
				return err
			}
			fmt.Printf("%s profile %q saved to %s\n", okMark("✓"), name, configPath())
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "server base URL to store in the profile")
	return cmd
}

func authCmd(flagProfile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored credentials",
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Store a bearer token in the current profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCLIConfig()
			if err != nil {
				return err
			}
			name := *flagProfile
			if name == "" {
				name = cfg.Current
			}
			if name == "" {
				name = "default"
			}
			token, err := promptSecret("Token: ")
			if err != nil {
				return err
			}
			if token == "" {
				return errors.New("empty token")
			}
			p := cfg.Profiles[name]
			if p.BaseURL == "" {
				p.BaseURL = defaultBaseURL
			}
			p.Token = token
			cfg.Profiles[name] = p
			if cfg.Current == "" {
				cfg.Current = name
			}
			if err := saveCLIConfig(cfg); err != nil {
				return err
			}
			fmt.Printf("%s token stored for profile %q\n", okMark("✓"), name)
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the current profile (token masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCLIConfig()
			if err != nil {
				return err
			}
			name := *flagProfile
			if name == "" {
				name = cfg.Current
			}
			p, ok := cfg.Profiles[name]
			if !ok {
				return fmt.Errorf("no profile %q; run 'scanq init' first", name)
			}
			fmt.Printf("Profile:  %s\n", name)
			fmt.Printf("Base URL: %s\n", p.BaseURL)
			if p.Token != "" {
				fmt.Printf("Token:    %s\n", maskToken(p.Token))
			} else {
				fmt.Printf("Token:    %s\n", dim("(none)"))
			}
			return nil
		},
	}

	cmd.AddCommand(set, show)
	return cmd
}

func toolsCmd(getClient func() (*client, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List tools exposed by the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getClient()
			if err != nil {
				return err
			}
			data, status, err := c.request(http.MethodGet, "/v1/scanq/tools", nil)
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("server returned HTTP %d", status)
			}
			var out struct {
				Tools []struct {
					Name        string `json:"name"`
					Description string `json:"description"`
				} `json:"tools"`
			}
			if err := json.Unmarshal(data, &out); err != nil {
				return err
			}
			for _, t := range out.Tools {
				fmt.Printf("%-22s %s\n", t.Name, t.Description)
			}
			return nil
		},
	}
}

func runCmd(getClient func() (*client, error)) *cobra.Command {
	var (
		inputFile    string
		databases    string
		outputFormat string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run InterProScan synchronously and print the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getClient()
			if err != nil {
				return err
			}
			callArgs := map[string]any{"input_file": inputFile}
			if databases != "" {
				callArgs["databases"] = databases
			}
			if outputFormat != "" {
				callArgs["output_format"] = outputFormat
			}

			sp := newSpinner("running InterProScan (this can take a while)...")
			sp.Start()
			text, err := c.callTool("interpro_run", callArgs)
			sp.Stop()
			if err != nil {
				return err
			}
			fmt.Print(text)
			if !strings.HasSuffix(text, "\n") {
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "protein FASTA file (required)")
	cmd.Flags().StringVar(&databases, "appl", "", "comma-separated databases to search")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format: tsv, xml, json, gff3")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func submitCmd(getClient func() (*client, error)) *cobra.Command {
	var (
		inputFile    string
		databases    string
		outputFormat string
		priority     int
		tags         []string
		notifyEmail  string
		noGoTerms    bool
		noPathways   bool
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit an InterProScan analysis to the job queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getClient()
			if err != nil {
				return err
			}
			callArgs := map[string]any{
				"input_file": inputFile,
				"priority":   priority,
				"goterms":    !noGoTerms,
				"pathways":   !noPathways,
			}
			if databases != "" {
				callArgs["databases"] = databases
			}
			if outputFormat != "" {
				callArgs["output_format"] = outputFormat
			}
			if len(tags) > 0 {
				callArgs["tags"] = tags
			}
			if notifyEmail != "" {
				callArgs["notification_email"] = notifyEmail
			}

			sp := newSpinner("submitting job...")
			sp.Start()
			text, err := c.callTool("interpro_run_async", callArgs)
			sp.Stop()
			if err != nil {
				return err
			}
			fmt.Print(text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "protein FASTA file (required)")
	cmd.Flags().StringVar(&databases, "appl", "", "comma-separated databases to search")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format: tsv, xml, json, gff3")
	cmd.Flags().IntVar(&priority, "priority", 5, "queue scheduling priority")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "tags attached to the job")
	cmd.Flags().StringVar(&notifyEmail, "notification-email", "", "email to notify on completion")
	cmd.Flags().BoolVar(&noGoTerms, "no-goterms", false, "skip GO term annotations")
	cmd.Flags().BoolVar(&noPathways, "no-pathways", false, "skip pathway annotations")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func jobCmd(getClient func() (*client, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Inspect and manage submitted jobs",
	}

	simpleTool := func(use, short, tool string) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <job-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := getClient()
				if err != nil {
					return err
				}
				text, err := c.callTool(tool, map[string]any{"job_id": args[0]})
				if err != nil {
					return err
				}
				fmt.Print(text)
				if !strings.HasSuffix(text, "\n") {
					fmt.Println()
				}
				return nil
			},
		}
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List submitted jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getClient()
			if err != nil {
				return err
			}
			text, err := c.callTool("list_my_jobs", map[string]any{})
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		},
	}

	cmd.AddCommand(
		simpleTool("status", "Show the status of a job", "get_job_status"),
		simpleTool("result", "Fetch the results of a completed job", "get_job_result"),
		simpleTool("cancel", "Cancel a queued or running job", "cancel_job"),
		list,
		watchCmd(getClient),
	)
	return cmd
}

var (
	statusLineRe   = regexp.MustCompile(`(?m)^Status: (\S+)`)
	progressLineRe = regexp.MustCompile(`(?m)^  percent_complete: (\d+)`)
)

func watchCmd(getClient func() (*client, error)) *cobra.Command {
	var (
		pollBase time.Duration
		pollMax  time.Duration
		policy   string
	)
	cmd := &cobra.Command{
		Use:   "watch <job-id>",
		Short: "Poll a job until it finishes, showing progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getClient()
			if err != nil {
				return err
			}
			jobID := args[0]
			rng := rand.New(rand.NewSource(time.Now().UnixNano()))

			bar := progressbar.NewOptions(100,
				progressbar.OptionSetDescription("job "+jobID),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)

			for attempt := 0; ; attempt++ {
				text, err := c.callTool("get_job_status", map[string]any{"job_id": jobID})
				if err != nil {
					return err
				}
				state := ""
				if m := statusLineRe.FindStringSubmatch(text); m != nil {
					state = m[1]
				}
				if m := progressLineRe.FindStringSubmatch(text); m != nil {
					if pct, err := strconv.Atoi(m[1]); err == nil {
						_ = bar.Set(pct)
					}
				}

				switch state {
				case "succeeded":
					_ = bar.Finish()
					fmt.Fprintf(os.Stderr, "%s job %s succeeded\n", okMark("✓"), jobID)
					result, err := c.callTool("get_job_result", map[string]any{"job_id": jobID})
					if err != nil {
						return err
					}
					fmt.Print(result)
					return nil
				case "failed", "cancelled":
					_ = bar.Clear()
					return fmt.Errorf("job %s %s\n%s", jobID, state, text)
				}

				time.Sleep(backoff.Interval(policy, pollBase, pollMax, attempt, rng))
			}
		},
	}
	cmd.Flags().DurationVar(&pollBase, "poll-base", 2*time.Second, "initial poll interval")
	cmd.Flags().DurationVar(&pollMax, "poll-max", 30*time.Second, "maximum poll interval")
	cmd.Flags().StringVar(&policy, "poll-policy", "exp_equal_jitter", "poll backoff policy: fixed, linear, exponential, exp_equal_jitter, exp_full_jitter")
	return cmd
}

// ---------------------------------------------------------------------------
// Prompts
// ---------------------------------------------------------------------------

func promptLine(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

// promptSecret reads without echo when stdin is a terminal, so tokens never
// land in shell history or scrollback.
func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		data, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
