package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bitelog/bitelog/client"
)

var (
	apiURL  string
	verbose bool
)

const dateLayout = "2006-01-02"

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bitelog",
		Short:         "Photo food diary: capture meals, review daily intake",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()

			zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
			log.Logger = log.Output(zerolog.ConsoleWriter{
				Out:        cmd.ErrOrStderr(),
				TimeFormat: "2006-01-02 15:04:05",
				NoColor:    true,
			})
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
				log.Debug().Msg("verbose logging enabled")
			} else {
				zerolog.SetGlobalLevel(zerolog.WarnLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Base URL of the bitelog service (overrides BITELOG_API_URL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newCaptureCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newSummaryCmd())
	rootCmd.AddCommand(newEditCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newGoalCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	return rootCmd
}

func newClient(cmd *cobra.Command) (*client.Client, error) {
	cfg, err := client.LoadConfig()
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	errOut := cmd.ErrOrStderr()
	opts := []client.Option{
		client.WithNotifier(client.NotifierFunc(func(msg string) {
			fmt.Fprintln(errOut, "!", msg)
		})),
		client.WithObserver(client.ObserverFunc(func(t client.Transition) {
			log.Debug().Str("entry_id", t.EntryID).Str("phase", string(t.Phase)).AnErr("cause", t.Err).Msg("entry transition")
		})),
	}
	// Prefer a named zone over the offset the gateway sends for time.Local.
	if tz := os.Getenv("TZ"); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			opts = append(opts, client.WithLocation(loc))
		}
	}
	return client.New(cfg, opts...)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	d, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return d, nil
}

// loadDay fetches the day from the service, falling back to the local
// snapshot when the service is unreachable.
func loadDay(ctx context.Context, c *client.Client, day time.Time) error {
	err := c.Load(ctx, day)
	if err == nil {
		return c.SaveSnapshot()
	}
	n, rerr := c.RestoreSnapshot()
	if rerr != nil || n == 0 {
		return err
	}
	log.Warn().Err(err).Int("entries", n).Msg("service unavailable, showing local snapshot")
	return c.SetActiveDate(day)
}

// askWeight implements the weight prompt: a number declares the weight,
// an empty line means unknown, "c" cancels.
func askWeight(in io.Reader, out io.Writer) (client.WeightAnswer, error) {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "ზუსტი გრამაჟი (Enter = არ ვიცი, c = გაუქმება): ")
		if !sc.Scan() {
			return client.Cancelled, sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch strings.ToLower(line) {
		case "":
			return client.Unknown, nil
		case "c":
			return client.Cancelled, nil
		}
		g, err := strconv.ParseFloat(line, 64)
		if err == nil && g > 0 {
			return client.Declared(g), nil
		}
		fmt.Fprintln(out, "გთხოვთ შეიყვანოთ სწორი წონა")
	}
}

func newCaptureCmd() *cobra.Command {
	var (
		weight        float64
		unknownWeight bool
		ask           bool
		noWait        bool
	)
	cmd := &cobra.Command{
		Use:   "capture <photo>",
		Short: "Log a meal from a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			answer := client.NotAsked
			switch {
			case cmd.Flags().Changed("weight"):
				answer = client.Declared(weight)
			case unknownWeight:
				answer = client.Unknown
			case ask:
				if answer, err = askWeight(cmd.InOrStdin(), cmd.ErrOrStderr()); err != nil {
					return err
				}
			}

			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			id, err := c.Capture(cmd.Context(), img, answer)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entry %s created, analyzing...\n", id)
			if noWait {
				return c.SaveSnapshot()
			}
			if err := c.Await(cmd.Context(), id); err != nil {
				return err
			}
			if e, ok := c.Entry(id); ok {
				printEntries(cmd.OutOrStdout(), []client.Entry{e})
			}
			return c.SaveSnapshot()
		},
	}
	cmd.Flags().Float64Var(&weight, "weight", 0, "Exact weight of the meal in grams")
	cmd.Flags().BoolVar(&unknownWeight, "weight-unknown", false, "Answer the weight prompt with \"don't know\"")
	cmd.Flags().BoolVar(&ask, "ask", false, "Prompt for the weight interactively")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Return once the entry is stored, without waiting for analysis")
	return cmd
}

func newListCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the entries of a day (default today)",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDate(date)
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := loadDay(cmd.Context(), c, day); err != nil {
				return err
			}
			entries, err := c.Entries()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "ჩანაწერები არ მოიძებნა")
				return nil
			}
			printEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day to list (YYYY-MM-DD)")
	return cmd
}

func newSummaryCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show a day's totals against the calorie goal",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDate(date)
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			if _, err := c.LoadSettings(cmd.Context()); err != nil {
				log.Warn().Err(err).Msg("using stored calorie goal")
			}
			if err := loadDay(cmd.Context(), c, day); err != nil {
				return err
			}
			s, err := c.Summary()
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), s)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day to summarize (YYYY-MM-DD)")
	return cmd
}

func newEditCmd() *cobra.Command {
	var (
		date                         string
		name                         string
		calories, protein, carbs, fat float64
	)
	cmd := &cobra.Command{
		Use:   "edit <entry-id>",
		Short: "Correct the name or totals of an analyzed entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req client.EditRequest
			f := cmd.Flags()
			if f.Changed("name") {
				req.Name = &name
			}
			if f.Changed("calories") {
				req.Calories = &calories
			}
			if f.Changed("protein") {
				req.Protein = &protein
			}
			if f.Changed("carbs") {
				req.Carbs = &carbs
			}
			if f.Changed("fat") {
				req.Fat = &fat
			}
			if req == (client.EditRequest{}) {
				return fmt.Errorf("nothing to change: pass --name or a macro flag")
			}

			day, err := parseDate(date)
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Load(cmd.Context(), day); err != nil {
				return err
			}
			if err := c.Edit(cmd.Context(), args[0], req); err != nil {
				return err
			}
			if e, ok := c.Entry(args[0]); ok {
				printEntries(cmd.OutOrStdout(), []client.Entry{e})
			}
			return c.SaveSnapshot()
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day of the entry (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&name, "name", "", "New meal name")
	cmd.Flags().Float64Var(&calories, "calories", 0, "Total calories (kcal)")
	cmd.Flags().Float64Var(&protein, "protein", 0, "Total protein (g)")
	cmd.Flags().Float64Var(&carbs, "carbs", 0, "Total carbohydrates (g)")
	cmd.Flags().Float64Var(&fat, "fat", 0, "Total fat (g)")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	var (
		date string
		yes  bool
	)
	cmd := &cobra.Command{
		Use:   "delete <entry-id>",
		Short: "Delete an entry after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDate(date)
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Load(cmd.Context(), day); err != nil {
				return err
			}
			req, err := c.RequestDelete(args[0])
			if err != nil {
				return err
			}
			if !yes && !confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), "წავშალო ჩანაწერი? [y/N]: ") {
				req.Cancel()
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}
			if err := req.Confirm(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entry %s deleted\n", args[0])
			return c.SaveSnapshot()
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day of the entry (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	sc := bufio.NewScanner(in)
	if !sc.Scan() {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(sc.Text())) {
	case "y", "yes":
		return true
	}
	return false
}

func newGoalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "goal [calories]",
		Short: "Show or set the daily calorie goal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			if len(args) == 0 {
				goal, err := c.LoadSettings(cmd.Context())
				if err != nil {
					log.Warn().Err(err).Msg("showing stored calorie goal")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Calorie goal: %d kcal\n", goal)
				return nil
			}
			goal, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("calorie goal must be a whole number: %w", err)
			}
			if err := c.UpdateGoal(cmd.Context(), goal); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Calorie goal set to %d kcal\n", goal)
			return nil
		},
	}
}

func newLoginCmd() *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and name",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			id, err := c.Login(cmd.Context(), email, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s <%s>\n", id.Account.Name, id.Account.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and continue anonymously",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			if _, err := c.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			id, err := c.Identity()
			if err != nil {
				return err
			}
			if id.Anonymous() {
				fmt.Fprintf(cmd.OutOrStdout(), "anonymous (%s)\n", id.UserID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (%s)\n", id.Account.Name, id.Account.Email, id.UserID)
			return nil
		},
	}
}
