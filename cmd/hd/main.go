package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"houseduty/internal/app"
	"houseduty/internal/db"
	"houseduty/internal/domain"
	"houseduty/internal/engine"
	"houseduty/internal/report"
	"houseduty/internal/repo"
)

var rootCmd = &cobra.Command{
	Use:   "hd",
	Short: "House duty scheduler",
	Long: `hd assigns the weekly house cleaning duties.
It expands the task catalog into dated occurrences for a target week,
tops the week up with bonus cleanings when the roster is large enough,
and staffs every occurrence with a fairness score over the persisted
rotation ledger. Runs are deterministic: the same inputs, state and
seed always produce the same schedule.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("HOUSEDUTY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("config", "", "config file (default <workspace>/houseduty.yml)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func registerCommands() {
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(stateCmd())
	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(historyCmd())
}

func generateCmd() *cobra.Command {
	var start string
	var weeks int
	var seed int64
	var dryRun, quiet bool
	var outputCSV, outputJSON string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the duty schedule",
		Long: `Generates one or more consecutive weeks of duty assignments.
The start Sunday comes from --start, then the config, then the most
recent Sunday. Without --dry-run every generated week updates the
rotation ledger.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if cmd.Flags().Changed("seed") {
					a.Config.Scheduling.Seed = seed
				}
				if cmd.Flags().Changed("weeks") {
					a.Config.Scheduling.Weeks = weeks
				}
				if outputCSV != "" {
					a.Config.Files.OutputCSV = outputCSV
				}
				if outputJSON != "" {
					a.Config.Files.OutputJSON = outputJSON
				}
				weekStart, err := resolveStart(start, a.Config.Scheduling.StartSunday)
				if err != nil {
					return err
				}

				in, err := a.LoadInputs()
				if err != nil {
					return err
				}
				eng := a.Engine(in)
				state, err := a.Repo.LoadState(ctx)
				if err != nil {
					return err
				}

				var results []engine.Result
				for i := 0; i < a.Config.Scheduling.Weeks; i++ {
					ws := weekStart.AddDate(0, 0, 7*i)
					result, next, err := eng.Run(state, ws)
					if err != nil {
						return err
					}
					if !dryRun {
						resultJSON, err := json.Marshal(result)
						if err != nil {
							return err
						}
						run := repo.Run{
							ID:         uuid.NewString(),
							WeekStart:  result.WeekStart.Format("2006-01-02"),
							WeekIndex:  result.WeekIndex,
							RosterSize: len(in.Roster),
							ResultJSON: string(resultJSON),
						}
						if err := a.Repo.SaveRun(ctx, run, next); err != nil {
							return err
						}
					}
					state = next
					results = append(results, result)
				}

				if path, err := a.OutputPath(a.Config.Files.OutputCSV); err != nil {
					return err
				} else if err := report.WriteCSV(path, results); err != nil {
					return err
				}
				if path, err := a.OutputPath(a.Config.Files.OutputJSON); err != nil {
					return err
				} else if err := report.WriteJSON(path, results); err != nil {
					return err
				}

				if viper.GetBool("json") {
					return printJSON(results)
				}
				if !quiet {
					for _, result := range results {
						report.Table(os.Stdout, result, a.Config.Display.DeckOrder)
					}
					if dryRun {
						fmt.Println("dry run: rotation state not updated")
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "start Sunday (YYYY-MM-DD)")
	cmd.Flags().IntVar(&weeks, "weeks", 1, "number of consecutive weeks")
	cmd.Flags().Int64Var(&seed, "seed", 42, "tie-break seed")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "do not update rotation state")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "suppress the schedule table")
	cmd.Flags().StringVar(&outputCSV, "output-csv", "", "CSV output path (overrides config)")
	cmd.Flags().StringVar(&outputJSON, "output-json", "", "JSON output path (overrides config)")
	return cmd
}

// resolveStart picks the start Sunday: flag, then config, then the most
// recent Sunday. Explicit dates must be Sundays.
func resolveStart(flag, configured string) (time.Time, error) {
	raw := flag
	if raw == "" {
		raw = configured
	}
	if raw == "" {
		return domain.MostRecentSunday(time.Now().UTC()), nil
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start date %q: want YYYY-MM-DD", raw)
	}
	if d.Weekday() != time.Sunday {
		return time.Time{}, fmt.Errorf("start date %s is a %s, not a Sunday", raw, d.Weekday())
	}
	return domain.Midnight(d), nil
}

func stateCmd() *cobra.Command {
	st := &cobra.Command{Use: "state", Short: "Inspect or reset the rotation ledger"}
	st.AddCommand(stateShowCmd())
	st.AddCommand(stateResetCmd())
	return st
}

func stateShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the rotation ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				state, err := a.Repo.LoadState(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(state)
				}
				if !state.Active() {
					fmt.Println("rotation state: empty (no runs yet)")
					return nil
				}
				fmt.Printf("Anchor Sunday: %s\n", state.AnchorSunday)
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Person", "Task counts", "Last week"})
				for _, person := range statePeople(state.TaskCounts, state.LastWeek) {
					tw.AppendRow(table.Row{
						person,
						formatCounts(state.TaskCounts[person]),
						strings.Join(state.LastWeek[person], ", "),
					})
				}
				tw.Render()
				if len(state.BonusCounts) > 0 {
					fmt.Printf("Bonus counts: %s\n", formatCounts(state.BonusCounts))
				}
				return nil
			})
		},
	}
	return cmd
}

func stateResetCmd() *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the rotation ledger",
		Long:  "Deletes the rotation ledger so the next run re-anchors. History is kept.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("state reset is destructive; pass --confirm")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Repo.ResetState(ctx); err != nil {
					return err
				}
				fmt.Println("rotation state reset")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm the reset")
	return cmd
}

func catalogCmd() *cobra.Command {
	cat := &cobra.Command{Use: "catalog", Short: "Inspect the task catalog"}
	cat.AddCommand(catalogListCmd())
	return cat
}

func catalogListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				templates, err := a.LoadCatalog()
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(templates)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Key", "Deck", "Label", "Category", "People", "Cadence", "Weight", "Bonus"})
				for _, t := range templates {
					tw.AppendRow(table.Row{
						t.Key, t.Deck, t.Label, string(t.Category), t.PeopleNeeded,
						string(t.Cadence), fmt.Sprintf("%.2f", t.Weight()), t.BonusEligible,
					})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				runs, err := a.Repo.ListRuns(ctx, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(runs)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Week start", "Week", "Roster", "Created"})
				for _, run := range runs {
					tw.AppendRow(table.Row{run.ID, run.WeekStart, run.WeekIndex, run.RosterSize, run.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs")
	return cmd
}

// --- helpers ---

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	a, err := app.Open(viper.GetString("workspace"), viper.GetString("config"))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func statePeople(tasks map[string]map[string]int, lastWeek map[string][]string) []string {
	seen := map[string]bool{}
	for name := range tasks {
		seen[name] = true
	}
	for name := range lastWeek {
		seen[name] = true
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%d", k, counts[k]))
	}
	return strings.Join(parts, " ")
}
