package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/kpango/glg"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mikechambers/dcli-sub000/bungie"
	"github.com/mikechambers/dcli-sub000/db"
	"github.com/mikechambers/dcli-sub000/models"
	"github.com/mikechambers/dcli-sub000/server"
)

var (
	flagMode  int
	flagClass string
	flagStart string
	flagEnd   string
	flagGroup int64
	flagAddr  string
)

func init() {
	for _, cmd := range []*cobra.Command{activitiesCmd, summaryCmd, lastCmd, statsCmd} {
		cmd.Flags().IntVar(&flagMode, "mode", int(models.ModeAllPvP), "activity mode id to filter on")
		cmd.Flags().StringVar(&flagClass, "class", "all", "character class (titan, hunter, warlock, last, all)")
	}
	for _, cmd := range []*cobra.Command{activitiesCmd, summaryCmd} {
		cmd.Flags().StringVar(&flagStart, "start", "", "period start (RFC3339, default beginning of time)")
		cmd.Flags().StringVar(&flagEnd, "end", "", "period end (RFC3339, default now)")
	}
	syncCmd.Flags().Int64Var(&flagGroup, "group", 0, "subscribe every member of this clan group id")
	serveCmd.Flags().StringVar(&flagAddr, "addr", ":8080", "listen address")
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

var syncCmd = &cobra.Command{
	Use:   "sync [NAME#CODE]",
	Short: "Sync activity history for a player, a clan group, or every subscription",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		engine, err := newEngine(store)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		if flagGroup != 0 {
			added, err := engine.AddGroup(ctx, flagGroup)
			if err != nil {
				return err
			}
			fmt.Printf("Subscribed %d members from group %d\n", added, flagGroup)
		}

		if len(args) == 1 {
			name, err := models.ParseBungieName(args[0])
			if err != nil {
				return err
			}

			member, err := engine.AddMember(ctx, name)
			if err != nil {
				return err
			}

			result, err := engine.SyncMember(ctx, member)
			if err != nil {
				return err
			}
			fmt.Printf("Synced %d activities for %s (%d remaining)\n",
				result.TotalSynced, member.Name.FullName(), result.TotalAvailable)
			return nil
		}

		result, err := engine.SyncAll(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Synced %d activities (%d remaining)\n",
			result.TotalSynced, result.TotalAvailable)
		return nil
	},
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Continuously sync every subscribed player",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		engine, err := newEngine(store)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		if err := engine.RunDaemon(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}

		glg.Infof("Daemon stopped")
		return nil
	},
}

// lookupStoredMember resolves a NAME#CODE against the local store only.
// Players have to be synced before they can be queried.
func lookupStoredMember(store *db.Store, raw string) (*models.Member, error) {
	name, err := models.ParseBungieName(raw)
	if err != nil {
		return nil, err
	}

	member, err := store.GetMemberByName(name)
	if errors.Is(err, db.ErrMemberNotFound) {
		return nil, errors.Errorf("%s has not been synced yet, run sync first", raw)
	}

	return member, err
}

func parseClassFlag(value string) (models.CharacterSelection, error) {
	switch strings.ToLower(value) {
	case "titan":
		return models.SelectionTitan, nil
	case "hunter":
		return models.SelectionHunter, nil
	case "warlock":
		return models.SelectionWarlock, nil
	case "last":
		return models.SelectionLastActive, nil
	case "all":
		return models.SelectionAll, nil
	}

	return models.SelectionAll, errors.Errorf("unknown class: %s", value)
}

func parsePeriodFlags() (*models.DateTimePeriod, error) {
	start := time.Unix(0, 0)
	end := time.Now().UTC()

	var err error
	if flagStart != "" {
		if start, err = time.Parse(time.RFC3339, flagStart); err != nil {
			return nil, errors.Wrap(err, "invalid --start")
		}
	}
	if flagEnd != "" {
		if end, err = time.Parse(time.RFC3339, flagEnd); err != nil {
			return nil, errors.Wrap(err, "invalid --end")
		}
	}

	return models.NewDateTimePeriod(start, end)
}

var activitiesCmd = &cobra.Command{
	Use:   "activities NAME#CODE",
	Short: "List stored activities for a player",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		member, err := lookupStoredMember(store, args[0])
		if err != nil {
			return err
		}

		selection, err := parseClassFlag(flagClass)
		if err != nil {
			return err
		}
		period, err := parsePeriodFlags()
		if err != nil {
			return err
		}

		queries := openQueries(store)
		performances, err := queries.RetrieveActivitiesSince(member.ID, selection,
			models.ModeFromID(flagMode), period)
		if err != nil {
			return err
		}
		if len(performances) == 0 {
			fmt.Println("No activities found")
			return nil
		}

		writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(writer, "PERIOD\tMAP\tMODE\tRESULT\tK\tD\tA\tKD\tEFF")
		for _, performance := range performances {
			stats := &performance.Stats
			fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%.2f\t%.2f\n",
				performance.Activity.Period.Format("2006-01-02 15:04"),
				performance.Activity.MapName,
				performance.Activity.Mode,
				stats.Standing,
				stats.Kills, stats.Deaths, stats.Assists,
				stats.KillsDeathsRatio(), stats.Efficiency())
		}
		return writer.Flush()
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary NAME#CODE",
	Short: "Aggregate stats for a player over a period",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		member, err := lookupStoredMember(store, args[0])
		if err != nil {
			return err
		}

		selection, err := parseClassFlag(flagClass)
		if err != nil {
			return err
		}
		period, err := parsePeriodFlags()
		if err != nil {
			return err
		}

		queries := openQueries(store)
		summary, err := queries.RetrieveActivitiesSummary(member.ID, selection,
			models.ModeFromID(flagMode), period)
		if err != nil {
			return err
		}

		writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(writer, "Activities\t%d\n", summary.TotalActivities)
		fmt.Fprintf(writer, "Wins\t%d (%.1f%%)\n", summary.Wins, summary.WinPercentage())
		fmt.Fprintf(writer, "Losses\t%d\n", summary.Losses())
		fmt.Fprintf(writer, "Mercies\t%d\n", summary.CompletionReasonMercy)
		fmt.Fprintf(writer, "Kills\t%d (best %d)\n", summary.Kills, summary.HighestKills)
		fmt.Fprintf(writer, "Deaths\t%d (most %d)\n", summary.Deaths, summary.HighestDeaths)
		fmt.Fprintf(writer, "Assists\t%d (best %d)\n", summary.Assists, summary.HighestAssists)
		fmt.Fprintf(writer, "KD\t%.2f (best %.2f)\n", summary.KillsDeathsRatio(), summary.HighestKillsDeathsRatio)
		fmt.Fprintf(writer, "Efficiency\t%.2f (best %.2f)\n", summary.Efficiency(), summary.HighestEfficiency)
		fmt.Fprintf(writer, "Precision\t%d\n", summary.Precision)
		fmt.Fprintf(writer, "Grenade kills\t%d\n", summary.GrenadeKills)
		fmt.Fprintf(writer, "Melee kills\t%d\n", summary.MeleeKills)
		fmt.Fprintf(writer, "Super kills\t%d\n", summary.SuperKills)
		fmt.Fprintf(writer, "Time played\t%s\n", (time.Duration(summary.TimePlayedSeconds) * time.Second).String())
		return writer.Flush()
	},
}

var lastCmd = &cobra.Command{
	Use:   "last NAME#CODE",
	Short: "Show the most recent stored activity for a player",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		member, err := lookupStoredMember(store, args[0])
		if err != nil {
			return err
		}

		selection, err := parseClassFlag(flagClass)
		if err != nil {
			return err
		}

		queries := openQueries(store)
		activity, err := queries.RetrieveLastActivity(member.ID, selection, models.ModeFromID(flagMode))
		if errors.Is(err, db.ErrActivityNotFound) {
			fmt.Println("No matching activity found")
			return nil
		} else if err != nil {
			return err
		}

		fmt.Printf("%s on %s at %s\n", activity.Detail.Mode, activity.Detail.MapName,
			activity.Detail.Period.Format("2006-01-02 15:04"))

		writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, team := range activity.Teams {
			fmt.Fprintf(writer, "%s\t%s\tscore %d\n", team.Name, team.Standing, team.Score)
			for _, performance := range team.Performances {
				stats := &performance.Stats
				fmt.Fprintf(writer, "  %s\t%s\t%d/%d/%d\t%.2f eff\n",
					performance.Player.FullName(), performance.Class,
					stats.Kills, stats.Deaths, stats.Assists, stats.Efficiency())
			}
		}
		return writer.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats NAME#CODE",
	Short: "Show all-time aggregate stats for a player from the Bungie API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		member, err := lookupStoredMember(store, args[0])
		if err != nil {
			return err
		}

		characters, err := store.Characters(member.ID)
		if err != nil {
			return err
		}
		if len(characters) == 0 {
			return errors.Errorf("no characters stored for %s, run sync first", args[0])
		}

		api, err := newAPI()
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(writer, "CLASS\tGAMES\tWINS\tK\tD\tA\tKD\tEFF")
		for _, character := range characters {
			blocks, err := api.GetAggregateStats(ctx, member.ID, character.ID,
				member.Platform, models.ModeFromID(flagMode), bungie.PeriodTypeAllTime)
			if err != nil {
				return err
			}

			for _, block := range blocks {
				if block == nil || block.AllTime == nil {
					continue
				}

				value := func(key string) float64 {
					return block.AllTime[key].Basic.Value
				}
				fmt.Fprintf(writer, "%s\t%.0f\t%.0f\t%.0f\t%.0f\t%.0f\t%.2f\t%.2f\n",
					character.Class,
					value("activitiesEntered"), value("activitiesWon"),
					value("kills"), value("deaths"), value("assists"),
					value("killsDeathsRatio"), value("efficiency"))
			}
		}
		return writer.Flush()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the stored stats over a read-only JSON API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		return server.New(store, openQueries(store)).Run(flagAddr)
	},
}
