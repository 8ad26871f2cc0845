package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"gymtrack/internal/app"
	"gymtrack/internal/config"
	"gymtrack/internal/database"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a GymApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "AddDay", "Sync").
func newApp(operation string) (*app.GymApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewGymApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

var rootCmd = &cobra.Command{
	Use:   "gymtrack",
	Short: "Offline-first workout tracker",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		// Generate a new user ID
		userID := uuid.New().String()

		cfg := config.NewConfig(userID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("User ID:  %s\n", userID)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("User ID:  %s\n", cfg.UserID)
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:  %s\n", cfg.LogDir)
		fmt.Printf("Database: %s\n", cfg.Database.Type)
		fmt.Printf("Remote:   %s\n", cfg.Remote.Type)
		fmt.Printf("Notify:   %s\n", cfg.Notify.Type)
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the local database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		store, err := database.NewStoreFromConfig(cfg.Database)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer store.Close()

		if err := store.Migrate(); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}

		fmt.Println("Database is up to date.")
		return nil
	},
}

// day command
var dayCmd = &cobra.Command{
	Use:   "day",
	Short: "Manage workout days",
}

var dayAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a workout day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("AddDay")
		if err != nil {
			return err
		}
		defer a.Close()

		day, err := a.Service().CreateDay(cmd.Context(), a.OwnerID(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Created day #%d: %s\n", day.ID, day.Name)
		return nil
	},
}

var dayListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workout days",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListDays")
		if err != nil {
			return err
		}
		defer a.Close()

		days, err := a.Service().Days(cmd.Context(), a.OwnerID())
		if err != nil {
			return err
		}

		if len(days) == 0 {
			fmt.Println("No workout days yet.")
			return nil
		}

		for _, d := range days {
			last, err := a.Service().LastWorkout(cmd.Context(), a.OwnerID(), d.ID)
			if err != nil {
				return err
			}
			lastStr := "never trained"
			if last != nil {
				lastStr = "last " + last.Format("2006-01-02")
			}
			synced := " "
			if d.Synced() {
				synced = "*"
			}
			fmt.Printf("%s #%-4d %-20s %s\n", synced, d.ID, d.Name, lastStr)
		}
		return nil
	},
}

var dayShowCmd = &cobra.Command{
	Use:   "show DAY_ID",
	Short: "Show a day's exercises and sets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("ShowDay")
		if err != nil {
			return err
		}
		defer a.Close()

		exercises, err := a.Service().Exercises(cmd.Context(), id)
		if err != nil {
			return err
		}
		if len(exercises) == 0 {
			fmt.Println("No exercises yet.")
			return nil
		}

		for _, ex := range exercises {
			fmt.Printf("#%d %s\n", ex.ID, ex.Name)
			sets, err := a.Service().Sets(cmd.Context(), ex.ID)
			if err != nil {
				return err
			}
			for _, set := range sets {
				done := " "
				if set.Completed {
					done = "x"
				}
				fmt.Printf("  [%s] #%-4d set %d: %.1f x %d\n", done, set.ID, set.SetNumber, set.Weight, set.Reps)
			}
		}
		return nil
	},
}

var dayRenameCmd = &cobra.Command{
	Use:   "rename DAY_ID NAME",
	Short: "Rename a workout day",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("RenameDay")
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Service().RenameDay(cmd.Context(), id, args[1])
	},
}

var dayRmCmd = &cobra.Command{
	Use:   "rm DAY_ID",
	Short: "Delete a workout day with its exercises and sets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("DeleteDay")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().DeleteDay(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Deleted day #%d\n", id)
		return nil
	},
}

// exercise command
var exerciseCmd = &cobra.Command{
	Use:   "exercise",
	Short: "Manage exercises",
}

var exerciseAddCmd = &cobra.Command{
	Use:   "add DAY_ID NAME",
	Short: "Add an exercise to a day",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dayID, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("AddExercise")
		if err != nil {
			return err
		}
		defer a.Close()

		ex, err := a.Service().AddExercise(cmd.Context(), dayID, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Added exercise #%d: %s\n", ex.ID, ex.Name)
		return nil
	},
}

var exerciseRenameCmd = &cobra.Command{
	Use:   "rename EXERCISE_ID NAME",
	Short: "Rename an exercise",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("RenameExercise")
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Service().RenameExercise(cmd.Context(), id, args[1])
	},
}

var exerciseToggleCmd = &cobra.Command{
	Use:   "toggle EXERCISE_ID",
	Short: "Toggle completion of all sets of an exercise",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("ToggleExercise")
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Service().ToggleExerciseComplete(cmd.Context(), id)
	},
}

var exerciseRmCmd = &cobra.Command{
	Use:   "rm EXERCISE_ID",
	Short: "Delete an exercise with its sets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("DeleteExercise")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().DeleteExercise(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Deleted exercise #%d\n", id)
		return nil
	},
}

// set command
var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Manage sets",
}

var setAddCmd = &cobra.Command{
	Use:   "add EXERCISE_ID WEIGHT REPS",
	Short: "Add a set to an exercise",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		exerciseID, err := parseID(args[0])
		if err != nil {
			return err
		}
		weight, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid weight %q", args[1])
		}
		reps, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid reps %q", args[2])
		}
		completed, _ := cmd.Flags().GetBool("done")

		a, err := newApp("AddSet")
		if err != nil {
			return err
		}
		defer a.Close()

		set, err := a.Service().AddSet(cmd.Context(), exerciseID, weight, reps, completed)
		if err != nil {
			return err
		}
		fmt.Printf("Added set #%d: %.1f x %d\n", set.ID, set.Weight, set.Reps)
		return nil
	},
}

var setUpdateCmd = &cobra.Command{
	Use:   "update SET_ID WEIGHT REPS",
	Short: "Change a set's weight and reps",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		weight, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid weight %q", args[1])
		}
		reps, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid reps %q", args[2])
		}

		a, err := newApp("UpdateSet")
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Service().UpdateSet(cmd.Context(), id, weight, reps)
	},
}

var setDoneCmd = &cobra.Command{
	Use:   "done SET_ID",
	Short: "Mark a set completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		undo, _ := cmd.Flags().GetBool("undo")

		a, err := newApp("CompleteSet")
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Service().CompleteSet(cmd.Context(), id, !undo)
	},
}

var setRmCmd = &cobra.Command{
	Use:   "rm SET_ID",
	Short: "Delete a set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("DeleteSet")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().DeleteSet(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Deleted set #%d\n", id)
		return nil
	},
}

// workout command
var workoutCmd = &cobra.Command{
	Use:   "workout",
	Short: "Manage workout sessions",
}

var workoutFinishCmd = &cobra.Command{
	Use:   "finish DAY_ID",
	Short: "Log all completed sets of a day and reset them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dayID, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("FinishWorkout")
		if err != nil {
			return err
		}
		defer a.Close()

		logged, err := a.Service().FinishWorkout(cmd.Context(), a.OwnerID(), dayID)
		if err != nil {
			return err
		}
		fmt.Printf("Logged %d set(s)\n", logged)
		return nil
	},
}

// timer command
var timerCmd = &cobra.Command{
	Use:   "timer DURATION",
	Short: "Start a rest timer (e.g. 90s, 2m)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rest, err := time.ParseDuration(args[0])
		if err != nil {
			return fmt.Errorf("invalid duration %q", args[0])
		}

		a, err := newApp("StartRestTimer")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().StartRestTimer(cmd.Context(), rest); err != nil {
			return err
		}
		fmt.Printf("Rest timer set for %s\n", rest)
		return nil
	},
}

// stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "View training statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("GetStats")
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.Service().GetStats(cmd.Context(), a.OwnerID())
		if err != nil {
			return err
		}

		fmt.Printf("Workouts: %d\n", stats.TotalWorkouts)
		fmt.Printf("Sets:     %d\n", stats.TotalSets)
		fmt.Printf("Volume:   %.1f\n", stats.TotalVolume)
		if len(stats.Exercises) > 0 {
			fmt.Println()
			for _, p := range stats.Exercises {
				fmt.Printf("%-20s best %.1f  (%d sets)\n", p.Name, p.BestWeight, p.Entries)
			}
		}
		return nil
	},
}

// log command
var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Manage workout history",
}

var logRmDayCmd = &cobra.Command{
	Use:   "rm-day DATE",
	Short: "Delete all logged sets of a calendar day (YYYY-MM-DD)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := time.ParseInLocation("2006-01-02", args[0], time.Local)
		if err != nil {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", args[0])
		}

		a, err := newApp("DeleteLogDay")
		if err != nil {
			return err
		}
		defer a.Close()

		deleted, err := a.Service().DeleteLogDay(cmd.Context(), a.OwnerID(), date)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d log(s)\n", deleted)
		return nil
	},
}

// sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize with the remote backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Sync")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Sync(context.Background()); err != nil {
			return err
		}
		fmt.Println("Sync finished.")
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// db subcommands
	dbCmd.AddCommand(dbMigrateCmd)

	// day subcommands
	dayCmd.AddCommand(dayAddCmd)
	dayCmd.AddCommand(dayListCmd)
	dayCmd.AddCommand(dayShowCmd)
	dayCmd.AddCommand(dayRenameCmd)
	dayCmd.AddCommand(dayRmCmd)

	// exercise subcommands
	exerciseCmd.AddCommand(exerciseAddCmd)
	exerciseCmd.AddCommand(exerciseRenameCmd)
	exerciseCmd.AddCommand(exerciseToggleCmd)
	exerciseCmd.AddCommand(exerciseRmCmd)

	// set subcommands
	setCmd.AddCommand(setAddCmd)
	setAddCmd.Flags().Bool("done", false, "Mark the set completed immediately")
	setCmd.AddCommand(setUpdateCmd)
	setCmd.AddCommand(setDoneCmd)
	setDoneCmd.Flags().Bool("undo", false, "Clear the completed flag instead")
	setCmd.AddCommand(setRmCmd)

	// workout subcommands
	workoutCmd.AddCommand(workoutFinishCmd)

	// log subcommands
	logCmd.AddCommand(logRmDayCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(dayCmd)
	rootCmd.AddCommand(exerciseCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(workoutCmd)
	rootCmd.AddCommand(timerCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(syncCmd)
}
