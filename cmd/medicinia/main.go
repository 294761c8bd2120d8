package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medicinia/medicinia/internal/config"
	"github.com/medicinia/medicinia/internal/domain/casebook"
	"github.com/medicinia/medicinia/internal/domain/profile"
	"github.com/medicinia/medicinia/internal/domain/vocabulary"
	"github.com/medicinia/medicinia/internal/engine"
	"github.com/medicinia/medicinia/internal/platform/db"
	"github.com/medicinia/medicinia/internal/platform/hipaa"
	"github.com/medicinia/medicinia/internal/platform/idgen"
	"github.com/medicinia/medicinia/internal/platform/kv"
	"github.com/medicinia/medicinia/internal/platform/llm"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "medicinia",
		Short:        "Controlled-vocabulary clinical note assistant (CIE-10 / CUPS)",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(vocabCmd())
	rootCmd.AddCommand(patientCmd())
	rootCmd.AddCommand(caseCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(consultCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(profileCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(storeCmd())
	return rootCmd
}

// newLogger writes JSON to stderr, or console output when ENV=development.
// Stdout is reserved for command output.
func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

// openStore opens the configured store and wraps it for encryption at rest.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (kv.Store, error) {
	var store kv.Store
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, db.PoolConfig{
			URL:             cfg.DatabaseURL,
			MaxConns:        cfg.DBMaxConns,
			MinConns:        cfg.DBMinConns,
			ApplicationName: "medicinia",
		})
		if err != nil {
			return nil, err
		}
		pg, err := kv.NewPGStore(ctx, pool, cfg.StoreTable)
		if err != nil {
			pool.Close()
			return nil, err
		}
		logger.Debug().Str("table", cfg.StoreTable).Msg("connected to database")
		store = pg
	default:
		ls, err := kv.OpenLevel(cfg.StorePath)
		if err != nil {
			return nil, err
		}
		logger.Debug().Str("path", cfg.StorePath).Msg("opened leveldb store")
		store = ls
	}

	protected, err := hipaa.ProtectStore(store, cfg.PHIEncryptionKey, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return protected, nil
}

// openEngine loads config and builds the engine. When needProvider is false
// and no credential is set, the engine gets a provider that always fails.
func openEngine(cmd *cobra.Command, needProvider bool) (*engine.Engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := newLogger(cfg)
	ctx := cmd.Context()

	var provider llm.Provider
	if credErr := cfg.RequireCredential(); credErr != nil {
		if needProvider {
			return nil, credErr
		}
		provider = llm.Unavailable{Err: credErr}
	} else {
		g, err := llm.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			return nil, err
		}
		provider = g
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	eng, err := engine.New(engine.Deps{
		Store:       store,
		Provider:    provider,
		IDs:         idgen.UUID{},
		Logger:      logger,
		Temperature: cfg.GeminiTemperature,
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	return eng, nil
}

// withEngine runs fn on a freshly opened engine and closes it afterwards.
func withEngine(needProvider bool, fn func(cmd *cobra.Command, args []string, eng *engine.Engine) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(cmd, needProvider)
		if err != nil {
			return err
		}
		defer eng.Close()
		return fn(cmd, args, eng)
	}
}

func kindFlag(cmd *cobra.Command) (vocabulary.Kind, error) {
	k, _ := cmd.Flags().GetString("kind")
	return vocabulary.ParseKind(k)
}

func vocabCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Manage the authorized CIE-10 and CUPS vocabularies",
	}

	// vocab list
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List codes of one vocabulary",
		RunE: withEngine(false, func(cmd *cobra.Command, args []string, eng *engine.Engine) error {
			kind, err := kindFlag(cmd)
			if err != nil {
				return err
			}
			all, _ := cmd.Flags().GetBool("all")
			var codes []vocabulary.Code
			if all {
				codes, err = eng.Vocabulary.List(cmd.Context(), kind)
			} else {
				codes, err = eng.Vocabulary.ListActive(cmd.Context(), kind)
			}
			if err != nil {
				return err
			}
			printCodes(cmd.OutOrStdout(), kind, codes)
			return nil
		}),
	}
	listCmd.Flags().String("kind", "cie10", "Vocabulary: cie10 or cups")
	listCmd.Flags().Bool("all", false, "Include inactive codes")
	cmd.AddCommand(listCmd)

	// vocab add
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a code",
		RunE: withEngine(false, func(cmd *cobra.Command, args []string, eng *engine.Engine) error {
			kind, err := kindFlag(cmd)
			if err != nil {
				return err
			}
			code, _ := cmd.Flags().GetString("code")
			desc, _ := cmd.Flags().GetString("description")
			var extra *vocabulary.ProcedureExtra
			if kind == vocabulary.Procedural {
				cat, _ := cmd.Flags().GetString("category")
				soat, _ := cmd.Flags().GetString("soat")
				extra = &vocabulary.ProcedureExtra{Category: vocabulary.ProcedureCategory(cat), CrossReference: soat}
			}
			c, err := eng.Vocabulary.Add(cmd.Context(), kind, code, desc, extra)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s code %s\n", kind.Label(), c.Code)
			return nil
		}),
	}
	addCmd.Flags().String("kind", "cie10", "Vocabulary: cie10 or cups")
	addCmd.Flags().String("code", "", "Code")
	addCmd.Flags().String("description", "", "Official description")
	addCmd.Flags().String("category", "", "CUPS category: Diagnostic, Therapeutic or Surgical")
	addCmd.Flags().String("soat", "", "SOAT cross-reference code (CUPS only)")
	cmd.AddCommand(addCmd)

	// vocab toggle
	toggleCmd := &cobra.Command{
		Use:   "toggle",
		Short: "Activate or deactivate a code",
		RunE: withEngine(false, func(cmd *cobra.Command, args []string, eng *engine.Engine) error {
			kind, err := kindFlag(cmd)
			if err != nil {
				return err
			}
			code, _ := cmd.Flags().GetString("code")
			c, err := eng.Vocabulary.ToggleActive(cmd.Context(), kind, code)
			if err != nil {
				return err
			}
			state := "inactive"
			if c.Active {
				state = "active"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s code %s is now %s\n", kind.Label(), c.Code, state)
			return nil
		}),
	}
	toggleCmd.Flags().String("kind", "cie10", "Vocabulary: cie10 or cups")
	toggleCmd.Flags().String("code", "", "Code")
	cmd.AddCommand(toggleCmd)

	// vocab import
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk import tab- or comma-delimited rows",
		RunE: withEngine(false, func(cmd *cobra.Command, args []string, eng *engine.Engine) error {
			kind, err := kindFlag(cmd)
			if err != nil {
				return err
			}
			file, _ := cmd.Flags().GetString("file")
			text, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			res, err := eng.Vocabulary.BulkImport(cmd.Context(), kind, text)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d, skipped %d\n", res.Imported, res.Skipped)
			return nil
		}),
	}
	importCmd.Flags().String("kind", "cie10", "Vocabulary: cie10 or cups")
	importCmd.Flags().String("file", "-", "Input file, - for stdin")
	cmd.AddCommand(importCmd)

	return cmd
}

func patientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patient",
		Short: "Manage patients",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a patient and open its case",
		RunE: withEngine(false, func(cmd *cobra.Command, args []string, eng *engine.Engine) error {
			f := cmd.Flags()
			in := casebook.PatientInput{}
			in.Name, _ = f.GetString("name")
			in.Age, _ = f.GetInt("age")
			gender, _ := f.GetString("gender")
			in.Gender = casebook.Gender(strings.ToUpper(strings.TrimSpace(gender)))
			in.Weight, _ = f.GetString("weight")
			in.Height, _ = f.GetString("height")
			in.PersonalHistory, _ = f.GetString("personal-history")
			in.FamilyHistory, _ = f.GetString("family-history")
			in.OtherInfo, _ = f.GetString("other")

			p, c, err := eng.Cases.CreatePatient(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Patient %s created with case %s\n", p.ID, c.ID)
			return nil
		}),
	}
	createCmd.Flags().String("name", "", "Full name")
	createCmd.Flags().Int("age", 0, "Age in years")
	createCmd.Flags().String("gender", "F", "M or F")
	createCmd.Flags().String("weight", "", "Weight, e.g. 60 kg")
	createCmd.Flags().String("height", "", "Height, e.g. 165 cm")
	createCmd.Flags().String("personal-history", "", "Personal history")
	createCmd.Flags().String("family-history", "", "Family history")
	createCmd.Flags().String("other", "", "Other information")
	cmd.AddCommand(createCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List patients",
		RunE: withEngine(false, func(cmd *cobra.Command, args []string, eng *engine.Engine) error {
			patients, err := eng.Cases.ListPatients(cmd.Context())
			if err != nil {
				return err
			}
			printPatients(cmd.OutOrStdout(), patients)
			return nil
		}),
	})

	return cmd
}

func caseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "case",
		Short: "Inspect clinical cases",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the case timeline of a patient",
		RunE: withEngine(false, func(cmd *cobra.Command, args []string, eng *engine.Engine) error {
			patientID, _ := cmd.Flags().GetString("patient")
			c, err := eng.Cases.GetCaseForPatient(cmd.Context(), patientID)
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), c)
			}
			printCase(cmd.OutOrStdout(), c)
			return nil
		}),
	}
	showCmd.Flags().String("patient", "", "Patient id")
	showCmd.Flags().Bool("json", false, "Print the case as JSON")
	cmd.AddCommand(showCmd)

	return cmd
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a clinical note against the authorized vocabulary",
		RunE: withEngine(true, func(cmd *cobra.Command, args []string, eng *engine.Engine) error {
			patientID, _ := cmd.Flags().GetString("patient")
			note, _ := cmd.Flags().GetString("note")
			if note == "" {
				file, _ := cmd.Flags().GetString("file")
				text, err := readInput(cmd.InOrStdin(), file)
				if err != nil {
					return err
				}
				note = text
			}

			draft, err := eng.Analyze(cmd.Context(), patientID, note)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := printJSON(out, draft.Result()); err != nil {
				return err
			}
			for _, d := range draft.Dropped() {
				fmt.Fprintf(out, "removed %s %s: %s\n", d.Kind, d.Code, d.Reason)
			}

			if commit, _ := cmd.Flags().GetBool("commit"); !commit {
				fmt.Fprintln(out, "Draft not saved. Re-run with --commit to append it to the case.")
				return nil
			}
			c, err := eng.Commit(cmd.Context(), draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Evolution %s saved; case %s has %d evolution(s)\n", draft.EvolutionID, c.ID, len(c.Evolutions))
			return nil
		}),
	}
	cmd.Flags().String("patient", "", "Patient id")
	cmd.Flags().String("note", "", "Clinical note text")
	cmd.Flags().String("file", "-", "Read the note from a file, - for stdin")
	cmd.Flags().Bool("commit", false, "Append the validated analysis to the case")
	return cmd
}

func consultCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consult [question]",
		Short: "Ask a free-form question answered from the authorized vocabulary",
		Args:  cobra.MinimumNArgs(1),
		RunE: withEngine(true, func(cmd *cobra.Command, args []string, eng *engine.Engine) error {
			category, _ := cmd.Flags().GetString("category")
			entry, err := eng.Consult(cmd.Context(), strings.Join(args, " "), category)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), entry.Response)
			return nil
		}),
	}
	cmd.Flags().String("category", "", "Optional label for the history entry")
	return cmd
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past consultations, newest first",
		RunE: withEngine(false, func(cmd *cobra.Command, args []string, eng *engine.Engine) error {
			entries, err := eng.Consultations.List(cmd.Context())
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}
			printHistory(cmd.OutOrStdout(), entries)
			return nil
		}),
	}
	cmd.Flags().Int("limit", 20, "Maximum entries to show, 0 for all")
	return cmd
}

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or change the clinician profile",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the clinician profile",
		RunE: withEngine(false, func(cmd *cobra.Command, args []string, eng *engine.Engine) error {
			p, err := eng.Profiles.Get(cmd.Context())
			if err != nil {
				return err
			}
			printProfile(cmd.OutOrStdout(), p)
			return nil
		}),
	})

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Update profile fields",
		RunE: withEngine(false, func(cmd *cobra.Command, args []string, eng *engine.Engine) error {
			patch := profile.Profile{}
			patch.Name, _ = cmd.Flags().GetString("name")
			patch.Role, _ = cmd.Flags().GetString("role")
			patch.Specialty, _ = cmd.Flags().GetString("specialty")
			p, err := eng.Profiles.Update(cmd.Context(), patch)
			if err != nil {
				return err
			}
			printProfile(cmd.OutOrStdout(), p)
			return nil
		}),
	}
	setCmd.Flags().String("name", "", "Display name")
	setCmd.Flags().String("role", "", "Role, e.g. Médico")
	setCmd.Flags().String("specialty", "", "Specialty, e.g. Pediatría")
	cmd.AddCommand(setCmd)

	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show case book totals and most cited diagnoses",
		RunE: withEngine(false, func(cmd *cobra.Command, args []string, eng *engine.Engine) error {
			st, err := eng.Cases.Stats(cmd.Context())
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), st)
			return nil
		}),
	}
}

func storeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Storage maintenance",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "health",
		Short: "Check the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if cfg.StoreDriver == config.DriverPostgres {
				pool, err := db.NewPool(ctx, db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
				if err != nil {
					return err
				}
				defer pool.Close()
				stats, err := db.Health(ctx, pool)
				if err != nil {
					return fmt.Errorf("database unhealthy: %w", err)
				}
				return printJSON(out, stats)
			}

			store, err := openStore(ctx, cfg, newLogger(cfg))
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Ping(ctx); err != nil {
				return fmt.Errorf("store unhealthy: %w", err)
			}
			fmt.Fprintf(out, "leveldb store at %s is healthy\n", cfg.StorePath)
			return nil
		},
	})

	return cmd
}

// readInput reads path, or r when path is "-" or empty.
func readInput(r io.Reader, path string) (string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}
