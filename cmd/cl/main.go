package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"checkline/internal/app"
	"checkline/internal/cascade"
	"checkline/internal/config"
	"checkline/internal/db"
	"checkline/internal/domain"
	"checkline/internal/events"
	"checkline/internal/lifecycle"
	"checkline/internal/migrate"
	"checkline/internal/remote"
	"checkline/internal/repo"
	"checkline/internal/server"
	"checkline/internal/settings"
	"checkline/internal/state"
	"checkline/internal/view"
)

var rootCmd = &cobra.Command{
	Use:   "cl",
	Short: "Checkline CLI",
	Long: `Checkline runs interactive checklists against a checklist service.
Core concepts:
- Workspace: your .checkline directory holding the local database (settings, local service data).
- Program: a collection campaign that owns checklists; checklists own questions grouped into sections.
- Question: one prompt (open, multiple choice, cascading select or date); required unless marked optional.
- Answer: your confirmed response on the service; one per question and role. The other role's answer shows as related.
- Draft: your staged edits before saving; validation failures keep the draft so you can fix and retry.
- Cascading select: dependent levels (brand -> model -> characteristics) resolved from the collection request specification.
- Settings: interaction preferences (auto advance, skip answered, filters) persisted per workspace with 'cl settings'.`,
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
	viper.SetEnvPrefix("CHECKLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(programCmd())
	rootCmd.AddCommand(questionCmd())
	rootCmd.AddCommand(answerCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(settingsCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())
}

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default checkline.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	return cmd
}

func programCmd() *cobra.Command {
	prg := &cobra.Command{Use: "program", Short: "Inspect programs"}
	prg.AddCommand(programListCmd())
	prg.AddCommand(programUseCmd())
	return prg
}

func programListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured programs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), true, func(ctx context.Context, s *app.Session) error {
				st := s.Store.State()
				var items []domain.Program
				for _, p := range st.Programs {
					items = append(items, p)
				}
				sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Checklists"})
				for _, p := range items {
					tw.AppendRow(table.Row{p.ID, p.Name, len(p.ChecklistIDs)})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func programUseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use <id>...",
		Short: "Select the programs for this workspace",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), false, func(ctx context.Context, s *app.Session) error {
				s.Settings.Set(settings.KeyPrograms, strings.Join(args, ","))
				fmt.Println("programs:", strings.Join(args, ", "))
				return nil
			})
		},
	}
	return cmd
}

func questionCmd() *cobra.Command {
	q := &cobra.Command{Use: "question", Short: "Inspect questions"}
	q.AddCommand(questionListCmd())
	q.AddCommand(questionShowCmd())
	return q
}

func questionListCmd() *cobra.Command {
	var types []string
	var filterState string
	var split bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List visible questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), true, func(ctx context.Context, s *app.Session) error {
				opts := s.ViewOptions()
				if cmd.Flags().Changed("type") {
					opts.Filters.Types = nil
					for _, t := range types {
						opts.Filters.Types = append(opts.Filters.Types, domain.QuestionType(t))
					}
				}
				if cmd.Flags().Changed("state") {
					switch filterState {
					case "answered", "unanswered":
						opts.Filters.Answered = view.Answeredness(filterState)
					case "required", "optional":
						opts.Filters.Requirement = view.Requirement(filterState)
					default:
						return fmt.Errorf("unknown state filter %q", filterState)
					}
				}
				if cmd.Flags().Changed("split") {
					opts.SplitByProgram = split
				}
				st := s.Store.State()
				coloring := s.Settings.Bool(settings.KeyColoring, true)
				showRelated := s.Settings.Bool(settings.KeyShowRelated, false)
				display := s.Views.DisplayAnswers(st, showRelated)

				if opts.SplitByProgram {
					groups := s.Views.GroupedQuestions(st, opts)
					if viper.GetBool("json") {
						return printJSON(groups)
					}
					for _, g := range groups {
						fmt.Println("Program:", g.ProgramID)
						renderQuestionTable(st, g.QuestionIDs, display, coloring)
					}
					return nil
				}
				ids := s.Views.VisibleQuestions(st, opts)
				if viper.GetBool("json") {
					return printJSON(questionRows(st, ids, display, coloring))
				}
				renderQuestionTable(st, ids, display, coloring)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&types, "type", nil, "question type filter (open, multiple_choice, cascading_select, date)")
	cmd.Flags().StringVar(&filterState, "state", "", "state filter (answered, unanswered, required, optional)")
	cmd.Flags().BoolVar(&split, "split", false, "group by program")
	return cmd
}

func questionShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a question with its answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), true, func(ctx context.Context, s *app.Session) error {
				st := s.Store.State()
				q, ok := st.Questions[args[0]]
				if !ok {
					return fmt.Errorf("question %s not found", args[0])
				}
				out := map[string]any{"question": q}
				if a, ok := st.AnswerForQuestion(q.ID); ok {
					out["answer"] = a
				}
				if ra, ok := st.RelatedAnswerForQuestion(q.ID); ok {
					out["related_answer"] = ra
				}
				if qe, ok := st.Errors[q.ID]; ok {
					out["error"] = qe
				}
				return printJSON(out)
			})
		},
	}
	return cmd
}

func answerCmd() *cobra.Command {
	ans := &cobra.Command{Use: "answer", Short: "Save and retract answers"}
	ans.AddCommand(answerSaveCmd())
	ans.AddCommand(answerRetractCmd())
	return ans
}

func answerSaveCmd() *cobra.Command {
	var questionID, value, comment string
	var documents []string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save an answer for a question",
		RunE: func(cmd *cobra.Command, args []string) error {
			if questionID == "" {
				return fmt.Errorf("--question required")
			}
			return withSession(cmd.Context(), true, func(ctx context.Context, s *app.Session) error {
				docs, err := loadDocuments(documents)
				if err != nil {
					return err
				}
				edit := lifecycle.Edit{Value: &value, Documents: docs, Replace: true}
				if cmd.Flags().Changed("comment") {
					edit.Comment = &comment
				}
				if err := s.Controller.Stage(ctx, questionID, edit); err != nil {
					return err
				}
				if err := s.Controller.Save(ctx, questionID); err != nil {
					return saveError(s, questionID, err)
				}
				st := s.Store.State()
				if a, ok := st.AnswerForQuestion(questionID); ok {
					return printJSON(a)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&questionID, "question", "", "question id")
	cmd.Flags().StringVar(&value, "value", "", "answer value")
	cmd.Flags().StringVar(&comment, "comment", "", "comment")
	cmd.Flags().StringArrayVar(&documents, "document", nil, "file to attach (repeatable)")
	_ = cmd.MarkFlagRequired("question")
	return cmd
}

func answerRetractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retract <answer-id>",
		Short: "Retract an answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), true, func(ctx context.Context, s *app.Session) error {
				if err := s.Controller.Retract(ctx, args[0]); err != nil {
					var re *lifecycle.RetractionError
					if errors.As(err, &re) {
						return fmt.Errorf("answer %s could not be retracted: %v", re.AnswerID, re.Cause)
					}
					return err
				}
				fmt.Println("retracted", args[0])
				return nil
			})
		},
	}
	return cmd
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Answer questions interactively",
		Long: `Walks the visible questions one by one. At each prompt:
- type a value to stage and save it
- for choices, type the number or the value
- :comment <text> attaches a comment to the staged draft
- :skip moves on, :back goes back, :retract removes the current answer, :quit exits`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), true, func(ctx context.Context, s *app.Session) error {
				return runInteractive(ctx, s, bufio.NewScanner(os.Stdin))
			})
		},
	}
	return cmd
}

func runInteractive(ctx context.Context, s *app.Session, in *bufio.Scanner) error {
	st := s.Store.State()
	ids := s.Views.VisibleQuestions(st, s.ViewOptions())
	if len(ids) == 0 {
		fmt.Println("no questions to answer")
		return nil
	}
	s.Cursor.Current = ids[0]
	if s.Settings.Bool(settings.KeySkipAnswered, true) && st.Answered(ids[0]) {
		if id, ok := view.NextQuestionID(st, ids, ids[0], true); ok {
			s.Cursor.Current = id
		}
	}

	for {
		st = s.Store.State()
		ids = s.Views.VisibleQuestions(st, s.ViewOptions())
		q, ok := st.Questions[s.Cursor.Current]
		if !ok {
			fmt.Println("done")
			return nil
		}
		printPrompt(st, q)
		if !in.Scan() {
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())
		switch {
		case line == ":quit":
			return nil
		case line == ":skip":
			if id, ok := view.Next(ids, q.ID); ok {
				s.Cursor.Current = id
			} else {
				fmt.Println("at the last question")
			}
		case line == ":back":
			if id, ok := view.Previous(ids, q.ID); ok {
				s.Cursor.Current = id
			} else {
				fmt.Println("at the first question")
			}
		case line == ":retract":
			if q.AnswerID == "" {
				fmt.Println("no answer to retract")
				continue
			}
			if err := s.Controller.Retract(ctx, q.AnswerID); err != nil {
				fmt.Println("retract failed:", err)
			}
		case strings.HasPrefix(line, ":comment "):
			comment := strings.TrimPrefix(line, ":comment ")
			if err := s.Controller.Stage(ctx, q.ID, lifecycle.Edit{Comment: &comment}); err != nil {
				fmt.Println("stage failed:", err)
			}
		case line == "":
			continue
		default:
			value, err := resolveInput(s, q, line, in)
			if err != nil {
				fmt.Println(err)
				continue
			}
			if err := s.Controller.Stage(ctx, q.ID, lifecycle.Edit{Value: &value}); err != nil {
				fmt.Println("stage failed:", err)
				continue
			}
			if err := s.Controller.Save(ctx, q.ID); err != nil {
				if err := saveError(s, q.ID, err); err != nil {
					fmt.Println(err)
				}
				continue
			}
			// Auto-advance moved the cursor through the navigator; without it
			// the cursor stays put so the confirmed answer can be reviewed.
			if !s.Settings.Bool(settings.KeyAutoAdvance, true) {
				continue
			}
			if s.Cursor.Current == q.ID {
				fmt.Println("all remaining questions answered")
				return nil
			}
		}
	}
}

func printPrompt(st state.State, q domain.Question) {
	required := "required"
	if q.Optional {
		required = "optional"
	}
	fmt.Printf("\n[%s] %s (%s)\n", q.ExternalKey, q.Text, required)
	if q.Unit != "" {
		fmt.Println("unit:", q.Unit)
	}
	if a, ok := st.AnswerForQuestion(q.ID); ok {
		fmt.Printf("current answer: %s\n", a.Value)
	}
	if qe, ok := st.Errors[q.ID]; ok {
		for _, m := range qe.Messages {
			fmt.Println("! " + m)
		}
	}
	switch q.Type {
	case domain.TypeMultipleChoice:
		for i, c := range q.Choices {
			marks := ""
			if c.RequiresComment {
				marks += " (comment required)"
			}
			if c.RequiresImage || c.RequiresDocument {
				marks += " (attachment required)"
			}
			fmt.Printf("  %d) %s%s\n", i+1, c.Label, marks)
		}
	case domain.TypeCascadingSelect:
		fmt.Println("  cascading select; answer level by level")
	case domain.TypeDate:
		fmt.Println("  date (YYYY-MM-DD)")
	}
	fmt.Print("> ")
}

// resolveInput turns a raw line into the answer value for the question type.
func resolveInput(s *app.Session, q domain.Question, line string, in *bufio.Scanner) (string, error) {
	switch q.Type {
	case domain.TypeMultipleChoice:
		var idx int
		if _, err := fmt.Sscanf(line, "%d", &idx); err == nil && idx >= 1 && idx <= len(q.Choices) {
			return q.Choices[idx-1].Value, nil
		}
		if c, ok := q.ChoiceByValue(line); ok {
			return c.Value, nil
		}
		return "", fmt.Errorf("pick one of the listed choices")
	case domain.TypeCascadingSelect:
		return runCascade(s, q, line, in)
	default:
		return line, nil
	}
}

// runCascade walks the dependent levels of a cascading select. The first
// line already typed counts as the level-0 selection.
func runCascade(s *app.Session, q domain.Question, first string, in *bufio.Scanner) (string, error) {
	spec, ok := s.Specs.Lookup(q.CollectionRequestID)
	if !ok || spec.Cascade == nil || len(spec.Cascade.Levels) == 0 {
		return first, nil
	}
	r := cascade.New(*spec.Cascade)
	line := first
	for level := 0; level < r.Levels(); level++ {
		if !r.Available(level) {
			continue
		}
		if level > 0 {
			fmt.Printf("%s (%s to skip): ", spec.Cascade.Levels[level].Label, cascade.Skip)
			for i, c := range r.Choices(level) {
				fmt.Printf("\n  %d) %s", i+1, c)
			}
			fmt.Print("\n> ")
			if !in.Scan() {
				return "", in.Err()
			}
			line = strings.TrimSpace(in.Text())
		}
		choices := r.Choices(level)
		switch {
		case line == cascade.Skip:
			r.SelectSkip(level)
		case pickIndex(line, len(choices)) >= 0:
			r.Select(level, choices[pickIndex(line, len(choices))])
		case containsString(choices, line):
			r.Select(level, line)
		default:
			r.SelectCustom(level, line)
		}
	}
	values, ok := r.Value()
	if !ok {
		return "", fmt.Errorf("selection incomplete")
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func pickIndex(line string, n int) int {
	var idx int
	if _, err := fmt.Sscanf(line, "%d", &idx); err == nil && idx >= 1 && idx <= n {
		return idx - 1
	}
	return -1
}

func containsString(items []string, v string) bool {
	for _, it := range items {
		if it == v {
			return true
		}
	}
	return false
}

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show answering progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), true, func(ctx context.Context, s *app.Session) error {
				st := s.Store.State()
				stats := s.Views.Statistics(st)
				if viper.GetBool("json") {
					return printJSON(stats)
				}
				fmt.Printf("Required: %d/%d answered, %d remaining\n",
					stats.AnsweredRequired, stats.TotalRequired, stats.RemainingRequired)
				fmt.Printf("Optional: %d/%d answered, %d remaining\n",
					stats.AnsweredOptional, stats.TotalOptional, stats.RemainingOptional)
				return nil
			})
		},
	}
	return cmd
}

func settingsCmd() *cobra.Command {
	set := &cobra.Command{Use: "settings", Short: "Manage interaction settings"}
	set.AddCommand(settingsListCmd())
	set.AddCommand(settingsGetCmd())
	set.AddCommand(settingsSetCmd())
	set.AddCommand(settingsUnsetCmd())
	return set
}

func settingsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), false, func(ctx context.Context, s *app.Session) error {
				all := s.Settings.All()
				if viper.GetBool("json") {
					return printJSON(all)
				}
				keys := make([]string, 0, len(all))
				for k := range all {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Key", "Value"})
				for _, k := range keys {
					tw.AppendRow(table.Row{k, all[k]})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func settingsGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Read a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), false, func(ctx context.Context, s *app.Session) error {
				v, ok := s.Settings.Get(args[0])
				if !ok {
					return fmt.Errorf("setting %s not set", args[0])
				}
				fmt.Println(v)
				return nil
			})
		},
	}
	return cmd
}

func settingsSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), false, func(ctx context.Context, s *app.Session) error {
				s.Settings.Set(args[0], args[1])
				return nil
			})
		},
	}
	return cmd
}

func settingsUnsetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), false, func(ctx context.Context, s *app.Session) error {
				s.Settings.Del(args[0])
				return nil
			})
		},
	}
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	var seed bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local checklist service",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			r := repo.Repo{DB: conn}
			if seed {
				if err := r.Seed(cmd.Context()); err != nil {
					return err
				}
			}
			authCfg := server.AuthConfig{JWTSecret: os.Getenv("CHECKLINE_JWT_SECRET")}
			handler, err := server.New(server.Config{
				Repo:     r,
				Events:   events.Writer{DB: conn},
				Auth:     authCfg,
				BasePath: basePath,
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			mode := "bearer auth"
			if authCfg.JWTSecret == "" {
				mode = "open mode"
			}
			fmt.Printf("Serving checklist API on http://%s%s (%s)\n", addr, basePath, mode)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8787", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	cmd.Flags().BoolVar(&seed, "seed", false, "load the demo program first")
	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo program into the local service database",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			r := repo.Repo{DB: conn}
			if err := r.Seed(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("seeded demo program")
			return nil
		},
	}
	return cmd
}

// --- helpers ---

func withSession(ctx context.Context, discover bool, fn func(context.Context, *app.Session) error) error {
	s, err := app.Open(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer s.Close()
	if discover {
		if err := s.Discover(ctx); err != nil {
			return fmt.Errorf("discovery: %w", err)
		}
	}
	return fn(ctx, s)
}

type questionRow struct {
	ID       string `json:"id"`
	Key      string `json:"key"`
	Text     string `json:"text"`
	Type     string `json:"type"`
	Required string `json:"required"`
	Answer   string `json:"answer,omitempty"`
	Color    string `json:"color,omitempty"`
}

func questionRows(st state.State, ids []string, display map[string]domain.Answer, coloring bool) []questionRow {
	rows := make([]questionRow, 0, len(ids))
	for _, id := range ids {
		q := st.Questions[id]
		required := "required"
		if q.Optional {
			required = "optional"
		}
		answer := ""
		if a, ok := display[q.ExternalKey]; ok {
			answer = a.Value
		}
		rows = append(rows, questionRow{
			ID:       q.ID,
			Key:      q.ExternalKey,
			Text:     q.Text,
			Type:     string(q.Type),
			Required: required,
			Answer:   answer,
			Color:    string(view.ColorClass(st, id, coloring)),
		})
	}
	return rows
}

func renderQuestionTable(st state.State, ids []string, display map[string]domain.Answer, coloring bool) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Key", "Text", "Type", "Required", "Answer", "Color"})
	for _, row := range questionRows(st, ids, display, coloring) {
		tw.AppendRow(table.Row{row.ID, row.Key, row.Text, row.Type, row.Required, row.Answer, row.Color})
	}
	tw.Render()
}

// saveError renders a failed save; validation failures list the per-field
// messages recorded on the question.
func saveError(s *app.Session, questionID string, err error) error {
	var cve *lifecycle.ClientValidationError
	if errors.As(err, &cve) {
		return fmt.Errorf("rejected:\n  %s", strings.Join(cve.Messages, "\n  "))
	}
	var ve *remote.ValidationError
	if errors.As(err, &ve) {
		return fmt.Errorf("rejected by service:\n  %s", strings.Join(ve.Messages(), "\n  "))
	}
	st := s.Store.State()
	if qe, ok := st.Errors[questionID]; ok {
		return fmt.Errorf("save failed:\n  %s", strings.Join(qe.Messages, "\n  "))
	}
	return err
}

// loadDocuments reads files into data URLs for upload.
func loadDocuments(paths []string) ([]domain.Document, error) {
	var docs []domain.Document
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		mime := http.DetectContentType(raw)
		docs = append(docs, domain.Document{
			Name:       baseName(p),
			RawDataURL: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw),
			Image:      strings.HasPrefix(mime, "image/"),
		})
	}
	return docs, nil
}

func baseName(p string) string {
	if i := strings.LastIndexAny(p, "/\\"); i >= 0 {
		return p[i+1:]
	}
	return p
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
