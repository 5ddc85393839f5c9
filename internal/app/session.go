// Package app wires a working session: config, workspace database, settings,
// service client, store, selectors and the lifecycle controller.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"checkline/internal/config"
	"checkline/internal/db"
	"checkline/internal/discovery"
	"checkline/internal/domain"
	"checkline/internal/lifecycle"
	"checkline/internal/migrate"
	"checkline/internal/remote"
	"checkline/internal/settings"
	"checkline/internal/state"
	"checkline/internal/transport"
	"checkline/internal/view"
)

// Cursor tracks the question the session is positioned on. It satisfies the
// lifecycle's navigator so auto-advance moves the same cursor the UI reads.
type Cursor struct {
	Current string
}

func (c *Cursor) GoTo(questionID string) { c.Current = questionID }

// Session is a fully wired client session against one workspace.
type Session struct {
	Config     *config.Config
	DB         *sql.DB
	Settings   *settings.Store
	Store      *state.Store
	Views      *view.Views
	Remote     *remote.Client
	Controller *lifecycle.Controller
	Cursor     *Cursor
	Specs      discovery.Table
}

// Open loads the workspace config, opens and migrates the database and wires
// the engine. It does not talk to the service; call Discover for that.
func Open(workspace string) (*Session, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, fmt.Errorf("open workspace db: %w", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate workspace db: %w", err)
	}

	set := &settings.Store{DB: conn}
	seedSettings(set, cfg)

	tc := transport.New(cfg.Service.URL)
	tc.BearerToken = cfg.Service.Token
	tc.APIKey = cfg.Service.APIKey
	rc := &remote.Client{Transport: tc, Home: cfg.Home}

	store := state.NewStore()
	views := &view.Views{}
	cursor := &Cursor{}

	ctl := lifecycle.New(store, views, rc, cursor, set, cfg.User.ID)
	s := &Session{
		Config:     cfg,
		DB:         conn,
		Settings:   set,
		Store:      store,
		Views:      views,
		Remote:     rc,
		Controller: ctl,
		Cursor:     cursor,
	}
	ctl.Visibility = func() view.Options {
		opts := s.ViewOptions()
		opts.OpenQuestionID = cursor.Current
		return opts
	}
	return s, nil
}

// Close releases the workspace database.
func (s *Session) Close() error {
	return s.DB.Close()
}

// Discover fetches the entity graph for the configured programs and replaces
// the specification table.
func (s *Session) Discover(ctx context.Context) error {
	table, err := discovery.Run(ctx, s.Remote, s.Store, s.ProgramIDs())
	if err != nil {
		return err
	}
	s.Specs = table
	return nil
}

// Rediscover clears all entities and runs discovery again.
func (s *Session) Rediscover(ctx context.Context) error {
	table, err := discovery.Rediscover(ctx, s.Remote, s.Store, s.ProgramIDs())
	if err != nil {
		return err
	}
	s.Specs = table
	return nil
}

// ProgramIDs returns the selected program ids: the setting when present,
// otherwise the config list.
func (s *Session) ProgramIDs() []string {
	if v, ok := s.Settings.Get(settings.KeyPrograms); ok {
		return splitList(v)
	}
	return s.Config.Programs
}

// ViewOptions builds the view options from the persisted filter settings.
func (s *Session) ViewOptions() view.Options {
	var f view.Filters
	if v, ok := s.Settings.Get(settings.KeyFilterTypes); ok {
		for _, t := range splitList(v) {
			f.Types = append(f.Types, domain.QuestionType(t))
		}
	}
	if v, ok := s.Settings.Get(settings.KeyFilterState); ok {
		switch v {
		case "answered", "unanswered":
			f.Answered = view.Answeredness(v)
		case "required", "optional":
			f.Requirement = view.Requirement(v)
		}
	}
	return view.Options{
		Filters:        f,
		SplitByProgram: s.Settings.Bool(settings.KeySplitByProgram, false),
	}
}

// seedSettings writes the config's interaction defaults for keys not yet
// persisted. Persisted values always win.
func seedSettings(set *settings.Store, cfg *config.Config) {
	seed := func(key string, v *bool) {
		if v == nil {
			return
		}
		if _, ok := set.Get(key); !ok {
			set.SetBool(key, *v)
		}
	}
	i := cfg.Interaction
	seed(settings.KeyAutoAdvance, i.AutoAdvance)
	seed(settings.KeyDeferCorrection, i.DeferCorrection)
	seed(settings.KeySkipAnswered, i.SkipAnswered)
	seed(settings.KeyAutoSubmit, i.AutoSubmitChoice)
	seed(settings.KeyShowRelated, i.ShowRelatedInList)
	seed(settings.KeyColoring, i.Coloring)
	seed(settings.KeySplitByProgram, i.SplitByProgram)
	if len(i.FilterTypes) > 0 {
		if _, ok := set.Get(settings.KeyFilterTypes); !ok {
			set.Set(settings.KeyFilterTypes, strings.Join(i.FilterTypes, ","))
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
