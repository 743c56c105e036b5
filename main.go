package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/asap/internal/api"
	"github.com/sadopc/asap/internal/config"
	appLog "github.com/sadopc/asap/internal/log"
	"github.com/sadopc/asap/internal/mutate"
	"github.com/sadopc/asap/internal/refresh"
	"github.com/sadopc/asap/internal/schedule"
	"github.com/sadopc/asap/internal/store"
	"github.com/sadopc/asap/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to config file (default ~/.config/asap/config.yaml)")
	token := flag.String("token", "", "Bearer token for the backend (stored for later runs)")
	email := flag.String("email", "", "Sign in as the user with this email")
	name := flag.String("user", "", "Display name used when the account has to be created")
	flag.Parse()

	if *configPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		*configPath = p
	}
	conf, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	closeLog, err := setupLog(conf, *configPath)
	if err != nil {
		return err
	}
	defer closeLog()

	loc, err := conf.Location()
	if err != nil {
		appLog.Error("bad timezone, using local time", err)
	}

	dbPath := conf.DBPath
	if dbPath == "" {
		if dbPath, err = store.DefaultDBPath(); err != nil {
			return err
		}
	}
	s, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()

	if *token != "" {
		if err := s.SetToken(*token); err != nil {
			return err
		}
	}
	stored, err := s.Token()
	if err != nil {
		return err
	}
	client := api.NewClient(conf.API.BaseURL, api.WithToken(stored), api.WithTimeout(conf.Timeout()))

	user, err := resolveUser(s, client, strings.TrimSpace(*email), strings.TrimSpace(*name))
	if err != nil {
		return err
	}
	appLog.Info("starting", "user", user.Email, "base_url", conf.API.BaseURL)

	var prog lateProgram
	coord := mutate.New(client, mutate.NotifierFunc(func(n mutate.Notification) { prog.send(tui.Notify(n)) }))
	coord.OnChange(func() { prog.send(tui.ItemsChanged()) })
	defer coord.Close()

	loader := refresh.NewLoader(client, coord, user.ID, conf.Tasks.PageSize)
	var r *refresh.Refresher
	if conf.RefreshEnabled() {
		r, err = refresh.New(loader, conf.Refresh, loc, conf.Timeout(), func(res refresh.Result, err error) {
			prog.send(tui.Loaded(res, err))
		})
		if err != nil {
			return err
		}
	}

	app := tui.NewApp(tui.Options{
		Store:    s,
		Backend:  client,
		Coord:    coord,
		Loader:   loader,
		User:     user,
		Location: loc,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	prog.set(p)
	if r != nil {
		r.Start()
		defer r.Stop()
	}
	_, err = p.Run()
	return err
}

// lateProgram hands messages from background goroutines to a program that
// is created after the hooks using it. Messages sent before set are
// dropped.
type lateProgram struct {
	p atomic.Pointer[tea.Program]
}

func (l *lateProgram) set(p *tea.Program) { l.p.Store(p) }

func (l *lateProgram) send(msg tea.Msg) {
	if p := l.p.Load(); p != nil {
		p.Send(msg)
	}
}

// setupLog sends log lines to the configured file, or to asap.log next to
// the config file. The terminal belongs to the UI while it runs.
func setupLog(conf *config.Config, configPath string) (func(), error) {
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	path := conf.LogFile
	if path == "" {
		path = filepath.Join(filepath.Dir(configPath), "asap.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	appLog.SetOutput(f)
	return func() { f.Close() }, nil
}

// resolveUser returns the signed-in user. An email flag switches accounts,
// creating the account on first use.
func resolveUser(s *store.Store, client *api.Client, email, name string) (schedule.User, error) {
	if email == "" {
		u, err := s.User()
		if err != nil {
			return schedule.User{}, err
		}
		if u == nil {
			return schedule.User{}, errors.New("no user signed in, run with -email")
		}
		return *u, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	u, err := client.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, api.ErrNotFound):
		if name == "" {
			name = strings.SplitN(email, "@", 2)[0]
		}
		if u, err = client.CreateUser(ctx, schedule.User{Name: name, Email: email}); err != nil {
			return schedule.User{}, fmt.Errorf("create user: %w", err)
		}
		appLog.Info("created user", "email", email)
	case err != nil:
		return schedule.User{}, fmt.Errorf("look up user: %w", err)
	}
	if err := s.SetUser(u); err != nil {
		return schedule.User{}, err
	}
	return u, nil
}
