package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/yatube/yatube/internal/app"
	"github.com/yatube/yatube/internal/config"
	"github.com/yatube/yatube/internal/repository"
	"github.com/yatube/yatube/internal/services"
	"github.com/yatube/yatube/pkg/logger"
)

// session is an opened database plus the services built over it.
type session struct {
	cfg   *config.Config
	db    *repository.Database
	svc   *app.Services
	close func() error
}

type env struct {
	configPath string
	out        io.Writer
	open       func(configPath string) (*session, error)
}

func newEnv(out io.Writer) *env {
	return &env{out: out, open: openSession}
}

func openSession(configPath string) (*session, error) {
	load := config.LoadConfig
	if configPath != "" {
		load = func() (*config.Config, error) { return config.LoadConfigFrom(configPath) }
	}
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		return nil, err
	}
	log := logger.NewLogger(cfg.Log.Level, cfg.Log.Format)
	return &session{
		cfg:   cfg,
		db:    db,
		svc:   app.NewServices(cfg, app.Deps{DB: db.DB, Logger: log}),
		close: db.Close,
	}, nil
}

// withSession opens a session for the duration of fn.
func (e *env) withSession(fn func(*session) error) error {
	s, err := e.open(e.configPath)
	if err != nil {
		return err
	}
	defer s.close()
	return fn(s)
}

func (e *env) success(format string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(e.out, format+"\n", args...)
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "yatubectl",
		Short:         "Administrative tasks for Yatube",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&e.configPath, "config", "", "config file (default $CONFIG_PATH or configs/config.yaml)")

	root.AddCommand(migrateCmd(e))
	root.AddCommand(groupCmd(e))
	root.AddCommand(userCmd(e))
	root.AddCommand(cacheCmd(e))
	return root
}

func migrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withSession(func(s *session) error {
				if err := s.db.AutoMigrate(); err != nil {
					return fmt.Errorf("failed to migrate database: %w", err)
				}
				e.success("Database migrated")
				return nil
			})
		},
	}
}

func groupCmd(e *env) *cobra.Command {
	group := &cobra.Command{Use: "group", Short: "Manage groups"}

	var input services.GroupInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withSession(func(s *session) error {
				g, err := s.svc.Group.Create(cmd.Context(), &input)
				if err != nil {
					return err
				}
				e.success("Created group %q (/group/%s/)", g.Title, g.Slug)
				return nil
			})
		},
	}
	create.Flags().StringVar(&input.Title, "title", "", "group title")
	create.Flags().StringVar(&input.Slug, "slug", "", "URL-safe unique identifier")
	create.Flags().StringVar(&input.Description, "description", "", "free text description")
	_ = create.MarkFlagRequired("title")
	_ = create.MarkFlagRequired("slug")

	list := &cobra.Command{
		Use:   "list",
		Short: "List groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withSession(func(s *session) error {
				groups, err := s.svc.Group.List(cmd.Context())
				if err != nil {
					return err
				}
				for _, g := range groups {
					fmt.Fprintf(e.out, "%s\t%s\n", g.Slug, g)
				}
				return nil
			})
		},
	}

	group.AddCommand(create, list)
	return group
}

func userCmd(e *env) *cobra.Command {
	user := &cobra.Command{Use: "user", Short: "Manage users"}

	del := &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete a user who has not authored any posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withSession(func(s *session) error {
				err := s.svc.User.Delete(cmd.Context(), args[0])
				switch {
				case errors.Is(err, services.ErrUserHasPosts):
					return fmt.Errorf("user %q has authored posts and is protected from deletion", args[0])
				case errors.Is(err, services.ErrNotFound):
					return fmt.Errorf("user %q does not exist", args[0])
				case err != nil:
					return err
				}
				e.success("Deleted user %q", args[0])
				return nil
			})
		},
	}

	user.AddCommand(del)
	return user
}

func cacheCmd(e *env) *cobra.Command {
	c := &cobra.Command{Use: "cache", Short: "Manage the page cache"}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop every cached page from the shared redis store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withSession(func(s *session) error {
				if s.cfg.Cache.Store == "memory" {
					return fmt.Errorf("cache.store is memory: pages live inside each server process and expire after %s", s.cfg.Cache.IndexTTL)
				}
				store, closeStore, err := app.NewPageStore(cmd.Context(), s.cfg)
				if err != nil {
					return err
				}
				defer closeStore()

				if err := app.NewPageCache(store, s.cfg).Clear(cmd.Context()); err != nil {
					return fmt.Errorf("failed to clear page cache: %w", err)
				}
				e.success("Page cache cleared")
				return nil
			})
		},
	}

	c.AddCommand(clearCmd)
	return c
}
