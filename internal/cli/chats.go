// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chats.go - Conversation and project commands.

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jeranaias/sofia-tui/internal/model"
	"github.com/jeranaias/sofia-tui/internal/registry"
	"github.com/jeranaias/sofia-tui/internal/session"
	"github.com/jeranaias/sofia-tui/internal/storage"
)

// =============================================================================
// CHATS
// =============================================================================

func newChatsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "chats",
		Aliases: []string{"ls"},
		Short:   "List conversations grouped by project",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.app()
			if err != nil {
				return err
			}
			defer app.Close()

			return output(cmd.OutOrStdout(), opts.jsonOutput, "chats",
				func() (chatListing, error) {
					v, err := refreshedView(cmd.Context(), app)
					return chatListing{v}, err
				},
				func(w io.Writer, l chatListing) { printChats(w, l.View) })
		},
	}
}

// refreshedView refreshes the registry, falling back to the cached listing
// when the backend is unreachable.
func refreshedView(ctx context.Context, app *App) (registry.View, error) {
	err := app.Registry.Refresh(ctx)
	if err != nil && !app.Registry.WarmStart(ctx) {
		return registry.View{}, err
	}
	return app.Registry.View(), nil
}

// chatListing prints grouped by project and encodes as a flat list.
type chatListing struct{ registry.View }

func (l chatListing) MarshalJSON() ([]byte, error) {
	rows := make([]ChatData, 0, len(l.Unfiled))
	for _, g := range l.Projects {
		for _, c := range g.Chats {
			rows = append(rows, ChatData{ID: int64(c.ID), Name: c.Label(), Project: g.Project.Name})
		}
	}
	for _, c := range l.Unfiled {
		rows = append(rows, ChatData{ID: int64(c.ID), Name: c.Label()})
	}
	return json.Marshal(rows)
}

func printChats(w io.Writer, v registry.View) {
	if v.Stale {
		fmt.Fprintln(w, warnStyle.Render("(listagem em cache de "+v.FetchedAt.Local().Format("02/01 15:04")+")"))
	}
	for _, g := range v.Projects {
		fmt.Fprintf(w, "%s %s\n", titleStyle.Render("▾ "+g.Project.Name), mutedStyle.Render("#"+g.Project.ID.String()))
		for _, c := range g.Chats {
			fmt.Fprintf(w, "    %6s  %s\n", c.ID, c.Label())
		}
	}
	if len(v.Unfiled) > 0 {
		if len(v.Projects) > 0 {
			fmt.Fprintln(w, titleStyle.Render("Sem projeto"))
		}
		for _, c := range v.Unfiled {
			fmt.Fprintf(w, "  %6s  %s\n", c.ID, c.Label())
		}
	}
	if len(v.Projects) == 0 && len(v.Unfiled) == 0 {
		fmt.Fprintln(w, "Nenhuma conversa ainda. Comece com: sofia chat")
	}
}

// =============================================================================
// SHOW
// =============================================================================

func newShowCommand(opts *rootOptions) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParseChatID(args[0])
			if err != nil {
				return invalidArg("id", args[0], "not a conversation id", "sofia show 42")
			}
			app, err := opts.app()
			if err != nil {
				return err
			}
			defer app.Close()

			conv, err := app.Client.GetChat(cmd.Context(), id)
			if err != nil {
				return NewCommandError("show", args[0], err)
			}
			if opts.jsonOutput {
				return NewJSONResponse("show", conv).Write(cmd.OutOrStdout())
			}

			p := newPrinter(cmd.OutOrStdout(), "dark", plain, ColorsEnabled())
			p.Title(conv.Chat.Title())
			for _, m := range conv.Messages {
				p.Message(m)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print replies as text with highlighted code blocks")
	return cmd
}

// =============================================================================
// EXPORT
// =============================================================================

func newExportCommand(opts *rootOptions) *cobra.Command {
	var format, dir string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a conversation to a file",
		Long: `Write a conversation to <export_dir>/<name>-<id>.md (or .json with
--format json). The file is replaced atomically.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParseChatID(args[0])
			if err != nil {
				return invalidArg("id", args[0], "not a conversation id", "sofia export 42")
			}
			f, err := storage.ParseFormat(format)
			if err != nil {
				return invalidArg("format", format, err.Error(), "--format md")
			}
			if dir == "" {
				if dir, err = opts.cfg.ExportDir(); err != nil {
					return err
				}
			}

			app, err := opts.app()
			if err != nil {
				return err
			}
			defer app.Close()

			conv, err := app.Client.GetChat(cmd.Context(), id)
			if err != nil {
				return NewCommandError("export", args[0], err)
			}
			path, err := storage.Export(conv, dir, f)
			if err != nil {
				return NewCommandError("export", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "md", "md or json")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "output directory (default storage.export_dir)")
	return cmd
}

// =============================================================================
// PROJECTS
// =============================================================================

func newProjectsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List and manage projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.app()
			if err != nil {
				return err
			}
			defer app.Close()

			return output(cmd.OutOrStdout(), opts.jsonOutput, "projects",
				func() ([]ProjectData, error) {
					v, err := refreshedView(cmd.Context(), app)
					if err != nil {
						return nil, err
					}
					data := make([]ProjectData, 0, len(v.Projects))
					for _, g := range v.Projects {
						ids := make([]int64, 0, len(g.Chats))
						for _, c := range g.Chats {
							ids = append(ids, int64(c.ID))
						}
						data = append(data, ProjectData{
							ID:        int64(g.Project.ID),
							Name:      g.Project.Name,
							Collapsed: bool(g.Project.Collapsed),
							Chats:     ids,
						})
					}
					return data, nil
				},
				func(w io.Writer, data []ProjectData) {
					if len(data) == 0 {
						fmt.Fprintln(w, "Nenhum projeto. Crie com: sofia projects create <nome>")
						return
					}
					for _, p := range data {
						fmt.Fprintf(w, "%6d  %s %s\n", p.ID, p.Name, mutedStyle.Render(fmt.Sprintf("(%d conversas)", len(p.Chats))))
					}
				})
		},
	}

	cmd.AddCommand(
		projectAction(opts, "create [name]", "Create a project (auto-named when empty)", cobra.MaximumNArgs(1),
			func(ctx context.Context, ctrl *session.Controller, args []string) (string, error) {
				name := ""
				if len(args) == 1 {
					name = args[0]
				}
				pid, err := ctrl.CreateProject(ctx, name)
				return fmt.Sprintf("Projeto %s criado.", pid), err
			}),
		projectAction(opts, "rename <project> <name>", "Rename a project", cobra.ExactArgs(2),
			func(ctx context.Context, ctrl *session.Controller, args []string) (string, error) {
				pid, err := parseProject(args[0])
				if err != nil {
					return "", err
				}
				return "Projeto renomeado.", ctrl.RenameProject(ctx, pid, args[1])
			}),
		projectAction(opts, "delete <project>", "Delete a project; its conversations are kept", cobra.ExactArgs(1),
			func(ctx context.Context, ctrl *session.Controller, args []string) (string, error) {
				pid, err := parseProject(args[0])
				if err != nil {
					return "", err
				}
				return "Projeto excluído.", ctrl.DeleteProject(ctx, pid)
			}),
		projectAction(opts, "add <project> <chat>", "Move a conversation into a project", cobra.ExactArgs(2),
			func(ctx context.Context, ctrl *session.Controller, args []string) (string, error) {
				pid, err := parseProject(args[0])
				if err != nil {
					return "", err
				}
				id, err := model.ParseChatID(args[1])
				if err != nil {
					return "", invalidArg("chat", args[1], "not a conversation id", "sofia projects add 3 42")
				}
				return "Conversa movida.", ctrl.MoveToProject(ctx, id, pid)
			}),
		projectAction(opts, "remove <chat>", "Take a conversation out of its project", cobra.ExactArgs(1),
			func(ctx context.Context, ctrl *session.Controller, args []string) (string, error) {
				id, err := model.ParseChatID(args[0])
				if err != nil {
					return "", invalidArg("chat", args[0], "not a conversation id", "sofia projects remove 42")
				}
				return "Conversa removida do projeto.", ctrl.RemoveFromProject(ctx, id)
			}),
	)
	return cmd
}

func parseProject(s string) (model.ProjectID, error) {
	pid, err := model.ParseProjectID(s)
	if err != nil {
		return 0, invalidArg("project", s, "not a project id", "sofia projects rename 3 Casa")
	}
	return pid, nil
}

// projectAction builds a project subcommand. The controller needs a fresh
// registry listing to resolve names and memberships, so it is refreshed
// before run.
func projectAction(opts *rootOptions, use, short string, args cobra.PositionalArgs,
	run func(context.Context, *session.Controller, []string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, argv []string) error {
			app, err := opts.app()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			if err := app.Registry.Refresh(ctx); err != nil {
				return err
			}
			msg, err := run(ctx, app.Controller(session.NopView{}), argv)
			if err != nil {
				return NewCommandError("projects", cmd.Name(), err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(msg))
			return nil
		},
	}
}
