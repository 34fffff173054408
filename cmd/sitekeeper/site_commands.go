package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/loykin/sitekeeper/pkg/client"
)

// newClient builds an API client for the daemon. Credentials come from
// SITEKEEPER_USERNAME, SITEKEEPER_PASSWORD and SITEKEEPER_TOKEN, matching
// the daemon's own environment overrides.
func newClient(globalFlags *GlobalFlags) *client.Client {
	return client.New(client.Config{
		BaseURL:  globalFlags.APIUrl,
		Timeout:  globalFlags.APITimeout,
		Username: os.Getenv("SITEKEEPER_USERNAME"),
		Password: os.Getenv("SITEKEEPER_PASSWORD"),
		Token:    os.Getenv("SITEKEEPER_TOKEN"),
	})
}

func createStartCommand(globalFlags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "start <name>",
		Short: "Start a site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(globalFlags)
			if err := c.Start(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("started %s\n", args[0])
			return nil
		},
	}
}

func createStopCommand(globalFlags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <name>",
		Short: "Stop a site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(globalFlags)
			if err := c.Stop(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("stopped %s\n", args[0])
			return nil
		},
	}
}

func createRestartCommand(globalFlags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "restart <name>",
		Short: "Restart a site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(globalFlags)
			if err := c.Restart(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("restarted %s\n", args[0])
			return nil
		},
	}
}

func createReloadCommand(globalFlags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Reload the daemon's site list from its config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(globalFlags)
			if err := c.Reload(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("sites reloaded")
			return nil
		},
	}
}

func createStatusCommand(globalFlags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status [name]",
		Short: "Show site status",
		Long: `Show the status of one site, or of every registered site when no
name is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(globalFlags)
			var statuses []client.SiteStatus
			if len(args) == 1 {
				st, err := c.Status(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				statuses = []client.SiteStatus{st}
			} else {
				var err error
				statuses, err = c.StatusAll(cmd.Context())
				if err != nil {
					return err
				}
			}
			printStatuses(statuses)
			return nil
		},
	}
}

func printStatuses(statuses []client.SiteStatus) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tSTATE\tMODE\tPID\tPORT\tCOMMAND")
	for _, st := range statuses {
		state := "stopped"
		if st.Running {
			state = "running"
		}
		pid := "-"
		if st.PID > 0 {
			pid = fmt.Sprintf("%d", st.PID)
		}
		port := "-"
		if st.Port > 0 {
			port = fmt.Sprintf("%d", st.Port)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", st.Name, state, st.Mode, pid, port, st.Command)
	}
	_ = w.Flush()
}

// LogsFlags holds flags for the logs subcommand.
type LogsFlags struct {
	Lines  int
	Follow bool
}

func createLogsCommand(globalFlags *GlobalFlags) *cobra.Command {
	logsFlags := &LogsFlags{}

	cmd := &cobra.Command{
		Use:   "logs <name>",
		Short: "Show site logs",
		Long: `Print the tail of a site's log, or stream appended lines with --follow.

Examples:
  sitekeeper logs myblog
  sitekeeper logs myblog -n 50
  sitekeeper logs myblog --follow`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(globalFlags)
			if logsFlags.Follow {
				ctx, cancel := context.WithCancel(cmd.Context())
				defer cancel()
				return c.Follow(ctx, args[0], func(line string) {
					fmt.Println(line)
				})
			}
			lines, err := c.Logs(cmd.Context(), args[0], logsFlags.Lines)
			if err != nil {
				return err
			}
			for _, line := range lines {
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&logsFlags.Lines, "lines", "n", 0, "number of lines (0 = server default)")
	cmd.Flags().BoolVarP(&logsFlags.Follow, "follow", "f", false, "stream new lines")

	return cmd
}

// AddFlags holds flags for the add subcommand.
type AddFlags struct {
	CWD         string
	Command     string
	Port        int
	Log         string
	Env         []string
	Autostart   bool
	Autorestart bool
}

func createAddCommand(globalFlags *GlobalFlags) *cobra.Command {
	addFlags := &AddFlags{}

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a new site",
		Long: `Register a new site with the daemon.

Examples:
  sitekeeper add myblog --cwd=/srv/myblog --command="python app.py"
  sitekeeper add api --cwd=/srv/api --command="./server" --port=9000 --autorestart`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(globalFlags)
			err := c.AddSite(cmd.Context(), client.SiteSpec{
				Name:        args[0],
				CWD:         addFlags.CWD,
				Command:     addFlags.Command,
				Port:        addFlags.Port,
				Log:         addFlags.Log,
				Env:         addFlags.Env,
				Autostart:   addFlags.Autostart,
				Autorestart: addFlags.Autorestart,
			})
			if err != nil {
				return err
			}
			fmt.Printf("added %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&addFlags.CWD, "cwd", "", "working directory (required)")
	cmd.Flags().StringVar(&addFlags.Command, "command", "", "command to run (required)")
	cmd.Flags().IntVar(&addFlags.Port, "port", 0, "advertised port")
	cmd.Flags().StringVar(&addFlags.Log, "log", "", "log file (relative to cwd)")
	cmd.Flags().StringSliceVar(&addFlags.Env, "env", nil, "extra KEY=VALUE environment entries")
	cmd.Flags().BoolVar(&addFlags.Autostart, "autostart", false, "start when the daemon starts")
	cmd.Flags().BoolVar(&addFlags.Autorestart, "autorestart", false, "restart when the process dies")

	if err := cmd.MarkFlagRequired("cwd"); err != nil {
		panic(err)
	}
	if err := cmd.MarkFlagRequired("command"); err != nil {
		panic(err)
	}

	return cmd
}

func createRemoveCommand(globalFlags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Unregister a site",
		Long:  "Unregister a site. The daemon rejects removal while the site runs.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(globalFlags)
			if err := c.RemoveSite(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("removed %s\n", args[0])
			return nil
		},
	}
}
