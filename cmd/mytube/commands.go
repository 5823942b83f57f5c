package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mytube/mytube/internal/app"
	"github.com/mytube/mytube/internal/session"
	"github.com/mytube/mytube/selector"
)

var filterFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "window",
		Aliases: []string{"w"},
		Value:   "all",
		Usage:   "only videos from the last `WINDOW`: day, week, month, year, all, or a number of days",
	},
	&cli.StringFlag{
		Name:    "keywords",
		Aliases: []string{"k"},
		Usage:   "only videos tagged with, or titled with, one of these comma-separated `WORDS`",
	},
}

func filterFromFlags(c *cli.Context) (selector.Filter, error) {
	window, err := selector.ParseWindow(c.String("window"))
	if err != nil {
		return selector.Filter{}, err
	}
	return selector.NewFilter(window, c.String("keywords")), nil
}

var videoCommand = &cli.Command{
	Name:      "video",
	Usage:     "download single videos",
	ArgsUsage: "URL...",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "filename",
			Usage: "save the video as `NAME` instead of its title (only with a single URL)",
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() == 0 {
			return cli.Exit("Please enter a valid YouTube URL", 1)
		}
		filename := c.String("filename")
		if filename != "" && c.NArg() > 1 {
			return cli.Exit("--filename can only be used with a single URL", 1)
		}
		return withEnv(c, false, func(e *env) error {
			for _, url := range c.Args().Slice() {
				if err := e.report(e.app.DownloadVideo(c.Context, url, filename)); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var channelCommand = &cli.Command{
	Name:      "channel",
	Usage:     "download a channel's recent videos",
	ArgsUsage: "NAME",
	Flags:     filterFlags,
	Action: func(c *cli.Context) error {
		name := strings.Join(c.Args().Slice(), " ")
		if app.NormalizeChannelName(name) == "" {
			return cli.Exit("Please enter a Youtube channel name", 1)
		}
		filter, err := filterFromFlags(c)
		if err != nil {
			return err
		}
		return withEnv(c, len(filter.Keywords) > 0, func(e *env) error {
			return e.report(e.app.DownloadChannel(c.Context, name, filter))
		})
	},
}

var playlistCommand = &cli.Command{
	Name:      "playlist",
	Usage:     "download a playlist by URL, or by name from a channel",
	ArgsUsage: "[URL]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "channel",
			Usage: "look the playlist up on channel `NAME`",
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: "title of the channel's playlist to download, close matches are offered for confirmation",
		},
	},
	Action: func(c *cli.Context) error {
		channel, name := c.String("channel"), c.String("name")
		switch {
		case channel != "" && name != "":
			return withEnv(c, false, func(e *env) error {
				return e.report(e.app.DownloadChannelPlaylist(c.Context, channel, name, e.confirmer))
			})
		case c.NArg() == 1 && channel == "" && name == "":
			return withEnv(c, false, func(e *env) error {
				return e.report(e.app.DownloadPlaylist(c.Context, c.Args().First()))
			})
		default:
			return cli.Exit("give either a playlist URL, or both --channel and --name", 1)
		}
	},
}

var getCommand = &cli.Command{
	Name:      "get",
	Usage:     "download anything: video, playlist or channel references are recognised automatically",
	ArgsUsage: "REF...",
	Flags:     filterFlags,
	Action: func(c *cli.Context) error {
		if c.NArg() == 0 {
			return cli.Exit("Please enter a valid YouTube URL", 1)
		}
		filter, err := filterFromFlags(c)
		if err != nil {
			return err
		}
		return withEnv(c, len(filter.Keywords) > 0, func(e *env) error {
			for _, ref := range c.Args().Slice() {
				if err := e.report(e.app.Download(c.Context, ref, filter)); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var historyCommand = &cli.Command{
	Name:  "history",
	Usage: "show or clear previous downloads",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "clear",
			Usage: "forget all previous downloads (the files are kept)",
		},
	},
	Action: func(c *cli.Context) error {
		return withEnv(c, false, func(e *env) error {
			if c.Bool("clear") {
				n, err := e.session.ClearHistory()
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "Cleared %d downloads.\n", n)
				return nil
			}
			tasks, err := e.session.History()
			if err != nil {
				return err
			}
			sort.Slice(tasks, func(i, j int) bool {
				return tasks[i].FinishedAt.After(tasks[j].FinishedAt)
			})
			for _, t := range tasks {
				fmt.Fprintln(c.App.Writer, describe(t))
			}
			return nil
		})
	},
}

func describe(t session.Task) string {
	when := t.FinishedAt.Local().Format("2006-01-02 15:04")
	if t.Status == session.StatusSucceeded {
		return fmt.Sprintf("%s  %-9s  %s  %s", when, t.Status, t.Resolution, t.Path)
	}
	return fmt.Sprintf("%s  %-9s  %s: %s", when, t.Status, t.Title, t.Error)
}
