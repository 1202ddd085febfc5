package main

import (
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli"
)

var watchCommand = cli.Command{
	Name:        "watch",
	Aliases:     []string{"w"},
	Description: "Render the input file and render it again whenever it changes",
	Usage:       "watch --out <file> <input.html>",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "out, o",
			Usage: "File the rendered HTML is written to",
		},
	},
	Action: func(ctx *cli.Context) error {
		input := ctx.Args().First()
		if input == "" {
			return errNoInput
		}
		output := ctx.String("out")
		if output == "" {
			return errors.New("watch needs --out")
		}
		conv, err := newConverter(configPath)
		if err != nil {
			return err
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		defer watcher.Close()
		// Editors often replace files, so the directory is watched.
		if err := watcher.Add(filepath.Dir(input)); err != nil {
			return err
		}

		rerender := func() {
			if err := renderFile(conv, input, output, fragment); err != nil {
				log.WithError(err).Error("rendering failed")
				return
			}
			log.WithField("out", output).Info("rendered")
		}
		rerender()

		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		return watch(watcher, input, c, rerender)
	},
}

// watch calls rerender for every change of input until stop receives.
func watch(watcher *fsnotify.Watcher, input string, stop <-chan os.Signal, rerender func()) error {
	input = filepath.Clean(input)
	for {
		select {
		case <-stop:
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("watcher error")
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(evt.Name) != input {
				continue
			}
			if evt.Has(fsnotify.Write) || evt.Has(fsnotify.Create) || evt.Has(fsnotify.Rename) {
				log.Debugf("%s changed (%s), rerendering...", evt.Name, evt.Op)
				rerender()
			}
		}
	}
}
