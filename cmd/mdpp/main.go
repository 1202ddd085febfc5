package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var (
	configPath string
	fragment   bool
	debug      bool
)

var log = logrus.New()

func main() {
	app := cli.NewApp()
	app.Name = "mdpp"
	app.Usage = "Render the markdown content of .markdown and .md elements in HTML files"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:        "config, c",
			Usage:       "YAML file with engine and engineOptions",
			Destination: &configPath,
		},
		cli.BoolFlag{
			Name:        "fragment, f",
			Usage:       "Treat the input as an HTML fragment instead of a full document",
			Destination: &fragment,
		},
		cli.BoolFlag{
			Name:        "debug",
			Usage:       "Enable debug logging",
			Destination: &debug,
		},
	}
	app.Before = func(ctx *cli.Context) error {
		log.SetOutput(os.Stderr)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		if debug {
			log.SetLevel(logrus.DebugLevel)
		}
		return nil
	}
	app.Commands = []cli.Command{
		renderCommand,
		watchCommand,
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("mdpp failed")
	}
}
