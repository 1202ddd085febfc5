package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/connctd/mdplugin"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var errNoInput = errors.New("no input file given")

var renderCommand = cli.Command{
	Name:      "render",
	Aliases:   []string{"r"},
	Usage:     "Render the markdown elements of an HTML file",
	ArgsUsage: "<input.html>",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "out, o",
			Usage: "Write the result to this file instead of stdout",
		},
	},
	Action: func(ctx *cli.Context) error {
		input := ctx.Args().First()
		if input == "" {
			return errNoInput
		}
		conv, err := newConverter(configPath)
		if err != nil {
			return err
		}
		return renderFile(conv, input, ctx.String("out"), fragment)
	},
}

func newConverter(path string) (*mdplugin.Converter, error) {
	cfg := &mdplugin.Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if cfg, err = mdplugin.ParseConfig(data); err != nil {
			return nil, err
		}
	}
	return mdplugin.NewConverter(cfg, mdplugin.WithLogger(log))
}

// renderFile preprocesses input and writes it to output, or stdout when
// output is empty. The output file is only touched after rendering finished.
func renderFile(conv *mdplugin.Converter, input, output string, fragment bool) error {
	in, err := os.Open(input)
	if err != nil {
		return err
	}
	defer in.Close()

	buf := &bytes.Buffer{}
	if err := process(conv, in, buf, fragment); err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}

	if output == "" {
		_, err = os.Stdout.Write(buf.Bytes())
		return err
	}
	return os.WriteFile(output, buf.Bytes(), 0644)
}

func process(conv *mdplugin.Converter, r io.Reader, w io.Writer, fragment bool) error {
	parse := mdplugin.ParseDocument
	if fragment {
		parse = mdplugin.ParseFragment
	}
	doc, err := parse(r)
	if err != nil {
		return err
	}

	report, err := conv.Process(doc)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"rendered": report.Rendered(),
		"failed":   len(report.Failed()),
	}).Debug("markdown elements processed")

	return doc.Render(w)
}
