package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yacobolo/assetpipe/internal/page"
	"github.com/yacobolo/assetpipe/internal/page/htmldom"
)

var pageCmd = &cobra.Command{
	Use:   "page FILE",
	Short: "Apply the page behaviors to an HTML file",
	Long: `Load an HTML document, replay the page events against it and print the
resulting markup. Heights are read from inline "height: Npx" styles.

The document receives a ready event for the given viewport, then one click
per --click selector, then a scroll event. Use - to read from stdin.`,
	Example: `  # Navbar state on a phone, scrolled down
  assetpipe page index.html --width 375 --scroll 120

  # Flip the first card and equalize rows
  assetpipe page index.html --click ".card .flip-it" --equalize-rows`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: runPage,
}

func init() {
	pageCmd.Flags().Float64("width", 1024, "Viewport width in pixels")
	pageCmd.Flags().Float64("height", 768, "Viewport height in pixels")
	pageCmd.Flags().Float64("scroll", 0, "Vertical scroll offset in pixels")
	pageCmd.Flags().StringArray("click", nil, "Selector of an element to click (repeatable)")
	pageCmd.Flags().Bool("equalize-rows", false, "Equalize the boxes of same-height rows")
	pageCmd.Flags().StringP("output", "o", "", "Write the result to a file instead of stdout")
}

func runPage(cmd *cobra.Command, args []string) error {
	log := loggerFromConfig()
	defer func() { _ = log.Sync() }()

	flags := cmd.Flags()
	width, _ := flags.GetFloat64("width")
	height, _ := flags.GetFloat64("height")
	scroll, _ := flags.GetFloat64("scroll")
	clicks, _ := flags.GetStringArray("click")
	equalize, _ := flags.GetBool("equalize-rows")
	output, _ := flags.GetString("output")

	var in io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("reading page: %w", err)
		}
		defer f.Close()
		in = f
	}

	doc, err := htmldom.Parse(in)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}

	vp := page.Viewport{Width: width, Height: height, ScrollY: scroll}
	loop := page.NewLoop(log)
	page.Install(loop, doc)

	loop.Dispatch(page.Event{Type: page.EventReady, Viewport: vp})
	for _, sel := range clicks {
		targets := doc.Query(sel)
		if len(targets) == 0 {
			log.Warn("click target not found", zap.String("selector", sel))
			continue
		}
		loop.Dispatch(page.Event{Type: page.EventClick, Target: targets[0], Viewport: vp})
	}
	loop.Dispatch(page.Event{Type: page.EventScroll, Viewport: vp})

	if equalize {
		page.EqualizeRows(doc)
	}

	html, err := doc.Render()
	if err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}

	if output == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), html)
		return err
	}
	if err := os.WriteFile(output, []byte(html+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	log.Info("wrote page", zap.String("file", output))
	return nil
}
