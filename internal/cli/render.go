package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/skelgen/internal/parser"
	"github.com/dgallion1/skelgen/internal/render"
	"github.com/dgallion1/skelgen/internal/skeleton"
	"github.com/dgallion1/skelgen/internal/vnode"
	"github.com/spf13/cobra"
)

// transformOpts are the transformer flags shared by render and styles.
type transformOpts struct {
	stylesPath string
	marker     string
	noCollapse bool
	maxDepth   int
}

func (o *transformOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.stylesPath, "styles", "", "YAML style table replacing the built-in placeholders")
	cmd.Flags().StringVar(&o.marker, "marker", "", "class token that centers a subtree (default text-center)")
	cmd.Flags().BoolVar(&o.noCollapse, "no-collapse", false, "only collapse table tags whose children are blank")
	cmd.Flags().IntVar(&o.maxDepth, "max-depth", skeleton.DefaultMaxDepth, "deepest subtree that is transformed")
}

func (o *transformOpts) transformer(ctx context.Context) (*skeleton.Transformer, error) {
	opts := []skeleton.Option{
		skeleton.WithTextCollapse(!o.noCollapse),
		skeleton.WithMaxDepth(o.maxDepth),
		skeleton.WithLogger(slogFromContext(ctx)),
	}
	if o.stylesPath != "" {
		f, err := os.Open(o.stylesPath)
		if err != nil {
			return nil, fmt.Errorf("open styles: %w", err)
		}
		defer f.Close()
		sf, err := skeleton.LoadStyleFile(f)
		if err != nil {
			return nil, fmt.Errorf("load styles %s: %w", o.stylesPath, err)
		}
		opts = append(opts, skeleton.WithStyleTable(sf.Tags), skeleton.WithCenterMarker(sf.CenterMarker))
	}
	if o.marker != "" {
		if len(strings.Fields(o.marker)) != 1 {
			return nil, fmt.Errorf("--marker must be a single class token, got %q", o.marker)
		}
		opts = append(opts, skeleton.WithCenterMarker(o.marker))
	}
	return skeleton.New(opts...), nil
}

type renderOpts struct {
	transformOpts
	format  string
	output  string
	loading bool
	outFile string
	pdftext bool
}

func newRenderCmd() *cobra.Command {
	opts := renderOpts{output: "html", loading: true, pdftext: true}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render the skeleton of a document",
		Long:  "Render the skeleton of a document. Reads stdin when file is omitted or \"-\".",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return runRender(cmd, path, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "input format: html, md, json, txt, csv, pdf, docx (default from extension, html for stdin)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "output encoding: html or json")
	cmd.Flags().BoolVar(&opts.loading, "loading", opts.loading, "render the skeleton; false writes the document itself")
	cmd.Flags().StringVar(&opts.outFile, "out", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&opts.pdftext, "pdftotext", opts.pdftext, "fall back to pdftotext for PDFs the Go reader cannot handle")
	opts.register(cmd)

	return cmd
}

func runRender(cmd *cobra.Command, path string, opts *renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	if opts.output != "html" && opts.output != "json" {
		return fmt.Errorf("--output must be html or json, got %q", opts.output)
	}
	t, err := opts.transformer(ctx)
	if err != nil {
		return err
	}

	format := opts.format
	if format == "" {
		format = "html"
		if path != "-" {
			format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		}
	}
	p, err := parser.ForFormat(format, parser.Options{PDFFallbackPdftotext: opts.pdftext})
	if err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	name := "stdin." + format
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
		name = filepath.Base(path)
	}

	start := time.Now()
	tree, err := p.Parse(in, name)
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	logger.Debug("parsed", "file", name, "nodes", vnode.Count(tree), "depth", vnode.Depth(tree))

	view := tree
	if opts.loading {
		content, stats := t.Transform(tree)
		view = skeleton.Wrap(content)
		logger.Debug("skeleton pass",
			"placeholders", stats.Placeholders,
			"text", stats.Text,
			"images", stats.Images,
			"opaque", stats.Opaque,
			"cache_hits", stats.CacheHits,
			"fallbacks", stats.Fallbacks(),
		)
		if stats.Fallbacks() > 0 {
			logger.Warn("some subtrees were passed through unchanged", "count", stats.Fallbacks())
		}
	}

	var out io.Writer = cmd.OutOrStdout()
	if opts.outFile != "" {
		f, err := os.Create(opts.outFile)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	if opts.output == "json" {
		err = render.JSON(out, view)
	} else {
		err = render.HTML(out, view)
		if err == nil {
			_, err = io.WriteString(out, "\n")
		}
	}
	if err != nil {
		return err
	}
	logger.Infof("Rendered %s (%s)", name, time.Since(start).Round(time.Millisecond))
	return nil
}
