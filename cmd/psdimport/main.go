package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/dustin/go-humanize"

	psd "github.com/Mark24Code/psdimport"
	"github.com/Mark24Code/psdimport/internal/config"
	"github.com/Mark24Code/psdimport/internal/document"
	"github.com/Mark24Code/psdimport/internal/importer"
	"github.com/Mark24Code/psdimport/internal/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("psdimport", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: psdimport [options] <file.psd>\n\n")
		fmt.Fprintf(stderr, "Import a Photoshop document into an editor document (JSON)\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}

	configPath := fs.String("config", "", "Config file (default: per-user config)")
	canvas := fs.String("canvas", "", "Target canvas size as WIDTHxHEIGHT")
	rasterizeText := fs.Bool("rasterize-text", false, "Import text layers as images")
	resizeCanvas := fs.Bool("resize-canvas", false, "Resize the canvas to the document instead of scaling")
	out := fs.String("o", "", "Write the document JSON to this file (default: stdout)")
	preview := fs.String("preview", "", "Write a composite preview PNG to this file")
	tree := fs.Bool("tree", false, "Print the layer tree as JSON and exit")
	describe := fs.Bool("describe", false, "Print template metadata as JSON and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("expected exactly one input file")
	}
	path := fs.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *canvas != "" {
		w, h, err := config.ParseCanvas(*canvas)
		if err != nil {
			return err
		}
		cfg.Import.CanvasWidth, cfg.Import.CanvasHeight = w, h
	}
	if *rasterizeText {
		cfg.Import.RasterizeText = true
	}
	if *resizeCanvas {
		cfg.Import.ResizeCanvas = true
	}

	logger := log.Init(log.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
		Writer:    stderr,
	}).With("component", "cli")

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	logger.Debug("input loaded", "file", path, "size", humanize.Bytes(uint64(len(data))))

	doc, err := importer.Parse(data)
	if err != nil {
		return err
	}

	switch {
	case *tree:
		return writeJSON(stdout, doc.Source.Tree().ToHash())
	case *describe:
		return writeJSON(stdout, importer.Describe(path, int64(len(data)), doc))
	}

	if *preview != "" {
		if err := writePreview(doc.Source, *preview); err != nil {
			return err
		}
		logger.Info("preview written", "file", *preview)
	}

	store := document.NewStore(cfg.Import.CanvasWidth, cfg.Import.CanvasHeight)
	fonts := importer.NewFontCache(cfg.Fonts.Dirs, logger)
	im := importer.New(importer.OptionsFromConfig(cfg.Import), fonts, logger)
	sum, err := im.ImportDocument(ctx, doc, store)
	if err != nil {
		return err
	}

	w := stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := store.WriteJSON(w); err != nil {
		return fmt.Errorf("write document: %w", err)
	}

	cw, ch := store.Size()
	fmt.Fprintf(stderr, "%s (%s, %dx%d): %d converted, %d skipped, %d errored of %d layers; canvas %dx%d, scale %.4g\n",
		filepath.Base(path), humanize.Bytes(uint64(len(data))), doc.Width, doc.Height,
		sum.Converted, sum.Skipped, sum.Errored, sum.Total, cw, ch, sum.Ratio)
	return nil
}

func writePreview(p *psd.PSD, path string) error {
	img, err := p.Preview()
	if err != nil {
		return fmt.Errorf("render preview: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode preview: %w", err)
	}
	return f.Close()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
