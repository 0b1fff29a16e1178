// Command pageview renders a view of a document to PNG.
//
// By default it lays the document out as a continuous vertical strip,
// scrolls to -page at -zoom and writes the viewport after every visible
// page has been rendered in the background. With -export it renders one
// whole page instead.
//
//	pageview -page 3 -zoom 1.5 -output view.png manual.pdf
//	pageview -export -page 3 -dpi 150 -output page3.png manual.pdf
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gogpu/pageview"
	"github.com/gogpu/pageview/cache"
	"github.com/gogpu/pageview/document"
	_ "github.com/gogpu/pageview/document/fitzdoc"
	_ "github.com/gogpu/pageview/document/imagedoc"
	"github.com/gogpu/pageview/surface"
)

// maxRounds bounds repaint/await cycles when the cache is too small for
// the viewport and pages keep evicting each other.
const maxRounds = 16

func main() {
	var (
		width   = flag.Int("width", 1024, "viewport width")
		height  = flag.Int("height", 768, "viewport height")
		page    = flag.Int("page", 1, "page to show (1-based)")
		zoom    = flag.Float64("zoom", 1, "zoom factor")
		dpi     = flag.Float64("dpi", 96, "device resolution")
		output  = flag.String("output", "page.png", "output file")
		export  = flag.Bool("export", false, "render one whole page instead of the viewport")
		backend = flag.String("backend", "", "document backend (default: by file type)")
		workers = flag.Int("workers", pageview.DefaultWorkers, "render goroutines")
		lru     = flag.Bool("lru", false, "use LRU instead of FIFO cache eviction")
		timeout = flag.Duration("timeout", time.Minute, "render timeout")
		verbose = flag.Bool("v", false, "log to stderr")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: pageview [flags] document\n\nbackends: %v\n\n", document.List())
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	if *verbose {
		pageview.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	policy := cache.FIFO
	if *lru {
		policy = cache.LRU
	}
	v := pageview.New(
		pageview.WithResolution(*dpi),
		pageview.WithWorkers(*workers),
		pageview.WithCachePolicy(policy),
		pageview.WithOpener(opener(*backend)),
	)
	defer v.Close()

	if err := v.OpenDocument(path); err != nil {
		log.Fatalf("Failed to open: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	v.SetViewport(*width, *height)
	v.SetZoom(*zoom)
	if !v.GoToPage(*page - 1) {
		log.Fatalf("Page %d out of range (document has %d pages)", *page, v.PageCount())
	}

	var img image.Image
	if *export {
		rgba, err := v.RenderFullPage(ctx, *page-1)
		if err != nil {
			log.Fatalf("Failed to render: %v", err)
		}
		img = rgba
	} else {
		s := surface.NewImageSurface(*width, *height)
		defer s.Close()
		if err := renderViewport(ctx, v, s); err != nil {
			log.Fatalf("Failed to render: %v", err)
		}
		img = s.Snapshot()
	}

	if err := savePNG(*output, img); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}

	stats := v.RenderStats()
	log.Printf("%s saved to %s (%dx%d), %d rendered, %d failed\n",
		v.CurrentPageInfo(), *output, img.Bounds().Dx(), img.Bounds().Dy(), stats.Completed, stats.Failed)
}

func opener(backend string) document.Opener {
	if backend == "" {
		return document.Open
	}
	return func(path string) (document.Document, error) {
		return document.OpenWith(backend, path)
	}
}

// renderViewport drives the pipeline the way an interactive host would:
// paint, wait for the requested pages, repaint what changed.
func renderViewport(ctx context.Context, v *pageview.Viewer, s surface.Surface) error {
	v.RepaintViewport(s)
	for range maxRounds {
		if err := v.AwaitRender(ctx); err != nil {
			return err
		}
		if !v.RepaintDamaged(s) {
			return nil
		}
	}
	return nil
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
