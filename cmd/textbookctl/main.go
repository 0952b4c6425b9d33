// Command textbookctl inspects and maintains the textbook content directory.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dgallion1/hoteldistro/internal/chapter"
	"github.com/dgallion1/hoteldistro/internal/config"
	"github.com/dgallion1/hoteldistro/internal/glossary"
	"github.com/dgallion1/hoteldistro/internal/parser"
	"github.com/dgallion1/hoteldistro/internal/pipeline"
	"github.com/dgallion1/hoteldistro/internal/registry"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd(config.Load()).Execute(); err != nil {
		os.Exit(1)
	}
}

type cli struct {
	cfg     config.Config
	verbose bool
}

func newRootCmd(cfg config.Config) *cobra.Command {
	c := &cli{cfg: cfg}

	root := &cobra.Command{
		Use:          "textbookctl",
		Short:        "Inspect and maintain textbook chapters",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&c.cfg.ContentDir, "content", cfg.ContentDir, "chapter directory")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log pipeline progress to stderr")

	chapters := &cobra.Command{Use: "chapters", Short: "List and inspect chapters"}
	chapters.AddCommand(c.listCmd(), c.inspectCmd())

	gl := &cobra.Command{Use: "glossary", Short: "Glossary maintenance"}
	gl.AddCommand(c.glossaryCheckCmd())

	root.AddCommand(chapters, c.importCmd(), gl)
	return root
}

func (c *cli) logger(cmd *cobra.Command) *slog.Logger {
	if !c.verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
}

func (c *cli) registry(cmd *cobra.Command) (*registry.Registry, error) {
	return registry.OpenDir(c.cfg.ContentDir, c.logger(cmd))
}

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List chapters in reading order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.registry(cmd)
			if err != nil {
				return err
			}
			metas, err := reg.ListAll(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NUM\tSLUG\tPART\tTITLE")
			for _, m := range metas {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", m.Number, m.Slug, chapter.PartFor(m.Number).Name, m.Title)
			}
			return tw.Flush()
		},
	}
}

func (c *cli) inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <slug>",
		Short: "Show the sections and extracted regions of a chapter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.registry(cmd)
			if err != nil {
				return err
			}
			doc, err := reg.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if doc == nil {
				return fmt.Errorf("chapter %q not found", args[0])
			}

			p := chapter.Process(doc.Body)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Chapter %d: %s\n", doc.Number, doc.Title)
			if p.IntroTitle != nil {
				fmt.Fprintf(out, "Intro: %s\n", *p.IntroTitle)
			}

			found := map[string]bool{}
			for _, name := range p.Found() {
				found[name] = true
			}
			fmt.Fprintln(out, "\nRegions:")
			for _, s := range chapter.Stages() {
				mark := "-"
				if found[s.Name] {
					mark = "+"
				}
				fmt.Fprintf(out, "  %s %s\n", mark, s.Name)
			}

			fmt.Fprintln(out, "\nSections:")
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, s := range p.Sections {
				fmt.Fprintf(tw, "  %s\th%d\t#%s\n", s.Title, s.Level, s.ID)
			}
			return tw.Flush()
		},
	}
}

func (c *cli) importCmd() *cobra.Command {
	var (
		slug, number, title, description string
		force                            bool
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Convert a manuscript into a chapter document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			if !parser.IsSupportedExtension(filename) {
				return fmt.Errorf("unsupported file type: %s", filename)
			}
			data, err := os.ReadFile(filename)
			if err != nil {
				return err
			}

			req := pipeline.Request{
				Slug:        slug,
				Title:       title,
				Description: description,
				Force:       force,
				Filename:    filename,
				Data:        data,
			}
			if req.Slug == "" {
				base := filepath.Base(filename)
				req.Slug = chapter.Slugify(strings.TrimSuffix(base, filepath.Ext(base)))
			}
			if !registry.ValidSlug(req.Slug) {
				return fmt.Errorf("invalid slug %q", req.Slug)
			}
			if number != "" {
				n, err := strconv.Atoi(number)
				if err != nil || n < 0 {
					return fmt.Errorf("number must be a non-negative integer")
				}
				req.Number = &n
			}

			store := registry.NewDirStore(c.cfg.ContentDir)
			w := pipeline.NewWorker(store, parser.Options{PDFFallbackPdftotext: c.cfg.PDFFallbackPdftotext}, c.logger(cmd))
			job := pipeline.NewJob(req)
			w.Process(cmd.Context(), job)

			snap := job.Snapshot()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s (chapter %d: %s)\n", snap.Slug, snap.Status, snap.Number, snap.Title)
			if len(snap.Found) > 0 {
				fmt.Fprintf(out, "regions: %s\n", strings.Join(snap.Found, ", "))
			}
			for _, warn := range snap.Warnings {
				fmt.Fprintf(out, "warning: %s\n", warn)
			}
			if snap.Status == pipeline.StatusFailed {
				return fmt.Errorf("import failed: %s", strings.Join(snap.Errors, "; "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&slug, "slug", "", "chapter slug (default: derived from the file name)")
	cmd.Flags().StringVar(&number, "number", "", "chapter number")
	cmd.Flags().StringVar(&title, "title", "", "chapter title (default: the manuscript's title)")
	cmd.Flags().StringVar(&description, "description", "", "listing description")
	cmd.Flags().BoolVar(&force, "force", false, "rewrite even when the content is unchanged")
	return cmd
}

func (c *cli) glossaryCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify every glossary anchor names a section of its chapter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.registry(cmd)
			if err != nil {
				return err
			}
			g, err := glossary.Load(afero.NewOsFs(), c.cfg.GlossaryPath, c.cfg.GlossaryAnchorsPath)
			if err != nil {
				return err
			}
			ids, err := sectionIDs(cmd, reg)
			if err != nil {
				return err
			}

			dangling := g.Verify(ids)
			out := cmd.OutOrStdout()
			for _, d := range dangling {
				if d.Anchor == "" {
					fmt.Fprintf(out, "%s: chapter %d does not exist\n", d.Term, d.Chapter)
					continue
				}
				fmt.Fprintf(out, "%s: chapter %d has no section #%s\n", d.Term, d.Chapter, d.Anchor)
			}
			if len(dangling) > 0 {
				return fmt.Errorf("%d dangling glossary links", len(dangling))
			}
			fmt.Fprintf(out, "%d terms ok\n", len(g.Terms))
			return nil
		},
	}
}

// sectionIDs maps each chapter number to the anchors its page exposes.
func sectionIDs(cmd *cobra.Command, reg *registry.Registry) (map[int]map[string]bool, error) {
	metas, err := reg.ListAll(cmd.Context())
	if err != nil {
		return nil, err
	}
	out := make(map[int]map[string]bool, len(metas))
	for _, m := range metas {
		doc, err := reg.Get(cmd.Context(), m.Slug)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			continue
		}
		ids := out[m.Number]
		if ids == nil {
			ids = map[string]bool{}
			out[m.Number] = ids
		}
		for _, s := range chapter.Process(doc.Body).Sections {
			ids[s.ID] = true
		}
	}
	return out, nil
}
