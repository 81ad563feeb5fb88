package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/devfolio-dev/folio/internal/config"
	"github.com/devfolio-dev/folio/pkg/changes"
	"github.com/devfolio-dev/folio/pkg/editor"
	"github.com/devfolio-dev/folio/pkg/features/attachments"
	"github.com/devfolio-dev/folio/pkg/render"
)

func attachmentsCmd(load func() (*config.Config, error)) *cobra.Command {
	var showFields bool

	cmd := &cobra.Command{
		Use:   "attachments <before.html> <after.html>",
		Short: "Show how an edit changes the tracked images",
		Long: `Load before.html into an editor, apply after.html as a user edit, and
print the attachment registry before and after.

Only images carrying the configured reference attribute (editor.refAttr)
are tracked.

Examples:
  folio attachments draft.html edited.html
  folio attachments draft.html edited.html --fields`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runAttachments(cfg, args[0], args[1], showFields)
		},
	}

	cmd.Flags().BoolVar(&showFields, "fields", false, "Print the hidden form inputs")

	return cmd
}

func runAttachments(cfg *config.Config, beforePath, afterPath string, showFields bool) error {
	before, err := os.ReadFile(beforePath)
	if err != nil {
		return err
	}
	after, err := os.ReadFile(afterPath)
	if err != nil {
		return err
	}

	logger := cfg.NewLogger(os.Stderr)
	opts := []editor.Option{editor.WithRefAttr(cfg.Editor.RefAttr), editor.WithLogger(logger)}
	if cfg.Editor.MaxAttachments > 0 {
		opts = append(opts, editor.WithValidator(editor.MaxAttachments(cfg.Editor.MaxAttachments, cfg.Editor.ImageTags...)))
	}
	doc := editor.New(opts...)
	if err := doc.LoadHTML(string(before)); err != nil {
		return err
	}

	tracker := attachments.New(doc,
		attachments.WithClassifier(changes.Classifier{Tags: cfg.Editor.ImageTags, RefAttr: cfg.Editor.RefAttr}),
		attachments.WithFieldName(cfg.Editor.FieldName),
		attachments.WithRecordedAttr(cfg.Editor.RecordedAttr),
		attachments.WithLogger(logger),
	)
	defer tracker.Close()

	printRefs("before", tracker.Refs())
	if err := doc.SetData(string(after), editor.OriginUser); err != nil {
		return err
	}
	printRefs("after", tracker.Refs())

	if showFields {
		fmt.Println()
		fmt.Println(render.RenderToString(tracker.Fields()))
	}
	return nil
}

func printRefs(label string, refs []string) {
	success("%s: %d tracked", label, len(refs))
	for _, ref := range refs {
		info("%s", ref)
	}
}
