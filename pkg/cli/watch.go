package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/platinummonkey/protoform/pkg/async"
	"github.com/platinummonkey/protoform/pkg/editor"
	"github.com/platinummonkey/protoform/pkg/observability"
	"github.com/platinummonkey/protoform/pkg/schema"
)

func newWatchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <schema-file>",
		Short: "Reload a schema file on every change and show its form",
		Long: `Watch loads the schema file, prints its form, and reloads it whenever the
file is written. Loads run in the background; when edits arrive faster than
they parse, only the latest one is shown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			w := newSchemaWatcher(a.newSession(), path, cmd.OutOrStdout(), a.logger)
			return w.run(cmd.Context())
		},
	}
}

type loadResult struct {
	ticket editor.Ticket
	schema *schema.Schema
	err    error
}

// schemaWatcher reloads one schema file into a session. Parsing happens off
// the event loop; results are applied on it.
type schemaWatcher struct {
	session *editor.Session
	path    string
	out     io.Writer
	logger  *observability.Logger
	results chan loadResult
}

func newSchemaWatcher(s *editor.Session, path string, out io.Writer, logger *observability.Logger) *schemaWatcher {
	return &schemaWatcher{
		session: s,
		path:    path,
		out:     out,
		logger:  logger,
		results: make(chan loadResult, 8),
	}
}

// trigger reads the file and starts a background load of its contents
func (w *schemaWatcher) trigger(ctx context.Context) error {
	text, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", w.path, err)
	}
	w.load(ctx, string(text))
	return nil
}

// load parses text in the background and hands the result to the event
// loop. The returned channel closes once the load has finished and its result
// was delivered or ctx was cancelled.
func (w *schemaWatcher) load(ctx context.Context, text string) <-chan struct{} {
	t := w.session.Begin(text)
	return async.SafeGo(ctx, w.logger, 0, "schema load", func(ctx context.Context) error {
		r := loadResult{ticket: t}
		r.err = async.Recover(func() error {
			var err error
			r.schema, err = w.session.Load(t)
			return err
		})
		select {
		case w.results <- r:
		case <-ctx.Done():
		}
		return r.err
	})
}

// apply installs a finished load unless a newer one has been started since.
// It reports whether the result was used.
func (w *schemaWatcher) apply(r loadResult) bool {
	if !w.session.Apply(r.ticket, r.schema, r.err) {
		return false
	}

	st := w.session.Status()
	switch st.State {
	case editor.StateEmpty:
		fmt.Fprintln(w.out, "(empty schema)")
	case editor.StateError:
		fmt.Fprintf(w.out, "error: %v\n", st.Err)
	case editor.StateReady:
		fmt.Fprintf(w.out, "%s\n", w.session.Type().FullName())
		if err := printForm(w.out, w.session.Form()); err != nil {
			w.logger.WithError(err).Warn("failed to print form")
		}
	}
	for _, warning := range st.Warnings {
		fmt.Fprintf(w.out, "warning: %s\n", warning)
	}
	return true
}

func (w *schemaWatcher) run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so editors that replace the file are still seen.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}
	if err := w.trigger(ctx); err != nil {
		return err
	}

	w.logger.WithField("path", w.path).Info("watching schema")

	for {
		select {
		case <-ctx.Done():
			return nil
		case r := <-w.results:
			w.apply(r)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.logger.WithField("op", event.Op.String()).Debug("schema changed")
			if err := w.trigger(ctx); err != nil {
				w.logger.WithError(err).Warn("reload failed")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("watcher error")
		}
	}
}
