// Package cli implements the pepedot command-line interface.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pepedot/pkg/buildinfo"
	"github.com/matzehuels/pepedot/pkg/cache"
	"github.com/matzehuels/pepedot/pkg/config"
	perrors "github.com/matzehuels/pepedot/pkg/errors"
	"github.com/matzehuels/pepedot/pkg/observability"
	"github.com/matzehuels/pepedot/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "pepedot"

	// currentFile remembers the last opened project between invocations.
	currentFile = "current"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	project    string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "pepedot places numbered, dated points on construction drawings",
		Long: `pepedot keeps a set of projects, each holding multi-page drawings and the
points placed on them. Projects are autosaved to a local store and can be
exported to and imported from self-contained zip archives.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.Logger.GetLevel() <= log.DebugLevel {
				observability.SetSessionHooks(&logHooks{logger: c.Logger})
				observability.SetArchiveHooks(&logHooks{logger: c.Logger})
				observability.SetCacheHooks(&logHooks{logger: c.Logger})
			}
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/pepedot/config.toml)")
	root.PersistentFlags().StringVarP(&c.project, "project", "p", "", "project to operate on (default: last opened)")
	_ = root.RegisterFlagCompletionFunc("project", c.completeProjects)

	root.AddCommand(c.projectCommand())
	root.AddCommand(c.documentCommand())
	root.AddCommand(c.pointCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.diffCommand())
	root.AddCommand(c.backupsCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.initialsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Workspace
// =============================================================================

// workspace bundles a session with the settings and sinks it was built from.
type workspace struct {
	cfg   config.Config
	sess  *session.Session
	cache *cache.QuotaCache
	sink  *session.DirSink
}

// Close releases the gateway.
func (w *workspace) Close() error { return w.sess.Close() }

func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openWorkspace builds a session on the configured gateway. No project is
// opened yet.
func (c *CLI) openWorkspace(ctx context.Context) (*workspace, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	qc, err := cache.Open(ctx, cfg.CacheOptions())
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeIO, err, "open %s store", cfg.Storage.Backend)
	}
	blobs, err := cache.NewBlobStore(cfg.BlobDir())
	if err != nil {
		qc.Close()
		return nil, perrors.Wrap(perrors.ErrCodeIO, err, "open document store")
	}
	sink, err := newBackupSink(cfg)
	if err != nil {
		qc.Close()
		return nil, err
	}

	sess, err := session.New(ctx, session.Options{
		Cache:   qc,
		Keyer:   cfg.Keyer(),
		Blobs:   blobs,
		Backups: sink,
		Logger:  c.Logger,
		Limits:  cfg.SessionLimits(),
		Photo:   cfg.PhotoOptions(),
	})
	if err != nil {
		qc.Close()
		return nil, err
	}
	if cfg.User.Initials != "" && sess.Initials() == "" {
		_ = sess.SetInitials(ctx, cfg.User.Initials)
	}
	if w := sess.Warning(); w != nil {
		printWarning("%s", perrors.UserMessage(w))
	}
	return &workspace{cfg: cfg, sess: sess, cache: qc, sink: sink}, nil
}

func newBackupSink(cfg config.Config) (*session.DirSink, error) {
	sink, err := session.NewDirSink(cfg.Archive.BackupDir)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeIO, err, "open backup dir")
	}
	return sink, nil
}

// openProject builds a workspace and opens the selected project: the
// --project flag, else the last opened one, else the only one.
func (c *CLI) openProject(ctx context.Context) (*workspace, error) {
	ws, err := c.openWorkspace(ctx)
	if err != nil {
		return nil, err
	}
	name, err := c.selectProject(ws)
	if err != nil {
		ws.Close()
		return nil, err
	}
	if err := ws.sess.Open(ctx, name); err != nil {
		ws.Close()
		return nil, err
	}
	return ws, nil
}

func (c *CLI) selectProject(ws *workspace) (string, error) {
	if c.project != "" {
		return c.project, nil
	}
	if name := readCurrent(ws.cfg); name != "" && ws.sess.HasProject(name) {
		return name, nil
	}
	projects := ws.sess.Projects()
	switch len(projects) {
	case 0:
		return "", perrors.New(perrors.ErrCodeNotFound, "no projects yet; create one with %q", "pepedot project create NAME")
	case 1:
		return projects[0], nil
	default:
		return "", perrors.New(perrors.ErrCodeNotFound, "several projects exist; pick one with --project or %q", "pepedot project open NAME")
	}
}

// =============================================================================
// Current Project
// =============================================================================

// currentPath is kept per profile so profiles do not switch each other's
// project.
func currentPath(cfg config.Config) string {
	if cfg.Profile != "" {
		return filepath.Join(cfg.Storage.Dir, currentFile+"."+cfg.Profile)
	}
	return filepath.Join(cfg.Storage.Dir, currentFile)
}

func readCurrent(cfg config.Config) string {
	data, err := os.ReadFile(currentPath(cfg))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func writeCurrent(cfg config.Config, name string) error {
	path := currentPath(cfg)
	if name == "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}
	if err := os.MkdirAll(cfg.Storage.Dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(name+"\n"), 0o600)
}

// =============================================================================
// Confirmation
// =============================================================================

// confirmFlags are shared by every destructive command.
type confirmFlags struct {
	typed string
	yes   bool
}

func (f *confirmFlags) register(cmd *cobra.Command, what string) {
	cmd.Flags().StringVar(&f.typed, "confirm", "", "type the "+what+" name to confirm")
	cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "accept the deletion")
}

// resolve returns the confirmation answer. Without --confirm the name is
// prompted for on stdin, and typing it counts as acceptance.
func (f *confirmFlags) resolve(cmd *cobra.Command, target string) session.Confirm {
	if f.typed != "" {
		return session.Confirm{Typed: f.typed, Accepted: f.yes}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Type %s to confirm: ", StyleHighlight.Render(target))
	line, _ := readLine(cmd.InOrStdin())
	return session.Confirm{Typed: line, Accepted: line != ""}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// =============================================================================
// Hooks
// =============================================================================

// logHooks logs store, archive and cache events at debug level.
type logHooks struct {
	observability.NoopSessionHooks
	observability.NoopArchiveHooks
	observability.NoopCacheHooks
	logger *log.Logger
}

func (h *logHooks) OnMutation(_ context.Context, project, op string) {
	h.logger.Debug("mutation", "project", project, "op", op)
}

func (h *logHooks) OnRejected(_ context.Context, project, op, code string) {
	h.logger.Debug("rejected", "project", project, "op", op, "code", code)
}

func (h *logHooks) OnAutosave(_ context.Context, project string, size int, err error) {
	h.logger.Debug("autosave", "project", project, "bytes", size, "err", err)
}

func (h *logHooks) OnExportComplete(_ context.Context, project string, size int, d time.Duration, err error) {
	h.logger.Debug("archive built", "project", project, "bytes", size, "took", d.Round(time.Millisecond), "err", err)
}

func (h *logHooks) OnQuotaExceeded(_ context.Context, backend string, size int) {
	h.logger.Debug("quota exceeded", "backend", backend, "bytes", size)
}
