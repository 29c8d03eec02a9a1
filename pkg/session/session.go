// Package session is the controller that owns all mutable state of one
// interactive user: the registry of projects, the open project's store, its
// viewport and gesture interpreter, and the staged photo.
//
// Every command validates, mutates through the annotation store and then
// autosaves a metadata snapshot through the persistence gateway. Autosave
// failures never fail the command; they set [Session.Warning] and the
// in-memory state stays authoritative.
//
// # Usage
//
//	s, err := session.New(ctx, session.Options{
//	    Cache:   gateway,
//	    Blobs:   blobs,
//	    Backups: session.NewDirSink(backupDir),
//	    Logger:  logger,
//	})
//	if err := s.CreateProject(ctx, "RN1"); err != nil {
//	    return err
//	}
//	s.AddDocument(ctx, "plan.pdf", data)
//	s.PlaceAt(ctx, viewport.Vec{X: 0.3, Y: 0.4}, annotation.Fields{Title: "T1"})
//
// A Session is not safe for concurrent use. The single event loop that
// drives it serializes all mutations.
package session

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pepedot/pkg/annotation"
	"github.com/matzehuels/pepedot/pkg/cache"
	perrors "github.com/matzehuels/pepedot/pkg/errors"
	"github.com/matzehuels/pepedot/pkg/observability"
	"github.com/matzehuels/pepedot/pkg/photo"
	"github.com/matzehuels/pepedot/pkg/render"
	"github.com/matzehuels/pepedot/pkg/viewport"
)

// DefaultMaxProjects bounds the number of projects in the registry.
const DefaultMaxProjects = 20

// DefaultFrame is the viewport frame used until the caller reports one.
var DefaultFrame = viewport.Rect{W: 1024, H: 768}

// Limits are the configurable capacity rules.
type Limits struct {
	MaxProjects int
	Store       annotation.Limits
	MinZoom     float64
	MaxZoom     float64
}

// DefaultLimits returns the stock limits.
func DefaultLimits() Limits {
	return Limits{
		MaxProjects: DefaultMaxProjects,
		Store:       annotation.DefaultLimits(),
		MinZoom:     viewport.DefaultMinZoom,
		MaxZoom:     viewport.DefaultMaxZoom,
	}
}

// Options configures a Session. Zero values select sensible defaults.
type Options struct {
	// Cache is the persistence gateway for snapshots. Defaults to a NullCache.
	Cache cache.Cache
	// Keyer builds gateway keys. Defaults to the default namespace.
	Keyer cache.Keyer
	// Blobs keeps document binaries between runs. Optional.
	Blobs *cache.BlobStore
	// Backups receives the safety archive written before every import.
	// Defaults to an in-memory sink.
	Backups BackupSink
	// Renderer reports page counts and sizes. Defaults to render.Auto.
	Renderer render.Renderer

	Logger *log.Logger
	Limits Limits
	Photo  photo.Options
	Frame  viewport.Rect
	Clock  func() time.Time
}

// Confirm is the answer to a destructive-operation prompt. Typed must equal
// the target's name and Accepted must be true.
type Confirm struct {
	Typed    string
	Accepted bool
}

// Session is the controller for one user.
type Session struct {
	cache    cache.Cache
	keyer    cache.Keyer
	blobs    *cache.BlobStore
	backups  BackupSink
	renderer render.Renderer
	logger   *log.Logger
	limits   Limits
	photo    photo.Options
	now      func() time.Time

	registry []string
	initials string

	store    *annotation.Store
	vp       *viewport.Viewport
	gestures *viewport.Gestures
	staged   *annotation.Photo
	warning  error
}

// New creates a session and loads the project registry and the user's
// initials from the gateway. Read failures are reported as a warning.
func New(ctx context.Context, opts Options) (*Session, error) {
	s := &Session{
		cache:    opts.Cache,
		keyer:    opts.Keyer,
		blobs:    opts.Blobs,
		backups:  opts.Backups,
		renderer: opts.Renderer,
		logger:   opts.Logger,
		limits:   opts.Limits,
		photo:    opts.Photo,
		now:      opts.Clock,
	}
	if s.cache == nil {
		s.cache = cache.NewNullCache()
	}
	if s.keyer == nil {
		s.keyer = cache.NewDefaultKeyer("")
	}
	if s.backups == nil {
		s.backups = NewMemorySink()
	}
	if s.renderer == nil {
		s.renderer = render.Auto{}
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.photo == (photo.Options{}) {
		s.photo = photo.DefaultOptions()
	}
	def := DefaultLimits()
	if s.limits.MaxProjects <= 0 {
		s.limits.MaxProjects = def.MaxProjects
	}
	if s.limits.MinZoom <= 0 {
		s.limits.MinZoom = def.MinZoom
	}
	if s.limits.MaxZoom < s.limits.MinZoom {
		s.limits.MaxZoom = def.MaxZoom
	}
	if s.limits.Store.MaxDocuments <= 0 {
		s.limits.Store.MaxDocuments = def.Store.MaxDocuments
	}
	if s.limits.Store.ProximityPx <= 0 {
		s.limits.Store.ProximityPx = def.Store.ProximityPx
	}

	frame := opts.Frame
	if frame.Size().Empty() {
		frame = DefaultFrame
	}
	s.vp = viewport.New(frame)
	s.vp.MinZoom, s.vp.MaxZoom = s.limits.MinZoom, s.limits.MaxZoom
	s.gestures = viewport.NewGestures(s.vp)

	if err := s.loadRegistry(ctx); err != nil {
		s.warn("could not read project index", err)
	}
	if data, ok, err := s.cache.Get(ctx, s.keyer.InitialsKey()); err != nil {
		s.warn("could not read initials", err)
	} else if ok {
		s.initials = string(data)
	}
	return s, nil
}

// Limits returns the active limits.
func (s *Session) Limits() Limits { return s.limits }

// Store returns the open project's store, or nil when none is open.
func (s *Session) Store() *annotation.Store { return s.store }

// Viewport returns the viewport of the open page.
func (s *Session) Viewport() *viewport.Viewport { return s.vp }

// Gestures returns the gesture interpreter driving the viewport.
func (s *Session) Gestures() *viewport.Gestures { return s.gestures }

// Warning returns the last non-fatal failure, such as an autosave that
// exceeded the storage quota.
func (s *Session) Warning() error { return s.warning }

// ClearWarning dismisses the current warning.
func (s *Session) ClearWarning() { s.warning = nil }

// Initials returns the default author initials for new points.
func (s *Session) Initials() string { return s.initials }

// SetInitials stores the default author initials.
func (s *Session) SetInitials(ctx context.Context, initials string) error {
	s.initials = initials
	if err := s.cache.Set(ctx, s.keyer.InitialsKey(), []byte(initials)); err != nil {
		s.warn("could not save initials", err)
	}
	return nil
}

// Close releases the gateway.
func (s *Session) Close() error { return s.cache.Close() }

func (s *Session) requireProject() error {
	if s.store == nil {
		return perrors.New(perrors.ErrCodeNotFound, "no project is open")
	}
	return nil
}

func (s *Session) projectName() string {
	if s.store == nil {
		return ""
	}
	return s.store.Name()
}

func (s *Session) warn(msg string, err error) {
	s.warning = err
	s.logger.Warn(msg, "project", s.projectName(), "err", err)
}

// done reports the outcome of a command to the hooks and, on success,
// autosaves.
func (s *Session) done(ctx context.Context, op string, err error) error {
	name := s.projectName()
	if err != nil {
		observability.Session().OnRejected(ctx, name, op, string(perrors.GetCode(err)))
		s.logger.Debug("rejected", "op", op, "project", name, "err", err)
		return err
	}
	observability.Session().OnMutation(ctx, name, op)
	s.autosave(ctx)
	return nil
}

func checkConfirm(c Confirm, target string) error {
	if !c.Accepted {
		return perrors.New(perrors.ErrCodeConfirmation, "not confirmed")
	}
	if c.Typed != target {
		return perrors.New(perrors.ErrCodeConfirmation, "typed name %q does not match %q", c.Typed, target)
	}
	return nil
}
