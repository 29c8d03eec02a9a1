package session

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/matzehuels/pepedot/pkg/annotation"
	"github.com/matzehuels/pepedot/pkg/cache"
	perrors "github.com/matzehuels/pepedot/pkg/errors"
	"github.com/matzehuels/pepedot/pkg/observability"
)

// snapshotVersion is written into every autosave value.
const snapshotVersion = 1

// snapshot is the autosave value of one project. It carries metadata only;
// document binaries live in the blob store and in exported archives.
type snapshot struct {
	Version   int                   `json:"version"`
	Name      string                `json:"name"`
	SavedAt   time.Time             `json:"savedAt"`
	Documents []annotation.Document `json:"documents"`
	Points    []annotation.Point    `json:"points"`
	Seq       int64                 `json:"seq"`
	Active    int                   `json:"active"`
	Page      int                   `json:"page"`
	PageMap   map[int]int           `json:"pageMap"`
}

func newSnapshot(p *annotation.Project, at time.Time) snapshot {
	return snapshot{
		Version:   snapshotVersion,
		Name:      p.Name,
		SavedAt:   at.UTC(),
		Documents: p.Documents,
		Points:    p.Points,
		Seq:       p.Seq,
		Active:    p.Active,
		Page:      p.Page,
		PageMap:   p.PageMap,
	}
}

func (s snapshot) project() *annotation.Project {
	return &annotation.Project{
		Name:      s.Name,
		Documents: s.Documents,
		Points:    s.Points,
		Seq:       s.Seq,
		Active:    s.Active,
		Page:      s.Page,
		PageMap:   s.PageMap,
	}
}

// Projects returns the registered project names in creation order.
func (s *Session) Projects() []string { return slices.Clone(s.registry) }

// HasProject reports whether name is registered.
func (s *Session) HasProject(name string) bool { return slices.Contains(s.registry, name) }

// CreateProject registers a new, empty project and opens it.
func (s *Session) CreateProject(ctx context.Context, name string) error {
	if err := s.checkNewName(name); err != nil {
		return s.done(ctx, "create-project", err)
	}
	if len(s.registry) >= s.limits.MaxProjects {
		return s.done(ctx, "create-project",
			perrors.New(perrors.ErrCodeProjectLimit, "project limit of %d reached", s.limits.MaxProjects))
	}

	s.registry = append(s.registry, name)
	s.saveRegistry(ctx)
	s.swap(&annotation.Project{Name: name})
	s.logger.Info("project created", "project", name)
	return s.done(ctx, "create-project", nil)
}

// Open loads a registered project from the gateway and makes it current.
// Document binaries are restored from the blob store when available.
func (s *Session) Open(ctx context.Context, name string) error {
	if !s.HasProject(name) {
		return perrors.New(perrors.ErrCodeNotFound, "project %q does not exist", name)
	}
	p, err := s.load(ctx, name)
	if err != nil {
		return err
	}
	s.swap(p)
	s.logger.Debug("project opened", "project", name, "documents", len(p.Documents), "points", len(p.Points))
	return nil
}

// RenameProject renames the open project and migrates its gateway key.
func (s *Session) RenameProject(ctx context.Context, name string) error {
	if err := s.requireProject(); err != nil {
		return err
	}
	old := s.store.Name()
	if name == old {
		return nil
	}
	if err := s.checkNewName(name); err != nil {
		return s.done(ctx, "rename-project", err)
	}
	if err := s.store.SetName(name); err != nil {
		return s.done(ctx, "rename-project", err)
	}
	s.registry[slices.Index(s.registry, old)] = name
	s.saveRegistry(ctx)
	s.moveBlobs(ctx, old, name, s.store.Documents())
	s.done(ctx, "rename-project", nil)
	if err := s.cache.Delete(ctx, s.keyer.ProjectKey(old)); err != nil {
		s.warn("could not remove old snapshot", err)
	}
	s.logger.Info("project renamed", "from", old, "to", name)
	return nil
}

// DeleteProject removes a project, its snapshot and its document binaries.
// c.Typed must equal the project name.
func (s *Session) DeleteProject(ctx context.Context, name string, c Confirm) error {
	if !s.HasProject(name) {
		return perrors.New(perrors.ErrCodeNotFound, "project %q does not exist", name)
	}
	if err := checkConfirm(c, name); err != nil {
		observability.Session().OnRejected(ctx, name, "delete-project", string(perrors.GetCode(err)))
		return err
	}

	var docs []annotation.Document
	if s.store != nil && s.store.Name() == name {
		docs = s.store.Documents()
		s.store = nil
		s.staged = nil
	} else if p, err := s.load(ctx, name); err == nil {
		docs = p.Documents
	}
	for _, d := range docs {
		s.deleteBlob(ctx, name, d.ID)
	}
	if err := s.cache.Delete(ctx, s.keyer.ProjectKey(name)); err != nil {
		s.warn("could not remove snapshot", err)
	}
	s.registry = slices.DeleteFunc(s.registry, func(n string) bool { return n == name })
	s.saveRegistry(ctx)

	observability.Session().OnMutation(ctx, name, "delete-project")
	s.logger.Info("project deleted", "project", name, "documents", len(docs))
	return nil
}

func (s *Session) checkNewName(name string) error {
	if err := perrors.ValidateProjectName(name); err != nil {
		return err
	}
	if s.HasProject(name) {
		return perrors.New(perrors.ErrCodeDuplicateName, "project %q already exists", name)
	}
	return nil
}

// swap replaces the open project and resets the view onto its active page.
func (s *Session) swap(p *annotation.Project) {
	s.store = annotation.NewStore(p, s.limits.Store, annotation.WithClock(s.now))
	s.staged = nil
	s.gestures.Cancel()
	s.recountPages()
	s.fit()
}

// load reads a snapshot and reattaches document binaries. A registered
// project without a snapshot opens empty.
func (s *Session) load(ctx context.Context, name string) (*annotation.Project, error) {
	raw, ok, err := s.cache.Get(ctx, s.keyer.ProjectKey(name))
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeIO, err, "read project %q", name)
	}
	if !ok {
		s.logger.Warn("no snapshot found, opening empty project", "project", name)
		return &annotation.Project{Name: name}, nil
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeIO, err, "decode project %q", name)
	}
	p := snap.project()
	p.Name = name
	for i := range p.Documents {
		p.Documents[i].Data = s.getBlob(ctx, name, p.Documents[i])
	}
	return p, nil
}

// autosave writes the full metadata snapshot of the open project.
func (s *Session) autosave(ctx context.Context) {
	if s.store == nil {
		return
	}
	p := s.store.Project()
	data, err := json.Marshal(newSnapshot(p, s.now()))
	if err == nil {
		err = s.cache.Set(ctx, s.keyer.ProjectKey(p.Name), data)
	}
	observability.Session().OnAutosave(ctx, p.Name, len(data), err)
	if err != nil {
		s.warn("autosave failed", err)
		return
	}
	s.logger.Debug("autosaved", "project", p.Name, "points", len(p.Points), "bytes", len(data))
}

func (s *Session) loadRegistry(ctx context.Context) error {
	raw, ok, err := s.cache.Get(ctx, s.keyer.IndexKey())
	if err != nil || !ok {
		return err
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return fmt.Errorf("decode project index: %w", err)
	}
	s.registry = names
	return nil
}

func (s *Session) saveRegistry(ctx context.Context) {
	data, err := json.Marshal(s.registry)
	if err == nil {
		err = s.cache.Set(ctx, s.keyer.IndexKey(), data)
	}
	if err != nil {
		s.warn("could not save project index", err)
	}
}

func (s *Session) putBlob(ctx context.Context, project string, d annotation.Document) {
	if s.blobs == nil || len(d.Data) == 0 {
		return
	}
	if err := s.blobs.Put(ctx, cache.BlobKey(project, d.ID), d.Data); err != nil {
		s.warn("could not store document binary", err)
	}
}

func (s *Session) getBlob(ctx context.Context, project string, d annotation.Document) []byte {
	if s.blobs == nil {
		return nil
	}
	data, err := s.blobs.Get(ctx, cache.BlobKey(project, d.ID))
	if err != nil {
		s.logger.Warn("document binary unavailable", "document", d.Name, "err", err)
		return nil
	}
	return data
}

func (s *Session) deleteBlob(ctx context.Context, project, id string) {
	if s.blobs == nil {
		return
	}
	if err := s.blobs.Delete(ctx, cache.BlobKey(project, id)); err != nil {
		s.logger.Warn("could not delete document binary", "id", id, "err", err)
	}
}

// moveBlobs rekeys the binaries of docs from one project name to another.
func (s *Session) moveBlobs(ctx context.Context, from, to string, docs []annotation.Document) {
	if s.blobs == nil {
		return
	}
	for _, d := range docs {
		if err := s.blobs.Move(ctx, cache.BlobKey(from, d.ID), cache.BlobKey(to, d.ID)); err != nil {
			s.warn("could not move document binary", err)
		}
	}
}
