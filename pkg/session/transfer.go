package session

import (
	"context"
	"io"

	"github.com/matzehuels/pepedot/pkg/annotation"
	"github.com/matzehuels/pepedot/pkg/archive"
	perrors "github.com/matzehuels/pepedot/pkg/errors"
)

// Export writes the open project as an archive. Caller options are applied
// after the session defaults (clock, logger, initials).
func (s *Session) Export(ctx context.Context, w io.Writer, opts ...archive.Option) error {
	if err := s.requireProject(); err != nil {
		return err
	}
	p := s.store.Project()
	if err := archive.Write(ctx, w, p, s.archiveOptions(opts)...); err != nil {
		return err
	}
	s.logger.Info("project exported", "project", p.Name, "points", len(p.Points))
	return nil
}

// Import replaces or adds the project contained in an archive and opens
// it. The archive is parsed completely first; a malformed archive returns
// an INVALID_ARCHIVE error and changes nothing, as does one over the
// project or document limit. Before the swap the open
// project, and the project being replaced if it is a different one, are
// written to the backup sink. A failed backup aborts the import.
func (s *Session) Import(ctx context.Context, data []byte) (string, error) {
	cand, m, err := archive.Deserialize(data, archive.WithLogger(s.logger))
	if err != nil {
		return "", s.done(ctx, "import", err)
	}
	name := cand.Name
	replacing := s.HasProject(name)
	if !replacing && len(s.registry) >= s.limits.MaxProjects {
		return "", s.done(ctx, "import",
			perrors.New(perrors.ErrCodeProjectLimit, "project limit of %d reached", s.limits.MaxProjects))
	}
	if n, limit := len(cand.Documents), s.limits.Store.MaxDocuments; n > limit {
		return "", s.done(ctx, "import",
			perrors.New(perrors.ErrCodeDocumentLimit, "archive holds %d documents, the limit is %d", n, limit))
	}

	var oldDocs []annotation.Document
	if s.store != nil {
		if err := s.backup(ctx, s.store.Project()); err != nil {
			return "", s.done(ctx, "import", err)
		}
		if s.store.Name() == name {
			oldDocs = s.store.Documents()
		}
	}
	if replacing && s.projectName() != name {
		old, err := s.load(ctx, name)
		if err != nil {
			return "", s.done(ctx, "import", err)
		}
		if err := s.backup(ctx, old); err != nil {
			return "", s.done(ctx, "import", err)
		}
		oldDocs = old.Documents
	}

	if !replacing {
		s.registry = append(s.registry, name)
		s.saveRegistry(ctx)
	}
	keep := make(map[string]struct{}, len(cand.Documents))
	for _, d := range cand.Documents {
		keep[d.ID] = struct{}{}
		s.putBlob(ctx, name, d)
	}
	for _, d := range oldDocs {
		if _, ok := keep[d.ID]; !ok {
			s.deleteBlob(ctx, name, d.ID)
		}
	}
	s.swap(cand)

	s.logger.Info("project imported", "project", name, "format", m.Format,
		"documents", len(cand.Documents), "points", len(cand.Points), "replaced", replacing)
	return name, s.done(ctx, "import", nil)
}

// backup serializes p into the backup sink.
func (s *Session) backup(ctx context.Context, p *annotation.Project) error {
	data, err := archive.Serialize(ctx, p, s.archiveOptions(nil)...)
	if err != nil {
		return perrors.Wrap(perrors.ErrCodeIO, err, "backup %q before import", p.Name)
	}
	name := archive.BackupName(p.Name, s.now())
	if err := s.backups.SaveBackup(ctx, name, data); err != nil {
		return perrors.Wrap(perrors.ErrCodeIO, err, "backup %q before import", p.Name)
	}
	s.logger.Info("backup written", "project", p.Name, "file", name, "bytes", len(data))
	return nil
}

func (s *Session) archiveOptions(extra []archive.Option) []archive.Option {
	opts := []archive.Option{
		archive.WithClock(s.now),
		archive.WithLogger(s.logger),
		archive.WithAuthorInitials(s.initials),
	}
	return append(opts, extra...)
}
