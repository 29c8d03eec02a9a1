package session

import (
	"context"

	"github.com/matzehuels/pepedot/pkg/annotation"
	perrors "github.com/matzehuels/pepedot/pkg/errors"
	"github.com/matzehuels/pepedot/pkg/viewport"
)

// fallbackPage is the natural size assumed for pages that cannot be
// measured (A4 portrait, in points).
var fallbackPage = viewport.Size{W: 595, H: 842}

// AddDocument appends a drawing to the open project. The page count comes
// from the renderer; unreadable data is an UNSUPPORTED_DOCUMENT error. The
// first document of a project becomes the active one.
func (s *Session) AddDocument(ctx context.Context, name string, data []byte) (int, error) {
	if err := s.requireProject(); err != nil {
		return 0, err
	}
	if err := perrors.ValidateDocumentName(name); err != nil {
		return 0, s.done(ctx, "add-document", err)
	}
	pages, err := s.renderer.PageCount(data)
	if err != nil {
		if perrors.GetCode(err) == "" {
			err = perrors.Wrap(perrors.ErrCodeUnsupportedDocument, err, "cannot read %q", name)
		}
		return 0, s.done(ctx, "add-document", err)
	}

	idx, err := s.store.AddDocument(annotation.Document{Name: name, Data: data, PageCount: pages})
	if err != nil {
		return 0, s.done(ctx, "add-document", err)
	}
	doc, _ := s.store.Document(idx)
	s.putBlob(ctx, s.store.Name(), doc)
	if len(s.store.Documents()) == 1 {
		_ = s.store.SetView(idx, 1)
		s.fit()
	}
	s.logger.Info("document added", "project", s.store.Name(), "document", name, "pages", pages)
	return idx, s.done(ctx, "add-document", nil)
}

// RenameDocument changes a document's display name.
func (s *Session) RenameDocument(ctx context.Context, index int, name string) error {
	if err := s.requireProject(); err != nil {
		return err
	}
	err := perrors.ValidateDocumentName(name)
	if err == nil {
		err = s.store.RenameDocument(index, name)
	}
	return s.done(ctx, "rename-document", err)
}

// RemoveDocument deletes a document and its points. c.Typed must equal the
// document's name. The only document of a project cannot be removed.
func (s *Session) RemoveDocument(ctx context.Context, index int, c Confirm) error {
	if err := s.requireProject(); err != nil {
		return err
	}
	doc, ok := s.store.Document(index)
	if !ok {
		return s.done(ctx, "remove-document", perrors.New(perrors.ErrCodeNotFound, "document %d does not exist", index))
	}
	if err := checkConfirm(c, doc.Name); err != nil {
		return s.done(ctx, "remove-document", err)
	}
	if err := s.store.RemoveDocument(index); err != nil {
		return s.done(ctx, "remove-document", err)
	}
	s.deleteBlob(ctx, s.store.Name(), doc.ID)
	s.fit()
	s.logger.Info("document removed", "project", s.store.Name(), "document", doc.Name)
	return s.done(ctx, "remove-document", nil)
}

// ShowPage switches the view to a page and fits it to the frame.
func (s *Session) ShowPage(ctx context.Context, documentIndex, page int) error {
	if err := s.requireProject(); err != nil {
		return err
	}
	if err := s.store.SetView(documentIndex, page); err != nil {
		return s.done(ctx, "show-page", err)
	}
	s.gestures.Cancel()
	s.fit()
	return s.done(ctx, "show-page", nil)
}

// NextPage moves to the following page of the active document, if any.
func (s *Session) NextPage(ctx context.Context) error { return s.stepPage(ctx, 1) }

// PrevPage moves to the preceding page of the active document, if any.
func (s *Session) PrevPage(ctx context.Context) error { return s.stepPage(ctx, -1) }

func (s *Session) stepPage(ctx context.Context, delta int) error {
	if err := s.requireProject(); err != nil {
		return err
	}
	doc, page := s.store.View()
	d, ok := s.store.Document(doc)
	if !ok {
		return nil
	}
	next := page + delta
	if next < 1 || next > d.PageCount {
		return nil
	}
	return s.ShowPage(ctx, doc, next)
}

// Resize reports a new frame, for example after a rotation, and refits.
func (s *Session) Resize(frame viewport.Rect) {
	s.vp.Frame = frame
	s.fit()
}

// PageSize returns the natural size of the active page.
func (s *Session) PageSize() viewport.Size {
	if s.store == nil {
		return viewport.Size{}
	}
	doc, page := s.store.View()
	d, ok := s.store.Document(doc)
	if !ok {
		return viewport.Size{}
	}
	return s.measure(d, page)
}

// fit fits the active page into the frame. Without a document the viewport
// has no page and every tap is rejected.
func (s *Session) fit() {
	s.vp.Fit(s.PageSize())
}

// recountPages replaces stored page counts with the renderer's. Snapshots
// and archives may carry counts that were guessed from point pages.
func (s *Session) recountPages() {
	for i, d := range s.store.Documents() {
		if len(d.Data) == 0 {
			continue
		}
		pages, err := s.renderer.PageCount(d.Data)
		if err != nil {
			s.logger.Debug("page count unavailable", "document", d.Name, "err", err)
			continue
		}
		if pages == d.PageCount {
			continue
		}
		if err := s.store.SetPageCount(i, pages); err != nil {
			s.logger.Warn("page count kept", "document", d.Name, "stored", d.PageCount, "rendered", pages, "err", err)
			continue
		}
		s.logger.Debug("page count updated", "document", d.Name, "from", d.PageCount, "to", pages)
	}
}

func (s *Session) measure(d annotation.Document, page int) viewport.Size {
	if len(d.Data) == 0 {
		return fallbackPage
	}
	size, err := s.renderer.PageSize(d.Data, page)
	if err != nil {
		s.logger.Debug("page size unavailable", "document", d.Name, "page", page, "err", err)
		return fallbackPage
	}
	return viewport.Size{W: size.W, H: size.H}
}
