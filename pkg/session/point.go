package session

import (
	"context"
	"fmt"
	"io"

	"github.com/matzehuels/pepedot/pkg/annotation"
	perrors "github.com/matzehuels/pepedot/pkg/errors"
	"github.com/matzehuels/pepedot/pkg/photo"
	"github.com/matzehuels/pepedot/pkg/viewport"
)

// ===== Pointer input =====

// ToggleMode flips between pan and place mode.
func (s *Session) ToggleMode() viewport.Mode { return s.gestures.Toggle() }

// Mode returns the current gesture mode.
func (s *Session) Mode() viewport.Mode { return s.gestures.Mode }

// PointerDown forwards a pointer press to the gesture interpreter.
func (s *Session) PointerDown(id int, pos viewport.Vec) { s.gestures.PointerDown(id, pos) }

// PointerMove forwards pointer motion; drags pan and pinches zoom.
func (s *Session) PointerMove(id int, pos viewport.Vec) viewport.Action {
	return s.gestures.PointerMove(id, pos)
}

// PointerUp forwards a pointer release. A tap in place mode places a point
// with fields at the tapped position; the new point is returned. Other
// releases return nil.
func (s *Session) PointerUp(ctx context.Context, id int, pos viewport.Vec, fields annotation.Fields) (*annotation.Point, error) {
	act := s.gestures.PointerUp(id, pos)
	if act.Kind != viewport.ActionPlace {
		return nil, nil
	}
	pt, err := s.PlaceAt(ctx, act.At, fields)
	if err != nil {
		return nil, err
	}
	return &pt, nil
}

// Tap is a press and release at the same client position.
func (s *Session) Tap(ctx context.Context, pos viewport.Vec, fields annotation.Fields) (*annotation.Point, error) {
	s.gestures.PointerDown(0, pos)
	return s.PointerUp(ctx, 0, pos, fields)
}

// Wheel pans, or zooms at pos when modifier is held.
func (s *Session) Wheel(pos, delta viewport.Vec, modifier bool) viewport.Action {
	return s.gestures.Wheel(pos, delta, modifier)
}

// ===== Points =====

// PlaceAt places a point at a normalized position on the active page.
// Proximity is measured at the current zoom. Empty author initials take the
// session default, and a staged photo is attached if fields carry none.
func (s *Session) PlaceAt(ctx context.Context, at viewport.Vec, fields annotation.Fields) (annotation.Point, error) {
	if err := s.requireProject(); err != nil {
		return annotation.Point{}, err
	}
	if fields.AuthorInitials == "" {
		fields.AuthorInitials = s.initials
	}
	if fields.Photo == nil && s.staged != nil {
		fields.Photo = s.staged
	}

	doc, page := s.store.View()
	pt, err := s.store.Place(annotation.Placement{
		DocumentIndex: doc,
		Page:          page,
		X:             at.X,
		Y:             at.Y,
		Fields:        fields,
		Extent:        s.extent(),
	})
	if err != nil {
		return annotation.Point{}, s.done(ctx, "place", err)
	}
	if fields.Photo == s.staged {
		s.staged = nil
	}
	s.logger.Debug("point placed", "project", s.store.Name(), "id", pt.ID, "x", pt.X, "y", pt.Y)
	return pt, s.done(ctx, "place", nil)
}

// Crowded reports whether a tap at the client position would be refused
// for proximity at the current zoom. Positions off the page are not crowded.
func (s *Session) Crowded(pos viewport.Vec) bool {
	if s.store == nil {
		return false
	}
	at, err := s.vp.ScreenToNormalized(pos)
	if err != nil {
		return false
	}
	doc, page := s.store.View()
	return s.store.TooClose(doc, page, at.X, at.Y, s.extent())
}

func (s *Session) extent() annotation.Extent {
	ext := s.vp.Extent()
	return annotation.Extent{Width: ext.W, Height: ext.H}
}

// UpdatePoint applies a partial update.
func (s *Session) UpdatePoint(ctx context.Context, id int64, patch annotation.Patch) (annotation.Point, error) {
	if err := s.requireProject(); err != nil {
		return annotation.Point{}, err
	}
	pt, err := s.store.Update(id, patch)
	return pt, s.done(ctx, "update", err)
}

// RemovePoint deletes a point. c.Typed must equal the point's label.
func (s *Session) RemovePoint(ctx context.Context, id int64, c Confirm) error {
	if err := s.requireProject(); err != nil {
		return err
	}
	label, err := s.PointLabel(id)
	if err != nil {
		return s.done(ctx, "remove", err)
	}
	if err := checkConfirm(c, label); err != nil {
		return s.done(ctx, "remove", err)
	}
	return s.done(ctx, "remove", s.store.Remove(id))
}

// PointLabel is the name a user types to confirm deleting a point: its
// title, or "#<ordinal>" when the title is empty.
func (s *Session) PointLabel(id int64) (string, error) {
	pt, ok := s.store.Point(id)
	if !ok {
		return "", perrors.New(perrors.ErrCodeNotFound, "point %d does not exist", id)
	}
	if pt.Title != "" {
		return pt.Title, nil
	}
	ord, _ := s.store.Ordinal(id)
	return fmt.Sprintf("#%d", ord), nil
}

// ===== Photos =====

// AttachPhoto reads, recompresses and attaches a photo. A read failure is a
// PHOTO_READ error and leaves the point untouched.
func (s *Session) AttachPhoto(ctx context.Context, id int64, r io.Reader) error {
	if err := s.requireProject(); err != nil {
		return err
	}
	if _, ok := s.store.Point(id); !ok {
		return s.done(ctx, "attach-photo", perrors.New(perrors.ErrCodeNotFound, "point %d does not exist", id))
	}
	ph, err := photo.Ingest(r, s.photo)
	if err != nil {
		return s.done(ctx, "attach-photo", err)
	}
	_, err = s.store.Update(id, annotation.Patch{Photo: ph})
	return s.done(ctx, "attach-photo", err)
}

// RemovePhoto detaches the photo of a point.
func (s *Session) RemovePhoto(ctx context.Context, id int64) error {
	if err := s.requireProject(); err != nil {
		return err
	}
	_, err := s.store.Update(id, annotation.Patch{ClearPhoto: true})
	return s.done(ctx, "remove-photo", err)
}

// StagePhoto ingests a photo taken before its point exists. The next
// placed point picks it up.
func (s *Session) StagePhoto(r io.Reader) error {
	ph, err := photo.Ingest(r, s.photo)
	if err != nil {
		return err
	}
	s.staged = ph
	return nil
}

// StagedPhoto returns the photo waiting for the next placement, if any.
func (s *Session) StagedPhoto() *annotation.Photo { return s.staged }

// DiscardStagedPhoto drops the staged photo.
func (s *Session) DiscardStagedPhoto() { s.staged = nil }
