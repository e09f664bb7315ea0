package state

import (
	"fmt"

	"encrypted-notes/internal/domain"
	apperrors "encrypted-notes/internal/errors"
	"encrypted-notes/internal/ids"
	"encrypted-notes/internal/operation"
)

// ApplyOperation folds one operation into the State. Operations must arrive
// in causal order. Every check runs before the first write, so a rejected
// operation leaves the State untouched.
//
// Narrow field updates whose target is not present are silent no-ops. So
// is a chunk whose file is not present.
func (s *State) ApplyOperation(op operation.Operation) error {
	ctx, action := op.Consume()
	if action == nil {
		return apperrors.InvalidOperation("operation has no action")
	}

	switch action.Scope() {
	case operation.ScopeUser:
		if ctx.Space != nil {
			return apperrors.InvalidOperation(fmt.Sprintf("%s applied with a space context", action.Kind()))
		}
		return s.applyUser(action)
	case operation.ScopeSpace:
		if ctx.Space == nil {
			return apperrors.InvalidOperation(fmt.Sprintf("%s applied without a space context", action.Kind()))
		}
		return s.applySpaceScoped(*ctx.Space, ctx, action)
	}
	return unsupported(action)
}

func unsupported(action operation.Action) error {
	return apperrors.InvalidOperation(fmt.Sprintf("unsupported action %s", action.Kind()))
}

func need[T any](id *T, field string) (T, error) {
	if id == nil {
		var zero T
		return zero, apperrors.MissingContext(field)
	}
	return *id, nil
}

// matches reports whether an optional context id agrees with a payload id.
func matches[T comparable](ctxID *T, payloadID T) bool {
	return ctxID == nil || *ctxID == payloadID
}

func wrongSpace(kind string) error {
	return apperrors.InvalidOperation(kind + " belongs to another space")
}

func (s *State) applyUser(action operation.Action) error {
	switch a := action.(type) {
	case operation.UserSetSettingsAction:
		s.settings = domain.UserSettings{DefaultSpace: clonePtr(a.Settings.DefaultSpace)}
	case operation.UserSetSettingsDefaultSpaceAction:
		s.settings.DefaultSpace = clonePtr(a.Space)
	default:
		return unsupported(action)
	}
	return nil
}

func (s *State) applySpaceScoped(space ids.SpaceID, ctx operation.Context, action operation.Action) error {
	switch a := action.(type) {
	case operation.FileSetAction,
		operation.FileSetChunkAction,
		operation.FileSetNameAction,
		operation.FileUnsetAction,
		operation.FileUnsetChunkAction:
		return s.applyFile(space, ctx, a)
	case operation.NoteSetAction,
		operation.NoteSetBodySectionAction,
		operation.NoteSetBodySectionIndentAction,
		operation.NoteSetBodySectionOrderAction,
		operation.NoteSetDeletedAction,
		operation.NoteSetTagAction,
		operation.NoteSetTitleAction,
		operation.NoteUnsetAction,
		operation.NoteUnsetBodySectionAction,
		operation.NoteUnsetTagAction:
		return s.applyNote(space, ctx, a)
	case operation.PageSetAction,
		operation.PageSetDeletedAction,
		operation.PageSetDisplayAction,
		operation.PageSetSliceAction,
		operation.PageSetTitleAction,
		operation.PageUnsetAction:
		return s.applyPage(space, ctx, a)
	case operation.SpaceSetAction,
		operation.SpaceSetColorAction,
		operation.SpaceSetMemberAction,
		operation.SpaceSetMemberRoleAction,
		operation.SpaceSetTitleAction,
		operation.SpaceUnsetAction,
		operation.SpaceUnsetMemberAction:
		return s.applySpace(space, a)
	}
	return unsupported(action)
}

func (s *State) applyFile(space ids.SpaceID, ctx operation.Context, action operation.Action) error {
	switch a := action.(type) {
	case operation.FileSetAction:
		if a.File.SpaceID != space {
			return wrongSpace("file")
		}
		if !matches(ctx.File, a.File.ID) {
			return apperrors.InvalidOperation("file context does not match payload")
		}
		s.files[a.File.ID] = a.File.Clone()
		return nil

	case operation.FileSetChunkAction:
		if !matches(ctx.File, a.Chunk.FileID) || !matches(ctx.Chunk, a.Chunk.ID) {
			return apperrors.InvalidOperation("chunk context does not match payload")
		}
		f, ok := s.files[a.Chunk.FileID]
		if !ok {
			return nil
		}
		if f.SpaceID != space {
			return wrongSpace("file")
		}
		s.chunks[a.Chunk.ID] = a.Chunk.Clone()
		return nil

	case operation.FileUnsetChunkAction:
		id, err := need(ctx.Chunk, "chunk")
		if err != nil {
			return err
		}
		if c, ok := s.chunks[id]; ok {
			if !matches(ctx.File, c.FileID) {
				return apperrors.InvalidOperation("chunk context does not match stored chunk")
			}
			if f, ok := s.files[c.FileID]; ok && f.SpaceID != space {
				return wrongSpace("file")
			}
		}
		delete(s.chunks, id)
		return nil
	}

	id, err := need(ctx.File, "file")
	if err != nil {
		return err
	}
	f, ok := s.files[id]
	if !ok {
		return nil
	}
	if f.SpaceID != space {
		return wrongSpace("file")
	}

	switch a := action.(type) {
	case operation.FileSetNameAction:
		f.Name = a.Name
		s.files[id] = f
	case operation.FileUnsetAction:
		delete(s.files, id)
		for chunkID, c := range s.chunks {
			if c.FileID == id {
				delete(s.chunks, chunkID)
			}
		}
	default:
		return unsupported(action)
	}
	return nil
}

func (s *State) applyNote(space ids.SpaceID, ctx operation.Context, action operation.Action) error {
	if a, ok := action.(operation.NoteSetAction); ok {
		if a.Note.SpaceID != space {
			return wrongSpace("note")
		}
		if !matches(ctx.Note, a.Note.ID) {
			return apperrors.InvalidOperation("note context does not match payload")
		}
		if !a.Note.Body.Consistent() {
			return apperrors.InvalidOperation("note body order does not match its sections")
		}
		s.notes[a.Note.ID] = a.Note.Clone()
		return nil
	}

	id, err := need(ctx.Note, "note")
	if err != nil {
		return err
	}
	n, ok := s.notes[id]
	if !ok {
		return nil
	}
	if n.SpaceID != space {
		return wrongSpace("note")
	}

	switch a := action.(type) {
	case operation.NoteSetBodySectionAction:
		n.Body.Set(a.SectionID, a.Section, a.After)
	case operation.NoteSetBodySectionIndentAction:
		n.Body.SetIndent(a.SectionID, a.Indent)
	case operation.NoteSetBodySectionOrderAction:
		n.Body.Move(a.SectionID, a.After)
	case operation.NoteSetDeletedAction:
		n.Deleted = a.Deleted
	case operation.NoteSetTagAction:
		n.AddTag(a.Tag)
	case operation.NoteSetTitleAction:
		n.Title = clonePtr(a.Title)
	case operation.NoteUnsetBodySectionAction:
		n.Body.Remove(a.SectionID)
	case operation.NoteUnsetTagAction:
		n.RemoveTag(a.Tag)
	case operation.NoteUnsetAction:
		delete(s.notes, id)
		return nil
	default:
		return unsupported(action)
	}
	s.notes[id] = n
	return nil
}

func (s *State) applyPage(space ids.SpaceID, ctx operation.Context, action operation.Action) error {
	if a, ok := action.(operation.PageSetAction); ok {
		if a.Page.SpaceID != space {
			return wrongSpace("page")
		}
		if !matches(ctx.Page, a.Page.ID) {
			return apperrors.InvalidOperation("page context does not match payload")
		}
		s.pages[a.Page.ID] = a.Page.Clone()
		return nil
	}

	id, err := need(ctx.Page, "page")
	if err != nil {
		return err
	}
	p, ok := s.pages[id]
	if !ok {
		return nil
	}
	if p.SpaceID != space {
		return wrongSpace("page")
	}

	switch a := action.(type) {
	case operation.PageSetDeletedAction:
		p.Deleted = a.Deleted
	case operation.PageSetDisplayAction:
		p.View = a.Display
	case operation.PageSetSliceAction:
		p.Slice = a.Slice.Clone()
	case operation.PageSetTitleAction:
		p.Title = a.Title
	case operation.PageUnsetAction:
		delete(s.pages, id)
		return nil
	default:
		return unsupported(action)
	}
	s.pages[id] = p
	return nil
}

func (s *State) applySpace(space ids.SpaceID, action operation.Action) error {
	switch a := action.(type) {
	case operation.SpaceSetAction:
		if a.Space.ID != space {
			return wrongSpace("space")
		}
		for _, m := range a.Space.Members {
			if m.SpaceID != space {
				return wrongSpace("member")
			}
		}
		s.spaces[space] = a.Space.Clone()
		return nil
	case operation.SpaceSetMemberAction:
		if a.Member.SpaceID != space {
			return wrongSpace("member")
		}
	case operation.SpaceUnsetAction:
		s.unsetSpace(space)
		return nil
	}

	sp, ok := s.spaces[space]
	if !ok {
		return nil
	}

	switch a := action.(type) {
	case operation.SpaceSetColorAction:
		sp.Color = clonePtr(a.Color)
	case operation.SpaceSetMemberAction:
		sp.PutMember(a.Member)
	case operation.SpaceSetMemberRoleAction:
		m, found := sp.Member(a.MemberID)
		if !found {
			return nil
		}
		m.Role = a.Role
		sp.PutMember(m)
	case operation.SpaceSetTitleAction:
		sp.Title = a.Title
	case operation.SpaceUnsetMemberAction:
		sp.RemoveMember(a.MemberID)
	default:
		return unsupported(action)
	}
	s.spaces[space] = sp
	return nil
}

// unsetSpace removes the space and everything held in it.
func (s *State) unsetSpace(space ids.SpaceID) {
	delete(s.spaces, space)
	removed := map[ids.FileID]struct{}{}
	for id, f := range s.files {
		if f.SpaceID == space {
			removed[id] = struct{}{}
			delete(s.files, id)
		}
	}
	for id, c := range s.chunks {
		if _, ok := removed[c.FileID]; ok {
			delete(s.chunks, id)
		}
	}
	for id, n := range s.notes {
		if n.SpaceID == space {
			delete(s.notes, id)
		}
	}
	for id, p := range s.pages {
		if p.SpaceID == space {
			delete(s.pages, id)
		}
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
