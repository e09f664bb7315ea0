package operation

import (
	"encrypted-notes/internal/domain"
	"encrypted-notes/internal/ids"
)

// Context names the entities an operation targets. Space is routed in the
// clear; every other field is sealed with the action's payload key.
type Context struct {
	Space *ids.SpaceID     `json:"space,omitempty"`
	File  *ids.FileID      `json:"file,omitempty"`
	Note  *ids.NoteID      `json:"note,omitempty"`
	Page  *ids.PageID      `json:"page,omitempty"`
	Chunk *ids.FileChunkID `json:"chunk,omitempty"`
}

// innerContext is the sealed part of a Context.
type innerContext struct {
	File  *ids.FileID      `cbor:"0,keyasint"`
	Note  *ids.NoteID      `cbor:"1,keyasint"`
	Page  *ids.PageID      `cbor:"2,keyasint"`
	Chunk *ids.FileChunkID `cbor:"3,keyasint"`
}

func (c Context) inner() innerContext {
	return innerContext{File: c.File, Note: c.Note, Page: c.Page, Chunk: c.Chunk}
}

func (i innerContext) withSpace(space *ids.SpaceID) Context {
	return Context{Space: space, File: i.File, Note: i.Note, Page: i.Page, Chunk: i.Chunk}
}

// Operation is one granular mutation and the context it applies to.
type Operation struct {
	context Context
	action  Action
}

// New pairs an arbitrary context with an action. Prefer the per-action
// constructors, which always compute the minimal correct context.
func New(context Context, action Action) Operation {
	return Operation{context: context, action: action}
}

func (o Operation) Context() Context { return o.context }

func (o Operation) Action() Action { return o.action }

// Consume hands over the context and action together.
func (o Operation) Consume() (Context, Action) {
	return o.context, o.action
}

func spaceCtx(space ids.SpaceID) Context {
	return Context{Space: &space}
}

func fileCtx(space ids.SpaceID, file ids.FileID) Context {
	return Context{Space: &space, File: &file}
}

func noteCtx(space ids.SpaceID, note ids.NoteID) Context {
	return Context{Space: &space, Note: &note}
}

func pageCtx(space ids.SpaceID, page ids.PageID) Context {
	return Context{Space: &space, Page: &page}
}

func FileSet(file domain.File) Operation {
	return New(fileCtx(file.SpaceID, file.ID), FileSetAction{File: file})
}

func FileSetChunk(space ids.SpaceID, chunk domain.FileChunk) Operation {
	ctx := fileCtx(space, chunk.FileID)
	ctx.Chunk = &chunk.ID
	return New(ctx, FileSetChunkAction{Chunk: chunk})
}

func FileSetName(space ids.SpaceID, file ids.FileID, name string) Operation {
	return New(fileCtx(space, file), FileSetNameAction{Name: name})
}

func FileUnset(space ids.SpaceID, file ids.FileID) Operation {
	return New(fileCtx(space, file), FileUnsetAction{})
}

func FileUnsetChunk(space ids.SpaceID, file ids.FileID, chunk ids.FileChunkID) Operation {
	ctx := fileCtx(space, file)
	ctx.Chunk = &chunk
	return New(ctx, FileUnsetChunkAction{})
}

func NoteSet(note domain.Note) Operation {
	return New(noteCtx(note.SpaceID, note.ID), NoteSetAction{Note: note})
}

func NoteSetBodySection(space ids.SpaceID, note ids.NoteID, id ids.SectionID, section domain.Section, after *ids.SectionID) Operation {
	return New(noteCtx(space, note), NoteSetBodySectionAction{SectionID: id, Section: section, After: after})
}

func NoteSetBodySectionIndent(space ids.SpaceID, note ids.NoteID, id ids.SectionID, indent uint8) Operation {
	return New(noteCtx(space, note), NoteSetBodySectionIndentAction{SectionID: id, Indent: indent})
}

func NoteSetBodySectionOrder(space ids.SpaceID, note ids.NoteID, id ids.SectionID, after *ids.SectionID) Operation {
	return New(noteCtx(space, note), NoteSetBodySectionOrderAction{SectionID: id, After: after})
}

func NoteSetDeleted(space ids.SpaceID, note ids.NoteID, deleted bool) Operation {
	return New(noteCtx(space, note), NoteSetDeletedAction{Deleted: deleted})
}

func NoteSetTag(space ids.SpaceID, note ids.NoteID, tag domain.Tag) Operation {
	return New(noteCtx(space, note), NoteSetTagAction{Tag: tag})
}

func NoteSetTitle(space ids.SpaceID, note ids.NoteID, title *string) Operation {
	return New(noteCtx(space, note), NoteSetTitleAction{Title: title})
}

func NoteUnset(space ids.SpaceID, note ids.NoteID) Operation {
	return New(noteCtx(space, note), NoteUnsetAction{})
}

func NoteUnsetBodySection(space ids.SpaceID, note ids.NoteID, id ids.SectionID) Operation {
	return New(noteCtx(space, note), NoteUnsetBodySectionAction{SectionID: id})
}

func NoteUnsetTag(space ids.SpaceID, note ids.NoteID, tag domain.Tag) Operation {
	return New(noteCtx(space, note), NoteUnsetTagAction{Tag: tag})
}

func PageSet(page domain.Page) Operation {
	return New(pageCtx(page.SpaceID, page.ID), PageSetAction{Page: page})
}

func PageSetDeleted(space ids.SpaceID, page ids.PageID, deleted bool) Operation {
	return New(pageCtx(space, page), PageSetDeletedAction{Deleted: deleted})
}

func PageSetDisplay(space ids.SpaceID, page ids.PageID, display domain.Display) Operation {
	return New(pageCtx(space, page), PageSetDisplayAction{Display: display})
}

func PageSetSlice(space ids.SpaceID, page ids.PageID, slice domain.Slice) Operation {
	return New(pageCtx(space, page), PageSetSliceAction{Slice: slice})
}

func PageSetTitle(space ids.SpaceID, page ids.PageID, title string) Operation {
	return New(pageCtx(space, page), PageSetTitleAction{Title: title})
}

func PageUnset(space ids.SpaceID, page ids.PageID) Operation {
	return New(pageCtx(space, page), PageUnsetAction{})
}

func SpaceSet(space domain.Space) Operation {
	return New(spaceCtx(space.ID), SpaceSetAction{Space: space})
}

func SpaceSetColor(space ids.SpaceID, color *string) Operation {
	return New(spaceCtx(space), SpaceSetColorAction{Color: color})
}

func SpaceSetMember(member domain.Member) Operation {
	return New(spaceCtx(member.SpaceID), SpaceSetMemberAction{Member: member})
}

func SpaceSetMemberRole(space ids.SpaceID, member ids.MemberID, role domain.Role) Operation {
	return New(spaceCtx(space), SpaceSetMemberRoleAction{MemberID: member, Role: role})
}

func SpaceSetTitle(space ids.SpaceID, title string) Operation {
	return New(spaceCtx(space), SpaceSetTitleAction{Title: title})
}

func SpaceUnset(space ids.SpaceID) Operation {
	return New(spaceCtx(space), SpaceUnsetAction{})
}

func SpaceUnsetMember(space ids.SpaceID, member ids.MemberID) Operation {
	return New(spaceCtx(space), SpaceUnsetMemberAction{MemberID: member})
}

func UserSetSettings(settings domain.UserSettings) Operation {
	return New(Context{}, UserSetSettingsAction{Settings: settings})
}

func UserSetSettingsDefaultSpace(space *ids.SpaceID) Operation {
	return New(Context{}, UserSetSettingsDefaultSpaceAction{Space: space})
}
