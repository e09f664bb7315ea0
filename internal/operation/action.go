package operation

import (
	"encrypted-notes/internal/codec"
	"encrypted-notes/internal/domain"
	"encrypted-notes/internal/ids"

	"github.com/fxamacker/cbor/v2"
)

// Kind identifies an Action variant on the wire. Values are append-only.
type Kind uint16

const (
	KindFileSet Kind = iota + 1
	KindFileSetChunk
	KindFileSetName
	KindFileUnset
	KindFileUnsetChunk
	KindNoteSet
	KindNoteSetBodySection
	KindNoteSetBodySectionIndent
	KindNoteSetBodySectionOrder
	KindNoteSetDeleted
	KindNoteSetTag
	KindNoteSetTitle
	KindNoteUnset
	KindNoteUnsetBodySection
	KindNoteUnsetTag
	KindPageSet
	KindPageSetDeleted
	KindPageSetDisplay
	KindPageSetSlice
	KindPageSetTitle
	KindPageUnset
	KindSpaceSet
	KindSpaceSetColor
	KindSpaceSetMember
	KindSpaceSetMemberRole
	KindSpaceSetTitle
	KindSpaceUnset
	KindSpaceUnsetMember
	KindUserSetSettings
	KindUserSetSettingsDefaultSpace
)

var kindNames = map[Kind]string{
	KindFileSet:                     "file.set",
	KindFileSetChunk:                "file.set_chunk",
	KindFileSetName:                 "file.set_name",
	KindFileUnset:                   "file.unset",
	KindFileUnsetChunk:              "file.unset_chunk",
	KindNoteSet:                     "note.set",
	KindNoteSetBodySection:          "note.set_body_section",
	KindNoteSetBodySectionIndent:    "note.set_body_section_indent",
	KindNoteSetBodySectionOrder:     "note.set_body_section_order",
	KindNoteSetDeleted:              "note.set_deleted",
	KindNoteSetTag:                  "note.set_tag",
	KindNoteSetTitle:                "note.set_title",
	KindNoteUnset:                   "note.unset",
	KindNoteUnsetBodySection:        "note.unset_body_section",
	KindNoteUnsetTag:                "note.unset_tag",
	KindPageSet:                     "page.set",
	KindPageSetDeleted:              "page.set_deleted",
	KindPageSetDisplay:              "page.set_display",
	KindPageSetSlice:                "page.set_slice",
	KindPageSetTitle:                "page.set_title",
	KindPageUnset:                   "page.unset",
	KindSpaceSet:                    "space.set",
	KindSpaceSetColor:               "space.set_color",
	KindSpaceSetMember:              "space.set_member",
	KindSpaceSetMemberRole:          "space.set_member_role",
	KindSpaceSetTitle:               "space.set_title",
	KindSpaceUnset:                  "space.unset",
	KindSpaceUnsetMember:            "space.unset_member",
	KindUserSetSettings:             "user.set_settings",
	KindUserSetSettingsDefaultSpace: "user.set_settings_default_space",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Scope says which context an action may be applied under.
type Scope uint8

const (
	ScopeSpace Scope = iota
	ScopeUser
)

// Action is the closed set of mutations. An action carries only its payload;
// the ids of the entity it targets live in the operation's Context.
type Action interface {
	Kind() Kind
	Scope() Scope
}

type spaceScoped struct{}

func (spaceScoped) Scope() Scope { return ScopeSpace }

type userScoped struct{}

func (userScoped) Scope() Scope { return ScopeUser }

type (
	FileSetAction struct {
		spaceScoped
		File domain.File `cbor:"0,keyasint"`
	}
	FileSetChunkAction struct {
		spaceScoped
		Chunk domain.FileChunk `cbor:"0,keyasint"`
	}
	FileSetNameAction struct {
		spaceScoped
		Name string `cbor:"0,keyasint"`
	}
	FileUnsetAction struct {
		spaceScoped
	}
	FileUnsetChunkAction struct {
		spaceScoped
	}

	NoteSetAction struct {
		spaceScoped
		Note domain.Note `cbor:"0,keyasint"`
	}
	NoteSetBodySectionAction struct {
		spaceScoped
		SectionID ids.SectionID  `cbor:"0,keyasint"`
		Section   domain.Section `cbor:"1,keyasint"`
		After     *ids.SectionID `cbor:"2,keyasint"`
	}
	NoteSetBodySectionIndentAction struct {
		spaceScoped
		SectionID ids.SectionID `cbor:"0,keyasint"`
		Indent    uint8         `cbor:"1,keyasint"`
	}
	NoteSetBodySectionOrderAction struct {
		spaceScoped
		SectionID ids.SectionID  `cbor:"0,keyasint"`
		After     *ids.SectionID `cbor:"1,keyasint"`
	}
	NoteSetDeletedAction struct {
		spaceScoped
		Deleted bool `cbor:"0,keyasint"`
	}
	NoteSetTagAction struct {
		spaceScoped
		Tag domain.Tag `cbor:"0,keyasint"`
	}
	NoteSetTitleAction struct {
		spaceScoped
		Title *string `cbor:"0,keyasint"`
	}
	NoteUnsetAction struct {
		spaceScoped
	}
	NoteUnsetBodySectionAction struct {
		spaceScoped
		SectionID ids.SectionID `cbor:"0,keyasint"`
	}
	NoteUnsetTagAction struct {
		spaceScoped
		Tag domain.Tag `cbor:"0,keyasint"`
	}

	PageSetAction struct {
		spaceScoped
		Page domain.Page `cbor:"0,keyasint"`
	}
	PageSetDeletedAction struct {
		spaceScoped
		Deleted bool `cbor:"0,keyasint"`
	}
	PageSetDisplayAction struct {
		spaceScoped
		Display domain.Display `cbor:"0,keyasint"`
	}
	PageSetSliceAction struct {
		spaceScoped
		Slice domain.Slice `cbor:"0,keyasint"`
	}
	PageSetTitleAction struct {
		spaceScoped
		Title string `cbor:"0,keyasint"`
	}
	PageUnsetAction struct {
		spaceScoped
	}

	SpaceSetAction struct {
		spaceScoped
		Space domain.Space `cbor:"0,keyasint"`
	}
	SpaceSetColorAction struct {
		spaceScoped
		Color *string `cbor:"0,keyasint"`
	}
	SpaceSetMemberAction struct {
		spaceScoped
		Member domain.Member `cbor:"0,keyasint"`
	}
	SpaceSetMemberRoleAction struct {
		spaceScoped
		MemberID ids.MemberID `cbor:"0,keyasint"`
		Role     domain.Role  `cbor:"1,keyasint"`
	}
	SpaceSetTitleAction struct {
		spaceScoped
		Title string `cbor:"0,keyasint"`
	}
	SpaceUnsetAction struct {
		spaceScoped
	}
	SpaceUnsetMemberAction struct {
		spaceScoped
		MemberID ids.MemberID `cbor:"0,keyasint"`
	}

	UserSetSettingsAction struct {
		userScoped
		Settings domain.UserSettings `cbor:"0,keyasint"`
	}
	UserSetSettingsDefaultSpaceAction struct {
		userScoped
		Space *ids.SpaceID `cbor:"0,keyasint"`
	}
)

func (FileSetAction) Kind() Kind                     { return KindFileSet }
func (FileSetChunkAction) Kind() Kind                { return KindFileSetChunk }
func (FileSetNameAction) Kind() Kind                 { return KindFileSetName }
func (FileUnsetAction) Kind() Kind                   { return KindFileUnset }
func (FileUnsetChunkAction) Kind() Kind              { return KindFileUnsetChunk }
func (NoteSetAction) Kind() Kind                     { return KindNoteSet }
func (NoteSetBodySectionAction) Kind() Kind          { return KindNoteSetBodySection }
func (NoteSetBodySectionIndentAction) Kind() Kind    { return KindNoteSetBodySectionIndent }
func (NoteSetBodySectionOrderAction) Kind() Kind     { return KindNoteSetBodySectionOrder }
func (NoteSetDeletedAction) Kind() Kind              { return KindNoteSetDeleted }
func (NoteSetTagAction) Kind() Kind                  { return KindNoteSetTag }
func (NoteSetTitleAction) Kind() Kind                { return KindNoteSetTitle }
func (NoteUnsetAction) Kind() Kind                   { return KindNoteUnset }
func (NoteUnsetBodySectionAction) Kind() Kind        { return KindNoteUnsetBodySection }
func (NoteUnsetTagAction) Kind() Kind                { return KindNoteUnsetTag }
func (PageSetAction) Kind() Kind                     { return KindPageSet }
func (PageSetDeletedAction) Kind() Kind              { return KindPageSetDeleted }
func (PageSetDisplayAction) Kind() Kind              { return KindPageSetDisplay }
func (PageSetSliceAction) Kind() Kind                { return KindPageSetSlice }
func (PageSetTitleAction) Kind() Kind                { return KindPageSetTitle }
func (PageUnsetAction) Kind() Kind                   { return KindPageUnset }
func (SpaceSetAction) Kind() Kind                    { return KindSpaceSet }
func (SpaceSetColorAction) Kind() Kind               { return KindSpaceSetColor }
func (SpaceSetMemberAction) Kind() Kind              { return KindSpaceSetMember }
func (SpaceSetMemberRoleAction) Kind() Kind          { return KindSpaceSetMemberRole }
func (SpaceSetTitleAction) Kind() Kind               { return KindSpaceSetTitle }
func (SpaceUnsetAction) Kind() Kind                  { return KindSpaceUnset }
func (SpaceUnsetMemberAction) Kind() Kind            { return KindSpaceUnsetMember }
func (UserSetSettingsAction) Kind() Kind             { return KindUserSetSettings }
func (UserSetSettingsDefaultSpaceAction) Kind() Kind { return KindUserSetSettingsDefaultSpace }

var actionDecoders = map[Kind]func(cbor.RawMessage) (Action, error){
	KindFileSet:                     decodeAction[FileSetAction],
	KindFileSetChunk:                decodeAction[FileSetChunkAction],
	KindFileSetName:                 decodeAction[FileSetNameAction],
	KindFileUnset:                   decodeAction[FileUnsetAction],
	KindFileUnsetChunk:              decodeAction[FileUnsetChunkAction],
	KindNoteSet:                     decodeAction[NoteSetAction],
	KindNoteSetBodySection:          decodeAction[NoteSetBodySectionAction],
	KindNoteSetBodySectionIndent:    decodeAction[NoteSetBodySectionIndentAction],
	KindNoteSetBodySectionOrder:     decodeAction[NoteSetBodySectionOrderAction],
	KindNoteSetDeleted:              decodeAction[NoteSetDeletedAction],
	KindNoteSetTag:                  decodeAction[NoteSetTagAction],
	KindNoteSetTitle:                decodeAction[NoteSetTitleAction],
	KindNoteUnset:                   decodeAction[NoteUnsetAction],
	KindNoteUnsetBodySection:        decodeAction[NoteUnsetBodySectionAction],
	KindNoteUnsetTag:                decodeAction[NoteUnsetTagAction],
	KindPageSet:                     decodeAction[PageSetAction],
	KindPageSetDeleted:              decodeAction[PageSetDeletedAction],
	KindPageSetDisplay:              decodeAction[PageSetDisplayAction],
	KindPageSetSlice:                decodeAction[PageSetSliceAction],
	KindPageSetTitle:                decodeAction[PageSetTitleAction],
	KindPageUnset:                   decodeAction[PageUnsetAction],
	KindSpaceSet:                    decodeAction[SpaceSetAction],
	KindSpaceSetColor:               decodeAction[SpaceSetColorAction],
	KindSpaceSetMember:              decodeAction[SpaceSetMemberAction],
	KindSpaceSetMemberRole:          decodeAction[SpaceSetMemberRoleAction],
	KindSpaceSetTitle:               decodeAction[SpaceSetTitleAction],
	KindSpaceUnset:                  decodeAction[SpaceUnsetAction],
	KindSpaceUnsetMember:            decodeAction[SpaceUnsetMemberAction],
	KindUserSetSettings:             decodeAction[UserSetSettingsAction],
	KindUserSetSettingsDefaultSpace: decodeAction[UserSetSettingsDefaultSpaceAction],
}

func decodeAction[T Action](raw cbor.RawMessage) (Action, error) {
	v, err := codec.DecodeAs[T](raw)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// MarshalAction encodes an action as a [kind, payload] variant.
func MarshalAction(a Action) ([]byte, error) {
	return codec.MarshalVariant(uint16(a.Kind()), a)
}

func UnmarshalAction(data []byte) (Action, error) {
	v, err := codec.UnmarshalVariant(data)
	if err != nil {
		return nil, err
	}
	decode, ok := actionDecoders[Kind(v.Kind)]
	if !ok {
		return nil, &codec.UnknownKindError{Union: "action", Kind: v.Kind}
	}
	return decode(v.Payload)
}
