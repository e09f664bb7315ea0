package domain

import (
	"encoding/json"
	"slices"

	"encrypted-notes/internal/ids"
)

type Role uint8

const (
	RoleGuest Role = iota
	RoleMember
	RoleModerator
	RoleAdmin
	RoleOwner
)

var roleNames = []string{"guest", "member", "moderator", "admin", "owner"}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return "unknown"
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

type Member struct {
	ID      ids.MemberID `cbor:"0,keyasint" json:"id"`
	SpaceID ids.SpaceID  `cbor:"1,keyasint" json:"space_id"`
	UserID  string       `cbor:"2,keyasint" json:"user_id"`
	Role    Role         `cbor:"3,keyasint" json:"role"`
}

type Space struct {
	ID      ids.SpaceID `cbor:"0,keyasint" json:"id"`
	Members []Member    `cbor:"1,keyasint" json:"members"`
	Title   string      `cbor:"2,keyasint" json:"title"`
	Color   *string     `cbor:"3,keyasint" json:"color"`
}

func (s Space) Clone() Space {
	s.Members = slices.Clone(s.Members)
	s.Color = clonePtr(s.Color)
	return s
}

func (s Space) Member(id ids.MemberID) (Member, bool) {
	i := slices.IndexFunc(s.Members, func(m Member) bool { return m.ID == id })
	if i < 0 {
		return Member{}, false
	}
	return s.Members[i], true
}

// PutMember replaces the member with the same id or appends a new one.
func (s *Space) PutMember(member Member) {
	i := slices.IndexFunc(s.Members, func(m Member) bool { return m.ID == member.ID })
	if i < 0 {
		s.Members = append(s.Members, member)
		return
	}
	s.Members[i] = member
}

func (s *Space) RemoveMember(id ids.MemberID) {
	s.Members = slices.DeleteFunc(s.Members, func(m Member) bool { return m.ID == id })
}

type UserSettings struct {
	DefaultSpace *ids.SpaceID `cbor:"0,keyasint" json:"default_space"`
}
