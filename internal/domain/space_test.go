package domain

import (
	"testing"

	"encrypted-notes/internal/ids"

	"github.com/stretchr/testify/assert"
)

func TestSpaceMembers(t *testing.T) {
	space := Space{ID: ids.NewSpaceID(), Title: "team"}
	alice := Member{ID: ids.NewMemberID(), SpaceID: space.ID, UserID: "alice", Role: RoleOwner}
	bob := Member{ID: ids.NewMemberID(), SpaceID: space.ID, UserID: "bob", Role: RoleGuest}

	space.PutMember(alice)
	space.PutMember(bob)
	bob.Role = RoleModerator
	space.PutMember(bob)

	assert.Len(t, space.Members, 2)
	got, ok := space.Member(bob.ID)
	assert.True(t, ok)
	assert.Equal(t, RoleModerator, got.Role)

	space.RemoveMember(alice.ID)
	_, ok = space.Member(alice.ID)
	assert.False(t, ok)
	assert.Len(t, space.Members, 1)
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "owner", RoleOwner.String())
	assert.Equal(t, "guest", RoleGuest.String())
	assert.Equal(t, "unknown", Role(42).String())
}

func TestFileChunkHash(t *testing.T) {
	file := ids.NewFileID()
	chunk := NewFileChunk(file, 0, []byte("hello"))

	assert.Len(t, chunk.Hash, 32)
	assert.True(t, chunk.Verify([]byte("hello")))
	assert.False(t, chunk.Verify([]byte("hellO")))
	assert.Equal(t, file, chunk.FileID)
}
