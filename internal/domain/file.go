package domain

import (
	"crypto/subtle"

	"encrypted-notes/internal/ids"

	"golang.org/x/crypto/blake2b"
)

type File struct {
	ID         ids.FileID  `cbor:"0,keyasint" json:"id"`
	SpaceID    ids.SpaceID `cbor:"1,keyasint" json:"space_id"`
	Name       string      `cbor:"2,keyasint" json:"name"`
	MimeType   *string     `cbor:"3,keyasint" json:"mime_type"`
	ChunkCount uint32      `cbor:"4,keyasint" json:"chunk_count"`
}

// FileChunk is one piece of a file's content. Chunks are ordered by Index
// and checked against Hash.
type FileChunk struct {
	ID     ids.FileChunkID `cbor:"0,keyasint" json:"id"`
	FileID ids.FileID      `cbor:"1,keyasint" json:"file_id"`
	Hash   []byte          `cbor:"2,keyasint" json:"hash"`
	Index  uint32          `cbor:"3,keyasint" json:"index"`
}

func NewFileChunk(fileID ids.FileID, index uint32, content []byte) FileChunk {
	return FileChunk{
		ID:     ids.NewFileChunkID(),
		FileID: fileID,
		Hash:   ChunkHash(content),
		Index:  index,
	}
}

// ChunkHash is the BLAKE2b-256 digest of a chunk's content.
func ChunkHash(content []byte) []byte {
	sum := blake2b.Sum256(content)
	return sum[:]
}

func (c FileChunk) Verify(content []byte) bool {
	return subtle.ConstantTimeCompare(c.Hash, ChunkHash(content)) == 1
}

func (c FileChunk) Clone() FileChunk {
	c.Hash = append([]byte(nil), c.Hash...)
	return c
}

func (f File) Clone() File {
	f.MimeType = clonePtr(f.MimeType)
	return f
}
