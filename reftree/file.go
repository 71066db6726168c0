package reftree

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mohit67890/realm-core-hnsw/resource"
)

const (
	// snapshotMagic identifies reftree snapshot files (ASCII "RTR1").
	snapshotMagic = 0x52545231

	// snapshotVersion is the current snapshot container version.
	snapshotVersion = 1

	arrayKindInts = 0
	arrayKindRefs = 1
)

var (
	// ErrInvalidSnapshot is returned when a snapshot file is malformed.
	ErrInvalidSnapshot = errors.New("reftree: invalid snapshot")

	// ErrSnapshotVersion is returned for an unsupported container version.
	ErrSnapshotVersion = errors.New("reftree: unsupported snapshot version")
)

// FileStoreOptions configures a FileStore.
type FileStoreOptions struct {
	// Compression selects the snapshot payload codec. Default zstd.
	Compression Compression

	// Controller throttles snapshot writes when set.
	Controller *resource.Controller
}

// FileStore is a Store whose Commit writes the reachable tree to a
// snapshot file, replacing the previous snapshot atomically
// (temp file, fsync, rename). Arrays live in memory between commits.
type FileStore struct {
	*MemStore
	path string
	opts FileStoreOptions
}

// OpenFileStore opens (or creates) a file-backed store at path. A missing
// file yields an empty store; a corrupt file is an error.
func OpenFileStore(path string, optFns ...func(o *FileStoreOptions)) (*FileStore, error) {
	opts := FileStoreOptions{Compression: CompressionZstd}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &FileStore{
		MemStore: NewMemStore(),
		path:     path,
		opts:     opts,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reftree: open snapshot %s: %w", path, err)
	}

	if err := s.decodeSnapshot(data); err != nil {
		return nil, err
	}
	return s, nil
}

// Commit implements Store. It serializes every live array of the store and
// writes it to the snapshot file atomically.
func (s *FileStore) Commit() error {
	payload := s.encodePayload()

	comp := s.opts.Compression
	body, err := compressPayload(comp, payload)
	if errors.Is(err, errIncompressible) {
		comp = CompressionNone
		body, err = payload, nil
	}
	if err != nil {
		return err
	}

	head := make([]byte, 9)
	binary.LittleEndian.PutUint32(head[0:], snapshotMagic)
	binary.LittleEndian.PutUint32(head[4:], snapshotVersion)
	head[8] = byte(comp)

	if err := s.opts.Controller.AcquireIO(context.Background(), len(head)+len(body)); err != nil {
		return err
	}

	return writeFileAtomic(s.path, head, body)
}

// Path returns the snapshot file path.
func (s *FileStore) Path() string { return s.path }

// encodePayload flattens every live array into the snapshot payload.
// Arrays unreachable from the root have already been destroyed by the
// engine's root swap, so the store content is exactly the committed tree.
func (s *FileStore) encodePayload() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf []byte
	buf = binary.LittleEndian.AppendUint64(buf, uint64(s.root))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(s.next))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s.ints)+len(s.refs)))

	for ref, arr := range s.ints {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(ref))
		buf = append(buf, arrayKindInts)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(arr.vals)))
		for _, v := range arr.vals {
			buf = binary.LittleEndian.AppendUint64(buf, uint64(v))
		}
	}
	for ref, arr := range s.refs {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(ref))
		buf = append(buf, arrayKindRefs)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(arr.refs)))
		for _, r := range arr.refs {
			buf = binary.LittleEndian.AppendUint64(buf, uint64(r))
		}
	}
	return buf
}

func (s *FileStore) decodeSnapshot(data []byte) error {
	if len(data) < 9 {
		return fmt.Errorf("%w: truncated header", ErrInvalidSnapshot)
	}
	if binary.LittleEndian.Uint32(data[0:]) != snapshotMagic {
		return fmt.Errorf("%w: bad magic", ErrInvalidSnapshot)
	}
	if v := binary.LittleEndian.Uint32(data[4:]); v != snapshotVersion {
		return fmt.Errorf("%w: %d", ErrSnapshotVersion, v)
	}

	payload, err := decompressPayload(Compression(data[8]), data[9:])
	if err != nil {
		return err
	}

	r := payloadReader{buf: payload}
	root, err := r.uint64()
	if err != nil {
		return err
	}
	next, err := r.uint64()
	if err != nil {
		return err
	}
	count, err := r.uint32()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.root = Ref(root)
	s.next = Ref(next)
	if s.next == 0 {
		s.next = 1
	}

	for i := uint32(0); i < count; i++ {
		ref, err := r.uint64()
		if err != nil {
			return err
		}
		kind, err := r.byte()
		if err != nil {
			return err
		}
		n, err := r.uint32()
		if err != nil {
			return err
		}

		switch kind {
		case arrayKindInts:
			arr := &Ints{vals: make([]int64, 0, n)}
			for j := uint32(0); j < n; j++ {
				v, err := r.uint64()
				if err != nil {
					return err
				}
				arr.vals = append(arr.vals, int64(v))
			}
			s.ints[Ref(ref)] = arr

		case arrayKindRefs:
			arr := &Refs{refs: make([]Ref, 0, n)}
			for j := uint32(0); j < n; j++ {
				v, err := r.uint64()
				if err != nil {
					return err
				}
				arr.refs = append(arr.refs, Ref(v))
			}
			s.refs[Ref(ref)] = arr

		default:
			return fmt.Errorf("%w: unknown array kind %d", ErrInvalidSnapshot, kind)
		}
	}

	return nil
}

type payloadReader struct {
	buf []byte
	off int
}

func (r *payloadReader) uint64() (uint64, error) {
	if r.off+8 > len(r.buf) {
		return 0, fmt.Errorf("%w: truncated payload", ErrInvalidSnapshot)
	}
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v, nil
}

func (r *payloadReader) uint32() (uint32, error) {
	if r.off+4 > len(r.buf) {
		return 0, fmt.Errorf("%w: truncated payload", ErrInvalidSnapshot)
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *payloadReader) byte() (byte, error) {
	if r.off >= len(r.buf) {
		return 0, fmt.Errorf("%w: truncated payload", ErrInvalidSnapshot)
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

// writeFileAtomic writes to a temp file in the target directory, syncs it,
// and renames over the destination so readers never observe a partial
// snapshot.
func writeFileAtomic(path string, chunks ...[]byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("reftree: create temp: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	for _, chunk := range chunks {
		if _, err := tmp.Write(chunk); err != nil {
			cleanup()
			return fmt.Errorf("reftree: write snapshot: %w", err)
		}
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("reftree: sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("reftree: close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("reftree: rename snapshot: %w", err)
	}

	// Best-effort directory sync.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
