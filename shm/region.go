// Package shm implements the POSIX-shared-memory transport (§4.8): regions
// backed by mmap'd files, lock-free ring buffers, a changes-count
// generation counter standing in for a condition variable, a spinlock
// standing in for a pthread robust mutex, a multi-producer single-consumer
// server event queue, and the back-reference SlotPool. The mmap plumbing is
// grounded on this pack's marmos91-dittofs WAL/cache persister
// (pkg/cache/wal/mmap.go): create-or-open a file, Truncate to size, Mmap
// with PROT_READ|PROT_WRITE and MAP_SHARED so every process mapping the
// same file observes the same bytes.
package shm

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"
)

// DefaultDir is where named regions are created when no directory is given
// explicitly, matching /dev/shm's role as Linux's tmpfs-backed shared memory
// mount.
const DefaultDir = "/dev/shm"

// Region is a single mmap'd shared-memory file. Multiple processes opening
// the same name over the same directory observe the same bytes; Region
// itself does not interpret the bytes; layout.go's header types do that.
type Region struct {
	mu   sync.Mutex
	file *os.File
	data []byte
	path string
	size int
}

// Create makes (or truncates and reopens) a region of the given size under
// dir ("" defaults to DefaultDir) and maps it. The caller owns the returned
// Region and must Close it.
func Create(dir, name string, size int) (*Region, error) {
	return open(dir, name, size, true)
}

// Open maps an existing region of the given size without truncating it —
// used by a client attaching to a server's already-created region.
func Open(dir, name string, size int) (*Region, error) {
	return open(dir, name, size, false)
}

func open(dir, name string, size int, create bool) (*Region, error) {
	if dir == "" {
		dir = DefaultDir
	}
	path := filepath.Join(dir, name)

	flags := os.O_RDWR
	if create {
		flags |= os.O_CREATE
	}
	f, err := os.OpenFile(path, flags, 0600)
	if err != nil {
		return nil, errOperationFailure(fmt.Sprintf("open region %s", path), err)
	}
	if create {
		if err := f.Truncate(int64(size)); err != nil {
			f.Close()
			return nil, errOperationFailure(fmt.Sprintf("truncate region %s", path), err)
		}
	} else {
		fi, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, errOperationFailure(fmt.Sprintf("stat region %s", path), err)
		}
		if int(fi.Size()) < size {
			f.Close()
			return nil, errRegionTooSmall(path, size, int(fi.Size()))
		}
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, errOperationFailure(fmt.Sprintf("mmap region %s", path), err)
	}

	return &Region{file: f, data: data, path: path, size: size}, nil
}

// Bytes returns the mapped region. Callers access it through the header
// types in layout.go rather than indexing it directly.
func (r *Region) Bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data
}

// Sync flushes the mapped pages back to the backing file; not required for
// other mmap'd processes to observe writes (MAP_SHARED already guarantees
// that) but useful before a region outlives its process.
func (r *Region) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return unix.Msync(r.data, unix.MS_SYNC)
}

// Close unmaps and closes the backing file. Safe to call once; a second
// call returns the unmap error.
func (r *Region) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := unix.Munmap(r.data)
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// Remove unlinks the backing file of the named region; Listener.Close uses
// it to remove the server region's file.
func Remove(dir, name string) error {
	if dir == "" {
		dir = DefaultDir
	}
	return os.Remove(filepath.Join(dir, name))
}

// Path returns the region's backing file path.
func (r *Region) Path() string { return r.path }

// Size returns the region's mapped size in bytes.
func (r *Region) Size() int { return r.size }
