package region

import (
	"encoding/binary"
	"fmt"
	"os"
)

const (
	magic         = "VXR_"
	fileVersion   = 2
	headerEntrySz = 4
)

// File is one region file: a header table of region_size^3 entries
// (sector index : sector count packed into 4 bytes) followed by a body
// of fixed-size sectors.
type File struct {
	f          *os.File
	regionSize int // edge length in blocks (region covers regionSize^3 blocks)
	sectorSize int
	header     []uint32
}

func headerOffset() int64 { return int64(len(magic) + 1) }

func bodyOffset(regionSize int) int64 {
	return headerOffset() + int64(regionSize*regionSize*regionSize*headerEntrySz)
}

// Open opens an existing region file, or creates a new empty one if it
// doesn't exist.
func Open(path string, regionSize, sectorSize int) (*File, error) {
	entries := regionSize * regionSize * regionSize
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open region %s: %w", path, ErrIO)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat region %s: %w", path, ErrIO)
	}

	rf := &File{f: f, regionSize: regionSize, sectorSize: sectorSize, header: make([]uint32, entries)}
	if info.Size() == 0 {
		if err := rf.writeFreshHeader(); err != nil {
			f.Close()
			return nil, err
		}
		return rf, nil
	}

	hdr := make([]byte, len(magic)+1)
	if _, err := f.ReadAt(hdr, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("read region header %s: %w", path, ErrInvalidFormat)
	}
	if string(hdr[:len(magic)]) != magic {
		f.Close()
		return nil, fmt.Errorf("bad magic in %s: %w", path, ErrInvalidFormat)
	}
	if hdr[len(magic)] != fileVersion {
		f.Close()
		return nil, fmt.Errorf("unsupported version %d in %s: %w", hdr[len(magic)], path, ErrInvalidFormat)
	}

	table := make([]byte, entries*headerEntrySz)
	if _, err := f.ReadAt(table, headerOffset()); err != nil {
		f.Close()
		return nil, fmt.Errorf("read region table %s: %w", path, ErrInvalidFormat)
	}
	for i := 0; i < entries; i++ {
		rf.header[i] = binary.LittleEndian.Uint32(table[i*4 : i*4+4])
	}
	return rf, nil
}

func (rf *File) writeFreshHeader() error {
	buf := make([]byte, bodyOffset(rf.regionSize))
	copy(buf, []byte(magic))
	buf[len(magic)] = fileVersion
	if _, err := rf.f.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("init region header: %w", ErrIO)
	}
	return nil
}

func (rf *File) Close() error { return rf.f.Close() }

func (rf *File) localIndex(lx, ly, lz int) int {
	n := rf.regionSize
	return (lx*n+ly)*n + lz
}

func splitEntry(e uint32) (sectorIndex, sectorCount int) {
	return int(e >> 8), int(e & 0xFF)
}

func packEntry(sectorIndex, sectorCount int) uint32 {
	return uint32(sectorIndex)<<8 | uint32(sectorCount&0xFF)
}

func (rf *File) sectorsNeeded(payloadLen int) int {
	total := 4 + payloadLen // length prefix + payload
	return (total + rf.sectorSize - 1) / rf.sectorSize
}

// ReadBlock reads the payload previously written at (lx,ly,lz), if any.
func (rf *File) ReadBlock(lx, ly, lz int) ([]byte, bool, error) {
	e := rf.header[rf.localIndex(lx, ly, lz)]
	sectorIndex, sectorCount := splitEntry(e)
	if sectorCount == 0 {
		return nil, false, nil
	}
	off := bodyOffset(rf.regionSize) + int64(sectorIndex)*int64(rf.sectorSize)
	lenBuf := make([]byte, 4)
	if _, err := rf.f.ReadAt(lenBuf, off); err != nil {
		return nil, false, fmt.Errorf("read block length: %w", ErrIO)
	}
	length := binary.LittleEndian.Uint32(lenBuf)
	payload := make([]byte, length)
	if _, err := rf.f.ReadAt(payload, off+4); err != nil {
		return nil, false, fmt.Errorf("read block payload: %w", ErrIO)
	}
	return payload, true, nil
}

// WriteBlock writes payload at (lx,ly,lz). In-place rewrite is used
// when the new size fits the existing sector span; otherwise the old
// span is reclaimed (following sectors shifted down, file shrinks) and
// the new payload is appended at the end.
func (rf *File) WriteBlock(lx, ly, lz int, payload []byte) error {
	idx := rf.localIndex(lx, ly, lz)
	needed := rf.sectorsNeeded(len(payload))
	existingIndex, existingCount := splitEntry(rf.header[idx])

	if existingCount >= needed && existingCount > 0 {
		if err := rf.writeSectors(existingIndex, payload); err != nil {
			return err
		}
		rf.header[idx] = packEntry(existingIndex, existingCount)
		return rf.flushHeaderEntry(idx)
	}

	if existingCount > 0 {
		if err := rf.reclaim(existingIndex, existingCount); err != nil {
			return err
		}
		rf.header[idx] = 0
	}

	newIndex, err := rf.appendAtEnd(payload, needed)
	if err != nil {
		return err
	}
	rf.header[idx] = packEntry(newIndex, needed)
	return rf.flushHeaderEntry(idx)
}

func (rf *File) writeSectors(sectorIndex int, payload []byte) error {
	off := bodyOffset(rf.regionSize) + int64(sectorIndex)*int64(rf.sectorSize)
	lenBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBuf, uint32(len(payload)))
	buf := append(lenBuf, payload...)
	needed := rf.sectorsNeeded(len(payload))
	padded := make([]byte, needed*rf.sectorSize)
	copy(padded, buf)
	if _, err := rf.f.WriteAt(padded, off); err != nil {
		return fmt.Errorf("write block sectors: %w", ErrIO)
	}
	return nil
}

func (rf *File) sectorCountInFile() (int64, error) {
	info, err := rf.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat region: %w", ErrIO)
	}
	body := info.Size() - bodyOffset(rf.regionSize)
	if body < 0 {
		body = 0
	}
	return body / int64(rf.sectorSize), nil
}

func (rf *File) appendAtEnd(payload []byte, needed int) (int, error) {
	count, err := rf.sectorCountInFile()
	if err != nil {
		return 0, err
	}
	if err := rf.writeSectors(int(count), payload); err != nil {
		return 0, err
	}
	return int(count), nil
}

// reclaim removes the sector span [index, index+count) by shifting
// every following sector down by count, and updates every header entry
// pointing past the removed span. The file shrinks.
func (rf *File) reclaim(index, count int) error {
	total, err := rf.sectorCountInFile()
	if err != nil {
		return err
	}
	bodyStart := bodyOffset(rf.regionSize)
	tailStart := int64(index+count) * int64(rf.sectorSize)
	tailLen := (total - int64(index+count)) * int64(rf.sectorSize)
	if tailLen > 0 {
		tail := make([]byte, tailLen)
		if _, err := rf.f.ReadAt(tail, bodyStart+tailStart); err != nil {
			return fmt.Errorf("reclaim read tail: %w", ErrIO)
		}
		if _, err := rf.f.WriteAt(tail, bodyStart+int64(index)*int64(rf.sectorSize)); err != nil {
			return fmt.Errorf("reclaim write tail: %w", ErrIO)
		}
	}
	newTotal := total - int64(count)
	if err := rf.f.Truncate(bodyStart + newTotal*int64(rf.sectorSize)); err != nil {
		return fmt.Errorf("reclaim truncate: %w", ErrIO)
	}
	for i, e := range rf.header {
		si, sc := splitEntry(e)
		if sc == 0 {
			continue
		}
		if si >= index+count {
			rf.header[i] = packEntry(si-count, sc)
		}
	}
	return rf.flushFullHeader()
}

func (rf *File) flushHeaderEntry(idx int) error {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, rf.header[idx])
	_, err := rf.f.WriteAt(buf, headerOffset()+int64(idx*4))
	if err != nil {
		return fmt.Errorf("flush header entry: %w", ErrIO)
	}
	return nil
}

func (rf *File) flushFullHeader() error {
	buf := make([]byte, len(rf.header)*4)
	for i, e := range rf.header {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], e)
	}
	if _, err := rf.f.WriteAt(buf, headerOffset()); err != nil {
		return fmt.Errorf("flush header: %w", ErrIO)
	}
	return nil
}
