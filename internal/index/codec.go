package index

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"

	"cardsight/internal/fileutil"
	"cardsight/internal/services"
)

// FormatVersion is the artifact layout version written by this build. Loading
// any other version fails.
const FormatVersion uint16 = 1

var magic = [8]byte{'C', 'S', 'I', 'D', 'X', 0, 0, 1}

// annWire is the encoded form of a DescriptorIndex.
type annWire struct {
	Config ANNConfig
	Tables []lshTable
}

// Write encodes idx to w.
func Write(w io.Writer, idx *Index) error {
	if _, err := w.Write(magic[:]); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, FormatVersion); err != nil {
		return fmt.Errorf("write version: %w", err)
	}

	compressor := gzip.NewWriter(w)
	encoder := gob.NewEncoder(compressor)

	if err := encoder.Encode(idx.meta); err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	if err := encoder.Encode(len(idx.entries)); err != nil {
		return fmt.Errorf("encode entry count: %w", err)
	}
	for i := range idx.entries {
		if err := encoder.Encode(&idx.entries[i]); err != nil {
			return fmt.Errorf("encode entry %s: %w", idx.entries[i].Card.ID, err)
		}
	}
	if err := encoder.Encode(annWire{Config: idx.ann.cfg, Tables: idx.ann.tables}); err != nil {
		return fmt.Errorf("encode descriptor index: %w", err)
	}
	if err := compressor.Close(); err != nil {
		return fmt.Errorf("flush compressor: %w", err)
	}
	return nil
}

// Save writes idx atomically to path; the previous artifact stays in place
// until the new one is complete.
func Save(path string, idx *Index) (fileutil.Digest, error) {
	digest, err := fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		if err := Write(bw, idx); err != nil {
			return err
		}
		return bw.Flush()
	})
	if err != nil {
		return fileutil.Digest{}, fmt.Errorf("save index %s: %w", path, err)
	}
	return digest, nil
}

// Load reads an artifact from disk.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrIndexUnavailable, "index", "load", "open artifact", err)
	}
	defer f.Close()
	return Decode(bufio.NewReader(f))
}

// Decode reads an artifact from r.
func Decode(r io.Reader) (*Index, error) {
	s, err := openStream(r)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	decoder := s.decoder

	var meta Meta
	if err := decoder.Decode(&meta); err != nil {
		return nil, corrupt("decode meta", err)
	}
	var count int
	if err := decoder.Decode(&count); err != nil {
		return nil, corrupt("decode entry count", err)
	}
	if count < 0 || count != meta.Cards {
		return nil, inconsistent(fmt.Errorf("entry count %d does not match meta %d", count, meta.Cards))
	}
	entries := make([]Entry, count)
	for i := range entries {
		if err := decoder.Decode(&entries[i]); err != nil {
			return nil, corrupt(fmt.Sprintf("decode entry %d", i), err)
		}
	}
	var wire annWire
	if err := decoder.Decode(&wire); err != nil {
		return nil, corrupt("decode descriptor index", err)
	}
	// Reading to EOF makes gzip verify its checksum.
	if _, err := io.Copy(io.Discard, s.buffered); err != nil {
		return nil, corrupt("verify checksum", err)
	}

	ann := &DescriptorIndex{cfg: wire.Config, tables: wire.Tables}
	idx, err := newIndex(meta, entries, ann, wire.Config)
	if err != nil {
		return nil, inconsistent(err)
	}
	return idx, nil
}

// ReadMeta reads only the header and metadata of an artifact.
func ReadMeta(path string) (Meta, error) {
	f, err := os.Open(path)
	if err != nil {
		return Meta{}, services.Wrap(services.ErrIndexUnavailable, "index", "read_meta", "open artifact", err)
	}
	defer f.Close()

	s, err := openStream(bufio.NewReader(f))
	if err != nil {
		return Meta{}, err
	}
	defer s.Close()

	var meta Meta
	if err := s.decoder.Decode(&meta); err != nil {
		return Meta{}, corrupt("decode meta", err)
	}
	return meta, nil
}

type stream struct {
	decompressor *gzip.Reader
	buffered     *bufio.Reader
	decoder      *gob.Decoder
}

func (s *stream) Close() error {
	return s.decompressor.Close()
}

func openStream(r io.Reader) (*stream, error) {
	var header [len(magic)]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, corrupt("read magic", err)
	}
	if !bytes.Equal(header[:], magic[:]) {
		return nil, services.Wrap(services.ErrIndexUnavailable, "index", "decode", "not a cardsight index", nil)
	}
	var version uint16
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, corrupt("read version", err)
	}
	if version != FormatVersion {
		return nil, services.Wrap(services.ErrIndexUnavailable, "index", "decode",
			fmt.Sprintf("unsupported format version %d (want %d)", version, FormatVersion), nil)
	}
	decompressor, err := gzip.NewReader(r)
	if err != nil {
		return nil, corrupt("open decompressor", err)
	}
	buffered := bufio.NewReader(decompressor)
	return &stream{decompressor: decompressor, buffered: buffered, decoder: gob.NewDecoder(buffered)}, nil
}

func corrupt(msg string, err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return services.Wrap(services.ErrIndexUnavailable, "index", "decode", msg, err)
}
