package archive

import "sort"

// EntryInfo describes one file inside an archive.
type EntryInfo struct {
	Name           string
	Size           int64
	CompressedSize int64
}

// Summary is what Inspect reports about an archive.
type Summary struct {
	Manifest *Manifest
	Entries  []EntryInfo
}

// Inspect reads the manifest and lists the entries of an archive without
// decoding documents or points.
func Inspect(data []byte) (*Summary, error) {
	zf, err := openZip(data)
	if err != nil {
		return nil, invalid(err, "not a zip archive")
	}
	m, err := readManifest(zf)
	if err != nil {
		return nil, err
	}

	out := &Summary{Manifest: m, Entries: make([]EntryInfo, 0, len(zf))}
	for name, f := range zf {
		out.Entries = append(out.Entries, EntryInfo{
			Name:           name,
			Size:           int64(f.UncompressedSize64),
			CompressedSize: int64(f.CompressedSize64),
		})
	}
	sort.Slice(out.Entries, func(i, j int) bool { return out.Entries[i].Name < out.Entries[j].Name })
	return out, nil
}

// TotalSize is the sum of the uncompressed entry sizes.
func (s *Summary) TotalSize() int64 {
	var n int64
	for _, e := range s.Entries {
		n += e.Size
	}
	return n
}

// Has reports whether the archive contains the named entry.
func (s *Summary) Has(name string) bool {
	for _, e := range s.Entries {
		if e.Name == name {
			return true
		}
	}
	return false
}
