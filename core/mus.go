package core

import (
	"sort"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for stored domain records, composed from mus-go
// primitives. Map contents are encoded with sorted keys so encoding is
// deterministic for identical values.

// ChunkMUS serializes Chunk values.
var ChunkMUS = chunkMUS{}

// VocabularyMUS serializes Vocabulary values.
var VocabularyMUS = vocabularyMUS{}

type chunkMUS struct{}

func (chunkMUS) Marshal(c Chunk, bs []byte) (n int) {
	n = ord.String.Marshal(c.Id, bs)
	n += ord.String.Marshal(c.Content, bs[n:])
	n += ord.String.Marshal(c.Category, bs[n:])
	n += marshalVector(c.Vector, bs[n:])
	n += marshalTime(c.InsertedAt, bs[n:])
	n += marshalTime(c.UpdatedAt, bs[n:])
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (c Chunk, n int, err error) {
	var n1 int
	if c.Id, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if c.Content, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.Category, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.Vector, n1, err = unmarshalVector(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.InsertedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	return
}

func (chunkMUS) Size(c Chunk) (size int) {
	size = ord.String.Size(c.Id)
	size += ord.String.Size(c.Content)
	size += ord.String.Size(c.Category)
	size += sizeVector(c.Vector)
	size += sizeTime(c.InsertedAt)
	size += sizeTime(c.UpdatedAt)
	return size
}

type vocabularyMUS struct{}

func (vocabularyMUS) Marshal(v Vocabulary, bs []byte) (n int) {
	n = marshalSet(v.Types, bs)
	n += marshalSet(v.Inputs, bs[n:])
	n += marshalSet(v.Enums, bs[n:])
	n += marshalSet(v.Interfaces, bs[n:])
	n += marshalSet(v.Unions, bs[n:])
	n += marshalSet(v.Mutations, bs[n:])
	n += marshalSet(v.Queries, bs[n:])
	n += marshalSet(v.Fields, bs[n:])
	n += marshalSliceMap(v.FieldOwners, bs[n:])
	n += marshalSliceMap(v.Related, bs[n:])
	n += marshalSliceMap(v.Validations, bs[n:])
	n += marshalSliceMap(v.Clusters, bs[n:])
	return n
}

func (vocabularyMUS) Unmarshal(bs []byte) (v Vocabulary, n int, err error) {
	sets := []*map[string]bool{
		&v.Types, &v.Inputs, &v.Enums, &v.Interfaces,
		&v.Unions, &v.Mutations, &v.Queries, &v.Fields,
	}
	var n1 int
	for _, set := range sets {
		if *set, n1, err = unmarshalSet(bs[n:]); err != nil {
			return
		}
		n += n1
	}
	maps := []*map[string][]string{&v.FieldOwners, &v.Related, &v.Validations, &v.Clusters}
	for _, m := range maps {
		if *m, n1, err = unmarshalSliceMap(bs[n:]); err != nil {
			return
		}
		n += n1
	}
	return
}

func (vocabularyMUS) Size(v Vocabulary) (size int) {
	for _, set := range []map[string]bool{
		v.Types, v.Inputs, v.Enums, v.Interfaces,
		v.Unions, v.Mutations, v.Queries, v.Fields,
	} {
		size += sizeSet(set)
	}
	for _, m := range []map[string][]string{v.FieldOwners, v.Related, v.Validations, v.Clusters} {
		size += sizeSliceMap(m)
	}
	return size
}

// Primitive helpers

func marshalTime(t time.Time, bs []byte) int {
	return varint.Uint64.Marshal(uint64(t.UTC().UnixMicro()), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(int64(micros)).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Uint64.Size(uint64(t.UTC().UnixMicro()))
}

func marshalVector(vec []float32, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(len(vec)), bs)
	for _, f := range vec {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func unmarshalVector(bs []byte) (vec []float32, n int, err error) {
	length, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil || length == 0 {
		return nil, n, err
	}
	var n1 int
	vec = make([]float32, length)
	for i := range vec {
		if vec[i], n1, err = raw.Float32.Unmarshal(bs[n:]); err != nil {
			return nil, n, err
		}
		n += n1
	}
	return vec, n, nil
}

func sizeVector(vec []float32) (size int) {
	size = varint.Uint64.Size(uint64(len(vec)))
	for _, f := range vec {
		size += raw.Float32.Size(f)
	}
	return size
}

func marshalStrings(ss []string, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(len(ss)), bs)
	for _, s := range ss {
		n += ord.String.Marshal(s, bs[n:])
	}
	return n
}

func unmarshalStrings(bs []byte) (ss []string, n int, err error) {
	length, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil || length == 0 {
		return nil, n, err
	}
	var n1 int
	ss = make([]string, length)
	for i := range ss {
		if ss[i], n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return nil, n, err
		}
		n += n1
	}
	return ss, n, nil
}

func sizeStrings(ss []string) (size int) {
	size = varint.Uint64.Size(uint64(len(ss)))
	for _, s := range ss {
		size += ord.String.Size(s)
	}
	return size
}

func marshalSet(set map[string]bool, bs []byte) int {
	return marshalStrings(sortedKeys(set), bs)
}

func unmarshalSet(bs []byte) (map[string]bool, int, error) {
	ss, n, err := unmarshalStrings(bs)
	if err != nil {
		return nil, n, err
	}
	set := make(map[string]bool, len(ss))
	for _, s := range ss {
		set[s] = true
	}
	return set, n, nil
}

func sizeSet(set map[string]bool) int {
	return sizeStrings(sortedKeys(set))
}

func marshalSliceMap(m map[string][]string, bs []byte) (n int) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	n = varint.Uint64.Marshal(uint64(len(keys)), bs)
	for _, k := range keys {
		n += ord.String.Marshal(k, bs[n:])
		n += marshalStrings(m[k], bs[n:])
	}
	return n
}

func unmarshalSliceMap(bs []byte) (m map[string][]string, n int, err error) {
	length, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	var n1 int
	m = make(map[string][]string, length)
	for i := uint64(0); i < length; i++ {
		var k string
		if k, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return nil, n, err
		}
		n += n1
		var vals []string
		if vals, n1, err = unmarshalStrings(bs[n:]); err != nil {
			return nil, n, err
		}
		n += n1
		m[k] = vals
	}
	return m, n, nil
}

func sizeSliceMap(m map[string][]string) (size int) {
	size = varint.Uint64.Size(uint64(len(m)))
	for k, vals := range m {
		size += ord.String.Size(k)
		size += sizeStrings(vals)
	}
	return size
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
