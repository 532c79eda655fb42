package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"cmsrag/internal/domain"
)

// DBFileName is the bbolt file inside an index directory.
const DBFileName = "index.db"

var (
	bucketChunks  = []byte("chunks")
	bucketVectors = []byte("vectors")
	bucketMeta    = []byte("meta")
	keyIndexInfo  = []byte("index_info")
)

type storedVector struct {
	Vector []float32 `json:"v"`
}

// DBPath returns the bbolt file path for an index directory.
func DBPath(dir string) string {
	return filepath.Join(dir, DBFileName)
}

func seqKey(seq int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(seq))
	return key
}

// Writer fills a new index directory. Nothing it writes is visible at the
// live index location until the directory is swapped in.
type Writer struct {
	db        *bbolt.DB
	dir       string
	dimension int
	count     int
}

// CreateWriter creates dir and an empty index file inside it.
func CreateWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := bbolt.Open(DBPath(dir), 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketChunks, bucketVectors, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Writer{db: db, dir: dir}, nil
}

// PutBatch stores chunks with their vectors in one transaction.
func (w *Writer) PutBatch(chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks but %d vectors", domain.ErrInvalidInput, len(chunks), len(vectors))
	}
	dim := w.dimension
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("%w: empty vector for chunk %d", domain.ErrInvalidInput, chunks[i].Seq)
		}
		if dim == 0 {
			dim = len(v)
		}
		if len(v) != dim {
			return fmt.Errorf("vector dimension mismatch: expected %d, got %d", dim, len(v))
		}
	}

	err := w.db.Update(func(tx *bbolt.Tx) error {
		cb := tx.Bucket(bucketChunks)
		vb := tx.Bucket(bucketVectors)

		for i, chunk := range chunks {
			key := seqKey(chunk.Seq)

			chunkData, err := json.Marshal(chunk)
			if err != nil {
				return err
			}
			if err := cb.Put(key, chunkData); err != nil {
				return err
			}

			vecData, err := json.Marshal(storedVector{Vector: vectors[i]})
			if err != nil {
				return err
			}
			if err := vb.Put(key, vecData); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write batch: %w", err)
	}

	w.dimension = dim
	w.count += len(chunks)
	return nil
}

// Count returns the number of chunks written so far.
func (w *Writer) Count() int {
	return w.count
}

// Dimension returns the vector dimension seen so far, 0 before any write.
func (w *Writer) Dimension() int {
	return w.dimension
}

// Finish records info and closes the file. It fails if the stored count
// differs from info.ChunkCount.
func (w *Writer) Finish(info domain.IndexInfo) error {
	defer w.db.Close()

	if info.ChunkCount != w.count {
		return fmt.Errorf("index holds %d chunks, expected %d", w.count, info.ChunkCount)
	}
	info.SchemaVersion = CurrentSchemaVersion
	info.Dimension = w.dimension

	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	err = w.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(keyIndexInfo, data)
	})
	if err != nil {
		return fmt.Errorf("failed to write index info: %w", err)
	}
	return w.db.Close()
}

// Abort closes the file without recording index info.
func (w *Writer) Abort() error {
	return w.db.Close()
}

// Open loads the index in dir into memory and releases the file.
func Open(dir string) (*Index, error) {
	path := DBPath(dir)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, dir)
		}
		return nil, fmt.Errorf("failed to stat index: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	defer db.Close()

	idx := &Index{}
	err = db.View(func(tx *bbolt.Tx) error {
		info, err := readInfo(tx)
		if err != nil {
			return err
		}
		if err := checkSchema(info); err != nil {
			return err
		}
		idx.info = info

		cb := tx.Bucket(bucketChunks)
		vb := tx.Bucket(bucketVectors)
		if cb == nil || vb == nil {
			return fmt.Errorf("%w: missing buckets in %s", domain.ErrIndexNotFound, dir)
		}

		return cb.ForEach(func(k, v []byte) error {
			var chunk domain.Chunk
			if err := json.Unmarshal(v, &chunk); err != nil {
				return fmt.Errorf("failed to decode chunk: %w", err)
			}
			var stored storedVector
			vecData := vb.Get(k)
			if vecData == nil {
				return fmt.Errorf("missing vector for chunk %d", chunk.Seq)
			}
			if err := json.Unmarshal(vecData, &stored); err != nil {
				return fmt.Errorf("failed to decode vector: %w", err)
			}
			idx.entries = append(idx.entries, vectorEntry{chunk: chunk, vector: stored.Vector})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(idx.entries, func(i, j int) bool {
		return idx.entries[i].chunk.Seq < idx.entries[j].chunk.Seq
	})
	if len(idx.entries) != idx.info.ChunkCount {
		return nil, fmt.Errorf("index is incomplete: %d of %d chunks", len(idx.entries), idx.info.ChunkCount)
	}

	return idx, nil
}

// ReadInfo returns the recorded index info without loading vectors.
func ReadInfo(dir string) (domain.IndexInfo, error) {
	path := DBPath(dir)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return domain.IndexInfo{}, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, dir)
		}
		return domain.IndexInfo{}, fmt.Errorf("failed to stat index: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		return domain.IndexInfo{}, fmt.Errorf("failed to open bolt db: %w", err)
	}
	defer db.Close()

	var info domain.IndexInfo
	err = db.View(func(tx *bbolt.Tx) error {
		info, err = readInfo(tx)
		return err
	})
	return info, err
}

func readInfo(tx *bbolt.Tx) (domain.IndexInfo, error) {
	var info domain.IndexInfo
	b := tx.Bucket(bucketMeta)
	if b == nil {
		return info, fmt.Errorf("%w: no metadata bucket", domain.ErrIndexNotFound)
	}
	data := b.Get(keyIndexInfo)
	if data == nil {
		// written by an interrupted build
		return info, fmt.Errorf("%w: index was never completed", domain.ErrIndexNotFound)
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, fmt.Errorf("failed to decode index info: %w", err)
	}
	return info, nil
}
