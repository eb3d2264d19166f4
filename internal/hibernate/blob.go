package hibernate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kode4food/timebox"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/kode4food/nagme/pkg/api"

	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
)

// BlobStore persists cold task data in a gocloud.dev bucket: hibernated
// aggregate records for the event store, and final-state snapshots for
// archived tasks. S3, GCS, Azure Blob Storage, and S3-compatible stores
// are supported through their URL schemes
type BlobStore struct {
	bucket *blob.Bucket
}

const (
	hibernatePrefix = "hibernate/"
	archivePrefix   = "archive/"
)

var _ timebox.Hibernator = (*BlobStore)(nil)

var ErrTaskNotArchived = errors.New("task not archived")

// Open connects a BlobStore to the bucket named by a gocloud URL
func Open(ctx context.Context, bucketURL string) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, err
	}
	return &BlobStore{bucket: bucket}, nil
}

// Get loads a hibernated aggregate record
func (s *BlobStore) Get(
	ctx context.Context, id timebox.AggregateID,
) (*timebox.HibernateRecord, error) {
	data, err := s.bucket.ReadAll(ctx, hibernateKey(id))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, timebox.ErrHibernateNotFound
		}
		return nil, err
	}

	var record timebox.HibernateRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Put stores a hibernated aggregate record
func (s *BlobStore) Put(
	ctx context.Context, id timebox.AggregateID, rec *timebox.HibernateRecord,
) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.bucket.WriteAll(ctx, hibernateKey(id), data, nil)
}

// Delete removes a hibernated aggregate record. Deleting a record that was
// never written is not an error
func (s *BlobStore) Delete(ctx context.Context, id timebox.AggregateID) error {
	err := s.bucket.Delete(ctx, hibernateKey(id))
	if err != nil && gcerrors.Code(err) == gcerrors.NotFound {
		return nil
	}
	return err
}

// ArchiveTask writes a task's final state under the archive prefix,
// returning the key it was stored at. Archive snapshots and hibernation
// records share the bucket without colliding
func (s *BlobStore) ArchiveTask(
	ctx context.Context, st *api.TaskState,
) (string, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return "", err
	}
	key := archiveKey(st.ID)
	if err := s.bucket.WriteAll(ctx, key, data, nil); err != nil {
		return "", err
	}
	return key, nil
}

// ReadArchivedTask loads the final-state snapshot of an archived task
func (s *BlobStore) ReadArchivedTask(
	ctx context.Context, id api.TaskID,
) (*api.TaskState, error) {
	data, err := s.bucket.ReadAll(ctx, archiveKey(id))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrTaskNotArchived, id)
		}
		return nil, err
	}

	var st api.TaskState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *BlobStore) Close() error {
	return s.bucket.Close()
}

func hibernateKey(id timebox.AggregateID) string {
	return hibernatePrefix + id.Join("/") + ".json"
}

func archiveKey(id api.TaskID) string {
	return archivePrefix + string(id) + ".json"
}
