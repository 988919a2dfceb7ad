// Package registry maps uploaded payloads to storage paths and
// metadata rows, and enforces the soft/permanent deletion lifecycle
package registry

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"audicore/file-api/model"
	"audicore/file-api/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultLinkExpiry bounds leaked pre-signed links when the caller
// doesn't ask for a specific validity window
const DefaultLinkExpiry = time.Hour

const defaultListLimit = 100

type Registry struct {
	db    *gorm.DB
	store storage.ObjectStore

	// Overridable for tests
	now func() time.Time
}

func New(db *gorm.DB, store storage.ObjectStore) *Registry {
	return &Registry{
		db:    db,
		store: store,
		now:   time.Now,
	}
}

// UploadInput carries everything the client supplies with a payload.
// Folder is used as a raw key prefix and is not normalized against
// path-escape sequences, that's on the caller.
type UploadInput struct {
	Content      []byte
	OriginalName string
	ContentType  string
	UploadedBy   string
	Tags         string
	Folder       string
}

// Upload writes the payload to the object store under a freshly
// generated key and records a metadata row for it.
//
// The two writes are not transactional: if the metadata insert fails
// after the blob write succeeded, the blob is left orphaned with no
// compensating delete. Matches the reference behavior.
func (r *Registry) Upload(ctx context.Context, in UploadInput) (*model.File, error) {
	if len(in.Content) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrValidation)
	}

	if in.OriginalName == "" {
		return nil, fmt.Errorf("%w: missing file name", ErrValidation)
	}

	if in.ContentType == "" {
		in.ContentType = "application/octet-stream"
	}

	storedName := uuid.New().String() + path.Ext(in.OriginalName)

	storagePath := storedName
	if in.Folder != "" {
		storagePath = in.Folder + "/" + storedName
	}

	size := int64(len(in.Content))

	err := r.store.Put(ctx, storagePath, bytes.NewReader(in.Content), size, in.ContentType)
	if err != nil {
		if errors.Is(err, storage.ErrObjectExists) {
			return nil, ErrAlreadyExists
		}

		return nil, storeErr("upload", storagePath, err)
	}

	file := &model.File{
		ID:           uuid.New().String(),
		OriginalName: in.OriginalName,
		StoredName:   storedName,
		StoragePath:  storagePath,
		URL:          r.store.URL(storagePath),
		Size:         size,
		ContentType:  in.ContentType,
		Container:    r.store.Container(),
		Account:      r.store.Account(),
		UploadedAt:   r.now(),
		UploadedBy:   in.UploadedBy,
		Tags:         in.Tags,
		Active:       true,
	}

	if err := r.db.WithContext(ctx).Create(file).Error; err != nil {
		zap.L().Error("Blob stored but metadata insert failed, blob orphaned",
			zap.String("storage_path", storagePath),
			zap.Error(err))

		return nil, storeErr("insert metadata", file.ID, err)
	}

	return file, nil
}

// UploadBase64 decodes a text-encoded payload and uploads it. A decode
// failure is reported as ErrEncoding, distinct from any upload error.
func (r *Registry) UploadBase64(ctx context.Context, encoded string, in UploadInput) (*model.File, error) {
	content, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}

	in.Content = content
	return r.Upload(ctx, in)
}

// Lookup returns the metadata row only while it is active. Soft-deleted
// rows are reported as ErrNotFound.
func (r *Registry) Lookup(ctx context.Context, id string) (*model.File, error) {
	var file model.File

	err := r.db.WithContext(ctx).
		Where("id = ? AND active = ?", id, true).
		First(&file).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, storeErr("lookup", id, err)
	}

	return &file, nil
}

// DownloadResult is the full blob content plus the headers a caller
// needs to serve it.
type DownloadResult struct {
	Content      []byte
	OriginalName string
	ContentType  string
	Size         int64
}

func (r *Registry) Download(ctx context.Context, id string) (*DownloadResult, error) {
	file, err := r.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	body, err := r.store.Get(ctx, file.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectMissing) {
			// Metadata says the blob should be there. Inconsistent state,
			// surfaced distinctly from a plain missing record
			return nil, ErrNotFoundInStore
		}

		return nil, storeErr("download", file.StoragePath, err)
	}
	defer body.Close()

	content, err := io.ReadAll(body)
	if err != nil {
		return nil, storeErr("download", file.StoragePath, err)
	}

	return &DownloadResult{
		Content:      content,
		OriginalName: file.OriginalName,
		ContentType:  file.ContentType,
		Size:         int64(len(content)),
	}, nil
}

// DownloadLink is a time-bounded capability URL. ExpiresAt is computed
// from the registry clock and is advisory, the store enforces the real
// expiry embedded in the token.
type DownloadLink struct {
	URL          string    `json:"url"`
	OriginalName string    `json:"original_name"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (r *Registry) DownloadURL(ctx context.Context, id string, expires time.Duration) (*DownloadLink, error) {
	if expires <= 0 {
		expires = DefaultLinkExpiry
	}

	file, err := r.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	url, err := r.store.SignedURL(ctx, file.StoragePath, expires)
	if err != nil {
		return nil, storeErr("sign url", file.StoragePath, err)
	}

	return &DownloadLink{
		URL:          url,
		OriginalName: file.OriginalName,
		ExpiresAt:    r.now().Add(expires),
	}, nil
}

// SoftDelete hides the record from lookups. The blob stays in the
// object store untouched. A second call finds nothing and reports
// ErrNotFound.
func (r *Registry) SoftDelete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(model.File{}).
		Where("id = ? AND active = ?", id, true).
		Update("active", false)
	if res.Error != nil {
		return storeErr("soft delete", id, res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// HardDelete removes both the blob and the metadata row. Only reaches
// active records: a soft-deleted record is invisible to Lookup and
// needs Purge instead.
//
// Blob delete and row delete are two separate writes with no
// transaction across them. A failure in between leaves an inconsistent
// state that is surfaced but not reconciled.
func (r *Registry) HardDelete(ctx context.Context, id string) error {
	file, err := r.Lookup(ctx, id)
	if err != nil {
		return err
	}

	return r.purge(ctx, file)
}

// Purge is the administrative bypass: it removes the blob and the row
// regardless of the active flag, so soft-deleted records can still be
// cleaned up. Not routed over HTTP.
func (r *Registry) Purge(ctx context.Context, id string) error {
	var file model.File

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&file).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}

		return storeErr("purge", id, err)
	}

	return r.purge(ctx, &file)
}

func (r *Registry) purge(ctx context.Context, file *model.File) error {
	if err := r.store.Delete(ctx, file.StoragePath); err != nil {
		return storeErr("delete blob", file.StoragePath, err)
	}

	if err := r.db.WithContext(ctx).Delete(model.File{}, "id = ?", file.ID).Error; err != nil {
		zap.L().Error("Blob deleted but metadata row remains",
			zap.String("id", file.ID),
			zap.Error(err))

		return storeErr("delete metadata", file.ID, err)
	}

	return nil
}

// ListQuery paginates over active records. Folder restricts results to
// storage paths under that prefix.
type ListQuery struct {
	Limit  int
	Offset int
	Folder string
}

// List returns active records newest-first. Pagination is plain
// limit/offset with no stability guarantee across concurrent inserts.
func (r *Registry) List(ctx context.Context, q ListQuery) ([]model.FileSummary, error) {
	if q.Limit <= 0 {
		q.Limit = defaultListLimit
	}

	if q.Offset < 0 {
		q.Offset = 0
	}

	tx := r.db.WithContext(ctx).
		Model(model.File{}).
		Where("active = ?", true)

	if q.Folder != "" {
		tx = tx.Where("storage_path LIKE ?", q.Folder+"/%")
	}

	summaries := []model.FileSummary{}

	err := tx.
		Order("uploaded_at DESC").
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&summaries).
		Error
	if err != nil {
		return nil, storeErr("list", q.Folder, err)
	}

	return summaries, nil
}
