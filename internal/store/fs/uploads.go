package fs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/natefinch/atomic"
)

// UploadPath is where file fileID of record id is stored
func UploadPath(dir string, id int64, fileID string) string {
	return filepath.Join(dir, strconv.FormatInt(id, 10), fileID)
}

// SaveUpload copies body into the upload directory of record id and returns
// the stored size. The copy stops as soon as ctx is done and leaves nothing
// behind.
func SaveUpload(ctx context.Context, dir string, id int64, fileID string, body io.Reader) (int64, error) {
	path := UploadPath(dir, id, fileID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, err
	}
	if body == nil {
		body = eofReader{}
	}
	counter := &countingReader{ctx: ctx, r: body}
	if err := atomic.WriteFile(path, counter); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, err
	}
	return counter.n, nil
}

// RemoveUpload deletes one stored file. A missing file is not an error.
func RemoveUpload(dir string, id int64, fileID string) error {
	err := os.Remove(UploadPath(dir, id, fileID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RemoveUploads deletes every file of record id
func RemoveUploads(dir string, id int64) error {
	return os.RemoveAll(filepath.Join(dir, strconv.FormatInt(id, 10)))
}

type countingReader struct {
	ctx context.Context
	r   io.Reader
	n   int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }
