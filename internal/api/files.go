package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/rescale/pdrive/internal/constants"
	"github.com/rescale/pdrive/internal/models"
	"github.com/rescale/pdrive/internal/util/buffers"
	"github.com/rescale/pdrive/internal/util/format"
)

// GetFile returns one file's metadata.
func (c *Client) GetFile(ctx context.Context, id int64) (*models.File, error) {
	var file models.File
	if err := c.doJSON(ctx, "get file", "GET", fmt.Sprintf("/files/%d", id), nil, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// UpdateFile applies a partial update (rename and/or move).
func (c *Client) UpdateFile(ctx context.Context, id int64, req models.UpdateFileRequest) (*models.File, error) {
	var file models.File
	if err := c.doJSON(ctx, "update file", "PATCH", fmt.Sprintf("/files/%d", id), req, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// RenameFile renames a file.
func (c *Client) RenameFile(ctx context.Context, id int64, name string) (*models.File, error) {
	return c.UpdateFile(ctx, id, models.UpdateFileRequest{Name: models.StringPtr(name)})
}

// MoveFile moves a file to another folder.
func (c *Client) MoveFile(ctx context.Context, id, folderID int64) (*models.File, error) {
	return c.UpdateFile(ctx, id, models.UpdateFileRequest{FolderID: models.Int64Ptr(folderID)})
}

// DeleteFile deletes a file.
func (c *Client) DeleteFile(ctx context.Context, id int64) error {
	return c.doJSON(ctx, "delete file", "DELETE", fmt.Sprintf("/files/%d", id), nil, nil,
		nethttp.StatusOK, nethttp.StatusNoContent)
}

// UploadFile uploads the local file at path into folderID as a multipart form
// with a single "file" part. The body is streamed from disk and rebuilt on
// every retry attempt.
func (c *Client) UploadFile(ctx context.Context, folderID int64, path string) (*models.FileUploadResponse, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}
	name := filepath.Base(path)
	return c.upload(ctx, folderID, name, func() (io.ReadCloser, error) {
		return os.Open(path)
	})
}

// UploadReader uploads content read from open, which is called once per attempt.
func (c *Client) UploadReader(ctx context.Context, folderID int64, name string, open func() (io.ReadCloser, error)) (*models.FileUploadResponse, error) {
	return c.upload(ctx, folderID, name, open)
}

func (c *Client) upload(ctx context.Context, folderID int64, name string, open func() (io.ReadCloser, error)) (*models.FileUploadResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter cancelled: %w", err)
	}
	path := fmt.Sprintf("/files/upload/?folder_id=%d", folderID)
	c.track("POST", "/files/upload/")

	boundary := multipart.NewWriter(io.Discard).Boundary()
	body := retryablehttp.ReaderFunc(func() (io.Reader, error) {
		return multipartBody(boundary, name, open), nil
	})

	req, err := retryablehttp.NewRequestWithContext(ctx, "POST", c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("file", name).Int64("folder_id", folderID).Msg("Uploading")
	resp, err := c.transfer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}
	defer resp.Body.Close()

	var uploaded models.FileUploadResponse
	if err := decodeResponse("upload file", resp, &uploaded, nethttp.StatusOK, nethttp.StatusCreated); err != nil {
		return nil, err
	}
	return &uploaded, nil
}

// lazyPipe starts its writer on the first Read, so a body that is built but
// never sent does not leave a goroutine behind.
type lazyPipe struct {
	once  sync.Once
	write func(*io.PipeWriter)
	pr    *io.PipeReader
}

func (l *lazyPipe) Read(p []byte) (int, error) {
	l.once.Do(func() {
		var pw *io.PipeWriter
		l.pr, pw = io.Pipe()
		go l.write(pw)
	})
	if l.pr == nil {
		return 0, io.ErrClosedPipe
	}
	return l.pr.Read(p)
}

func (l *lazyPipe) Close() error {
	started := true
	l.once.Do(func() { started = false })
	if !started {
		return nil
	}
	return l.pr.Close()
}

// multipartBody streams a one-part multipart form through a pipe. The writer
// goroutine exits when the body is fully written or the reader is closed.
func multipartBody(boundary, name string, open func() (io.ReadCloser, error)) io.ReadCloser {
	return &lazyPipe{write: func(pw *io.PipeWriter) {
		mw := multipart.NewWriter(pw)
		if err := mw.SetBoundary(boundary); err != nil {
			pw.CloseWithError(err)
			return
		}
		src, err := open()
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		defer src.Close()

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			constants.UploadFormField, escapeQuotes(name)))
		header.Set("Content-Type", format.ContentType(name))
		part, err := mw.CreatePart(header)
		if err != nil {
			pw.CloseWithError(err)
			return
		}

		buf := buffers.GetCopyBuffer()
		defer buffers.PutCopyBuffer(buf)
		if _, err := io.CopyBuffer(part, src, *buf); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// Download opens the body of a file for reading. downloadURL may be relative
// to the configured origin. The caller must close the returned reader. size is
// -1 when the server does not report a length.
func (c *Client) Download(ctx context.Context, downloadURL string) (body io.ReadCloser, size int64, err error) {
	resolved, err := c.config.ResolveURL(downloadURL)
	if err != nil {
		return nil, 0, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limiter cancelled: %w", err)
	}
	c.track("GET", downloadURL)

	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", resolved, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := c.transfer.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("download: %w", err)
	}
	if resp.StatusCode != nethttp.StatusOK {
		defer resp.Body.Close()
		return nil, 0, newAPIError("download file", resp)
	}
	return resp.Body, resp.ContentLength, nil
}

// ResolveDownloadURL returns the absolute URL of a file's content.
func (c *Client) ResolveDownloadURL(file *models.File) (string, error) {
	return c.config.ResolveURL(file.DownloadURL)
}
