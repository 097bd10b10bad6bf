package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	wdberrors "github.com/nan-gameware/wowdb/internal/errors"
	"github.com/nan-gameware/wowdb/internal/ident"
	"github.com/nan-gameware/wowdb/internal/metrics"
)

// maxErrorBody limits how much of a failed response ends up in the error.
const maxErrorBody = 512

// Request identifies one table export.
type Request struct {
	Table   string
	Version string
	// Locale is forwarded as-is; empty omits the parameter.
	Locale string
	// Dir receives <Table>.csv.
	Dir string
}

// Path returns the local file the request downloads to.
func (r Request) Path() string {
	return filepath.Join(r.Dir, r.Table+".csv")
}

// Fetch downloads the table export and returns the local file path.
// A 404 is reported as a NotFoundError, anything else as a TransportError.
func (c *Client) Fetch(ctx context.Context, req Request) (string, error) {
	if !ident.Valid(req.Table) {
		return "", wdberrors.NewInvalidNameError(req.Table)
	}

	endpoint, err := c.exportURL(req)
	if err != nil {
		return "", err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", err
	}

	c.logger.Info("Downloading table", "table", req.Table, "version", req.Version)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.Fetch(metrics.FetchFailed)
		return "", wdberrors.NewTransportError(endpoint, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.metrics.Fetch(metrics.FetchNotFound)
		return "", wdberrors.NewNotFoundError(req.Table, req.Version)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.Fetch(metrics.FetchFailed)
		return "", wdberrors.NewTransportError(endpoint, resp.StatusCode, bodySnippet(resp.Body))
	}

	path := req.Path()
	if err := writeFile(path, resp.Body); err != nil {
		c.metrics.Fetch(metrics.FetchFailed)
		return "", wdberrors.NewTransportError(endpoint, resp.StatusCode, err)
	}

	c.metrics.Fetch(metrics.FetchDownloaded)
	c.logger.Debug("Downloaded table", "table", req.Table, "path", path)
	return path, nil
}

func (c *Client) exportURL(req Request) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", wdberrors.NewConfigError("export url", c.baseURL, err.Error())
	}
	q := u.Query()
	q.Set("name", req.Table)
	q.Set("build", req.Version)
	if req.Locale != "" {
		q.Set("locale", req.Locale)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// writeFile streams body into path via a .part file so an interrupted
// download never leaves a truncated CSV behind.
func writeFile(path string, body io.Reader) (err error) {
	part := path + ".part"
	f, err := os.Create(part)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", part, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(part)
		}
	}()

	if _, err = io.Copy(f, body); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", part, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", part, err)
	}
	if err = os.Rename(part, path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", part, err)
	}
	return nil
}

func bodySnippet(body io.Reader) error {
	data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil
	}
	return errors.New(text)
}
