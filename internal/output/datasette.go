package output

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/nan-gameware/wowdb/internal/datastore"
	wdberrors "github.com/nan-gameware/wowdb/internal/errors"
)

const defaultDatasetteDatabase = "wowdb"

type DatasetteOptions struct {
	URL      string `yaml:"url"`
	Token    string `yaml:"token"`
	Database string `yaml:"database"`
	Table    string `yaml:"table"`
}

// DatasetteRenderer publishes an object's rows to Datasette and writes a
// one-line summary.
type DatasetteRenderer struct {
	name     string
	database string
	table    string
	client   *datastore.DatasetteClient
	logger   *slog.Logger
}

// NewDatasette creates a publishing output. httpClient may be nil.
func NewDatasette(name string, opts DatasetteOptions, httpClient datastore.HTTPDoer, logger *slog.Logger) (*DatasetteRenderer, error) {
	if opts.URL == "" {
		return nil, wdberrors.NewConfigError("datasette url", name, "url is required")
	}
	client, err := datastore.NewDatasetteClient(opts.URL, opts.Token, datastore.WithHTTPClient(httpClient))
	if err != nil {
		return nil, wdberrors.NewConfigError("datasette url", opts.URL, err.Error())
	}
	if opts.Database == "" {
		opts.Database = defaultDatasetteDatabase
	}
	if opts.Table == "" {
		opts.Table = name
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetteRenderer{
		name:     name,
		database: opts.Database,
		table:    opts.Table,
		client:   client,
		logger:   logger,
	}, nil
}

func (r *DatasetteRenderer) Render(ctx context.Context, src Source, w io.Writer) error {
	res, err := src.Query(ctx, r.name)
	if err != nil {
		return err
	}
	r.logger.Info("Publishing to Datasette", "database", r.database, "table", r.table, "rows", res.Len())
	if err := r.client.Insert(ctx, r.database, r.table, rowMaps(res)); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Inserted %d rows into %s/%s\n", res.Len(), r.database, r.table)
	return err
}
