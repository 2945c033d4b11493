package dbclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

type ClientType string

const (
	None  ClientType = "None"
	Kusto ClientType = "Kusto"
)

// DbClient interface for storing patch coverage data.
type DbClient interface {
	Store(context context.Context, data *Data) error
}

// Data is one per-file patch coverage row.
type Data struct {
	PreciseTimestamp time.Time `json:"preciseTimestamp"` // time send to db
	Repository       string    `json:"repository"`       // repository the patch belongs to
	CommitSHA        string    `json:"commitSHA"`        // head commit of the analyzed patch
	FilePath         string    `json:"filePath"`         // changed file path relative to the repository root
	ChangedLines     int64     `json:"changedLines"`     // lines added or modified by the patch
	RelevantLines    int64     `json:"relevantLines"`    // changed lines that are executable
	CoveredLines     int64     `json:"coveredLines"`     // relevant lines executed by the suite
	Coverage         float64   `json:"coverage"`         // CoveredLines / RelevantLines
	SkipReason       string    `json:"skipReason"`       // why the file was excluded from totals, empty when counted

	Extra map[string]interface{} // extra data that passing accordingly
}

var ErrUnsupportedDBType = errors.New(`supportted type are "Kusto", unsupported DB client type`)

type DBOption struct {
	DataCollectionEnabled bool
	DbType                ClientType
	KustoOption           KustoOption
}

func (o *DBOption) Validate() error {
	if !o.DataCollectionEnabled {
		return nil
	}

	if o.DbType == Kusto {
		return o.KustoOption.Validate()
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedDBType, o.DbType)
}

func (o *DBOption) GetDbClient(logger logrus.FieldLogger) (DbClient, error) {
	switch o.DbType {
	case Kusto:
		o.KustoOption.Logger = logger
		return NewKustoClient(&o.KustoOption)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDBType, o.DbType)
	}
}
