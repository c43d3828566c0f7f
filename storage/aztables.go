package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
)

const recordRowKey = "record"

// TableKV backs the KV port with Azure Table Storage. Each key maps to a
// single entity whose Value property holds the serialized record.
type TableKV struct {
	table *aztables.Client
}

// NewTableKV creates a TableKV from the given connection string and table
// name.
func NewTableKV(connStr, tableName string) (*TableKV, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &TableKV{table: svc.NewClient(tableName)}, nil
}

type recordEntity struct {
	aztables.Entity
	Value string `json:"Value"`
}

func (t *TableKV) Get(ctx context.Context, key string) (string, bool, error) {
	resp, err := t.table.GetEntity(ctx, key, recordRowKey, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == 404 {
			return "", false, nil
		}
		return "", false, err
	}
	value, err := decodeRecordEntity(resp.Value)
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (t *TableKV) Set(ctx context.Context, key string, value string) error {
	ent := recordEntity{
		Entity: aztables.Entity{PartitionKey: key, RowKey: recordRowKey},
		Value:  value,
	}
	data, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = t.table.UpsertEntity(ctx, data, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	return err
}

func decodeRecordEntity(data []byte) (string, error) {
	var ent recordEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return "", err
	}
	return ent.Value, nil
}
