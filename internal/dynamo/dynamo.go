// Package dynamo loads attribute sets from DynamoDB.
//
// Items are read in two shapes. Plain items are raw data: their attributes are
// decoded and handed to a builder, as data read from a persistence layer.
// Snapshot items hold an encoded set under the entries attribute and restore
// it exactly.
package dynamo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dball/lazyattrs/internal/attribute"
	"github.com/dball/lazyattrs/internal/attrset"
	"github.com/dball/lazyattrs/internal/builder"
	"github.com/dball/lazyattrs/internal/sys"
	. "github.com/dball/lazyattrs/internal/types"
)

// Error codes for dynamo failures.
const (
	NotFound   = "dynamo.notFound"
	Malformed  = "dynamo.malformed"
	InvalidKey = "dynamo.invalidKey"
)

// entries is the item attribute that holds a snapshot's entries.
const entries = "entries"

// GetItemAPI is the part of the DynamoDB client the loader uses.
type GetItemAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// ItemAPI is the part of the DynamoDB client the snapshot store uses.
type ItemAPI interface {
	GetItemAPI
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

var _ ItemAPI = (*dynamodb.Client)(nil)

func withJSONTags(o *attributevalue.EncoderOptions) {
	o.TagKey = "json"
}

// MarshalItem encodes the portable form of a snapshot as an item.
func MarshalItem(snapshot attrset.Snapshot) (item map[string]types.AttributeValue, err error) {
	portable, err := snapshot.Portable()
	if err != nil {
		return
	}
	item, err = attributevalue.MarshalMapWithOptions(portable, withJSONTags)
	if err != nil {
		err = fmt.Errorf("marshal snapshot: %w", err)
	}
	return
}

// UnmarshalItem decodes a snapshot item. Attributes other than entries, such
// as the item's key, are ignored.
func UnmarshalItem(item map[string]types.AttributeValue) (snapshot attrset.Snapshot, err error) {
	if _, ok := item[entries]; !ok {
		err = NewError(Malformed, "missing", entries)
		return
	}
	err = attributevalue.UnmarshalMapWithOptions(item, &snapshot, func(o *attributevalue.DecoderOptions) {
		o.TagKey = "json"
	})
	if err != nil {
		err = fmt.Errorf("%w: %v", NewError(Malformed), err)
	}
	return
}

// Loader builds sets from plain items.
type Loader struct {
	Client  GetItemAPI
	Table   string
	Builder *builder.Builder
	Logger  *slog.Logger
}

// Load reads the item with the key and builds a set from its attributes.
func (loader *Loader) Load(ctx context.Context, key map[string]types.AttributeValue) (set *attrset.Set, err error) {
	logger := loader.Logger
	if logger == nil {
		logger = slog.Default()
	}
	result, err := loader.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(loader.Table),
		Key:       key,
	})
	if err != nil {
		err = fmt.Errorf("get item: %w", err)
		logger.ErrorContext(ctx, "load failed", "table", loader.Table, "error", err)
		return
	}
	if result.Item == nil {
		err = NewError(NotFound, "table", loader.Table)
		return
	}
	raw := map[string]any{}
	if err = attributevalue.UnmarshalMap(result.Item, &raw); err != nil {
		err = fmt.Errorf("%w: %v", NewError(Malformed, "table", loader.Table), err)
		return
	}
	set = loader.Builder.Build(raw, nil)
	logger.InfoContext(ctx, "loaded attribute set", "table", loader.Table, "item", len(result.Item), "attributes", set.Len())
	return
}

// Snapshots stores sets as snapshot items.
type Snapshots struct {
	Client ItemAPI
	Table  string
	// Registry resolves type idents, the process registry if nil.
	Registry attribute.Resolver
	// Degree is the btree degree of the restored sets.
	Degree int
}

// Put stores the set in the item with the key. The key may not use the
// entries attribute.
func (store *Snapshots) Put(ctx context.Context, key map[string]types.AttributeValue, set *attrset.Set) (err error) {
	if _, ok := key[entries]; ok {
		err = NewError(InvalidKey, "table", store.Table, "attribute", entries)
		return
	}
	item, err := MarshalItem(set.Snapshot())
	if err != nil {
		return
	}
	for name, value := range key {
		item[name] = value
	}
	_, err = store.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(store.Table),
		Item:      item,
	})
	if err != nil {
		err = fmt.Errorf("put item: %w", err)
	}
	return
}

// Get restores the set stored in the item with the key.
func (store *Snapshots) Get(ctx context.Context, key map[string]types.AttributeValue) (set *attrset.Set, err error) {
	result, err := store.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(store.Table),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		err = fmt.Errorf("get item: %w", err)
		return
	}
	if result.Item == nil {
		err = NewError(NotFound, "table", store.Table)
		return
	}
	snapshot, err := UnmarshalItem(result.Item)
	if err != nil {
		return
	}
	var registry attribute.Resolver = sys.Default()
	if store.Registry != nil {
		registry = store.Registry
	}
	set, err = attrset.Restore(snapshot, registry, store.Degree)
	return
}
