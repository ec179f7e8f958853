// Package dynamo stores documents in a single DynamoDB table keyed by
// PK (collection path) and SK (document id). Document fields are stored
// as native attributes so counters can be updated with ADD.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/ignite/settlement-desk/internal/config"
	"github.com/ignite/settlement-desk/internal/docstore"
	"github.com/ignite/settlement-desk/internal/pkg/logger"
	"github.com/shopspring/decimal"
)

const (
	keyPK = "PK"
	keySK = "SK"

	// floor retries when a concurrent writer keeps moving the counter
	// between the conditional add and the reset to zero.
	maxFloorAttempts = 5
)

// API is the subset of the DynamoDB client the store uses.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Store is a DynamoDB-backed docstore.
type Store struct {
	db    API
	table string
}

var _ docstore.Store = (*Store)(nil)

// New wraps an existing client.
func New(db API, table string) *Store {
	return &Store{db: db, table: table}
}

// NewFromConfig builds a client from the docstore config. Static keys and
// an endpoint override are honoured for DynamoDB Local.
func NewFromConfig(ctx context.Context, cfg config.DocStoreConfig) (*Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if profile := cfg.GetAWSProfile(); profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	logger.Info("dynamodb docstore ready", "table", cfg.DynamoDBTable, "region", cfg.AWSRegion)
	return New(client, cfg.DynamoDBTable), nil
}

func (s *Store) key(collection, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		keyPK: &types.AttributeValueMemberS{Value: collection},
		keySK: &types.AttributeValueMemberS{Value: id},
	}
}

func (s *Store) GetAll(ctx context.Context, collection string) ([]docstore.Document, error) {
	return s.query(ctx, collection, "", nil)
}

func (s *Store) GetWhere(ctx context.Context, collection, field string, value any) ([]docstore.Document, error) {
	av, err := marshalValue(value)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, collection, field, av)
}

func (s *Store) query(ctx context.Context, collection, field string, value types.AttributeValue) ([]docstore.Document, error) {
	if err := docstore.ValidatePath(collection); err != nil {
		return nil, err
	}

	in := &dynamodb.QueryInput{
		TableName:                aws.String(s.table),
		KeyConditionExpression:   aws.String("#pk = :pk"),
		ExpressionAttributeNames: map[string]string{"#pk": keyPK},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: collection},
		},
	}
	if field != "" {
		in.FilterExpression = aws.String("#f = :v")
		in.ExpressionAttributeNames["#f"] = field
		in.ExpressionAttributeValues[":v"] = value
	}

	var docs []docstore.Document
	p := dynamodb.NewQueryPaginator(s.db, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("querying %s: %w", collection, err)
		}
		for _, item := range page.Items {
			d, err := unmarshalItem(item)
			if err != nil {
				return nil, err
			}
			docs = append(docs, d)
		}
	}
	return docs, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	if err := docstore.ValidatePath(collection); err != nil {
		return nil, err
	}
	out, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.key(collection, id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting %s/%s: %w", collection, id, err)
	}
	if len(out.Item) == 0 {
		return nil, docstore.ErrNotFound
	}
	return unmarshalItem(out.Item)
}

func (s *Store) Upsert(ctx context.Context, collection, id string, partial docstore.Document) error {
	if err := docstore.ValidatePath(collection); err != nil {
		return err
	}

	fields := make([]string, 0, len(partial)+1)
	for k := range partial {
		if k == keyPK || k == keySK || k == "id" {
			continue
		}
		fields = append(fields, k)
	}
	sort.Strings(fields)

	names := map[string]string{"#id": "id"}
	values := map[string]types.AttributeValue{":id": &types.AttributeValueMemberS{Value: id}}
	sets := []string{"#id = :id"}
	for i, f := range fields {
		av, err := marshalValue(partial[f])
		if err != nil {
			return fmt.Errorf("marshaling %s: %w", f, err)
		}
		n, v := fmt.Sprintf("#f%d", i), fmt.Sprintf(":v%d", i)
		names[n] = f
		values[v] = av
		sets = append(sets, n+" = "+v)
	}

	_, err := s.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       s.key(collection, id),
		UpdateExpression:          aws.String("SET " + strings.Join(sets, ", ")),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return fmt.Errorf("upserting %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := docstore.ValidatePath(collection); err != nil {
		return err
	}
	_, err := s.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       s.key(collection, id),
	})
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}
	return nil
}

// Increment uses ADD, which creates the item and attribute when absent.
// A floored decrement is conditional on the counter covering it; when it
// doesn't, the counter is set to zero under the opposite condition.
func (s *Store) Increment(ctx context.Context, collection, id, field string, delta decimal.Decimal, floorAtZero bool) (decimal.Decimal, error) {
	if err := docstore.ValidatePath(collection); err != nil {
		return decimal.Zero, err
	}
	if !floorAtZero || !delta.IsNegative() {
		return s.add(ctx, collection, id, field, delta, nil)
	}

	abs := delta.Abs()
	for attempt := 0; attempt < maxFloorAttempts; attempt++ {
		v, err := s.add(ctx, collection, id, field, delta, aws.String("#f >= :abs"), abs)
		if !isConditionFailed(err) {
			return v, err
		}

		err = s.zero(ctx, collection, id, field, abs)
		if !isConditionFailed(err) {
			return decimal.Zero, err
		}
		logger.Debug("counter moved during floored decrement, retrying", "collection", collection, "id", id, "attempt", attempt+1)
	}
	return decimal.Zero, fmt.Errorf("incrementing %s/%s.%s: gave up after %d attempts", collection, id, field, maxFloorAttempts)
}

func (s *Store) add(ctx context.Context, collection, id, field string, delta decimal.Decimal, cond *string, abs ...decimal.Decimal) (decimal.Decimal, error) {
	in := &dynamodb.UpdateItemInput{
		TableName:                aws.String(s.table),
		Key:                      s.key(collection, id),
		UpdateExpression:         aws.String("SET #id = :id ADD #f :d"),
		ConditionExpression:      cond,
		ExpressionAttributeNames: map[string]string{"#id": "id", "#f": field},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: id},
			":d":  &types.AttributeValueMemberN{Value: delta.String()},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	}
	if len(abs) > 0 {
		in.ExpressionAttributeValues[":abs"] = &types.AttributeValueMemberN{Value: abs[0].String()}
	}

	out, err := s.db.UpdateItem(ctx, in)
	if err != nil {
		if isConditionFailed(err) {
			return decimal.Zero, err
		}
		return decimal.Zero, fmt.Errorf("incrementing %s/%s.%s: %w", collection, id, field, err)
	}
	n, ok := out.Attributes[field].(*types.AttributeValueMemberN)
	if !ok {
		return decimal.Zero, fmt.Errorf("incrementing %s/%s.%s: no numeric value returned", collection, id, field)
	}
	return decimal.NewFromString(n.Value)
}

func (s *Store) zero(ctx context.Context, collection, id, field string, abs decimal.Decimal) error {
	_, err := s.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(s.table),
		Key:                      s.key(collection, id),
		UpdateExpression:         aws.String("SET #id = :id, #f = :zero"),
		ConditionExpression:      aws.String("attribute_not_exists(#f) OR #f < :abs"),
		ExpressionAttributeNames: map[string]string{"#id": "id", "#f": field},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id":   &types.AttributeValueMemberS{Value: id},
			":zero": &types.AttributeValueMemberN{Value: "0"},
			":abs":  &types.AttributeValueMemberN{Value: abs.String()},
		},
	})
	if err != nil && !isConditionFailed(err) {
		return fmt.Errorf("flooring %s/%s.%s: %w", collection, id, field, err)
	}
	return err
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// marshalValue converts decimals to N attributes; attributevalue would
// otherwise encode them as empty maps.
func marshalValue(v any) (types.AttributeValue, error) {
	switch d := v.(type) {
	case decimal.Decimal:
		return &types.AttributeValueMemberN{Value: d.String()}, nil
	case *decimal.Decimal:
		if d != nil {
			return &types.AttributeValueMemberN{Value: d.String()}, nil
		}
	}
	return attributevalue.Marshal(v)
}

func unmarshalItem(item map[string]types.AttributeValue) (docstore.Document, error) {
	var m map[string]any
	if err := attributevalue.UnmarshalMap(item, &m); err != nil {
		return nil, fmt.Errorf("unmarshaling item: %w", err)
	}
	delete(m, keyPK)
	if _, ok := m["id"]; !ok {
		m["id"] = m[keySK]
	}
	delete(m, keySK)
	return docstore.Document(m), nil
}
