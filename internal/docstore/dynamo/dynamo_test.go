package dynamo

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/ignite/settlement-desk/internal/docstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI records requests and replays queued responses.
type fakeAPI struct {
	getOut     *dynamodb.GetItemOutput
	queryPages []*dynamodb.QueryOutput
	updateErrs []error
	updateOut  *dynamodb.UpdateItemOutput

	updates []*dynamodb.UpdateItemInput
	queries []*dynamodb.QueryInput
	deletes []*dynamodb.DeleteItemInput
}

func (f *fakeAPI) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.getOut == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return f.getOut, nil
}

func (f *fakeAPI) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updates = append(f.updates, in)
	if len(f.updateErrs) > 0 {
		err := f.updateErrs[0]
		f.updateErrs = f.updateErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if f.updateOut != nil {
		return f.updateOut, nil
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeAPI) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.deletes = append(f.deletes, in)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeAPI) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queries = append(f.queries, in)
	page := f.queryPages[0]
	f.queryPages = f.queryPages[1:]
	return page, nil
}

func item(pk, sk string, extra map[string]types.AttributeValue) map[string]types.AttributeValue {
	m := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

func TestGet(t *testing.T) {
	api := &fakeAPI{getOut: &dynamodb.GetItemOutput{Item: item("payments", "p1", map[string]types.AttributeValue{
		"amount": &types.AttributeValueMemberN{Value: "5000"},
		"status": &types.AttributeValueMemberS{Value: "pending"},
	})}}
	s := New(api, "desk")

	d, err := s.Get(context.Background(), "payments", "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", d.ID())
	assert.Equal(t, 5000.0, d["amount"])
	assert.Equal(t, "pending", d["status"])
	assert.NotContains(t, d, "PK")
	assert.NotContains(t, d, "SK")
}

func TestGetMissing(t *testing.T) {
	_, err := New(&fakeAPI{}, "desk").Get(context.Background(), "payments", "p1")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestGetAllPaginates(t *testing.T) {
	api := &fakeAPI{queryPages: []*dynamodb.QueryOutput{
		{
			Items:            []map[string]types.AttributeValue{item("leads", "l1", nil)},
			LastEvaluatedKey: item("leads", "l1", nil),
		},
		{Items: []map[string]types.AttributeValue{item("leads", "l2", nil)}},
	}}
	s := New(api, "desk")

	docs, err := s.GetAll(context.Background(), "leads")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "l2", docs[1].ID())
	require.Len(t, api.queries, 2)
	assert.NotNil(t, api.queries[1].ExclusiveStartKey)
}

func TestGetWhereFilters(t *testing.T) {
	api := &fakeAPI{queryPages: []*dynamodb.QueryOutput{{}}}
	s := New(api, "desk")

	_, err := s.GetWhere(context.Background(), "payments", "status", "approved")
	require.NoError(t, err)
	require.Len(t, api.queries, 1)
	q := api.queries[0]
	assert.Equal(t, "#f = :v", aws.ToString(q.FilterExpression))
	assert.Equal(t, "status", q.ExpressionAttributeNames["#f"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "approved"}, q.ExpressionAttributeValues[":v"])
}

func TestUpsertBuildsSetExpression(t *testing.T) {
	api := &fakeAPI{}
	s := New(api, "desk")

	err := s.Upsert(context.Background(), "payments", "p1", docstore.Document{
		"status": "approved",
		"amount": decimal.NewFromInt(5000),
	})
	require.NoError(t, err)
	require.Len(t, api.updates, 1)

	in := api.updates[0]
	assert.Equal(t, "SET #id = :id, #f0 = :v0, #f1 = :v1", aws.ToString(in.UpdateExpression))
	assert.Equal(t, "amount", in.ExpressionAttributeNames["#f0"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "5000"}, in.ExpressionAttributeValues[":v0"])
	assert.Equal(t, "status", in.ExpressionAttributeNames["#f1"])
}

func TestIncrement(t *testing.T) {
	api := &fakeAPI{updateOut: &dynamodb.UpdateItemOutput{Attributes: map[string]types.AttributeValue{
		"achieved": &types.AttributeValueMemberN{Value: "7000"},
	}}}
	s := New(api, "desk")

	v, err := s.Increment(context.Background(), "targets/Jan_2025/salespersons", "Asha", "achieved", decimal.NewFromInt(2000), true)
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.NewFromInt(7000)))

	in := api.updates[0]
	assert.Equal(t, "SET #id = :id ADD #f :d", aws.ToString(in.UpdateExpression))
	assert.Nil(t, in.ConditionExpression)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "targets/Jan_2025/salespersons"}, in.Key["PK"])
}

func TestIncrementFloorsAtZero(t *testing.T) {
	api := &fakeAPI{updateErrs: []error{&types.ConditionalCheckFailedException{}, nil}}
	s := New(api, "desk")

	v, err := s.Increment(context.Background(), "targets/Jan_2025/salespersons", "Asha", "achieved", decimal.NewFromInt(-9000), true)
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	require.Len(t, api.updates, 2)
	assert.Equal(t, "#f >= :abs", aws.ToString(api.updates[0].ConditionExpression))
	assert.Equal(t, &types.AttributeValueMemberN{Value: "9000"}, api.updates[0].ExpressionAttributeValues[":abs"])
	assert.Equal(t, "SET #id = :id, #f = :zero", aws.ToString(api.updates[1].UpdateExpression))
}

func TestIncrementPropagatesErrors(t *testing.T) {
	boom := errors.New("throttled")
	api := &fakeAPI{updateErrs: []error{boom}}
	_, err := New(api, "desk").Increment(context.Background(), "counters", "c", "n", decimal.NewFromInt(1), false)
	assert.ErrorIs(t, err, boom)
}

func TestDelete(t *testing.T) {
	api := &fakeAPI{}
	require.NoError(t, New(api, "desk").Delete(context.Background(), "payments", "p1"))
	require.Len(t, api.deletes, 1)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "p1"}, api.deletes[0].Key["SK"])
}
