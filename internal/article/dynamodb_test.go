package article

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dynamoMock understands exactly the expressions DynamoRepo sends.
type dynamoMock struct {
	mu       sync.Mutex
	items    map[string]map[string]types.AttributeValue
	pageSize int
}

func newDynamoMock() *dynamoMock {
	return &dynamoMock{
		items:    make(map[string]map[string]types.AttributeValue),
		pageSize: 2,
	}
}

func keyOf(item map[string]types.AttributeValue) string {
	return item["Id"].(*types.AttributeValueMemberN).Value
}

func (m *dynamoMock) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return &dynamodb.GetItemOutput{Item: m.items[keyOf(in.Key)]}, nil
}

func (m *dynamoMock) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := keyOf(in.Item)
	_, exists := m.items[key]

	switch aws.ToString(in.ConditionExpression) {
	case exprExists:
		if !exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	case exprNotExists:
		if exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}

	m.items[key] = in.Item

	return &dynamodb.PutItemOutput{}, nil
}

func (m *dynamoMock) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if aws.ToString(in.UpdateExpression) != exprNextID {
		return nil, errors.New("unsupported update expression")
	}

	key := keyOf(in.Key)
	item, ok := m.items[key]
	if !ok {
		item = map[string]types.AttributeValue{"Id": in.Key["Id"]}
	}

	var seq int
	if v, ok := item["Seq"]; ok {
		seq, _ = strconv.Atoi(v.(*types.AttributeValueMemberN).Value)
	}
	seq++

	item["Seq"] = &types.AttributeValueMemberN{Value: strconv.Itoa(seq)}
	m.items[key] = item

	return &dynamodb.UpdateItemOutput{
		Attributes: map[string]types.AttributeValue{"Seq": item["Seq"]},
	}, nil
}

func (m *dynamoMock) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := keyOf(in.Key)
	old := m.items[key]
	delete(m.items, key)

	return &dynamodb.DeleteItemOutput{Attributes: old}, nil
}

func (m *dynamoMock) DescribeTable(_ context.Context, _ *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return &dynamodb.DescribeTableOutput{}, nil
}

// Scan returns pageSize items per call in key order.
func (m *dynamoMock) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	for k := range m.items {
		if k == "0" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(keys[i])
		b, _ := strconv.Atoi(keys[j])
		return a < b
	})

	start := 0
	if in.ExclusiveStartKey != nil {
		start, _ = strconv.Atoi(keyOf(in.ExclusiveStartKey))
	}

	end := start + m.pageSize
	if end > len(keys) {
		end = len(keys)
	}

	out := &dynamodb.ScanOutput{}
	for _, k := range keys[start:end] {
		out.Items = append(out.Items, m.items[k])
	}

	// The mock encodes the cursor position in the key.
	if end < len(keys) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"Id": &types.AttributeValueMemberN{Value: strconv.Itoa(end)},
		}
	}

	return out, nil
}

func TestDynamoRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewDynamoRepository(newDynamoMock(), "Articles")

	var created []Article
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		a := &Article{Title: title, Content: "content " + title, Source: "src"}
		require.NoError(t, repo.Create(ctx, a))
		created = append(created, *a)
	}

	for i, a := range created {
		assert.Equal(t, int32(i+1), a.ID)
	}

	got, err := repo.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, created[2], *got)

	all, err := repo.List(ctx, Page{})
	require.NoError(t, err)
	assert.Equal(t, created, all)

	paged, err := repo.List(ctx, Page{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, created[1:3], paged)

	updated := created[0]
	updated.Title = "a2"
	require.NoError(t, repo.Update(ctx, &updated))

	got, err = repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "a2", got.Title)

	require.NoError(t, repo.Delete(ctx, 1))
	assert.Equal(t, ErrNotFound, repo.Delete(ctx, 1))

	_, err = repo.Get(ctx, 1)
	assert.Equal(t, ErrNotFound, err)

	assert.Equal(t, ErrNotFound, repo.Update(ctx, &Article{ID: 1, Title: "x", Content: "x", Source: "x"}))

	// Deleted ids are never reused.
	a := &Article{Title: "f", Content: "f", Source: "f"}
	require.NoError(t, repo.Create(ctx, a))
	assert.Equal(t, int32(6), a.ID)

	assert.NoError(t, repo.Ping(ctx))
}

func TestDynamoRepo_SequenceItemIsHidden(t *testing.T) {
	ctx := context.Background()
	repo := NewDynamoRepository(newDynamoMock(), "Articles")

	require.NoError(t, repo.Create(ctx, &Article{Title: "t", Content: "c", Source: "s"}))

	_, err := repo.Get(ctx, sequenceID)
	assert.Equal(t, ErrNotFound, err)
	assert.Equal(t, ErrNotFound, repo.Delete(ctx, sequenceID))
	assert.Equal(t, ErrNotFound, repo.Update(ctx, &Article{ID: sequenceID}))

	all, err := repo.List(ctx, Page{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
