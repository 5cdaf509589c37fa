package article

import (
	"context"
	"sort"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"
)

// sequenceID is the key of the item that holds the last allocated article id.
const sequenceID = 0

const (
	exprNextID      = "ADD Seq :one"
	exprNotExists   = "attribute_not_exists(Id)"
	exprExists      = "attribute_exists(Id)"
	exprSkipCounter = "Id > :seq"
)

// DynamoAPI is the subset of *dynamodb.Client used by DynamoRepo.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	dynamodb.ScanAPIClient
}

// DynamoRepo keeps articles in a DynamoDB table with a numeric hash key "Id".
//
// Ids are allocated from a sequence item stored in the same table under Id = 0.
type DynamoRepo struct {
	client    DynamoAPI
	tableName *string
}

func NewDynamoRepository(client DynamoAPI, tableName string) *DynamoRepo {
	return &DynamoRepo{
		client:    client,
		tableName: aws.String(tableName),
	}
}

func idKey(id int32) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"Id": &types.AttributeValueMemberN{Value: strconv.FormatInt(int64(id), 10)},
	}
}

func (r *DynamoRepo) nextID(ctx context.Context) (int32, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        r.tableName,
		Key:              idKey(sequenceID),
		UpdateExpression: aws.String(exprNextID),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, errors.Wrap(err, "sequence update failed")
	}

	var seq struct {
		Seq int32 `dynamodbav:"Seq"`
	}
	err = attributevalue.UnmarshalMap(out.Attributes, &seq)
	if err != nil {
		return 0, errors.Wrap(err, "sequence unmarshal failed")
	}

	if seq.Seq <= sequenceID {
		return 0, errors.Errorf("unexpected sequence value %d", seq.Seq)
	}

	return seq.Seq, nil
}

func (r *DynamoRepo) Create(ctx context.Context, a *Article) error {
	id, err := r.nextID(ctx)
	if err != nil {
		return err
	}

	stored := *a
	stored.ID = id

	marshaled, err := attributevalue.MarshalMap(stored)
	if err != nil {
		return errors.Wrap(err, "marshal failed")
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           r.tableName,
		Item:                marshaled,
		ConditionExpression: aws.String(exprNotExists),
	})
	if err != nil {
		return errors.Wrap(err, "put failed")
	}

	a.ID = id

	return nil
}

func (r *DynamoRepo) Get(ctx context.Context, id int32) (*Article, error) {
	if id <= sequenceID {
		return nil, ErrNotFound
	}

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      r.tableName,
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, errors.Wrap(err, "get failed")
	}

	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	a := new(Article)
	err = attributevalue.UnmarshalMap(out.Item, a)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal failed")
	}

	return a, nil
}

// List scans the whole table. Scan results are unordered, so paging is applied after sorting.
func (r *DynamoRepo) List(ctx context.Context, page Page) ([]Article, error) {
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:        r.tableName,
		FilterExpression: aws.String(exprSkipCounter),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":seq": &types.AttributeValueMemberN{Value: strconv.Itoa(sequenceID)},
		},
		ConsistentRead: aws.Bool(true),
	})

	articles := make([]Article, 0)
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "scan failed")
		}

		var batch []Article
		err = attributevalue.UnmarshalListOfMaps(out.Items, &batch)
		if err != nil {
			return nil, errors.Wrap(err, "unmarshal failed")
		}

		articles = append(articles, batch...)
	}

	sort.Slice(articles, func(i, j int) bool {
		return articles[i].ID < articles[j].ID
	})

	return applyPage(articles, page), nil
}

func applyPage(articles []Article, page Page) []Article {
	if page.Offset >= len(articles) {
		return []Article{}
	}

	articles = articles[page.Offset:]
	if page.Limit > 0 && page.Limit < len(articles) {
		articles = articles[:page.Limit]
	}

	return articles
}

func (r *DynamoRepo) Update(ctx context.Context, a *Article) error {
	if a.ID <= sequenceID {
		return ErrNotFound
	}

	marshaled, err := attributevalue.MarshalMap(a)
	if err != nil {
		return errors.Wrap(err, "marshal failed")
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           r.tableName,
		Item:                marshaled,
		ConditionExpression: aws.String(exprExists),
	})

	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrNotFound
	}
	if err != nil {
		return errors.Wrap(err, "put failed")
	}

	return nil
}

func (r *DynamoRepo) Delete(ctx context.Context, id int32) error {
	if id <= sequenceID {
		return ErrNotFound
	}

	out, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    r.tableName,
		Key:          idKey(id),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return errors.Wrap(err, "delete failed")
	}

	if len(out.Attributes) == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *DynamoRepo) Ping(ctx context.Context) error {
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: r.tableName,
	})
	if err != nil {
		return errors.Wrap(err, "describe table failed")
	}

	return nil
}
