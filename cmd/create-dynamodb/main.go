package main

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

const defaultTableName = "articles"
const tableWaitTimeout = 2 * time.Minute

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx := context.Background()
	awsRegion := os.Getenv("AWS_REGION")

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		zlog.Fatal().Err(err).Msg("AWS config cannot be loaded")
	}

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		// DynamoDB Local or localstack.
		if endpoint := os.Getenv("DYNAMODB_ENDPOINT"); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	tableName := os.Getenv("ARTICLES_TABLE")
	if tableName == "" {
		tableName = defaultTableName
	}

	param := &dynamodb.CreateTableInput{
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("Id"),
				AttributeType: types.ScalarAttributeTypeN,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("Id"),
				KeyType:       types.KeyTypeHash,
			},
		},
		BillingMode: types.BillingModePayPerRequest,
		TableName:   aws.String(tableName),
	}

	_, err = client.CreateTable(ctx, param)
	if err != nil {
		zlog.Fatal().Err(err).Str("table_name", tableName).Msg("table creation failed")
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	err = waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(tableName)}, tableWaitTimeout)
	if err != nil {
		zlog.Fatal().Err(err).Str("table_name", tableName).Msg("table did not become active")
	}

	zlog.Info().Str("table_name", tableName).Msg("created successfully")
}
