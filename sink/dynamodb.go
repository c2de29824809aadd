package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/edgeadmin/edgeadmin/config"
	"github.com/edgeadmin/edgeadmin/diag/telemetry"
	"github.com/edgeadmin/edgeadmin/log"
)

type dynamoDbStore struct {
	dynamoDb *dynamodb.Client
	table    *string
	log      log.Logger
}

func newDynamoDb(ctx context.Context, conf *config.DynamoDbConfig, telemetryReporter telemetry.Reporter, log log.Logger) (*dynamoDbStore, error) {
	dynamoLog := log.WithPrefix("dynamodb")
	awsCtx, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		dynamoLog.Errorf("couldn't read aws config for DynamoDB: %s", err)
		return nil, err
	}
	telemetryReporter.InstrumentAws(&awsCtx)
	var opts []func(*dynamodb.Options)
	if conf.Url != "" {
		opts = append(opts, func(options *dynamodb.Options) {
			options.BaseEndpoint = aws.String(conf.Url)
		})
	}
	log.Reportf("using DynamoDB for export storage")
	return &dynamoDbStore{
		dynamoDb: dynamodb.NewFromConfig(awsCtx, opts...),
		table:    aws.String(conf.Table),
		log:      dynamoLog,
	}, nil
}

// Write puts one item per entity: key, collection and the JSON payload.
func (d *dynamoDbStore) Write(ctx context.Context, collection string, entities []map[string]any) error {
	for _, e := range entities {
		key, _, err := entityKey(collection, e)
		if err != nil {
			return err
		}
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("sink: failed to encode entity %s: %w", key, err)
		}
		_, err = d.dynamoDb.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: d.table,
			Item: map[string]types.AttributeValue{
				keyName:        &types.AttributeValueMemberS{Value: key},
				collectionName: &types.AttributeValueMemberS{Value: collection},
				payloadName:    &types.AttributeValueMemberS{Value: string(data)},
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *dynamoDbStore) Close() error {
	return nil
}
