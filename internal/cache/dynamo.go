package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// dynamoItem is the stored shape. ExpiresAt doubles as the table's TTL
// attribute, so DynamoDB eventually reaps entries on its own; Get still
// checks it because TTL deletion lags expiry by up to a day or two.
type dynamoItem struct {
	CacheKey  string `dynamodbav:"cache_key"`
	Payload   []byte `dynamodbav:"payload"`
	ExpiresAt int64  `dynamodbav:"expires_at"`
}

// Dynamo is a DynamoDB-backed Cache. The table uses cache_key as its
// partition key and expires_at as its TTL attribute.
type Dynamo struct {
	client *dynamodb.Client
	table  string
	now    func() time.Time
}

// NewDynamo constructs a DynamoDB-backed cache.
func NewDynamo(ctx context.Context, table, region string) (*Dynamo, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return nil, fmt.Errorf("cache table name is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Dynamo{
		client: dynamodb.NewFromConfig(cfg),
		table:  table,
		now:    time.Now,
	}, nil
}

func (d *Dynamo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &d.table,
		Key: map[string]types.AttributeValue{
			"cache_key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("dynamo get %s: %w", key, err)
	}
	if out.Item == nil {
		return nil, false, nil
	}

	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, false, fmt.Errorf("dynamo unmarshal %s: %w", key, err)
	}
	if item.ExpiresAt > 0 && d.now().UTC().Unix() >= item.ExpiresAt {
		// TTL reaping has not caught up yet. Delete eagerly and miss.
		if err := d.Delete(ctx, key); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	return item.Payload, true, nil
}

func (d *Dynamo) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	item := dynamoItem{
		CacheKey: key,
		Payload:  value,
	}
	if ttl > 0 {
		item.ExpiresAt = d.now().UTC().Add(ttl).Unix()
	}
	encoded, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("dynamo marshal %s: %w", key, err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &d.table,
		Item:      encoded,
	})
	if err != nil {
		return fmt.Errorf("dynamo put %s: %w", key, err)
	}
	return nil
}

func (d *Dynamo) Delete(ctx context.Context, key string) error {
	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &d.table,
		Key: map[string]types.AttributeValue{
			"cache_key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return fmt.Errorf("dynamo delete %s: %w", key, err)
	}
	return nil
}

var _ Cache = (*Dynamo)(nil)
