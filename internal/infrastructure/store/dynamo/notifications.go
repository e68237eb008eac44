package dynamo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/compound-health-monitor/internal/domain"
)

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewNotificationRepo(client *dynamodb.Client, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

func (r *NotificationRepo) Append(ctx context.Context, n *domain.NotificationRecord) error {
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// ListByAddress queries the address-timestamp GSI, returning records oldest
// first to match the file backend's insertion order.
func (r *NotificationRepo) ListByAddress(ctx context.Context, address string) ([]domain.NotificationRecord, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("address-timestamp-index"),
		KeyConditionExpression: aws.String("address = :a"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":a": &types.AttributeValueMemberS{Value: address},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	records := []domain.NotificationRecord{}
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteOlderThan scans for records with a timestamp below cutoff, deletes
// them one by one, and returns the removed rows for archiving.
func (r *NotificationRepo) DeleteOlderThan(ctx context.Context, cutoff int64) ([]domain.NotificationRecord, error) {
	var removed []domain.NotificationRecord
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(r.tableName),
			FilterExpression: aws.String("#ts < :cutoff"),
			ExpressionAttributeNames: map[string]string{
				"#ts": "timestamp",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":cutoff": &types.AttributeValueMemberN{Value: strconv.FormatInt(cutoff, 10)},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return removed, err
		}
		var page []domain.NotificationRecord
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return removed, err
		}
		for _, n := range page {
			_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(r.tableName),
				Key:       strKey("notification_id", n.NotificationID),
			})
			if err != nil {
				return removed, err
			}
			removed = append(removed, n)
		}
		if out.LastEvaluatedKey == nil {
			return removed, nil
		}
		startKey = out.LastEvaluatedKey
	}
}
