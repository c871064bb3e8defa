package ddb

import (
	"context"
	"dsclient/internal/types"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// SettingsStore keeps the runtime variables in a single item.
type SettingsStore struct {
	table string
	cli   *dynamodb.Client
}

func NewSettingsStore(table string, cli *dynamodb.Client) *SettingsStore {
	// Creates the table only if it doesn't exist.
	createTableIfNotExists(cli, table)
	return &SettingsStore{table: table, cli: cli}
}

// FetchSettings implements ports.SettingsSource. A missing item is an empty
// snapshot.
func (s *SettingsStore) FetchSettings(ctx context.Context) (types.Settings, error) {
	out, err := s.cli.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.table,
		Key: map[string]ddbTypes.AttributeValue{
			"PK": &ddbTypes.AttributeValueMemberS{Value: pkSettings()},
			"SK": &ddbTypes.AttributeValueMemberS{Value: skSettings()},
		},
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return types.Settings{}, err
	}
	settings := types.NewSettings()
	if out.Item == nil {
		return settings, nil
	}
	if err := attributevalue.UnmarshalMap(out.Item, &settings); err != nil {
		return types.Settings{}, err
	}
	return settings, nil
}

func (s *SettingsStore) PutSettings(ctx context.Context, settings types.Settings) error {
	item, err := attributevalue.MarshalMap(struct {
		PK string `dynamodbav:"PK"`
		SK string `dynamodbav:"SK"`
		types.Settings
	}{
		PK:       pkSettings(),
		SK:       skSettings(),
		Settings: settings,
	})
	if err != nil {
		return err
	}
	_, err = s.cli.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.table,
		Item:      item,
	})
	return err
}

// ClearAll drops and recreates the table.
func (s *SettingsStore) ClearAll(ctx context.Context) error {
	_, err := s.cli.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: &s.table,
	})
	if err != nil {
		return err
	}
	// wait until the table is deleted
	err = dynamodb.NewTableNotExistsWaiter(s.cli).Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	}, 30*time.Second)
	if err != nil {
		return err
	}
	createTableIfNotExists(s.cli, s.table)
	return nil
}
