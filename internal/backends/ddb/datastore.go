package ddb

import (
	"context"
	"dsclient/internal/types"
	"errors"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

// DataStore implements ports.DataBackend and ports.PageFetcher on a single
// table keyed by PK/SK.
type DataStore struct {
	table string
	cli   *dynamodb.Client
}

type indexItem struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
	types.StoreInfo
}

func NewDataStore(table string, cli *dynamodb.Client) *DataStore {
	createTableIfNotExists(cli, table)
	return &DataStore{table: table, cli: cli}
}

func entryKey(ref types.StoreRef, key string) map[string]ddbTypes.AttributeValue {
	return map[string]ddbTypes.AttributeValue{
		"PK": &ddbTypes.AttributeValueMemberS{Value: pkStore(ref.UniverseID, ref.Kind.String(), ref.Name)},
		"SK": &ddbTypes.AttributeValueMemberS{Value: skEntry(key)},
	}
}

func (s *DataStore) Load(ctx context.Context, ref types.StoreRef, key string) (*types.Entry, int64, error) {
	out, err := s.cli.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &s.table,
		ConsistentRead: awsBool(true),
		Key:            entryKey(ref, key),
	})
	if err != nil {
		return nil, 0, err
	}
	if out.Item == nil {
		return nil, 0, nil
	}
	var e types.Entry
	if err := attributevalue.UnmarshalMap(out.Item, &e); err != nil {
		return nil, 0, err
	}
	return &e, e.Version, nil
}

// UpsertCAS creates or updates the row only if ver matches prevVersion.
// On create (prevVersion==0), the row must not exist (attribute_not_exists).
func (s *DataStore) UpsertCAS(ctx context.Context, ref types.StoreRef, key string, prevVersion int64, next types.Entry) (bool, error) {
	var err error
	if prevVersion == 0 {
		next.Version = 1
		var av map[string]ddbTypes.AttributeValue
		av, err = attributevalue.MarshalMap(next)
		if err != nil {
			return false, err
		}
		for k, v := range entryKey(ref, key) {
			av[k] = v
		}
		_, err = s.cli.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           &s.table,
			Item:                av,
			ConditionExpression: awsString("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
		})
	} else {
		// Update with version bump under condition ver == prevVersion
		_, err = s.cli.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:        &s.table,
			Key:              entryKey(ref, key),
			UpdateExpression: awsString("SET #v=:v, #c=:c, #ua=:ua, #ver=:newver"),
			ExpressionAttributeNames: map[string]string{
				"#v":   "value",
				"#c":   "compressed",
				"#ua":  "updated_at",
				"#ver": "ver",
			},
			ExpressionAttributeValues: map[string]ddbTypes.AttributeValue{
				":v":      &ddbTypes.AttributeValueMemberB{Value: next.Value},
				":c":      &ddbTypes.AttributeValueMemberBOOL{Value: next.Compressed},
				":ua":     &ddbTypes.AttributeValueMemberN{Value: itoa(next.UpdatedAt)},
				":newver": &ddbTypes.AttributeValueMemberN{Value: itoa(prevVersion + 1)},
				":prev":   &ddbTypes.AttributeValueMemberN{Value: itoa(prevVersion)},
			},
			ConditionExpression: awsString("#ver = :prev"),
		})
	}
	if err != nil {
		var cc *ddbTypes.ConditionalCheckFailedException
		if errorAs(err, &cc) {
			return false, nil
		}
		return false, err
	}
	if ref.Kind == types.KindStandard {
		if err := s.touchIndex(ctx, ref, next); err != nil {
			// the entry is committed; a stale index only affects listing
			log.WithError(err).WithField("store", ref.Name).Warn("failed to update store index")
		}
	}
	return true, nil
}

// touchIndex records the store in the universe index, keeping the first
// creation time.
func (s *DataStore) touchIndex(ctx context.Context, ref types.StoreRef, next types.Entry) error {
	_, err := s.cli.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: &s.table,
		Key: map[string]ddbTypes.AttributeValue{
			"PK": &ddbTypes.AttributeValueMemberS{Value: pkIndex(ref.UniverseID)},
			"SK": &ddbTypes.AttributeValueMemberS{Value: skIndex(ref.Name)},
		},
		UpdateExpression: awsString("SET #n=:n, #ct=if_not_exists(#ct, :ct), #ut=:ut"),
		ExpressionAttributeNames: map[string]string{
			"#n":  "name",
			"#ct": "created_time",
			"#ut": "updated_time",
		},
		ExpressionAttributeValues: map[string]ddbTypes.AttributeValue{
			":n":  &ddbTypes.AttributeValueMemberS{Value: ref.Name},
			":ct": &ddbTypes.AttributeValueMemberN{Value: itoa(next.CreatedAt)},
			":ut": &ddbTypes.AttributeValueMemberN{Value: itoa(next.UpdatedAt)},
		},
	})
	return err
}

func (s *DataStore) Delete(ctx context.Context, ref types.StoreRef, key string) (*types.Entry, error) {
	out, err := s.cli.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    &s.table,
		Key:          entryKey(ref, key),
		ReturnValues: ddbTypes.ReturnValueAllOld,
	})
	if err != nil {
		return nil, err
	}
	if len(out.Attributes) == 0 {
		return nil, nil
	}
	var e types.Entry
	if err := attributevalue.UnmarshalMap(out.Attributes, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// FetchPage queries the universe index by name prefix. The cursor is the JSON
// encoded name of the last store returned.
func (s *DataStore) FetchPage(ctx context.Context, target types.ListTarget, cursor string) (types.ListingResult, error) {
	in := &dynamodb.QueryInput{
		TableName:              &s.table,
		KeyConditionExpression: awsString("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]ddbTypes.AttributeValue{
			":pk": &ddbTypes.AttributeValueMemberS{Value: pkIndex(target.UniverseID)},
			":sk": &ddbTypes.AttributeValueMemberS{Value: skIndex(target.Prefix)},
		},
		ConsistentRead: awsBool(true),
	}
	if target.PageSize > 0 {
		in.Limit = awsInt32(int32(target.PageSize))
	}
	if cursor != "" {
		var last string
		if err := json.Unmarshal([]byte(cursor), &last); err != nil {
			return types.ListingResult{}, types.Err(types.ErrInvalidArgument, err, "invalid cursor %q", cursor)
		}
		in.ExclusiveStartKey = map[string]ddbTypes.AttributeValue{
			"PK": &ddbTypes.AttributeValueMemberS{Value: pkIndex(target.UniverseID)},
			"SK": &ddbTypes.AttributeValueMemberS{Value: skIndex(last)},
		}
	}

	out, err := s.cli.Query(ctx, in)
	if err != nil {
		return types.ListingResult{}, err
	}
	res := types.ListingResult{Stores: make([]types.StoreInfo, 0, len(out.Items))}
	for _, item := range out.Items {
		var it indexItem
		if err := attributevalue.UnmarshalMap(item, &it); err != nil {
			return types.ListingResult{}, err
		}
		res.Stores = append(res.Stores, it.StoreInfo)
	}
	if sk, ok := out.LastEvaluatedKey["SK"].(*ddbTypes.AttributeValueMemberS); ok {
		b, err := json.Marshal(strings.TrimPrefix(sk.Value, skIndex("")))
		if err != nil {
			return types.ListingResult{}, err
		}
		res.NextCursor = string(b)
	}
	return res, nil
}

func itoa(i int64) string { return strconv.FormatInt(i, 10) }

func awsString(s string) *string         { return &s }
func awsBool(b bool) *bool               { return &b }
func awsInt32(i int32) *int32            { return &i }
func errorAs(err error, target any) bool { return errors.As(err, target) }
