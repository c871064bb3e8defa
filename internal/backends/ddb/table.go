package ddb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	log "github.com/sirupsen/logrus"
)

const (
	SStore    = "STORE"
	SIndex    = "INDEX"
	SEntry    = "ENTRY"
	SSettings = "SETTINGS"
)

// Entries of one store share a partition; the key is the sort key.
func pkStore(universeID int64, kind, name string) string {
	return fmt.Sprintf("%s#%d#%s#%s", SStore, universeID, kind, name)
}
func skEntry(key string) string { return fmt.Sprintf("%s#%s", SEntry, key) }

// Every standard store of a universe has one row in the universe's index
// partition, sorted by name so listing can query by prefix.
func pkIndex(universeID int64) string { return fmt.Sprintf("%s#%d", SIndex, universeID) }
func skIndex(name string) string     { return fmt.Sprintf("%s#%s", SStore, name) }

func pkSettings() string { return SSettings }
func skSettings() string { return "CURRENT" }

func createTableIfNotExists(client *dynamodb.Client, table string) {
	_, err := client.CreateTable(context.Background(), &dynamodb.CreateTableInput{
		TableName: &table,
		AttributeDefinitions: []ddbTypes.AttributeDefinition{
			{AttributeName: awsString("PK"), AttributeType: ddbTypes.ScalarAttributeTypeS},
			{AttributeName: awsString("SK"), AttributeType: ddbTypes.ScalarAttributeTypeS},
		},
		KeySchema: []ddbTypes.KeySchemaElement{
			{AttributeName: awsString("PK"), KeyType: ddbTypes.KeyTypeHash},
			{AttributeName: awsString("SK"), KeyType: ddbTypes.KeyTypeRange},
		},
		BillingMode: ddbTypes.BillingModePayPerRequest,
	})
	var re *ddbTypes.ResourceInUseException
	if err != nil && !errors.As(err, &re) {
		log.WithError(err).WithField("table", table).Error("failed to create table")
	}
}
