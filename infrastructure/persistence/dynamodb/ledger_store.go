package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/sakettamrakar/eatclub/application/ports"
	"github.com/sakettamrakar/eatclub/domain/core/entities"
	"github.com/sakettamrakar/eatclub/domain/core/valueobjects"
	pkgerrors "github.com/sakettamrakar/eatclub/pkg/errors"
)

const sourceDraftIndexName = "SourceDraftIndex"

// LedgerStore implements the append-only ledger on DynamoDB.
//
// Entries live in a single partition keyed by a zero-padded sequence so a
// plain Query returns them in commit order. Sequence numbers come from an
// atomic counter item; the entry write is conditional so a lost race on
// the counter can never overwrite an existing entry.
type LedgerStore struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewLedgerStore creates a new DynamoDB-backed ledger store
func NewLedgerStore(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.LedgerStore {
	return &LedgerStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// ledgerItem represents the DynamoDB item structure for a ledger entry
type ledgerItem struct {
	PK            string           `dynamodbav:"PK"`     // LEDGER
	SK            string           `dynamodbav:"SK"`     // SEQ#<padded seq>
	GSI1PK        string           `dynamodbav:"GSI1PK"` // DRAFT#<draft id> for recovery lookups
	EntityType    string           `dynamodbav:"EntityType"`
	Seq           uint64           `dynamodbav:"Seq"`
	EntryID       string           `dynamodbav:"EntryID"`
	SourceDraftID string           `dynamodbav:"SourceDraftID"`
	Items         []lineItemRecord `dynamodbav:"Items"`
	Actor         string           `dynamodbav:"Actor"`
	CommittedAt   string           `dynamodbav:"CommittedAt"`
}

// Append reserves the next sequence number and writes the entry.
// The entry put is conditional on the key not existing; the counter only
// moves forward, so a crashed append leaves a gap, never a duplicate.
func (s *LedgerStore) Append(ctx context.Context, sourceDraftID valueobjects.DraftID, items []valueobjects.LineItem, actor string) (*entities.LedgerEntry, error) {
	seq, err := s.nextSeq(ctx)
	if err != nil {
		return nil, err
	}

	entry, err := entities.NewLedgerEntry(seq, sourceDraftID, items, actor)
	if err != nil {
		return nil, err
	}

	av, err := attributevalue.MarshalMap(toLedgerItem(entry))
	if err != nil {
		return nil, pkgerrors.NewStorageError("marshal ledger entry", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, pkgerrors.NewStorageError("append ledger entry",
				fmt.Errorf("sequence %d already taken", seq))
		}
		s.logger.Error("failed to append ledger entry",
			zap.Uint64("seq", seq),
			zap.String("sourceDraftID", sourceDraftID.String()),
			zap.Error(err),
		)
		return nil, pkgerrors.NewStorageError("append ledger entry", err)
	}

	return entry, nil
}

// nextSeq atomically increments the ledger counter item
func (s *LedgerStore) nextSeq(ctx context.Context) (uint64, error) {
	result, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "LEDGER#COUNTER"},
			"SK": &types.AttributeValueMemberS{Value: "COUNTER"},
		},
		UpdateExpression: aws.String("ADD Seq :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, pkgerrors.NewStorageError("reserve ledger sequence", err)
	}

	raw, ok := result.Attributes["Seq"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, pkgerrors.NewStorageError("reserve ledger sequence",
			fmt.Errorf("counter item returned no numeric Seq"))
	}
	seq, err := strconv.ParseUint(raw.Value, 10, 64)
	if err != nil {
		return 0, pkgerrors.NewStorageError("reserve ledger sequence", err)
	}
	return seq, nil
}

// GetBySeq retrieves an entry by sequence number
func (s *LedgerStore) GetBySeq(ctx context.Context, seq uint64) (*entities.LedgerEntry, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "LEDGER"},
			"SK": &types.AttributeValueMemberS{Value: seqSK(seq)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, pkgerrors.NewStorageError("get ledger entry", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewNotFoundError("ledger entry")
	}

	var item ledgerItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, pkgerrors.NewStorageError("unmarshal ledger entry", err)
	}
	return fromLedgerItem(item)
}

// ListAll queries the ledger partition in sequence order
func (s *LedgerStore) ListAll(ctx context.Context) ([]*entities.LedgerEntry, error) {
	entries := make([]*entities.LedgerEntry, 0)

	var startKey map[string]types.AttributeValue
	for {
		result, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk":     &types.AttributeValueMemberS{Value: "LEDGER"},
				":prefix": &types.AttributeValueMemberS{Value: "SEQ#"},
			},
			ScanIndexForward:  aws.Bool(true),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, pkgerrors.NewStorageError("list ledger entries", err)
		}

		for _, raw := range result.Items {
			var item ledgerItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, pkgerrors.NewStorageError("unmarshal ledger entry", err)
			}
			entry, err := fromLedgerItem(item)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	return entries, nil
}

// FindBySourceDraft queries the source draft index for the entry a draft
// produced. This is the commit coordinator's recovery path.
func (s *LedgerStore) FindBySourceDraft(ctx context.Context, draftID valueobjects.DraftID) (*entities.LedgerEntry, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(sourceDraftIndexName),
		KeyConditionExpression: aws.String("GSI1PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("DRAFT#%s", draftID.String())},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, pkgerrors.NewStorageError("find ledger entry", err)
	}
	if len(result.Items) == 0 {
		return nil, pkgerrors.NewNotFoundError("ledger entry")
	}

	var item ledgerItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, pkgerrors.NewStorageError("unmarshal ledger entry", err)
	}
	return fromLedgerItem(item)
}

func seqSK(seq uint64) string {
	return fmt.Sprintf("SEQ#%020d", seq)
}

func toLedgerItem(entry *entities.LedgerEntry) ledgerItem {
	items := entry.Items()
	records := make([]lineItemRecord, len(items))
	for i, li := range items {
		records[i] = lineItemRecord{
			Name:     li.Name,
			Quantity: li.Quantity,
			Unit:     string(li.Unit),
			UnitCost: li.UnitCost,
		}
	}

	return ledgerItem{
		PK:            "LEDGER",
		SK:            seqSK(entry.Seq()),
		GSI1PK:        fmt.Sprintf("DRAFT#%s", entry.SourceDraftID().String()),
		EntityType:    "LEDGER_ENTRY",
		Seq:           entry.Seq(),
		EntryID:       entry.EntryID(),
		SourceDraftID: entry.SourceDraftID().String(),
		Items:         records,
		Actor:         entry.Actor(),
		CommittedAt:   entry.CommittedAt().Format(time.RFC3339Nano),
	}
}

func fromLedgerItem(item ledgerItem) (*entities.LedgerEntry, error) {
	draftID, err := valueobjects.NewDraftIDFromString(item.SourceDraftID)
	if err != nil {
		return nil, pkgerrors.NewStorageError("parse source draft ID", err)
	}

	items := make([]valueobjects.LineItem, len(item.Items))
	for i, rec := range item.Items {
		items[i] = valueobjects.LineItem{
			Name:     rec.Name,
			Quantity: rec.Quantity,
			Unit:     valueobjects.Unit(rec.Unit),
			UnitCost: rec.UnitCost,
		}
	}

	committedAt, err := time.Parse(time.RFC3339Nano, item.CommittedAt)
	if err != nil {
		return nil, pkgerrors.NewStorageError("parse ledger timestamps", err)
	}

	return entities.ReconstructLedgerEntry(
		item.Seq,
		item.EntryID,
		draftID,
		items,
		item.Actor,
		committedAt,
	)
}
