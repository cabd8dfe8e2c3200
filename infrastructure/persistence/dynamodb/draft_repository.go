package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/sakettamrakar/eatclub/application/ports"
	"github.com/sakettamrakar/eatclub/domain/core/entities"
	"github.com/sakettamrakar/eatclub/domain/core/valueobjects"
	pkgerrors "github.com/sakettamrakar/eatclub/pkg/errors"
)

const statusIndexName = "StatusIndex"

// DraftRepository implements the DraftRepository port using DynamoDB
type DraftRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewDraftRepository creates a new DraftRepository
func NewDraftRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.DraftRepository {
	return &DraftRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// lineItemRecord is the stored form of a line item
type lineItemRecord struct {
	Name     string  `dynamodbav:"Name"`
	Quantity float64 `dynamodbav:"Quantity"`
	Unit     string  `dynamodbav:"Unit"`
	UnitCost float64 `dynamodbav:"UnitCost"`
}

// draftItem represents the DynamoDB item structure for a draft session
type draftItem struct {
	PK                 string           `dynamodbav:"PK"`
	SK                 string           `dynamodbav:"SK"`
	GSI1PK             string           `dynamodbav:"GSI1PK"` // STATUS#<status> for listing
	GSI1SK             string           `dynamodbav:"GSI1SK"` // CreatedAt for ordering
	EntityType         string           `dynamodbav:"EntityType"`
	DraftID            string           `dynamodbav:"DraftID"`
	Status             string           `dynamodbav:"Status"`
	Items              []lineItemRecord `dynamodbav:"Items"`
	SourceRef          string           `dynamodbav:"SourceRef"`
	RejectReason       string           `dynamodbav:"RejectReason,omitempty"`
	CommittedLedgerSeq uint64           `dynamodbav:"CommittedLedgerSeq,omitempty"`
	CreatedAt          string           `dynamodbav:"CreatedAt"`
	UpdatedAt          string           `dynamodbav:"UpdatedAt"`
	Revision           int              `dynamodbav:"Revision"`
}

// Save persists a new draft. The conditional write rejects ID collisions.
func (r *DraftRepository) Save(ctx context.Context, draft *entities.Draft) error {
	av, err := attributevalue.MarshalMap(toDraftItem(draft))
	if err != nil {
		return pkgerrors.NewStorageError("marshal draft", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return pkgerrors.NewStorageError("save draft",
				fmt.Errorf("draft %s already exists", draft.ID().String()))
		}
		r.logger.Error("failed to save draft",
			zap.String("draftID", draft.ID().String()),
			zap.Error(err),
		)
		return pkgerrors.NewStorageError("save draft", err)
	}

	return nil
}

// GetByID retrieves a draft by its ID
func (r *DraftRepository) GetByID(ctx context.Context, id valueobjects.DraftID) (*entities.Draft, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: draftPK(id)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, pkgerrors.NewStorageError("get draft", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewNotFoundError("draft")
	}

	var item draftItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, pkgerrors.NewStorageError("unmarshal draft", err)
	}

	return fromDraftItem(item)
}

// ListByStatus queries the status index, oldest drafts first. Every call
// runs the full query from the start of the index.
func (r *DraftRepository) ListByStatus(ctx context.Context, status entities.DraftStatus) ([]*entities.Draft, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(fmt.Sprintf("STATUS#%s", status)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, pkgerrors.NewStorageError("build query expression", err)
	}

	drafts := make([]*entities.Draft, 0)

	var startKey map[string]types.AttributeValue
	for {
		result, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			IndexName:                 aws.String(statusIndexName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ScanIndexForward:          aws.Bool(true),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, pkgerrors.NewStorageError("list drafts", err)
		}

		for _, raw := range result.Items {
			var item draftItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, pkgerrors.NewStorageError("unmarshal draft", err)
			}
			draft, err := fromDraftItem(item)
			if err != nil {
				return nil, err
			}
			drafts = append(drafts, draft)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	// The index sorts by CreatedAt string; ties resolve by draft ID
	sort.SliceStable(drafts, func(i, j int) bool {
		return drafts[i].CreatedAt().Before(drafts[j].CreatedAt())
	})

	return drafts, nil
}

// Update persists draft mutations with an optimistic revision check
func (r *DraftRepository) Update(ctx context.Context, draft *entities.Draft, expectedRevision int) error {
	av, err := attributevalue.MarshalMap(toDraftItem(draft))
	if err != nil {
		return pkgerrors.NewStorageError("marshal draft", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_exists(PK) AND Revision = :expected"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expectedRevision)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return pkgerrors.NewStorageError("update draft",
				fmt.Errorf("revision conflict on draft %s", draft.ID().String()))
		}
		r.logger.Error("failed to update draft",
			zap.String("draftID", draft.ID().String()),
			zap.Error(err),
		)
		return pkgerrors.NewStorageError("update draft", err)
	}

	return nil
}

// Delete removes a draft
func (r *DraftRepository) Delete(ctx context.Context, id valueobjects.DraftID) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: draftPK(id)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return pkgerrors.NewNotFoundError("draft")
		}
		return pkgerrors.NewStorageError("delete draft", err)
	}
	return nil
}

func draftPK(id valueobjects.DraftID) string {
	return fmt.Sprintf("DRAFT#%s", id.String())
}

func toDraftItem(draft *entities.Draft) draftItem {
	items := draft.Items()
	records := make([]lineItemRecord, len(items))
	for i, li := range items {
		records[i] = lineItemRecord{
			Name:     li.Name,
			Quantity: li.Quantity,
			Unit:     string(li.Unit),
			UnitCost: li.UnitCost,
		}
	}

	return draftItem{
		PK:                 draftPK(draft.ID()),
		SK:                 "METADATA",
		GSI1PK:             fmt.Sprintf("STATUS#%s", draft.Status()),
		GSI1SK:             draft.CreatedAt().Format(time.RFC3339Nano),
		EntityType:         "DRAFT",
		DraftID:            draft.ID().String(),
		Status:             string(draft.Status()),
		Items:              records,
		SourceRef:          draft.SourceRef(),
		RejectReason:       draft.RejectReason(),
		CommittedLedgerSeq: draft.CommittedLedgerSeq(),
		CreatedAt:          draft.CreatedAt().Format(time.RFC3339Nano),
		UpdatedAt:          draft.UpdatedAt().Format(time.RFC3339Nano),
		Revision:           draft.Revision(),
	}
}

func fromDraftItem(item draftItem) (*entities.Draft, error) {
	id, err := valueobjects.NewDraftIDFromString(item.DraftID)
	if err != nil {
		return nil, pkgerrors.NewStorageError("parse draft ID", err)
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

	createdAt, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
	if err != nil {
		return nil, pkgerrors.NewStorageError("parse draft timestamps", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, item.UpdatedAt)
	if err != nil {
		return nil, pkgerrors.NewStorageError("parse draft timestamps", err)
	}

	return entities.ReconstructDraft(
		id,
		entities.DraftStatus(item.Status),
		items,
		item.SourceRef,
		item.RejectReason,
		item.CommittedLedgerSeq,
		createdAt,
		updatedAt,
		item.Revision,
	)
}
