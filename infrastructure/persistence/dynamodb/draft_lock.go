package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sakettamrakar/eatclub/application/ports"
	"github.com/sakettamrakar/eatclub/domain/core/valueobjects"
	pkgerrors "github.com/sakettamrakar/eatclub/pkg/errors"
)

var errLockHeld = errors.New("draft lock already held")

// DraftLocker serializes draft mutations across processes using DynamoDB
// conditional writes. An expired lock is treated as free so a crashed
// holder never blocks a draft forever.
type DraftLocker struct {
	client       *dynamodb.Client
	tableName    string
	ownerID      string
	lockDuration time.Duration
	timeout      time.Duration
	logger       *zap.Logger
}

// lockRecord represents a lock item in DynamoDB
type lockRecord struct {
	PK         string `dynamodbav:"PK"` // LOCK#DRAFT#<draft id>
	SK         string `dynamodbav:"SK"` // LOCK
	LockID     string `dynamodbav:"LockID"`
	Owner      string `dynamodbav:"Owner"`
	AcquiredAt string `dynamodbav:"AcquiredAt"`
	ExpiresAt  string `dynamodbav:"ExpiresAt"`
	TTL        int64  `dynamodbav:"TTL"`
}

// NewDraftLocker creates a DynamoDB-backed per-draft locker
func NewDraftLocker(client *dynamodb.Client, tableName string, lockDuration, timeout time.Duration, logger *zap.Logger) ports.DraftLocker {
	hostname, _ := os.Hostname()
	return &DraftLocker{
		client:       client,
		tableName:    tableName,
		ownerID:      fmt.Sprintf("%s-%s", hostname, uuid.New().String()[:8]),
		lockDuration: lockDuration,
		timeout:      timeout,
		logger:       logger,
	}
}

// Acquire polls the lock item until the lock is free, the context is
// cancelled, or the timeout elapses
func (dl *DraftLocker) Acquire(ctx context.Context, draftID valueobjects.DraftID) (ports.Lock, error) {
	deadline := time.Now().Add(dl.timeout)
	retryInterval := 100 * time.Millisecond

	for {
		lock, err := dl.tryAcquire(ctx, draftID)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, errLockHeld) {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, pkgerrors.NewTimeoutError("acquire draft lock")
		}

		select {
		case <-ctx.Done():
			return nil, pkgerrors.NewStorageError("acquire draft lock", ctx.Err())
		case <-time.After(retryInterval):
			if retryInterval < time.Second {
				retryInterval = time.Duration(float64(retryInterval) * 1.5)
			}
		}
	}
}

func (dl *DraftLocker) tryAcquire(ctx context.Context, draftID valueobjects.DraftID) (ports.Lock, error) {
	lockID := uuid.New().String()
	now := time.Now()
	expiresAt := now.Add(dl.lockDuration)

	item := map[string]types.AttributeValue{
		"PK":         &types.AttributeValueMemberS{Value: lockPK(draftID)},
		"SK":         &types.AttributeValueMemberS{Value: "LOCK"},
		"LockID":     &types.AttributeValueMemberS{Value: lockID},
		"Owner":      &types.AttributeValueMemberS{Value: dl.ownerID},
		"AcquiredAt": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		"ExpiresAt":  &types.AttributeValueMemberS{Value: expiresAt.Format(time.RFC3339)},
		"TTL":        &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expiresAt.Unix())},
	}

	_, err := dl.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(dl.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK) OR ExpiresAt < :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, errLockHeld
		}
		return nil, pkgerrors.NewStorageError("acquire draft lock", err)
	}

	dl.logger.Debug("draft lock acquired",
		zap.String("draftID", draftID.String()),
		zap.String("lockID", lockID),
	)

	return &draftLock{
		locker:  dl,
		draftID: draftID,
		lockID:  lockID,
	}, nil
}

func (dl *DraftLocker) release(ctx context.Context, draftID valueobjects.DraftID, lockID string) error {
	_, err := dl.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(dl.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: lockPK(draftID)},
			"SK": &types.AttributeValueMemberS{Value: "LOCK"},
		},
		ConditionExpression: aws.String("LockID = :lockId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":lockId": &types.AttributeValueMemberS{Value: lockID},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			// The lock expired and was taken over; nothing left to release
			dl.logger.Warn("draft lock already released or expired",
				zap.String("draftID", draftID.String()),
				zap.String("lockID", lockID),
			)
			return nil
		}
		return pkgerrors.NewStorageError("release draft lock", err)
	}
	return nil
}

func lockPK(draftID valueobjects.DraftID) string {
	return fmt.Sprintf("LOCK#DRAFT#%s", draftID.String())
}

// draftLock is an acquired per-draft lock
type draftLock struct {
	locker  *DraftLocker
	draftID valueobjects.DraftID
	lockID  string
}

// Release releases the lock
func (l *draftLock) Release(ctx context.Context) error {
	return l.locker.release(ctx, l.draftID, l.lockID)
}
