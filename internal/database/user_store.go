package database

import (
	"context"
	"errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (ds *DBStore) ValidateAccessToken(userID string, accessToken string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
	defer cancel()

	if userID == "" {
		return false, UserIdEmptyError
	}
	if accessToken == "" {
		return false, InvalidAccessTokenLength
	}

	filter := bson.D{{Key: "user_id", Value: userID}, {Key: "access_token", Value: accessToken}}
	err := ds.db.Collection(UserCollectionName).FindOne(ctx, filter).Err()

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, wrapDatabaseError(err)
	}
	return true, nil
}

func (ds *DBStore) GetCash(userID string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
	defer cancel()

	if userID == "" {
		return 0, UserIdEmptyError
	}

	filter := bson.D{{Key: "user_id", Value: userID}}
	var user UserData

	err := ds.db.Collection(UserCollectionName).FindOne(ctx, filter).Decode(&user)
	if err != nil {
		return 0, wrapDatabaseError(err)
	}
	return user.Cash, nil
}

func (ds *DBStore) IncreaseCash(userID string, amount int) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
	defer cancel()

	if userID == "" {
		return 0, UserIdEmptyError
	}
	if amount <= 0 {
		return 0, InvalidCashAmountError
	}

	filter := bson.D{{Key: "user_id", Value: userID}}
	update := bson.D{{Key: "$inc", Value: bson.D{{Key: "cash", Value: amount}}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user UserData
	err := ds.db.Collection(UserCollectionName).FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	if err != nil {
		return 0, wrapDatabaseError(err)
	}
	return user.Cash, nil
}

// DecreaseCash 余额扣减，过滤条件保证检查与扣减为单次原子操作
func (ds *DBStore) DecreaseCash(userID string, amount int) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
	defer cancel()

	if userID == "" {
		return 0, UserIdEmptyError
	}
	if amount <= 0 {
		return 0, InvalidCashAmountError
	}

	filter := bson.D{{Key: "user_id", Value: userID}, {Key: "cash", Value: bson.D{{Key: "$gte", Value: amount}}}}
	update := bson.D{{Key: "$inc", Value: bson.D{{Key: "cash", Value: -amount}}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user UserData
	err := ds.db.Collection(UserCollectionName).FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// 区分用户不存在与余额不足
			if _, getErr := ds.GetCash(userID); getErr != nil {
				return 0, getErr
			}
			return 0, ErrNotEnoughCash
		}
		return 0, wrapDatabaseError(err)
	}
	return user.Cash, nil
}
