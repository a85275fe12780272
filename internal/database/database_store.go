package database

import (
	"context"
	"errors"
	"fmt"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"time"
)

type DBStore struct {
	client *mongo.Client
	db     *mongo.Database
}

var DbStore *DBStore

func NewDatabaseStore() *DBStore {
	if DbStore == nil {
		DbStore = &DBStore{client: Client, db: Database}
	}
	return DbStore
}

func wrapDatabaseError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("unique key conflicts: %w", err)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return fmt.Errorf("database operation failed: %w", err)
}

func (ds *DBStore) GetCharacter(userID string, characterID string) (*CharacterData, error) {
	ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
	defer cancel()

	if characterID == "" {
		return nil, CharacterIdEmptyError
	}

	filter := bson.D{{Key: "character_id", Value: characterID}}
	if userID != "" {
		filter = append(filter, bson.E{Key: "user_id", Value: userID})
	}
	var character CharacterData

	startTime := time.Now()
	err := ds.db.Collection(CharacterCollectionName).FindOne(ctx, filter).Decode(&character)
	logger.DebugF("character query cost: %v", time.Since(startTime))

	if err != nil {
		return nil, wrapDatabaseError(err)
	}
	return &character, nil
}

func (ds *DBStore) SaveCharacter(character *CharacterData) error {
	ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
	defer cancel()

	if character.ID == "" {
		return CharacterIdEmptyError
	}

	filter := bson.D{{Key: "character_id", Value: character.ID}}
	opts := options.Replace().SetUpsert(true)

	result, err := ds.db.Collection(CharacterCollectionName).ReplaceOne(ctx, filter, character, opts)

	if err != nil {
		return wrapDatabaseError(err)
	}

	logger.InfoF("Character saved: character_id=%s, matched=%d, modified=%d, upserted=%v",
		character.ID,
		result.MatchedCount,
		result.ModifiedCount,
		result.UpsertedID != nil,
	)

	return nil
}

func (ds *DBStore) DeleteCharacter(characterID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
	defer cancel()

	if characterID == "" {
		return CharacterIdEmptyError
	}

	filter := bson.D{{Key: "character_id", Value: characterID}}
	result, err := ds.db.Collection(CharacterCollectionName).DeleteOne(ctx, filter)

	if err != nil {
		return wrapDatabaseError(err)
	}

	logger.InfoF("Character deleted: character_id=%s, deleted=%d", characterID, result.DeletedCount)

	return nil
}

func (ds *DBStore) SetCharacterParty(characterID string, partyID int) error {
	ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
	defer cancel()

	if characterID == "" {
		return CharacterIdEmptyError
	}

	filter := bson.D{{Key: "character_id", Value: characterID}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "party_id", Value: partyID}}}}

	_, err := ds.db.Collection(CharacterCollectionName).UpdateOne(ctx, filter, update)

	if err != nil {
		return wrapDatabaseError(err)
	}

	return nil
}
