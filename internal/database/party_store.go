package database

import (
	"context"
	"errors"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"time"
)

// nextSequence 从计数器集合中分配自增ID
func (ds *DBStore) nextSequence(name string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
	defer cancel()

	filter := bson.D{{Key: "_id", Value: name}}
	update := bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: 1}}}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var counter struct {
		Seq int `bson:"seq"`
	}
	err := ds.db.Collection(CounterCollectionName).FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter)
	if err != nil {
		return 0, wrapDatabaseError(err)
	}
	return counter.Seq, nil
}

func (ds *DBStore) CreateParty(shareExp bool, shareItem bool, leaderID string) (int, error) {
	if leaderID == "" {
		return 0, CharacterIdEmptyError
	}

	partyID, err := ds.nextSequence("party_id")
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
	defer cancel()

	record := bson.D{
		{Key: "party_id", Value: partyID},
		{Key: "leader_id", Value: leaderID},
		{Key: "share_exp", Value: shareExp},
		{Key: "share_item", Value: shareItem},
	}
	_, err = ds.db.Collection(PartyCollectionName).InsertOne(ctx, record)
	if err != nil {
		return 0, wrapDatabaseError(err)
	}

	logger.InfoF("Party created: party_id=%d, leader_id=%s", partyID, leaderID)

	return partyID, nil
}

// GetParty 读取队伍记录，成员快照由角色集合中的队伍关联重建
func (ds *DBStore) GetParty(partyID int) (*PartyData, error) {
	ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
	defer cancel()

	if partyID <= 0 {
		return nil, InvalidPartyIdError
	}

	filter := bson.D{{Key: "party_id", Value: partyID}}
	var party PartyData

	startTime := time.Now()
	err := ds.db.Collection(PartyCollectionName).FindOne(ctx, filter).Decode(&party)
	logger.DebugF("party query cost: %v", time.Since(startTime))

	if err != nil {
		return nil, wrapDatabaseError(err)
	}

	memberFilter := bson.D{{Key: "party_id", Value: partyID}}
	cursor, err := ds.db.Collection(CharacterCollectionName).Find(ctx, memberFilter)
	if err != nil {
		return nil, wrapDatabaseError(err)
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	party.Members = party.Members[:0]
	for cursor.Next(ctx) {
		var character CharacterData
		if err := cursor.Decode(&character); err != nil {
			return nil, wrapDatabaseError(err)
		}
		party.Members = append(party.Members, PartyMember{
			CharacterID:   character.ID,
			CharacterName: character.Name,
			DataID:        character.DataID,
			Level:         character.Level,
			CurrentHp:     character.CurrentHp,
			MaxHp:         character.MaxHp,
			CurrentMp:     character.CurrentMp,
			MaxMp:         character.MaxMp,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, wrapDatabaseError(err)
	}

	return &party, nil
}

func (ds *DBStore) UpdatePartySetting(partyID int, shareExp bool, shareItem bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
	defer cancel()

	if partyID <= 0 {
		return InvalidPartyIdError
	}

	filter := bson.D{{Key: "party_id", Value: partyID}}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "share_exp", Value: shareExp},
		{Key: "share_item", Value: shareItem},
	}}}

	result, err := ds.db.Collection(PartyCollectionName).UpdateOne(ctx, filter, update)
	if err != nil {
		return wrapDatabaseError(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (ds *DBStore) DeleteParty(partyID int) error {
	ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
	defer cancel()

	if partyID <= 0 {
		return InvalidPartyIdError
	}

	filter := bson.D{{Key: "party_id", Value: partyID}}
	result, err := ds.db.Collection(PartyCollectionName).DeleteOne(ctx, filter)

	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return wrapDatabaseError(err)
	}

	logger.InfoF("Party deleted: party_id=%d, deleted=%d", partyID, result.DeletedCount)

	return nil
}
