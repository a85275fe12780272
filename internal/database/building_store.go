package database

import (
	"context"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"time"
)

func (ds *DBStore) GetBuildings(mapName string) ([]*BuildingData, error) {
	ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
	defer cancel()

	filter := bson.D{{Key: "map_name", Value: mapName}}

	startTime := time.Now()
	cursor, err := ds.db.Collection(BuildingCollectionName).Find(ctx, filter)
	logger.DebugF("building query cost: %v", time.Since(startTime))

	if err != nil {
		return nil, wrapDatabaseError(err)
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var buildings []*BuildingData
	for cursor.Next(ctx) {
		var building BuildingData
		if err := cursor.Decode(&building); err != nil {
			return nil, wrapDatabaseError(err)
		}
		buildings = append(buildings, &building)
	}
	if err := cursor.Err(); err != nil {
		return nil, wrapDatabaseError(err)
	}

	return buildings, nil
}

func (ds *DBStore) SaveBuilding(mapName string, building *BuildingData) error {
	ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
	defer cancel()

	if building.ID == "" {
		return BuildingIdEmptyError
	}
	building.MapName = mapName

	filter := bson.D{{Key: "building_id", Value: building.ID}}
	opts := options.Replace().SetUpsert(true)

	result, err := ds.db.Collection(BuildingCollectionName).ReplaceOne(ctx, filter, building, opts)

	if err != nil {
		return wrapDatabaseError(err)
	}

	logger.DebugF("Building saved: building_id=%s, matched=%d, modified=%d, upserted=%v",
		building.ID,
		result.MatchedCount,
		result.ModifiedCount,
		result.UpsertedID != nil,
	)

	return nil
}

func (ds *DBStore) DeleteBuilding(mapName string, buildingID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
	defer cancel()

	if buildingID == "" {
		return BuildingIdEmptyError
	}

	filter := bson.D{{Key: "building_id", Value: buildingID}, {Key: "map_name", Value: mapName}}
	result, err := ds.db.Collection(BuildingCollectionName).DeleteOne(ctx, filter)

	if err != nil {
		return wrapDatabaseError(err)
	}

	logger.InfoF("Building deleted: building_id=%s, deleted=%d", buildingID, result.DeletedCount)

	return nil
}
