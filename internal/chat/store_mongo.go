// Copyright (c) 2026 Bloomify. All rights reserved.

package chat

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/database/schema"
	"github.com/abhijeetsuryawanshi12/Bloomify/pkg/pagination"
)

// MongoRepository implements [Repository] on two collections: chats and
// paired_messages.
type MongoRepository struct {
	chats    *mongo.Collection
	messages *mongo.Collection
}

// NewMongoRepository binds the repository to db.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		chats:    db.Collection(schema.Chat.Name),
		messages: db.Collection(schema.PairedMessage.Name),
	}
}

// EnsureIndexes creates the owner listing and history indexes. It is idempotent.
func (repository *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := repository.chats.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: schema.Chat.OwnerID, Value: 1}, {Key: schema.Chat.CreatedAt, Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("chat_store_index_chats_failed: %w", err)
	}

	_, err = repository.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: schema.PairedMessage.ChatID, Value: 1}, {Key: schema.PairedMessage.CreatedAt, Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("chat_store_index_messages_failed: %w", err)
	}
	return nil
}

func ownedChat(ownerID, chatID string) bson.M {
	return bson.M{schema.Chat.ID: chatID, schema.Chat.OwnerID: ownerID}
}

func (repository *MongoRepository) Create(ctx context.Context, chat *Chat) error {
	if chat.History == nil {
		chat.History = []string{}
	}
	if _, err := repository.chats.InsertOne(ctx, chat); err != nil {
		return fmt.Errorf("chat_store_create_failed: %w", err)
	}
	return nil
}

func (repository *MongoRepository) List(ctx context.Context, ownerID string, filter ListFilter, page pagination.Params) ([]*Chat, int, error) {
	query := bson.M{schema.Chat.OwnerID: ownerID}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{schema.Chat.Title: pattern},
			bson.M{schema.Chat.Subject: pattern},
		}
	}

	total, err := repository.chats.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("chat_store_count_failed: %w", err)
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: schema.Chat.CreatedAt, Value: -1}, {Key: schema.Chat.ID, Value: -1}}).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.Limit))

	cursor, err := repository.chats.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("chat_store_list_failed: %w", err)
	}

	chats := []*Chat{}
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, 0, fmt.Errorf("chat_store_decode_failed: %w", err)
	}
	return chats, int(total), nil
}

func (repository *MongoRepository) FindByID(ctx context.Context, ownerID, chatID string) (*Chat, error) {
	chat := &Chat{}
	err := repository.chats.FindOne(ctx, ownedChat(ownerID, chatID)).Decode(chat)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("chat_store_find_failed: %w", err)
	}
	return chat, nil
}

func (repository *MongoRepository) Rename(ctx context.Context, ownerID, chatID, title string) error {
	result, err := repository.chats.UpdateOne(ctx, ownedChat(ownerID, chatID), bson.M{
		"$set": bson.M{schema.Chat.Title: title, schema.Chat.UpdatedAt: time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("chat_store_rename_failed: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrChatNotFound
	}
	return nil
}

func (repository *MongoRepository) Delete(ctx context.Context, ownerID, chatID string) error {
	result, err := repository.chats.DeleteOne(ctx, ownedChat(ownerID, chatID))
	if err != nil {
		return fmt.Errorf("chat_store_delete_failed: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrChatNotFound
	}

	if _, err := repository.messages.DeleteMany(ctx, bson.M{schema.PairedMessage.ChatID: chatID}); err != nil {
		return fmt.Errorf("chat_store_delete_messages_failed: %w", err)
	}
	return nil
}

// AppendMessage inserts the message first and removes it again if the chat
// turns out to be missing, so history never points at an absent message.
func (repository *MongoRepository) AppendMessage(ctx context.Context, ownerID string, message *PairedMessage) error {
	if _, err := repository.messages.InsertOne(ctx, message); err != nil {
		return fmt.Errorf("chat_store_insert_message_failed: %w", err)
	}

	result, err := repository.chats.UpdateOne(ctx, ownedChat(ownerID, message.ChatID), bson.M{
		"$push": bson.M{schema.Chat.History: message.ID},
		"$set":  bson.M{schema.Chat.UpdatedAt: message.CreatedAt},
	})
	if err == nil && result.MatchedCount == 0 {
		err = ErrChatNotFound
	}
	if err != nil {
		_, _ = repository.messages.DeleteOne(ctx, bson.M{schema.PairedMessage.ID: message.ID})
		if errors.Is(err, ErrChatNotFound) {
			return err
		}
		return fmt.Errorf("chat_store_push_history_failed: %w", err)
	}
	return nil
}

func (repository *MongoRepository) Messages(ctx context.Context, chatID string) ([]PairedMessage, error) {
	findOptions := options.Find().SetSort(bson.D{
		{Key: schema.PairedMessage.CreatedAt, Value: 1},
		{Key: schema.PairedMessage.ID, Value: 1},
	})

	cursor, err := repository.messages.Find(ctx, bson.M{schema.PairedMessage.ChatID: chatID}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("chat_store_messages_failed: %w", err)
	}

	messages := []PairedMessage{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("chat_store_decode_failed: %w", err)
	}
	return messages, nil
}

func (repository *MongoRepository) FindMessage(ctx context.Context, ownerID, chatID, messageID string) (*PairedMessage, error) {
	err := repository.chats.FindOne(ctx, ownedChat(ownerID, chatID),
		options.FindOne().SetProjection(bson.M{schema.Chat.ID: 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("chat_store_find_failed: %w", err)
	}

	message := &PairedMessage{}
	err = repository.messages.FindOne(ctx, bson.M{
		schema.PairedMessage.ID:     messageID,
		schema.PairedMessage.ChatID: chatID,
	}).Decode(message)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("chat_store_find_message_failed: %w", err)
	}
	return message, nil
}

func (repository *MongoRepository) ChatIDs(ctx context.Context, ownerID string) ([]string, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: schema.Chat.CreatedAt, Value: -1}, {Key: schema.Chat.ID, Value: -1}}).
		SetProjection(bson.M{schema.Chat.ID: 1})

	cursor, err := repository.chats.Find(ctx, bson.M{schema.Chat.OwnerID: ownerID}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("chat_store_ids_failed: %w", err)
	}

	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("chat_store_decode_failed: %w", err)
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}
