package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quillchat/chat-platform/internal/core/domain"
)

const conversationCollection = "conversations"

type ConversationRepository struct {
	coll *mongo.Collection
}

func NewConversationRepository(db *mongo.Database) *ConversationRepository {
	return &ConversationRepository{coll: db.Collection(conversationCollection)}
}

type mongoConversation struct {
	ID             string         `bson:"_id"`
	OwnerID        string         `bson:"owner_id"`
	Title          string         `bson:"title"`
	GroupID        *string        `bson:"group_id,omitempty"`
	SharedGroupIDs []string       `bson:"shared_group_ids"`
	Messages       []mongoMessage `bson:"messages"`
	CreatedAt      time.Time      `bson:"created_at"`
	UpdatedAt      time.Time      `bson:"updated_at"`
}

type mongoMessage struct {
	ID        string    `bson:"id"`
	Role      string    `bson:"role"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"created_at"`
}

func (r *ConversationRepository) Create(ctx context.Context, conversation *domain.Conversation) (*domain.Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, fromDomainConversation(conversation)); err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	return conversation, nil
}

func (r *ConversationRepository) FindByID(ctx context.Context, id string) (*domain.Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mc mongoConversation
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&mc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	return mc.toDomain(), nil
}

// ListVisible returns conversations owned by the user plus conversations
// shared with any of the given groups, newest activity first. Message bodies
// stay out of list payloads.
func (r *ConversationRepository) ListVisible(ctx context.Context, ownerID string, groupIDs []string) ([]*domain.Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if groupIDs == nil {
		groupIDs = []string{}
	}
	filter := bson.M{"$or": []bson.M{
		{"owner_id": ownerID},
		{"shared_group_ids": bson.M{"$in": groupIDs}},
	}}

	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetProjection(bson.M{"messages": 0})

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer cur.Close(ctx)

	conversations := []*domain.Conversation{}
	for cur.Next(ctx) {
		var mc mongoConversation
		if err := cur.Decode(&mc); err != nil {
			return nil, fmt.Errorf("decode conversation: %w", err)
		}
		conversations = append(conversations, mc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return conversations, nil
}

func (r *ConversationRepository) UpdateShares(ctx context.Context, id string, sharedGroupIDs []string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if sharedGroupIDs == nil {
		sharedGroupIDs = []string{}
	}
	update := bson.M{"$set": bson.M{
		"shared_group_ids": sharedGroupIDs,
		"updated_at":       time.Now().UTC(),
	}}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update shares: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}

func (r *ConversationRepository) SetGroup(ctx context.Context, id string, groupID *string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var update bson.M
	if groupID == nil {
		update = bson.M{
			"$unset": bson.M{"group_id": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
		}
	} else {
		update = bson.M{"$set": bson.M{
			"group_id":   *groupID,
			"updated_at": time.Now().UTC(),
		}}
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("set group: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}

func (r *ConversationRepository) AppendMessage(ctx context.Context, id string, msg domain.Message) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{
		"$push": bson.M{"messages": fromDomainMessage(msg)},
		"$set":  bson.M{"updated_at": msg.CreatedAt.UTC()},
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}

// PullSharedGroup removes one group from one conversation's sharing set in a
// single update. updated_at stays put so background cleanup does not reorder
// the owner's conversation list.
func (r *ConversationRepository) PullSharedGroup(ctx context.Context, conversationID, groupID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": conversationID},
		bson.M{"$pull": bson.M{"shared_group_ids": groupID}},
	)
	if err != nil {
		return false, fmt.Errorf("pull shared group: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

// ClearGroup detaches every conversation filed under the group.
func (r *ConversationRepository) ClearGroup(ctx context.Context, groupID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateMany(ctx,
		bson.M{"group_id": groupID},
		bson.M{"$unset": bson.M{"group_id": ""}},
	)
	if err != nil {
		return 0, fmt.Errorf("clear group: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *ConversationRepository) ListIDsBySharedGroup(ctx context.Context, groupID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx,
		bson.M{"shared_group_ids": groupID},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("list conversations by shared group: %w", err)
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var row struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode conversation id: %w", err)
		}
		ids = append(ids, row.ID)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list conversations by shared group: %w", err)
	}
	return ids, nil
}

func fromDomainConversation(c *domain.Conversation) mongoConversation {
	msgs := make([]mongoMessage, 0, len(c.Messages))
	for _, m := range c.Messages {
		msgs = append(msgs, fromDomainMessage(m))
	}
	shared := c.SharedGroupIDs
	if shared == nil {
		shared = []string{}
	}
	return mongoConversation{
		ID:             c.ID,
		OwnerID:        c.OwnerID,
		Title:          c.Title,
		GroupID:        c.GroupID,
		SharedGroupIDs: shared,
		Messages:       msgs,
		CreatedAt:      c.CreatedAt.UTC(),
		UpdatedAt:      c.UpdatedAt.UTC(),
	}
}

func fromDomainMessage(m domain.Message) mongoMessage {
	return mongoMessage{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

func (mc mongoConversation) toDomain() *domain.Conversation {
	msgs := make([]domain.Message, 0, len(mc.Messages))
	for _, m := range mc.Messages {
		msgs = append(msgs, domain.Message{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return &domain.Conversation{
		ID:             mc.ID,
		OwnerID:        mc.OwnerID,
		Title:          mc.Title,
		GroupID:        mc.GroupID,
		SharedGroupIDs: mc.SharedGroupIDs,
		Messages:       msgs,
		CreatedAt:      mc.CreatedAt,
		UpdatedAt:      mc.UpdatedAt,
	}
}
