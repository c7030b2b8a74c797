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

const groupCollection = "groups"

type GroupRepository struct {
	coll *mongo.Collection
}

func NewGroupRepository(db *mongo.Database) *GroupRepository {
	return &GroupRepository{coll: db.Collection(groupCollection)}
}

type mongoGroup struct {
	ID         string    `bson:"_id"`
	Name       string    `bson:"name"`
	OwnerID    string    `bson:"owner_id"`
	MemberIDs  []string  `bson:"member_ids"`
	ManagerIDs []string  `bson:"manager_ids"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

// Create inserts a new group document. Group ids are generated by the
// service layer, so the stored value is returned unchanged.
func (r *GroupRepository) Create(ctx context.Context, group *domain.Group) (*domain.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, fromDomainGroup(group)); err != nil {
		return nil, fmt.Errorf("insert group: %w", err)
	}
	return group, nil
}

func (r *GroupRepository) FindByID(ctx context.Context, id string) (*domain.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mg mongoGroup
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&mg); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, fmt.Errorf("find group: %w", err)
	}
	return mg.toDomain(), nil
}

func (r *GroupRepository) List(ctx context.Context) ([]*domain.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer cur.Close(ctx)

	groups := []*domain.Group{}
	for cur.Next(ctx) {
		var mg mongoGroup
		if err := cur.Decode(&mg); err != nil {
			return nil, fmt.Errorf("decode group: %w", err)
		}
		groups = append(groups, mg.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrGroupNotFound
	}
	return nil
}

// ListIDsByMember returns the ids of every group where the user appears as
// owner, manager or member.
func (r *GroupRepository) ListIDsByMember(ctx context.Context, userID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"$or": []bson.M{
		{"owner_id": userID},
		{"member_ids": userID},
		{"manager_ids": userID},
	}}

	cur, err := r.coll.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("list groups by member: %w", err)
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var row struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode group id: %w", err)
		}
		ids = append(ids, row.ID)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list groups by member: %w", err)
	}
	return ids, nil
}

func fromDomainGroup(g *domain.Group) mongoGroup {
	return mongoGroup{
		ID:         g.ID,
		Name:       g.Name,
		OwnerID:    g.OwnerID,
		MemberIDs:  g.MemberIDs,
		ManagerIDs: g.ManagerIDs,
		CreatedAt:  g.CreatedAt.UTC(),
		UpdatedAt:  g.UpdatedAt.UTC(),
	}
}

func (mg mongoGroup) toDomain() *domain.Group {
	return &domain.Group{
		ID:         mg.ID,
		Name:       mg.Name,
		OwnerID:    mg.OwnerID,
		MemberIDs:  mg.MemberIDs,
		ManagerIDs: mg.ManagerIDs,
		CreatedAt:  mg.CreatedAt,
		UpdatedAt:  mg.UpdatedAt,
	}
}
