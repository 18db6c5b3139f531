package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/internal/db"
	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/types"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoUserRepository handles persistence for users in MongoDB.
type MongoUserRepository struct {
	users *mongo.Collection
}

func NewMongoUserRepository(database *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{users: database.Collection(db.UsersCollection)}
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (r *MongoUserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	user.ID = uuid.NewString()
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if _, err := r.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return types.User{}, ErrConflict
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (types.User, error) {
	var user types.User
	if err := r.users.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// mongoPostView is a post document after the author lookup stage.
type mongoPostView struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user"`
	Text      string    `bson:"text"`
	ImageURL  string    `bson:"imageUrl,omitempty"`
	Likes     []string  `bson:"likes"`
	CreatedAt time.Time `bson:"createdAt"`
	Author    struct {
		Name string `bson:"name"`
	} `bson:"author"`
}

func (doc mongoPostView) view() types.PostView {
	likes := doc.Likes
	if likes == nil {
		likes = []string{}
	}
	return types.PostView{
		ID:        doc.ID,
		Text:      doc.Text,
		ImageURL:  doc.ImageURL,
		CreatedAt: doc.CreatedAt.UTC(),
		Likes:     likes,
		UserID:    doc.UserID,
		UserName:  doc.Author.Name,
	}
}

// MongoPostRepository handles persistence for posts in MongoDB. Likes are
// stored as a set on the post document.
type MongoPostRepository struct {
	posts *mongo.Collection
}

func NewMongoPostRepository(database *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{posts: database.Collection(db.PostsCollection)}
}

func (r *MongoPostRepository) List(ctx context.Context) ([]types.PostView, error) {
	return r.aggregateViews(ctx, bson.D{})
}

func (r *MongoPostRepository) ListByAuthor(ctx context.Context, userID string) ([]types.PostView, error) {
	return r.aggregateViews(ctx, bson.D{{Key: "user", Value: userID}})
}

func (r *MongoPostRepository) Get(ctx context.Context, id string) (types.PostView, error) {
	views, err := r.aggregateViews(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return types.PostView{}, err
	}
	if len(views) == 0 {
		return types.PostView{}, ErrNotFound
	}
	return views[0], nil
}

func (r *MongoPostRepository) Create(ctx context.Context, post types.Post) (types.Post, error) {
	post.ID = uuid.NewString()
	post.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	post.Likes = []string{}

	if _, err := r.posts.InsertOne(ctx, post); err != nil {
		return types.Post{}, err
	}
	return post, nil
}

// UpdateText replaces the text of a post owned by userID. The update is
// filtered on the owner so a non-author write can never match.
func (r *MongoPostRepository) UpdateText(ctx context.Context, id, userID, text string) error {
	if text == "" {
		_, err := r.ownedPost(ctx, id, userID)
		return err
	}

	result, err := r.posts.UpdateOne(ctx,
		bson.M{"_id": id, "user": userID},
		bson.M{"$set": bson.M{"text": text}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return r.missOrNotOwner(ctx, id)
	}
	return nil
}

func (r *MongoPostRepository) Delete(ctx context.Context, id, userID string) (types.Post, error) {
	var deleted types.Post
	err := r.posts.FindOneAndDelete(ctx, bson.M{"_id": id, "user": userID}).Decode(&deleted)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.Post{}, r.missOrNotOwner(ctx, id)
		}
		return types.Post{}, err
	}
	return deleted, nil
}

// ToggleLike removes userID from the like set when present and adds it
// otherwise. $pull and $addToSet keep the set free of duplicates.
func (r *MongoPostRepository) ToggleLike(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.posts.UpdateOne(ctx,
		bson.M{"_id": id, "likes": userID},
		bson.M{"$pull": bson.M{"likes": userID}},
	)
	if err != nil {
		return false, err
	}
	if result.MatchedCount > 0 {
		return false, nil
	}

	result, err = r.posts.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"likes": userID}},
	)
	if err != nil {
		return false, err
	}
	if result.MatchedCount == 0 {
		return false, ErrNotFound
	}
	return true, nil
}

func (r *MongoPostRepository) aggregateViews(ctx context.Context, match bson.D) ([]types.PostView, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: db.UsersCollection},
			{Key: "localField", Value: "user"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "author"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$author"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}

	cursor, err := r.posts.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []mongoPostView
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	views := make([]types.PostView, 0, len(docs))
	for _, doc := range docs {
		views = append(views, doc.view())
	}
	return views, nil
}

func (r *MongoPostRepository) ownedPost(ctx context.Context, id, userID string) (types.Post, error) {
	var post types.Post
	if err := r.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.Post{}, ErrNotFound
		}
		return types.Post{}, err
	}
	if post.UserID != userID {
		return types.Post{}, ErrNotOwner
	}
	return post, nil
}

func (r *MongoPostRepository) missOrNotOwner(ctx context.Context, id string) error {
	count, err := r.posts.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrNotOwner
}
