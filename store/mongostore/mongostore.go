// Package mongostore implements domain.Store over a MongoDB collection.
package mongostore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"postboard/domain"
)

var _ domain.Store = (*Store)(nil)

type postDocument struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	Title   string             `bson:"title"`
	Content string             `bson:"content"`
	Image   *string            `bson:"image"`
	Date    time.Time          `bson:"date"`
}

func (d postDocument) post() domain.Post {
	p := domain.Post{
		ID:      d.ID.Hex(),
		Title:   d.Title,
		Content: d.Content,
		Date:    d.Date,
	}
	if d.Image != nil {
		p.Image = *d.Image
	}
	return p
}

type Store struct {
	coll  *mongo.Collection
	order domain.Ordering
	now   func() time.Time
}

type Option func(*Store)

func WithOrdering(o domain.Ordering) Option {
	return func(s *Store) {
		s.order = o
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New returns a Store that lists newest first unless told otherwise.
func New(coll *mongo.Collection, opts ...Option) *Store {
	s := &Store{
		coll:  coll,
		order: domain.OrderNewestFirst,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.order == domain.OrderDefault {
		s.order = domain.OrderNewestFirst
	}
	return s
}

// Connect creates a client for uri and pings the server. A failed ping is
// returned together with the client so callers can keep serving and let
// each request fail on its own.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		return client, errors.Wrap(err, "pinging mongo")
	}
	return client, nil
}

func (s *Store) List(ctx context.Context) ([]domain.Post, error) {
	sort := bson.D{{Key: "date", Value: -1}}
	if s.order == domain.OrderInsertion {
		sort = bson.D{{Key: "_id", Value: 1}}
	}

	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(sort))
	if err != nil {
		return nil, errors.Wrap(err, "finding posts")
	}
	var docs []postDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding posts")
	}

	posts := make([]domain.Post, 0, len(docs))
	for _, d := range docs {
		posts = append(posts, d.post())
	}
	return posts, nil
}

func (s *Store) Get(ctx context.Context, id string) (domain.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Post{}, domain.ErrNotFound
	}

	var d postDocument
	err = s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Post{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Post{}, errors.Wrapf(err, "finding post %s", id)
	}
	return d.post(), nil
}

func (s *Store) Create(ctx context.Context, in domain.PostInput) (domain.Post, error) {
	if err := in.Validate(); err != nil {
		return domain.Post{}, err
	}

	d := postDocument{
		Title:   in.Title,
		Content: in.Content,
		Date:    s.now().UTC().Truncate(time.Millisecond),
	}
	if image, ok := in.Image.Get(); ok {
		d.Image = &image
	}

	res, err := s.coll.InsertOne(ctx, d)
	if err != nil {
		return domain.Post{}, errors.Wrap(err, "inserting post")
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return domain.Post{}, errors.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	d.ID = oid
	return d.post(), nil
}

func (s *Store) Update(ctx context.Context, id string, in domain.PostInput) (domain.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Post{}, domain.ErrNotFound
	}

	set := bson.D{
		{Key: "title", Value: in.Title},
		{Key: "content", Value: in.Content},
		{Key: "date", Value: s.now().UTC().Truncate(time.Millisecond)},
	}
	if image, ok := in.Image.Get(); ok {
		set = append(set, bson.E{Key: "image", Value: image})
	}

	var d postDocument
	err = s.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Post{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Post{}, errors.Wrapf(err, "updating post %s", id)
	}
	return d.post(), nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}

	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return errors.Wrapf(err, "deleting post %s", id)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
