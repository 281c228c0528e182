// internal/app/store/exchanges/exchangestore.go
package exchangestore

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/provident1031/exchangehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("exchanges")}
}

// GetByID loads an exchange by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Exchange, error) {
	var e models.Exchange
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// GetByIDs loads the exchanges whose IDs are in the given set.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Exchange, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Exchange
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a new exchange.
func (s *Store) Create(ctx context.Context, e models.Exchange) (models.Exchange, error) {
	e.ID = primitive.NewObjectID()
	e.Name = strings.TrimSpace(e.Name)
	e.NameCI = text.Fold(e.Name)
	if e.Status == "" {
		e.Status = models.ExchangeStatusDraft
	}

	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Exchange{}, err
	}
	return e, nil
}

// Find runs an arbitrary filter with find options. The directory
// listing uses this for keyset pagination; the options carry the sort
// and limit.
func (s *Store) Find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Exchange, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Exchange
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListIDs returns the IDs of every exchange. The admin path of the
// visibility engine is the only caller.
func (s *Store) ListIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	return s.collectIDs(ctx, bson.M{})
}

// ListIDsByPrimaryClient returns exchange IDs whose primary client
// matches the given user or contact. Either key may be nil; the fast
// path must hold for whichever reference the exchange row carries.
func (s *Store) ListIDsByPrimaryClient(ctx context.Context, userID, contactID *primitive.ObjectID) ([]primitive.ObjectID, error) {
	var or []bson.M
	if userID != nil {
		or = append(or, bson.M{"client_user_id": *userID})
	}
	if contactID != nil {
		or = append(or, bson.M{"client_contact_id": *contactID})
	}
	if len(or) == 0 {
		return nil, nil
	}
	return s.collectIDs(ctx, bson.M{"$or": or})
}

// ListIDsByCoordinator returns exchange IDs whose primary coordinator
// is the given user.
func (s *Store) ListIDsByCoordinator(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.collectIDs(ctx, bson.M{"coordinator_id": userID})
}

func (s *Store) collectIDs(ctx context.Context, filter bson.M) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out = append(out, row.ID)
	}
	return out, cur.Err()
}
