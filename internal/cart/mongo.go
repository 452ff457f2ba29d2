package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

// Prices are kept as decimal strings; BSON has no type for shopspring decimals.
type cartDocument struct {
	CustomerID string         `bson:"customer_id"`
	Items      []itemDocument `bson:"items"`
	CreatedAt  time.Time      `bson:"created_at"`
	UpdatedAt  time.Time      `bson:"updated_at"`
}

type itemDocument struct {
	ProductID           string    `bson:"product_id"`
	Name                string    `bson:"name"`
	UnitPrice           string    `bson:"unit_price"`
	DiscountedUnitPrice string    `bson:"discounted_unit_price,omitempty"`
	Quantity            int       `bson:"quantity"`
	AddedAt             time.Time `bson:"added_at"`
}

func toItemDocument(item domain.CartItem) itemDocument {
	doc := itemDocument{
		ProductID: item.ProductID,
		Name:      item.Name,
		UnitPrice: item.UnitPrice.String(),
		Quantity:  item.Quantity,
		AddedAt:   item.AddedAt,
	}
	if item.DiscountedUnitPrice != nil {
		doc.DiscountedUnitPrice = item.DiscountedUnitPrice.String()
	}
	return doc
}

func (d cartDocument) toDomain() (*domain.Cart, error) {
	c := &domain.Cart{
		CustomerID: d.CustomerID,
		Items:      make([]domain.CartItem, 0, len(d.Items)),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
	for _, it := range d.Items {
		price, err := decimal.NewFromString(it.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("product %s: bad unit price: %w", it.ProductID, err)
		}
		item := domain.CartItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: price,
			Quantity:  it.Quantity,
			AddedAt:   it.AddedAt,
		}
		if it.DiscountedUnitPrice != "" {
			discounted, err := decimal.NewFromString(it.DiscountedUnitPrice)
			if err != nil {
				return nil, fmt.Errorf("product %s: bad discounted price: %w", it.ProductID, err)
			}
			item.DiscountedUnitPrice = &discounted
		}
		c.Items = append(c.Items, item)
	}
	return c, nil
}

type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		collection: db.Collection("carts"),
	}
}

func (m *MongoRepository) GetCart(ctx context.Context, customerID string) (*domain.Cart, error) {
	var doc cartDocument

	err := m.collection.FindOne(ctx, bson.M{"customer_id": customerID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return doc.toDomain()
}

// AddItem replaces the line for the same product, or appends a new one.
func (m *MongoRepository) AddItem(ctx context.Context, customerID string, item domain.CartItem) error {
	now := time.Now().UTC()
	item.AddedAt = now
	doc := toItemDocument(item)
	filter := bson.M{"customer_id": customerID}

	update := bson.M{
		"$set": bson.M{
			"items.$[elem]": doc,
			"updated_at":    now,
		},
	}
	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem.product_id": item.ProductID},
		},
	})
	res, err := m.collection.UpdateOne(ctx, bson.M{"customer_id": customerID, "items.product_id": item.ProductID}, update, arrayFilters)
	if err != nil {
		return fmt.Errorf("failed to update existing item: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	push := bson.M{
		"$push":        bson.M{"items": doc},
		"$set":         bson.M{"updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}
	_, err = m.collection.UpdateOne(ctx, filter, push, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to add new item: %w", err)
	}
	return nil
}

func (m *MongoRepository) UpdateItemQuantity(ctx context.Context, customerID, productID string, quantity int) error {
	filter := bson.M{
		"customer_id":      customerID,
		"items.product_id": productID,
	}

	update := bson.M{
		"$set": bson.M{
			"items.$[elem].quantity": quantity,
			"updated_at":             time.Now().UTC(),
		},
	}

	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem.product_id": productID},
		},
	})

	result, err := m.collection.UpdateOne(ctx, filter, update, arrayFilters)
	if err != nil {
		return fmt.Errorf("failed to update item quantity: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (m *MongoRepository) RemoveItem(ctx context.Context, customerID, productID string) error {
	update := bson.M{
		"$pull": bson.M{
			"items": bson.M{"product_id": productID},
		},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	result, err := m.collection.UpdateOne(ctx, bson.M{"customer_id": customerID}, update)
	if err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (m *MongoRepository) DeleteCart(ctx context.Context, customerID string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"customer_id": customerID})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

// CreateIndexes makes customer_id unique and expires carts idle for longer
// than ttl. A non-positive ttl keeps them for 30 days.
func (m *MongoRepository) CreateIndexes(ctx context.Context, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "customer_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(ttl / time.Second)),
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
