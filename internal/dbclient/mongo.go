package dbclient

import (
	"context"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"ihaboard/internal/domain"
	"ihaboard/internal/errors"
	"ihaboard/internal/logger"
)

const historyCollection = "search_history"

// mongoHistory implements domain.HistoryStore on a MongoDB collection.
type mongoHistory struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func newMongoHistory(cfg domain.StoreConfig) (*mongoHistory, error) {
	uri, dbName := buildMongoURI(cfg)
	logger.Logger.Infow("Connecting history store", "driver", "mongodb", "uri", maskPassword(uri, cfg.Password), "database", dbName)

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connect mongo")
	}
	return &mongoHistory{
		client: client,
		coll:   client.Database(dbName).Collection(historyCollection),
	}, nil
}

// buildMongoURI returns the connection URI and database name for cfg.
// A full mongodb:// or mongodb+srv:// DSN is used as-is; <password>
// placeholders are filled from cfg.Password.
func buildMongoURI(cfg domain.StoreConfig) (string, string) {
	dbName := cfg.Database
	if dbName == "" {
		dbName = "ihaboard"
	}

	if strings.HasPrefix(cfg.DSN, "mongodb+srv://") || strings.HasPrefix(cfg.DSN, "mongodb://") {
		uri := cfg.DSN
		if cfg.Password != "" {
			escaped := escapeUserinfo(cfg.Password)
			uri = strings.ReplaceAll(uri, "<password>", escaped)
			uri = strings.ReplaceAll(uri, "<db_password>", escaped)
		}
		return uri, dbName
	}

	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 27017
	}
	u := url.URL{Scheme: "mongodb", Host: net.JoinHostPort(host, strconv.Itoa(port))}
	if cfg.Username != "" {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}
	return u.String(), dbName
}

// escapeUserinfo percent-encodes s for the password part of a URI.
func escapeUserinfo(s string) string {
	return strings.TrimPrefix(url.UserPassword("", s).String(), ":")
}

func maskPassword(uri, password string) string {
	if password == "" {
		return uri
	}
	uri = strings.ReplaceAll(uri, escapeUserinfo(password), "***")
	return strings.ReplaceAll(uri, password, "***")
}

func (m *mongoHistory) Record(ctx context.Context, e *domain.HistoryEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if _, err := m.coll.InsertOne(ctx, e); err != nil {
		return errors.Wrap(err, "insert history entry")
	}
	return nil
}

func (m *mongoHistory) List(ctx context.Context, board string, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	filter := bson.M{}
	if board != "" {
		filter["board"] = board
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := m.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find history")
	}
	defer cursor.Close(ctx)

	var entries []domain.HistoryEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, errors.Wrap(err, "decode history")
	}
	return entries, nil
}

func (m *mongoHistory) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
