package message

import (
	"MProject/tools/errs"
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const MsgTableName = "messages"

// docModel 落库结构（bson）
type docModel struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	SenderID   string             `bson:"sender_id"`
	ReceiverID string             `bson:"receiver_id"`
	Content    string             `bson:"content"`
	CreateTime int64              `bson:"create_time"` // Unix ms
}

// Message 对外/下发结构（json），落库成功后不可变
type Message struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
	CreatedAt  int64  `json:"createdAt"` // Unix ms
}

func (d *docModel) toMessage() *Message {
	return &Message{
		ID:         d.ID.Hex(),
		SenderID:   d.SenderID,
		ReceiverID: d.ReceiverID,
		Content:    d.Content,
		CreatedAt:  d.CreateTime,
	}
}

type Store struct {
	coll *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{coll: db.Collection(MsgTableName)}
}

// Append 追加一条私信；store 生成 id。失败时什么都不会留下（单文档插入，天然原子）。
func (s *Store) Append(ctx context.Context, senderID, receiverID, content string) (*Message, error) {
	doc := &docModel{
		ID:         primitive.NewObjectID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreateTime: time.Now().UnixMilli(),
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, errs.ErrMessagePersist.WrapMsg("insert message", "sender", senderID, "receiver", receiverID, "cause", err.Error())
	}
	return doc.toMessage(), nil
}

// ListByConversation 双向拉取两人会话，按 create_time 升序（REST 历史接口用，relay 不调它）
func (s *Store) ListByConversation(ctx context.Context, userA, userB string) ([]*Message, error) {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"sender_id": userA, "receiver_id": userB},
			bson.M{"sender_id": userB, "receiver_id": userA},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "create_time", Value: 1}})
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find conversation")
	}
	defer func() { _ = cur.Close(ctx) }()

	var out []*Message
	for cur.Next(ctx) {
		var d docModel
		if err := cur.Decode(&d); err != nil {
			return nil, errors.Wrap(err, "decode message doc")
		}
		out = append(out, d.toMessage())
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(err, "cursor")
	}
	return out, nil
}

// EnsureIndexes 会话查询索引（两个方向各一个 + 时间）
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "receiver_id", Value: 1}, {Key: "create_time", Value: 1}}},
		{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "sender_id", Value: 1}, {Key: "create_time", Value: 1}}},
	})
	return errors.Wrap(err, "ensure message indexes")
}
