package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"csvbatch/internal/core"
	"csvbatch/internal/pkg/logger"
	"csvbatch/internal/plugin/common"
)

// Parameter MongoDB写入器参数结构体
type Parameter struct {
	URI            string        `mapstructure:"uri" json:"uri" validate:"required"`
	Database       string        `mapstructure:"database" json:"database" validate:"required"`
	Collection     string        `mapstructure:"collection" json:"collection" validate:"required"`
	WriteMode      string        `mapstructure:"writeMode" json:"writeMode" validate:"oneof=insert replace upsert"`
	ConnectTimeout time.Duration `mapstructure:"connectTimeout" json:"connectTimeout" validate:"gt=0"`
}

// ApplyDefaults 设置默认值
func (p *Parameter) ApplyDefaults() {
	p.WriteMode = common.WriteModeInsert
	p.ConnectTimeout = 10 * time.Second
}

// Writer MongoDB写入器，记录 id 作为 _id
type Writer struct {
	param      *Parameter
	client     *mongo.Client
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewMongoDBWriter 创建新的MongoDB写入器实例
func NewMongoDBWriter(p *Parameter, log *logger.Logger) (*Writer, error) {
	if log == nil {
		log = logger.Discard()
	}
	return &Writer{param: p, logger: log}, nil
}

// Connect 连接MongoDB并测试连接
func (w *Writer) Connect(ctx context.Context) error {
	client, err := mongo.Connect(options.Client().ApplyURI(w.param.URI).SetConnectTimeout(w.param.ConnectTimeout))
	if err != nil {
		return fmt.Errorf("连接MongoDB失败: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, w.param.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return fmt.Errorf("ping MongoDB失败: %w", err)
	}

	w.client = client
	w.collection = client.Database(w.param.Database).Collection(w.param.Collection)
	w.logger.Debug("MongoDB 连接成功: %s.%s", w.param.Database, w.param.Collection)
	return nil
}

// Document 把记录转换为 BSON 文档，零值日期不写入
func Document(rec core.Record) bson.D {
	doc := bson.D{
		{Key: "_id", Value: rec.ID},
		{Key: "first_name", Value: rec.FirstName},
		{Key: "last_name", Value: rec.LastName},
		{Key: "email", Value: rec.Email},
		{Key: "gender", Value: rec.Gender},
		{Key: "contact_no", Value: rec.ContactNo},
		{Key: "country", Value: rec.Country},
	}
	if !rec.DOB.IsZero() {
		doc = append(doc, bson.E{Key: "dob", Value: rec.DOB})
	}
	return doc
}

// Save 写入一条记录，insert 模式下重复 _id 会报错
func (w *Writer) Save(ctx context.Context, rec core.Record) error {
	if w.collection == nil {
		return fmt.Errorf("MongoDB连接未初始化")
	}

	doc := Document(rec)
	if w.param.WriteMode == common.WriteModeInsert {
		if _, err := w.collection.InsertOne(ctx, doc); err != nil {
			return fmt.Errorf("插入文档失败: %w", err)
		}
		return nil
	}

	filter := bson.D{{Key: "_id", Value: rec.ID}}
	if _, err := w.collection.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true)); err != nil {
		return fmt.Errorf("更新文档失败: %w", err)
	}
	return nil
}

// Close 断开连接
func (w *Writer) Close() error {
	if w.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := w.client.Disconnect(ctx)
	w.client, w.collection = nil, nil
	return err
}
