package repository

import (
	"context"
	"creative_learning_backend/internal/model"
	"creative_learning_backend/internal/util"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// ConversationStore 会话存储，Get 返回的是副本
type ConversationStore interface {
	Create(ctx context.Context, conv *model.Conversation) error
	Get(ctx context.Context, id string) (*model.Conversation, error)
	ListByUser(ctx context.Context, userID string) ([]model.Conversation, error)
	AppendMessages(ctx context.Context, id string, msgs ...model.ChatMessage) (*model.Conversation, error)
	Replace(ctx context.Context, conv *model.Conversation) error
}

func cloneConversation(c *model.Conversation) *model.Conversation {
	out := *c
	out.Messages = append([]model.ChatMessage(nil), c.Messages...)
	out.Tags = append([]string(nil), c.Tags...)
	return &out
}

func sortByUpdated(convs []model.Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})
}

type MemoryConversationRepository struct {
	mu    sync.RWMutex
	convs map[string]*model.Conversation
}

func NewMemoryConversationRepository() *MemoryConversationRepository {
	return &MemoryConversationRepository{convs: make(map[string]*model.Conversation)}
}

func (r *MemoryConversationRepository) Create(_ context.Context, conv *model.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.convs[conv.ID] = cloneConversation(conv)
	return nil
}

func (r *MemoryConversationRepository) Get(_ context.Context, id string) (*model.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conv, ok := r.convs[id]
	if !ok {
		return nil, util.ErrConversationNotFound
	}
	return cloneConversation(conv), nil
}

func (r *MemoryConversationRepository) ListByUser(_ context.Context, userID string) ([]model.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Conversation, 0)
	for _, conv := range r.convs {
		if conv.UserID == userID {
			out = append(out, *cloneConversation(conv))
		}
	}
	sortByUpdated(out)
	return out, nil
}

func (r *MemoryConversationRepository) AppendMessages(_ context.Context, id string, msgs ...model.ChatMessage) (*model.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.convs[id]
	if !ok {
		return nil, util.ErrConversationNotFound
	}
	conv.Messages = append(conv.Messages, msgs...)
	conv.UpdatedAt = time.Now()
	return cloneConversation(conv), nil
}

func (r *MemoryConversationRepository) Replace(_ context.Context, conv *model.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.convs[conv.ID]; !ok {
		return util.ErrConversationNotFound
	}
	r.convs[conv.ID] = cloneConversation(conv)
	return nil
}

// RedisConversationRepository 每个会话一个JSON键，另有按用户的集合索引
type RedisConversationRepository struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewRedisConversationRepository(rdb *redis.Client, ttl time.Duration) *RedisConversationRepository {
	return &RedisConversationRepository{Redis: rdb, TTL: ttl}
}

func conversationKey(id string) string {
	return fmt.Sprintf("creative:conversation:%s", id)
}

func userConversationsKey(userID string) string {
	return fmt.Sprintf("creative:user:%s:conversations", userID)
}

func (r *RedisConversationRepository) save(ctx context.Context, conv *model.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return err
	}
	pipe := r.Redis.TxPipeline()
	pipe.Set(ctx, conversationKey(conv.ID), data, r.TTL)
	pipe.SAdd(ctx, userConversationsKey(conv.UserID), conv.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisConversationRepository) Create(ctx context.Context, conv *model.Conversation) error {
	return r.save(ctx, conv)
}

func (r *RedisConversationRepository) Get(ctx context.Context, id string) (*model.Conversation, error) {
	data, err := r.Redis.Get(ctx, conversationKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, util.ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	var conv model.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *RedisConversationRepository) ListByUser(ctx context.Context, userID string) ([]model.Conversation, error) {
	ids, err := r.Redis.SMembers(ctx, userConversationsKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]model.Conversation, 0, len(ids))
	for _, id := range ids {
		conv, err := r.Get(ctx, id)
		if errors.Is(err, util.ErrConversationNotFound) {
			// 会话已过期，顺手清理索引
			r.Redis.SRem(ctx, userConversationsKey(userID), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *conv)
	}
	sortByUpdated(out)
	return out, nil
}

// AppendMessages 使用 WATCH 乐观锁，避免并发追加互相覆盖
func (r *RedisConversationRepository) AppendMessages(ctx context.Context, id string, msgs ...model.ChatMessage) (*model.Conversation, error) {
	var updated *model.Conversation
	key := conversationKey(id)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return util.ErrConversationNotFound
		}
		if err != nil {
			return err
		}
		var conv model.Conversation
		if err := json.Unmarshal(data, &conv); err != nil {
			return err
		}
		conv.Messages = append(conv.Messages, msgs...)
		conv.UpdatedAt = time.Now()
		out, err := json.Marshal(&conv)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, r.TTL)
			return nil
		})
		if err == nil {
			updated = &conv
		}
		return err
	}

	for i := 0; i < 3; i++ {
		err := r.Redis.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return updated, err
	}
	return nil, redis.TxFailedErr
}

func (r *RedisConversationRepository) Replace(ctx context.Context, conv *model.Conversation) error {
	n, err := r.Redis.Exists(ctx, conversationKey(conv.ID)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return util.ErrConversationNotFound
	}
	return r.save(ctx, conv)
}
