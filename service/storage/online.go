package storage

import (
	redis2 "MProject/service/storage/redis"
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ===== 配置 =====

// MirrorConfig 在线状态镜像：presence 的权威仍是进程内 Registry，
// 这里只做 best-effort 的写穿，给 REST 侧/运营侧查询用。
type MirrorConfig struct {
	KeyPrefix string        // 默认 "presence:u:"
	TTL       time.Duration // 会话键 TTL（默认 2h，活动更新时续期）
}

func (c *MirrorConfig) norm() {
	if c.KeyPrefix == "" {
		c.KeyPrefix = "presence:u:"
	}
	if c.TTL <= 0 {
		c.TTL = 2 * time.Hour
	}
}

type Mirror struct {
	conf MirrorConfig
}

var defaultMirror = &Mirror{}

func InitMirror(conf MirrorConfig) {
	conf.norm()
	defaultMirror = &Mirror{conf: conf}
}

func GetMirror() *Mirror {
	if defaultMirror.conf.KeyPrefix == "" {
		defaultMirror.conf.norm()
	}
	return defaultMirror
}

func (m *Mirror) key(userID string) string {
	return m.conf.KeyPrefix + userID
}

func (m *Mirror) rdb() *redis.Client {
	return redis2.TryGetRedis()
}

// Online 用户上线（bind 之后调用）
func (m *Mirror) Online(ctx context.Context, userID, connID, activity string) error {
	rdb := m.rdb()
	if rdb == nil {
		return nil // redis 不在，镜像降级为 no-op
	}
	pipe := rdb.Pipeline()
	pipe.HSet(ctx, m.key(userID), "conn_id", connID, "activity", activity, "since", time.Now().UnixMilli())
	pipe.Expire(ctx, m.key(userID), m.conf.TTL)
	_, err := pipe.Exec(ctx)
	return err
}

// SetActivity 活动标签变更（顺带续期）
func (m *Mirror) SetActivity(ctx context.Context, userID, activity string) error {
	rdb := m.rdb()
	if rdb == nil {
		return nil
	}
	pipe := rdb.Pipeline()
	pipe.HSet(ctx, m.key(userID), "activity", activity)
	pipe.Expire(ctx, m.key(userID), m.conf.TTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Offline 用户下线（unbind 之后调用）。
// connID 不匹配时不删（说明用户已经用新连接重新上线，镜像属于新会话）。
func (m *Mirror) Offline(ctx context.Context, userID, connID string) error {
	rdb := m.rdb()
	if rdb == nil {
		return nil
	}
	cur, err := rdb.HGet(ctx, m.key(userID), "conn_id").Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if connID != "" && cur != connID {
		return nil
	}
	return rdb.Del(ctx, m.key(userID)).Err()
}

// OnlineUsers 扫描在线用户（SCAN，非精确快照，仅供查询展示）
func (m *Mirror) OnlineUsers(ctx context.Context) ([]string, error) {
	rdb := m.rdb()
	if rdb == nil {
		return nil, nil
	}
	var (
		users  []string
		cursor uint64
	)
	for {
		keys, next, err := rdb.Scan(ctx, cursor, m.conf.KeyPrefix+"*", 200).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			users = append(users, strings.TrimPrefix(k, m.conf.KeyPrefix))
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	return users, nil
}
