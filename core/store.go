package core

import "context"

// Store 是缓存/存储后端的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 领域层不依赖基础设施层，避免循环依赖
//
// 使用场景：
//   - 艺人主页的持久缓存行（JSON 值，key 为 browse:/name: 规范 key）
//   - 地区榜单的兜底数据（有序集合）
//
// 实现：
//   - store.MemoryStore（进程内，读时惰性过期）
//   - store.RedisStore（持久层，生产常用）
type Store interface {
	// Name 返回存储后端名称（用于日志）
	Name() string

	// Get 读取单个 key 的值；不存在时返回 ErrStoreNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入单个 key-value；ttlSec > 0 时带过期时间
	Set(ctx context.Context, key string, value []byte, ttlSec int) error

	// Delete 删除单个 key
	Delete(ctx context.Context, key string) error

	// DeleteOlderThan 删除写入时间早于 olderThanMs 的行（持久缓存的机会式清理）。
	// 不支持按时间清理的后端可以返回 ErrStoreNotSupported。
	DeleteOlderThan(ctx context.Context, prefix string, olderThanMs int64) error

	// Close 关闭连接/释放资源
	Close() error
}

// KeyValueStore 是 Store 的扩展接口，提供有序集合操作。
// 榜单兜底召回用 ZRange 读取预计算的 "chart:<国家码>" 排名。
type KeyValueStore interface {
	Store

	// ZAdd 向有序集合添加成员
	ZAdd(ctx context.Context, key string, score float64, member string) error

	// ZRange 按分数降序获取有序集合成员（TopN）
	ZRange(ctx context.Context, key string, start, stop int64) ([]string, error)
}

// Store 错误定义（使用统一的 DomainError）
var (
	// ErrStoreNotFound 表示 key 不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

	// ErrStoreNotSupported 表示操作不支持
	ErrStoreNotSupported = NewDomainError(ModuleStore, ErrorCodeNotSupported, "store: operation not supported")
)

// IsStoreNotFound 检查错误是否为 key 不存在。
// 持久缓存的读写失败一律按未命中处理，绝不作为操作本身的失败向外传播。
func IsStoreNotFound(err error) bool {
	de := GetDomainError(err)
	return de != nil && de.Module == ModuleStore && de.Code == ErrorCodeNotFound
}
