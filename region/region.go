// Package region 解析并规范化当前地区。
//
// 解析链（逐级降级）：上次会话的持久值 → 主 geo-IP 接口 → 备用
// geo-IP 接口 → 设备 locale 默认值。任何一级失败都静默走下一级，
// 永不向调用方抛错。结果带 5 分钟进程内缓存，避免一次推荐构建
// 反复打存储。
package region

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tunelab/feedkit/cache"
	"github.com/tunelab/feedkit/core"
)

const (
	// lastRegionKey 持久存储中上次解析结果的 key。
	lastRegionKey = "region:last"
	// cacheKey 进程内缓存用单一 key（地区是全局单值）。
	cacheKey = "current"
)

// DefaultRegion 所有降级路径都失败时的兜底。
var DefaultRegion = core.Region{CountryCode: "US", CountryName: "United States"}

// Locator 是单个 geo-IP 数据源。
type Locator interface {
	Locate(ctx context.Context) (core.Region, error)
}

// Repository 实现 core.RegionProvider。Store/Primary/Secondary 均可为 nil，
// nil 的环节直接跳过。
type Repository struct {
	Store     core.Store
	Primary   Locator
	Secondary Locator
	Locale    core.Region // 设备 locale 推导的默认值；零值时用 DefaultRegion
	Logger    zerolog.Logger

	cache *cache.TTL[core.Region]
}

// NewRepository 构造仓储，5 分钟进程内缓存。
func NewRepository(store core.Store, primary, secondary Locator, logger zerolog.Logger) *Repository {
	return &Repository{
		Store:     store,
		Primary:   primary,
		Secondary: secondary,
		Logger:    logger,
		cache:     cache.NewTTL[core.Region](cache.TTLRegion, time.Now),
	}
}

// Region 解析当前地区。永不返回错误，所有失败降级到 locale 默认值。
func (r *Repository) Region(ctx context.Context) core.Region {
	if reg, ok := r.cache.Get(cacheKey); ok {
		return reg
	}

	reg, ok := r.resolve(ctx)
	if !ok {
		reg = r.localeDefault()
	}
	r.cache.Put(cacheKey, reg)
	return reg
}

func (r *Repository) resolve(ctx context.Context) (core.Region, bool) {
	// 1. 上次会话的持久值
	if reg, ok := r.loadPersisted(ctx); ok {
		return reg, true
	}
	// 2/3. geo-IP 主备
	for _, loc := range []Locator{r.Primary, r.Secondary} {
		if loc == nil {
			continue
		}
		reg, err := loc.Locate(ctx)
		if err != nil {
			r.Logger.Warn().Err(err).Msg("geo lookup failed, trying next")
			continue
		}
		if reg = Canonicalize(reg); reg.CountryCode != "" {
			r.persist(ctx, reg)
			return reg, true
		}
	}
	return core.Region{}, false
}

func (r *Repository) localeDefault() core.Region {
	if r.Locale.CountryCode != "" {
		return Canonicalize(r.Locale)
	}
	return DefaultRegion
}

func (r *Repository) loadPersisted(ctx context.Context) (core.Region, bool) {
	if r.Store == nil {
		return core.Region{}, false
	}
	data, err := r.Store.Get(ctx, lastRegionKey)
	if err != nil {
		if !core.IsStoreNotFound(err) {
			r.Logger.Debug().Err(err).Msg("persisted region read failed")
		}
		return core.Region{}, false
	}
	var reg core.Region
	if err := json.Unmarshal(data, &reg); err != nil {
		return core.Region{}, false
	}
	reg = Canonicalize(reg)
	return reg, reg.CountryCode != ""
}

// persist 记录本次解析结果供下次会话直接使用。写失败只记日志。
func (r *Repository) persist(ctx context.Context, reg core.Region) {
	if r.Store == nil {
		return
	}
	data, err := json.Marshal(reg)
	if err != nil {
		return
	}
	if err := r.Store.Set(ctx, lastRegionKey, data, 0); err != nil {
		r.Logger.Debug().Err(err).Msg("persisted region write failed")
	}
}

// Canonicalize 规范化国家码：去空白、转大写、历史码映射（UK→GB）。
// 非两位码一律判为空（触发下一级降级）。
func Canonicalize(reg core.Region) core.Region {
	code := strings.ToUpper(strings.TrimSpace(reg.CountryCode))
	if code == "UK" {
		code = "GB"
	}
	if len(code) != 2 {
		code = ""
	}
	reg.CountryCode = code
	return reg
}

var _ core.RegionProvider = (*Repository)(nil)
