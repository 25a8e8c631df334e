package rerank

import (
	"context"
	"hash/fnv"
	"math/rand"
	"strconv"
	"time"

	"github.com/tunelab/feedkit/core"
	"github.com/tunelab/feedkit/pipeline"
)

const (
	// DefaultInterleaveLimit 交织输出的默认条数。
	DefaultInterleaveLimit = 20
	// DefaultSessionBucket 会话种子的时间桶宽度：同一桶内重复请求
	// 得到完全相同的顺序。
	DefaultSessionBucket = 6 * time.Hour
)

// Interleave 是成品组装节点：把排好序的候选按"2 熟悉 : 1 探索"节奏
// 交织成最终列表，再用会话种子做确定性洗牌。
//
// 交织保证探索占比不低于三分之一（探索池耗尽时例外，反向不限制：
// 冷启动用户可以全是探索）。洗牌只影响展示顺序，入选与否由交织决定。
type Interleave struct {
	// Limit 输出条数上限；<= 0 时用 DefaultInterleaveLimit。
	Limit int
	// Bucket 会话种子的时间桶；<= 0 时用 DefaultSessionBucket。
	Bucket time.Duration
}

func (n *Interleave) Name() string {
	return "rerank.interleave"
}

func (n *Interleave) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Interleave) Process(
	_ context.Context,
	fc *core.FeedContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(items) == 0 {
		return items, nil
	}

	limit := n.Limit
	if limit <= 0 {
		limit = DefaultInterleaveLimit
	}

	var familiar, discovery []*core.Candidate
	for _, it := range items {
		if it == nil {
			continue
		}
		if it.Source.Familiar() {
			familiar = append(familiar, it)
		} else {
			discovery = append(discovery, it)
		}
	}

	out := assemble(familiar, discovery, limit)
	n.shuffle(fc, out)
	return out, nil
}

// assemble 按 2:1 节奏消费两个池；一方耗尽后用另一方补满。
// 两池各自保持传入的（已排序）顺序。
func assemble(familiar, discovery []*core.Candidate, limit int) []*core.Candidate {
	out := make([]*core.Candidate, 0, limit)
	fi, di := 0, 0
	for len(out) < limit && (fi < len(familiar) || di < len(discovery)) {
		for k := 0; k < 2 && fi < len(familiar) && len(out) < limit; k++ {
			out = append(out, familiar[fi])
			fi++
		}
		if di < len(discovery) && len(out) < limit {
			out = append(out, discovery[di])
			di++
		}
	}
	return out
}

// shuffle 用会话种子做确定性 Fisher-Yates：同一地区、同一时间桶内
// 的重复构建得到同一顺序，跨桶则重新洗。
func (n *Interleave) shuffle(fc *core.FeedContext, items []*core.Candidate) {
	if len(items) < 2 {
		return
	}
	bucket := n.Bucket
	if bucket <= 0 {
		bucket = DefaultSessionBucket
	}

	region := ""
	var now time.Time
	if fc != nil {
		region = fc.Region.CountryCode
		now = fc.Now
	}

	r := rand.New(rand.NewSource(int64(SessionSeed(region, now, bucket))))
	r.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}

// SessionSeed 由地区与时间桶算出 FNV-1a 会话种子。
func SessionSeed(region string, now time.Time, bucket time.Duration) uint64 {
	h := fnv.New64a()
	h.Write([]byte(region))
	h.Write([]byte{'|'})
	h.Write([]byte(strconv.FormatInt(now.Unix()/int64(bucket.Seconds()), 10)))
	return h.Sum64()
}

var _ pipeline.Node = (*Interleave)(nil)
