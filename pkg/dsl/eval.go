// Package dsl 提供基于 CEL (Common Expression Language) 的规则解释器，
// 用于把运营配置的过滤/调控规则作用到候选歌曲上。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/tunelab/feedkit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

// getCELEnv 获取或创建 CEL 环境，定义可引用的变量。
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("song", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("candidate", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Rule 是一条已编译的候选规则，可对任意候选反复求值。
//
// 表达式语法（CEL 标准语法），示例：
//   - `candidate.source == "trending_genre"` → 只命中热门池
//   - `candidate.score < 0.2` → 低分候选
//   - `label.recall_source.contains("seed")` → 召回来源包含 seed
//   - `song.language == "hi" && candidate.source != "familiar"`
type Rule struct {
	expr string
	prg  cel.Program
}

// Compile 编译规则表达式；表达式必须是布尔结果。
func Compile(expr string) (*Rule, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("dsl: init cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("dsl: compile %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("dsl: program %q: %w", expr, err)
	}
	return &Rule{expr: expr, prg: prg}, nil
}

// Expr 返回原始表达式（用于日志与过滤原因标签）。
func (r *Rule) Expr() string { return r.expr }

// Match 对单个候选求值，返回布尔结果。
// 非布尔结果或求值失败返回 error，由调用方决定是否忽略该条规则。
func (r *Rule) Match(c *core.Candidate) (bool, error) {
	if c == nil {
		return false, nil
	}

	labels := make(map[string]string, len(c.Labels))
	for k, v := range c.Labels {
		labels[k] = v.Value
	}

	activation := map[string]any{
		"song": map[string]any{
			"id":       c.Song.ID,
			"title":    c.Song.Title,
			"artist":   c.Song.Artist,
			"album":    c.Song.Album,
			"language": c.Song.Language,
			"views":    c.Song.ViewCount,
		},
		"label": labels,
		"candidate": map[string]any{
			"source":       string(c.Source),
			"source_score": c.SourceScore,
			"score":        c.Score,
			"genre":        c.Genre,
			"familiar":     c.Source.Familiar(),
		},
	}

	out, _, err := r.prg.Eval(activation)
	if err != nil {
		return false, fmt.Errorf("dsl: eval %q: %w", r.expr, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: expression %q did not yield bool", r.expr)
	}
	return b, nil
}
