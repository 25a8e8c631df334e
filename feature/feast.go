package feature

import (
	"context"
	"fmt"
	"strconv"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"
)

// FeastProvider 基于官方 Feast Go SDK 从在线特征库拉取听众特征。
//
// 特征由离线作业从全量播放日志物化（服务端视角的听众画像比
// 端上有界流水更完整），端侧只读。
type FeastProvider struct {
	client  *feastsdk.GrpcClient
	project string
}

// NewFeastProvider 连接 Feast Feature Server（gRPC，默认端口 6565）。
func NewFeastProvider(host string, port int, project string) (*FeastProvider, error) {
	if port == 0 {
		port = 6565
	}
	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, fmt.Errorf("feature: connect feast: %w", err)
	}
	return &FeastProvider{client: client, project: project}, nil
}

func (p *FeastProvider) ListenerFeatures(ctx context.Context, userID string, names []string) (map[string]float64, error) {
	if len(names) == 0 {
		return map[string]float64{}, nil
	}

	req := &feastsdk.OnlineFeaturesRequest{
		Features: names,
		Entities: []feastsdk.Row{
			{"listener_id": feastsdk.StrVal(userID)},
		},
		Project: p.project,
	}

	resp, err := p.client.GetOnlineFeatures(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("feature: get online features: %w", err)
	}

	rows := resp.Rows()
	if len(rows) == 0 {
		return map[string]float64{}, nil
	}

	out := make(map[string]float64, len(names))
	row := rows[0]
	for _, name := range names {
		if val, ok := row[name]; ok {
			if f, ok := asFloat64(val); ok {
				out[name] = f
			}
		}
	}
	return out, nil
}

// Close 释放客户端；gRPC 连接由 SDK 托管。
func (p *FeastProvider) Close() error {
	p.client = nil
	return nil
}

// asFloat64 展开 proto Value 的 oneof，把数值类特征折成 float64。
// SDK 的 Row 值是 *types.Value，不是裸 Go 数值。
func asFloat64(val *feasttypes.Value) (float64, bool) {
	if val == nil {
		return 0, false
	}
	switch v := val.Val.(type) {
	case *feasttypes.Value_DoubleVal:
		return v.DoubleVal, true
	case *feasttypes.Value_FloatVal:
		return float64(v.FloatVal), true
	case *feasttypes.Value_Int64Val:
		return float64(v.Int64Val), true
	case *feasttypes.Value_Int32Val:
		return float64(v.Int32Val), true
	case *feasttypes.Value_BoolVal:
		if v.BoolVal {
			return 1, true
		}
		return 0, true
	case *feasttypes.Value_StringVal:
		f, err := strconv.ParseFloat(v.StringVal, 64)
		return f, err == nil
	}
	return 0, false
}

var _ Provider = (*FeastProvider)(nil)
