package core

import "context"

// Region 是地区上下文：两位国家码（ISO 3166-1 alpha-2）+ 展示名。
type Region struct {
	CountryCode string
	CountryName string
}

// RegionProvider 解析当前地区。
//
// 约定：永不向外抛错——每条失败路径都降级到设备 locale 推导的默认值。
// 打分/仓储层只把它当作一对 {countryCode, countryName} 消费。
type RegionProvider interface {
	Region(ctx context.Context) Region
}
