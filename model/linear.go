package model

import (
	"encoding/json"
	"os"
)

// LinearModel 实现线性加权求和模型。
//
// 预测原理：score = Bias + sum(Weight_i * Feature_i)
//
// 权重没在 Weights 里的特征直接忽略，缺失特征按 0 处理，
// 所以只要权重和特征都落在 [0,1]，输出就有稳定的可比区间。
type LinearModel struct {
	Bias    float64            // 偏置项 (Bias / Intercept)
	Weights map[string]float64 // 特征权重 (Weights / Coefficients)
}

// NewLinearModel 以给定权重构造模型，适合权重由代码内置的场景。
func NewLinearModel(bias float64, weights map[string]float64) *LinearModel {
	return &LinearModel{Bias: bias, Weights: weights}
}

// LoadLinearModel 从 JSON 文件加载权重，方便离线调参后热替换。
func LoadLinearModel(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw struct {
		Bias    float64            `json:"bias"`
		Weights map[string]float64 `json:"weights"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return &LinearModel{Bias: raw.Bias, Weights: raw.Weights}, nil
}

func (m *LinearModel) Name() string { return "linear" }

func (m *LinearModel) Predict(features map[string]float64) (float64, error) {
	score := m.Bias
	for k, v := range features {
		if w, ok := m.Weights[k]; ok {
			score += w * v
		}
	}
	return score, nil
}

var _ RankModel = (*LinearModel)(nil)
