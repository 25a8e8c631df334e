package region

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/tunelab/feedkit/core"
	"github.com/tunelab/feedkit/pkg/conv"
)

// HTTPLocator 通过 geo-IP HTTP 接口定位地区。
// 各家接口的字段名不统一，这里按常见命名逐个尝试。
type HTTPLocator struct {
	URL    string
	Client *http.Client
}

// NewHTTPLocator 构造带 5 秒超时的定位器。
func NewHTTPLocator(url string) *HTTPLocator {
	return &HTTPLocator{
		URL:    url,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (l *HTTPLocator) Locate(ctx context.Context) (core.Region, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return core.Region{}, err
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return core.Region{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return core.Region{}, core.NewStatusError(core.ModuleRegion, resp.StatusCode)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return core.Region{}, err
	}
	return core.Region{
		CountryCode: firstString(payload, "countryCode", "country_code", "country_code2"),
		CountryName: firstString(payload, "country", "country_name", "countryName"),
	}, nil
}

func firstString(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := conv.ToString(payload[key]); ok && s != "" {
			return s
		}
	}
	return ""
}

var _ Locator = (*HTTPLocator)(nil)
