package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// HTTPSource fetches quotes from a JSON price-feed service. Each feed ref is
// a document at <base>/<ref> shaped like:
//
//	{"value": "200000", "scale": 2, "updated_at": "2026-08-28T10:00:00Z"}
type HTTPSource struct {
	base   string
	client *http.Client
	log    *zap.Logger
}

func NewHTTPSource(baseURL string, log *zap.Logger) *HTTPSource {
	return &HTTPSource{
		base:   baseURL,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

type feedDocument struct {
	Value     string    `json:"value"`
	Scale     uint8     `json:"scale"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *HTTPSource) Latest(ctx context.Context, ref string) (Quote, error) {
	endpoint := fmt.Sprintf("%s/%s", s.base, url.PathEscape(ref))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Quote{}, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("fetch feed %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("feed %s returned status %d", ref, resp.StatusCode)
	}

	var doc feedDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return Quote{}, fmt.Errorf("decode feed %s: %w", ref, err)
	}

	value, ok := new(big.Int).SetString(doc.Value, 10)
	if !ok || value.Sign() <= 0 {
		return Quote{}, fmt.Errorf("feed %s reported invalid value %q", ref, doc.Value)
	}

	s.log.Debug("price feed fetched",
		zap.String("ref", ref),
		zap.String("value", doc.Value),
		zap.Uint8("scale", doc.Scale),
	)

	return Quote{
		Value:  value,
		Scale:  doc.Scale,
		AsOf:   doc.UpdatedAt,
		Source: endpoint,
	}, nil
}
