package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequestDefaults(t *testing.T) {
	req, err := ParseRequest("", "", "", false)
	require.NoError(t, err)
	assert.Equal(t, Request{Network: "mainnet", ImageUSD: 1, VideoUSD: 2}, req)
}

func TestParseRequestNormalization(t *testing.T) {
	testCases := []struct {
		name     string
		network  string
		image    string
		video    string
		expected Request
	}{
		{
			name:     "explicit_testnet",
			network:  "testnet",
			image:    "1",
			video:    "2",
			expected: Request{Network: "testnet", ImageUSD: 1, VideoUSD: 2},
		},
		{
			name:     "unknown_network_defaults_to_mainnet",
			network:  "devnet",
			expected: Request{Network: "mainnet", ImageUSD: 1, VideoUSD: 2},
		},
		{
			name:     "custom_prices",
			image:    "0.5",
			video:    "3.25",
			expected: Request{Network: "mainnet", ImageUSD: 0.5, VideoUSD: 3.25},
		},
		{
			name:     "out_of_range_image_price_replaced_by_default",
			image:    "5000",
			expected: Request{Network: "mainnet", ImageUSD: 1, VideoUSD: 2},
		},
		{
			name:     "zero_price_replaced_by_default",
			image:    "0",
			expected: Request{Network: "mainnet", ImageUSD: 1, VideoUSD: 2},
		},
		{
			name:     "negative_price_replaced_by_default",
			video:    "-3",
			expected: Request{Network: "mainnet", ImageUSD: 1, VideoUSD: 2},
		},
		{
			name:     "non_numeric_replaced_by_default",
			image:    "abc",
			expected: Request{Network: "mainnet", ImageUSD: 1, VideoUSD: 2},
		},
		{
			name:     "upper_bound_inclusive",
			image:    "1000",
			expected: Request{Network: "mainnet", ImageUSD: 1000, VideoUSD: 2},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := ParseRequest(tc.network, tc.image, tc.video, false)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, req)
		})
	}
}

func TestParseRequestStrict(t *testing.T) {
	_, err := ParseRequest("devnet", "", "", true)
	assert.Error(t, err)

	_, err = ParseRequest("", "5000", "", true)
	assert.Error(t, err)

	_, err = ParseRequest("", "abc", "", true)
	assert.Error(t, err)

	req, err := ParseRequest("testnet", "1", "2", true)
	require.NoError(t, err)
	assert.Equal(t, Request{Network: "testnet", ImageUSD: 1, VideoUSD: 2}, req)
}

func TestCacheKeyDeterministic(t *testing.T) {
	a := Request{Network: "mainnet", ImageUSD: 1, VideoUSD: 2}
	b := Request{Network: "mainnet", ImageUSD: 1, VideoUSD: 2}
	assert.Equal(t, a.CacheKey(), b.CacheKey())
	assert.Equal(t, "quote:mainnet:1:2", a.CacheKey())

	c := Request{Network: "testnet", ImageUSD: 1, VideoUSD: 2}
	assert.NotEqual(t, a.CacheKey(), c.CacheKey())

	d := Request{Network: "mainnet", ImageUSD: 0.5, VideoUSD: 2}
	assert.Equal(t, "quote:mainnet:0.5:2", d.CacheKey())
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "3.278689", formatAmount(1/0.305))
	assert.Equal(t, "1", formatAmount(1))
	assert.Equal(t, "0.5", formatAmount(0.5))
	assert.Equal(t, "2", formatAmount(2.0))
}
