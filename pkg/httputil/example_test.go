package httputil_test

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/idxscreen/pkg/config"
	"github.com/wonny/idxscreen/pkg/httputil"
	"github.com/wonny/idxscreen/pkg/logger"
)

// Example_basic demonstrates a throttled JSON client
func Example_basic() {
	cfg := &config.Config{
		Env: "production",
		Yahoo: config.YahooConfig{
			Timeout:   10 * time.Second,
			UserAgent: "Mozilla/5.0",
		},
	}

	// Create HTTP client (SSOT), 5 req/s
	client := httputil.New(cfg, logger.Nop()).
		WithLimiter(rate.NewLimiter(rate.Limit(5), 5))

	var body map[string]interface{}
	if err := client.GetJSON(context.Background(), "https://api.example.com/data", &body); err != nil {
		fmt.Printf("request failed: %v\n", err)
		return
	}
	fmt.Println(len(body))
}
