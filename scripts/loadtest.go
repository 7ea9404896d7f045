package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

type LoadTestConfig struct {
	BaseURL       string
	Origin        string
	TotalRequests int
	Concurrency   int
	Duration      time.Duration
}

type Stats struct {
	TotalRequests   int64
	SuccessRequests int64
	PartialRequests int64
	FailedRequests  int64
	TotalLatency    int64
	MinLatency      int64
	MaxLatency      int64
	Errors          sync.Map
}

var (
	client   = &http.Client{Timeout: 10 * time.Second}
	statuses = []string{"done", "ready-to-serve", "cancelled", "pending"}
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Service base URL")
	origin := flag.String("origin", "", "Origin header for the staff listing routes")
	requests := flag.Int("requests", 1000, "Total number of requests")
	concurrency := flag.Int("concurrency", 10, "Number of parallel requests")
	duration := flag.Duration("duration", 0, "Test duration (0 = use -requests)")
	operation := flag.String("operation", "create", "Operation type: create, update, list, mixed")
	flag.Parse()

	config := LoadTestConfig{
		BaseURL:       *baseURL,
		Origin:        *origin,
		TotalRequests: *requests,
		Concurrency:   *concurrency,
		Duration:      *duration,
	}

	fmt.Printf("🚀 Starting load test\n")
	fmt.Printf("URL: %s\n", config.BaseURL)
	fmt.Printf("Operation: %s\n", *operation)
	if config.Duration > 0 {
		fmt.Printf("Duration: %v\n", config.Duration)
	} else {
		fmt.Printf("Requests: %d\n", config.TotalRequests)
	}
	fmt.Printf("Concurrency: %d\n\n", config.Concurrency)

	stats := &Stats{
		MinLatency: int64(^uint64(0) >> 1),
	}

	startTime := time.Now()

	switch *operation {
	case "create":
		run(config, func(int64) { placeOrder(config, stats) })
	case "update":
		orderIDs := seedOrders(config, 100)
		if len(orderIDs) == 0 {
			fmt.Println("❌ Failed to create orders for test")
			return
		}
		run(config, func(i int64) {
			updateOrder(config, orderIDs[i%int64(len(orderIDs))], statuses[i%int64(len(statuses))], stats)
		})
	case "list":
		run(config, func(int64) { listOrders(config, stats) })
	case "mixed":
		orderIDs := seedOrders(config, 50)
		run(config, func(i int64) {
			switch op := i % 10; {
			case op < 5:
				placeOrder(config, stats)
			case op < 8 && len(orderIDs) > 0:
				updateOrder(config, orderIDs[i%int64(len(orderIDs))], statuses[i%int64(len(statuses))], stats)
			default:
				listOrders(config, stats)
			}
		})
	default:
		fmt.Printf("Unknown operation: %s\n", *operation)
		return
	}

	printResults(stats, time.Since(startTime))
}

// run calls op until the request count or duration is exhausted, with at most
// Concurrency calls in flight.
func run(config LoadTestConfig, op func(index int64)) {
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, config.Concurrency)

	requestCount := int64(0)
	endTime := time.Now().Add(config.Duration)

	for (config.Duration <= 0 || !time.Now().After(endTime)) &&
		(config.Duration != 0 || requestCount < int64(config.TotalRequests)) {
		wg.Add(1)
		semaphore <- struct{}{}
		idx := atomic.AddInt64(&requestCount, 1)

		go func(index int64) {
			defer wg.Done()
			defer func() { <-semaphore }()
			op(index)
		}(idx)
	}

	wg.Wait()
}

func seedOrders(config LoadTestConfig, n int) []string {
	orderIDs := make([]string, 0, n)
	for i := 0; i < n; i++ {
		status, body := send(config, http.MethodPost, "/order", orderPayload())
		if status != http.StatusCreated && status != http.StatusBadGateway {
			continue
		}
		var result struct {
			OrderID string `json:"orderId"`
		}
		if err := json.Unmarshal(body, &result); err == nil && result.OrderID != "" {
			orderIDs = append(orderIDs, result.OrderID)
		}
	}
	fmt.Printf("✅ Created %d orders for testing\n\n", len(orderIDs))
	return orderIDs
}

func orderPayload() map[string]string {
	return map[string]string{
		"userId": fmt.Sprintf("U-load-%d", time.Now().UnixNano()%1000),
		"name":   "Load Test",
		"drink":  fmt.Sprintf("Latte-%d", time.Now().UnixNano()),
		"note":   "less ice",
	}
}

func placeOrder(config LoadTestConfig, stats *Stats) {
	measure(stats, func() (int, []byte) {
		return send(config, http.MethodPost, "/order", orderPayload())
	})
}

func updateOrder(config LoadTestConfig, orderID, status string, stats *Stats) {
	payload := map[string]string{"orderId": orderID, "status": status}
	measure(stats, func() (int, []byte) {
		return send(config, http.MethodPost, "/update-order", payload)
	})
}

func listOrders(config LoadTestConfig, stats *Stats) {
	measure(stats, func() (int, []byte) {
		return send(config, http.MethodGet, "/orders", nil)
	})
}

func send(config LoadTestConfig, method, path string, payload interface{}) (int, []byte) {
	var reqBody io.Reader
	if payload != nil {
		jsonData, _ := json.Marshal(payload)
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, config.BaseURL+path, reqBody)
	if err != nil {
		return 0, []byte(err.Error())
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if config.Origin != "" {
		req.Header.Set("Origin", config.Origin)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, []byte(err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body
}

// measure counts 502 responses separately: the order was written but the
// customer was not notified.
func measure(stats *Stats, call func() (int, []byte)) {
	start := time.Now()
	atomic.AddInt64(&stats.TotalRequests, 1)

	status, body := call()
	if status == 0 {
		recordError(stats, fmt.Errorf("transport: %s", body))
		return
	}
	recordLatency(stats, time.Since(start).Milliseconds())

	switch {
	case status >= 200 && status < 300:
		atomic.AddInt64(&stats.SuccessRequests, 1)
	case status == http.StatusBadGateway:
		atomic.AddInt64(&stats.PartialRequests, 1)
	default:
		recordError(stats, fmt.Errorf("HTTP %d: %s", status, body))
	}
}

func recordLatency(stats *Stats, latency int64) {
	atomic.AddInt64(&stats.TotalLatency, latency)

	for {
		old := atomic.LoadInt64(&stats.MinLatency)
		if latency >= old || atomic.CompareAndSwapInt64(&stats.MinLatency, old, latency) {
			break
		}
	}

	for {
		old := atomic.LoadInt64(&stats.MaxLatency)
		if latency <= old || atomic.CompareAndSwapInt64(&stats.MaxLatency, old, latency) {
			break
		}
	}
}

func recordError(stats *Stats, err error) {
	atomic.AddInt64(&stats.FailedRequests, 1)
	val, _ := stats.Errors.LoadOrStore(err.Error(), new(int64))
	atomic.AddInt64(val.(*int64), 1)
}

func printResults(stats *Stats, elapsed time.Duration) {
	total := atomic.LoadInt64(&stats.TotalRequests)
	if total == 0 {
		fmt.Println("No requests sent")
		return
	}
	success := atomic.LoadInt64(&stats.SuccessRequests)
	partial := atomic.LoadInt64(&stats.PartialRequests)
	failed := atomic.LoadInt64(&stats.FailedRequests)

	fmt.Printf("\n📊 Load Test Results\n")
	fmt.Printf("═══════════════════════════════════════════════════\n")
	fmt.Printf("Total time:           %v\n", elapsed)
	fmt.Printf("Total requests:       %d\n", total)
	fmt.Printf("Successful:           %d (%.2f%%)\n", success, float64(success)/float64(total)*100)
	fmt.Printf("Saved, not notified:  %d (%.2f%%)\n", partial, float64(partial)/float64(total)*100)
	fmt.Printf("Failed:               %d (%.2f%%)\n", failed, float64(failed)/float64(total)*100)
	fmt.Printf("\n")
	fmt.Printf("Throughput:           %.2f req/sec\n", float64(total)/elapsed.Seconds())
	fmt.Printf("\n")
	fmt.Printf("Latency:\n")
	fmt.Printf("  Average:            %d ms\n", atomic.LoadInt64(&stats.TotalLatency)/total)
	fmt.Printf("  Minimum:            %d ms\n", atomic.LoadInt64(&stats.MinLatency))
	fmt.Printf("  Maximum:            %d ms\n", atomic.LoadInt64(&stats.MaxLatency))

	if failed > 0 {
		fmt.Printf("\n❌ Errors:\n")
		stats.Errors.Range(func(key, value interface{}) bool {
			fmt.Printf("  [%d] %s\n", atomic.LoadInt64(value.(*int64)), key.(string))
			return true
		})
	}
	fmt.Printf("═══════════════════════════════════════════════════\n")
}
