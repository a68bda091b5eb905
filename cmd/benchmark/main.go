package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Benchmark settings
var (
	targetURL   string
	concurrency int
	duration    time.Duration
	workload    string
	rail        string
	senderUser  string
	senderAcct  string
	receiverAcc string
)

// Metrics
var (
	totalRequests uint64
	ok200         uint64 // Transfer initiated / status read
	fail400       uint64 // Rejected by validation
	fail500       uint64 // Rail or persistence failure
	failOther     uint64
	statusPolls   uint64
)

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API Base URL")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent workers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "Test duration")
	flag.StringVar(&workload, "workload", "transfer", "Workload type: transfer | mixed")
	flag.StringVar(&rail, "provider", os.Getenv("REAL_PROVIDER"), "Regional rail of the seeded accounts")
	flag.StringVar(&senderUser, "sender-user", os.Getenv("REAL_SENDER_USER_ID"), "Owner of the sender account")
	flag.StringVar(&senderAcct, "sender", os.Getenv("REAL_SENDER_LINKED_ACCOUNT_ID"), "Sender linked account id")
	flag.StringVar(&receiverAcc, "receiver", os.Getenv("REAL_RECEIVER_LINKED_ACCOUNT_ID"), "Receiver linked account id")
}

func main() {
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if senderUser == "" || senderAcct == "" || receiverAcc == "" {
		log.Fatal().Msg("sender-user, sender and receiver are required; run the seeder first")
	}
	log.Info().Str("workload", workload).Int("workers", concurrency).Dur("duration", duration).Msg("Starting Benchmark")

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go worker(&wg, start)
	}

	wg.Wait()
	printResults(time.Since(start))
}

func worker(wg *sync.WaitGroup, start time.Time) {
	defer wg.Done()
	client := &http.Client{Timeout: 20 * time.Second}

	for time.Since(start) < duration {
		payload := map[string]interface{}{
			"type":                    "provider",
			"senderId":                senderUser,
			"email":                   "bench@example.com",
			"name":                    "Benchmark",
			"amount":                  fmt.Sprintf("%d.00", rand.Intn(900)+100),
			"linkedAccountId":         senderAcct,
			"receiverLinkedAccountId": receiverAcc,
		}
		body, _ := json.Marshal(payload)

		resp, err := client.Post(targetURL+"/transfer", "application/json", bytes.NewBuffer(body))
		if err != nil {
			atomic.AddUint64(&failOther, 1)
			continue
		}

		atomic.AddUint64(&totalRequests, 1)
		var out struct {
			TransferID string `json:"transferId"`
			Provider   string `json:"provider"`
		}
		switch {
		case resp.StatusCode == http.StatusOK:
			atomic.AddUint64(&ok200, 1)
			_ = json.NewDecoder(resp.Body).Decode(&out)
		case resp.StatusCode == http.StatusBadRequest:
			atomic.AddUint64(&fail400, 1)
		case resp.StatusCode >= http.StatusInternalServerError:
			atomic.AddUint64(&fail500, 1)
		default:
			atomic.AddUint64(&failOther, 1)
		}
		resp.Body.Close()

		if workload == "mixed" && out.TransferID != "" {
			pollStatus(client, out.TransferID, out.Provider)
		}
	}
}

func pollStatus(client *http.Client, id, provider string) {
	q := url.Values{"transferId": {id}, "provider": {provider}}
	resp, err := client.Get(targetURL + "/transfer/status?" + q.Encode())
	if err != nil {
		atomic.AddUint64(&failOther, 1)
		return
	}
	defer resp.Body.Close()
	atomic.AddUint64(&statusPolls, 1)
	if resp.StatusCode != http.StatusOK {
		atomic.AddUint64(&failOther, 1)
	}
}

func printResults(d time.Duration) {
	total := atomic.LoadUint64(&totalRequests)
	s200 := atomic.LoadUint64(&ok200)
	f400 := atomic.LoadUint64(&fail400)
	f500 := atomic.LoadUint64(&fail500)
	fErr := atomic.LoadUint64(&failOther)

	tps := float64(total) / d.Seconds()
	var failRate float64
	if total > 0 {
		failRate = float64(f500) / float64(total) * 100
	}

	results := map[string]interface{}{
		"workload":          workload,
		"provider":          rail,
		"duration_sec":      d.Seconds(),
		"total_requests":    total,
		"throughput_tps":    tps,
		"success_initiated": s200,
		"rejected_invalid":  f400,
		"failed_rail":       f500,
		"rail_failure_pct":  failRate,
		"status_polls":      atomic.LoadUint64(&statusPolls),
		"errors":            fErr,
	}

	// JSON on stdout, plus a copy on disk
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(results)

	filename := fmt.Sprintf("results_%s.json", workload)
	file, err := os.Create(filename)
	if err != nil {
		log.Error().Err(err).Str("file", filename).Msg("could not save results")
		return
	}
	defer file.Close()
	json.NewEncoder(file).Encode(results)
}
