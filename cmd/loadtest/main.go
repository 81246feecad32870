package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

type Config struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	Questions   []string
}

var defaultQuestions = []string{
	"What is this document about?",
	"summary",
	"How do you add matrices?",
	"What are the main results?",
	"Explain the methodology used in the experiments",
	"Which datasets are described?",
	"What are the limitations?",
	"define inverse",
	"How is the determinant computed for square matrices?",
	"conclusion",
}

func main() {
	baseURL := flag.String("url", "http://localhost:11000", "base URL of the docqa service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	questionsFile := flag.String("questions", "", "file with one question per line")
	flag.Parse()

	questions := defaultQuestions
	if *questionsFile != "" {
		loaded, err := loadQuestions(*questionsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loading questions: %v\n", err)
			os.Exit(1)
		}
		questions = loaded
	}

	cfg := Config{
		BaseURL:     strings.TrimRight(*baseURL, "/"),
		Concurrency: *concurrency,
		Duration:    *duration,
		Questions:   questions,
	}

	fmt.Println("=== DocQA Load Test ===")
	fmt.Printf("Target:      %s/api/ask\n", cfg.BaseURL)
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Printf("Questions:   %d unique\n", len(cfg.Questions))
	fmt.Println()

	stats := runLoadTest(cfg)
	if !stats.Print(cfg.Duration) {
		fmt.Println()
		fmt.Println("WARNING: No requests completed. Is the service running?")
		os.Exit(1)
	}
}

func loadQuestions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out = append(out, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s contains no questions", path)
	}
	return out, nil
}

type askResponse struct {
	Kind     string `json:"kind"`
	CacheHit bool   `json:"cache_hit"`
}

func runLoadTest(cfg Config) *Stats {
	stats := NewStats()
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Concurrency * 2,
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	var wg sync.WaitGroup
	fmt.Print("Running")
	for w := range cfg.Concurrency {
		wg.Go(func() {
			next := w
			for ctx.Err() == nil {
				question := cfg.Questions[next%len(cfg.Questions)]
				next++
				ask(ctx, client, cfg.BaseURL, question, stats)
			}
		})
	}

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Print(".")
			}
		}
	}()

	wg.Wait()
	fmt.Println(" done!")
	fmt.Println()
	return stats
}

func ask(ctx context.Context, client *http.Client, baseURL, question string, stats *Stats) {
	body, _ := json.Marshal(map[string]string{"question": question})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/ask", bytes.NewReader(body))
	if err != nil {
		panic(fmt.Sprintf("creating request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		if ctx.Err() == nil {
			stats.Record(elapsed, 0, "", false, err)
		}
		return
	}
	defer resp.Body.Close()

	var ans askResponse
	if err := json.NewDecoder(resp.Body).Decode(&ans); err != nil {
		io.Copy(io.Discard, resp.Body)
	}
	stats.Record(elapsed, resp.StatusCode, ans.Kind, ans.CacheHit, nil)
}
