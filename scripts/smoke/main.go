// Command smoke probes a running portal deployment and reports per-endpoint
// status and latency. Critical probe failures exit non-zero so the tool can
// gate deploy pipelines.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type probe struct {
	Method       string `json:"method"`
	Path         string `json:"path"`
	ExpectStatus int    `json:"expect_status"`
	Critical     bool   `json:"critical"`
}

type probeFile struct {
	Probes []probe `json:"probes"`
}

type result struct {
	Probe    probe
	Status   int
	Duration time.Duration
	Err      error
}

func main() {
	var (
		base       string
		probesPath string
		token      string
		timeout    time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "Portal API base URL")
	flag.StringVar(&probesPath, "probes", filepath.Join("scripts", "smoke", "probes.json"), "Path to JSON probes file")
	flag.StringVar(&token, "token", "", "Bearer token for authenticated probes")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	probes, err := loadProbes(probesPath)
	if err != nil {
		log.Fatalf("failed to load probes: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var failures int
	results := make([]result, 0, len(probes))
	for _, p := range probes {
		res := runProbe(client, base, token, p)
		if !res.ok() && p.Critical {
			failures++
		}
		results = append(results, res)
	}

	printReport(results)
	fmt.Printf("Critical failures: %d\n", failures)
	if failures > 0 {
		os.Exit(1)
	}
}

func loadProbes(path string) ([]probe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file probeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Probes) == 0 {
		return nil, fmt.Errorf("no probes defined in %s", path)
	}
	return file.Probes, nil
}

func runProbe(client *http.Client, base, token string, p probe) result {
	res := result{Probe: p}

	method := strings.ToUpper(strings.TrimSpace(p.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := p.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := strings.TrimRight(base, "/") + path

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		res.Err = err
		return res
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err
		return res
	}
	defer resp.Body.Close()
	res.Status = resp.StatusCode
	return res
}

func (r result) ok() bool {
	if r.Err != nil {
		return false
	}
	expected := r.Probe.ExpectStatus
	if expected == 0 {
		expected = http.StatusOK
	}
	return r.Status == expected
}

func printReport(results []result) {
	fmt.Println("Smoke Report")
	fmt.Println("============")
	for _, res := range results {
		status := "OK"
		if !res.ok() {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s %s\n", status, res.Probe.Method, res.Probe.Path)
		if res.Err != nil {
			fmt.Printf("  Error: %v (%s)\n", res.Err, res.Duration)
			continue
		}
		fmt.Printf("  Status: %d (%s) | Critical: %t\n", res.Status, res.Duration, res.Probe.Critical)
	}
}
