// Command board_compare checks that two board instances sharing the same
// remote documents have converged on the same classes and pending queues.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"reflect"
	"sort"
	"strings"
	"time"
)

type probe struct {
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type probeFile struct {
	Probes []probe `json:"probes"`
}

type outcome struct {
	Probe      probe
	LeftCode   int
	RightCode  int
	SameStatus bool
	SameData   bool
	LeftTook   time.Duration
	RightTook  time.Duration
	Err        error
}

var defaultProbes = []probe{
	{Path: "/api/v1/classes?region=nyc", Critical: true},
	{Path: "/api/v1/classes?region=bayarea", Critical: true},
	{Path: "/api/v1/pending", Critical: true},
	{Path: "/api/v1/filters?region=nyc"},
	{Path: "/api/v1/filters?region=bayarea"},
	{Path: "/api/v1/styles"},
}

func main() {
	var (
		left      string
		right     string
		probePath string
		timeout   time.Duration
	)

	flag.StringVar(&left, "left", "http://localhost:8080", "first board base URL")
	flag.StringVar(&right, "right", "http://localhost:8081", "second board base URL")
	flag.StringVar(&probePath, "probes", "", "optional JSON file listing probes")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	probes := defaultProbes
	if probePath != "" {
		loaded, err := loadProbes(probePath)
		if err != nil {
			log.Fatalf("load probes: %v", err)
		}
		probes = loaded
	}

	client := &http.Client{Timeout: timeout}
	results := make([]outcome, 0, len(probes))
	drift, minor := 0, 0
	for _, p := range probes {
		res := compareProbe(client, left, right, p)
		if res.Err != nil || !res.SameStatus || !res.SameData {
			if p.Critical {
				drift++
			} else {
				minor++
			}
		}
		results = append(results, res)
	}

	report(os.Stdout, results)
	fmt.Printf("Critical drift: %d, minor drift: %d\n", drift, minor)
	if drift > 0 {
		os.Exit(1)
	}
}

func loadProbes(path string) ([]probe, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file probeFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, err
	}
	if len(file.Probes) == 0 {
		return nil, fmt.Errorf("no probes defined in %s", path)
	}
	return file.Probes, nil
}

func compareProbe(client *http.Client, left, right string, p probe) outcome {
	res := outcome{Probe: p}

	leftCode, leftBody, leftTook, err := fetch(client, left, p.Path)
	if err != nil {
		res.Err = fmt.Errorf("left: %w", err)
		return res
	}
	rightCode, rightBody, rightTook, err := fetch(client, right, p.Path)
	if err != nil {
		res.Err = fmt.Errorf("right: %w", err)
		return res
	}

	res.LeftCode, res.RightCode = leftCode, rightCode
	res.LeftTook, res.RightTook = leftTook, rightTook
	res.SameStatus = leftCode == rightCode
	res.SameData = sameData(leftBody, rightBody)
	return res
}

func fetch(client *http.Client, base, path string) (int, []byte, time.Duration, error) {
	if client == nil {
		return 0, nil, 0, errors.New("nil client")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	start := time.Now()
	resp, err := client.Get(strings.TrimRight(base, "/") + path)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, 0, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, time.Since(start), nil
}

// sameData compares the envelope data of two replies. Metadata is skipped and
// lists of objects carrying an id are compared as sets.
func sameData(a, b []byte) bool {
	var left, right map[string]interface{}
	if err := json.Unmarshal(a, &left); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &right); err != nil {
		return false
	}
	ld, rd := left["data"], right["data"]
	canonical(&ld)
	canonical(&rd)
	return reflect.DeepEqual(ld, rd)
}

func canonical(v *interface{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for k, inner := range val {
			canonical(&inner)
			val[k] = inner
		}
	case []interface{}:
		for i, inner := range val {
			canonical(&inner)
			val[i] = inner
		}
		sort.SliceStable(val, func(i, j int) bool { return idOf(val[i]) < idOf(val[j]) })
	}
}

func idOf(v interface{}) string {
	if m, ok := v.(map[string]interface{}); ok {
		if id, ok := m["id"].(string); ok {
			return id
		}
		if token, ok := m["approvalToken"].(string); ok {
			return token
		}
	}
	return ""
}

func report(w io.Writer, results []outcome) {
	fmt.Fprintln(w, "Board Convergence Report")
	fmt.Fprintln(w, "========================")
	for _, res := range results {
		status := "OK"
		if res.Err != nil {
			status = "ERROR"
		} else if !res.SameStatus || !res.SameData {
			status = "DRIFT"
		}
		fmt.Fprintf(w, "[%s] GET %s\n", status, res.Probe.Path)
		if res.Err != nil {
			fmt.Fprintf(w, "  error: %v\n", res.Err)
			continue
		}
		fmt.Fprintf(w, "  left %d (%s) | right %d (%s) | data match: %t | critical: %t\n",
			res.LeftCode, res.LeftTook, res.RightCode, res.RightTook, res.SameData, res.Probe.Critical)
	}
}
