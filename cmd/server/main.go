package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/teatak/smt/config"
	"github.com/teatak/smt/features"
	"github.com/teatak/smt/translator"
	"github.com/teatak/smt/util"
)

// Global translator with RWMutex for hot reloading
var (
	tr     *translator.Translator
	trLock sync.RWMutex

	responses *cache.Cache
)

var configPath = flag.String("config", "data/smt.yaml", "Path to config file")

const AccessLogFile = "data/server_access.log"

// MaxNBest caps the n-best size a request may ask for.
const MaxNBest = 1000

func main() {
	flag.Parse()

	// 1. Initial Load
	cfg, err := reloadEngine()
	if err != nil {
		log.Fatalf("Initial load failed: %v", err)
	}
	if cfg.Server.CacheTTLSeconds > 0 {
		ttl := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
		responses = cache.New(ttl, 2*ttl)
	}

	// 2. Setup access log
	logF, err := os.OpenFile(AccessLogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatal(err)
	}
	defer logF.Close()

	// 3. Handlers
	http.HandleFunc("/translate", func(w http.ResponseWriter, r *http.Request) {
		handleTranslate(w, r, logF)
	})
	http.HandleFunc("/reload", handleReload)

	util.Infof("Server started on %s", cfg.Server.Addr)
	log.Fatal(http.ListenAndServe(cfg.Server.Addr, nil))
}

// reloadEngine reloads config and models from disk safely
func reloadEngine() (config.Config, error) {
	util.Infof("Reloading engine from %s...", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		return cfg, err
	}
	util.SetVerbose(cfg.Logging.Verbose)
	newTr, err := translator.New(cfg)
	if err != nil {
		return cfg, err
	}

	swapEngine(newTr)
	util.Infof("Engine reloaded successfully.")
	return cfg, nil
}

// swapEngine installs t and drops every cached response under the same
// lock, so no response computed by the old engine is stored afterwards.
func swapEngine(t *translator.Translator) {
	trLock.Lock()
	defer trLock.Unlock()
	tr = t
	if responses != nil {
		responses.Flush()
	}
}

// storeResponse caches resp unless the engine that produced it has been
// replaced in the meantime.
func storeResponse(engine *translator.Translator, key string, resp TranslateResponse) {
	if responses == nil {
		return
	}
	trLock.RLock()
	defer trLock.RUnlock()
	if tr == engine {
		responses.SetDefault(key, resp)
	}
}

func clampNBest(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxNBest {
		return MaxNBest
	}
	return n
}

// Request/Response types
type TranslateRequest struct {
	Text         string `json:"text"`
	NBest        int    `json:"nbest"`
	Segmentation bool   `json:"segmentation"`
}

type Candidate struct {
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
	Features string  `json:"features"`
}

type TranslateResponse struct {
	RequestID    string      `json:"request_id"`
	Translation  string      `json:"translation"`
	Found        bool        `json:"found"`
	Degraded     bool        `json:"degraded,omitempty"`
	Score        float64     `json:"score"`
	Unknown      []string    `json:"unknown,omitempty"`
	Segmentation string      `json:"segmentation,omitempty"`
	NBest        []Candidate `json:"nbest,omitempty"`
	Cached       bool        `json:"cached,omitempty"`
}

func handleTranslate(w http.ResponseWriter, r *http.Request, accessLog io.Writer) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	requestID := uuid.NewString()

	// 1. Log input (Async write)
	go func(id, text string) {
		if strings.TrimSpace(text) != "" {
			fmt.Fprintf(accessLog, "%s\t%s\n", id, text)
		}
	}(requestID, req.Text)

	// 2. Cached answer
	req.NBest = clampNBest(req.NBest)
	key := fmt.Sprintf("%d|%t|%s", req.NBest, req.Segmentation, strings.Join(strings.Fields(req.Text), " "))
	if responses != nil {
		if v, ok := responses.Get(key); ok {
			resp := v.(TranslateResponse)
			resp.RequestID = requestID
			resp.Cached = true
			writeJSON(w, resp)
			return
		}
	}

	// 3. Process
	trLock.RLock()
	engine := tr
	trLock.RUnlock()
	t := engine.WithNBest(req.NBest)

	res := t.Translate(r.Context(), req.Text)
	resp := TranslateResponse{
		RequestID:   requestID,
		Translation: res.Text(),
		Found:       res.Found,
		Degraded:    res.Degraded,
		Score:       res.Score,
		Unknown:     res.Unknown,
	}
	if req.Segmentation && res.Found {
		resp.Segmentation = translator.FormatSegmentation(res.Segments)
	}
	if len(res.NBest) > 0 {
		resp.NBest = candidates(t.Layout(), res.NBest)
	}
	if !res.Degraded {
		storeResponse(engine, key, resp)
	}
	writeJSON(w, resp)
}

func candidates(layout *features.Layout, list []translator.Candidate) []Candidate {
	out := make([]Candidate, 0, len(list))
	for _, c := range list {
		out = append(out, Candidate{
			Text:     strings.Join(c.Words, " "),
			Score:    c.Score,
			Features: layout.Format(c.Breakdown),
		})
	}
	return out
}

func handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, err := reloadEngine(); err != nil {
		util.Errorf("Reload failed: %v", err)
		http.Error(w, fmt.Sprintf("Reload failed: %v", err), http.StatusInternalServerError)
		return
	}
	fmt.Fprintln(w, "Engine reloaded.")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		util.Errorf("write response: %v", err)
	}
}
