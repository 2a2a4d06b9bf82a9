package main

import (
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/teatak/smt/translator"
)

func TestClampNBest(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, 0},
		{0, 0},
		{10, 10},
		{MaxNBest + 1, MaxNBest},
	}
	for _, tt := range tests {
		if got := clampNBest(tt.in); got != tt.want {
			t.Errorf("clampNBest(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestStoreResponse_AfterReload(t *testing.T) {
	responses = cache.New(time.Minute, time.Minute)
	defer func() { responses, tr = nil, nil }()

	old, fresh := &translator.Translator{}, &translator.Translator{}
	swapEngine(old)
	storeResponse(old, "a", TranslateResponse{Translation: "old"})
	if _, ok := responses.Get("a"); !ok {
		t.Fatalf("response of the current engine not cached")
	}

	swapEngine(fresh)
	if _, ok := responses.Get("a"); ok {
		t.Errorf("reload kept a cached response")
	}
	// a request that started before the reload finishes after it
	storeResponse(old, "b", TranslateResponse{Translation: "stale"})
	if _, ok := responses.Get("b"); ok {
		t.Errorf("response of a replaced engine was cached")
	}
	storeResponse(fresh, "b", TranslateResponse{Translation: "new"})
	if v, ok := responses.Get("b"); !ok || v.(TranslateResponse).Translation != "new" {
		t.Errorf("cached = %v, want the new engine's response", v)
	}
}
