package main

import (
	"encoding/json"
	"io"
	"log"
	"math/big"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// counterState is a single shared big-integer counter, read/written under
// a mutex.
type counterState struct {
	mu    sync.Mutex
	count big.Int
}

func (c *counterState) adjust(delta *big.Int) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count.Add(&c.count, delta)
	return new(big.Int).Set(&c.count)
}

func (c *counterState) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count.SetInt64(0)
}

func (c *counterState) get() *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return new(big.Int).Set(&c.count)
}

type countResponse struct {
	Count string `json:"count"`
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("content-type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func runHTTP(addr string) error {
	counter := &counterState{}
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})

	mux.HandleFunc("/echo/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/echo")
		switch {
		case rest == "" || rest == "/":
			if r.Method == http.MethodPost {
				body, _ := io.ReadAll(r.Body)
				_, _ = w.Write(body)
				return
			}
			_, _ = io.WriteString(w, "")
		case rest == "/method":
			_, _ = io.WriteString(w, r.Method)
		case strings.HasPrefix(rest, "/headers"):
			out := map[string]string{}
			for k, v := range r.Header {
				if len(v) > 0 {
					out[k] = v[0]
				}
			}
			writeJSON(w, out)
		case strings.HasPrefix(rest, "/path/"):
			_, _ = io.WriteString(w, strings.TrimPrefix(rest, "/path/"))
		case strings.HasPrefix(rest, "/text/"):
			_, _ = io.WriteString(w, r.URL.RequestURI())
		default:
			http.NotFound(w, r)
		}
	})

	mux.HandleFunc("/counter/", func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/counter")
		segs := strings.Split(strings.Trim(path, "/"), "/")
		if len(segs) == 0 || segs[0] == "" {
			writeJSON(w, countResponse{Count: counter.get().String()})
			return
		}
		one := big.NewInt(1)
		switch segs[0] {
		case "increment", "increments":
			delta := one
			if len(segs) > 1 {
				delta, _ = new(big.Int).SetString(segs[1], 10)
			}
			writeJSON(w, countResponse{Count: counter.adjust(delta).String()})
		case "decrement", "decrements":
			delta := new(big.Int).Neg(one)
			if len(segs) > 1 {
				delta, _ = new(big.Int).SetString(segs[1], 10)
				delta.Neg(delta)
			}
			writeJSON(w, countResponse{Count: counter.adjust(delta).String()})
		case "reset", "resets":
			counter.reset()
			writeJSON(w, countResponse{Count: "0"})
		default:
			http.NotFound(w, r)
		}
	})

	mux.HandleFunc("/wait/", func(w http.ResponseWriter, r *http.Request) {
		segs := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/wait"), "/"), "/")
		if len(segs) == 0 || segs[0] == "" {
			http.Error(w, "missing duration", http.StatusBadRequest)
			return
		}
		duration, err := strconv.ParseUint(segs[0], 10, 64)
		if err != nil {
			http.Error(w, "bad duration", http.StatusBadRequest)
			return
		}
		unit := "s"
		if len(segs) > 1 {
			unit = segs[1]
		}
		var d time.Duration
		switch unit {
		case "ms":
			d = time.Duration(duration) * time.Millisecond
		case "ns":
			d = time.Duration(duration)
		default:
			d = time.Duration(duration) * time.Second
		}
		time.Sleep(d)
		writeJSON(w, map[string]any{"duration": duration, "unit": unit})
	})

	mux.HandleFunc("/random", func(w http.ResponseWriter, r *http.Request) {
		lo, hi := 0, 100
		if v := r.URL.Query().Get("min"); v != "" {
			lo, _ = strconv.Atoi(v)
		}
		if v := r.URL.Query().Get("max"); v != "" {
			hi, _ = strconv.Atoi(v)
		}
		if hi <= lo {
			hi = lo + 1
		}
		writeJSON(w, map[string]int{"value": lo + rand.Intn(hi-lo)})
	})

	log.Printf("devserver: http fixture listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
