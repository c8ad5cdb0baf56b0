// Command cartauth-loadtest measures credential store throughput: a lookup
// phase (GET + PTTL) and a rotation phase (Lua compare-and-swap), each against
// a seeded population of identities.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/cartauth/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type identity struct {
	userID string
	digest string
	mu     sync.Mutex
}

func main() {
	var (
		identities  = flag.Int("identities", 100000, "number of identities to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (lookup + rotate)")
		redisURL    = flag.String("redis-url", "", "redis URL; if empty, REDIS_URL env or miniredis is used")
		prefix      = flag.String("prefix", "refresh_token", "credential key prefix")
	)
	flag.Parse()

	if *identities <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "identities, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	url := *redisURL
	if url == "" {
		url = os.Getenv("REDIS_URL")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if url == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		opts, err := redis.ParseURL(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid redis url: %v\n", err)
			os.Exit(2)
		}
		client = redis.NewClient(opts)
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", opts.Addr)
	}
	defer cleanup()

	store := session.NewStore(client, *prefix, 0)

	states := make([]identity, *identities)
	fmt.Printf("seeding %d identities...\n", *identities)
	startSeed := time.Now()
	for i := range states {
		states[i] = identity{userID: uuid.NewString(), digest: session.Digest(fmt.Sprintf("seed-%d", i))}
		if err := store.Put(ctx, states[i].userID, states[i].digest, 7*24*time.Hour); err != nil {
			fmt.Fprintf(os.Stderr, "put failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	lookupStats := runPhase(*ops, *concurrency, 7919, func(r *rand.Rand, _ int) error {
		_, err := store.Get(ctx, states[r.Intn(len(states))].userID)
		return err
	})
	rotateStats := runPhase(*ops, *concurrency, 6151, func(r *rand.Rand, i int) error {
		s := &states[r.Intn(len(states))]
		s.mu.Lock()
		defer s.mu.Unlock()

		next := session.Digest(fmt.Sprintf("%s-%d", s.digest, i))
		if err := store.Rotate(ctx, s.userID, s.digest, next, 7*24*time.Hour); err != nil {
			return err
		}
		s.digest = next
		return nil
	})

	fmt.Println("---- results ----")
	printStats("lookup", lookupStats)
	printStats("rotate", rotateStats)
}

// runPhase runs op ops times across concurrency workers and records latencies.
func runPhase(ops, concurrency int, seed int64, op func(r *rand.Rand, i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r, i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
