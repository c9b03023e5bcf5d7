package trace_test

import (
	"bytes"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/trace"
)

type recordingAccessor struct {
	addrs []uint64
}

func (a *recordingAccessor) Access(addr uint64) cache.Outcome {
	a.addrs = append(a.addrs, addr)
	return cache.Outcome{Addr: addr}
}

type failingReader struct {
	data string
	done bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, errors.New("disk on fire")
	}
	r.done = true
	return copy(p, r.data), nil
}

var _ = Describe("Replayer", func() {
	var (
		sim      *cache.Simulator
		replayer *trace.Replayer
	)

	BeforeEach(func() {
		sim = cache.NewSimulator(*cache.DefaultConfig())
		replayer = trace.NewReplayer(sim)
	})

	It("should leave counters at zero for an empty trace", func() {
		Expect(replayer.Replay(strings.NewReader(""))).To(Succeed())
		Expect(sim.Stats()).To(Equal(cache.Statistics{}))
		Expect(replayer.Summary()).To(Equal(trace.Summary{}))
	})

	It("should issue one access per load and store and two per modify", func() {
		accessor := &recordingAccessor{}
		replayer = trace.NewReplayer(accessor)

		err := replayer.Replay(strings.NewReader(
			"I 400,4\n L 10,1\n S 20,1\n M 30,1\n X 40,1\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(accessor.addrs).To(Equal([]uint64{0x10, 0x20, 0x30, 0x30}))
	})

	It("should skip malformed lines without touching the cache", func() {
		err := replayer.Replay(strings.NewReader(
			"garbage\n L zz,1\n L 10,1\n\n L 10"))
		Expect(err).NotTo(HaveOccurred())

		Expect(sim.Stats()).To(Equal(cache.Statistics{Misses: 1}))
		Expect(sim.Tick()).To(Equal(uint64(2)))
		Expect(replayer.Summary()).To(Equal(trace.Summary{
			Lines: 5, Replayed: 1, Malformed: 4,
		}))
	})

	It("should replay a final line without a newline", func() {
		Expect(replayer.Replay(strings.NewReader(" L 10,1\n L 10,1"))).To(Succeed())
		Expect(sim.Stats()).To(Equal(cache.Statistics{Hits: 1, Misses: 1}))
	})

	It("should return modify outcomes as miss then hit", func() {
		outcomes := replayer.Apply(trace.Record{Op: trace.OpModify, Addr: 0x40, Size: 4})
		Expect(outcomes).To(HaveLen(2))
		Expect(outcomes[0].Hit).To(BeFalse())
		Expect(outcomes[1].Hit).To(BeTrue())
	})

	It("should replay the scenario traces", func() {
		sim = cache.NewSimulator(cache.Config{SetBits: 1, Associativity: 1, BlockBits: 1})
		replayer = trace.NewReplayer(sim)
		Expect(replayer.Replay(strings.NewReader(" L 0,1\n L 8,1\n L 0,1\n"))).To(Succeed())
		Expect(sim.Stats()).To(Equal(cache.Statistics{Hits: 0, Misses: 3, Evictions: 2}))

		sim = cache.NewSimulator(cache.Config{SetBits: 1, Associativity: 2, BlockBits: 1})
		replayer = trace.NewReplayer(sim)
		Expect(replayer.Replay(strings.NewReader(" L 0,1\n L 8,1\n L 0,1\n L 8,1\n"))).To(Succeed())
		Expect(sim.Stats()).To(Equal(cache.Statistics{Hits: 2, Misses: 2, Evictions: 0}))
	})

	It("should return read errors", func() {
		err := replayer.Replay(&failingReader{data: " L 10,1\n"})
		Expect(err).To(MatchError(ContainSubstring("disk on fire")))
		Expect(sim.Stats().Misses).To(Equal(uint64(1)))
	})

	Describe("Trace files", func() {
		It("should replay yi.trace", func() {
			var out bytes.Buffer
			replayer = trace.NewReplayer(sim, trace.WithVerboseOutput(&out))

			Expect(replayer.ReplayFile("testdata/yi.trace")).To(Succeed())
			Expect(sim.Stats()).To(Equal(cache.Statistics{Hits: 4, Misses: 5, Evictions: 3}))
			Expect(out.String()).To(Equal(strings.Join([]string{
				"L 10,1 miss",
				"M 20,1 miss hit",
				"L 22,1 hit",
				"S 18,1 hit",
				"L 110,1 miss eviction",
				"L 210,1 miss eviction",
				"M 12,1 miss eviction hit",
				"",
			}, "\n")))
		})

		It("should count ignored and malformed lines", func() {
			Expect(replayer.ReplayFile("testdata/mixed.trace")).To(Succeed())
			Expect(replayer.Summary()).To(Equal(trace.Summary{
				Lines: 9, Replayed: 4, Ignored: 3, Malformed: 2,
			}))
			Expect(sim.Stats()).To(Equal(cache.Statistics{Hits: 2, Misses: 3}))
		})

		It("should fail on a missing file", func() {
			Expect(replayer.ReplayFile("testdata/missing.trace")).NotTo(Succeed())
		})

		It("should be deterministic across fresh simulators", func() {
			run := func() cache.Statistics {
				s := cache.NewSimulator(cache.Config{SetBits: 1, Associativity: 2, BlockBits: 2})
				Expect(trace.NewReplayer(s).ReplayFile("testdata/yi.trace")).To(Succeed())
				return s.Stats()
			}
			Expect(run()).To(Equal(run()))
		})
	})
})
