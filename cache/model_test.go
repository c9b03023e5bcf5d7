package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/csim/cache"
)

var _ = Describe("Address decoding", func() {
	It("should split set index and tag", func() {
		config := cache.Config{SetBits: 4, Associativity: 1, BlockBits: 4}

		set, tag := config.Decode(0x12345)
		Expect(set).To(Equal(uint64(0x4)))
		Expect(tag).To(Equal(uint64(0x123)))
	})

	It("should put every address in set 0 when there are no set bits", func() {
		config := cache.Config{SetBits: 0, Associativity: 4, BlockBits: 3}

		set, tag := config.Decode(0xFFF8)
		Expect(set).To(BeZero())
		Expect(tag).To(Equal(uint64(0x1FFF)))
	})

	It("should use the whole address as tag when there are no offset bits", func() {
		config := cache.Config{SetBits: 0, Associativity: 1, BlockBits: 0}

		_, tag := config.Decode(0xDEADBEEF)
		Expect(tag).To(Equal(uint64(0xDEADBEEF)))
	})

	It("should leave an empty tag when index and offset fill the address", func() {
		config := cache.Config{SetBits: 8, Associativity: 1, BlockBits: 56}

		set, tag := config.Decode(0xAB00000000000000)
		Expect(set).To(Equal(uint64(0xAB)))
		Expect(tag).To(BeZero())
	})

	It("should be consistent and stay within the set count", func() {
		config := cache.Config{SetBits: 3, Associativity: 1, BlockBits: 2}

		for _, addr := range []uint64{0, 1, 0x7F, 0x80, 0xFFFFFFFF, ^uint64(0)} {
			set1, tag1 := config.Decode(addr)
			set2, tag2 := config.Decode(addr)
			Expect(set1).To(Equal(set2))
			Expect(tag1).To(Equal(tag2))
			Expect(set1).To(BeNumerically("<", config.NumSets()))
		}
	})

	It("should align addresses to their block", func() {
		config := cache.Config{SetBits: 2, Associativity: 1, BlockBits: 4}
		Expect(config.BlockAddress(0x1234)).To(Equal(uint64(0x1230)))
	})
})

var _ = Describe("Model", func() {
	var m *cache.Model

	BeforeEach(func() {
		m = cache.NewModel(2, 3)
	})

	It("should start with every line invalid", func() {
		Expect(m.NumSets()).To(Equal(2))
		Expect(m.Ways()).To(Equal(3))
		for set := uint64(0); set < 2; set++ {
			for _, line := range m.Set(set) {
				Expect(line.Valid).To(BeFalse())
			}
		}
	})

	It("should fill the lowest invalid way first", func() {
		way, evicted, _ := m.InsertOrEvict(1, 0xA, 1)
		Expect(way).To(Equal(0))
		Expect(evicted).To(BeFalse())

		way, evicted, _ = m.InsertOrEvict(1, 0xB, 2)
		Expect(way).To(Equal(1))
		Expect(evicted).To(BeFalse())

		Expect(m.Line(1, 1)).To(Equal(cache.Line{Valid: true, Tag: 0xB, Recency: 2}))
		Expect(m.Line(0, 0).Valid).To(BeFalse())
	})

	It("should find only valid lines with the tag", func() {
		_, ok := m.Lookup(0, 0)
		Expect(ok).To(BeFalse())

		m.InsertOrEvict(0, 0, 1)
		m.InsertOrEvict(0, 7, 2)

		way, ok := m.Lookup(0, 7)
		Expect(ok).To(BeTrue())
		Expect(way).To(Equal(1))

		_, ok = m.Lookup(1, 7)
		Expect(ok).To(BeFalse())
	})

	It("should evict the least recently touched way", func() {
		m.InsertOrEvict(0, 1, 1)
		m.InsertOrEvict(0, 2, 2)
		m.InsertOrEvict(0, 3, 3)
		m.Touch(0, 0, 4)

		way, evicted, evictedTag := m.InsertOrEvict(0, 4, 5)
		Expect(evicted).To(BeTrue())
		Expect(way).To(Equal(1))
		Expect(evictedTag).To(Equal(uint64(2)))
		Expect(m.Line(0, 1)).To(Equal(cache.Line{Valid: true, Tag: 4, Recency: 5}))
	})

	It("should break recency ties towards the lowest way", func() {
		m.InsertOrEvict(0, 1, 9)
		m.InsertOrEvict(0, 2, 5)
		m.InsertOrEvict(0, 3, 5)

		way, evicted, evictedTag := m.InsertOrEvict(0, 4, 10)
		Expect(evicted).To(BeTrue())
		Expect(way).To(Equal(1))
		Expect(evictedTag).To(Equal(uint64(2)))
	})

	It("should keep sets independent", func() {
		m.InsertOrEvict(0, 1, 1)
		m.InsertOrEvict(0, 2, 2)
		m.InsertOrEvict(0, 3, 3)

		_, evicted, _ := m.InsertOrEvict(1, 1, 4)
		Expect(evicted).To(BeFalse())
		Expect(m.Line(0, 0).Tag).To(Equal(uint64(1)))
	})
})
