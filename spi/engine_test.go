package spi_test

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/macsim/spi"
	"github.com/sarchlab/macsim/timing/clock"
)

// recordingBus captures everything a host engine does to the wires so
// tests can verify the framing discipline bit by bit.
type recordingBus struct {
	selected  bool
	clockHigh bool
	dataBit   uint8

	selectChanges []bool
	sentBits      []uint8 // host data sampled at each rising edge
	risingEdges   int

	dataChangedWhileHigh bool

	responseBits []uint8 // bits returned by SampleData, in order
	sampleCount  int
	sampleErrAt  int // fail the n-th sample (1-based); 0 disables
}

func (b *recordingBus) SetSelect(active bool) {
	if active != b.selected {
		b.selectChanges = append(b.selectChanges, active)
	}
	b.selected = active
}

func (b *recordingBus) SetClock(high bool) {
	if high && !b.clockHigh {
		b.risingEdges++
		b.sentBits = append(b.sentBits, b.dataBit)
	}
	b.clockHigh = high
}

func (b *recordingBus) SetData(bit uint8) {
	if b.clockHigh && bit != b.dataBit {
		b.dataChangedWhileHigh = true
	}
	b.dataBit = bit & 1
}

func (b *recordingBus) SampleData() (uint8, error) {
	b.sampleCount++
	if b.sampleErrAt > 0 && b.sampleCount >= b.sampleErrAt {
		return 0, fmt.Errorf("line stuck")
	}
	if len(b.responseBits) == 0 {
		return 0, nil
	}
	bit := b.responseBits[0]
	b.responseBits = b.responseBits[1:]
	return bit, nil
}

// wordBits expands a value into its bits, MSB-first.
func wordBits(value uint32, n int) []uint8 {
	bits := make([]uint8, n)
	for i := 0; i < n; i++ {
		bits[i] = uint8(value>>uint(n-1-i)) & 1
	}
	return bits
}

var _ = Describe("Engine", func() {
	var (
		bus    *recordingBus
		clk    *clock.Clock
		engine *spi.Engine
	)

	BeforeEach(func() {
		bus = &recordingBus{}
		clk = clock.New(62.5 * sim.MHz)
		engine = spi.NewEngine(bus, clk)
	})

	Describe("write transactions", func() {
		It("should frame the command word MSB-first", func() {
			cmd := spi.NewCommand(true, spi.Width32, 0x24)

			_, err := engine.Transfer(cmd, 0xDEAD)

			Expect(err).ToNot(HaveOccurred())
			Expect(bus.sentBits[:32]).To(Equal(wordBits(uint32(cmd), 32)))
		})

		It("should follow the command with the payload at the command width", func() {
			cmd := spi.NewCommand(true, spi.Width16, 0x28)

			_, err := engine.Transfer(cmd, 0xBEEF)

			Expect(err).ToNot(HaveOccurred())
			Expect(bus.risingEdges).To(Equal(32 + 16))
			Expect(bus.sentBits[32:]).To(Equal(wordBits(0xBEEF, 16)))
		})

		It("should mask the payload to the command width", func() {
			cmd := spi.NewCommand(true, spi.Width8, 0x28)

			_, err := engine.Transfer(cmd, 0x1234AB)

			Expect(err).ToNot(HaveOccurred())
			Expect(bus.sentBits[32:]).To(Equal(wordBits(0xAB, 8)))
		})

		It("should hold data stable while the clock is high", func() {
			cmd := spi.NewCommand(true, spi.Width32, 0x24)

			_, err := engine.Transfer(cmd, 0xA5A55A5A)

			Expect(err).ToNot(HaveOccurred())
			Expect(bus.dataChangedWhileHigh).To(BeFalse())
		})

		It("should bracket the transaction with the select line", func() {
			cmd := spi.NewCommand(true, spi.Width32, 0x24)

			_, err := engine.Transfer(cmd, 1)

			Expect(err).ToNot(HaveOccurred())
			Expect(bus.selectChanges).To(Equal([]bool{true, false}))
			Expect(bus.selected).To(BeFalse())
			Expect(bus.clockHigh).To(BeFalse())
		})

		It("should advance virtual time while driving bits", func() {
			cmd := spi.NewCommand(true, spi.Width32, 0x24)

			before := clk.Now()
			_, err := engine.Transfer(cmd, 1)

			Expect(err).ToNot(HaveOccurred())
			Expect(clk.Now()).To(BeNumerically(">", before))
		})
	})

	Describe("read transactions", func() {
		It("should clock 32 response cycles after the command", func() {
			cmd := spi.NewCommand(false, spi.Width32, 0x2C)
			bus.responseBits = wordBits(0xCAFEBABE, 32)

			word, err := engine.Transfer(cmd, 0)

			Expect(err).ToNot(HaveOccurred())
			Expect(word).To(Equal(uint32(0xCAFEBABE)))
			Expect(bus.risingEdges).To(Equal(32 + 32))
		})

		It("should return the full 32-bit word regardless of the width code", func() {
			cmd := spi.NewCommand(false, spi.Width8, 0x2C)
			bus.responseBits = wordBits(0x12345678, 32)

			word, err := engine.Transfer(cmd, 0)

			Expect(err).ToNot(HaveOccurred())
			Expect(word).To(Equal(uint32(0x12345678)))
		})

		It("should surface sample failures as transport errors", func() {
			cmd := spi.NewCommand(false, spi.Width32, 0x2C)
			bus.sampleErrAt = 7

			_, err := engine.Transfer(cmd, 0)

			Expect(err).To(MatchError(spi.ErrTransport))
		})

		It("should return the link to idle after a transport error", func() {
			cmd := spi.NewCommand(false, spi.Width32, 0x2C)
			bus.sampleErrAt = 1

			_, err := engine.Transfer(cmd, 0)

			Expect(err).To(HaveOccurred())
			Expect(bus.selected).To(BeFalse())
			Expect(bus.clockHigh).To(BeFalse())
		})
	})

	Describe("command validation", func() {
		It("should reject the reserved width code before any bit is sent", func() {
			cmd := spi.NewCommand(true, spi.WidthCode(3), 0x24)

			_, err := engine.Transfer(cmd, 1)

			Expect(err).To(MatchError(spi.ErrInvalidWidth))
			Expect(bus.risingEdges).To(BeZero())
			Expect(bus.selectChanges).To(BeEmpty())
		})
	})

	Describe("Stats", func() {
		It("should count transactions and bits", func() {
			_, err := engine.Transfer(spi.NewCommand(true, spi.Width32, 0x24), 1)
			Expect(err).ToNot(HaveOccurred())
			bus.responseBits = wordBits(0, 32)
			_, err = engine.Transfer(spi.NewCommand(false, spi.Width32, 0x24), 0)
			Expect(err).ToNot(HaveOccurred())

			stats := engine.Stats()
			Expect(stats.Writes).To(Equal(uint64(1)))
			Expect(stats.Reads).To(Equal(uint64(1)))
			Expect(stats.BitsSent).To(Equal(uint64(32 + 32 + 32)))
		})
	})
})

var _ = Describe("Engine error taxonomy", func() {
	It("should keep transport errors distinguishable from protocol errors", func() {
		Expect(errors.Is(spi.ErrTransport, spi.ErrInvalidWidth)).To(BeFalse())
	})
})
