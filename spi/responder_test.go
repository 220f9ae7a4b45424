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

// stubRegFile is a scriptable register file for loopback tests.
type stubRegFile struct {
	values map[uint8]uint32

	writeAddrs  []uint8
	writeValues []uint32
	writeWidths []int

	errInvalid error
}

func newStubRegFile() *stubRegFile {
	return &stubRegFile{
		values:     map[uint8]uint32{},
		errInvalid: errors.New("no such register"),
	}
}

func (s *stubRegFile) ReadRegister(addr uint8) (uint32, error) {
	v, ok := s.values[addr]
	if !ok {
		return 0, fmt.Errorf("%w: 0x%02X", s.errInvalid, addr)
	}
	return v, nil
}

func (s *stubRegFile) WriteRegister(addr uint8, value uint32, width int) error {
	if _, ok := s.values[addr]; !ok {
		return fmt.Errorf("%w: 0x%02X", s.errInvalid, addr)
	}
	s.values[addr] = value
	s.writeAddrs = append(s.writeAddrs, addr)
	s.writeValues = append(s.writeValues, value)
	s.writeWidths = append(s.writeWidths, width)
	return nil
}

var _ = Describe("Responder", func() {
	var (
		regs      *stubRegFile
		responder *spi.Responder
		engine    *spi.Engine
	)

	BeforeEach(func() {
		regs = newStubRegFile()
		regs.values[0x24] = 0
		regs.values[0x2C] = 0xCAFEBABE
		responder = spi.NewResponder(regs)
		engine = spi.NewEngine(responder, clock.New(62.5*sim.MHz))
	})

	It("should decode a write command and apply it at the command width", func() {
		_, err := engine.Transfer(spi.NewCommand(true, spi.Width16, 0x24), 0xDEAD)

		Expect(err).ToNot(HaveOccurred())
		Expect(responder.Fault()).ToNot(HaveOccurred())
		Expect(regs.writeAddrs).To(Equal([]uint8{0x24}))
		Expect(regs.writeValues).To(Equal([]uint32{0xDEAD}))
		Expect(regs.writeWidths).To(Equal([]int{2}))
	})

	It("should shift a read response out MSB-first", func() {
		word, err := engine.Transfer(spi.NewCommand(false, spi.Width32, 0x2C), 0)

		Expect(err).ToNot(HaveOccurred())
		Expect(word).To(Equal(uint32(0xCAFEBABE)))
	})

	It("should compose back-to-back transactions", func() {
		_, err := engine.Transfer(spi.NewCommand(true, spi.Width32, 0x24), 0x1234)
		Expect(err).ToNot(HaveOccurred())

		word, err := engine.Transfer(spi.NewCommand(false, spi.Width32, 0x24), 0)
		Expect(err).ToNot(HaveOccurred())
		Expect(word).To(Equal(uint32(0x1234)))

		word, err = engine.Transfer(spi.NewCommand(false, spi.Width32, 0x2C), 0)
		Expect(err).ToNot(HaveOccurred())
		Expect(word).To(Equal(uint32(0xCAFEBABE)))
	})

	It("should latch the first register-file fault and shift zeros", func() {
		word, err := engine.Transfer(spi.NewCommand(false, spi.Width32, 0x04), 0)

		Expect(err).ToNot(HaveOccurred())
		Expect(word).To(BeZero())
		Expect(responder.Fault()).To(MatchError(regs.errInvalid))
	})

	It("should keep the first fault across later transactions", func() {
		_, err := engine.Transfer(spi.NewCommand(false, spi.Width32, 0x04), 0)
		Expect(err).ToNot(HaveOccurred())
		first := responder.Fault()

		_, err = engine.Transfer(spi.NewCommand(true, spi.Width32, 0x08), 1)
		Expect(err).ToNot(HaveOccurred())

		Expect(responder.Fault()).To(BeIdenticalTo(first))
	})

	It("should clear the fault on reset", func() {
		_, err := engine.Transfer(spi.NewCommand(false, spi.Width32, 0x04), 0)
		Expect(err).ToNot(HaveOccurred())
		Expect(responder.Fault()).To(HaveOccurred())

		responder.Reset()

		Expect(responder.Fault()).ToNot(HaveOccurred())
	})

	It("should recover cleanly from a command aborted mid-frame", func() {
		// Drive half a command by hand, then deassert select.
		responder.SetSelect(true)
		for i := 0; i < 13; i++ {
			responder.SetClock(false)
			responder.SetData(1)
			responder.SetClock(true)
		}
		responder.SetSelect(false)

		word, err := engine.Transfer(spi.NewCommand(false, spi.Width32, 0x2C), 0)
		Expect(err).ToNot(HaveOccurred())
		Expect(word).To(Equal(uint32(0xCAFEBABE)))
	})
})
