package harness_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/macsim/harness"
)

var _ = Describe("Config", func() {
	Describe("DefaultConfig", func() {
		It("should match the reference bench parameters", func() {
			cfg := harness.DefaultConfig()

			Expect(cfg.SysClockMHz).To(Equal(62.5))
			Expect(cfg.PollIntervalNs).To(Equal(100.0))
			Expect(cfg.TimeoutUs).To(Equal(5000.0))
		})

		It("should validate", func() {
			Expect(harness.DefaultConfig().Validate()).To(Succeed())
		})
	})

	Describe("Validate", func() {
		It("should reject a non-positive clock", func() {
			cfg := harness.DefaultConfig()
			cfg.SysClockMHz = 0

			Expect(cfg.Validate()).To(HaveOccurred())
		})

		It("should reject a non-positive poll interval", func() {
			cfg := harness.DefaultConfig()
			cfg.PollIntervalNs = -1

			Expect(cfg.Validate()).To(HaveOccurred())
		})

		It("should reject a non-positive timeout", func() {
			cfg := harness.DefaultConfig()
			cfg.TimeoutUs = 0

			Expect(cfg.Validate()).To(HaveOccurred())
		})
	})

	Describe("LoadConfig", func() {
		It("should keep defaults for missing fields", func() {
			path := filepath.Join(GinkgoT().TempDir(), "config.json")
			Expect(os.WriteFile(path, []byte(`{"timeout_us": 100}`), 0644)).
				To(Succeed())

			cfg, err := harness.LoadConfig(path)

			Expect(err).ToNot(HaveOccurred())
			Expect(cfg.TimeoutUs).To(Equal(100.0))
			Expect(cfg.SysClockMHz).To(Equal(62.5))
		})

		It("should fail on a missing file", func() {
			_, err := harness.LoadConfig("/does/not/exist.json")

			Expect(err).To(HaveOccurred())
		})

		It("should fail on malformed JSON", func() {
			path := filepath.Join(GinkgoT().TempDir(), "bad.json")
			Expect(os.WriteFile(path, []byte(`{`), 0644)).To(Succeed())

			_, err := harness.LoadConfig(path)

			Expect(err).To(HaveOccurred())
		})

		It("should fail on invalid values", func() {
			path := filepath.Join(GinkgoT().TempDir(), "invalid.json")
			Expect(os.WriteFile(path, []byte(`{"sys_clock_mhz": -1}`), 0644)).
				To(Succeed())

			_, err := harness.LoadConfig(path)

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("SaveConfig", func() {
		It("should round-trip through a file", func() {
			cfg := harness.DefaultConfig()
			cfg.Seed = 42
			path := filepath.Join(GinkgoT().TempDir(), "saved.json")

			Expect(cfg.SaveConfig(path)).To(Succeed())
			loaded, err := harness.LoadConfig(path)

			Expect(err).ToNot(HaveOccurred())
			Expect(loaded).To(Equal(cfg))
		})
	})

	Describe("derived parameters", func() {
		It("should convert the clock frequency", func() {
			cfg := harness.DefaultConfig()

			Expect(float64(cfg.Freq().Period())).
				To(BeNumerically("~", 16e-9, 1e-15))
		})

		It("should convert the timeout", func() {
			cfg := harness.DefaultConfig()

			Expect(float64(cfg.Timeout())).To(BeNumerically("~", 5e-3, 1e-12))
		})
	})
})
