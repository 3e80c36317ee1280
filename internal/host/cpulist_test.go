package host

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("cpu lists", func() {

	When("parsing", func() {

		It("parses single CPUs and ranges", func() {
			Expect(ParseCPUList("0-3,8")).To(HaveExactElements(0, 1, 2, 3, 8))
			Expect(ParseCPUList(" 5 ")).To(HaveExactElements(5))
			Expect(ParseCPUList("2-2")).To(HaveExactElements(2))
		})

		It("sorts and deduplicates", func() {
			Expect(ParseCPUList("8,0-2,1")).To(HaveExactElements(0, 1, 2, 8))
		})

		DescribeTable("rejects malformed lists",
			func(list string) {
				_, err := ParseCPUList(list)
				Expect(err).To(MatchError(ErrInvalidCPUList))
			},
			Entry("empty", ""),
			Entry("garbage", "foo"),
			Entry("negative", "-1"),
			Entry("descending", "3-1"),
			Entry("dangling comma", "1,"),
			Entry("open range", "1-"),
			Entry("cpu beyond the affinity mask", "1024"),
			Entry("huge range", "0-2000000000"),
		)

		It("accepts the last cpu of the affinity mask", func() {
			Expect(ParseCPUList("1022-1023")).To(HaveExactElements(MaxCPUs-2, MaxCPUs-1))
		})

	})

	It("formats lists with ranges", func() {
		Expect(FormatCPUList(nil)).To(BeEmpty())
		Expect(FormatCPUList([]int{0, 1, 2, 3, 8, 10, 11})).To(Equal("0-3,8,10-11"))
		Expect(FormatCPUList([]int{4})).To(Equal("4"))
	})

	It("round-trips", func() {
		cpus, err := ParseCPUList("0-3,8,10-11")
		Expect(err).NotTo(HaveOccurred())
		Expect(FormatCPUList(cpus)).To(Equal("0-3,8,10-11"))
	})

	When("validating", func() {

		It("accepts subsets of the allowed CPUs", func() {
			Expect(ValidateCPUs([]int{1, 3}, []int{0, 1, 2, 3})).To(Succeed())
		})

		It("names the unavailable CPU", func() {
			err := ValidateCPUs([]int{1, 7}, []int{0, 1, 2, 3})
			Expect(err).To(MatchError(ErrCPUUnavailable))
			Expect(err.Error()).To(ContainSubstring("cpu 7"))
			Expect(err.Error()).To(ContainSubstring("0-3"))
		})

	})

	When("picking the housekeeping CPU", func() {

		It("prefers an unmeasured CPU", func() {
			Expect(HousekeepingCPU([]int{0, 1, 2, 3}, []int{0, 1})).To(Equal(2))
		})

		It("falls back to the first allowed CPU", func() {
			Expect(HousekeepingCPU([]int{2, 3}, []int{2, 3})).To(Equal(2))
			Expect(HousekeepingCPU(nil, nil)).To(Equal(0))
		})

	})

})
