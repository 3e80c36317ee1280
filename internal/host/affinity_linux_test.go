//go:build linux

package host

import (
	"math"
	"runtime"

	"golang.org/x/sys/unix"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func threadCPUs() []int {
	var set unix.CPUSet
	Expect(unix.SchedGetaffinity(0, &set)).To(Succeed())
	return cpusOf(&set)
}

var _ = Describe("affinity", func() {

	It("lists the allowed CPUs", func() {
		cpus, err := AllowedCPUs()
		Expect(err).NotTo(HaveOccurred())
		Expect(cpus).NotTo(BeEmpty())
		Expect(cpus).To(HaveLen(len(threadCPUs())))
	})

	It("bounds cpu lists by the affinity mask size", func() {
		Expect(MaxCPUs).To(Equal(unix.CPU_SETSIZE))
	})

	It("pins the calling thread", func() {
		cpus, err := AllowedCPUs()
		Expect(err).NotTo(HaveOccurred())
		target := cpus[len(cpus)-1]

		done := make(chan []int)
		go func() {
			defer GinkgoRecover()
			// the thread dies with the goroutine instead of carrying the pin
			runtime.LockOSThread()
			Expect(PinThread(target)).To(Succeed())
			done <- threadCPUs()
		}()
		Eventually(done).Should(Receive(HaveExactElements(target)))
	})

	It("confines all threads and restores them", func() {
		cpus, err := AllowedCPUs()
		Expect(err).NotTo(HaveOccurred())

		restore, err := ConfineProcess(cpus[0])
		Expect(err).NotTo(HaveOccurred())
		Expect(threadCPUs()).To(HaveExactElements(cpus[0]))

		Expect(restore()).To(Succeed())
		Expect(threadCPUs()).To(Equal(cpus))
	})

	It("knows the physical memory size", func() {
		total, err := PhysicalMemory()
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(BeNumerically(">", 0))
	})

	It("rejects buffers larger than physical memory", func() {
		Expect(CheckMemory(1 << 20)).To(Succeed())
		Expect(CheckMemory(math.MaxUint64)).To(MatchError(ErrInsufficientMemory))
	})

})
