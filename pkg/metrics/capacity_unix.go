//go:build !windows

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sys/unix"
)

// RegisterCapacity exposes total and free byte gauges for the filesystem
// holding the storage root. The values are sampled at scrape time with
// statfs. No-op when metrics are disabled.
func RegisterCapacity(root string) {
	reg := GetRegistry()
	if reg == nil {
		return
	}

	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "shelf_storage_capacity_bytes",
			Help:        "Total capacity of the filesystem holding the storage root",
			ConstLabels: prometheus.Labels{"root": root},
		},
		func() float64 {
			var st unix.Statfs_t
			if err := unix.Statfs(root, &st); err != nil {
				return 0
			}
			return float64(st.Blocks) * float64(st.Bsize)
		},
	))

	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "shelf_storage_available_bytes",
			Help:        "Bytes available to the gateway on the storage root filesystem",
			ConstLabels: prometheus.Labels{"root": root},
		},
		func() float64 {
			var st unix.Statfs_t
			if err := unix.Statfs(root, &st); err != nil {
				return 0
			}
			return float64(st.Bavail) * float64(st.Bsize)
		},
	))
}
