package power

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const defaultSysfsRoot = "/sys"

// SysfsProber reads power state from the Linux sysfs tree. Doze mode and
// app standby buckets have no host equivalent here and always report the
// zero value / unknown.
type SysfsProber struct {
	root string
}

func NewSysfsProber() *SysfsProber {
	return &SysfsProber{root: defaultSysfsRoot}
}

// NewSysfsProberAt roots the prober at dir instead of /sys.
func NewSysfsProberAt(dir string) *SysfsProber {
	return &SysfsProber{root: dir}
}

func (p *SysfsProber) Capture() State {
	return State{
		PowerSaveMode:  p.powerSaveMode(),
		BatteryPercent: p.batteryPercent(),
	}
}

func (p *SysfsProber) batteryPercent() *int {
	supplies := filepath.Join(p.root, "class", "power_supply")
	entries, err := os.ReadDir(supplies)
	if err != nil {
		return nil
	}

	for _, entry := range entries {
		data, err := os.ReadFile(filepath.Join(supplies, entry.Name(), "capacity"))
		if err != nil {
			continue
		}
		value, err := strconv.Atoi(strings.TrimSpace(string(data)))
		if err != nil {
			continue
		}
		if value < 0 {
			value = 0
		}
		if value > 100 {
			value = 100
		}
		return &value
	}

	return nil
}

func (p *SysfsProber) powerSaveMode() bool {
	governor := filepath.Join(p.root, "devices", "system", "cpu", "cpu0", "cpufreq", "scaling_governor")
	data, err := os.ReadFile(governor)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == "powersave"
}
