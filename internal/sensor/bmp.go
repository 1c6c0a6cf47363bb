package sensor

import (
	"sync"
	"time"

	"codeberg.org/mutker/barologd/internal/errors"
	"codeberg.org/mutker/barologd/internal/logger"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"
)

const senseInterval = 200 * time.Millisecond

// BMP is an Instrument backed by a BMP280/BME280 on an I2C bus.
type BMP struct {
	bus i2c.BusCloser
	dev *bmxx80.Dev
	mu  sync.Mutex
}

// OpenBMP initializes the periph host, opens busName (empty selects the
// first available bus) and probes for the sensor at addr. A missing bus or
// device reports ErrNoInstrument so ticks record NO_SENSOR rather than a
// fault.
func OpenBMP(busName string, addr uint16) (*BMP, error) {
	errFactory := errors.New()

	if _, err := host.Init(); err != nil {
		return nil, errFactory.Wrap(ErrHostInit, err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, errFactory.Wrap(ErrInstrumentMissing, err)
	}

	dev, err := bmxx80.NewI2C(bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, errFactory.Wrap(ErrInstrumentMissing, err)
	}

	logger.Info().Str("device", dev.String()).Msg("Detected pressure sensor")

	return &BMP{bus: bus, dev: dev}, nil
}

func (b *BMP) Subscribe() (<-chan float64, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	envs, err := b.dev.SenseContinuous(senseInterval)
	if err != nil {
		return nil, nil, errors.New().Wrap(ErrSubscribeFailed, err)
	}

	readings := make(chan float64, 1)
	go func() {
		defer close(readings)
		for e := range envs {
			pa := float64(e.Pressure) / float64(physic.Pascal)
			select {
			case readings <- pa / 100.0: // 1 hPa = 100 Pa
			default:
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if err := b.dev.Halt(); err != nil {
				logger.Debug().Err(err).Msg("Failed to halt continuous sensing")
			}
		})
	}

	return readings, stop, nil
}

func (b *BMP) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.bus.Close(); err != nil {
		return errors.New().Wrap(ErrDeviceClose, err)
	}
	return nil
}
