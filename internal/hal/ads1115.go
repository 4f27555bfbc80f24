package hal

import (
	"context"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"

	"github.com/fernwood-labs/adsnode/internal/infrastructure/config"
	"github.com/fernwood-labs/adsnode/internal/lifecycle"
)

// Conversion parameters for the ADS1115.
const (
	// fullScale is the ±4.096V programmable gain range, wide enough for
	// sensors fed from a 3.3V rail.
	fullScale = 4096 * physic.MilliVolt

	// sampleRate is the conversion data rate. 128 SPS is the chip default.
	sampleRate = 128 * physic.Hertz
)

// hostOnce guards the one-time periph host driver initialisation.
var hostOnce sync.Once

// analogPin is the slice of ads1x15.PinADC the sampler reads through.
type analogPin interface {
	Read() (analog.Sample, error)
	Halt() error
}

// indicatorPin is the slice of gpio.PinIO the sampler toggles.
type indicatorPin interface {
	Out(l gpio.Level) error
}

// ADS1115 reads the four-channel sample set. It implements
// lifecycle.Sampler.
type ADS1115 struct {
	bus       i2c.BusCloser
	pins      [lifecycle.ChannelCount]analogPin
	indicator indicatorPin
}

// New opens the I2C bus and prepares all four ADS1115 channels.
//
// Parameters:
//   - adcCfg: Bus name and device address from node.yaml
//   - samplePin: GPIO name driven HIGH while sampling; "" disables it
//
// Returns:
//   - *ADS1115: Ready sampler
//   - error: If host init, bus open, or channel setup fails
func New(adcCfg config.ADCConfig, samplePin string) (*ADS1115, error) {
	var initErr error
	hostOnce.Do(func() {
		_, initErr = host.Init()
	})
	if initErr != nil {
		return nil, fmt.Errorf("initialising host drivers: %w", initErr)
	}

	bus, err := i2creg.Open(adcCfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("opening I2C bus %q: %w", adcCfg.Bus, err)
	}

	opts := ads1x15.DefaultOpts
	opts.I2cAddress = uint16(adcCfg.Address)

	dev, err := ads1x15.NewADS1115(bus, &opts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("probing ADS1115 at 0x%02x: %w", adcCfg.Address, err)
	}

	a := &ADS1115{bus: bus}

	channels := [lifecycle.ChannelCount]ads1x15.Channel{
		ads1x15.Channel0,
		ads1x15.Channel1,
		ads1x15.Channel2,
		ads1x15.Channel3,
	}
	for i, ch := range channels {
		pin, err := dev.PinForChannel(ch, fullScale, sampleRate, ads1x15.SaveEnergy)
		if err != nil {
			bus.Close()
			return nil, fmt.Errorf("configuring channel %d: %w", i, err)
		}
		a.pins[i] = pin
	}

	if samplePin != "" {
		pin := gpioreg.ByName(samplePin)
		if pin == nil {
			bus.Close()
			return nil, fmt.Errorf("sample indicator pin %q not found", samplePin)
		}
		a.indicator = pin
	}

	return a, nil
}

// Sample reads channels 0..3 in fixed order and returns the raw counts.
//
// The indicator pin is HIGH for the whole read so a scope on the bench
// can see exactly when the node is sampling.
func (a *ADS1115) Sample(ctx context.Context) (lifecycle.Sample, error) {
	if a.indicator != nil {
		if err := a.indicator.Out(gpio.High); err != nil {
			return lifecycle.Sample{}, fmt.Errorf("raising sample indicator: %w", err)
		}
		defer a.indicator.Out(gpio.Low) //nolint:errcheck // Lowering the marker is best effort
	}

	var sample lifecycle.Sample
	for i, pin := range a.pins {
		if err := ctx.Err(); err != nil {
			return lifecycle.Sample{}, err
		}

		reading, err := pin.Read()
		if err != nil {
			return lifecycle.Sample{}, fmt.Errorf("reading channel %d: %w", i, err)
		}

		sample.Readings[i] = lifecycle.Reading{
			Channel: i,
			Raw:     int16(reading.Raw),
		}
	}

	return sample, nil
}

// Close halts the channels and releases the I2C bus.
func (a *ADS1115) Close() error {
	for _, pin := range a.pins {
		if pin != nil {
			_ = pin.Halt() //nolint:errcheck // Best effort on the way to sleep
		}
	}
	if a.bus != nil {
		return a.bus.Close()
	}
	return nil
}
