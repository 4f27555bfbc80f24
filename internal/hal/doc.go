// Package hal is the hardware access layer for adsnode.
//
// It wraps periph.io for the two pieces of hardware the node touches:
//
//   - the ADS1115 ADC on the I2C bus, read single-ended on channels 0..3
//     in fixed order, raw 16-bit counts with no scaling;
//   - GPIO: an output pin held HIGH for the duration of sampling (scope
//     trigger / observability) and an input pin that, when held at boot,
//     requests a configuration reset.
//
// Everything above this package talks to interfaces; the lifecycle core
// never imports periph.
package hal
