// Package hardware adapts the cart peripherals: the two-line status display,
// the buzzer and the checkout button. GPIO devices use periph.io; console
// stand-ins allow running the daemon on a workstation.
package hardware
