// Package ui provides the terminal side of segclock: a simulated display
// for segclockd and styled output for segclock-cfg.
//
// # Simulator
//
// Simulator is a display.Painter and display.Dimmer backed by a Bubble Tea
// program. It draws the four digits as seven-segment art using the same
// segment font as the HT16K33 driver, so what the terminal shows matches
// the hardware. Pressing "b" taps the clock's button; "q" quits.
//
//	sim := ui.NewSimulator(ui.SimulatorOptions{Title: "Hall Clock", Button: handler})
//	go sim.Run(ctx)
//	scheduler := display.New(display.Options{Painter: sim})
//
// While the simulator owns the terminal, zap logging should go to a file or
// stay silent (SEGCLOCK_LOG_LEVEL unset).
//
// # Printer
//
// Printer renders headers and result boxes for one-shot CLI commands:
//
//	p := ui.NewPrinter(os.Stdout)
//	p.PrintHeader("Brightness", "segclock-cfg brighter", ui.Field{Key: "Clock", Value: addr})
//	p.PrintSuccess("Brightness raised", ui.Field{Key: "Level", Value: "8"})
package ui
