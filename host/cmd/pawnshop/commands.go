package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pawnshop/gcode"
	"pawnshop/host/serial"
	"pawnshop/motion"
	"pawnshop/station"
)

var axisLetters = map[string]int{"x": motion.X, "y": motion.Y, "z": motion.Z}

func (a *app) homeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "home [x|y|z]...",
		Short: "Home the given axes, or all of them in X, Y, Z order",
		RunE: func(cmd *cobra.Command, args []string) error {
			axes := []int{motion.X, motion.Y, motion.Z}
			if len(args) > 0 {
				axes = axes[:0]
				for _, arg := range args {
					i, ok := axisLetters[strings.ToLower(arg)]
					if !ok {
						return fmt.Errorf("unknown axis %q", arg)
					}
					axes = append(axes, i)
				}
			}

			rails, err := a.openRails()
			if err != nil {
				return err
			}
			if err := rails.CalibrateAxes(cmd.Context(), axes...); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rails.Position())
			return nil
		},
	}
}

func (a *app) moveCommand() *cobra.Command {
	var noHome bool

	cmd := &cobra.Command{
		Use:   "move X Y Z",
		Short: "Home, then move the carriage to an absolute position in mm",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var target motion.Vec3D
			for i, arg := range args {
				v, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return fmt.Errorf("invalid coordinate %q", arg)
				}
				target[i] = v
			}

			rails, err := a.openRails()
			if err != nil {
				return err
			}
			if !noHome {
				if err := rails.Calibrate(cmd.Context()); err != nil {
					return err
				}
			}
			if err := rails.Move(target); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rails.Position())
			return nil
		},
	}
	cmd.Flags().BoolVar(&noHome, "no-home", false, "Trust the current carriage position as zero")
	return cmd
}

func (a *app) posCommand() *cobra.Command {
	var home bool

	cmd := &cobra.Command{
		Use:   "pos",
		Short: "Print the tracked carriage position",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rails, err := a.openRails()
			if err != nil {
				return err
			}
			if home {
				if err := rails.Calibrate(cmd.Context()); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), rails.Position())
			return nil
		},
	}
	cmd.Flags().BoolVar(&home, "home", false, "Home before reporting")
	return cmd
}

func (a *app) weighCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "weigh",
		Short: "Wait for a stable run of readings and print the filtered weight",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openScale(nil)
			if err != nil {
				return err
			}
			w, ok := s.Weight()
			if !ok {
				return station.ErrScaleOffline
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.4f\n", w)
			return nil
		},
	}
}

func (a *app) probeCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check whether the scale is sending data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openScale(nil)
			if err != nil {
				return err
			}
			if timeout == 0 {
				timeout = a.cfg.Scale.ProbeTimeout
			}
			if !s.PoweredOn(timeout) {
				return fmt.Errorf("scale silent for %v", timeout)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "scale is on")
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "How long to wait for a line (default: scale.probe_timeout)")
	return cmd
}

func (a *app) portsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ports, err := serial.ListPorts()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no serial ports found")
				return nil
			}
			for _, p := range ports {
				marker := ""
				if p == a.cfg.Scale.SerialPath {
					marker = " (scale)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", p, marker)
			}
			return nil
		},
	}
}

func (a *app) consoleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Read G-code from stdin: G28, G0/G1, G90/G91, M114, M700, M701",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rails, err := a.openRails()
			if err != nil {
				return err
			}

			var sc gcode.Scale
			if s, err := a.openScale(rails); err != nil {
				a.logger.Warn("console running without scale", "error", err)
			} else {
				sc = s
			}

			interp := gcode.NewInterpreter(rails, sc, cmd.OutOrStdout(), a.logger)
			return gcode.NewConsole(interp).Run(cmd.Context(), cmd.InOrStdin())
		},
	}
}

func (a *app) measureCommand() *cobra.Command {
	var wash, dry, tare, deliver bool

	cmd := &cobra.Command{
		Use:   "measure",
		Short: "Run the hydrostatic density measurement",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			rails, err := a.openRails()
			if err != nil {
				return err
			}
			s, err := a.openScale(rails)
			if err != nil {
				return err
			}
			st := station.New(rails, s, a.cfg.Devices, a.cfg.Scale.ProbeTimeout, a.logger)

			if err := rails.Calibrate(ctx); err != nil {
				return err
			}
			if err := st.EnsureScale(ctx); err != nil {
				return err
			}

			if tare {
				if _, err := st.CalibrateTare(ctx); err != nil {
					return err
				}
				if !a.simulate {
					fmt.Fprint(cmd.OutOrStdout(), "Load the sample and press enter ")
					if _, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n'); err != nil {
						return err
					}
				}
			}

			if wash {
				if err := st.Wash(ctx); err != nil {
					return err
				}
			}
			if dry {
				if err := st.Dry(ctx); err != nil {
					return err
				}
			}

			m, err := st.MeasureDensity(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "weight=%.4f volume=%.4f density=%.3f\n", m.Weight, m.Volume, m.Density)

			if deliver {
				return st.Deliver(ctx)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&tare, "tare", false, "Measure the empty holder first")
	cmd.Flags().BoolVar(&wash, "wash", false, "Wash the sample before measuring")
	cmd.Flags().BoolVar(&dry, "dry", false, "Dry the sample before measuring")
	cmd.Flags().BoolVar(&deliver, "deliver", false, "Drop the sample at the gold receiver afterwards")
	return cmd
}
