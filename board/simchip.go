// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package board

import (
	"fmt"
	"io/fs"
	"os"
	"path"

	"github.com/pkg/errors"
)

const (
	// Line is inactive.
	LevelInactive int = iota

	// Line is active.
	LevelActive
)

// SimChip presents board lines as a gpiochip provided by the gpio-sim kernel
// module.
//
// Setting a line on the SimChip sets the pull of the simulated line, so a
// userspace consumer that requests the line as an input sees the level, and
// edge events if it has requested them.
//
// Creating a SimChip requires gpio-sim (kernel 5.19 or later) and root
// permissions to manipulate configfs and sysfs.
type SimChip struct {
	// The name of the sim in configfs.
	name string

	// The path to the sim in configfs.
	configfsPath string

	label    string
	numLines int

	// Lines assigned a name.
	names map[int]string

	// The name of the gpiochip, e.g. gpiochip0.
	chipName string

	// The path to the gpiochip in /dev.
	devPath string

	// The path to the chip in /sys/devices/platform.
	sysfsPath string
}

// SimChipOption defines the interface required to provide an option to
// NewSimChip.
type SimChipOption interface {
	applySimChipOption(*SimChip)
}

// SimNameOption defines the configfs name of a SimChip.
type SimNameOption string

// WithSimName returns an option that sets the name of the sim in configfs.
//
// The name must be unique on the system.  If not provided a unique name is
// generated.
func WithSimName(name string) SimNameOption {
	return SimNameOption(name)
}

func (o SimNameOption) applySimChipOption(c *SimChip) {
	c.name = string(o)
}

// LineNameOption names a line of a SimChip.
type LineNameOption struct {
	Offset int
	Name   string
}

// WithLineName returns an option that names a simulated line, e.g. after the
// LED it represents.
func WithLineName(offset int, name string) LineNameOption {
	return LineNameOption{offset, name}
}

func (o LineNameOption) applySimChipOption(c *SimChip) {
	if c.names == nil {
		c.names = make(map[int]string)
	}
	c.names[o.Offset] = o.Name
}

// NewSimChip creates a gpio-sim chip with numLines lines and takes it live.
//
// The label is reported in the gpiochip info and may be used to identify the
// chip.  The available options are [WithSimName] and [WithLineName].
func NewSimChip(label string, numLines int, options ...SimChipOption) (*SimChip, error) {
	if numLines <= 0 {
		return nil, errors.Errorf("invalid number of lines: %d", numLines)
	}
	c := &SimChip{label: label, numLines: numLines}
	for _, o := range options {
		o.applySimChipOption(c)
	}
	if c.name == "" {
		c.name = simName()
	}
	root, err := findGPIOSim()
	if err != nil {
		return nil, err
	}
	c.configfsPath = path.Join(root, c.name)
	if _, err := os.Stat(c.configfsPath); err == nil {
		return nil, errors.Errorf("sim with name '%s' already exists", c.name)
	}
	if err := c.live(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// live configures the bank in configfs, takes the sim live and locates the
// resulting gpiochip.
func (c *SimChip) live() error {
	bankPath := path.Join(c.configfsPath, "bank0")
	if err := os.MkdirAll(bankPath, 0755); err != nil {
		return errors.Wrap(err, "create bank")
	}
	if err := writeAttr(bankPath, "label", c.label); err != nil {
		return err
	}
	if err := writeAttr(bankPath, "num_lines", fmt.Sprintf("%d", c.numLines)); err != nil {
		return err
	}
	for o, n := range c.names {
		linePath := path.Join(bankPath, fmt.Sprintf("line%d", o))
		if err := os.Mkdir(linePath, 0755); err != nil {
			return errors.Wrapf(err, "create line %d", o)
		}
		if err := writeAttr(linePath, "name", n); err != nil {
			return err
		}
	}
	if err := writeAttr(c.configfsPath, "live", "1"); err != nil {
		return errors.Wrap(err, "take sim live")
	}
	devName, err := readAttr(c.configfsPath, "dev_name")
	if err != nil {
		return err
	}
	chipName, err := readAttr(bankPath, "chip_name")
	if err != nil {
		return err
	}
	devPath := path.Join("/dev", chipName)
	stat, err := os.Lstat(devPath)
	if err != nil {
		return err
	}
	if stat.Mode()&fs.ModeSymlink != 0 {
		return errors.Errorf("a symlink (%s) is masking GPIO device %s", devPath, chipName)
	}
	c.chipName = chipName
	c.devPath = devPath
	c.sysfsPath = path.Join("/sys/devices/platform", devName, chipName)
	return nil
}

// Close takes the sim offline and removes its configuration, removing the
// gpiochip.
func (c *SimChip) Close() error {
	if c.configfsPath == "" {
		return nil
	}
	// may not be live if construction failed part way
	writeAttr(c.configfsPath, "live", "0")
	bankPath := path.Join(c.configfsPath, "bank0")
	for o := range c.names {
		os.Remove(path.Join(bankPath, fmt.Sprintf("line%d", o)))
	}
	os.Remove(bankPath)
	err := os.Remove(c.configfsPath)
	c.configfsPath = ""
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove sim")
	}
	return nil
}

// Name returns the name of the sim in configfs.
func (c *SimChip) Name() string {
	return c.name
}

// Label returns the label of the chip.
func (c *SimChip) Label() string {
	return c.label
}

// NumLines returns the number of lines simulated by the chip.
func (c *SimChip) NumLines() int {
	return c.numLines
}

// LineName returns the name assigned to a line, if any.
func (c *SimChip) LineName(offset int) string {
	return c.names[offset]
}

// ChipName returns the name of the gpiochip.
//
// e.g. "gpiochip0"
func (c *SimChip) ChipName() string {
	return c.chipName
}

// DevPath returns the path to the gpiochip device.
//
// e.g. "/dev/gpiochip0"
func (c *SimChip) DevPath() string {
	return c.devPath
}

// SetLine sets the pull of a line to the state reported by the bus.
//
// This makes the SimChip a LineSink.
func (c *SimChip) SetLine(pin, state int) error {
	if pin < 0 || pin >= c.numLines {
		return errors.Wrapf(ErrNoSuchLine, "pin %d", pin)
	}
	level := LevelInactive
	if state != 0 {
		level = LevelActive
	}
	return c.SetPull(pin, level)
}

// SetPull sets the pull of the given line.
func (c *SimChip) SetPull(offset, level int) error {
	pull := "pull-down"
	if level == LevelActive {
		pull = "pull-up"
	}
	return writeAttr(c.linePath(offset), "pull", pull)
}

// Pull returns the pull of the given line.
func (c *SimChip) Pull(offset int) (int, error) {
	v, err := readAttr(c.linePath(offset), "pull")
	if err != nil {
		return LevelInactive, err
	}
	switch v {
	case "pull-down":
		return LevelInactive, nil
	case "pull-up":
		return LevelActive, nil
	}
	return LevelInactive, errors.Errorf("unexpected pull value: %s", v)
}

// Level returns the level of the given line.
//
// If the line has been requested as an output by userspace this is the level
// it is driven to, else it follows the pull.
func (c *SimChip) Level(offset int) (int, error) {
	v, err := readAttr(c.linePath(offset), "value")
	if err != nil {
		return LevelInactive, err
	}
	switch v {
	case "0":
		return LevelInactive, nil
	case "1":
		return LevelActive, nil
	}
	return LevelInactive, errors.Errorf("unexpected level value: %s", v)
}

func (c *SimChip) linePath(offset int) string {
	return path.Join(c.sysfsPath, fmt.Sprintf("sim_gpio%d", offset))
}
