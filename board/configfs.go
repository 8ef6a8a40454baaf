// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package board

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
)

// gpioSimConfigfs is the usual location of gpio-sim in configfs.
const gpioSimConfigfs = "/sys/kernel/config/gpio-sim"

// findGPIOSim returns the path to gpio-sim in configfs, loading the module
// and mounting configfs if necessary.
func findGPIOSim() (string, error) {
	if _, err := os.Stat(gpioSimConfigfs); err == nil {
		return gpioSimConfigfs, nil
	}
	if err := exec.Command("modprobe", "gpio-sim").Run(); err == nil {
		if _, err := os.Stat(gpioSimConfigfs); err == nil {
			return gpioSimConfigfs, nil
		}
	}
	mp, err := configfsMountPoint()
	if err != nil {
		return "", err
	}
	p := path.Join(mp, "gpio-sim")
	if _, err := os.Stat(p); err != nil {
		return "", errors.New("gpio-sim module not loaded")
	}
	return p, nil
}

// configfsMountPoint returns where configfs is mounted, mounting it at
// /sys/kernel/config if it is not mounted at all.
func configfsMountPoint() (string, error) {
	f, err := os.Open("/proc/mounts")
	if err != nil {
		return "", errors.Wrap(err, "find configfs")
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		fields := strings.Fields(s.Text())
		if len(fields) >= 6 && fields[2] == "configfs" {
			return fields[1], nil
		}
	}
	mp := path.Dir(gpioSimConfigfs)
	if err := exec.Command("mount", "-t", "configfs", "configfs", mp).Run(); err != nil {
		return "", errors.New("can't find configfs mountpoint")
	}
	return mp, nil
}

func readAttr(dir, attr string) (string, error) {
	data, err := os.ReadFile(path.Join(dir, attr))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func writeAttr(dir, attr, value string) error {
	return os.WriteFile(path.Join(dir, attr), []byte(value), 0666)
}

var simCounter atomic.Uint32

// simName returns a configfs name for a chip that will not clash with other
// chips created by this or any other process.
func simName() string {
	app := "vhwboard"
	if exe, err := os.Executable(); err == nil {
		app = path.Base(exe)
	}
	return fmt.Sprintf("%s-p%d-%d", app, os.Getpid(), simCounter.Add(1))
}
